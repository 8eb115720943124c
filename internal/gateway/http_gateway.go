package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/studywise/session-service/internal/models"
	"github.com/studywise/session-service/internal/utils"
)

// envelope is the backend's response wrapper. Code 200 signals success
// regardless of the HTTP status.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type httpGateway struct {
	baseURL string
	client  *http.Client
	logger  utils.Logger
}

// NewHTTPGateway creates an ExamGateway talking to the exam backend's REST API.
func NewHTTPGateway(baseURL string, logger utils.Logger) ExamGateway {
	return &httpGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With("component", "exam_gateway"),
	}
}

func (g *httpGateway) LoadExam(ctx context.Context, examID string) (*models.ExamDefinition, error) {
	path := "/exams/exam?" + url.Values{"examId": {examID}}.Encode()

	var exam models.ExamDefinition
	if err := g.doJSON(ctx, http.MethodGet, path, nil, &exam); err != nil {
		return nil, fmt.Errorf("load exam %s: %w", examID, err)
	}

	exam.Normalize()
	return &exam, nil
}

func (g *httpGateway) SubmitAnswers(ctx context.Context, payload *models.SubmissionPayload) (*models.ResultSummary, error) {
	var result models.ResultSummary
	if err := g.doJSON(ctx, http.MethodPost, "/exams/saveResult", payload, &result); err != nil {
		return nil, fmt.Errorf("submit answers for exam %s: %w", payload.ExamID, err)
	}
	return &result, nil
}

func (g *httpGateway) SaveQuestion(ctx context.Context, examID string, q models.DraftQuestion) (string, error) {
	var created models.Question
	if err := g.doJSON(ctx, http.MethodPost, "/admin/exam/questions/"+url.PathEscape(examID), q, &created); err != nil {
		return "", fmt.Errorf("save question for exam %s: %w", examID, err)
	}
	return created.ID, nil
}

func (g *httpGateway) UpdateQuestion(ctx context.Context, questionID string, q models.DraftQuestion) error {
	if err := g.doJSON(ctx, http.MethodPut, "/admin/exam/questions/"+url.PathEscape(questionID), q, nil); err != nil {
		return fmt.Errorf("update question %s: %w", questionID, err)
	}
	return nil
}

func (g *httpGateway) DeleteQuestion(ctx context.Context, questionID string) error {
	if err := g.doJSON(ctx, http.MethodDelete, "/admin/exam/questions/"+url.PathEscape(questionID), nil, nil); err != nil {
		return fmt.Errorf("delete question %s: %w", questionID, err)
	}
	return nil
}

func (g *httpGateway) UploadImage(ctx context.Context, upload ImageUpload) (string, error) {
	if err := ValidateImageUpload(upload); err != nil {
		return "", err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Filename))
	header.Set("Content-Type", upload.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create multipart: %w", err)
	}
	if _, err := io.Copy(part, upload.Data); err != nil {
		return "", fmt.Errorf("copy upload data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/admin/upload", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var imageURL string
	if err := g.do(req, &imageURL); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return imageURL, nil
}

// ValidateImageUpload runs the local checks the draft editor applies before
// attaching an image: image content types only, at most MaxImageSize bytes.
func ValidateImageUpload(upload ImageUpload) error {
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return fmt.Errorf("%w: got %s", ErrUploadInvalidType, upload.ContentType)
	}
	if upload.Size > MaxImageSize {
		return fmt.Errorf("%w: %d bytes", ErrUploadTooLarge, upload.Size)
	}
	return nil
}

func (g *httpGateway) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return g.do(req, out)
}

func (g *httpGateway) do(req *http.Request, out interface{}) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if env.Code != http.StatusOK {
		g.logger.Warn("Backend returned non-success code",
			"path", req.URL.Path,
			"code", env.Code,
			"message", env.Message)
		if env.Code == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrExamNotFound, env.Message)
		}
		return fmt.Errorf("%w: code %d %s", ErrBackendRejected, env.Code, env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}
