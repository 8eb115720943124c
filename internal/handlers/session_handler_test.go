package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studywise/session-service/internal/draft"
	"github.com/studywise/session-service/internal/events"
	"github.com/studywise/session-service/internal/gateway"
	"github.com/studywise/session-service/internal/models"
	"github.com/studywise/session-service/internal/session"
	"github.com/studywise/session-service/internal/utils"
	"github.com/studywise/session-service/internal/validator"
)

type stubGateway struct {
	exam   *models.ExamDefinition
	result *models.ResultSummary
}

func (s *stubGateway) LoadExam(ctx context.Context, examID string) (*models.ExamDefinition, error) {
	exam := *s.exam
	exam.Normalize()
	return &exam, nil
}

func (s *stubGateway) SubmitAnswers(ctx context.Context, payload *models.SubmissionPayload) (*models.ResultSummary, error) {
	return s.result, nil
}

func (s *stubGateway) SaveQuestion(ctx context.Context, examID string, q models.DraftQuestion) (string, error) {
	return "srv-1", nil
}

func (s *stubGateway) UpdateQuestion(ctx context.Context, questionID string, q models.DraftQuestion) error {
	return nil
}

func (s *stubGateway) DeleteQuestion(ctx context.Context, questionID string) error {
	return nil
}

func (s *stubGateway) UploadImage(ctx context.Context, upload gateway.ImageUpload) (string, error) {
	return "http://cdn/img.png", nil
}

func testRouter(t *testing.T) (*gin.Engine, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	gw := &stubGateway{
		exam: &models.ExamDefinition{
			ID:       "exam-1",
			Title:    "Go Fundamentals",
			Duration: 30,
			Questions: []models.Question{
				{ID: "q1", Content: "c1", Answers: []string{"a", "b", "c", "d"}, Score: 1},
				{ID: "q2", Content: "c2", Answers: []string{"a", "b", "c", "d"}, Score: 1},
			},
		},
		result: &models.ResultSummary{Score: 1, TotalScore: 2, TotalQuestions: 2, SubmittedAt: time.Now()},
	}
	pub := events.NewMockEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	v := validator.New()

	manager := session.NewManager(gw, logger, pub, nil, nil)
	t.Cleanup(manager.Close)
	registry := draft.NewRegistry(v, logger)

	router := gin.New()
	hm := &HandlerManager{
		sessionHandler: NewSessionHandler(manager, v, logger),
		draftHandler:   NewDraftHandler(registry, gw, v, logger),
		resultHandler:  NewResultHandler(nil, nil, logger),
	}
	hm.SetupRoutes(router)
	return router, manager
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func startTestSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/v1/sessions", StartSessionRequest{
		ExamID:    "exam-1",
		StudentID: "student-1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data models.SessionSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	return resp.Data.ID
}

func TestSessionAPI_StartValidation(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/sessions", StartSessionRequest{StudentID: "student-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionAPI_FullFlow(t *testing.T) {
	router, _ := testRouter(t)
	id := startTestSession(t, router)

	// Snapshot
	w := doJSON(router, http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap models.SessionSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, models.SessionActive, snap.Status)
	assert.Equal(t, 2, snap.TotalQuestions)

	// Exam view must not leak correct answers
	w = doJSON(router, http.MethodGet, "/api/v1/sessions/"+id+"/exam", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correctAnswer")

	// Answer one question
	w = doJSON(router, http.MethodPut, "/api/v1/sessions/"+id+"/answer", SelectAnswerRequest{
		QuestionID: "q1", SelectedIndex: 0, SelectedText: "a",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Unconfirmed submit with an unanswered question is refused
	w = doJSON(router, http.MethodPost, "/api/v1/sessions/"+id+"/submit", SubmitRequest{})
	assert.Equal(t, http.StatusConflict, w.Code)

	// The confirmed retry goes through
	w = doJSON(router, http.MethodPost, "/api/v1/sessions/"+id+"/submit", SubmitRequest{Confirmed: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Exit needs no confirmation once submitted
	w = doJSON(router, http.MethodPost, "/api/v1/sessions/"+id+"/exit", ExitRequest{})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionAPI_NavigateValidation(t *testing.T) {
	router, _ := testRouter(t)
	id := startTestSession(t, router)

	w := doJSON(router, http.MethodPost, "/api/v1/sessions/"+id+"/navigate", NavigateRequest{Action: "teleport"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/sessions/"+id+"/navigate", NavigateRequest{Action: "jump", Index: 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/sessions/"+id+"/navigate", NavigateRequest{Action: "next"})
	require.Equal(t, http.StatusOK, w.Code)
	var snap models.SessionSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.CurrentIndex)
}

func TestSessionAPI_ExitGuard(t *testing.T) {
	router, _ := testRouter(t)
	id := startTestSession(t, router)

	w := doJSON(router, http.MethodPost, "/api/v1/sessions/"+id+"/exit", ExitRequest{})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/sessions/"+id+"/exit", ExitRequest{Confirmed: true})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDraftAPI_CreateFlow(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/drafts", OpenDraftRequest{Mode: "create"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var state DraftStateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	require.NotEmpty(t, state.EditorID)

	// Invalid question is rejected on save
	w = doJSON(router, http.MethodPut, "/api/v1/drafts/"+state.EditorID+"/current", UpdateCurrentRequest{
		Content: "What color is the sky?",
		Answers: []string{"red", "red", "blue", "yellow"},
		Correct: "blue",
		Score:   1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, http.MethodPost, "/api/v1/drafts/"+state.EditorID+"/save", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Fixing the duplicate option makes it saveable
	w = doJSON(router, http.MethodPut, "/api/v1/drafts/"+state.EditorID+"/current", UpdateCurrentRequest{
		Content: "What color is the sky?",
		Answers: []string{"red", "green", "blue", "yellow"},
		Correct: "blue",
		Score:   1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, http.MethodPost, "/api/v1/drafts/"+state.EditorID+"/save", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Len(t, state.Questions, 1)

	// Deleting needs confirmation
	w = doJSON(router, http.MethodDelete, "/api/v1/drafts/"+state.EditorID+"/questions/0", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = doJSON(router, http.MethodDelete, "/api/v1/drafts/"+state.EditorID+"/questions/0?confirmed=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
