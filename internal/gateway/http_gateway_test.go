package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studywise/session-service/internal/models"
	"github.com/studywise/session-service/internal/utils"
)

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func respond(w http.ResponseWriter, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    code,
		"message": message,
		"data":    data,
	})
}

func TestHTTPGateway_LoadExam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exams/exam", r.URL.Path)
		assert.Equal(t, "exam-1", r.URL.Query().Get("examId"))
		respond(w, 200, "success", models.ExamDefinition{
			ID:       "exam-1",
			Title:    "Go Fundamentals",
			Duration: 30,
			Questions: []models.Question{
				{ID: "q1", Content: "c1", Answers: []string{"a", "b", "c", "d"}, Score: 2},
				{ID: "q2", Content: "c2", Answers: []string{"a", "b", "c", "d"}, Score: 3},
			},
		})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, testLogger())
	exam, err := g.LoadExam(context.Background(), "exam-1")
	require.NoError(t, err)

	assert.Equal(t, "exam-1", exam.ID)
	// Derived totals are filled when the backend omits them
	assert.Equal(t, 2, exam.TotalQuestions)
	assert.Equal(t, 5, exam.TotalScore)
}

func TestHTTPGateway_LoadExamNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, 404, "exam does not exist", nil)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, testLogger())
	_, err := g.LoadExam(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrExamNotFound)
}

func TestHTTPGateway_BackendEnvelopeCodeBeatsHTTPStatus(t *testing.T) {
	// HTTP 200 with a failure code inside the envelope still fails
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, 500, "internal failure", nil)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, testLogger())
	_, err := g.LoadExam(context.Background(), "exam-1")
	assert.ErrorIs(t, err, ErrBackendRejected)
}

func TestHTTPGateway_SubmitAnswers(t *testing.T) {
	var received models.SubmissionPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/exams/saveResult", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		respond(w, 200, "graded", models.ResultSummary{Score: 4, TotalScore: 5})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, testLogger())
	result, err := g.SubmitAnswers(context.Background(), &models.SubmissionPayload{
		ExamID: "exam-1",
		SelectedAnswers: []models.SubmissionEntry{
			{QuestionID: "q1", SelectedAnswer: "a"},
			{QuestionID: "q2", SelectedAnswer: ""},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Score)
	assert.Equal(t, "exam-1", received.ExamID)
	require.Len(t, received.SelectedAnswers, 2)
	assert.Equal(t, "", received.SelectedAnswers[1].SelectedAnswer)
}

func TestHTTPGateway_SaveQuestionReturnsServerID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/exam/questions/exam-1", r.URL.Path)
		respond(w, 200, "created", models.Question{ID: "srv-9"})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, testLogger())
	id, err := g.SaveQuestion(context.Background(), "exam-1", models.DraftQuestion{Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, "srv-9", id)
}

func TestValidateImageUpload(t *testing.T) {
	err := ValidateImageUpload(ImageUpload{ContentType: "application/pdf", Size: 100})
	assert.ErrorIs(t, err, ErrUploadInvalidType)

	err = ValidateImageUpload(ImageUpload{ContentType: "image/png", Size: MaxImageSize + 1})
	assert.ErrorIs(t, err, ErrUploadTooLarge)

	err = ValidateImageUpload(ImageUpload{ContentType: "image/jpeg", Size: MaxImageSize})
	assert.NoError(t, err)
}

func TestHTTPGateway_UploadImageRejectsBeforeNetwork(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		respond(w, 200, "ok", "http://cdn/img.png")
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, testLogger())
	_, err := g.UploadImage(context.Background(), ImageUpload{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Size:        10,
		Data:        strings.NewReader("hello"),
	})
	assert.ErrorIs(t, err, ErrUploadInvalidType)
	assert.Equal(t, 0, hits, "invalid uploads must never reach the backend")
}

func TestHTTPGateway_UploadImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "pic.png", header.Filename)
		respond(w, 200, "ok", "http://cdn/pic.png")
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, testLogger())
	url, err := g.UploadImage(context.Background(), ImageUpload{
		Filename:    "pic.png",
		ContentType: "image/png",
		Size:        5,
		Data:        strings.NewReader("bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/pic.png", url)
}
