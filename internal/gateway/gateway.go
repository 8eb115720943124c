package gateway

import (
	"context"
	"errors"
	"io"

	"github.com/studywise/session-service/internal/models"
)

// MaxImageSize is the upload ceiling enforced before any network I/O.
const MaxImageSize = 5 * 1024 * 1024

var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrBackendRejected  = errors.New("backend rejected the request")
	ErrUploadInvalidType = errors.New("upload must be an image")
	ErrUploadTooLarge    = errors.New("upload exceeds the 5MB limit")
)

// ImageUpload describes a question image prior to upload. ContentType and
// Size are validated locally so invalid files never reach the backend.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// ExamGateway is the client for the external exam backend. Every call is a
// suspension point; callers stay responsive and guard their own re-entrancy.
type ExamGateway interface {
	// LoadExam fetches the exam definition for a session, exactly once per session.
	LoadExam(ctx context.Context, examID string) (*models.ExamDefinition, error)

	// SubmitAnswers posts a complete submission payload and returns the graded result.
	SubmitAnswers(ctx context.Context, payload *models.SubmissionPayload) (*models.ResultSummary, error)

	// SaveQuestion persists a new question under an exam and returns its server ID.
	SaveQuestion(ctx context.Context, examID string, q models.DraftQuestion) (string, error)

	// UpdateQuestion overwrites an already persisted question.
	UpdateQuestion(ctx context.Context, questionID string, q models.DraftQuestion) error

	// DeleteQuestion removes a persisted question.
	DeleteQuestion(ctx context.Context, questionID string) error

	// UploadImage stores a question image and returns its URL.
	UploadImage(ctx context.Context, upload ImageUpload) (string, error)
}
