package repositories

import (
	"context"
	"errors"

	"github.com/studywise/session-service/internal/models"
)

// SessionArchiveRepository persists submitted sessions for result listings
// and export.
type SessionArchiveRepository interface {
	Create(ctx context.Context, archive *models.SessionArchive) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.SessionArchive, error)
	ListByExam(ctx context.Context, examID string, limit, offset int) ([]*models.SessionArchive, int64, error)
	ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]*models.SessionArchive, int64, error)
}

var ErrArchiveNotFound = errors.New("session archive not found")

// IsNotFoundError checks if error represents a "not found" condition
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrArchiveNotFound)
}
