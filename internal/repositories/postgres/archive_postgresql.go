package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/studywise/session-service/internal/models"
	"github.com/studywise/session-service/internal/repositories"
)

type SessionArchivePostgreSQL struct {
	db *gorm.DB
}

func NewSessionArchivePostgreSQL(db *gorm.DB) repositories.SessionArchiveRepository {
	return &SessionArchivePostgreSQL{db: db}
}

// Create writes the archive record for a submitted session
func (r *SessionArchivePostgreSQL) Create(ctx context.Context, archive *models.SessionArchive) error {
	if err := r.db.WithContext(ctx).Create(archive).Error; err != nil {
		return fmt.Errorf("failed to create session archive: %w", err)
	}
	return nil
}

// GetBySessionID retrieves the archive record for one session
func (r *SessionArchivePostgreSQL) GetBySessionID(ctx context.Context, sessionID string) (*models.SessionArchive, error) {
	var archive models.SessionArchive
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&archive).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrArchiveNotFound
		}
		return nil, err
	}
	return &archive, nil
}

// ListByExam retrieves submitted sessions for an exam, newest first
func (r *SessionArchivePostgreSQL) ListByExam(ctx context.Context, examID string, limit, offset int) ([]*models.SessionArchive, int64, error) {
	return r.list(ctx, "exam_id = ?", examID, limit, offset)
}

// ListByStudent retrieves a student's submitted sessions, newest first
func (r *SessionArchivePostgreSQL) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]*models.SessionArchive, int64, error) {
	return r.list(ctx, "student_id = ?", studentID, limit, offset)
}

func (r *SessionArchivePostgreSQL) list(ctx context.Context, cond string, arg interface{}, limit, offset int) ([]*models.SessionArchive, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SessionArchive{}).Where(cond, arg)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count session archives: %w", err)
	}

	var archives []*models.SessionArchive
	err := query.
		Order("submitted_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&archives).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list session archives: %w", err)
	}

	return archives, total, nil
}
