package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studywise/session-service/internal/cache"
	"github.com/studywise/session-service/internal/events"
	"github.com/studywise/session-service/internal/gateway"
	"github.com/studywise/session-service/internal/models"
	"github.com/studywise/session-service/internal/repositories"
	"github.com/studywise/session-service/internal/utils"
)

const snapshotTTL = 24 * time.Hour

// Manager owns all live sessions. Archive and cache are optional
// collaborators; a nil value disables that side effect without changing
// session semantics.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	gw        gateway.ExamGateway
	logger    utils.Logger
	publisher events.Publisher
	cache     cache.CacheService
	archive   repositories.SessionArchiveRepository
}

func NewManager(gw gateway.ExamGateway, logger utils.Logger, publisher events.Publisher, cacheSvc cache.CacheService, archive repositories.SessionArchiveRepository) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		gw:        gw,
		logger:    logger.With("component", "session_manager"),
		publisher: publisher,
		cache:     cacheSvc,
		archive:   archive,
	}
}

// Start creates a session for one student and exam, loads the exam definition
// and starts its countdown. The session is registered only after a successful
// load; a failed load never leaves a half-built session behind.
func (m *Manager) Start(ctx context.Context, examID, studentID string) (*Session, error) {
	if examID == "" {
		return nil, ErrExamIDRequired
	}

	s := newSession(uuid.NewString(), studentID, m.gw, m.logger, m.publisher)
	s.onSubmitted = m.handleSubmitted

	if err := s.load(ctx, examID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.publishStarted(ctx, s, examID)
	m.cacheSnapshot(ctx, s)
	return s, nil
}

// Get returns a live session by ID.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s, nil
}

// Exit runs the session's exit guard and, on success, removes it from the
// registry and evicts its cached snapshots.
func (m *Manager) Exit(ctx context.Context, sessionID string, confirmed bool) error {
	s, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	if err := s.RequestExit(confirmed); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if m.cache != nil {
		if err := m.cache.DeletePattern(ctx, cache.SessionKeyPattern(sessionID)); err != nil {
			m.logger.LogError(err, "Failed to evict session cache", "session_id", sessionID)
		}
	}

	m.logger.Info("Session exited", "session_id", sessionID)
	return nil
}

// RefreshSnapshot re-caches the current view of a session. Handlers call it
// after mutating operations.
func (m *Manager) RefreshSnapshot(ctx context.Context, s *Session) {
	m.cacheSnapshot(ctx, s)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops every live countdown. Used on service shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if cd := s.Countdown(); cd != nil {
			cd.Stop()
		}
		delete(m.sessions, id)
	}
}

// handleSubmitted runs after a session reaches Submitted. It archives the
// result and caches it; both are best-effort and never fail the submission.
func (m *Manager) handleSubmitted(s *Session, result *models.ResultSummary, entries []models.SubmissionEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap := s.Snapshot()

	if m.archive != nil {
		answers, err := json.Marshal(entries)
		if err != nil {
			m.logger.LogError(err, "Failed to marshal submission entries", "session_id", s.ID())
			answers = []byte("[]")
		}
		record := &models.SessionArchive{
			SessionID:      s.ID(),
			ExamID:         snap.ExamID,
			ExamTitle:      result.ExamTitle,
			StudentID:      s.StudentID(),
			Score:          result.Score,
			TotalScore:     result.TotalScore,
			CorrectCount:   result.TotalQuestionsCorrect,
			TotalQuestions: result.TotalQuestions,
			EndReason:      s.endReason,
			Answers:        datatypes.JSON(answers),
			SubmittedAt:    result.SubmittedAt,
		}
		if err := m.archive.Create(ctx, record); err != nil {
			m.logger.LogError(err, "Failed to archive session", "session_id", s.ID())
		}
	}

	if m.cache != nil {
		if err := m.cache.Set(ctx, cache.SessionResultKey(s.ID()), result, snapshotTTL); err != nil {
			m.logger.LogError(err, "Failed to cache session result", "session_id", s.ID())
		}
	}
	m.cacheSnapshot(ctx, s)
}

func (m *Manager) publishStarted(ctx context.Context, s *Session, examID string) {
	if m.publisher == nil {
		return
	}
	event := events.NewSessionEvent(events.SessionStarted, s.ID(), examID, s.StudentID())
	if err := m.publisher.PublishSessionEvent(ctx, event); err != nil {
		m.logger.LogError(err, "Failed to publish session started event", "session_id", s.ID())
	}
}

func (m *Manager) cacheSnapshot(ctx context.Context, s *Session) {
	if m.cache == nil {
		return
	}
	snap := s.Snapshot()
	if err := m.cache.Set(ctx, cache.SessionSnapshotKey(s.ID()), snap, snapshotTTL); err != nil {
		m.logger.LogError(err, "Failed to cache session snapshot", "session_id", s.ID())
	}
}
