package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/studywise/session-service/internal/events"
	"github.com/studywise/session-service/internal/gateway"
	"github.com/studywise/session-service/internal/models"
	"github.com/studywise/session-service/internal/utils"
)

// autoSubmitTimeout bounds the backend call made on countdown expiry, which
// has no caller-supplied context.
const autoSubmitTimeout = 30 * time.Second

// Session is one timed attempt at an exam by a single student. All state is
// owned by the session and guarded by one mutex; the countdown's expiry
// callback re-enters through the same guarded submit path as manual
// submission, which is what makes the expiry/manual race safe.
type Session struct {
	id        string
	studentID string

	mu        sync.Mutex
	status    models.SessionStatus
	exam      *models.ExamDefinition
	answers   map[string]models.AnswerRecord
	current   int
	countdown *Countdown
	result    *models.ResultSummary
	endReason models.SessionEndReason

	gw        gateway.ExamGateway
	logger    utils.Logger
	publisher events.Publisher

	// onSubmitted is the manager hook for archiving and caching; it runs
	// outside the session mutex.
	onSubmitted func(s *Session, result *models.ResultSummary, entries []models.SubmissionEntry)
}

func newSession(id, studentID string, gw gateway.ExamGateway, logger utils.Logger, publisher events.Publisher) *Session {
	return &Session{
		id:        id,
		studentID: studentID,
		status:    models.SessionLoading,
		answers:   make(map[string]models.AnswerRecord),
		gw:        gw,
		logger:    logger.With("session_id", id),
		publisher: publisher,
	}
}

// load fetches the exam definition exactly once and starts the countdown.
// A load failure is terminal for this session instance.
func (s *Session) load(ctx context.Context, examID string) error {
	exam, err := s.gw.LoadExam(ctx, examID)
	if err != nil {
		s.mu.Lock()
		s.status = models.SessionLoadFailed
		s.mu.Unlock()
		s.logger.LogError(err, "Failed to load exam", "exam_id", examID)
		return fmt.Errorf("%w: %v", ErrExamLoadFailed, err)
	}

	s.mu.Lock()
	s.exam = exam
	s.countdown = NewCountdown(exam.Duration*60, s.handleExpiry)
	s.status = models.SessionActive
	s.countdown.Start()
	s.mu.Unlock()

	s.logger.Info("Session started",
		"exam_id", exam.ID,
		"student_id", s.studentID,
		"duration_minutes", exam.Duration,
		"questions", len(exam.Questions))
	return nil
}

func (s *Session) ID() string        { return s.id }
func (s *Session) StudentID() string { return s.studentID }

func (s *Session) Status() models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Countdown() *Countdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown
}

// ===== ANSWER STORE =====

// SelectAnswer records the student's selection for a question, overwriting
// any earlier record. It accepts any index/text and never advances navigation.
func (s *Session) SelectAnswer(questionID string, index int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case models.SessionActive, models.SessionConfirmingSubmit:
	default:
		return ErrSessionNotActive
	}

	s.answers[questionID] = models.AnswerRecord{
		SelectedIndex: index,
		SelectedText:  text,
	}
	return nil
}

func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

func (s *Session) ProgressPercentage() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

func (s *Session) progressLocked() float64 {
	if s.exam == nil || len(s.exam.Questions) == 0 {
		return 0
	}
	return float64(len(s.answers)) / float64(len(s.exam.Questions)) * 100
}

// ===== NAVIGATION =====

func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Next advances one question; a no-op at the last question.
func (s *Session) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exam != nil && s.current < len(s.exam.Questions)-1 {
		s.current++
	}
}

// Previous steps back one question; a no-op at the first question.
func (s *Session) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current > 0 {
		s.current--
	}
}

// JumpTo moves to any valid question index regardless of answer completeness.
func (s *Session) JumpTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exam == nil || index < 0 || index >= len(s.exam.Questions) {
		return fmt.Errorf("%w: %d", ErrInvalidQuestionIndex, index)
	}
	s.current = index
	return nil
}

// ===== SUBMISSION WORKFLOW =====

// Submit runs the manual submission path. With unanswered questions on the
// first call it transitions to ConfirmingSubmit and returns a
// ConfirmationRequiredError without touching the network; a second call (the
// confirmed action) proceeds. Once the countdown has expired there is nothing
// left to protect and the gate is skipped.
func (s *Session) Submit(ctx context.Context) (*models.ResultSummary, error) {
	s.mu.Lock()

	switch s.status {
	case models.SessionSubmitted:
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	case models.SessionSubmitting:
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	case models.SessionActive, models.SessionConfirmingSubmit:
	default:
		s.mu.Unlock()
		return nil, ErrSessionNotActive
	}

	unanswered := len(s.exam.Questions) - len(s.answers)
	if unanswered > 0 && s.status == models.SessionActive && !s.countdown.IsExpired() {
		s.status = models.SessionConfirmingSubmit
		s.mu.Unlock()
		return nil, &ConfirmationRequiredError{Unanswered: unanswered}
	}

	return s.submitLocked(ctx, models.EndReasonManual)
}

// CancelSubmit dismisses the confirmation dialog and returns to Active.
func (s *Session) CancelSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != models.SessionConfirmingSubmit {
		return ErrSessionNotActive
	}
	s.status = models.SessionActive
	return nil
}

// handleExpiry is the countdown's expiry callback. It skips the confirmation
// gate unconditionally and submits whatever answers are present.
func (s *Session) handleExpiry() {
	s.mu.Lock()
	switch s.status {
	case models.SessionActive, models.SessionConfirmingSubmit:
	default:
		// A manual submit won the race; the timer must not fire a second payload.
		s.mu.Unlock()
		return
	}

	s.logger.Warn("Session time expired, auto-submitting")
	s.publishEvent(events.SessionExpired, s.exam.ID, nil)

	ctx, cancel := context.WithTimeout(context.Background(), autoSubmitTimeout)
	defer cancel()

	if _, err := s.submitLocked(ctx, models.EndReasonTimeout); err != nil {
		s.logger.LogError(err, "Auto-submit failed")
	}
}

// submitLocked is the single-flight submission core. It is entered with the
// session mutex held, stops the countdown in the same critical section that
// flips the status to Submitting, and releases the mutex only for the network
// call itself.
func (s *Session) submitLocked(ctx context.Context, reason models.SessionEndReason) (*models.ResultSummary, error) {
	s.countdown.Stop()
	s.status = models.SessionSubmitting

	remainingAtSubmit := s.countdown.Remaining()
	startedAt := time.Now()
	payload := s.buildPayloadLocked()
	examID := s.exam.ID
	s.mu.Unlock()

	result, err := s.gw.SubmitAnswers(ctx, payload)

	s.mu.Lock()
	if err != nil {
		s.failSubmitLocked(remainingAtSubmit, startedAt)
		s.mu.Unlock()
		s.publishEvent(events.SubmissionFailed, examID, nil)
		s.logger.LogError(err, "Submission failed, session returned to active")
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	s.status = models.SessionSubmitted
	s.result = result
	s.endReason = reason
	hook := s.onSubmitted
	s.mu.Unlock()

	s.publishEvent(events.SessionSubmitted, examID, &result.Score)
	s.logger.Info("Session submitted",
		"end_reason", string(reason),
		"score", result.Score,
		"correct", result.TotalQuestionsCorrect)

	if hook != nil {
		hook(s, result, payload.SelectedAnswers)
	}
	return result, nil
}

// failSubmitLocked returns the session to Active after a failed submission.
// The countdown resumes with the wall-clock time spent on the failed attempt
// deducted; if that exhausts the clock it stays expired and the student
// retries manually without a further confirmation gate.
func (s *Session) failSubmitLocked(remainingAtSubmit int, startedAt time.Time) {
	elapsed := int(time.Since(startedAt).Seconds())
	s.countdown.Resume(remainingAtSubmit - elapsed)
	s.status = models.SessionActive
}

// buildPayloadLocked emits one entry per question in definition order;
// unanswered questions carry an empty answer string, never an omitted entry.
func (s *Session) buildPayloadLocked() *models.SubmissionPayload {
	entries := make([]models.SubmissionEntry, len(s.exam.Questions))
	for i, q := range s.exam.Questions {
		entry := models.SubmissionEntry{QuestionID: q.ID}
		if rec, ok := s.answers[q.ID]; ok {
			entry.SelectedAnswer = rec.SelectedText
		}
		entries[i] = entry
	}
	return &models.SubmissionPayload{
		ExamID:          s.exam.ID,
		SelectedAnswers: entries,
	}
}

// ===== EXIT GUARD =====

// RequestExit handles a leave attempt. While a session is in progress and
// unsubmitted an unconfirmed exit is refused; after submission (or a failed
// load) the guard is disabled and teardown is immediate.
func (s *Session) RequestExit(confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case models.SessionSubmitted, models.SessionLoadFailed:
		s.teardownLocked()
		return nil
	case models.SessionSubmitting:
		return ErrSubmitInFlight
	default:
		if !confirmed {
			return ErrExitConfirmationRequired
		}
		s.teardownLocked()
		return nil
	}
}

// teardownLocked releases the timer resource. It runs on every exit path so
// no orphaned ticking survives the session.
func (s *Session) teardownLocked() {
	if s.countdown != nil {
		s.countdown.Stop()
	}
}

// ===== SNAPSHOT =====

// Snapshot returns the read view of the session for the API and the cache.
func (s *Session) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.SessionSnapshot{
		ID:                 s.id,
		StudentID:          s.studentID,
		Status:             s.status,
		CurrentIndex:       s.current,
		AnsweredCount:      len(s.answers),
		ProgressPercentage: s.progressLocked(),
		Result:             s.result,
	}
	if s.exam != nil {
		snap.ExamID = s.exam.ID
		snap.TotalQuestions = len(s.exam.Questions)
	}
	if s.countdown != nil {
		snap.RemainingSeconds = s.countdown.Remaining()
		snap.RemainingDisplay = s.countdown.FormatRemaining()
		snap.IsWarning = s.countdown.IsWarning()
	}
	return snap
}

// Exam returns the loaded definition with correct answers stripped, safe to
// expose during an active session.
func (s *Session) Exam() *models.ExamDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exam == nil {
		return nil
	}
	sanitized := *s.exam
	sanitized.Questions = make([]models.Question, len(s.exam.Questions))
	for i, q := range s.exam.Questions {
		q.Correct = ""
		sanitized.Questions[i] = q
	}
	return &sanitized
}

// publishEvent takes no locks; callers pass the state they captured so it is
// safe to call with or without the session mutex held.
func (s *Session) publishEvent(eventType events.EventType, examID string, score *int) {
	if s.publisher == nil {
		return
	}
	event := events.NewSessionEvent(eventType, s.id, examID, s.studentID)
	event.Score = score

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		s.logger.LogError(err, "Failed to publish session event", "event_type", string(eventType))
	}
}
