package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the session lifecycle events emitted to Kafka
type EventType string

const (
	SessionStarted   EventType = "session.started"
	SessionSubmitted EventType = "session.submitted"
	SessionExpired   EventType = "session.expired"
	SubmissionFailed EventType = "session.submission_failed"
)

// SessionEvent is the wire format for all session lifecycle events
type SessionEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	ExamID    string    `json:"exam_id"`
	StudentID string    `json:"student_id"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`

	Score *int `json:"score,omitempty"`
}

// NewSessionEvent builds a lifecycle event with a fresh ID and timestamp
func NewSessionEvent(eventType EventType, sessionID, examID, studentID string) *SessionEvent {
	return &SessionEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		ExamID:    examID,
		StudentID: studentID,
		Timestamp: time.Now(),
		Source:    "session-service",
		Version:   "1.0",
	}
}
