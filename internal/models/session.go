package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionLoading          SessionStatus = "Loading"
	SessionActive           SessionStatus = "Active"
	SessionConfirmingSubmit SessionStatus = "ConfirmingSubmit"
	SessionSubmitting       SessionStatus = "Submitting"
	SessionSubmitted        SessionStatus = "Submitted"
	SessionLoadFailed       SessionStatus = "LoadFailed"
)

type CountdownPhase string

const (
	CountdownStopped CountdownPhase = "Stopped"
	CountdownRunning CountdownPhase = "Running"
	CountdownExpired CountdownPhase = "Expired"
)

type SessionEndReason string

const (
	EndReasonManual  SessionEndReason = "manual"
	EndReasonTimeout SessionEndReason = "timeout"
)

// SessionArchive is the persisted record of a submitted session, written once
// when a session reaches Submitted. It backs the admin result listings and the
// xlsx export.
type SessionArchive struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	SessionID      string           `json:"session_id" gorm:"not null;size:36;uniqueIndex"`
	ExamID         string           `json:"exam_id" gorm:"not null;index"`
	ExamTitle      string           `json:"exam_title" gorm:"size:200"`
	StudentID      string           `json:"student_id" gorm:"not null;index"`
	Score          int              `json:"score"`
	TotalScore     int              `json:"total_score"`
	CorrectCount   int              `json:"correct_count"`
	TotalQuestions int              `json:"total_questions"`
	EndReason      SessionEndReason `json:"end_reason" gorm:"size:16"`
	Answers        datatypes.JSON   `json:"answers" gorm:"type:jsonb"` // []SubmissionEntry
	SubmittedAt    time.Time        `json:"submitted_at"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (SessionArchive) TableName() string {
	return "session_archives"
}

// SessionSnapshot is the read view of a live session exposed over the API and
// cached in redis. It never carries correct answers.
type SessionSnapshot struct {
	ID                 string         `json:"id"`
	ExamID             string         `json:"exam_id"`
	StudentID          string         `json:"student_id"`
	Status             SessionStatus  `json:"status"`
	CurrentIndex       int            `json:"current_index"`
	AnsweredCount      int            `json:"answered_count"`
	TotalQuestions     int            `json:"total_questions"`
	ProgressPercentage float64        `json:"progress_percentage"`
	RemainingSeconds   int            `json:"remaining_seconds"`
	RemainingDisplay   string         `json:"remaining_display"`
	IsWarning          bool           `json:"is_warning"`
	Result             *ResultSummary `json:"result,omitempty"`
}
