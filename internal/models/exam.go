package models

import "time"

type ExamType string

const (
	ExamTypeFree ExamType = "FREE"
	ExamTypeFee  ExamType = "FEE"
)

// ExamDefinition is the exam payload returned by the exam backend. It is
// immutable once loaded; the session controller never writes to it.
type ExamDefinition struct {
	ID             string     `json:"id" validate:"required"`
	Title          string     `json:"title" validate:"required,min=1,max=200"`
	Duration       int        `json:"duration" validate:"required,min=1,max=300"` // Minutes
	Type           ExamType   `json:"type" validate:"omitempty,oneof=FREE FEE"`
	TotalQuestions int        `json:"totalQuestions"`
	TotalScore     int        `json:"totalScore"`
	Questions      []Question `json:"questions"`
}

// Question as served to a student. Correct is only populated in admin/detail
// contexts and must never be exposed during an active session.
type Question struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Answers []string `json:"answers"`
	Correct string   `json:"correctAnswer,omitempty"`
	Score   int      `json:"score"`
	Image   string   `json:"image,omitempty"`
}

// Normalize fills the derived totals when the backend omits them.
func (e *ExamDefinition) Normalize() {
	if e.TotalQuestions == 0 {
		e.TotalQuestions = len(e.Questions)
	}
	if e.TotalScore == 0 {
		for _, q := range e.Questions {
			e.TotalScore += q.Score
		}
	}
}

// AnswerRecord is one student selection. At most one record exists per
// question; a later selection overwrites the earlier one.
type AnswerRecord struct {
	SelectedIndex int    `json:"selected_index"`
	SelectedText  string `json:"selected_text"`
}

// SubmissionEntry is one line of the submission payload. Unanswered questions
// carry an empty SelectedAnswer; the payload always has one entry per question
// in definition order.
type SubmissionEntry struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
}

type SubmissionPayload struct {
	ExamID          string            `json:"examId"`
	SelectedAnswers []SubmissionEntry `json:"selectedAnswers"`
}

// ResultSummary is the graded outcome returned by the backend on submission.
type ResultSummary struct {
	ExamTitle             string    `json:"examTitle"`
	Score                 int       `json:"score"`
	TotalScore            int       `json:"totalScore"`
	TotalQuestions        int       `json:"totalQuestions"`
	TotalQuestionsCorrect int       `json:"totalQuestionsCorrect"`
	SubmittedAt           time.Time `json:"submittedAt"`
}
