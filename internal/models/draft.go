package models

import "strings"

// DraftAnswerCount is the fixed number of answer options per question.
const DraftAnswerCount = 4

// DraftQuestion is the admin editor scratch model. Its ID is a client
// generated temporary value until the backend persists it.
type DraftQuestion struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Answers []string `json:"answers"`
	Correct string   `json:"correct"`
	Score   int      `json:"score"`
	Image   string   `json:"image,omitempty"`
}

// NewDraftQuestion returns a blank draft with editor defaults.
func NewDraftQuestion(id string) DraftQuestion {
	return DraftQuestion{
		ID:      id,
		Answers: make([]string, DraftAnswerCount),
		Score:   1,
	}
}

// Equal compares the user visible fields of two drafts. Image changes count
// as dirty in both the create and the edit flow.
func (q DraftQuestion) Equal(o DraftQuestion) bool {
	if q.Content != o.Content || q.Correct != o.Correct || q.Score != o.Score || q.Image != o.Image {
		return false
	}
	if len(q.Answers) != len(o.Answers) {
		return false
	}
	for i := range q.Answers {
		if q.Answers[i] != o.Answers[i] {
			return false
		}
	}
	return true
}

// IsBlank reports whether a new draft still holds only default values, i.e.
// discarding it loses nothing.
func (q DraftQuestion) IsBlank() bool {
	if strings.TrimSpace(q.Content) != "" || strings.TrimSpace(q.Correct) != "" {
		return false
	}
	if q.Score != 1 || q.Image != "" {
		return false
	}
	for _, a := range q.Answers {
		if strings.TrimSpace(a) != "" {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so the scratch buffer never aliases a committed
// entry's answer slice.
func (q DraftQuestion) Clone() DraftQuestion {
	c := q
	c.Answers = make([]string, len(q.Answers))
	copy(c.Answers, q.Answers)
	return c
}
