package validator

import (
	"fmt"
	"strings"

	apperrors "github.com/studywise/session-service/internal/errors"
	"github.com/studywise/session-service/internal/models"
)

// ValidateDraftQuestion runs the field rules for a draft question before it
// may be committed: non-empty content, all answer options filled, no duplicate
// options, a correct answer that matches one of the options, positive score.
// On failure it returns one error per offending field and the draft must not
// be staged.
func (v *Validator) ValidateDraftQuestion(q models.DraftQuestion) apperrors.ValidationErrors {
	var errs apperrors.ValidationErrors

	if strings.TrimSpace(q.Content) == "" {
		errs = append(errs, apperrors.ValidationError{
			Field:   "content",
			Message: "question content is required",
			Rule:    "required",
		})
	}

	seen := make(map[string]int, len(q.Answers))
	hasEmpty := false
	hasDuplicate := false
	for i, a := range q.Answers {
		trimmed := strings.TrimSpace(a)
		if trimmed == "" {
			hasEmpty = true
			continue
		}
		if _, ok := seen[trimmed]; ok {
			hasDuplicate = true
		}
		seen[trimmed] = i
	}
	if len(q.Answers) != models.DraftAnswerCount {
		errs = append(errs, apperrors.ValidationError{
			Field:   "answers",
			Message: fmt.Sprintf("exactly %d answer options are required", models.DraftAnswerCount),
			Rule:    "len",
		})
	}
	if hasEmpty {
		errs = append(errs, apperrors.ValidationError{
			Field:   "answers",
			Message: "all answer options must have content",
			Rule:    "required",
		})
	}
	if hasDuplicate {
		errs = append(errs, apperrors.ValidationError{
			Field:   "answers",
			Message: "answer options must be distinct",
			Rule:    "unique",
		})
	}

	correct := strings.TrimSpace(q.Correct)
	if correct == "" {
		errs = append(errs, apperrors.ValidationError{
			Field:   "correct",
			Message: "a correct answer must be selected",
			Rule:    "required",
		})
	} else if _, ok := seen[correct]; !ok {
		errs = append(errs, apperrors.ValidationError{
			Field:   "correct",
			Message: "correct answer must match one of the options",
			Value:   q.Correct,
			Rule:    "oneof",
		})
	}

	if q.Score <= 0 {
		errs = append(errs, apperrors.ValidationError{
			Field:   "score",
			Message: "score must be greater than 0",
			Value:   q.Score,
			Rule:    "question_score",
		})
	}

	return errs
}
