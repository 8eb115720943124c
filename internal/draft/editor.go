package draft

import (
	"context"
	"fmt"
	"sync"

	"github.com/studywise/session-service/internal/models"
	"github.com/studywise/session-service/internal/utils"
	"github.com/studywise/session-service/internal/validator"
)

// PersistFuncs are the persistence hooks for the edit flow. In the create
// flow all three are nil and questions stage in memory until the exam itself
// is saved.
type PersistFuncs struct {
	Create func(ctx context.Context, examID string, q models.DraftQuestion) (string, error)
	Update func(ctx context.Context, q models.DraftQuestion) error
	Delete func(ctx context.Context, questionID string) error
}

// Editor stages question drafts for one exam. It holds a list of committed
// questions plus one working copy; edits touch only the working copy until an
// explicit save commits them. Exactly one question is current at a time.
type Editor struct {
	mu        sync.Mutex
	examID    string
	committed []models.DraftQuestion
	current   models.DraftQuestion
	index     int
	saving    bool

	validator *validator.Validator
	persist   PersistFuncs
	logger    utils.Logger
}

// NewEditor creates an editor seeded with already persisted questions. With
// no questions it opens on a single blank draft.
func NewEditor(examID string, questions []models.DraftQuestion, persist PersistFuncs, v *validator.Validator, logger utils.Logger) *Editor {
	e := &Editor{
		examID:    examID,
		committed: make([]models.DraftQuestion, len(questions)),
		persist:   persist,
		validator: v,
		logger:    logger.With("component", "draft_editor", "exam_id", examID),
	}
	for i, q := range questions {
		e.committed[i] = q.Clone()
	}
	if len(e.committed) > 0 {
		e.current = e.committed[0].Clone()
		e.index = 0
	} else {
		e.current = models.NewDraftQuestion("")
		e.index = 0
	}
	return e
}

// ExamID returns the exam this editor stages questions for.
func (e *Editor) ExamID() string {
	return e.examID
}

// Questions returns the committed question list.
func (e *Editor) Questions() []models.DraftQuestion {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.DraftQuestion, len(e.committed))
	for i, q := range e.committed {
		out[i] = q.Clone()
	}
	return out
}

// Current returns the working copy and its slot index.
func (e *Editor) Current() (models.DraftQuestion, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current.Clone(), e.index
}

// SetCurrent replaces the working copy's editable fields. The slot identity
// is preserved so a save still targets the same question.
func (e *Editor) SetCurrent(q models.DraftQuestion) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.current.ID
	e.current = q.Clone()
	e.current.ID = id
}

// IsDirty reports whether the working copy differs from its committed slot.
// A new question is dirty once any field moved off its defaults.
func (e *Editor) IsDirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirtyLocked()
}

func (e *Editor) dirtyLocked() bool {
	if e.index >= len(e.committed) {
		return !e.current.IsBlank()
	}
	return !e.current.Equal(e.committed[e.index])
}

// Save validates the working copy and commits it to its slot. For a new
// question the create hook assigns the server ID before it joins the list.
// Only one save may run at a time.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return ErrSaveInFlight
	}
	if errs := e.validator.ValidateDraftQuestion(e.current); len(errs) > 0 {
		e.mu.Unlock()
		return errs
	}
	e.saving = true
	q := e.current.Clone()
	index := e.index
	isNew := index >= len(e.committed)
	e.mu.Unlock()

	var savedID string
	var err error
	if isNew && e.persist.Create != nil {
		savedID, err = e.persist.Create(ctx, e.examID, q)
	} else if !isNew && e.persist.Update != nil {
		err = e.persist.Update(ctx, q)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil {
		e.logger.LogError(err, "Failed to save question", "index", index)
		return fmt.Errorf("save question %d: %w", index+1, err)
	}

	if savedID != "" {
		q.ID = savedID
		e.current.ID = savedID
	}
	if isNew {
		e.committed = append(e.committed, q)
	} else {
		e.committed[index] = q
	}
	e.logger.Info("Question saved", "index", index, "question_id", q.ID)
	return nil
}

// AddQuestion saves the working copy and opens a fresh blank draft after the
// last question. A failed save keeps the editor on the current question.
func (e *Editor) AddQuestion(ctx context.Context) error {
	if err := e.Save(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = models.NewDraftQuestion("")
	e.index = len(e.committed)
	return nil
}

// Select makes another committed question current. Moving off a dirty draft
// requires discardConfirmed; the abandoned edits are dropped, not saved.
func (e *Editor) Select(index int, discardConfirmed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.committed) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if index == e.index {
		return nil
	}
	if e.dirtyLocked() && !discardConfirmed {
		return &UnsavedChangesError{Index: e.index}
	}

	e.current = e.committed[index].Clone()
	e.index = index
	return nil
}

// Discard throws away the working copy's edits, restoring the committed
// version or a blank draft for a new question.
func (e *Editor) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index < len(e.committed) {
		e.current = e.committed[e.index].Clone()
	} else {
		e.current = models.NewDraftQuestion("")
	}
}

// Delete removes a committed question after confirmation and renumbers the
// rest. When the current question is deleted the editor moves to the question
// now occupying that position, clamping to the new last question, or to a
// blank draft when none remain.
func (e *Editor) Delete(ctx context.Context, index int, confirmed bool) error {
	e.mu.Lock()
	if index < 0 || index >= len(e.committed) {
		e.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if !confirmed {
		e.mu.Unlock()
		return ErrDeleteConfirmationRequired
	}
	victim := e.committed[index]
	e.mu.Unlock()

	if e.persist.Delete != nil && victim.ID != "" {
		if err := e.persist.Delete(ctx, victim.ID); err != nil {
			e.logger.LogError(err, "Failed to delete question", "question_id", victim.ID)
			return fmt.Errorf("delete question %d: %w", index+1, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.committed = append(e.committed[:index], e.committed[index+1:]...)

	switch {
	case e.index == index:
		if len(e.committed) == 0 {
			e.current = models.NewDraftQuestion("")
			e.index = 0
		} else if index >= len(e.committed) {
			e.index = len(e.committed) - 1
			e.current = e.committed[e.index].Clone()
		} else {
			e.current = e.committed[e.index].Clone()
		}
	case e.index > index:
		e.index--
	}
	e.logger.Info("Question deleted", "index", index, "question_id", victim.ID)
	return nil
}
