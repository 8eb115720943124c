package draft

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/studywise/session-service/internal/errors"
	"github.com/studywise/session-service/internal/models"
	"github.com/studywise/session-service/internal/utils"
	"github.com/studywise/session-service/internal/validator"
)

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func validQuestion(content string) models.DraftQuestion {
	return models.DraftQuestion{
		Content: content,
		Answers: []string{"red", "green", "blue", "yellow"},
		Correct: "green",
		Score:   2,
	}
}

func newCreateEditor() *Editor {
	return NewEditor("", nil, PersistFuncs{}, validator.New(), testLogger())
}

func seededEditor(questions ...models.DraftQuestion) *Editor {
	return NewEditor("exam-1", questions, PersistFuncs{}, validator.New(), testLogger())
}

// ===== STAGING =====

func TestEditor_OpensOnBlankDraft(t *testing.T) {
	e := newCreateEditor()

	current, index := e.Current()
	assert.Equal(t, 0, index)
	assert.True(t, current.IsBlank())
	assert.False(t, e.IsDirty())
	assert.Empty(t, e.Questions())
}

func TestEditor_EditsStayUncommittedUntilSave(t *testing.T) {
	e := newCreateEditor()

	e.SetCurrent(validQuestion("What color is the sky?"))
	assert.True(t, e.IsDirty())
	assert.Empty(t, e.Questions(), "editing must not touch the committed list")

	require.NoError(t, e.Save(context.Background()))
	assert.False(t, e.IsDirty())
	require.Len(t, e.Questions(), 1)
	assert.Equal(t, "What color is the sky?", e.Questions()[0].Content)
}

func TestEditor_SaveRejectsInvalidQuestion(t *testing.T) {
	e := newCreateEditor()

	cases := []struct {
		name  string
		edit  func(q *models.DraftQuestion)
		field string
	}{
		{"empty content", func(q *models.DraftQuestion) { q.Content = "  " }, "content"},
		{"blank option", func(q *models.DraftQuestion) { q.Answers[2] = "" }, "answers"},
		{"duplicate options", func(q *models.DraftQuestion) { q.Answers[3] = "red" }, "answers"},
		{"correct not among options", func(q *models.DraftQuestion) { q.Correct = "purple" }, "correct"},
		{"zero score", func(q *models.DraftQuestion) { q.Score = 0 }, "score"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := validQuestion("What color is the sky?")
			tc.edit(&q)
			e.SetCurrent(q)

			err := e.Save(context.Background())
			var valErrs apperrors.ValidationErrors
			require.ErrorAs(t, err, &valErrs)
			assert.Equal(t, tc.field, valErrs[0].Field)
			assert.Empty(t, e.Questions(), "failed save must not commit")
		})
	}
}

func TestEditor_AddQuestionSavesThenOpensBlank(t *testing.T) {
	e := newCreateEditor()
	e.SetCurrent(validQuestion("Q one"))

	require.NoError(t, e.AddQuestion(context.Background()))

	require.Len(t, e.Questions(), 1)
	current, index := e.Current()
	assert.Equal(t, 1, index)
	assert.True(t, current.IsBlank())
}

func TestEditor_AddQuestionAbortsOnInvalidCurrent(t *testing.T) {
	e := newCreateEditor()
	e.SetCurrent(models.DraftQuestion{Content: "no options", Score: 1})

	err := e.AddQuestion(context.Background())
	var valErrs apperrors.ValidationErrors
	require.ErrorAs(t, err, &valErrs)

	_, index := e.Current()
	assert.Equal(t, 0, index, "editor stays on the invalid question")
	assert.Empty(t, e.Questions())
}

// ===== NAVIGATION =====

func TestEditor_SelectGuardsDirtyDraft(t *testing.T) {
	e := seededEditor(validQuestion("Q one"), validQuestion("Q two"))

	q, _ := e.Current()
	q.Content = "edited but unsaved"
	e.SetCurrent(q)

	err := e.Select(1, false)
	var uce *UnsavedChangesError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, 0, uce.Index)

	// Confirming discards the edits instead of saving them
	require.NoError(t, e.Select(1, true))
	current, index := e.Current()
	assert.Equal(t, 1, index)
	assert.Equal(t, "Q two", current.Content)

	require.NoError(t, e.Select(0, false))
	current, _ = e.Current()
	assert.Equal(t, "Q one", current.Content, "abandoned edits are gone")
}

func TestEditor_SelectOutOfRange(t *testing.T) {
	e := seededEditor(validQuestion("Q one"))
	assert.ErrorIs(t, e.Select(5, false), ErrIndexOutOfRange)
	assert.ErrorIs(t, e.Select(-1, false), ErrIndexOutOfRange)
}

func TestEditor_DiscardRestoresCommitted(t *testing.T) {
	e := seededEditor(validQuestion("Q one"))

	q, _ := e.Current()
	q.Content = "edited"
	e.SetCurrent(q)
	require.True(t, e.IsDirty())

	e.Discard()
	assert.False(t, e.IsDirty())
	current, _ := e.Current()
	assert.Equal(t, "Q one", current.Content)
}

// ===== DELETE =====

func TestEditor_DeleteRequiresConfirmation(t *testing.T) {
	e := seededEditor(validQuestion("Q one"))
	err := e.Delete(context.Background(), 0, false)
	assert.ErrorIs(t, err, ErrDeleteConfirmationRequired)
	assert.Len(t, e.Questions(), 1)
}

func TestEditor_DeleteLastRemainingOpensBlank(t *testing.T) {
	e := seededEditor(validQuestion("Q one"))

	require.NoError(t, e.Delete(context.Background(), 0, true))
	assert.Empty(t, e.Questions())
	current, index := e.Current()
	assert.Equal(t, 0, index)
	assert.True(t, current.IsBlank())
}

func TestEditor_DeleteCurrentClampsToLast(t *testing.T) {
	e := seededEditor(validQuestion("Q one"), validQuestion("Q two"), validQuestion("Q three"))
	require.NoError(t, e.Select(2, false))

	require.NoError(t, e.Delete(context.Background(), 2, true))
	current, index := e.Current()
	assert.Equal(t, 1, index)
	assert.Equal(t, "Q two", current.Content)
}

func TestEditor_DeleteBeforeCurrentShiftsIndex(t *testing.T) {
	e := seededEditor(validQuestion("Q one"), validQuestion("Q two"), validQuestion("Q three"))
	require.NoError(t, e.Select(2, false))

	require.NoError(t, e.Delete(context.Background(), 0, true))
	current, index := e.Current()
	assert.Equal(t, 1, index)
	assert.Equal(t, "Q three", current.Content, "same question stays current after renumbering")
}

func TestEditor_DeleteCurrentLoadsSuccessor(t *testing.T) {
	e := seededEditor(validQuestion("Q one"), validQuestion("Q two"), validQuestion("Q three"))
	require.NoError(t, e.Select(1, false))

	require.NoError(t, e.Delete(context.Background(), 1, true))
	current, index := e.Current()
	assert.Equal(t, 1, index)
	assert.Equal(t, "Q three", current.Content)
}

// ===== PERSISTENCE HOOKS =====

func TestEditor_EditFlowPersistsThroughHooks(t *testing.T) {
	var created, updated, deleted []string
	persist := PersistFuncs{
		Create: func(ctx context.Context, examID string, q models.DraftQuestion) (string, error) {
			created = append(created, q.Content)
			return "srv-42", nil
		},
		Update: func(ctx context.Context, q models.DraftQuestion) error {
			updated = append(updated, q.ID)
			return nil
		},
		Delete: func(ctx context.Context, questionID string) error {
			deleted = append(deleted, questionID)
			return nil
		},
	}

	seed := validQuestion("Existing")
	seed.ID = "srv-1"
	e := NewEditor("exam-1", []models.DraftQuestion{seed}, persist, validator.New(), testLogger())

	// Updating the existing question goes through the update hook
	q, _ := e.Current()
	q.Content = "Existing, revised"
	e.SetCurrent(q)
	require.NoError(t, e.Save(context.Background()))
	assert.Equal(t, []string{"srv-1"}, updated)

	// A new question goes through the create hook and adopts the server ID
	require.NoError(t, e.AddQuestion(context.Background()))
	e.SetCurrent(validQuestion("Brand new"))
	require.NoError(t, e.Save(context.Background()))
	assert.Equal(t, []string{"Brand new"}, created)
	assert.Equal(t, "srv-42", e.Questions()[1].ID)

	// Deleting goes through the delete hook
	require.NoError(t, e.Delete(context.Background(), 0, true))
	assert.Equal(t, []string{"srv-1"}, deleted)
}

func TestEditor_FailedPersistKeepsDraftDirty(t *testing.T) {
	persist := PersistFuncs{
		Create: func(ctx context.Context, examID string, q models.DraftQuestion) (string, error) {
			return "", errors.New("backend down")
		},
	}
	e := NewEditor("exam-1", nil, persist, validator.New(), testLogger())
	e.SetCurrent(validQuestion("Q one"))

	err := e.Save(context.Background())
	require.Error(t, err)
	assert.Empty(t, e.Questions())
	assert.True(t, e.IsDirty())

	// The guard is released for a retry
	assert.NotErrorIs(t, e.Save(context.Background()), ErrSaveInFlight)
}
