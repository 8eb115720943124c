package draft

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/studywise/session-service/internal/models"
	"github.com/studywise/session-service/internal/utils"
	"github.com/studywise/session-service/internal/validator"
)

// Registry tracks open draft editors by ID so HTTP handlers can address them
// across requests.
type Registry struct {
	mu        sync.RWMutex
	editors   map[string]*Editor
	validator *validator.Validator
	logger    utils.Logger
}

func NewRegistry(v *validator.Validator, logger utils.Logger) *Registry {
	return &Registry{
		editors:   make(map[string]*Editor),
		validator: v,
		logger:    logger,
	}
}

// Open creates an editor and returns its handle ID.
func (r *Registry) Open(examID string, questions []models.DraftQuestion, persist PersistFuncs) (string, *Editor) {
	id := uuid.NewString()
	editor := NewEditor(examID, questions, persist, r.validator, r.logger)

	r.mu.Lock()
	r.editors[id] = editor
	r.mu.Unlock()
	return id, editor
}

// Get returns an open editor by handle ID.
func (r *Registry) Get(editorID string) (*Editor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	editor, ok := r.editors[editorID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEditorNotFound, editorID)
	}
	return editor, nil
}

// Close discards an editor.
func (r *Registry) Close(editorID string) {
	r.mu.Lock()
	delete(r.editors, editorID)
	r.mu.Unlock()
}
