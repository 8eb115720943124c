package draft

import (
	"errors"
	"fmt"
)

var (
	ErrEditorNotFound             = errors.New("draft editor not found")
	ErrSaveInFlight               = errors.New("a save is already in progress")
	ErrDeleteConfirmationRequired = errors.New("deleting a question requires confirmation")
	ErrIndexOutOfRange            = errors.New("question index out of range")
)

// UnsavedChangesError blocks navigation away from a dirty question until the
// caller confirms that the edits may be discarded.
type UnsavedChangesError struct {
	Index int `json:"index"`
}

func (e *UnsavedChangesError) Error() string {
	return fmt.Sprintf("question %d has unsaved changes", e.Index+1)
}

// IsUnsavedChanges checks if error carries a pending discard confirmation
func IsUnsavedChanges(err error) bool {
	var uce *UnsavedChangesError
	return errors.As(err, &uce)
}
