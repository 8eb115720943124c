package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/studywise/session-service/internal/errors"
)

type navRequest struct {
	Action string `json:"action" validate:"required,navigation_action"`
	Index  int    `json:"index"`
}

type examStub struct {
	Duration int `json:"duration" validate:"required,exam_duration"`
}

func TestValidate_NavigationAction(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(navRequest{Action: "next"}))
	assert.NoError(t, v.Validate(navRequest{Action: "previous"}))
	assert.NoError(t, v.Validate(navRequest{Action: "jump", Index: 3}))

	err := v.Validate(navRequest{Action: "teleport"})
	var valErrs apperrors.ValidationErrors
	require.ErrorAs(t, err, &valErrs)
	assert.Equal(t, "action", valErrs[0].Field, "errors report json field names")
	assert.Equal(t, "navigation_action", valErrs[0].Rule)
}

func TestValidate_ExamDuration(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(examStub{Duration: 1}))
	assert.NoError(t, v.Validate(examStub{Duration: 300}))

	var valErrs apperrors.ValidationErrors
	require.ErrorAs(t, v.Validate(examStub{Duration: 301}), &valErrs)
	assert.Equal(t, "must be between 1 and 300 minutes", valErrs[0].Message)
}
