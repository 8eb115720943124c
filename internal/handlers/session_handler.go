package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/studywise/session-service/internal/errors"
	"github.com/studywise/session-service/internal/session"
	"github.com/studywise/session-service/internal/utils"
	"github.com/studywise/session-service/internal/validator"
)

type SessionHandler struct {
	BaseHandler
	manager   *session.Manager
	validator *validator.Validator
}

func NewSessionHandler(manager *session.Manager, v *validator.Validator, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		manager:     manager,
		validator:   v,
	}
}

// ===== REQUEST STRUCTURES =====

type StartSessionRequest struct {
	ExamID    string `json:"exam_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}

type SelectAnswerRequest struct {
	QuestionID    string `json:"question_id" validate:"required"`
	SelectedIndex int    `json:"selected_index"`
	SelectedText  string `json:"selected_text" validate:"required"`
}

type NavigateRequest struct {
	Action string `json:"action" validate:"required,navigation_action"`
	Index  int    `json:"index"`
}

type SubmitRequest struct {
	Confirmed bool `json:"confirmed"`
}

type ExitRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ===== HANDLERS =====

// StartSession creates a new timed session for a student and exam
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.LogRequest(c, "Starting session")

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	if err := h.validator.Validate(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err)
		return
	}

	s, err := h.manager.Start(c.Request.Context(), req.ExamID, req.StudentID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Session started",
		Data:    s.Snapshot(),
	})
}

// GetSession returns the live snapshot of a session
func (h *SessionHandler) GetSession(c *gin.Context) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// GetSessionExam returns the exam content for a session, correct answers stripped
func (h *SessionHandler) GetSessionExam(c *gin.Context) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	exam := s.Exam()
	if exam == nil {
		h.RespondWithError(c, http.StatusConflict, "Session has no loaded exam", nil)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// SelectAnswer records an answer for one question
func (h *SessionHandler) SelectAnswer(c *gin.Context) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	var req SelectAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	if err := h.validator.Validate(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err)
		return
	}

	if err := s.SelectAnswer(req.QuestionID, req.SelectedIndex, req.SelectedText); err != nil {
		h.handleSessionError(c, err)
		return
	}
	h.manager.RefreshSnapshot(c.Request.Context(), s)
	c.JSON(http.StatusOK, s.Snapshot())
}

// Navigate moves the current question pointer
func (h *SessionHandler) Navigate(c *gin.Context) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	if err := h.validator.Validate(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err)
		return
	}

	switch req.Action {
	case "next":
		s.Next()
	case "previous":
		s.Previous()
	case "jump":
		if err := s.JumpTo(req.Index); err != nil {
			h.handleSessionError(c, err)
			return
		}
	}
	h.manager.RefreshSnapshot(c.Request.Context(), s)
	c.JSON(http.StatusOK, s.Snapshot())
}

// Submit runs the submission workflow. An unconfirmed submit with unanswered
// questions returns 409 carrying the unanswered count; repeating the call
// with confirmed=true proceeds.
func (h *SessionHandler) Submit(c *gin.Context) {
	h.LogRequest(c, "Submitting session", "session_id", c.Param("id"))

	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	var req SubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
			return
		}
	}

	result, err := s.Submit(c.Request.Context())
	if err != nil {
		var cre *session.ConfirmationRequiredError
		if errors.As(err, &cre) && req.Confirmed {
			// The caller confirmed upfront; the session is now in
			// ConfirmingSubmit so a second call completes immediately.
			result, err = s.Submit(c.Request.Context())
		}
		if err != nil {
			h.manager.RefreshSnapshot(c.Request.Context(), s)
			h.handleSessionError(c, err)
			return
		}
	}

	h.manager.RefreshSnapshot(c.Request.Context(), s)
	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Session submitted",
		Data:    result,
	})
}

// CancelSubmit dismisses a pending submission confirmation
func (h *SessionHandler) CancelSubmit(c *gin.Context) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	if err := s.CancelSubmit(); err != nil {
		h.handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// Exit tears the session down, honoring the leave guard
func (h *SessionHandler) Exit(c *gin.Context) {
	var req ExitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
			return
		}
	}

	if err := h.manager.Exit(c.Request.Context(), c.Param("id"), req.Confirmed); err != nil {
		h.handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Session closed"})
}

// handleSessionError maps session errors to HTTP status codes
func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	var cre *session.ConfirmationRequiredError
	var valErrs apperrors.ValidationErrors

	switch {
	case errors.As(err, &cre):
		h.RespondWithError(c, http.StatusConflict, "Submission requires confirmation", nil, cre)
	case errors.Is(err, session.ErrExitConfirmationRequired):
		h.RespondWithError(c, http.StatusConflict, "Exit requires confirmation", nil)
	case session.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "Session not found", err)
	case session.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, err.Error(), err)
	case errors.Is(err, session.ErrExamIDRequired),
		errors.Is(err, session.ErrInvalidQuestionIndex):
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
	case errors.As(err, &valErrs):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, valErrs)
	case errors.Is(err, session.ErrExamLoadFailed),
		errors.Is(err, session.ErrSubmissionFailed):
		h.RespondWithError(c, http.StatusBadGateway, err.Error(), err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
