package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studywise/session-service/internal/draft"
	apperrors "github.com/studywise/session-service/internal/errors"
	"github.com/studywise/session-service/internal/gateway"
	"github.com/studywise/session-service/internal/models"
	"github.com/studywise/session-service/internal/utils"
	"github.com/studywise/session-service/internal/validator"
)

type DraftHandler struct {
	BaseHandler
	registry  *draft.Registry
	gateway   gateway.ExamGateway
	validator *validator.Validator
}

func NewDraftHandler(registry *draft.Registry, gw gateway.ExamGateway, v *validator.Validator, logger utils.Logger) *DraftHandler {
	return &DraftHandler{
		BaseHandler: NewBaseHandler(logger),
		registry:    registry,
		gateway:     gw,
		validator:   v,
	}
}

// ===== REQUEST STRUCTURES =====

type OpenDraftRequest struct {
	ExamID string `json:"exam_id"`
	// Mode is "create" for staging a brand new exam or "edit" for an
	// existing one. Edit mode persists each saved question immediately.
	Mode string `json:"mode" validate:"required,oneof=create edit"`
}

type UpdateCurrentRequest struct {
	Content string   `json:"content"`
	Answers []string `json:"answers"`
	Correct string   `json:"correct"`
	Score   int      `json:"score"`
	Image   string   `json:"image"`
}

type SelectQuestionRequest struct {
	Index            int  `json:"index"`
	DiscardConfirmed bool `json:"discard_confirmed"`
}

// DraftStateResponse is the editor view returned after every operation
type DraftStateResponse struct {
	EditorID  string                 `json:"editor_id"`
	ExamID    string                 `json:"exam_id"`
	Questions []models.DraftQuestion `json:"questions"`
	Current   models.DraftQuestion   `json:"current"`
	Index     int                    `json:"index"`
	Dirty     bool                   `json:"dirty"`
}

// ===== HANDLERS =====

// OpenDraft opens a question editor. Edit mode loads the exam's existing
// questions and wires saves through to the backend; create mode stages
// questions in memory only.
func (h *DraftHandler) OpenDraft(c *gin.Context) {
	h.LogRequest(c, "Opening draft editor")

	var req OpenDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	if err := h.validator.Validate(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err)
		return
	}

	var questions []models.DraftQuestion
	var persist draft.PersistFuncs

	if req.Mode == "edit" {
		if req.ExamID == "" {
			h.RespondWithError(c, http.StatusBadRequest, "exam_id is required in edit mode", nil)
			return
		}
		exam, err := h.gateway.LoadExam(c.Request.Context(), req.ExamID)
		if err != nil {
			h.handleDraftError(c, err)
			return
		}
		for _, q := range exam.Questions {
			questions = append(questions, models.DraftQuestion{
				ID:      q.ID,
				Content: q.Content,
				Answers: q.Answers,
				Correct: q.Correct,
				Score:   q.Score,
				Image:   q.Image,
			})
		}
		persist = draft.PersistFuncs{
			Create: h.gateway.SaveQuestion,
			Update: func(ctx context.Context, q models.DraftQuestion) error {
				return h.gateway.UpdateQuestion(ctx, q.ID, q)
			},
			Delete: h.gateway.DeleteQuestion,
		}
	}

	id, editor := h.registry.Open(req.ExamID, questions, persist)
	c.JSON(http.StatusCreated, h.stateResponse(id, editor))
}

// GetDraft returns the editor state
func (h *DraftHandler) GetDraft(c *gin.Context) {
	editor, err := h.registry.Get(c.Param("id"))
	if err != nil {
		h.handleDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.stateResponse(c.Param("id"), editor))
}

// UpdateCurrent replaces the working copy's fields without committing them
func (h *DraftHandler) UpdateCurrent(c *gin.Context) {
	editor, err := h.registry.Get(c.Param("id"))
	if err != nil {
		h.handleDraftError(c, err)
		return
	}

	var req UpdateCurrentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	editor.SetCurrent(models.DraftQuestion{
		Content: req.Content,
		Answers: req.Answers,
		Correct: req.Correct,
		Score:   req.Score,
		Image:   req.Image,
	})
	c.JSON(http.StatusOK, h.stateResponse(c.Param("id"), editor))
}

// SaveCurrent validates and commits the working copy
func (h *DraftHandler) SaveCurrent(c *gin.Context) {
	editor, err := h.registry.Get(c.Param("id"))
	if err != nil {
		h.handleDraftError(c, err)
		return
	}
	if err := editor.Save(c.Request.Context()); err != nil {
		h.handleDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.stateResponse(c.Param("id"), editor))
}

// AddQuestion saves the current question and opens a blank one after it
func (h *DraftHandler) AddQuestion(c *gin.Context) {
	editor, err := h.registry.Get(c.Param("id"))
	if err != nil {
		h.handleDraftError(c, err)
		return
	}
	if err := editor.AddQuestion(c.Request.Context()); err != nil {
		h.handleDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.stateResponse(c.Param("id"), editor))
}

// SelectQuestion makes another question current
func (h *DraftHandler) SelectQuestion(c *gin.Context) {
	editor, err := h.registry.Get(c.Param("id"))
	if err != nil {
		h.handleDraftError(c, err)
		return
	}

	var req SelectQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	if err := editor.Select(req.Index, req.DiscardConfirmed); err != nil {
		h.handleDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.stateResponse(c.Param("id"), editor))
}

// DiscardCurrent drops the working copy's uncommitted edits
func (h *DraftHandler) DiscardCurrent(c *gin.Context) {
	editor, err := h.registry.Get(c.Param("id"))
	if err != nil {
		h.handleDraftError(c, err)
		return
	}
	editor.Discard()
	c.JSON(http.StatusOK, h.stateResponse(c.Param("id"), editor))
}

// DeleteQuestion removes a committed question; requires confirmed=true
func (h *DraftHandler) DeleteQuestion(c *gin.Context) {
	editor, err := h.registry.Get(c.Param("id"))
	if err != nil {
		h.handleDraftError(c, err)
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid question index", err)
		return
	}
	confirmed := c.Query("confirmed") == "true"

	if err := editor.Delete(c.Request.Context(), index, confirmed); err != nil {
		h.handleDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.stateResponse(c.Param("id"), editor))
}

// UploadImage stores a question image through the backend and attaches its
// URL to the working copy. Non-image and oversized files are rejected before
// any bytes leave the service.
func (h *DraftHandler) UploadImage(c *gin.Context) {
	editor, err := h.registry.Get(c.Param("id"))
	if err != nil {
		h.handleDraftError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing file upload", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Cannot read file upload", err)
		return
	}
	defer file.Close()

	url, err := h.gateway.UploadImage(c.Request.Context(), gateway.ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Data:        file,
	})
	if err != nil {
		h.handleDraftError(c, err)
		return
	}

	current, _ := editor.Current()
	current.Image = url
	editor.SetCurrent(current)
	c.JSON(http.StatusOK, h.stateResponse(c.Param("id"), editor))
}

// CloseDraft discards the editor
func (h *DraftHandler) CloseDraft(c *gin.Context) {
	h.registry.Close(c.Param("id"))
	c.JSON(http.StatusOK, SuccessResponse{Message: "Draft editor closed"})
}

func (h *DraftHandler) stateResponse(id string, editor *draft.Editor) DraftStateResponse {
	current, index := editor.Current()
	return DraftStateResponse{
		EditorID:  id,
		ExamID:    editor.ExamID(),
		Questions: editor.Questions(),
		Current:   current,
		Index:     index,
		Dirty:     editor.IsDirty(),
	}
}

// handleDraftError maps draft editor and gateway errors to HTTP status codes
func (h *DraftHandler) handleDraftError(c *gin.Context, err error) {
	var uce *draft.UnsavedChangesError
	var valErrs apperrors.ValidationErrors

	switch {
	case errors.Is(err, draft.ErrEditorNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Draft editor not found", err)
	case errors.As(err, &uce):
		h.RespondWithError(c, http.StatusConflict, "Current question has unsaved changes", nil, uce)
	case errors.Is(err, draft.ErrSaveInFlight),
		errors.Is(err, draft.ErrDeleteConfirmationRequired):
		h.RespondWithError(c, http.StatusConflict, err.Error(), err)
	case errors.As(err, &valErrs):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, valErrs)
	case errors.Is(err, draft.ErrIndexOutOfRange),
		errors.Is(err, gateway.ErrUploadInvalidType),
		errors.Is(err, gateway.ErrUploadTooLarge):
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, gateway.ErrExamNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Exam not found", err)
	case errors.Is(err, gateway.ErrBackendRejected):
		h.RespondWithError(c, http.StatusBadGateway, "Exam backend rejected the request", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
