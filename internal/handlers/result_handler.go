package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studywise/session-service/internal/repositories"
	"github.com/studywise/session-service/internal/services"
	"github.com/studywise/session-service/internal/utils"
)

type ResultHandler struct {
	BaseHandler
	archive repositories.SessionArchiveRepository
	export  services.ExportService
}

func NewResultHandler(archive repositories.SessionArchiveRepository, export services.ExportService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler: NewBaseHandler(logger),
		archive:     archive,
		export:      export,
	}
}

// GetSessionResult returns the archived record of one submitted session
func (h *ResultHandler) GetSessionResult(c *gin.Context) {
	archive, err := h.archive.GetBySessionID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			h.RespondWithError(c, http.StatusNotFound, "Session result not found", err)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to load session result", err)
		return
	}
	c.JSON(http.StatusOK, archive)
}

// ListExamResults returns archived sessions for an exam, paginated
func (h *ResultHandler) ListExamResults(c *gin.Context) {
	limit, offset := paginationParams(c)

	archives, total, err := h.archive.ListByExam(c.Request.Context(), c.Param("exam_id"), limit, offset)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to list exam results", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results": archives,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// ListStudentResults returns a student's archived sessions, paginated
func (h *ResultHandler) ListStudentResults(c *gin.Context) {
	limit, offset := paginationParams(c)

	archives, total, err := h.archive.ListByStudent(c.Request.Context(), c.Param("student_id"), limit, offset)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to list student results", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results": archives,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// ExportExamResults streams the exam's results as an xlsx download
func (h *ResultHandler) ExportExamResults(c *gin.Context) {
	examID := c.Param("exam_id")
	h.LogRequest(c, "Exporting exam results", "exam_id", examID)

	data, err := h.export.ExportExamResults(c.Request.Context(), examID)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to export exam results", err)
		return
	}

	filename := fmt.Sprintf("exam_%s_results_%s.xlsx", examID, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func paginationParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
