package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studywise/session-service/internal/draft"
	"github.com/studywise/session-service/internal/gateway"
	"github.com/studywise/session-service/internal/repositories"
	"github.com/studywise/session-service/internal/services"
	"github.com/studywise/session-service/internal/session"
	"github.com/studywise/session-service/internal/utils"
	"github.com/studywise/session-service/internal/validator"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	draftHandler   *DraftHandler
	resultHandler  *ResultHandler
}

func NewHandlerManager(
	manager *session.Manager,
	registry *draft.Registry,
	gw gateway.ExamGateway,
	archive repositories.SessionArchiveRepository,
	export services.ExportService,
	v *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(manager, v, logger),
		draftHandler:   NewDraftHandler(registry, gw, v, logger),
		resultHandler:  NewResultHandler(archive, export, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.GET("/:id/exam", hm.sessionHandler.GetSessionExam)
			sessions.PUT("/:id/answer", hm.sessionHandler.SelectAnswer)
			sessions.POST("/:id/navigate", hm.sessionHandler.Navigate)
			sessions.POST("/:id/submit", hm.sessionHandler.Submit)
			sessions.POST("/:id/cancel-submit", hm.sessionHandler.CancelSubmit)
			sessions.POST("/:id/exit", hm.sessionHandler.Exit)
		}

		drafts := v1.Group("/drafts")
		{
			drafts.POST("", hm.draftHandler.OpenDraft)
			drafts.GET("/:id", hm.draftHandler.GetDraft)
			drafts.PUT("/:id/current", hm.draftHandler.UpdateCurrent)
			drafts.POST("/:id/save", hm.draftHandler.SaveCurrent)
			drafts.POST("/:id/questions", hm.draftHandler.AddQuestion)
			drafts.POST("/:id/select", hm.draftHandler.SelectQuestion)
			drafts.POST("/:id/discard", hm.draftHandler.DiscardCurrent)
			drafts.DELETE("/:id/questions/:index", hm.draftHandler.DeleteQuestion)
			drafts.POST("/:id/image", hm.draftHandler.UploadImage)
			drafts.DELETE("/:id", hm.draftHandler.CloseDraft)
		}

		results := v1.Group("/results")
		{
			results.GET("/sessions/:id", hm.resultHandler.GetSessionResult)
			results.GET("/exams/:exam_id", hm.resultHandler.ListExamResults)
			results.GET("/exams/:exam_id/export", hm.resultHandler.ExportExamResults)
			results.GET("/students/:student_id", hm.resultHandler.ListStudentResults)
		}
	}
}

// HealthCheck returns service health status
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "session-service",
	})
}
