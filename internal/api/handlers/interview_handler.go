package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillbridge/skillbridge-backend/internal/api/middleware"
	"github.com/skillbridge/skillbridge-backend/internal/models"
	"github.com/skillbridge/skillbridge-backend/internal/service"
)

// ============================================
// Interview Handler
// ============================================

type InterviewHandler struct {
	interviewService service.InterviewService
}

func (h *InterviewHandler) Schedule(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ScheduleInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	interview, err := h.interviewService.Schedule(c.Request.Context(), userID, service.ScheduleInterviewInput{
		ApplicationID:   req.ApplicationID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		MeetingLink:     req.MeetingLink,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.InterviewResponse{
		ID:              interview.ID,
		ApplicationID:   interview.ApplicationID,
		ScheduledAt:     interview.ScheduledAt,
		DurationMinutes: interview.DurationMinutes,
		Status:          interview.Status,
		MeetingLink:     interview.MeetingLink,
		CreatedAt:       interview.CreatedAt,
	})
}

// Get returns the interview with its window state projected for the caller.
func (h *InterviewHandler) Get(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	view, err := h.interviewService.GetByID(c.Request.Context(), c.Param("id"), userID, middleware.GetUserRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInterviewResponse(view))
}

func (h *InterviewHandler) ListByApplication(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	views, err := h.interviewService.ListByApplication(c.Request.Context(), c.Param("id"), userID, middleware.GetUserRole(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.InterviewResponse, len(views))
	for i, v := range views {
		response[i] = toInterviewResponse(v)
	}
	c.JSON(http.StatusOK, response)
}

func (h *InterviewHandler) Complete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	interview, err := h.interviewService.Complete(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": interview.ID, "status": interview.Status})
}

func (h *InterviewHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	interview, err := h.interviewService.Cancel(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": interview.ID, "status": interview.Status})
}
