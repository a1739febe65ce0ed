package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillbridge/skillbridge-backend/internal/api/middleware"
	"github.com/skillbridge/skillbridge-backend/internal/models"
	"github.com/skillbridge/skillbridge-backend/internal/service"
)

// ============================================
// Admin Handler
// ============================================

// AdminHandler serves the review queue. All routes sit behind RequireAdmin.
type AdminHandler struct {
	projectService service.ProjectService
	disputeService service.DisputeService
}

func (h *AdminHandler) ListOpenDisputes(c *gin.Context) {
	disputes, err := h.disputeService.ListOpen(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.DisputeResponse, len(disputes))
	for i, d := range disputes {
		response[i] = toDisputeResponse(d)
	}
	c.JSON(http.StatusOK, response)
}

func (h *AdminHandler) ApprovePayment(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	project, err := h.projectService.AdminApprovePayment(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(project))
}

func (h *AdminHandler) ApproveRefund(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	project, err := h.projectService.AdminApproveRefund(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(project))
}

func (h *AdminHandler) Revert(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	project, err := h.projectService.AdminRevert(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(project))
}

func (h *AdminHandler) Suspend(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.SuspendProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projectService.Suspend(c.Request.Context(), c.Param("id"), userID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(project))
}
