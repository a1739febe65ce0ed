package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillbridge/skillbridge-backend/internal/api/middleware"
	"github.com/skillbridge/skillbridge-backend/internal/models"
	"github.com/skillbridge/skillbridge-backend/internal/service"
)

// ============================================
// Dispute Handler
// ============================================

type DisputeHandler struct {
	disputeService service.DisputeService
}

func (h *DisputeHandler) Get(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	dispute, err := h.disputeService.GetByID(c.Request.Context(), c.Param("id"), userID, middleware.GetUserRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDisputeResponse(dispute))
}

func (h *DisputeHandler) GetByProject(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	dispute, err := h.disputeService.GetOpenByProject(c.Request.Context(), c.Param("id"), userID, middleware.GetUserRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDisputeResponse(dispute))
}

func (h *DisputeHandler) FileCounterStatement(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CounterStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dispute, err := h.disputeService.FileCounterStatement(c.Request.Context(), c.Param("id"), userID, req.Statement)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDisputeResponse(dispute))
}
