package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillbridge/skillbridge-backend/internal/models"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth         *AuthHandler
	Project      *ProjectHandler
	Application  *ApplicationHandler
	Interview    *InterviewHandler
	Dispute      *DisputeHandler
	Admin        *AdminHandler
	Notification *NotificationHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:         &AuthHandler{authService: services.Auth},
		Project:      &ProjectHandler{projectService: services.Project, escrowService: services.Escrow},
		Application:  &ApplicationHandler{applicationService: services.Application},
		Interview:    &InterviewHandler{interviewService: services.Interview},
		Dispute:      &DisputeHandler{disputeService: services.Dispute},
		Admin:        &AdminHandler{projectService: services.Project, disputeService: services.Dispute},
		Notification: &NotificationHandler{notificationService: services.Notification},
	}
}

// respondError maps service errors onto HTTP status codes so every handler
// reports failures the same way.
func respondError(c *gin.Context, err error) {
	if rejected, ok := service.IsTransitionRejected(err); ok {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Transition rejected",
			"status": rejected.Status,
			"event":  string(rejected.Event),
		})
		return
	}

	switch err {
	case service.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case service.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	case service.ErrValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	case service.ErrConflict, service.ErrAlreadySuspended:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case service.ErrStateChanged:
		c.JSON(http.StatusConflict, gin.H{"error": "Project changed concurrently, retry"})
	case service.ErrIllegalLedgerTransition:
		c.JSON(http.StatusConflict, gin.H{"error": "Escrow already settled the other way"})
	case service.ErrInsufficientAuthorization:
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment not authorized"})
	case service.ErrInvalidCredentials, service.ErrInvalidToken:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case service.ErrUserExists:
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

func toProjectResponse(p *repository.Project) models.ProjectResponse {
	if p == nil {
		return models.ProjectResponse{}
	}
	return models.ProjectResponse{
		ID:                    p.ID,
		ClientID:              p.ClientID,
		AcceptedContributorID: p.AcceptedContributorID,
		Title:                 p.Title,
		Description:           p.Description,
		Category:              p.Category,
		Tags:                  p.Tags,
		Budget:                p.Budget,
		Duration:              p.Duration,
		Deadline:              p.Deadline,
		Status:                p.Status,
		ApplicationsCount:     p.ApplicationsCount,
		IsSuspended:           p.IsSuspended,
		SuspendedReason:       p.SuspendedReason,
		Version:               p.Version,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func toProjectResponses(projects []*repository.Project) []models.ProjectResponse {
	out := make([]models.ProjectResponse, len(projects))
	for i, p := range projects {
		out[i] = toProjectResponse(p)
	}
	return out
}

func toEscrowResponse(e *repository.EscrowReservation) models.EscrowResponse {
	return models.EscrowResponse{
		ID:              e.ID,
		ProjectID:       e.ProjectID,
		PaymentIntentID: e.PaymentIntentID,
		Amount:          e.Amount,
		Status:          e.Status,
		CreatedAt:       e.CreatedAt,
		SettledAt:       e.SettledAt,
	}
}

func toApplicationResponse(a *repository.Application) models.ApplicationResponse {
	return models.ApplicationResponse{
		ID:               a.ID,
		ProjectID:        a.ProjectID,
		ApplicantID:      a.ApplicantID,
		CoverLetter:      a.CoverLetter,
		ProposedBudget:   a.ProposedBudget,
		ProposedDuration: a.ProposedDuration,
		Status:           a.Status,
		RejectionReason:  a.RejectionReason,
		MatchScore:       a.MatchScore,
		MatchAnalysis:    a.MatchAnalysis,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toApplicationResponses(apps []*repository.Application) []models.ApplicationResponse {
	out := make([]models.ApplicationResponse, len(apps))
	for i, a := range apps {
		out[i] = toApplicationResponse(a)
	}
	return out
}

func toInterviewResponse(v *service.InterviewView) models.InterviewResponse {
	return models.InterviewResponse{
		ID:              v.ID,
		ApplicationID:   v.ApplicationID,
		ScheduledAt:     v.ScheduledAt,
		DurationMinutes: v.DurationMinutes,
		Status:          v.Status,
		WindowState:     v.WindowState,
		MeetingLink:     v.MeetingLink,
		CreatedAt:       v.CreatedAt,
	}
}

func toDisputeResponse(d *repository.Dispute) models.DisputeResponse {
	return models.DisputeResponse{
		ID:               d.ID,
		ProjectID:        d.ProjectID,
		OpenedBy:         d.OpenedBy,
		Reason:           d.Reason,
		CounterStatement: d.CounterStatement,
		Status:           d.Status,
		Resolution:       d.Resolution,
		ResolvedBy:       d.ResolvedBy,
		CreatedAt:        d.CreatedAt,
		ResolvedAt:       d.ResolvedAt,
	}
}

func toNotificationResponse(n *repository.Notification) models.NotificationResponse {
	return models.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		IsRead:    n.Read,
		CreatedAt: n.CreatedAt,
	}
}
