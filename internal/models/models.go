package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================
// Auth DTOs
// ============================================

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=client contributor"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// ============================================
// User DTOs
// ============================================

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Avatar    *string   `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ============================================
// Project DTOs
// ============================================

type CreateProjectRequest struct {
	Title       string          `json:"title" binding:"required,min=3"`
	Description string          `json:"description" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Tags        []string        `json:"tags"`
	Budget      decimal.Decimal `json:"budget" binding:"required"`
	Duration    string          `json:"duration" binding:"required"`
	Deadline    *time.Time      `json:"deadline,omitempty"`
}

type FundProjectRequest struct {
	PaymentIntentID string               `json:"paymentIntentId" binding:"required"`
	Project         CreateProjectRequest `json:"project" binding:"required"`
}

type ProjectResponse struct {
	ID                    string          `json:"id"`
	ClientID              string          `json:"clientId"`
	AcceptedContributorID *string         `json:"acceptedContributorId,omitempty"`
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	Category              string          `json:"category"`
	Tags                  []string        `json:"tags"`
	Budget                decimal.Decimal `json:"budget"`
	Duration              string          `json:"duration"`
	Deadline              *time.Time      `json:"deadline,omitempty"`
	Status                string          `json:"status"`
	ApplicationsCount     int             `json:"applicationsCount"`
	IsSuspended           bool            `json:"isSuspended"`
	SuspendedReason       *string         `json:"suspendedReason,omitempty"`
	Version               int             `json:"version"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

type PaymentIntentResponse struct {
	PaymentIntentID string          `json:"paymentIntentId"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
}

type RejectCompletionRequest struct {
	Reason string `json:"reason" binding:"required,min=10"`
}

type SuspendProjectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ============================================
// Escrow DTOs
// ============================================

type EscrowResponse struct {
	ID              string          `json:"id"`
	ProjectID       string          `json:"projectId"`
	PaymentIntentID string          `json:"paymentIntentId"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	SettledAt       *time.Time      `json:"settledAt,omitempty"`
}

// ============================================
// Application DTOs
// ============================================

type ApplyRequest struct {
	CoverLetter      string          `json:"coverLetter" binding:"required,min=50"`
	ProposedBudget   decimal.Decimal `json:"proposedBudget" binding:"required"`
	ProposedDuration string          `json:"proposedDuration" binding:"required"`
}

type RejectApplicationRequest struct {
	Reason string `json:"reason"`
}

type ApplicationResponse struct {
	ID               string                 `json:"id"`
	ProjectID        string                 `json:"projectId"`
	ApplicantID      string                 `json:"applicantId"`
	CoverLetter      string                 `json:"coverLetter"`
	ProposedBudget   decimal.Decimal        `json:"proposedBudget"`
	ProposedDuration string                 `json:"proposedDuration"`
	Status           string                 `json:"status"`
	RejectionReason  *string                `json:"rejectionReason,omitempty"`
	MatchScore       *decimal.Decimal       `json:"matchScore,omitempty"`
	MatchAnalysis    map[string]interface{} `json:"matchAnalysis,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

// ============================================
// Interview DTOs
// ============================================

type ScheduleInterviewRequest struct {
	ApplicationID   string    `json:"applicationId" binding:"required"`
	ScheduledAt     time.Time `json:"scheduledAt" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"required,min=15,max=120"`
	MeetingLink     *string   `json:"meetingLink,omitempty"`
}

type InterviewResponse struct {
	ID              string    `json:"id"`
	ApplicationID   string    `json:"applicationId"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	DurationMinutes int       `json:"durationMinutes"`
	Status          string    `json:"status"`
	WindowState     string    `json:"windowState"`
	MeetingLink     *string   `json:"meetingLink,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ============================================
// Dispute DTOs
// ============================================

type CounterStatementRequest struct {
	Statement string `json:"statement" binding:"required,min=10"`
}

type DisputeResponse struct {
	ID               string     `json:"id"`
	ProjectID        string     `json:"projectId"`
	OpenedBy         string     `json:"openedBy"`
	Reason           string     `json:"reason"`
	CounterStatement *string    `json:"counterStatement,omitempty"`
	Status           string     `json:"status"`
	Resolution       *string    `json:"resolution,omitempty"`
	ResolvedBy       *string    `json:"resolvedBy,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	ResolvedAt       *time.Time `json:"resolvedAt,omitempty"`
}

// ============================================
// Notification DTOs
// ============================================

type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"isRead"`
	CreatedAt time.Time              `json:"createdAt"`
}

type NotificationCountResponse struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}
