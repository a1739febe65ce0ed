package types

// Project Status values
const (
	ProjectOpen              = "open"
	ProjectInProgress        = "in_progress"
	ProjectPendingCompletion = "pending_completion"
	ProjectPaymentPending    = "payment_pending"
	ProjectRefundPending     = "refund_pending"
	ProjectCompleted         = "completed"
	ProjectCancelled         = "cancelled"
)

// Application Status values
const (
	ApplicationPending     = "pending"
	ApplicationReviewed    = "reviewed"
	ApplicationShortlisted = "shortlisted"
	ApplicationAccepted    = "accepted"
	ApplicationRejected    = "rejected"
	ApplicationWithdrawn   = "withdrawn"
)

// Interview Status values
const (
	InterviewScheduled = "scheduled"
	InterviewCompleted = "completed"
	InterviewCancelled = "cancelled"
)

// Escrow Status values
const (
	EscrowReserved = "reserved"
	EscrowReleased = "released"
	EscrowRefunded = "refunded"
)

// Dispute Status values
const (
	DisputeOpen     = "open"
	DisputeResolved = "resolved"
)

// Actor roles
const (
	RoleClient      = "client"
	RoleContributor = "contributor"
	RoleAdmin       = "admin"
)

// Interview window states (computed at read time, never stored)
const (
	WindowUpcoming  = "upcoming"
	WindowActive    = "active"
	WindowCompleted = "completed"
	WindowCancelled = "cancelled"
)

var ValidProjectStatuses = []string{
	ProjectOpen, ProjectInProgress, ProjectPendingCompletion,
	ProjectPaymentPending, ProjectRefundPending,
	ProjectCompleted, ProjectCancelled,
}

var ValidApplicationStatuses = []string{
	ApplicationPending, ApplicationReviewed, ApplicationShortlisted,
	ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn,
}

var ValidRoles = []string{RoleClient, RoleContributor, RoleAdmin}

// Helper functions for validation
func IsValidProjectStatus(status string) bool {
	for _, s := range ValidProjectStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsValidApplicationStatus(status string) bool {
	for _, s := range ValidApplicationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsTerminalProjectStatus reports whether a project can no longer transition.
func IsTerminalProjectStatus(status string) bool {
	return status == ProjectCompleted || status == ProjectCancelled
}

// IsTerminalApplicationStatus reports whether an application can no longer transition.
func IsTerminalApplicationStatus(status string) bool {
	return status == ApplicationAccepted || status == ApplicationRejected
}

// IsTerminalEscrowStatus reports whether escrow funds have moved.
func IsTerminalEscrowStatus(status string) bool {
	return status == EscrowReleased || status == EscrowRefunded
}
