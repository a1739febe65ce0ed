package service

import (
	"errors"
	"fmt"

	"github.com/skillbridge/skillbridge-backend/internal/config"
	"github.com/skillbridge/skillbridge-backend/internal/db"
	"github.com/skillbridge/skillbridge-backend/internal/email"
	"github.com/skillbridge/skillbridge-backend/internal/matchscore"
	"github.com/skillbridge/skillbridge-backend/internal/notification"
	"github.com/skillbridge/skillbridge-backend/internal/payment"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/socket"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("resource already exists")

	// ErrValidation covers malformed input rejected before any state change.
	ErrValidation = errors.New("invalid input")

	// ErrStateChanged surfaces an optimistic-lock conflict that persisted
	// through the single internal retry.
	ErrStateChanged = errors.New("state changed, please refresh")

	// ErrIllegalLedgerTransition means an attempt to move escrow money state
	// backward. Fatal for the request, logged for manual audit.
	ErrIllegalLedgerTransition = errors.New("illegal escrow ledger transition")

	// ErrInsufficientAuthorization means the gateway capture did not settle;
	// no project is created and the caller must restart funding.
	ErrInsufficientAuthorization = errors.New("payment capture not settled")

	ErrAlreadySuspended = errors.New("project is already suspended")
)

// Workflow events accepted by the project state machine.
type Event string

const (
	EventPostAndFund         Event = "PostAndFund"
	EventApplicationAccepted Event = "ApplicationAccepted"
	EventRequestCompletion   Event = "RequestCompletion"
	EventApproveCompletion   Event = "ApproveCompletion"
	EventRequestChanges      Event = "RequestChanges"
	EventRejectCompletion    Event = "RejectCompletion"
	EventAdminApprovePayment Event = "AdminApprovePayment"
	EventAdminApproveRefund  Event = "AdminApproveRefund"
	EventAdminRevert         Event = "AdminRevert"
	EventCancel              Event = "Cancel"
	EventSuspend             Event = "Suspend"
)

// TransitionRejectedError reports an event that is illegal for the project's
// current status. Retrying the same illegal call leaves state untouched.
type TransitionRejectedError struct {
	Status string
	Event  Event
}

func (e *TransitionRejectedError) Error() string {
	return fmt.Sprintf("transition rejected: event %s is illegal in status %s", e.Event, e.Status)
}

// IsTransitionRejected unwraps a TransitionRejectedError if err carries one.
func IsTransitionRejected(err error) (*TransitionRejectedError, bool) {
	var tre *TransitionRejectedError
	if errors.As(err, &tre) {
		return tre, true
	}
	return nil, false
}

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth         AuthService
	Project      ProjectService
	Escrow       EscrowService
	Application  ApplicationService
	Interview    InterviewService
	Dispute      DisputeService
	Notification NotificationService
	Broadcaster  *socket.Broadcaster
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config      *config.Config
	Repos       *repository.Repositories
	Cache       *db.RedisDB
	Gateway     payment.Gateway
	Scorer      matchscore.Scorer
	NotifSvc    *notification.Service
	EmailSvc    *email.Service
	Broadcaster *socket.Broadcaster
}

func NewServices(deps *ServiceDeps) *Services {
	escrowService := NewEscrowService(deps.Repos.EscrowRepo, deps.Gateway)

	projectService := NewProjectService(
		deps.Config,
		deps.Repos.ProjectRepo,
		deps.Repos.DisputeRepo,
		deps.Repos.UserRepo,
		escrowService,
		deps.Gateway,
		deps.Cache,
		deps.NotifSvc,
		deps.EmailSvc,
		deps.Broadcaster,
	)

	return &Services{
		Auth:    NewAuthService(deps.Config, deps.Repos.UserRepo),
		Escrow:  escrowService,
		Project: projectService,
		Application: NewApplicationService(
			deps.Repos.ApplicationRepo,
			deps.Repos.ProjectRepo,
			projectService,
			deps.Scorer,
			deps.NotifSvc,
			deps.Broadcaster,
		),
		Interview: NewInterviewService(
			deps.Config,
			deps.Repos.InterviewRepo,
			deps.Repos.ApplicationRepo,
			deps.Repos.ProjectRepo,
			deps.NotifSvc,
			deps.Broadcaster,
		),
		Dispute: NewDisputeService(
			deps.Repos.DisputeRepo,
			deps.Repos.ProjectRepo,
			deps.Repos.UserRepo,
			deps.NotifSvc,
		),
		Notification: NewNotificationService(deps.Repos.NotificationRepo),
		Broadcaster:  deps.Broadcaster,
	}
}
