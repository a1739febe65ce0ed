package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skillbridge/skillbridge-backend/internal/config"
	"github.com/skillbridge/skillbridge-backend/internal/db"
	"github.com/skillbridge/skillbridge-backend/internal/email"
	"github.com/skillbridge/skillbridge-backend/internal/notification"
	"github.com/skillbridge/skillbridge-backend/internal/payment"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/socket"
	"github.com/skillbridge/skillbridge-backend/internal/types"
)

// ============================================
// Project State Machine
// ============================================

type CreateProjectInput struct {
	Title       string
	Description string
	Category    string
	Tags        []string
	Budget      decimal.Decimal
	Duration    string
	Deadline    *time.Time
}

type ProjectService interface {
	// CreateIntent validates the posting and opens a payment intent for the
	// budget. The project row does not exist yet.
	CreateIntent(ctx context.Context, clientID string, input CreateProjectInput) (*payment.Intent, error)
	// PostAndFund reserves escrow against a confirmed capture and creates the
	// project in one transaction. Idempotent per paymentIntentID: a duplicate
	// confirmation returns the already-created project.
	PostAndFund(ctx context.Context, clientID, paymentIntentID string, input CreateProjectInput) (*repository.Project, error)

	GetByID(ctx context.Context, id string) (*repository.Project, error)
	ListOpen(ctx context.Context) ([]*repository.Project, error)
	ListByClient(ctx context.Context, clientID string) ([]*repository.Project, error)
	ListByContributor(ctx context.Context, contributorID string) ([]*repository.Project, error)

	// RecordApplication bumps applications_count. Always legal, independent
	// of the status machine.
	RecordApplication(ctx context.Context, projectID string) error
	// MarkAccepted applies ApplicationAccepted: open → in_progress. Invoked
	// by the application pipeline, never by a handler directly.
	MarkAccepted(ctx context.Context, projectID, contributorID string) (*repository.Project, error)

	RequestCompletion(ctx context.Context, projectID, callerID string) (*repository.Project, error)
	ApproveCompletion(ctx context.Context, projectID, callerID string) (*repository.Project, error)
	RequestChanges(ctx context.Context, projectID, callerID string) (*repository.Project, error)
	RejectCompletion(ctx context.Context, projectID, callerID, reason string) (*repository.Project, error)

	AdminApprovePayment(ctx context.Context, projectID, adminID string) (*repository.Project, error)
	AdminApproveRefund(ctx context.Context, projectID, adminID string) (*repository.Project, error)
	AdminRevert(ctx context.Context, projectID, adminID string) (*repository.Project, error)

	Cancel(ctx context.Context, projectID, callerID, callerRole string) (*repository.Project, error)
	Suspend(ctx context.Context, projectID, adminID, reason string) (*repository.Project, error)
}

type projectService struct {
	cfg            *config.Config
	projectRepo    repository.ProjectRepository
	disputeRepo    repository.DisputeRepository
	userRepo       repository.UserRepository
	escrowSvc      EscrowService
	gateway        payment.Gateway
	cache          *db.RedisDB
	notifSvc       *notification.Service
	emailSvc       *email.Service
	broadcaster    *socket.Broadcaster
	adminThreshold decimal.Decimal
}

func NewProjectService(
	cfg *config.Config,
	projectRepo repository.ProjectRepository,
	disputeRepo repository.DisputeRepository,
	userRepo repository.UserRepository,
	escrowSvc EscrowService,
	gateway payment.Gateway,
	cache *db.RedisDB,
	notifSvc *notification.Service,
	emailSvc *email.Service,
	broadcaster *socket.Broadcaster,
) ProjectService {
	threshold, err := decimal.NewFromString(cfg.AdminReviewThreshold)
	if err != nil {
		log.Printf("[Project] Invalid ADMIN_REVIEW_THRESHOLD %q, admin gate disabled", cfg.AdminReviewThreshold)
		threshold = decimal.Decimal{}
	}
	return &projectService{
		cfg:            cfg,
		projectRepo:    projectRepo,
		disputeRepo:    disputeRepo,
		userRepo:       userRepo,
		escrowSvc:      escrowSvc,
		gateway:        gateway,
		cache:          cache,
		notifSvc:       notifSvc,
		emailSvc:       emailSvc,
		broadcaster:    broadcaster,
		adminThreshold: threshold,
	}
}

func validateProjectInput(input CreateProjectInput) error {
	if strings.TrimSpace(input.Title) == "" ||
		strings.TrimSpace(input.Description) == "" ||
		strings.TrimSpace(input.Category) == "" ||
		strings.TrimSpace(input.Duration) == "" {
		return ErrValidation
	}
	if input.Budget.IsNegative() {
		return ErrValidation
	}
	return nil
}

func (s *projectService) CreateIntent(ctx context.Context, clientID string, input CreateProjectInput) (*payment.Intent, error) {
	if err := validateProjectInput(input); err != nil {
		return nil, err
	}
	return s.gateway.CreateIntent(ctx, input.Budget, "project_escrow", map[string]string{
		"clientId": clientID,
		"title":    input.Title,
	})
}

func (s *projectService) PostAndFund(ctx context.Context, clientID, paymentIntentID string, input CreateProjectInput) (*repository.Project, error) {
	if err := validateProjectInput(input); err != nil {
		return nil, err
	}

	// Duplicate webhook delivery: the reservation already exists, return the
	// project it funded.
	if existing, err := s.escrowSvc.GetByPaymentIntentID(ctx, paymentIntentID); err != nil {
		return nil, err
	} else if existing != nil {
		return s.projectRepo.FindByID(ctx, existing.ProjectID)
	}

	// Second layer of webhook dedup for deliveries racing ahead of the
	// insert. Best effort: the unique payment_intent_id column is the
	// authoritative guard.
	if s.cache != nil {
		claimed, err := s.cache.ClaimIdempotencyKey(ctx, paymentIntentID, 10*time.Minute)
		if err == nil && !claimed {
			if existing, err := s.escrowSvc.GetByPaymentIntentID(ctx, paymentIntentID); err == nil && existing != nil {
				return s.projectRepo.FindByID(ctx, existing.ProjectID)
			}
			return nil, ErrConflict
		}
	}

	escrow, err := s.escrowSvc.Reserve(ctx, paymentIntentID, input.Budget)
	if err != nil {
		return nil, err
	}

	project := &repository.Project{
		ClientID:    clientID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Tags:        input.Tags,
		Budget:      input.Budget,
		Duration:    input.Duration,
		Deadline:    input.Deadline,
		Status:      types.ProjectOpen,
		PaymentID:   &paymentIntentID,
	}

	if err := s.projectRepo.CreateFunded(ctx, project, escrow); err != nil {
		log.Printf("[Project] 🚨 AUDIT funded create failed: intent=%s amount=%s err=%v", paymentIntentID, input.Budget, err)
		return nil, err
	}

	log.Printf("[Project] ✅ Created funded project %s (budget=%s, intent=%s)", project.ID, project.Budget, paymentIntentID)
	s.emitStatusChange(project, "", types.ProjectOpen)
	return project, nil
}

func (s *projectService) GetByID(ctx context.Context, id string) (*repository.Project, error) {
	if s.cache != nil {
		cached := &repository.Project{}
		if err := s.cache.GetCache(ctx, "project:"+id, cached); err == nil && cached.ID != "" {
			return cached, nil
		}
	}

	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}

	if s.cache != nil {
		s.cache.SetCache(ctx, "project:"+id, project, 30*time.Second)
	}
	return project, nil
}

func (s *projectService) ListOpen(ctx context.Context) ([]*repository.Project, error) {
	return s.projectRepo.FindOpen(ctx)
}

func (s *projectService) ListByClient(ctx context.Context, clientID string) ([]*repository.Project, error) {
	return s.projectRepo.FindByClientID(ctx, clientID)
}

func (s *projectService) ListByContributor(ctx context.Context, contributorID string) ([]*repository.Project, error) {
	return s.projectRepo.FindByContributorID(ctx, contributorID)
}

func (s *projectService) RecordApplication(ctx context.Context, projectID string) error {
	if err := s.projectRepo.IncrementApplicationsCount(ctx, projectID); err != nil {
		return err
	}
	s.invalidate(ctx, projectID)
	return nil
}

// transitionFn examines the freshly-read project, applies the guard for one
// event, mutates the workflow fields in place and returns the escrow status
// to commit alongside (nil for no money movement).
type transitionFn func(p *repository.Project) (escrowStatus *string, err error)

// transition serializes one event against the project aggregate. A version
// conflict means another transition committed between our read and write: the
// guard is re-run once against fresh state before giving up.
func (s *projectService) transition(ctx context.Context, projectID string, event Event, fn transitionFn) (*repository.Project, error) {
	for attempt := 0; attempt < 2; attempt++ {
		project, err := s.projectRepo.FindByID(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if project == nil {
			return nil, ErrNotFound
		}

		from := project.Status
		expected := project.Version

		escrowStatus, err := fn(project)
		if err != nil {
			return nil, err
		}

		if escrowStatus != nil {
			err = s.projectRepo.UpdateStatusWithEscrow(ctx, project, expected, *escrowStatus)
		} else {
			err = s.projectRepo.UpdateStatus(ctx, project, expected)
		}
		if err == repository.ErrVersionConflict {
			log.Printf("[Project] Version conflict on %s during %s (attempt %d)", projectID, event, attempt+1)
			continue
		}
		if err != nil {
			if escrowStatus != nil {
				log.Printf("[Project] 🚨 AUDIT escrow commit failed: project=%s event=%s from=%s to=%s escrow=%s err=%v",
					projectID, event, from, project.Status, *escrowStatus, err)
			}
			return nil, err
		}

		s.invalidate(ctx, projectID)
		s.emitStatusChange(project, from, project.Status)
		return project, nil
	}
	return nil, ErrStateChanged
}

func (s *projectService) MarkAccepted(ctx context.Context, projectID, contributorID string) (*repository.Project, error) {
	return s.transition(ctx, projectID, EventApplicationAccepted, func(p *repository.Project) (*string, error) {
		if p.Status != types.ProjectOpen {
			return nil, &TransitionRejectedError{Status: p.Status, Event: EventApplicationAccepted}
		}
		p.Status = types.ProjectInProgress
		p.AcceptedContributorID = &contributorID
		return nil, nil
	})
}

func (s *projectService) RequestCompletion(ctx context.Context, projectID, callerID string) (*repository.Project, error) {
	project, err := s.transition(ctx, projectID, EventRequestCompletion, func(p *repository.Project) (*string, error) {
		if p.Status != types.ProjectInProgress {
			return nil, &TransitionRejectedError{Status: p.Status, Event: EventRequestCompletion}
		}
		if p.AcceptedContributorID == nil || *p.AcceptedContributorID != callerID {
			return nil, ErrForbidden
		}
		p.Status = types.ProjectPendingCompletion
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifSvc.SendCompletionRequested(ctx, project.ClientID, project.Title, project.ID); err != nil {
		log.Printf("[Project] Notification failed for completion request on %s: %v", project.ID, err)
	}
	return project, nil
}

func (s *projectService) ApproveCompletion(ctx context.Context, projectID, callerID string) (*repository.Project, error) {
	project, err := s.transition(ctx, projectID, EventApproveCompletion, func(p *repository.Project) (*string, error) {
		if p.Status != types.ProjectPendingCompletion {
			return nil, &TransitionRejectedError{Status: p.Status, Event: EventApproveCompletion}
		}
		if p.ClientID != callerID {
			return nil, ErrForbidden
		}

		// Platform policy: large escrows need admin sign-off before release.
		if !s.adminThreshold.IsZero() && p.Budget.GreaterThanOrEqual(s.adminThreshold) {
			p.Status = types.ProjectPaymentPending
			return nil, nil
		}

		escrowStatus, err := s.escrowSvc.PlanRelease(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Status = types.ProjectCompleted
		return escrowStatus, nil
	})
	if err != nil {
		return nil, err
	}

	if project.Status == types.ProjectCompleted && project.AcceptedContributorID != nil {
		if err := s.notifSvc.SendPaymentReleased(ctx, *project.AcceptedContributorID, project.Title, project.ID); err != nil {
			log.Printf("[Project] Notification failed for payment release on %s: %v", project.ID, err)
		}
	}
	return project, nil
}

func (s *projectService) RequestChanges(ctx context.Context, projectID, callerID string) (*repository.Project, error) {
	project, err := s.transition(ctx, projectID, EventRequestChanges, func(p *repository.Project) (*string, error) {
		if p.Status != types.ProjectPendingCompletion {
			return nil, &TransitionRejectedError{Status: p.Status, Event: EventRequestChanges}
		}
		if p.ClientID != callerID {
			return nil, ErrForbidden
		}
		p.Status = types.ProjectInProgress
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if project.AcceptedContributorID != nil {
		if err := s.notifSvc.SendChangesRequested(ctx, *project.AcceptedContributorID, project.Title, project.ID); err != nil {
			log.Printf("[Project] Notification failed for change request on %s: %v", project.ID, err)
		}
	}
	return project, nil
}

func (s *projectService) RejectCompletion(ctx context.Context, projectID, callerID, reason string) (*repository.Project, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrValidation
	}

	project, err := s.transition(ctx, projectID, EventRejectCompletion, func(p *repository.Project) (*string, error) {
		if p.Status != types.ProjectPendingCompletion {
			return nil, &TransitionRejectedError{Status: p.Status, Event: EventRejectCompletion}
		}
		if p.ClientID != callerID {
			return nil, ErrForbidden
		}
		p.Status = types.ProjectRefundPending
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	dispute := &repository.Dispute{
		ProjectID: project.ID,
		OpenedBy:  callerID,
		Reason:    reason,
		Status:    types.DisputeOpen,
	}
	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		log.Printf("[Project] 🚨 Dispute create failed for %s (refund stays admin-gated): %v", project.ID, err)
	} else {
		s.broadcaster.BroadcastDisputeOpened(project.ID, reason)
		s.notifyAdminsOfDispute(ctx, project, dispute)
	}

	if project.AcceptedContributorID != nil {
		if err := s.notifSvc.SendCompletionRejected(ctx, *project.AcceptedContributorID, project.Title, project.ID, reason); err != nil {
			log.Printf("[Project] Notification failed for completion rejection on %s: %v", project.ID, err)
		}
	}
	return project, nil
}

func (s *projectService) notifyAdminsOfDispute(ctx context.Context, project *repository.Project, dispute *repository.Dispute) {
	admins, err := s.userRepo.FindByRole(ctx, types.RoleAdmin)
	if err != nil {
		log.Printf("[Project] Admin lookup failed for dispute %s: %v", dispute.ID, err)
		return
	}
	for _, admin := range admins {
		if err := s.notifSvc.SendDisputeOpened(ctx, admin.ID, project.Title, dispute.ID); err != nil {
			log.Printf("[Project] Dispute notification failed for admin %s: %v", admin.ID, err)
		}
	}
	if s.emailSvc != nil && s.cfg.AdminEmail != "" {
		if err := s.emailSvc.SendDisputeOpened(s.cfg.AdminEmail, project.Title, dispute.Reason); err != nil {
			log.Printf("[Project] Dispute email failed: %v", err)
		}
	}
}

func (s *projectService) AdminApprovePayment(ctx context.Context, projectID, adminID string) (*repository.Project, error) {
	project, err := s.transition(ctx, projectID, EventAdminApprovePayment, func(p *repository.Project) (*string, error) {
		if p.Status != types.ProjectPaymentPending {
			return nil, &TransitionRejectedError{Status: p.Status, Event: EventAdminApprovePayment}
		}
		escrowStatus, err := s.escrowSvc.PlanRelease(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Status = types.ProjectCompleted
		return escrowStatus, nil
	})
	if err != nil {
		return nil, err
	}

	s.resolveOpenDispute(ctx, projectID, "payment released", adminID)
	if project.AcceptedContributorID != nil {
		if err := s.notifSvc.SendPaymentReleased(ctx, *project.AcceptedContributorID, project.Title, project.ID); err != nil {
			log.Printf("[Project] Notification failed for admin payment approval on %s: %v", project.ID, err)
		}
	}
	return project, nil
}

func (s *projectService) AdminApproveRefund(ctx context.Context, projectID, adminID string) (*repository.Project, error) {
	project, err := s.transition(ctx, projectID, EventAdminApproveRefund, func(p *repository.Project) (*string, error) {
		if p.Status != types.ProjectRefundPending {
			return nil, &TransitionRejectedError{Status: p.Status, Event: EventAdminApproveRefund}
		}
		escrowStatus, err := s.escrowSvc.PlanRefund(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		// Refund variant of completed: the project reached its terminal
		// audit state, the money went back to the client.
		p.Status = types.ProjectCompleted
		return escrowStatus, nil
	})
	if err != nil {
		return nil, err
	}

	s.resolveOpenDispute(ctx, projectID, "escrow refunded", adminID)
	if err := s.notifSvc.SendProjectRefunded(ctx, project.ClientID, project.Title, project.ID); err != nil {
		log.Printf("[Project] Notification failed for refund on %s: %v", project.ID, err)
	}
	return project, nil
}

func (s *projectService) AdminRevert(ctx context.Context, projectID, adminID string) (*repository.Project, error) {
	return s.transition(ctx, projectID, EventAdminRevert, func(p *repository.Project) (*string, error) {
		if p.Status != types.ProjectPaymentPending && p.Status != types.ProjectRefundPending {
			return nil, &TransitionRejectedError{Status: p.Status, Event: EventAdminRevert}
		}
		p.Status = types.ProjectPendingCompletion
		return nil, nil
	})
}

func (s *projectService) resolveOpenDispute(ctx context.Context, projectID, resolution, adminID string) {
	dispute, err := s.disputeRepo.FindOpenByProjectID(ctx, projectID)
	if err != nil || dispute == nil {
		return
	}
	if err := s.disputeRepo.Resolve(ctx, dispute.ID, resolution, adminID); err != nil {
		log.Printf("[Project] Dispute resolve failed for %s: %v", dispute.ID, err)
	}
}

func (s *projectService) Cancel(ctx context.Context, projectID, callerID, callerRole string) (*repository.Project, error) {
	project, err := s.transition(ctx, projectID, EventCancel, func(p *repository.Project) (*string, error) {
		switch p.Status {
		case types.ProjectOpen, types.ProjectInProgress, types.ProjectPendingCompletion:
		default:
			return nil, &TransitionRejectedError{Status: p.Status, Event: EventCancel}
		}
		if p.ClientID != callerID && callerRole != types.RoleAdmin {
			return nil, ErrForbidden
		}

		escrowStatus, err := s.escrowSvc.PlanRefundIfReserved(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Status = types.ProjectCancelled
		return escrowStatus, nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifSvc.SendProjectCancelled(ctx, project.ClientID, project.Title, project.ID); err != nil {
		log.Printf("[Project] Notification failed for cancel on %s: %v", project.ID, err)
	}
	if project.AcceptedContributorID != nil {
		s.notifSvc.SendProjectCancelled(ctx, *project.AcceptedContributorID, project.Title, project.ID)
	}
	return project, nil
}

func (s *projectService) Suspend(ctx context.Context, projectID, adminID, reason string) (*repository.Project, error) {
	project, err := s.transition(ctx, projectID, EventSuspend, func(p *repository.Project) (*string, error) {
		if p.IsSuspended {
			return nil, ErrAlreadySuspended
		}
		if types.IsTerminalProjectStatus(p.Status) {
			return nil, &TransitionRejectedError{Status: p.Status, Event: EventSuspend}
		}
		escrowStatus, err := s.escrowSvc.PlanRefundIfReserved(ctx, p.ID)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		p.IsSuspended = true
		p.SuspendedAt = &now
		p.SuspendedReason = &reason
		p.Status = types.ProjectCancelled
		return escrowStatus, nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifSvc.SendProjectSuspended(ctx, project.ClientID, project.Title, project.ID, reason); err != nil {
		log.Printf("[Project] Notification failed for suspension on %s: %v", project.ID, err)
	}
	if project.AcceptedContributorID != nil {
		s.notifSvc.SendProjectSuspended(ctx, *project.AcceptedContributorID, project.Title, project.ID, reason)
	}
	return project, nil
}

func (s *projectService) invalidate(ctx context.Context, projectID string) {
	if s.cache != nil {
		s.cache.InvalidateCache(ctx, "project:"+projectID)
	}
}

func (s *projectService) emitStatusChange(project *repository.Project, from, to string) {
	if s.broadcaster == nil || from == to {
		return
	}
	s.broadcaster.BroadcastProjectStatusChanged(project.ID, from, to, project.UpdatedAt)
}
