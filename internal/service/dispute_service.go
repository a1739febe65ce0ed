package service

import (
	"context"
	"log"
	"strings"

	"github.com/skillbridge/skillbridge-backend/internal/notification"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/types"
)

// ============================================
// Dispute Resolution Gate
// ============================================

// Disputes open as a side effect of RejectCompletion and block escrow
// settlement until an admin rules via AdminApprovePayment or
// AdminApproveRefund on the project. There is no auto-resolution timer.

type DisputeService interface {
	GetByID(ctx context.Context, id, callerID, callerRole string) (*repository.Dispute, error)
	GetOpenByProject(ctx context.Context, projectID, callerID, callerRole string) (*repository.Dispute, error)
	ListOpen(ctx context.Context) ([]*repository.Dispute, error)
	// FileCounterStatement records the contributor's side. One statement,
	// contributor only, open disputes only.
	FileCounterStatement(ctx context.Context, disputeID, callerID, statement string) (*repository.Dispute, error)
}

type disputeService struct {
	disputeRepo repository.DisputeRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	notifSvc    *notification.Service
}

func NewDisputeService(
	disputeRepo repository.DisputeRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	notifSvc *notification.Service,
) DisputeService {
	return &disputeService{
		disputeRepo: disputeRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		notifSvc:    notifSvc,
	}
}

func (s *disputeService) authorize(ctx context.Context, dispute *repository.Dispute, callerID, callerRole string) (*repository.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, dispute.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}
	if callerRole == types.RoleAdmin || callerID == project.ClientID {
		return project, nil
	}
	if project.AcceptedContributorID != nil && callerID == *project.AcceptedContributorID {
		return project, nil
	}
	return nil, ErrForbidden
}

func (s *disputeService) GetByID(ctx context.Context, id, callerID, callerRole string) (*repository.Dispute, error) {
	dispute, err := s.disputeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dispute == nil {
		return nil, ErrNotFound
	}
	if _, err := s.authorize(ctx, dispute, callerID, callerRole); err != nil {
		return nil, err
	}
	return dispute, nil
}

func (s *disputeService) GetOpenByProject(ctx context.Context, projectID, callerID, callerRole string) (*repository.Dispute, error) {
	dispute, err := s.disputeRepo.FindOpenByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if dispute == nil {
		return nil, ErrNotFound
	}
	if _, err := s.authorize(ctx, dispute, callerID, callerRole); err != nil {
		return nil, err
	}
	return dispute, nil
}

func (s *disputeService) ListOpen(ctx context.Context) ([]*repository.Dispute, error) {
	return s.disputeRepo.FindByStatus(ctx, types.DisputeOpen)
}

func (s *disputeService) FileCounterStatement(ctx context.Context, disputeID, callerID, statement string) (*repository.Dispute, error) {
	if strings.TrimSpace(statement) == "" {
		return nil, ErrValidation
	}

	dispute, err := s.disputeRepo.FindByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute == nil {
		return nil, ErrNotFound
	}
	if dispute.Status != types.DisputeOpen {
		return nil, ErrConflict
	}
	if dispute.CounterStatement != nil {
		return nil, ErrConflict
	}

	project, err := s.projectRepo.FindByID(ctx, dispute.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}
	if project.AcceptedContributorID == nil || *project.AcceptedContributorID != callerID {
		return nil, ErrForbidden
	}

	if err := s.disputeRepo.AttachCounterStatement(ctx, disputeID, statement); err != nil {
		return nil, err
	}
	dispute.CounterStatement = &statement

	admins, err := s.userRepo.FindByRole(ctx, types.RoleAdmin)
	if err != nil {
		log.Printf("[Dispute] Admin lookup failed for %s: %v", disputeID, err)
		return dispute, nil
	}
	for _, admin := range admins {
		if err := s.notifSvc.SendDisputeCounterFiled(ctx, admin.ID, project.Title, disputeID); err != nil {
			log.Printf("[Dispute] Notification failed for admin %s: %v", admin.ID, err)
		}
	}
	return dispute, nil
}
