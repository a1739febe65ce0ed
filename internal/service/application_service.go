package service

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skillbridge/skillbridge-backend/internal/matchscore"
	"github.com/skillbridge/skillbridge-backend/internal/notification"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/socket"
	"github.com/skillbridge/skillbridge-backend/internal/types"
)

// ============================================
// Application Pipeline
// ============================================

const scoreTimeout = 30 * time.Second

// minCoverLetter is the shortest cover letter worth reviewing.
const minCoverLetter = 50

type ApplyInput struct {
	CoverLetter      string
	ProposedBudget   decimal.Decimal
	ProposedDuration string
}

type ApplicationService interface {
	// Apply submits an application to an open project. At most one live
	// (non-withdrawn) application per applicant per project; withdrawing
	// frees the slot for a fresh submission.
	Apply(ctx context.Context, projectID, applicantID string, input ApplyInput) (*repository.Application, error)

	GetByID(ctx context.Context, id string) (*repository.Application, error)
	ListByProject(ctx context.Context, projectID, callerID, callerRole string) ([]*repository.Application, error)
	ListByApplicant(ctx context.Context, applicantID string) ([]*repository.Application, error)

	// MarkReviewed and Shortlist walk the pipeline forward. Both are
	// client-only. The nominal order is pending, reviewed, shortlisted,
	// but Shortlist may fast-track straight from pending; MarkReviewed
	// never moves backward.
	MarkReviewed(ctx context.Context, appID, callerID string) (*repository.Application, error)
	Shortlist(ctx context.Context, appID, callerID string) (*repository.Application, error)

	// Accept picks the winner: the application flips to accepted, every
	// other live sibling is bulk-rejected and the project moves to
	// in_progress, all observable as one outcome. Re-accepting the same
	// winner is a no-op.
	Accept(ctx context.Context, appID, callerID string) (*repository.Application, error)
	Reject(ctx context.Context, appID, callerID, reason string) (*repository.Application, error)
	Withdraw(ctx context.Context, appID, callerID string) (*repository.Application, error)
}

type applicationService struct {
	appRepo     repository.ApplicationRepository
	projectRepo repository.ProjectRepository
	projectSvc  ProjectService
	scorer      matchscore.Scorer
	notifSvc    *notification.Service
	broadcaster *socket.Broadcaster
}

func NewApplicationService(
	appRepo repository.ApplicationRepository,
	projectRepo repository.ProjectRepository,
	projectSvc ProjectService,
	scorer matchscore.Scorer,
	notifSvc *notification.Service,
	broadcaster *socket.Broadcaster,
) ApplicationService {
	return &applicationService{
		appRepo:     appRepo,
		projectRepo: projectRepo,
		projectSvc:  projectSvc,
		scorer:      scorer,
		notifSvc:    notifSvc,
		broadcaster: broadcaster,
	}
}

func (s *applicationService) Apply(ctx context.Context, projectID, applicantID string, input ApplyInput) (*repository.Application, error) {
	if len(input.CoverLetter) < minCoverLetter || input.ProposedDuration == "" {
		return nil, ErrValidation
	}
	if input.ProposedBudget.IsNegative() {
		return nil, ErrValidation
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}
	if project.Status != types.ProjectOpen {
		return nil, ErrConflict
	}
	if project.ClientID == applicantID {
		return nil, ErrForbidden
	}

	live, err := s.appRepo.FindLive(ctx, projectID, applicantID)
	if err != nil {
		return nil, err
	}
	if live != nil {
		return nil, ErrConflict
	}

	app := &repository.Application{
		ProjectID:        projectID,
		ApplicantID:      applicantID,
		CoverLetter:      input.CoverLetter,
		ProposedBudget:   input.ProposedBudget,
		ProposedDuration: input.ProposedDuration,
		Status:           types.ApplicationPending,
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	if err := s.projectSvc.RecordApplication(ctx, projectID); err != nil {
		log.Printf("[Application] Count bump failed for project %s: %v", projectID, err)
	}
	if err := s.notifSvc.SendApplicationReceived(ctx, project.ClientID, project.Title, project.ID, app.ID); err != nil {
		log.Printf("[Application] Notification failed for %s: %v", app.ID, err)
	}

	// Scoring never blocks submission. The application lands unscored and
	// the match fields fill in when the scorer returns.
	go s.scoreAsync(app.ID, input.CoverLetter, project.Description, project.Tags)

	return app, nil
}

func (s *applicationService) scoreAsync(appID, coverLetter, projectDescription string, projectTags []string) {
	ctx, cancel := context.WithTimeout(context.Background(), scoreTimeout)
	defer cancel()

	result, err := s.scorer.Score(ctx, coverLetter, projectDescription, projectTags)
	if err != nil {
		log.Printf("[Application] Scoring failed for %s (left unscored): %v", appID, err)
		return
	}
	if err := s.appRepo.UpdateMatch(ctx, appID, result.Score, result.Analysis.Map()); err != nil {
		log.Printf("[Application] Match persist failed for %s: %v", appID, err)
	}
}

func (s *applicationService) GetByID(ctx context.Context, id string) (*repository.Application, error) {
	app, err := s.appRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound
	}
	return app, nil
}

func (s *applicationService) ListByProject(ctx context.Context, projectID, callerID, callerRole string) ([]*repository.Application, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}
	// Applicant pipelines are the client's hiring funnel, not public data.
	if project.ClientID != callerID && callerRole != types.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.appRepo.FindByProjectID(ctx, projectID)
}

func (s *applicationService) ListByApplicant(ctx context.Context, applicantID string) ([]*repository.Application, error) {
	return s.appRepo.FindByApplicantID(ctx, applicantID)
}

// loadForClientAction fetches the application plus its project and checks the
// caller owns the project.
func (s *applicationService) loadForClientAction(ctx context.Context, appID, callerID string) (*repository.Application, *repository.Project, error) {
	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, nil, err
	}
	if app == nil {
		return nil, nil, ErrNotFound
	}
	project, err := s.projectRepo.FindByID(ctx, app.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if project == nil {
		return nil, nil, ErrNotFound
	}
	if project.ClientID != callerID {
		return nil, nil, ErrForbidden
	}
	return app, project, nil
}

func (s *applicationService) MarkReviewed(ctx context.Context, appID, callerID string) (*repository.Application, error) {
	app, _, err := s.loadForClientAction(ctx, appID, callerID)
	if err != nil {
		return nil, err
	}
	if app.Status != types.ApplicationPending {
		return nil, ErrConflict
	}
	app.Status = types.ApplicationReviewed
	if err := s.appRepo.UpdateStatus(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *applicationService) Shortlist(ctx context.Context, appID, callerID string) (*repository.Application, error) {
	app, project, err := s.loadForClientAction(ctx, appID, callerID)
	if err != nil {
		return nil, err
	}
	if app.Status != types.ApplicationPending && app.Status != types.ApplicationReviewed {
		return nil, ErrConflict
	}
	app.Status = types.ApplicationShortlisted
	if err := s.appRepo.UpdateStatus(ctx, app); err != nil {
		return nil, err
	}

	// Shortlisting opens the direct channel between client and applicant.
	s.broadcaster.SendChatUnlocked(project.ID, project.ClientID, app.ApplicantID)
	return app, nil
}

func (s *applicationService) Accept(ctx context.Context, appID, callerID string) (*repository.Application, error) {
	app, project, err := s.loadForClientAction(ctx, appID, callerID)
	if err != nil {
		return nil, err
	}

	// Idempotent retry of a confirmed accept.
	if app.Status == types.ApplicationAccepted {
		return app, nil
	}

	switch app.Status {
	case types.ApplicationPending, types.ApplicationReviewed, types.ApplicationShortlisted:
	default:
		return nil, ErrConflict
	}

	// The project transition is the contended gate: it fails unless the
	// project is still open, so a racing second accept loses here before
	// touching any application rows.
	if _, err := s.projectSvc.MarkAccepted(ctx, project.ID, app.ApplicantID); err != nil {
		return nil, err
	}

	rejectedApplicants, err := s.appRepo.AcceptAndRejectSiblings(ctx, app.ID, project.ID, "position filled")
	if err != nil {
		log.Printf("[Application] 🚨 AUDIT accept commit failed after project transition: app=%s project=%s err=%v", app.ID, project.ID, err)
		return nil, err
	}
	app.Status = types.ApplicationAccepted

	if err := s.notifSvc.SendApplicationAccepted(ctx, app.ApplicantID, project.Title, project.ID); err != nil {
		log.Printf("[Application] Notification failed for accept %s: %v", app.ID, err)
	}
	for _, applicantID := range rejectedApplicants {
		if err := s.notifSvc.SendApplicationRejected(ctx, applicantID, project.Title, project.ID, "position filled"); err != nil {
			log.Printf("[Application] Notification failed for sibling rejection on %s: %v", project.ID, err)
		}
	}
	s.broadcaster.SendChatUnlocked(project.ID, project.ClientID, app.ApplicantID)

	log.Printf("[Application] ✅ Accepted %s on project %s (%d siblings rejected)", app.ID, project.ID, len(rejectedApplicants))
	return app, nil
}

func (s *applicationService) Reject(ctx context.Context, appID, callerID, reason string) (*repository.Application, error) {
	app, project, err := s.loadForClientAction(ctx, appID, callerID)
	if err != nil {
		return nil, err
	}

	if app.Status == types.ApplicationRejected {
		return app, nil
	}
	switch app.Status {
	case types.ApplicationPending, types.ApplicationReviewed, types.ApplicationShortlisted:
	default:
		return nil, ErrConflict
	}

	app.Status = types.ApplicationRejected
	if reason != "" {
		app.RejectionReason = &reason
	}
	if err := s.appRepo.UpdateStatus(ctx, app); err != nil {
		return nil, err
	}

	if err := s.notifSvc.SendApplicationRejected(ctx, app.ApplicantID, project.Title, project.ID, reason); err != nil {
		log.Printf("[Application] Notification failed for reject %s: %v", app.ID, err)
	}
	return app, nil
}

func (s *applicationService) Withdraw(ctx context.Context, appID, callerID string) (*repository.Application, error) {
	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if app.ApplicantID != callerID {
		return nil, ErrForbidden
	}

	if app.Status == types.ApplicationWithdrawn {
		return app, nil
	}
	// Accepted applications are committed work, they leave via the project
	// workflow instead. Rejected ones are terminal too: withdrawing would
	// free the re-apply slot the rejection closed.
	if app.Status == types.ApplicationAccepted || app.Status == types.ApplicationRejected {
		return nil, ErrConflict
	}

	app.Status = types.ApplicationWithdrawn
	if err := s.appRepo.UpdateStatus(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}
