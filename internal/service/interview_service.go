package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/skillbridge/skillbridge-backend/internal/config"
	"github.com/skillbridge/skillbridge-backend/internal/notification"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/socket"
	"github.com/skillbridge/skillbridge-backend/internal/types"
)

// ============================================
// Interview Scheduling
// ============================================

type ScheduleInterviewInput struct {
	ApplicationID   string
	ScheduledAt     time.Time
	DurationMinutes int
	MeetingLink     *string
}

// InterviewView is an interview plus its window state projected for the
// requesting party. WindowState is computed fresh on every read.
type InterviewView struct {
	*repository.Interview
	WindowState string
}

type InterviewService interface {
	// Schedule books an interview for a shortlisted application. Client only;
	// scheduledAt must be strictly in the future.
	Schedule(ctx context.Context, callerID string, input ScheduleInterviewInput) (*repository.Interview, error)
	GetByID(ctx context.Context, id, callerID, callerRole string) (*InterviewView, error)
	ListByApplication(ctx context.Context, applicationID, callerID, callerRole string) ([]*InterviewView, error)
	Complete(ctx context.Context, id, callerID string) (*repository.Interview, error)
	Cancel(ctx context.Context, id, callerID string) (*repository.Interview, error)
	// SweepPastWindows infers completion for scheduled interviews whose join
	// window has closed. Invoked by the cron scheduler.
	SweepPastWindows(ctx context.Context) (int, error)
	// NotifyOpeningWindows pushes a join prompt to both parties of interviews
	// whose window is about to open. Invoked by the cron scheduler.
	NotifyOpeningWindows(ctx context.Context) (int, error)
}

type interviewService struct {
	cfg           *config.Config
	interviewRepo repository.InterviewRepository
	appRepo       repository.ApplicationRepository
	projectRepo   repository.ProjectRepository
	notifSvc      *notification.Service
	broadcaster   *socket.Broadcaster

	mu       sync.Mutex
	prompted map[string]struct{}
}

func NewInterviewService(
	cfg *config.Config,
	interviewRepo repository.InterviewRepository,
	appRepo repository.ApplicationRepository,
	projectRepo repository.ProjectRepository,
	notifSvc *notification.Service,
	broadcaster *socket.Broadcaster,
) InterviewService {
	return &interviewService{
		cfg:           cfg,
		interviewRepo: interviewRepo,
		appRepo:       appRepo,
		projectRepo:   projectRepo,
		notifSvc:      notifSvc,
		broadcaster:   broadcaster,
		prompted:      make(map[string]struct{}),
	}
}

// loadParties resolves an interview's application and project and checks the
// caller is the client, the applicant, or an admin.
func (s *interviewService) loadParties(ctx context.Context, applicationID, callerID, callerRole string) (*repository.Application, *repository.Project, error) {
	app, err := s.appRepo.FindByID(ctx, applicationID)
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
	if callerID != project.ClientID && callerID != app.ApplicantID && callerRole != types.RoleAdmin {
		return nil, nil, ErrForbidden
	}
	return app, project, nil
}

func (s *interviewService) Schedule(ctx context.Context, callerID string, input ScheduleInterviewInput) (*repository.Interview, error) {
	if input.DurationMinutes < 15 || input.DurationMinutes > 120 {
		return nil, ErrValidation
	}
	if !input.ScheduledAt.After(time.Now()) {
		return nil, ErrValidation
	}

	app, err := s.appRepo.FindByID(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if app.Status != types.ApplicationShortlisted {
		return nil, ErrConflict
	}

	project, err := s.projectRepo.FindByID(ctx, app.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}
	if project.ClientID != callerID {
		return nil, ErrForbidden
	}

	interview := &repository.Interview{
		ApplicationID:   input.ApplicationID,
		ScheduledAt:     input.ScheduledAt.UTC(),
		DurationMinutes: input.DurationMinutes,
		Status:          types.InterviewScheduled,
		MeetingLink:     input.MeetingLink,
	}
	if err := s.interviewRepo.Create(ctx, interview); err != nil {
		return nil, err
	}

	if err := s.notifSvc.SendInterviewScheduled(ctx, app.ApplicantID, project.Title, interview.ID); err != nil {
		log.Printf("[Interview] Notification failed for %s: %v", interview.ID, err)
	}
	return interview, nil
}

// joinLead picks the pre-window for the caller's relationship to the
// interview: clients may connect earlier than applicants.
func (s *interviewService) joinLead(callerID string, app *repository.Application) time.Duration {
	if callerID == app.ApplicantID {
		return time.Duration(s.cfg.ApplicantJoinLeadMinutes) * time.Minute
	}
	return time.Duration(s.cfg.ClientJoinLeadMinutes) * time.Minute
}

func (s *interviewService) view(interview *repository.Interview, callerID string, app *repository.Application) *InterviewView {
	return &InterviewView{
		Interview:   interview,
		WindowState: WindowState(time.Now(), interview.ScheduledAt, interview.DurationMinutes, interview.Status, s.joinLead(callerID, app)),
	}
}

func (s *interviewService) GetByID(ctx context.Context, id, callerID, callerRole string) (*InterviewView, error) {
	interview, err := s.interviewRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if interview == nil {
		return nil, ErrNotFound
	}
	app, _, err := s.loadParties(ctx, interview.ApplicationID, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	return s.view(interview, callerID, app), nil
}

func (s *interviewService) ListByApplication(ctx context.Context, applicationID, callerID, callerRole string) ([]*InterviewView, error) {
	app, _, err := s.loadParties(ctx, applicationID, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	interviews, err := s.interviewRepo.FindByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	views := make([]*InterviewView, len(interviews))
	for i, interview := range interviews {
		views[i] = s.view(interview, callerID, app)
	}
	return views, nil
}

func (s *interviewService) setStatus(ctx context.Context, id, callerID, target string) (*repository.Interview, error) {
	interview, err := s.interviewRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if interview == nil {
		return nil, ErrNotFound
	}

	_, project, err := s.loadParties(ctx, interview.ApplicationID, callerID, "")
	if err != nil {
		return nil, err
	}
	if project.ClientID != callerID {
		return nil, ErrForbidden
	}

	if interview.Status == target {
		return interview, nil
	}
	// Completed interviews are immutable.
	if interview.Status != types.InterviewScheduled {
		return nil, ErrConflict
	}

	if err := s.interviewRepo.UpdateStatus(ctx, id, target); err != nil {
		return nil, err
	}
	interview.Status = target
	return interview, nil
}

func (s *interviewService) Complete(ctx context.Context, id, callerID string) (*repository.Interview, error) {
	return s.setStatus(ctx, id, callerID, types.InterviewCompleted)
}

func (s *interviewService) Cancel(ctx context.Context, id, callerID string) (*repository.Interview, error) {
	return s.setStatus(ctx, id, callerID, types.InterviewCancelled)
}

func (s *interviewService) SweepPastWindows(ctx context.Context) (int, error) {
	stale, err := s.interviewRepo.FindPastWindow(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, interview := range stale {
		if err := s.interviewRepo.UpdateStatus(ctx, interview.ID, types.InterviewCompleted); err != nil {
			log.Printf("[Interview] Sweep failed for %s: %v", interview.ID, err)
			continue
		}
		swept++
	}
	if swept > 0 {
		log.Printf("[Interview] ✅ Swept %d past-window interviews to completed", swept)
	}
	return swept, nil
}

func (s *interviewService) NotifyOpeningWindows(ctx context.Context) (int, error) {
	if s.broadcaster == nil {
		return 0, nil
	}

	// The client lead is the wider of the two, so scanning that far ahead
	// catches both parties' windows.
	now := time.Now()
	lead := time.Duration(s.cfg.ClientJoinLeadMinutes) * time.Minute
	opening, err := s.interviewRepo.FindOpeningWindow(ctx, now, now.Add(lead))
	if err != nil {
		return 0, err
	}

	// Prune prompt markers for interviews that left the scan range; they
	// cannot be returned again.
	current := make(map[string]struct{}, len(opening))
	for _, interview := range opening {
		current[interview.ID] = struct{}{}
	}
	s.mu.Lock()
	for id := range s.prompted {
		if _, ok := current[id]; !ok {
			delete(s.prompted, id)
		}
	}
	s.mu.Unlock()

	notified := 0
	for _, interview := range opening {
		s.mu.Lock()
		_, seen := s.prompted[interview.ID]
		if !seen {
			s.prompted[interview.ID] = struct{}{}
		}
		s.mu.Unlock()
		if seen {
			continue
		}

		app, err := s.appRepo.FindByID(ctx, interview.ApplicationID)
		if err != nil || app == nil {
			continue
		}
		project, err := s.projectRepo.FindByID(ctx, app.ProjectID)
		if err != nil || project == nil {
			continue
		}

		s.broadcaster.SendInterviewWindowEntered(project.ClientID, interview.ID)
		s.broadcaster.SendInterviewWindowEntered(app.ApplicantID, interview.ID)
		notified++
	}
	return notified, nil
}
