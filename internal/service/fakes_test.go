package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/skillbridge/skillbridge-backend/internal/config"
	"github.com/skillbridge/skillbridge-backend/internal/matchscore"
	"github.com/skillbridge/skillbridge-backend/internal/notification"
	"github.com/skillbridge/skillbridge-backend/internal/payment"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/socket"
	"github.com/skillbridge/skillbridge-backend/internal/types"
)

// fakeStore is a shared in-memory backing store so the repo fakes can mirror
// the transactional coupling of the real pg implementations (project + escrow
// written together).
type fakeStore struct {
	mu            sync.Mutex
	users         map[string]*repository.User
	refreshTokens map[string]*repository.RefreshToken
	projects      map[string]*repository.Project
	escrows       map[string]*repository.EscrowReservation // keyed by project ID
	applications  map[string]*repository.Application
	interviews    map[string]*repository.Interview
	disputes      map[string]*repository.Dispute
	notifications []*repository.Notification
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[string]*repository.User),
		refreshTokens: make(map[string]*repository.RefreshToken),
		projects:      make(map[string]*repository.Project),
		escrows:       make(map[string]*repository.EscrowReservation),
		applications:  make(map[string]*repository.Application),
		interviews:    make(map[string]*repository.Interview),
		disputes:      make(map[string]*repository.Dispute),
	}
}

func copyProject(p *repository.Project) *repository.Project {
	c := *p
	return &c
}

func copyApplication(a *repository.Application) *repository.Application {
	c := *a
	return &c
}

func copyEscrow(e *repository.EscrowReservation) *repository.EscrowReservation {
	c := *e
	return &c
}

// ============================================
// Project repo fake
// ============================================

type fakeProjectRepo struct{ store *fakeStore }

func (r *fakeProjectRepo) CreateFunded(ctx context.Context, project *repository.Project, escrow *repository.EscrowReservation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	project.ID = uuid.NewString()
	project.Version = 1
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt
	r.store.projects[project.ID] = copyProject(project)

	escrow.ID = uuid.NewString()
	escrow.ProjectID = project.ID
	escrow.CreatedAt = project.CreatedAt
	r.store.escrows[project.ID] = copyEscrow(escrow)
	return nil
}

func (r *fakeProjectRepo) FindByID(ctx context.Context, id string) (*repository.Project, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.projects[id]
	if !ok {
		return nil, nil
	}
	return copyProject(p), nil
}

func (r *fakeProjectRepo) FindOpen(ctx context.Context) ([]*repository.Project, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*repository.Project
	for _, p := range r.store.projects {
		if p.Status == types.ProjectOpen && !p.IsSuspended {
			out = append(out, copyProject(p))
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) FindByClientID(ctx context.Context, clientID string) ([]*repository.Project, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*repository.Project
	for _, p := range r.store.projects {
		if p.ClientID == clientID {
			out = append(out, copyProject(p))
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) FindByContributorID(ctx context.Context, contributorID string) ([]*repository.Project, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*repository.Project
	for _, p := range r.store.projects {
		if p.AcceptedContributorID != nil && *p.AcceptedContributorID == contributorID {
			out = append(out, copyProject(p))
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) applyStatus(project *repository.Project, expectedVersion int) error {
	stored, ok := r.store.projects[project.ID]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	stored.Status = project.Status
	stored.AcceptedContributorID = project.AcceptedContributorID
	stored.IsSuspended = project.IsSuspended
	stored.SuspendedAt = project.SuspendedAt
	stored.SuspendedReason = project.SuspendedReason
	stored.Version++
	stored.UpdatedAt = time.Now()
	project.Version = stored.Version
	project.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *fakeProjectRepo) UpdateStatus(ctx context.Context, project *repository.Project, expectedVersion int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.applyStatus(project, expectedVersion)
}

func (r *fakeProjectRepo) UpdateStatusWithEscrow(ctx context.Context, project *repository.Project, expectedVersion int, escrowStatus string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.applyStatus(project, expectedVersion); err != nil {
		return err
	}
	if escrow, ok := r.store.escrows[project.ID]; ok && escrow.Status == types.EscrowReserved {
		escrow.Status = escrowStatus
		now := time.Now()
		escrow.SettledAt = &now
	}
	return nil
}

func (r *fakeProjectRepo) IncrementApplicationsCount(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if p, ok := r.store.projects[id]; ok {
		p.ApplicationsCount++
	}
	return nil
}

// ============================================
// Escrow repo fake
// ============================================

type fakeEscrowRepo struct{ store *fakeStore }

func (r *fakeEscrowRepo) FindByProjectID(ctx context.Context, projectID string) (*repository.EscrowReservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.escrows[projectID]
	if !ok {
		return nil, nil
	}
	return copyEscrow(e), nil
}

func (r *fakeEscrowRepo) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*repository.EscrowReservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.escrows {
		if e.PaymentIntentID == paymentIntentID {
			return copyEscrow(e), nil
		}
	}
	return nil, nil
}

func (r *fakeEscrowRepo) FindReserved(ctx context.Context) ([]*repository.EscrowReservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*repository.EscrowReservation
	for _, e := range r.store.escrows {
		if e.Status == types.EscrowReserved {
			out = append(out, copyEscrow(e))
		}
	}
	return out, nil
}

// setEscrowStatus force-sets ledger state for monotonicity tests.
func (s *fakeStore) setEscrowStatus(projectID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.escrows[projectID]; ok {
		e.Status = status
	}
}

// ============================================
// Application repo fake
// ============================================

type fakeApplicationRepo struct{ store *fakeStore }

func (r *fakeApplicationRepo) Create(ctx context.Context, app *repository.Application) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	app.ID = uuid.NewString()
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt
	r.store.applications[app.ID] = copyApplication(app)
	return nil
}

func (r *fakeApplicationRepo) FindByID(ctx context.Context, id string) (*repository.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.applications[id]
	if !ok {
		return nil, nil
	}
	return copyApplication(a), nil
}

func (r *fakeApplicationRepo) FindByProjectID(ctx context.Context, projectID string) ([]*repository.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*repository.Application
	for _, a := range r.store.applications {
		if a.ProjectID == projectID {
			out = append(out, copyApplication(a))
		}
	}
	return out, nil
}

func (r *fakeApplicationRepo) FindByApplicantID(ctx context.Context, applicantID string) ([]*repository.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*repository.Application
	for _, a := range r.store.applications {
		if a.ApplicantID == applicantID {
			out = append(out, copyApplication(a))
		}
	}
	return out, nil
}

func (r *fakeApplicationRepo) FindLive(ctx context.Context, projectID, applicantID string) (*repository.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.applications {
		if a.ProjectID == projectID && a.ApplicantID == applicantID && a.Status != types.ApplicationWithdrawn {
			return copyApplication(a), nil
		}
	}
	return nil, nil
}

func (r *fakeApplicationRepo) UpdateStatus(ctx context.Context, app *repository.Application) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.applications[app.ID]
	if !ok {
		return nil
	}
	stored.Status = app.Status
	stored.RejectionReason = app.RejectionReason
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *fakeApplicationRepo) AcceptAndRejectSiblings(ctx context.Context, appID, projectID, rejectionReason string) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var rejected []string
	for _, a := range r.store.applications {
		if a.ProjectID != projectID {
			continue
		}
		if a.ID == appID {
			a.Status = types.ApplicationAccepted
			continue
		}
		switch a.Status {
		case types.ApplicationPending, types.ApplicationReviewed, types.ApplicationShortlisted:
			a.Status = types.ApplicationRejected
			reason := rejectionReason
			a.RejectionReason = &reason
			rejected = append(rejected, a.ApplicantID)
		}
	}
	return rejected, nil
}

func (r *fakeApplicationRepo) UpdateMatch(ctx context.Context, id string, score decimal.Decimal, analysis map[string]interface{}) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if a, ok := r.store.applications[id]; ok {
		a.MatchScore = &score
		a.MatchAnalysis = analysis
	}
	return nil
}

// ============================================
// Interview repo fake
// ============================================

type fakeInterviewRepo struct{ store *fakeStore }

func (r *fakeInterviewRepo) Create(ctx context.Context, interview *repository.Interview) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	interview.ID = uuid.NewString()
	interview.CreatedAt = time.Now()
	interview.UpdatedAt = interview.CreatedAt
	c := *interview
	r.store.interviews[interview.ID] = &c
	return nil
}

func (r *fakeInterviewRepo) FindByID(ctx context.Context, id string) (*repository.Interview, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	i, ok := r.store.interviews[id]
	if !ok {
		return nil, nil
	}
	c := *i
	return &c, nil
}

func (r *fakeInterviewRepo) FindByApplicationID(ctx context.Context, applicationID string) ([]*repository.Interview, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*repository.Interview
	for _, i := range r.store.interviews {
		if i.ApplicationID == applicationID {
			c := *i
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeInterviewRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if i, ok := r.store.interviews[id]; ok {
		i.Status = status
		i.UpdatedAt = time.Now()
	}
	return nil
}

func (r *fakeInterviewRepo) FindOpeningWindow(ctx context.Context, from, to time.Time) ([]*repository.Interview, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*repository.Interview
	for _, i := range r.store.interviews {
		if i.Status == types.InterviewScheduled && i.ScheduledAt.After(from) && !i.ScheduledAt.After(to) {
			c := *i
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeInterviewRepo) FindPastWindow(ctx context.Context, cutoff time.Time) ([]*repository.Interview, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*repository.Interview
	for _, i := range r.store.interviews {
		joinEnd := i.ScheduledAt.Add(time.Duration(i.DurationMinutes+15) * time.Minute)
		if i.Status == types.InterviewScheduled && joinEnd.Before(cutoff) {
			c := *i
			out = append(out, &c)
		}
	}
	return out, nil
}

// ============================================
// Dispute repo fake
// ============================================

type fakeDisputeRepo struct{ store *fakeStore }

func (r *fakeDisputeRepo) Create(ctx context.Context, dispute *repository.Dispute) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	dispute.ID = uuid.NewString()
	dispute.CreatedAt = time.Now()
	c := *dispute
	r.store.disputes[dispute.ID] = &c
	return nil
}

func (r *fakeDisputeRepo) FindByID(ctx context.Context, id string) (*repository.Dispute, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	d, ok := r.store.disputes[id]
	if !ok {
		return nil, nil
	}
	c := *d
	return &c, nil
}

func (r *fakeDisputeRepo) FindOpenByProjectID(ctx context.Context, projectID string) (*repository.Dispute, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, d := range r.store.disputes {
		if d.ProjectID == projectID && d.Status == types.DisputeOpen {
			c := *d
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeDisputeRepo) FindByStatus(ctx context.Context, status string) ([]*repository.Dispute, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*repository.Dispute
	for _, d := range r.store.disputes {
		if d.Status == status {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeDisputeRepo) AttachCounterStatement(ctx context.Context, id, statement string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if d, ok := r.store.disputes[id]; ok && d.Status == types.DisputeOpen {
		d.CounterStatement = &statement
	}
	return nil
}

func (r *fakeDisputeRepo) Resolve(ctx context.Context, id, resolution, resolvedBy string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if d, ok := r.store.disputes[id]; ok && d.Status == types.DisputeOpen {
		d.Status = types.DisputeResolved
		d.Resolution = &resolution
		d.ResolvedBy = &resolvedBy
		now := time.Now()
		d.ResolvedAt = &now
	}
	return nil
}

// ============================================
// User repo fake
// ============================================

type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *repository.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	c := *user
	r.store.users[user.ID] = &c
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByRole(ctx context.Context, role string) ([]*repository.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*repository.User
	for _, u := range r.store.users {
		if u.Role == role {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *repository.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *user
	r.store.users[user.ID] = &c
	return nil
}

func (r *fakeUserRepo) SaveRefreshToken(ctx context.Context, token *repository.RefreshToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *token
	r.store.refreshTokens[token.Token] = &c
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.refreshTokens[token]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.refreshTokens, token)
	return nil
}

// ============================================
// Notification repo fake
// ============================================

type fakeNotificationRepo struct{ store *fakeStore }

func (r *fakeNotificationRepo) Create(ctx context.Context, n *repository.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()
	c := *n
	r.store.notifications = append(r.store.notifications, &c)
	return nil
}

func (r *fakeNotificationRepo) FindByUserID(ctx context.Context, userID string, unreadOnly bool) ([]*repository.Notification, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*repository.Notification
	for _, n := range r.store.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountByUserID(ctx context.Context, userID string) (int, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	total, unread := 0, 0
	for _, n := range r.store.notifications {
		if n.UserID != userID {
			continue
		}
		total++
		if !n.Read {
			unread++
		}
	}
	return total, unread, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, n := range r.store.notifications {
		if n.ID == id {
			n.Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, n := range r.store.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteOlderThan(ctx context.Context, olderThan time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.notifications[:0]
	deleted := 0
	for _, n := range r.store.notifications {
		if n.CreatedAt.Before(olderThan) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	r.store.notifications = kept
	return deleted, nil
}

// ============================================
// Test wiring
// ============================================

type testEnv struct {
	store    *fakeStore
	gateway  *payment.DevGateway
	services *Services
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:                "test-secret",
		JWTExpiry:                1,
		RefreshExpiry:            1,
		AdminReviewThreshold:     "50000",
		ClientJoinLeadMinutes:    15,
		ApplicantJoinLeadMinutes: 10,
	}
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	repos := &repository.Repositories{
		UserRepo:         &fakeUserRepo{store: store},
		ProjectRepo:      &fakeProjectRepo{store: store},
		ApplicationRepo:  &fakeApplicationRepo{store: store},
		EscrowRepo:       &fakeEscrowRepo{store: store},
		NotificationRepo: &fakeNotificationRepo{store: store},
		InterviewRepo:    &fakeInterviewRepo{store: store},
		DisputeRepo:      &fakeDisputeRepo{store: store},
	}

	hub := socket.NewHub()
	go hub.Run()
	broadcaster := socket.NewBroadcaster(hub)

	notifSvc := notification.NewService(repos.NotificationRepo)
	notifSvc.SetBroadcaster(broadcaster)

	gateway := payment.NewDevGateway()

	services := NewServices(&ServiceDeps{
		Config:      testConfig(),
		Repos:       repos,
		Gateway:     gateway,
		Scorer:      matchscore.NewKeywordScorer(),
		NotifSvc:    notifSvc,
		Broadcaster: broadcaster,
	})

	return &testEnv{store: store, gateway: gateway, services: services}
}

func (e *testEnv) addUser(role string) *repository.User {
	user := &repository.User{
		Email:    uuid.NewString() + "@example.com",
		Password: "hashed",
		Name:     "Test User",
		Role:     role,
	}
	e.store.mu.Lock()
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	c := *user
	e.store.users[user.ID] = &c
	e.store.mu.Unlock()
	return user
}

// fundProject shortcuts a client's PostAndFund through the real service path.
func (e *testEnv) fundProject(clientID string, budget int64) *repository.Project {
	ctx := context.Background()
	input := CreateProjectInput{
		Title:       "Test project",
		Description: "A project used by the tests",
		Category:    "backend",
		Tags:        []string{"go", "postgres"},
		Budget:      decimal.NewFromInt(budget),
		Duration:    "4 weeks",
	}
	intent, err := e.services.Project.CreateIntent(ctx, clientID, input)
	if err != nil {
		panic(err)
	}
	project, err := e.services.Project.PostAndFund(ctx, clientID, intent.ID, input)
	if err != nil {
		panic(err)
	}
	return project
}
