package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Application struct {
	ID               string
	ProjectID        string
	ApplicantID      string
	CoverLetter      string
	ProposedBudget   decimal.Decimal
	ProposedDuration string
	Status           string
	RejectionReason  *string
	MatchScore       *decimal.Decimal
	MatchAnalysis    map[string]interface{}
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *Application) error
	FindByID(ctx context.Context, id string) (*Application, error)
	FindByProjectID(ctx context.Context, projectID string) ([]*Application, error)
	FindByApplicantID(ctx context.Context, applicantID string) ([]*Application, error)
	// FindLive returns the applicant's non-withdrawn application for a project.
	FindLive(ctx context.Context, projectID, applicantID string) (*Application, error)
	UpdateStatus(ctx context.Context, app *Application) error
	// AcceptAndRejectSiblings marks one application accepted and bulk-rejects
	// every pending/reviewed/shortlisted sibling in the same transaction.
	// Returns the applicant IDs of the rejected siblings.
	AcceptAndRejectSiblings(ctx context.Context, appID, projectID, rejectionReason string) ([]string, error)
	UpdateMatch(ctx context.Context, id string, score decimal.Decimal, analysis map[string]interface{}) error
}

type pgApplicationRepository struct {
	pool *pgxpool.Pool
}

func NewApplicationRepository(pool *pgxpool.Pool) ApplicationRepository {
	return &pgApplicationRepository{pool: pool}
}

const applicationColumns = `
	id, project_id, applicant_id, cover_letter, proposed_budget, proposed_duration,
	status, rejection_reason, match_score, match_analysis, created_at, updated_at`

func scanApplication(row pgx.Row) (*Application, error) {
	a := &Application{}
	var analysisJSON []byte
	err := row.Scan(
		&a.ID, &a.ProjectID, &a.ApplicantID, &a.CoverLetter, &a.ProposedBudget,
		&a.ProposedDuration, &a.Status, &a.RejectionReason, &a.MatchScore,
		&analysisJSON, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(analysisJSON) > 0 {
		json.Unmarshal(analysisJSON, &a.MatchAnalysis)
	}
	return a, nil
}

func (r *pgApplicationRepository) Create(ctx context.Context, app *Application) error {
	query := `
		INSERT INTO applications (project_id, applicant_id, cover_letter, proposed_budget, proposed_duration, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		app.ProjectID, app.ApplicantID, app.CoverLetter, app.ProposedBudget,
		app.ProposedDuration, app.Status,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
}

func (r *pgApplicationRepository) FindByID(ctx context.Context, id string) (*Application, error) {
	query := `SELECT` + applicationColumns + ` FROM applications WHERE id = $1`
	return scanApplication(r.pool.QueryRow(ctx, query, id))
}

func (r *pgApplicationRepository) FindByProjectID(ctx context.Context, projectID string) ([]*Application, error) {
	query := `SELECT` + applicationColumns + ` FROM applications WHERE project_id = $1 ORDER BY created_at`
	return r.queryApplications(ctx, query, projectID)
}

func (r *pgApplicationRepository) FindByApplicantID(ctx context.Context, applicantID string) ([]*Application, error) {
	query := `SELECT` + applicationColumns + ` FROM applications WHERE applicant_id = $1 ORDER BY created_at DESC`
	return r.queryApplications(ctx, query, applicantID)
}

func (r *pgApplicationRepository) FindLive(ctx context.Context, projectID, applicantID string) (*Application, error) {
	query := `
		SELECT` + applicationColumns + `
		FROM applications
		WHERE project_id = $1 AND applicant_id = $2 AND status <> 'withdrawn'
		LIMIT 1
	`
	return scanApplication(r.pool.QueryRow(ctx, query, projectID, applicantID))
}

func (r *pgApplicationRepository) queryApplications(ctx context.Context, query string, args ...interface{}) ([]*Application, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []*Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, nil
}

func (r *pgApplicationRepository) UpdateStatus(ctx context.Context, app *Application) error {
	query := `
		UPDATE applications
		SET status = $2, rejection_reason = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query, app.ID, app.Status, app.RejectionReason).
		Scan(&app.UpdatedAt)
}

func (r *pgApplicationRepository) AcceptAndRejectSiblings(ctx context.Context, appID, projectID, rejectionReason string) ([]string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accept := `
		UPDATE applications SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND project_id = $2
	`
	if _, err := tx.Exec(ctx, accept, appID, projectID); err != nil {
		return nil, err
	}

	reject := `
		UPDATE applications
		SET status = 'rejected', rejection_reason = $3, updated_at = NOW()
		WHERE project_id = $1 AND id <> $2
		  AND status IN ('pending', 'reviewed', 'shortlisted')
		RETURNING applicant_id
	`
	rows, err := tx.Query(ctx, reject, projectID, appID, rejectionReason)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rejected []string
	for rows.Next() {
		var applicantID string
		if err := rows.Scan(&applicantID); err != nil {
			return nil, err
		}
		rejected = append(rejected, applicantID)
	}
	rows.Close()

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rejected, nil
}

func (r *pgApplicationRepository) UpdateMatch(ctx context.Context, id string, score decimal.Decimal, analysis map[string]interface{}) error {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	query := `
		UPDATE applications SET match_score = $2, match_analysis = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err = r.pool.Exec(ctx, query, id, score, analysisJSON)
	return err
}
