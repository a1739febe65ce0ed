package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Project struct {
	ID                    string
	ClientID              string
	Title                 string
	Description           string
	Category              string
	Tags                  []string
	Budget                decimal.Decimal
	Duration              string
	Deadline              *time.Time
	Status                string
	PaymentID             *string
	AcceptedContributorID *string
	ApplicationsCount     int
	IsSuspended           bool
	SuspendedAt           *time.Time
	SuspendedReason       *string
	Version               int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type ProjectRepository interface {
	// CreateFunded inserts the project and its escrow reservation in one
	// transaction. No project row exists without funded escrow.
	CreateFunded(ctx context.Context, project *Project, escrow *EscrowReservation) error
	FindByID(ctx context.Context, id string) (*Project, error)
	FindOpen(ctx context.Context) ([]*Project, error)
	FindByClientID(ctx context.Context, clientID string) ([]*Project, error)
	FindByContributorID(ctx context.Context, contributorID string) ([]*Project, error)
	// UpdateStatus commits the workflow fields guarded by the optimistic
	// version. Returns ErrVersionConflict on a stale read.
	UpdateStatus(ctx context.Context, project *Project, expectedVersion int) error
	// UpdateStatusWithEscrow additionally moves the escrow reservation to
	// escrowStatus inside the same transaction as the status write.
	UpdateStatusWithEscrow(ctx context.Context, project *Project, expectedVersion int, escrowStatus string) error
	IncrementApplicationsCount(ctx context.Context, id string) error
}

type pgProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &pgProjectRepository{pool: pool}
}

const projectColumns = `
	id, client_id, title, description, category, tags, budget, duration, deadline,
	status, payment_id, accepted_contributor_id, applications_count,
	is_suspended, suspended_at, suspended_reason, version, created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	p := &Project{}
	err := row.Scan(
		&p.ID, &p.ClientID, &p.Title, &p.Description, &p.Category, &p.Tags,
		&p.Budget, &p.Duration, &p.Deadline, &p.Status, &p.PaymentID,
		&p.AcceptedContributorID, &p.ApplicationsCount,
		&p.IsSuspended, &p.SuspendedAt, &p.SuspendedReason,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProjectRepository) CreateFunded(ctx context.Context, project *Project, escrow *EscrowReservation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO projects (client_id, title, description, category, tags, budget, duration, deadline, status, payment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, applications_count, version, created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		project.ClientID, project.Title, project.Description, project.Category,
		project.Tags, project.Budget, project.Duration, project.Deadline,
		project.Status, project.PaymentID,
	).Scan(&project.ID, &project.ApplicationsCount, &project.Version, &project.CreatedAt, &project.UpdatedAt); err != nil {
		return err
	}

	escrow.ProjectID = project.ID
	escrowQuery := `
		INSERT INTO escrow_reservations (project_id, payment_intent_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := tx.QueryRow(ctx, escrowQuery,
		escrow.ProjectID, escrow.PaymentIntentID, escrow.Amount, escrow.Status,
	).Scan(&escrow.ID, &escrow.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgProjectRepository) FindByID(ctx context.Context, id string) (*Project, error) {
	query := `SELECT` + projectColumns + ` FROM projects WHERE id = $1`
	return scanProject(r.pool.QueryRow(ctx, query, id))
}

func (r *pgProjectRepository) FindOpen(ctx context.Context) ([]*Project, error) {
	query := `SELECT` + projectColumns + ` FROM projects WHERE status = 'open' AND is_suspended = FALSE ORDER BY created_at DESC`
	return r.queryProjects(ctx, query)
}

func (r *pgProjectRepository) FindByClientID(ctx context.Context, clientID string) ([]*Project, error) {
	query := `SELECT` + projectColumns + ` FROM projects WHERE client_id = $1 ORDER BY created_at DESC`
	return r.queryProjects(ctx, query, clientID)
}

func (r *pgProjectRepository) FindByContributorID(ctx context.Context, contributorID string) ([]*Project, error) {
	query := `SELECT` + projectColumns + ` FROM projects WHERE accepted_contributor_id = $1 ORDER BY created_at DESC`
	return r.queryProjects(ctx, query, contributorID)
}

func (r *pgProjectRepository) queryProjects(ctx context.Context, query string, args ...interface{}) ([]*Project, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

const updateStatusQuery = `
	UPDATE projects
	SET status = $3, accepted_contributor_id = $4, is_suspended = $5,
	    suspended_at = $6, suspended_reason = $7,
	    version = version + 1, updated_at = NOW()
	WHERE id = $1 AND version = $2
	RETURNING version, updated_at
`

func (r *pgProjectRepository) UpdateStatus(ctx context.Context, project *Project, expectedVersion int) error {
	err := r.pool.QueryRow(ctx, updateStatusQuery,
		project.ID, expectedVersion, project.Status, project.AcceptedContributorID,
		project.IsSuspended, project.SuspendedAt, project.SuspendedReason,
	).Scan(&project.Version, &project.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrVersionConflict
	}
	return err
}

func (r *pgProjectRepository) UpdateStatusWithEscrow(ctx context.Context, project *Project, expectedVersion int, escrowStatus string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, updateStatusQuery,
		project.ID, expectedVersion, project.Status, project.AcceptedContributorID,
		project.IsSuspended, project.SuspendedAt, project.SuspendedReason,
	).Scan(&project.Version, &project.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}

	escrowQuery := `
		UPDATE escrow_reservations
		SET status = $2, settled_at = NOW()
		WHERE project_id = $1 AND status = 'reserved'
	`
	if _, err := tx.Exec(ctx, escrowQuery, project.ID, escrowStatus); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgProjectRepository) IncrementApplicationsCount(ctx context.Context, id string) error {
	query := `UPDATE projects SET applications_count = applications_count + 1 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
