package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

type Dispute struct {
	ID               string     `db:"id"`
	ProjectID        string     `db:"project_id"`
	OpenedBy         string     `db:"opened_by"`
	Reason           string     `db:"reason"`
	CounterStatement *string    `db:"counter_statement"`
	Status           string     `db:"status"`
	Resolution       *string    `db:"resolution"`
	ResolvedBy       *string    `db:"resolved_by"`
	CreatedAt        time.Time  `db:"created_at"`
	ResolvedAt       *time.Time `db:"resolved_at"`
}

type DisputeRepository interface {
	Create(ctx context.Context, dispute *Dispute) error
	FindByID(ctx context.Context, id string) (*Dispute, error)
	FindOpenByProjectID(ctx context.Context, projectID string) (*Dispute, error)
	FindByStatus(ctx context.Context, status string) ([]*Dispute, error)
	AttachCounterStatement(ctx context.Context, id, statement string) error
	Resolve(ctx context.Context, id, resolution, resolvedBy string) error
}

type sqlxDisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) DisputeRepository {
	return &sqlxDisputeRepository{db: db}
}

func (r *sqlxDisputeRepository) Create(ctx context.Context, dispute *Dispute) error {
	query := `
		INSERT INTO disputes (project_id, opened_by, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.db.QueryRowxContext(ctx, query,
		dispute.ProjectID, dispute.OpenedBy, dispute.Reason, dispute.Status,
	).Scan(&dispute.ID, &dispute.CreatedAt)
}

func (r *sqlxDisputeRepository) FindByID(ctx context.Context, id string) (*Dispute, error) {
	dispute := &Dispute{}
	err := r.db.GetContext(ctx, dispute, `SELECT * FROM disputes WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

func (r *sqlxDisputeRepository) FindOpenByProjectID(ctx context.Context, projectID string) (*Dispute, error) {
	dispute := &Dispute{}
	err := r.db.GetContext(ctx, dispute,
		`SELECT * FROM disputes WHERE project_id = $1 AND status = 'open' ORDER BY created_at DESC LIMIT 1`, projectID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

func (r *sqlxDisputeRepository) FindByStatus(ctx context.Context, status string) ([]*Dispute, error) {
	var disputes []*Dispute
	err := r.db.SelectContext(ctx, &disputes,
		`SELECT * FROM disputes WHERE status = $1 ORDER BY created_at`, status)
	if err != nil {
		return nil, err
	}
	return disputes, nil
}

func (r *sqlxDisputeRepository) AttachCounterStatement(ctx context.Context, id, statement string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE disputes SET counter_statement = $2 WHERE id = $1 AND status = 'open'`, id, statement)
	return err
}

func (r *sqlxDisputeRepository) Resolve(ctx context.Context, id, resolution, resolvedBy string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE disputes
		SET status = 'resolved', resolution = $2, resolved_by = $3, resolved_at = NOW()
		WHERE id = $1 AND status = 'open'
	`, id, resolution, resolvedBy)
	return err
}
