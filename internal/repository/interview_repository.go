package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

type Interview struct {
	ID              string     `db:"id"`
	ApplicationID   string     `db:"application_id"`
	ScheduledAt     time.Time  `db:"scheduled_at"`
	DurationMinutes int        `db:"duration_minutes"`
	Status          string     `db:"status"`
	MeetingLink     *string    `db:"meeting_link"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

type InterviewRepository interface {
	Create(ctx context.Context, interview *Interview) error
	FindByID(ctx context.Context, id string) (*Interview, error)
	FindByApplicationID(ctx context.Context, applicationID string) ([]*Interview, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// FindPastWindow returns scheduled interviews whose join window closed
	// before the cutoff. Used by the cron sweep.
	FindPastWindow(ctx context.Context, cutoff time.Time) ([]*Interview, error)
	// FindOpeningWindow returns scheduled interviews starting in (from, to].
	FindOpeningWindow(ctx context.Context, from, to time.Time) ([]*Interview, error)
}

type sqlxInterviewRepository struct {
	db *sqlx.DB
}

func NewInterviewRepository(db *sqlx.DB) InterviewRepository {
	return &sqlxInterviewRepository{db: db}
}

func (r *sqlxInterviewRepository) Create(ctx context.Context, interview *Interview) error {
	query := `
		INSERT INTO interviews (application_id, scheduled_at, duration_minutes, status, meeting_link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query,
		interview.ApplicationID, interview.ScheduledAt, interview.DurationMinutes,
		interview.Status, interview.MeetingLink,
	).Scan(&interview.ID, &interview.CreatedAt, &interview.UpdatedAt)
}

func (r *sqlxInterviewRepository) FindByID(ctx context.Context, id string) (*Interview, error) {
	interview := &Interview{}
	err := r.db.GetContext(ctx, interview, `SELECT * FROM interviews WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return interview, nil
}

func (r *sqlxInterviewRepository) FindByApplicationID(ctx context.Context, applicationID string) ([]*Interview, error) {
	var interviews []*Interview
	err := r.db.SelectContext(ctx, &interviews,
		`SELECT * FROM interviews WHERE application_id = $1 ORDER BY scheduled_at`, applicationID)
	if err != nil {
		return nil, err
	}
	return interviews, nil
}

func (r *sqlxInterviewRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE interviews SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *sqlxInterviewRepository) FindPastWindow(ctx context.Context, cutoff time.Time) ([]*Interview, error) {
	// joinEnd = scheduled_at + duration + 15min tail
	query := `
		SELECT * FROM interviews
		WHERE status = 'scheduled'
		  AND scheduled_at + (duration_minutes + 15) * INTERVAL '1 minute' < $1
	`
	var interviews []*Interview
	err := r.db.SelectContext(ctx, &interviews, query, cutoff)
	if err != nil {
		return nil, err
	}
	return interviews, nil
}

func (r *sqlxInterviewRepository) FindOpeningWindow(ctx context.Context, from, to time.Time) ([]*Interview, error) {
	query := `
		SELECT * FROM interviews
		WHERE status = 'scheduled'
		  AND scheduled_at > $1 AND scheduled_at <= $2
	`
	var interviews []*Interview
	err := r.db.SelectContext(ctx, &interviews, query, from, to)
	if err != nil {
		return nil, err
	}
	return interviews, nil
}
