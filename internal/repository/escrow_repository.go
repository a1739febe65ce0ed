package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type EscrowReservation struct {
	ID              string
	ProjectID       string
	PaymentIntentID string
	Amount          decimal.Decimal
	Status          string
	CreatedAt       time.Time
	SettledAt       *time.Time
}

// EscrowRepository is read-mostly: reservations are created inside
// ProjectRepository.CreateFunded and settled inside UpdateStatusWithEscrow, so
// that money state and project status always commit together.
type EscrowRepository interface {
	FindByProjectID(ctx context.Context, projectID string) (*EscrowReservation, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*EscrowReservation, error)
	FindReserved(ctx context.Context) ([]*EscrowReservation, error)
}

type pgEscrowRepository struct {
	pool *pgxpool.Pool
}

func NewEscrowRepository(pool *pgxpool.Pool) EscrowRepository {
	return &pgEscrowRepository{pool: pool}
}

const escrowColumns = `id, project_id, payment_intent_id, amount, status, created_at, settled_at`

func scanEscrow(row pgx.Row) (*EscrowReservation, error) {
	e := &EscrowReservation{}
	err := row.Scan(&e.ID, &e.ProjectID, &e.PaymentIntentID, &e.Amount, &e.Status, &e.CreatedAt, &e.SettledAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *pgEscrowRepository) FindByProjectID(ctx context.Context, projectID string) (*EscrowReservation, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_reservations WHERE project_id = $1`
	return scanEscrow(r.pool.QueryRow(ctx, query, projectID))
}

func (r *pgEscrowRepository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*EscrowReservation, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_reservations WHERE payment_intent_id = $1`
	return scanEscrow(r.pool.QueryRow(ctx, query, paymentIntentID))
}

func (r *pgEscrowRepository) FindReserved(ctx context.Context) ([]*EscrowReservation, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_reservations WHERE status = 'reserved' ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*EscrowReservation
	for rows.Next() {
		e, err := scanEscrow(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, e)
	}
	return reservations, nil
}
