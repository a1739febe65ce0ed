package service

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
	"github.com/skillbridge/skillbridge-backend/internal/payment"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/types"
)

// ============================================
// Escrow Ledger
// ============================================

// EscrowService is the only component allowed to decide money state. A
// reservation moves reserved → released or reserved → refunded exactly once;
// retrying the transition it already took is a no-op, crossing to the other
// terminal is ErrIllegalLedgerTransition.
type EscrowService interface {
	// Reserve confirms the gateway capture and builds the reservation row.
	// The caller must not create a project unless Reserve succeeds, and must
	// persist the reservation in the same transaction as the project insert.
	Reserve(ctx context.Context, paymentIntentID string, amount decimal.Decimal) (*repository.EscrowReservation, error)
	// PlanRelease returns the escrow status to commit alongside a project
	// status write, or nil when the ledger is already released (idempotent).
	PlanRelease(ctx context.Context, projectID string) (*string, error)
	// PlanRefund mirrors PlanRelease for the refund terminal.
	PlanRefund(ctx context.Context, projectID string) (*string, error)
	// PlanRefundIfReserved is the cancellation/suspension variant: no-op when
	// no reservation exists or it was already refunded.
	PlanRefundIfReserved(ctx context.Context, projectID string) (*string, error)
	GetByProjectID(ctx context.Context, projectID string) (*repository.EscrowReservation, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*repository.EscrowReservation, error)
}

type escrowService struct {
	escrowRepo repository.EscrowRepository
	gateway    payment.Gateway
}

func NewEscrowService(escrowRepo repository.EscrowRepository, gateway payment.Gateway) EscrowService {
	return &escrowService{escrowRepo: escrowRepo, gateway: gateway}
}

func (s *escrowService) Reserve(ctx context.Context, paymentIntentID string, amount decimal.Decimal) (*repository.EscrowReservation, error) {
	if amount.IsNegative() {
		return nil, ErrValidation
	}

	settled, err := s.gateway.ConfirmIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if !settled {
		log.Printf("[Escrow] ❌ Capture not settled: intent=%s amount=%s", paymentIntentID, amount)
		return nil, ErrInsufficientAuthorization
	}

	log.Printf("[Escrow] 💰 Reserved: intent=%s amount=%s", paymentIntentID, amount)
	return &repository.EscrowReservation{
		PaymentIntentID: paymentIntentID,
		Amount:          amount,
		Status:          types.EscrowReserved,
	}, nil
}

func (s *escrowService) PlanRelease(ctx context.Context, projectID string) (*string, error) {
	return s.plan(ctx, projectID, types.EscrowReleased, types.EscrowRefunded)
}

func (s *escrowService) PlanRefund(ctx context.Context, projectID string) (*string, error) {
	return s.plan(ctx, projectID, types.EscrowRefunded, types.EscrowReleased)
}

// plan validates terminal-state monotonicity for one reservation.
func (s *escrowService) plan(ctx context.Context, projectID, target, opposite string) (*string, error) {
	reservation, err := s.escrowRepo.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrNotFound
	}

	switch reservation.Status {
	case types.EscrowReserved:
		return &target, nil
	case target:
		// Funds already moved where we want them; retry is a no-op.
		return nil, nil
	case opposite:
		log.Printf("[Escrow] 🚨 AUDIT illegal ledger transition: project=%s reservation=%s intent=%s amount=%s current=%s attempted=%s",
			projectID, reservation.ID, reservation.PaymentIntentID, reservation.Amount, reservation.Status, target)
		return nil, ErrIllegalLedgerTransition
	}
	log.Printf("[Escrow] 🚨 AUDIT unknown ledger state: project=%s status=%s", projectID, reservation.Status)
	return nil, ErrIllegalLedgerTransition
}

func (s *escrowService) PlanRefundIfReserved(ctx context.Context, projectID string) (*string, error) {
	reservation, err := s.escrowRepo.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if reservation == nil || reservation.Status == types.EscrowRefunded {
		return nil, nil
	}
	if reservation.Status == types.EscrowReleased {
		log.Printf("[Escrow] 🚨 AUDIT refund attempted on released reservation: project=%s reservation=%s amount=%s",
			projectID, reservation.ID, reservation.Amount)
		return nil, ErrIllegalLedgerTransition
	}
	refunded := types.EscrowRefunded
	return &refunded, nil
}

func (s *escrowService) GetByProjectID(ctx context.Context, projectID string) (*repository.EscrowReservation, error) {
	reservation, err := s.escrowRepo.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrNotFound
	}
	return reservation, nil
}

func (s *escrowService) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*repository.EscrowReservation, error) {
	return s.escrowRepo.FindByPaymentIntentID(ctx, paymentIntentID)
}
