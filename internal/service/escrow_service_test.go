package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/skillbridge/skillbridge-backend/internal/types"
)

func TestReserveConfirmsCapture(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	intent, err := env.gateway.CreateIntent(ctx, decimal.NewFromInt(1000), "project_escrow", nil)
	require.NoError(t, err)

	escrow, err := env.services.Escrow.Reserve(ctx, intent.ID, decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.Equal(t, types.EscrowReserved, escrow.Status)
	assert.Equal(t, intent.ID, escrow.PaymentIntentID)
	assert.True(t, escrow.Amount.Equal(decimal.NewFromInt(1000)))
}

func TestReserveUnsettledCapture(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	intent, err := env.gateway.CreateIntent(ctx, decimal.NewFromInt(1000), "project_escrow", nil)
	require.NoError(t, err)

	env.gateway.FailConfirm = true
	_, err = env.services.Escrow.Reserve(ctx, intent.ID, decimal.NewFromInt(1000))
	assert.ErrorIs(t, err, ErrInsufficientAuthorization)
}

func TestReserveNegativeAmount(t *testing.T) {
	env := newTestEnv()

	_, err := env.services.Escrow.Reserve(context.Background(), "pi_whatever", decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPlanReleaseFromReserved(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	project := env.fundProject(client.ID, 1000)

	status, err := env.services.Escrow.PlanRelease(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, types.EscrowReleased, *status)
}

func TestPlanReleaseIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	project := env.fundProject(client.ID, 1000)
	env.store.setEscrowStatus(project.ID, types.EscrowReleased)

	status, err := env.services.Escrow.PlanRelease(ctx, project.ID)
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestPlanReleaseAfterRefundIsIllegal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	project := env.fundProject(client.ID, 1000)
	env.store.setEscrowStatus(project.ID, types.EscrowRefunded)

	_, err := env.services.Escrow.PlanRelease(ctx, project.ID)
	assert.ErrorIs(t, err, ErrIllegalLedgerTransition)
}

func TestPlanRefundAfterReleaseIsIllegal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	project := env.fundProject(client.ID, 1000)
	env.store.setEscrowStatus(project.ID, types.EscrowReleased)

	_, err := env.services.Escrow.PlanRefund(ctx, project.ID)
	assert.ErrorIs(t, err, ErrIllegalLedgerTransition)
}

func TestPlanReleaseMissingReservation(t *testing.T) {
	env := newTestEnv()

	_, err := env.services.Escrow.PlanRelease(context.Background(), "no-such-project")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlanRefundIfReserved(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)

	t.Run("reserved plans a refund", func(t *testing.T) {
		project := env.fundProject(client.ID, 1000)
		status, err := env.services.Escrow.PlanRefundIfReserved(ctx, project.ID)
		require.NoError(t, err)
		require.NotNil(t, status)
		assert.Equal(t, types.EscrowRefunded, *status)
	})

	t.Run("missing reservation is a no-op", func(t *testing.T) {
		status, err := env.services.Escrow.PlanRefundIfReserved(ctx, "no-such-project")
		require.NoError(t, err)
		assert.Nil(t, status)
	})

	t.Run("already refunded is a no-op", func(t *testing.T) {
		project := env.fundProject(client.ID, 1000)
		env.store.setEscrowStatus(project.ID, types.EscrowRefunded)
		status, err := env.services.Escrow.PlanRefundIfReserved(ctx, project.ID)
		require.NoError(t, err)
		assert.Nil(t, status)
	})

	t.Run("released funds cannot be clawed back", func(t *testing.T) {
		project := env.fundProject(client.ID, 1000)
		env.store.setEscrowStatus(project.ID, types.EscrowReleased)
		_, err := env.services.Escrow.PlanRefundIfReserved(ctx, project.ID)
		assert.ErrorIs(t, err, ErrIllegalLedgerTransition)
	})
}

func TestGetByProjectID(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	project := env.fundProject(client.ID, 750)

	escrow, err := env.services.Escrow.GetByProjectID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, escrow.ProjectID)
	assert.True(t, escrow.Amount.Equal(decimal.NewFromInt(750)))

	_, err = env.services.Escrow.GetByProjectID(ctx, "no-such-project")
	assert.ErrorIs(t, err, ErrNotFound)
}
