package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevGatewayConfirm(t *testing.T) {
	g := NewDevGateway()
	ctx := context.Background()

	intent, err := g.CreateIntent(ctx, decimal.NewFromInt(1200), "project_escrow", map[string]string{"clientId": "c1"})
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ID)
	assert.False(t, intent.Settled)

	settled, err := g.ConfirmIntent(ctx, intent.ID)
	require.NoError(t, err)
	assert.True(t, settled)

	// Confirming twice is safe.
	settled, err = g.ConfirmIntent(ctx, intent.ID)
	require.NoError(t, err)
	assert.True(t, settled)
}

func TestDevGatewayUnknownIntent(t *testing.T) {
	g := NewDevGateway()

	_, err := g.ConfirmIntent(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, ErrIntentNotFound)
}

func TestDevGatewayRejectsNegativeAmount(t *testing.T) {
	g := NewDevGateway()

	_, err := g.CreateIntent(context.Background(), decimal.NewFromInt(-1), "project_escrow", nil)
	assert.Error(t, err)
}

func TestDevGatewayFailConfirm(t *testing.T) {
	g := NewDevGateway()
	ctx := context.Background()

	intent, err := g.CreateIntent(ctx, decimal.NewFromInt(300), "project_escrow", nil)
	require.NoError(t, err)

	g.FailConfirm = true
	settled, err := g.ConfirmIntent(ctx, intent.ID)
	require.NoError(t, err)
	assert.False(t, settled)
}

func TestIntentStatus(t *testing.T) {
	g := NewDevGateway()
	ctx := context.Background()

	intent, err := g.CreateIntent(ctx, decimal.NewFromInt(300), "project_escrow", nil)
	require.NoError(t, err)
	assert.Equal(t, "requires_confirmation", intent.Status())

	_, err = g.ConfirmIntent(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", intent.Status())
}
