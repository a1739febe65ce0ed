package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrIntentNotFound = errors.New("payment intent not found")

// Intent is the gateway-side record of an authorization. The escrow service
// only trusts Settled=true, reported by ConfirmIntent.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       decimal.Decimal
	Purpose      string
	Metadata     map[string]string
	Settled      bool
}

// Status reports the intent lifecycle the way processor APIs phrase it.
func (i *Intent) Status() string {
	if i.Settled {
		return "succeeded"
	}
	return "requires_confirmation"
}

// Gateway is the payment collaborator. The wire protocol behind it is out of
// scope here; implementations adapt a real processor.
type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, purpose string, metadata map[string]string) (*Intent, error)
	// ConfirmIntent reports whether the capture settled. Safe to call more
	// than once for the same intent.
	ConfirmIntent(ctx context.Context, paymentIntentID string) (bool, error)
}

// DevGateway is an in-memory gateway for local development and tests. Every
// intent settles on first confirmation.
type DevGateway struct {
	mu      sync.Mutex
	intents map[string]*Intent

	// FailConfirm forces ConfirmIntent to report an unsettled capture,
	// used to exercise the insufficient-authorization path.
	FailConfirm bool
}

func NewDevGateway() *DevGateway {
	return &DevGateway{intents: make(map[string]*Intent)}
}

func (g *DevGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, purpose string, metadata map[string]string) (*Intent, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("invalid intent amount %s", amount)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	intent := &Intent{
		ID:           "pi_" + uuid.NewString(),
		ClientSecret: "secret_" + uuid.NewString(),
		Amount:       amount,
		Purpose:      purpose,
		Metadata:     metadata,
	}
	g.intents[intent.ID] = intent
	return intent, nil
}

func (g *DevGateway) ConfirmIntent(ctx context.Context, paymentIntentID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[paymentIntentID]
	if !ok {
		return false, ErrIntentNotFound
	}
	if g.FailConfirm {
		return false, nil
	}
	intent.Settled = true
	return true, nil
}
