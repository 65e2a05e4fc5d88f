package payment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inauto/garage-booking/internal/logging"
)

// SimulatedGateway stands in for the mobile-money processors during
// development and demos. It sleeps for a configurable round-trip and settles
// with a configurable success rate. It must never be the card path in
// production.
type SimulatedGateway struct {
	successRate float64
	roundTrip   time.Duration
	logger      *logging.Logger

	mu       sync.Mutex
	rng      *rand.Rand
	statuses map[string]GatewayStatus
}

// NewSimulatedGateway creates a simulator. A fixed seed makes outcomes
// reproducible in tests.
func NewSimulatedGateway(successRate float64, roundTrip time.Duration, seed int64, logger *logging.Logger) *SimulatedGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &SimulatedGateway{
		successRate: successRate,
		roundTrip:   roundTrip,
		logger:      logger,
		rng:         rand.New(rand.NewSource(seed)),
		statuses:    make(map[string]GatewayStatus),
	}
}

func (g *SimulatedGateway) Initiate(ctx context.Context, params InitiateParams) (*GatewayResult, error) {
	if params.AmountCents <= 0 {
		return nil, fmt.Errorf("simulated gateway: amount must be positive, got %d", params.AmountCents)
	}
	if params.Method.MobileMoney() && params.PhoneNumber == "" {
		return nil, fmt.Errorf("simulated gateway: %s requires a phone number", params.Method)
	}

	if g.roundTrip > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.roundTrip):
		}
	}

	transactionID := "sim_" + uuid.NewString()

	g.mu.Lock()
	status := GatewayFailed
	if g.rng.Float64() < g.successRate {
		status = GatewaySucceeded
	}
	g.statuses[transactionID] = status
	g.mu.Unlock()

	g.logger.Debug("simulated gateway settled",
		"transaction_id", transactionID, "method", params.Method, "status", status)

	return &GatewayResult{TransactionID: transactionID, Status: status}, nil
}

func (g *SimulatedGateway) CheckStatus(ctx context.Context, transactionID string) (GatewayStatus, error) {
	_ = ctx

	g.mu.Lock()
	status, ok := g.statuses[transactionID]
	g.mu.Unlock()

	if !ok {
		return "", ErrUnknownTransaction
	}
	return status, nil
}
