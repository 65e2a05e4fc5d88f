package payment

import (
	"context"
	"strings"
)

type GatewayStatus string

const (
	GatewayPending   GatewayStatus = "pending"
	GatewaySucceeded GatewayStatus = "succeeded"
	GatewayFailed    GatewayStatus = "failed"
)

// InitiateParams is the gateway-side view of a checkout. Exactly one of
// PhoneNumber (mobile money) or CardToken (card) is expected depending on
// the method.
type InitiateParams struct {
	AmountCents    int64
	Currency       string
	Method         Method
	PhoneNumber    string
	CardToken      string
	IdempotencyKey string
	Metadata       map[string]string
}

type GatewayResult struct {
	TransactionID string
	Status        GatewayStatus
}

// Gateway is the external payment processor contract.
type Gateway interface {
	Initiate(ctx context.Context, params InitiateParams) (*GatewayResult, error)
	CheckStatus(ctx context.Context, transactionID string) (GatewayStatus, error)
}

// MethodRouter dispatches to a card gateway or a mobile-money gateway per
// method. CheckStatus routes on the transaction id prefix, since the two
// processors issue disjoint id formats.
type MethodRouter struct {
	Card        Gateway
	MobileMoney Gateway
}

func (r *MethodRouter) Initiate(ctx context.Context, params InitiateParams) (*GatewayResult, error) {
	if params.Method == MethodCard && r.Card != nil {
		return r.Card.Initiate(ctx, params)
	}
	return r.MobileMoney.Initiate(ctx, params)
}

func (r *MethodRouter) CheckStatus(ctx context.Context, transactionID string) (GatewayStatus, error) {
	if r.Card != nil && strings.HasPrefix(transactionID, "pi_") {
		return r.Card.CheckStatus(ctx, transactionID)
	}
	return r.MobileMoney.CheckStatus(ctx, transactionID)
}
