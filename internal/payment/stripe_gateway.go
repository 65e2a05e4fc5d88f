package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/inauto/garage-booking/internal/logging"
)

// StripeGateway settles card payments through Stripe PaymentIntents. Each
// checkout carries the payment row's id as the idempotency key, so a retried
// Initiate cannot double-charge.
type StripeGateway struct {
	api    *client.API
	logger *logging.Logger
}

func NewStripeGateway(apiKey string, logger *logging.Logger) *StripeGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &StripeGateway{
		api:    client.New(apiKey, nil),
		logger: logger,
	}
}

func (g *StripeGateway) Initiate(ctx context.Context, params InitiateParams) (*GatewayResult, error) {
	_ = ctx

	if params.CardToken == "" {
		return nil, fmt.Errorf("stripe gateway: card token is required")
	}

	piParams := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(params.AmountCents),
		Currency:      stripe.String(strings.ToLower(params.Currency)),
		PaymentMethod: stripe.String(params.CardToken),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if params.IdempotencyKey != "" {
		piParams.IdempotencyKey = stripe.String(params.IdempotencyKey)
	}
	for k, v := range params.Metadata {
		piParams.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(piParams)
	if err != nil {
		return nil, fmt.Errorf("stripe gateway: create payment intent: %w", err)
	}

	g.logger.Info("stripe payment intent created", "intent_id", pi.ID, "status", pi.Status)

	return &GatewayResult{
		TransactionID: pi.ID,
		Status:        fromStripeStatus(pi.Status),
	}, nil
}

func (g *StripeGateway) CheckStatus(ctx context.Context, transactionID string) (GatewayStatus, error) {
	_ = ctx

	pi, err := g.api.PaymentIntents.Get(transactionID, nil)
	if err != nil {
		return "", fmt.Errorf("stripe gateway: get payment intent %s: %w", transactionID, err)
	}
	return fromStripeStatus(pi.Status), nil
}

func fromStripeStatus(s stripe.PaymentIntentStatus) GatewayStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return GatewaySucceeded
	case stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresConfirmation:
		return GatewayPending
	default:
		return GatewayFailed
	}
}
