package payment

import (
	"context"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreatePaymentRequest struct {
	Amount         decimal.Decimal
	Currency       string
	ReturnURL      string
	Description    string
	Metadata       map[string]string
	IdempotencyKey uuid.UUID
}

// PaymentGateway is a client of a redirect-confirmation payment provider.
// Every error it returns is a *GatewayError.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*domain.Payment, error)
	FetchPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
}
