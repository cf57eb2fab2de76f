package payment

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/google/uuid"
)

var errUnknownPayment = errors.New("payment not found")

// MockGateway is an in-memory provider for local runs and tests. Payments
// start pending; Resolve moves them, and AutoSucceed makes the first fetch
// of a pending payment report success as if the visitor paid.
type MockGateway struct {
	mu          sync.RWMutex
	payments    map[string]*domain.Payment
	byKey       map[string]string
	AutoSucceed bool

	createErr error
	fetchErr  error
	noConfirm bool
}

func NewMockGateway(autoSucceed bool) *MockGateway {
	return &MockGateway{
		payments:    make(map[string]*domain.Payment),
		byKey:       make(map[string]string),
		AutoSucceed: autoSucceed,
	}
}

func (g *MockGateway) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*domain.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createErr != nil {
		return nil, &GatewayError{Kind: KindNetwork, Op: "create", Err: g.createErr}
	}

	// Same idempotency key, same payment.
	key := req.IdempotencyKey.String()
	if id, exists := g.byKey[key]; exists {
		return clonePayment(g.payments[id]), nil
	}

	id := uuid.NewString()
	metadata := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	p := &domain.Payment{
		ID:          id,
		Status:      domain.PaymentPending,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Metadata:    metadata,
	}
	if !g.noConfirm {
		p.ConfirmationURL = confirmationURL(req.ReturnURL, id)
	}
	g.payments[id] = p
	g.byKey[key] = id
	return clonePayment(p), nil
}

func (g *MockGateway) FetchPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fetchErr != nil {
		return nil, &GatewayError{Kind: KindNetwork, Op: "fetch", Err: g.fetchErr}
	}
	p, exists := g.payments[paymentID]
	if !exists {
		return nil, &GatewayError{Kind: KindRejected, Op: "fetch", StatusCode: http.StatusNotFound, Err: errUnknownPayment}
	}
	if g.AutoSucceed && p.Status == domain.PaymentPending {
		p.Status = domain.PaymentSucceeded
	}
	return clonePayment(p), nil
}

// Resolve forces the remote status of a payment.
func (g *MockGateway) Resolve(paymentID string, status domain.PaymentStatus) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, exists := g.payments[paymentID]
	if exists {
		p.Status = status
	}
	return exists
}

func (g *MockGateway) FailCreate(err error) {
	g.mu.Lock()
	g.createErr = err
	g.mu.Unlock()
}

func (g *MockGateway) FailFetch(err error) {
	g.mu.Lock()
	g.fetchErr = err
	g.mu.Unlock()
}

// OmitConfirmation makes new payments come back without a redirect URL.
func (g *MockGateway) OmitConfirmation(omit bool) {
	g.mu.Lock()
	g.noConfirm = omit
	g.mu.Unlock()
}

func confirmationURL(returnURL, paymentID string) string {
	u, err := url.Parse(returnURL)
	if err != nil {
		return returnURL
	}
	q := u.Query()
	q.Set("paymentId", paymentID)
	u.RawQuery = q.Encode()
	return u.String()
}

func clonePayment(p *domain.Payment) *domain.Payment {
	out := *p
	out.Metadata = make(map[string]string, len(p.Metadata))
	for k, v := range p.Metadata {
		out.Metadata[k] = v
	}
	return &out
}
