package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

type YooKassaConfig struct {
	ShopID    string
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

type yooKassaGateway struct {
	cfg     YooKassaConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*domain.Payment]
}

// NewYooKassaGateway builds the gateway even without credentials; every call
// then fails with a configuration error.
func NewYooKassaGateway(cfg YooKassaConfig, client *http.Client) PaymentGateway {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	breaker := gobreaker.NewCircuitBreaker[*domain.Payment](gobreaker.Settings{
		Name:        "yookassa",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Only transport problems and provider outages count against the breaker.
			var gwErr *GatewayError
			if err == nil || !errors.As(err, &gwErr) {
				return err == nil
			}
			return gwErr.Kind == KindRejected && gwErr.StatusCode < 500
		},
	})
	return &yooKassaGateway{cfg: cfg, client: client, breaker: breaker}
}

type amountBody struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type confirmationBody struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type createPaymentBody struct {
	Amount       amountBody        `json:"amount"`
	Confirmation confirmationBody  `json:"confirmation"`
	Capture      bool              `json:"capture"`
	Description  string            `json:"description"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type paymentResponse struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Amount       *amountBody       `json:"amount"`
	Confirmation *confirmationBody `json:"confirmation"`
	Description  string            `json:"description"`
	Metadata     map[string]any    `json:"metadata"`
}

type errorResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (g *yooKassaGateway) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*domain.Payment, error) {
	const op = "create"
	if err := g.checkConfigured(op); err != nil {
		return nil, err
	}

	body, err := json.Marshal(createPaymentBody{
		Amount:       amountBody{Value: req.Amount.StringFixed(2), Currency: req.Currency},
		Confirmation: confirmationBody{Type: "redirect", ReturnURL: req.ReturnURL},
		Capture:      true,
		Description:  req.Description,
		Metadata:     req.Metadata,
	})
	if err != nil {
		return nil, &GatewayError{Kind: KindDecode, Op: op, Err: err}
	}

	return g.execute(op, func() (*domain.Payment, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/payments", bytes.NewReader(body))
		if err != nil {
			return nil, &GatewayError{Kind: KindNetwork, Op: op, Err: err}
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Idempotence-Key", req.IdempotencyKey.String())
		return g.do(op, httpReq)
	})
}

func (g *yooKassaGateway) FetchPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	const op = "fetch"
	if err := g.checkConfigured(op); err != nil {
		return nil, err
	}

	return g.execute(op, func() (*domain.Payment, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"/payments/"+url.PathEscape(paymentID), nil)
		if err != nil {
			return nil, &GatewayError{Kind: KindNetwork, Op: op, Err: err}
		}
		return g.do(op, httpReq)
	})
}

func (g *yooKassaGateway) checkConfigured(op string) error {
	if g.cfg.ShopID == "" || g.cfg.SecretKey == "" {
		return &GatewayError{Kind: KindConfiguration, Op: op, Err: ErrNotConfigured}
	}
	return nil
}

func (g *yooKassaGateway) execute(op string, call func() (*domain.Payment, error)) (*domain.Payment, error) {
	p, err := g.breaker.Execute(call)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &GatewayError{Kind: KindNetwork, Op: op, Err: err}
	}
	return p, err
}

func (g *yooKassaGateway) do(op string, req *http.Request) (*domain.Payment, error) {
	req.SetBasicAuth(g.cfg.ShopID, g.cfg.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &GatewayError{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &GatewayError{Kind: KindNetwork, Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Description != "" {
			msg = e.Description
		}
		return nil, &GatewayError{Kind: KindRejected, Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	var pr paymentResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return nil, &GatewayError{Kind: KindDecode, Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return pr.toDomain(), nil
}

func (pr *paymentResponse) toDomain() *domain.Payment {
	p := &domain.Payment{
		ID:          pr.ID,
		Status:      domain.PaymentStatus(pr.Status),
		Description: pr.Description,
		Metadata:    make(map[string]string, len(pr.Metadata)),
	}
	if pr.Confirmation != nil {
		p.ConfirmationURL = pr.Confirmation.ConfirmationURL
	}
	if pr.Amount != nil {
		p.Currency = pr.Amount.Currency
		if amount, err := decimal.NewFromString(pr.Amount.Value); err == nil {
			p.Amount = amount
		}
	}
	for k, v := range pr.Metadata {
		switch val := v.(type) {
		case string:
			p.Metadata[k] = val
		case float64:
			p.Metadata[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case nil:
		default:
			p.Metadata[k] = fmt.Sprint(val)
		}
	}
	return p
}
