package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/OCCASS/rml/internal/config"
	"github.com/OCCASS/rml/internal/infrastructure/captcha"
	"github.com/OCCASS/rml/internal/repo"
	"github.com/OCCASS/rml/internal/service"
	"github.com/OCCASS/rml/internal/session"
)

// PartnershipNotifier forwards partnership inquiries to the shop owners.
type PartnershipNotifier interface {
	Partnership(ctx context.Context, email, comment string)
}

// HealthCheck reports the state of one dependency.
type HealthCheck func(ctx context.Context) map[string]string

type Deps struct {
	Config      *config.Config
	Log         *slog.Logger
	Sessions    session.Store
	Products    repo.ProductRepo
	Carts       service.CartService
	Checkout    service.CheckoutService
	Partnership PartnershipNotifier
	Captcha     captcha.Verifier
	Health      map[string]HealthCheck
}

type Server struct {
	cfg         *config.Config
	log         *slog.Logger
	sessions    session.Store
	products    repo.ProductRepo
	carts       service.CartService
	checkout    service.CheckoutService
	partnership PartnershipNotifier
	captcha     captcha.Verifier
	health      map[string]HealthCheck
}

func New(d Deps) *Server {
	return &Server{
		cfg:         d.Config,
		log:         d.Log,
		sessions:    d.Sessions,
		products:    d.Products,
		carts:       d.Carts,
		checkout:    d.Checkout,
		partnership: d.Partnership,
		captcha:     d.Captcha,
		health:      d.Health,
	}
}

func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.Port),
		Handler:           s.RegisterRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
