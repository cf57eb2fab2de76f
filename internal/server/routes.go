package server

import (
	"net/http"
	"time"

	"github.com/OCCASS/rml/internal/metrics"
	"github.com/OCCASS/rml/internal/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log), metrics.Middleware())

	if len(s.cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	store := r.Group("/")
	store.Use(session.Middleware(s.sessions, session.CookieOptions{
		Name:   s.cfg.SessionCookieName,
		MaxAge: s.cfg.SessionTTL,
		Secure: s.cfg.SessionCookieSecure,
	}, s.log))
	{
		store.GET("/", s.catalogHandler)
		store.GET("/product/:slug", s.productHandler)

		store.GET("/cart", s.cartHandler)
		store.POST("/cart/add/:slug", s.addToCartHandler)
		store.POST("/cart/remove/:slug", s.removeFromCartHandler)

		store.GET("/checkout", s.checkoutHandler)
		store.POST("/checkout", s.checkoutSubmitHandler)
		store.POST("/buy/:slug", s.buyProductHandler)
		store.GET("/payment/success", s.paymentSuccessHandler)

		store.POST("/partnership/submit", s.partnershipSubmitHandler)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	status := http.StatusOK
	out := make(map[string]map[string]string, len(s.health))
	for name, check := range s.health {
		res := check(c.Request.Context())
		if res["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		out[name] = res
	}
	c.JSON(status, out)
}
