package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/forms"
	"github.com/OCCASS/rml/internal/service"
	"github.com/OCCASS/rml/internal/session"
	"github.com/gin-gonic/gin"
)

const lastPaymentKey = "last_payment_id"

func (s *Server) checkoutHandler(c *gin.Context) {
	cart, ok := s.nonEmptyCart(c)
	if !ok {
		return
	}
	s.page(c, http.StatusOK, gin.H{
		"cart":   newCartView(cart),
		"form":   forms.CheckoutForm{},
		"errors": gin.H{},
	})
}

func (s *Server) checkoutSubmitHandler(c *gin.Context) {
	cart, ok := s.nonEmptyCart(c)
	if !ok {
		return
	}

	form, errs := forms.BindCheckout(c)
	if len(errs) > 0 {
		s.page(c, http.StatusUnprocessableEntity, gin.H{
			"cart":   newCartView(cart),
			"form":   form,
			"errors": errs.Map(),
		})
		return
	}

	order, err := s.checkout.PlaceCartOrder(c.Request.Context(), cart, service.CustomerDetails{
		FullName: form.FullName,
		Phone:    form.Phone,
		Address:  form.Address,
	})
	if err != nil {
		s.serverError(c, "place cart order", err)
		return
	}
	s.startPayment(c, order)
}

func (s *Server) buyProductHandler(c *gin.Context) {
	product, ok := s.productBySlug(c)
	if !ok {
		return
	}
	quantity, err := parseQuantity(c.PostForm("quantity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := s.checkout.PlaceProductOrder(c.Request.Context(), *product, quantity)
	if err != nil {
		s.serverError(c, "place product order", err)
		return
	}
	s.startPayment(c, order)
}

func (s *Server) startPayment(c *gin.Context, order *domain.Order) {
	sess := session.From(c)
	p, err := s.checkout.StartPayment(c.Request.Context(), order, s.returnURL(c))
	if p != nil {
		_ = sess.Set(lastPaymentKey, p.ID)
	}

	switch {
	case errors.Is(err, service.ErrNoConfirmationURL):
		sess.AddFlash(session.LevelError, "Не удалось получить ссылку на оплату")
		c.Redirect(http.StatusFound, "/cart")
	case err != nil:
		sess.AddFlash(session.LevelError, fmt.Sprintf("Не удалось создать оплату: %v", err))
		c.Redirect(http.StatusFound, "/cart")
	default:
		c.Redirect(http.StatusFound, p.ConfirmationURL)
	}
}

func (s *Server) paymentSuccessHandler(c *gin.Context) {
	sess := session.From(c)
	paymentID := c.Query("paymentId")
	if paymentID == "" {
		paymentID = c.Query("payment_id")
	}
	if paymentID == "" {
		paymentID = sess.GetString(lastPaymentKey)
	}

	res := s.checkout.Reconcile(c.Request.Context(), paymentID)
	if res.FetchErr != nil {
		sess.AddFlash(session.LevelWarning, fmt.Sprintf("Не удалось обновить статус оплаты: %v", res.FetchErr))
	}
	if res.Reconciled {
		s.carts.ClearCart(sess)
	}

	s.page(c, http.StatusOK, gin.H{
		"order":          newOrderView(res.Order),
		"payment_id":     res.PaymentID,
		"payment_status": res.PaymentStatus(),
	})
}

// nonEmptyCart loads the visitor's cart, or flashes and redirects to the
// catalog when there is nothing to check out.
func (s *Server) nonEmptyCart(c *gin.Context) (*domain.Cart, bool) {
	sess := session.From(c)
	cart, err := s.carts.GetCart(c.Request.Context(), sess)
	if err != nil {
		s.serverError(c, "get cart", err)
		return nil, false
	}
	if cart.IsEmpty() {
		sess.AddFlash(session.LevelError, "Корзина пуста")
		c.Redirect(http.StatusFound, "/")
		return nil, false
	}
	return cart, true
}

func (s *Server) returnURL(c *gin.Context) string {
	base := s.cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/payment/success"
}
