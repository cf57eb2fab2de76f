package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/session"
	"github.com/gin-gonic/gin"
)

func (s *Server) cartHandler(c *gin.Context) {
	cart, err := s.carts.GetCart(c.Request.Context(), session.From(c))
	if err != nil {
		s.serverError(c, "get cart", err)
		return
	}
	s.page(c, http.StatusOK, gin.H{"cart": newCartView(cart)})
}

func (s *Server) addToCartHandler(c *gin.Context) {
	product, ok := s.productBySlug(c)
	if !ok {
		return
	}
	quantity, err := parseQuantity(c.PostForm("quantity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	replace := c.PostForm("replace") == "1"

	sess := session.From(c)
	cart, err := s.carts.AddToCart(c.Request.Context(), sess, product.ID, quantity, replace)
	if err != nil {
		s.serverError(c, "add to cart", err)
		return
	}

	if isAjax(c) {
		entry, found := cart.Find(product.ID)
		if !found {
			c.JSON(http.StatusOK, cartPayload(cart, nil))
			return
		}
		c.JSON(http.StatusOK, cartPayload(cart, &entry))
		return
	}

	sess.AddFlash(session.LevelSuccess, fmt.Sprintf("%s добавлен в корзину", product.Name))
	c.Redirect(http.StatusFound, localRedirect(c.PostForm("next"), "/cart"))
}

func (s *Server) removeFromCartHandler(c *gin.Context) {
	product, ok := s.productBySlug(c)
	if !ok {
		return
	}

	sess := session.From(c)
	cart, err := s.carts.RemoveFromCart(c.Request.Context(), sess, product.ID)
	if err != nil {
		s.serverError(c, "remove from cart", err)
		return
	}

	if isAjax(c) {
		payload := cartPayload(cart, nil)
		payload["removed"] = true
		payload["product_id"] = product.ID
		c.JSON(http.StatusOK, payload)
		return
	}

	sess.AddFlash(session.LevelInfo, fmt.Sprintf("%s убран из корзины", product.Name))
	c.Redirect(http.StatusFound, "/cart")
}

// parseQuantity reads an optional quantity and clamps it to
// [1, domain.MaxQuantity]. Integers too large for int are clamped as well.
func parseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	q, err := strconv.Atoi(raw)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("invalid quantity %q", raw)
	}
	return domain.ClampQuantity(q), nil
}

// localRedirect returns next when it is a path on this site, fallback otherwise.
func localRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
