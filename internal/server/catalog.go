package server

import (
	"errors"
	"net/http"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/repo"
	"github.com/gin-gonic/gin"
)

func (s *Server) catalogHandler(c *gin.Context) {
	products, err := s.products.ListProducts(c.Request.Context())
	if err != nil {
		s.serverError(c, "list products", err)
		return
	}

	first := make([]productView, 0, len(products))
	second := make([]productView, 0, len(products))
	for _, p := range products {
		if p.FirstLine {
			first = append(first, newProductView(p))
		} else {
			second = append(second, newProductView(p))
		}
	}

	s.page(c, http.StatusOK, gin.H{
		"first_line_products":  first,
		"second_line_products": second,
		"partnership_form": gin.H{
			"captcha_enabled": s.captcha != nil && s.captcha.Enabled(),
		},
	})
}

func (s *Server) productHandler(c *gin.Context) {
	product, ok := s.productBySlug(c)
	if !ok {
		return
	}
	s.page(c, http.StatusOK, gin.H{"product": newProductView(*product)})
}

// productBySlug resolves the :slug parameter or answers 404 itself.
func (s *Server) productBySlug(c *gin.Context) (*domain.Product, bool) {
	product, err := s.products.FindBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, repo.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return nil, false
	}
	if err != nil {
		s.serverError(c, "find product", err)
		return nil, false
	}
	return product, true
}

func (s *Server) serverError(c *gin.Context, op string, err error) {
	_ = c.Error(err)
	s.log.Error("Request failed", "op", op, "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
