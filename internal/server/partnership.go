package server

import (
	"net/http"

	"github.com/OCCASS/rml/internal/forms"
	"github.com/OCCASS/rml/internal/session"
	"github.com/gin-gonic/gin"
)

func (s *Server) partnershipSubmitHandler(c *gin.Context) {
	sess := session.From(c)
	form, errs := forms.BindPartnership(c.Request.Context(), c, s.captcha)
	if len(errs) > 0 {
		for _, e := range errs {
			sess.AddFlash(session.LevelError, e.Message)
		}
		c.Redirect(http.StatusFound, "/#partnership")
		return
	}

	if s.partnership != nil {
		s.partnership.Partnership(c.Request.Context(), form.Email, form.Comment)
	}
	sess.AddFlash(session.LevelSuccess, "Спасибо! Мы получили заявку и свяжемся с вами.")
	c.Redirect(http.StatusFound, "/#partnership")
}
