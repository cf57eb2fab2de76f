package forms

import (
	"context"
	"errors"

	"github.com/OCCASS/rml/internal/infrastructure/captcha"
	"github.com/gin-gonic/gin"
)

type PartnershipForm struct {
	Email   string `form:"email" binding:"required,email,max=254"`
	Comment string `form:"comment" binding:"max=5000"`
	Captcha string `form:"g-recaptcha-response"`
}

var partnershipFields = []string{"email", "comment", "g-recaptcha-response"}

var partnershipMessages = messages{
	"email": {
		"required": "Укажите email, чтобы мы могли связаться с вами.",
		"":         "Укажите корректный email.",
	},
	"comment": {
		"": "Комментарий слишком длинный.",
	},
}

const (
	captchaRequired = "Подтвердите, что вы не робот."
	captchaInvalid  = "Не удалось пройти проверку reCAPTCHA. Попробуйте еще раз."
)

// BindPartnership validates the form and, when the verifier is enabled, the
// captcha token.
func BindPartnership(ctx context.Context, c *gin.Context, verifier captcha.Verifier) (*PartnershipForm, FieldErrors) {
	var form PartnershipForm
	errs := bind(c, &form, partnershipFields, partnershipMessages)

	if verifier != nil && verifier.Enabled() {
		ok, err := verifier.Verify(ctx, form.Captcha, c.ClientIP())
		switch {
		case errors.Is(err, captcha.ErrMissingToken):
			errs.add("g-recaptcha-response", captchaRequired)
		case err != nil || !ok:
			errs.add("g-recaptcha-response", captchaInvalid)
		}
	}

	if len(errs) > 0 {
		return &form, errs
	}
	return &form, nil
}
