// Package forms binds and validates the storefront's HTML forms.
package forms

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors keeps one message per field, in form order.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	msgs := make([]string, len(fe))
	for i, e := range fe {
		msgs[i] = e.Field + ": " + e.Message
	}
	return strings.Join(msgs, "; ")
}

func (fe FieldErrors) Get(field string) string {
	for _, e := range fe {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

func (fe FieldErrors) Map() map[string]string {
	out := make(map[string]string, len(fe))
	for _, e := range fe {
		out[e.Field] = e.Message
	}
	return out
}

func (fe *FieldErrors) add(field, message string) {
	if fe.Get(field) == "" {
		*fe = append(*fe, FieldError{Field: field, Message: message})
	}
}

var registerOnce sync.Once

// registerValidators teaches gin's validator the form field names and the
// phone rule.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("ruphone", func(fl validator.FieldLevel) bool {
			_, err := NormalizePhone(fl.Field().String())
			return err == nil
		})
	})
}

// messages maps field -> validation tag -> text. "" is the fallback tag.
type messages map[string]map[string]string

func bind(c *gin.Context, dst any, order []string, texts messages) FieldErrors {
	registerValidators()

	err := c.ShouldBindWith(dst, binding.Form)
	if err == nil {
		return nil
	}

	var errs FieldErrors
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.add(order[0], texts[order[0]][""])
		return errs
	}

	byField := make(map[string]string, len(verrs))
	for _, ve := range verrs {
		if _, seen := byField[ve.Field()]; seen {
			continue
		}
		msg, ok := texts[ve.Field()][ve.Tag()]
		if !ok {
			msg = texts[ve.Field()][""]
		}
		byField[ve.Field()] = msg
	}
	for _, field := range order {
		if msg, ok := byField[field]; ok {
			errs.add(field, msg)
		}
	}
	return errs
}
