package forms

import "github.com/gin-gonic/gin"

type CheckoutForm struct {
	FullName string `form:"full_name" json:"full_name" binding:"required,max=255"`
	Phone    string `form:"phone" json:"phone" binding:"required,ruphone"`
	Address  string `form:"address" json:"address" binding:"required,max=1000"`
}

var checkoutFields = []string{"full_name", "phone", "address"}

var checkoutMessages = messages{
	"full_name": {
		"required": "Укажите имя получателя.",
		"":         "Имя получателя слишком длинное.",
	},
	"phone": {
		"required": "Укажите номер телефона.",
		"":         "Укажите корректный номер телефона.",
	},
	"address": {
		"required": "Укажите адрес доставки.",
		"":         "Адрес доставки слишком длинный.",
	},
}

// BindCheckout validates the delivery details. On success the phone is
// already in its canonical form.
func BindCheckout(c *gin.Context) (*CheckoutForm, FieldErrors) {
	var form CheckoutForm
	if errs := bind(c, &form, checkoutFields, checkoutMessages); len(errs) > 0 {
		return &form, errs
	}
	phone, err := NormalizePhone(form.Phone)
	if err != nil {
		return &form, FieldErrors{{Field: "phone", Message: checkoutMessages["phone"][""]}}
	}
	form.Phone = phone
	return &form, nil
}
