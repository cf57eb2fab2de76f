package forms

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone accepts a Russian mobile number in any common spelling and
// returns it as "+7 (XXX) XXX-XX-XX".
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", ErrInvalidPhone
	}

	switch digits[0] {
	case '8':
		digits = "7" + digits[1:]
	case '9':
		digits = "7" + digits
	}
	if len(digits) > 11 {
		digits = digits[:11]
	}
	if len(digits) != 11 || digits[0] != '7' {
		return "", ErrInvalidPhone
	}

	return fmt.Sprintf("+7 (%s) %s-%s-%s", digits[1:4], digits[4:7], digits[7:9], digits[9:11]), nil
}
