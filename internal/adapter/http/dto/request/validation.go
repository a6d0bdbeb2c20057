package request

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var registerOnce sync.Once

// RegisterValidators adds the decimal rules used by the request DTOs to gin's validator:
//   - decimal: a plain decimal number such as "10.50"
//   - decimal_gte0: a decimal number >= 0
//   - rate: a decimal number in [0, 1]
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("decimal", validDecimal)
		_ = v.RegisterValidation("decimal_gte0", validDecimalGTE0)
		_ = v.RegisterValidation("rate", validRate)
	})
}

func parseDecimalField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	raw := strings.TrimSpace(fl.Field().String())
	if raw == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(raw)
	return d, err == nil
}

func validDecimal(fl validator.FieldLevel) bool {
	_, ok := parseDecimalField(fl)
	return ok
}

func validDecimalGTE0(fl validator.FieldLevel) bool {
	d, ok := parseDecimalField(fl)
	return ok && !d.IsNegative()
}

func validRate(fl validator.FieldLevel) bool {
	d, ok := parseDecimalField(fl)
	return ok && !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(1))
}
