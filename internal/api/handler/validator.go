package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// requestValidator lets Echo call c.Validate(req). Messages name fields by
// their JSON key so clients can map them back to the payload.
type requestValidator struct {
	v *validator.Validate
}

// NewValidator returns the validator assigned to echo.Echo.Validator.
func NewValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	if err := v.RegisterValidation("money", validateMoney); err != nil {
		panic(err)
	}
	return &requestValidator{v: v}
}

func (rv *requestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, len(ve))
	for i, fe := range ve {
		msgs[i] = describe(fe)
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Amounts are bounded before any arithmetic: an exponent such as 1e50000000
// parses cheaply but rescales to millions of digits.
const (
	maxIntegerDigits = 15
	minExponent      = -18
)

// validateMoney accepts a non-negative decimal with at most two fractional
// digits and at most maxIntegerDigits integer digits. Negative amounts are
// rejected here rather than audited as failures.
func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	exp := d.Exponent()
	if exp < minExponent || exp > maxIntegerDigits {
		return false
	}
	if d.NumDigits()+int(exp) > maxIntegerDigits {
		return false
	}
	return !d.IsNegative() && d.Equal(d.Truncate(2))
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "money":
		return field + " must be a non-negative amount below 10^15 with at most two decimals"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "nefield":
		return field + " must differ from the source account"
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
