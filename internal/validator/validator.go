// Package validator wraps a single validate instance with the custom
// validations used on gateway request payloads.
package validator

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "wolfquant/internal/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

var symbolRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{1,32}$`)

// Get returns the shared validate instance with custom validators registered.
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("plan_frequency", validatePlanFrequency)
		_ = validate.RegisterValidation("import_interval", validateImportInterval)
		_ = validate.RegisterValidation("market_symbol", validateMarketSymbol)
	})
	return validate
}

// Struct validates s and converts validation failures to an AppError so
// stores surface a consistent INVALID_INPUT code.
func Struct(s interface{}) error {
	if err := Get().Struct(s); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	return nil
}

func validatePlanFrequency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "DAILY", "WEEKLY", "BIWEEKLY", "MONTHLY":
		return true
	}
	return false
}

func validateImportInterval(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "1m", "5m", "15m", "30m", "1h", "4h", "1d", "1w":
		return true
	}
	return false
}

func validateMarketSymbol(fl validator.FieldLevel) bool {
	return symbolRegex.MatchString(fl.Field().String())
}
