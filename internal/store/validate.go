package store

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jura-stack/jura/internal/errkind"
	"github.com/jura-stack/jura/internal/model"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateDecision reports a SchemaViolation error (spec §7) when d is missing
// a required field or carries a language code outside {de, fr, it, rm}.
func ValidateDecision(d *model.Decision) error {
	if err := getValidator().Struct(d); err != nil {
		return errkind.New(errkind.SchemaViolation, fmt.Errorf("store: %w", err))
	}
	return nil
}
