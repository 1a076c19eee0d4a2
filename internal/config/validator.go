package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/praxis-ai/praxis/internal/types"
)

// Validator checks a configuration for structural validity.
type Validator interface {
	Validate(cfg *Config) error
}

// structValidator implements Validator with go-playground struct tags.
type structValidator struct {
	validate *validator.Validate
}

// NewValidator creates the default Validator.
func NewValidator() Validator {
	return &structValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate checks struct tags plus the cross-field constraints the tags
// cannot express.
func (v *structValidator) Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "config cannot be nil")
	}

	if err := v.validate.Struct(cfg); err != nil {
		return types.WrapError(types.CONFIG_VALIDATION_FAILED, "config failed validation", err)
	}

	if cfg.Knowledge.Enabled && cfg.Knowledge.Path == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"knowledge.path is required when knowledge.enabled is true")
	}

	if cfg.Confidence.MediumThreshold > cfg.Confidence.HighThreshold {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("medium threshold %.2f exceeds high threshold %.2f",
				cfg.Confidence.MediumThreshold, cfg.Confidence.HighThreshold))
	}

	return nil
}
