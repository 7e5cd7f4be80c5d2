package config

import (
	"fmt"

	"github.com/mdks/dexrewards/pkg/errors"
)

// Validator checks settings for structural validity. Validation failures are
// caught by the loader and replaced with defaults rather than surfaced to
// callers.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns an error describing the first invalid field.
func (v *Validator) Validate(s *Settings) error {
	if s.MaxTiers < 1 {
		return errors.ErrConfigInvalid(fmt.Sprintf("maxTiers must be >= 1, got %d", s.MaxTiers))
	}
	if s.TotalSpecies < 1 {
		return errors.ErrConfigInvalid(fmt.Sprintf("totalSpecies must be >= 1, got %d", s.TotalSpecies))
	}
	if s.DataVersion == "" {
		return errors.ErrConfigInvalid("dataVersion cannot be empty")
	}
	return nil
}
