package config

import (
	"testing"

	"github.com/mdks/dexrewards/pkg/errors"
)

func TestValidator_Validate(t *testing.T) {
	validator := NewValidator()

	t.Run("defaults are valid", func(t *testing.T) {
		if err := validator.Validate(DefaultSettings()); err != nil {
			t.Errorf("expected defaults to validate, got %v", err)
		}
	})

	t.Run("maxTiers below one", func(t *testing.T) {
		settings := DefaultSettings()
		settings.MaxTiers = 0

		err := validator.Validate(settings)
		if !errors.HasCode(err, errors.ErrCodeConfigInvalid) {
			t.Errorf("expected CONFIG_INVALID, got %v", err)
		}
	})

	t.Run("totalSpecies below one", func(t *testing.T) {
		settings := DefaultSettings()
		settings.TotalSpecies = -5

		if err := validator.Validate(settings); err == nil {
			t.Error("expected error for negative totalSpecies")
		}
	})

	t.Run("empty dataVersion", func(t *testing.T) {
		settings := DefaultSettings()
		settings.DataVersion = ""

		if err := validator.Validate(settings); err == nil {
			t.Error("expected error for empty dataVersion")
		}
	})
}
