package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

// Loader reads the settings file, overlays it on the defaults, validates the
// result, and rewrites the file with defaults when it is missing or corrupt.
// Unlike a service config this never fails startup: the worst malformed file
// costs is a reset to defaults, logged.
type Loader struct {
	path      string
	validator *Validator
	logger    *slog.Logger
}

// NewLoader creates a settings loader for the given file path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{
		path:      path,
		validator: NewValidator(),
		logger:    logger,
	}
}

// settingsFile mirrors Settings with pointer fields so the loader can tell
// "absent" from "explicitly zero" and apply defaults per field exactly once.
type settingsFile struct {
	MaxTiers              *int    `json:"maxTiers"`
	TotalSpecies          *int    `json:"totalSpecies"`
	EnablePermissionNodes *bool   `json:"enablePermissionNodes"`
	SavePlayerData        *bool   `json:"savePlayerData"`
	DataVersion           *string `json:"dataVersion"`
	EnableItemRewards     *bool   `json:"enableItemRewards"`
	EnablePokemonRewards  *bool   `json:"enablePokemonRewards"`
	EnableCommandRewards  *bool   `json:"enableCommandRewards"`
}

// Load returns the effective settings. A missing, malformed, or invalid file
// is replaced by the built-in defaults, which are persisted back so the
// operator has a file to edit.
func (l *Loader) Load() *Settings {
	settings := DefaultSettings()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Error("Failed to read settings file, using defaults",
				"path", l.path, "error", err)
		}
		l.persist(settings)
		return settings
	}

	var file settingsFile
	if err := json.Unmarshal(data, &file); err != nil {
		l.logger.Error("Failed to parse settings file, resetting to defaults",
			"path", l.path, "error", err)
		l.persist(settings)
		return settings
	}

	applyFile(settings, &file)

	if err := l.validator.Validate(settings); err != nil {
		l.logger.Error("Settings failed validation, resetting to defaults",
			"path", l.path, "error", err)
		settings = DefaultSettings()
		l.persist(settings)
		return settings
	}

	l.logger.Info("Settings loaded",
		"path", l.path,
		"max_tiers", settings.MaxTiers,
		"total_species", settings.TotalSpecies,
	)
	return settings
}

// Save writes the settings document, creating the directory on first use.
func (l *Loader) Save(settings *Settings) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0o644)
}

func (l *Loader) persist(settings *Settings) {
	if err := l.Save(settings); err != nil {
		l.logger.Error("Failed to write settings file", "path", l.path, "error", err)
	}
}

func applyFile(s *Settings, f *settingsFile) {
	if f.MaxTiers != nil {
		s.MaxTiers = *f.MaxTiers
	}
	if f.TotalSpecies != nil {
		s.TotalSpecies = *f.TotalSpecies
	}
	if f.EnablePermissionNodes != nil {
		s.EnablePermissionNodes = *f.EnablePermissionNodes
	}
	if f.SavePlayerData != nil {
		s.SavePlayerData = *f.SavePlayerData
	}
	if f.DataVersion != nil {
		s.DataVersion = *f.DataVersion
	}
	if f.EnableItemRewards != nil {
		s.EnableItemRewards = *f.EnableItemRewards
	}
	if f.EnablePokemonRewards != nil {
		s.EnablePokemonRewards = *f.EnablePokemonRewards
	}
	if f.EnableCommandRewards != nil {
		s.EnableCommandRewards = *f.EnableCommandRewards
	}
}
