package config

// Settings is the module configuration loaded from config.json. Defaults are
// defined once in DefaultSettings; the loader overlays the file's fields on
// top of them so absent keys keep their documented defaults.
type Settings struct {
	// MaxTiers caps how many claimable tiers the catalog may configure.
	MaxTiers int `json:"maxTiers"`

	// TotalSpecies is the configured total used as the completion
	// denominator for every track. Clamped to >= 1.
	TotalSpecies int `json:"totalSpecies"`

	// EnablePermissionNodes gates permission checks in the host layer. The
	// core only stores and exposes the toggle.
	EnablePermissionNodes bool `json:"enablePermissionNodes"`

	// SavePlayerData disables write-through persistence when false. Records
	// still live in memory for the process lifetime.
	SavePlayerData bool `json:"savePlayerData"`

	// DataVersion is informational; the record schema version governs
	// migrations, not this.
	DataVersion string `json:"dataVersion"`

	// Per-kind reward toggles. Actions of a disabled kind are skipped (and
	// logged) at grant time.
	EnableItemRewards    bool `json:"enableItemRewards"`
	EnablePokemonRewards bool `json:"enablePokemonRewards"`
	EnableCommandRewards bool `json:"enableCommandRewards"`
}

// DefaultSettings returns the built-in defaults, used both for a missing or
// corrupt settings file and as the base the loader overlays a file onto.
func DefaultSettings() *Settings {
	return &Settings{
		MaxTiers:              10,
		TotalSpecies:          1025,
		EnablePermissionNodes: true,
		SavePlayerData:        true,
		DataVersion:           "2.0",
		EnableItemRewards:     true,
		EnablePokemonRewards:  true,
		EnableCommandRewards:  true,
	}
}

// RewardKindEnabled reports whether actions of the given kind may be granted.
// Unknown kinds are treated as commands, mirroring the action decoder.
func (s *Settings) RewardKindEnabled(kind string) bool {
	switch kind {
	case "ITEM":
		return s.EnableItemRewards
	case "POKEMON":
		return s.EnablePokemonRewards
	default:
		return s.EnableCommandRewards
	}
}
