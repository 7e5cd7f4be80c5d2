package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Paths locates the on-disk documents. Values come from environment variables
// with defaults matching the original directory layout, so a bare process
// works without any environment at all.
type Paths struct {
	// DataDir is the root configuration directory.
	DataDir string `env:"DEXREWARDS_DATA_DIR" envDefault:"config/simpledexrewards"`

	// PlayerDir holds one JSON document per player UUID plus their backup
	// siblings. Defaults to DataDir/players.
	PlayerDir string `env:"DEXREWARDS_PLAYER_DIR"`

	// SettingsFile is the module settings document. Defaults to
	// DataDir/config.json.
	SettingsFile string `env:"DEXREWARDS_SETTINGS_FILE"`

	// CatalogFile is the reward tier ladder document. Defaults to
	// DataDir/rewardconfig.json.
	CatalogFile string `env:"DEXREWARDS_CATALOG_FILE"`
}

// ParsePaths loads Paths from the environment and fills the derived defaults.
func ParsePaths() (Paths, error) {
	var p Paths
	if err := env.Parse(&p); err != nil {
		return Paths{}, fmt.Errorf("parse env: %w", err)
	}
	p.fillDerived()
	return p, nil
}

// PathsIn returns Paths rooted at dir, ignoring the environment. Used by
// tests and embedders that manage their own layout.
func PathsIn(dir string) Paths {
	p := Paths{DataDir: dir}
	p.fillDerived()
	return p
}

func (p *Paths) fillDerived() {
	if p.PlayerDir == "" {
		p.PlayerDir = filepath.Join(p.DataDir, "players")
	}
	if p.SettingsFile == "" {
		p.SettingsFile = filepath.Join(p.DataDir, "config.json")
	}
	if p.CatalogFile == "" {
		p.CatalogFile = filepath.Join(p.DataDir, "rewardconfig.json")
	}
}
