// Package catalog owns the versioned reward tier configuration: which
// completion thresholds exist, what each one grants, and how it is presented.
// The catalog exclusively owns all tier and action values; other components
// only read them.
package catalog

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/mdks/dexrewards/pkg/domain"
)

// Catalog is the loaded tier ladder. Reads vastly outnumber reloads, so a
// single RWMutex over the whole catalog is enough.
type Catalog struct {
	path   string
	logger *slog.Logger

	mu                    sync.RWMutex
	tiers                 map[int]*domain.RewardTier
	order                 []int // ascending thresholds
	completion            *domain.RewardTier
	enablePermissionNodes bool
}

// catalogFile is the stored form of the catalog document. The completion
// pseudo-tier lives inside the rewards map under its reserved key.
type catalogFile struct {
	EnablePermissionNodes bool                          `json:"enablePermissionNodes"`
	CompletionTiers       []int                         `json:"completionTiers"`
	Rewards               map[string]*domain.RewardTier `json:"rewards"`
}

// NewCatalog creates an empty catalog backed by the given file. Call Load
// before use.
func NewCatalog(path string, logger *slog.Logger) *Catalog {
	return &Catalog{
		path:   path,
		logger: logger,
		tiers:  make(map[int]*domain.RewardTier),
	}
}

// Load reads the catalog document. A missing or corrupt file never blocks
// startup: the built-in default ladder is populated and persisted instead.
func (c *Catalog) Load() error {
	data, err := os.ReadFile(c.path)
	if err != nil || len(data) == 0 {
		if err != nil && !os.IsNotExist(err) {
			c.logger.Error("Failed to read reward catalog, using defaults",
				"path", c.path, "error", err)
		}
		c.install(defaultCatalog())
		return c.Save()
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		c.logger.Error("Failed to parse reward catalog, resetting to defaults",
			"path", c.path, "error", err)
		c.install(defaultCatalog())
		return c.Save()
	}

	c.install(&file)

	c.mu.RLock()
	tiers := len(c.order)
	c.mu.RUnlock()
	c.logger.Info("Reward catalog loaded", "path", c.path, "claimable_tiers", tiers)
	return nil
}

// install replaces the catalog contents from a decoded document. Tier keys
// must be integer percentages in [0,100] or the reserved completion key;
// anything else is logged and skipped.
func (c *Catalog) install(file *catalogFile) {
	tiers := make(map[int]*domain.RewardTier, len(file.Rewards))
	var completion *domain.RewardTier
	var order []int

	for key, tier := range file.Rewards {
		if tier == nil {
			continue
		}
		if key == domain.CompletionTierKey {
			completion = tier
			continue
		}
		threshold, err := strconv.Atoi(key)
		if err != nil || threshold < 0 || threshold > 100 {
			c.logger.Warn("Skipping reward tier with invalid key", "key", key)
			continue
		}
		tiers[threshold] = tier
		order = append(order, threshold)
	}
	sort.Ints(order)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tiers = tiers
	c.order = order
	c.completion = completion
	c.enablePermissionNodes = file.EnablePermissionNodes
}

// Save writes the catalog document. Legacy command-only tiers decoded at load
// time are written back in the normalized actions form.
func (c *Catalog) Save() error {
	c.mu.RLock()
	file := catalogFile{
		EnablePermissionNodes: c.enablePermissionNodes,
		CompletionTiers:       append([]int(nil), c.order...),
		Rewards:               make(map[string]*domain.RewardTier, len(c.tiers)+1),
	}
	for threshold, tier := range c.tiers {
		file.Rewards[strconv.Itoa(threshold)] = tier
	}
	if c.completion != nil {
		file.Rewards[domain.CompletionTierKey] = c.completion
	}
	c.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}

// Reload re-reads the catalog document, replacing the in-memory ladder.
func (c *Catalog) Reload() error {
	return c.Load()
}

// GetTier looks up a tier by key: a numeric percentage string, or the
// reserved completion key, which returns a synthesized non-claimable
// pseudo-tier carrying only presentation data.
func (c *Catalog) GetTier(key string) (*domain.RewardTier, bool) {
	if key == domain.CompletionTierKey {
		return c.CompletionTier(), true
	}
	threshold, err := strconv.Atoi(key)
	if err != nil {
		return nil, false
	}
	return c.GetTierByThreshold(threshold)
}

// GetTierByThreshold looks up a claimable tier by its integer threshold.
func (c *Catalog) GetTierByThreshold(threshold int) (*domain.RewardTier, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tier, ok := c.tiers[threshold]
	return tier, ok
}

// CompletionTier returns the progress-display pseudo-tier. It is synthesized
// with no actions so it can never be claimed.
func (c *Catalog) CompletionTier() *domain.RewardTier {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tier := &domain.RewardTier{Row: 6, Slot: 5}
	if c.completion != nil {
		tier.Row = c.completion.Row
		tier.Slot = c.completion.Slot
		tier.Display = c.completion.Display
	}
	return tier
}

// ClaimableTiers returns the configured thresholds in ascending order. The
// completion pseudo-tier is never included.
func (c *Catalog) ClaimableTiers() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]int(nil), c.order...)
}

// EnablePermissionNodes reports the catalog-wide permission toggle.
func (c *Catalog) EnablePermissionNodes() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enablePermissionNodes
}
