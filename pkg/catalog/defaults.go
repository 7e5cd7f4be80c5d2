package catalog

import (
	"fmt"
	"strconv"

	"github.com/mdks/dexrewards/pkg/domain"
)

// defaultTierData drives the built-in ladder: one entry per default tier, in
// threshold order 10..100.
var defaultTierData = []struct {
	command string
	item    string
	row     int
	slot    int
}{
	{"cobblemon:poke_ball 5", "minecraft:red_dye", 1, 2},
	{"cobblemon:great_ball 3", "minecraft:blue_dye", 1, 4},
	{"cobblemon:ultra_ball 2", "minecraft:yellow_dye", 1, 6},
	{"cobblemon:master_ball 1", "minecraft:purple_dye", 1, 8},
	{"cobblemon:exp_share 1", "minecraft:experience_bottle", 3, 2},
	{"cobblemon:rare_candy 3", "minecraft:diamond", 3, 4},
	{"cobblemon:exp_candy_l 5", "minecraft:emerald", 3, 6},
	{"cobblemon:exp_candy_xl 3", "minecraft:gold_ingot", 3, 8},
	{"cobblemon:master_ball 2", "minecraft:nether_star", 5, 2},
	{"cobblemon:master_ball 3", "minecraft:dragon_egg", 5, 4},
}

// defaultCatalog builds the built-in ladder: ten claimable tiers at fixed 10%
// steps plus the completion pseudo-tier.
func defaultCatalog() *catalogFile {
	file := &catalogFile{
		EnablePermissionNodes: true,
		Rewards:               make(map[string]*domain.RewardTier, len(defaultTierData)+1),
	}

	for i, data := range defaultTierData {
		threshold := (i + 1) * 10
		file.CompletionTiers = append(file.CompletionTiers, threshold)
		file.Rewards[strconv.Itoa(threshold)] = &domain.RewardTier{
			Row:  data.row,
			Slot: data.slot,
			Display: &domain.DisplayInfo{
				Type:   fmt.Sprintf("tier_%d", threshold),
				Format: fmt.Sprintf("Tier %d Reward", threshold),
				Item:   data.item,
			},
			Actions: []domain.RewardAction{
				domain.CommandGrant{Command: "give %player% " + data.command},
			},
		}
	}

	file.Rewards[domain.CompletionTierKey] = &domain.RewardTier{
		Row:  6,
		Slot: 5,
		Display: &domain.DisplayInfo{
			Type:   domain.CompletionTierKey,
			Format: "Caught: {caught}/{total} ({percent}%)",
			Item:   "minecraft:experience_bottle",
		},
	}

	return file
}
