package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CompletionTierKey is the reserved catalog key for the non-claimable
// progress-display pseudo-tier. It never appears in the claimable tier list.
const CompletionTierKey = "completion"

// RewardActionKind tags the variants of a reward action.
type RewardActionKind string

const (
	// ActionKindItem grants an item stack to the player's inventory.
	ActionKindItem RewardActionKind = "ITEM"

	// ActionKindPokemon grants a spawned pokemon to the player's party.
	ActionKindPokemon RewardActionKind = "POKEMON"

	// ActionKindCommand runs one command string with token substitution.
	ActionKindCommand RewardActionKind = "COMMAND"
)

// ParseRewardActionKind maps a stored type string to a kind. Unknown strings
// fall back to COMMAND for backwards compatibility with early catalogs.
func ParseRewardActionKind(s string) RewardActionKind {
	switch strings.ToUpper(s) {
	case string(ActionKindItem):
		return ActionKindItem
	case string(ActionKindPokemon):
		return ActionKindPokemon
	default:
		return ActionKindCommand
	}
}

// RewardAction is one concrete effect granted when a tier is claimed. The
// catalog owns all action values; the claim engine and store only read them.
type RewardAction interface {
	// Kind returns the variant tag.
	Kind() RewardActionKind

	// DisplayText returns a short human-readable summary for presentation.
	// Token substitution in format templates is the presentation layer's
	// job; this only derives text from the action's own fields.
	DisplayText() string
}

// ItemGrant grants an item stack. The item id is opaque to this module and
// validated lazily by the grant executor.
type ItemGrant struct {
	ItemID string `json:"id"`
	Count  int    `json:"Count"`
}

// Kind returns ActionKindItem.
func (g ItemGrant) Kind() RewardActionKind { return ActionKindItem }

// DisplayText returns e.g. "5x poke ball" from "cobblemon:poke_ball".
func (g ItemGrant) DisplayText() string {
	name := g.ItemID
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(name, "_", " ")
	if name == "" {
		return "Unknown Item"
	}
	count := g.Count
	if count <= 0 {
		count = 1
	}
	return fmt.Sprintf("%dx %s", count, name)
}

// PokemonGrant grants a spawned pokemon. All fields are opaque to this module
// and passed through to the grant executor.
type PokemonGrant struct {
	Species string `json:"species"`
	Shiny   bool   `json:"shiny,omitempty"`
	Level   int    `json:"level,omitempty"`
	Ability string `json:"ability,omitempty"`
}

// Kind returns ActionKindPokemon.
func (g PokemonGrant) Kind() RewardActionKind { return ActionKindPokemon }

// DisplayText returns e.g. "Shiny pikachu".
func (g PokemonGrant) DisplayText() string {
	if g.Species == "" {
		return "Unknown Pokemon"
	}
	if g.Shiny {
		return "Shiny " + g.Species
	}
	return g.Species
}

// CommandGrant runs a single command string. The tokens %player% and %uuid%
// are substituted by the grant collaborator, not here.
type CommandGrant struct {
	Command     string
	DisplayID   string
	DisplayName string

	// Hidden excludes the command from reward listings in the UI.
	Hidden bool
}

// Kind returns ActionKindCommand.
func (g CommandGrant) Kind() RewardActionKind { return ActionKindCommand }

// DisplayText returns the configured display name.
func (g CommandGrant) DisplayText() string {
	if g.DisplayName != "" {
		return g.DisplayName
	}
	return "Custom Reward"
}

// actionEnvelope is the stored form of an action: a type tag plus a data
// blob, with command grants carrying their command string alongside.
type actionEnvelope struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Command string          `json:"command,omitempty"`
}

// commandData is the data blob for COMMAND actions.
type commandData struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
}

// MarshalRewardAction encodes an action into its stored envelope form.
func MarshalRewardAction(a RewardAction) ([]byte, error) {
	env := actionEnvelope{Type: string(a.Kind())}

	switch v := a.(type) {
	case ItemGrant:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		env.Data = data
	case PokemonGrant:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		env.Data = data
	case CommandGrant:
		data, err := json.Marshal(commandData{ID: v.DisplayID, DisplayName: v.DisplayName, Hidden: v.Hidden})
		if err != nil {
			return nil, err
		}
		env.Data = data
		env.Command = v.Command
	default:
		return nil, fmt.Errorf("unsupported reward action kind: %s", a.Kind())
	}

	return json.Marshal(env)
}

// UnmarshalRewardAction decodes a stored action envelope.
func UnmarshalRewardAction(raw []byte) (RewardAction, error) {
	var env actionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode reward action: %w", err)
	}

	switch ParseRewardActionKind(env.Type) {
	case ActionKindItem:
		var g ItemGrant
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &g); err != nil {
				return nil, fmt.Errorf("decode item grant: %w", err)
			}
		}
		if g.Count <= 0 {
			g.Count = 1
		}
		return g, nil
	case ActionKindPokemon:
		var g PokemonGrant
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &g); err != nil {
				return nil, fmt.Errorf("decode pokemon grant: %w", err)
			}
		}
		return g, nil
	default:
		var d commandData
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &d); err != nil {
				return nil, fmt.Errorf("decode command grant: %w", err)
			}
		}
		return CommandGrant{
			Command:     env.Command,
			DisplayID:   d.ID,
			DisplayName: d.DisplayName,
			Hidden:      d.Hidden,
		}, nil
	}
}

// DisplayInfo is the presentation descriptor attached to a tier. Format may
// contain the tokens {caught}, {total} and {percent}, resolved by the
// presentation layer.
type DisplayInfo struct {
	Type   string `json:"type"`
	Format string `json:"format"`
	Item   string `json:"item,omitempty"`
}

// RewardTier is one configured completion threshold: presentation hints, a
// display descriptor, and an ordered action list (grant order).
type RewardTier struct {
	Row     int
	Slot    int
	Display *DisplayInfo
	Actions []RewardAction
}

// rewardTierJSON is the stored form. The legacy single "command" field is
// accepted on decode and normalized to a one-element action list.
type rewardTierJSON struct {
	Row     int               `json:"row"`
	Slot    int               `json:"slot"`
	Display *DisplayInfo      `json:"display,omitempty"`
	Actions []json.RawMessage `json:"actions,omitempty"`
	Command string            `json:"command,omitempty"`
}

// MarshalJSON encodes the tier in the current actions-list form. Legacy
// command-only tiers are rewritten as action lists when the catalog is
// explicitly re-saved.
func (t RewardTier) MarshalJSON() ([]byte, error) {
	out := rewardTierJSON{Row: t.Row, Slot: t.Slot, Display: t.Display}
	for _, a := range t.Actions {
		raw, err := MarshalRewardAction(a)
		if err != nil {
			return nil, err
		}
		out.Actions = append(out.Actions, raw)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a stored tier, synthesizing a one-element command
// action list from the legacy "command" field when no action list exists.
func (t *RewardTier) UnmarshalJSON(raw []byte) error {
	var in rewardTierJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}

	t.Row = in.Row
	t.Slot = in.Slot
	if t.Row < 1 {
		t.Row = 1
	}
	if t.Slot < 1 {
		t.Slot = 1
	}
	t.Display = in.Display

	t.Actions = nil
	for _, rawAction := range in.Actions {
		action, err := UnmarshalRewardAction(rawAction)
		if err != nil {
			return err
		}
		t.Actions = append(t.Actions, action)
	}

	if len(t.Actions) == 0 && in.Command != "" {
		t.Actions = []RewardAction{CommandGrant{Command: in.Command}}
	}

	return nil
}
