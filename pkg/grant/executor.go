// Package grant is the boundary to the host systems that actually deliver
// rewards: inventory for item grants, the spawn system for pokemon grants,
// and the command dispatcher for command grants.
package grant

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/mdks/dexrewards/pkg/domain"
)

// Executor applies one reward action to a player. Supplied by the host; the
// claim engine invokes it once per action, in the tier's configured order.
//
// A returned error marks that one action as failed. The claim engine logs it
// and continues with the remaining actions; it does not roll back.
type Executor interface {
	Apply(ctx context.Context, playerID uuid.UUID, action domain.RewardAction) error
}

// ExpandCommandTokens substitutes the %player% and %uuid% tokens of a
// command grant. A convenience for host executors; the core never runs
// commands itself.
func ExpandCommandTokens(command, playerName string, playerID uuid.UUID) string {
	command = strings.ReplaceAll(command, "%player%", playerName)
	return strings.ReplaceAll(command, "%uuid%", playerID.String())
}
