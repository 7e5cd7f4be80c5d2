package grant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mdks/dexrewards/pkg/domain"
)

// LogExecutor logs every grant and always succeeds. Useful as a default
// during local development before the host systems are wired in.
// For tests, use MockExecutor instead.
type LogExecutor struct {
	logger *slog.Logger
}

// NewLogExecutor creates a logging grant executor.
func NewLogExecutor(logger *slog.Logger) *LogExecutor {
	return &LogExecutor{logger: logger}
}

// Apply logs the action and returns success.
func (e *LogExecutor) Apply(ctx context.Context, playerID uuid.UUID, action domain.RewardAction) error {
	e.logger.Info("Grant applied",
		"player", playerID,
		"kind", action.Kind(),
		"reward", action.DisplayText(),
	)
	return nil
}
