// Package store provides persistence for recompute runs, trade packets,
// settings versions and the earnings calendar.
package store

import (
	"context"
	"time"

	"options-income/internal/models"
)

// RunStore persists recompute runs and their inputs.
type RunStore interface {
	// Settings versions
	SaveSettingsVersion(ctx context.Context, id string, settings interface{}) error
	GetSettingsVersion(ctx context.Context, id string) ([]byte, error)

	// Runs
	CreateRun(ctx context.Context, run *models.RunRecord) error
	CompleteRun(ctx context.Context, result *models.RunResult) error
	FailRun(ctx context.Context, runID, reason string, completedAt time.Time) error
	GetRun(ctx context.Context, runID string) (*models.RunRecord, error)
	GetRunResult(ctx context.Context, runID string) (*models.RunResult, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]models.RunRecord, error)
	GetPackets(ctx context.Context, runID string) ([]models.TradePacket, error)

	// Earnings calendar
	SaveEarnings(ctx context.Context, events []models.EarningsEvent) error
	ListEarnings(ctx context.Context, symbols []string) ([]models.EarningsEvent, error)
	NextEarnings(ctx context.Context, symbols []string, from time.Time) (map[string]time.Time, error)

	// Lifecycle
	Close() error
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	WorkspaceID string
	Status      models.RunStatus
	Limit       int
}
