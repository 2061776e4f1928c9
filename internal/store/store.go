package store

import (
	"context"
	"errors"
	"time"

	"github.com/ugaemi/tapcoin-server/internal/progress"
)

var (
	// ErrNotFound is returned when no progress exists for a player.
	ErrNotFound = errors.New("player progress not found")
	// ErrConflict is returned when a reward update lost a race with another claim.
	ErrConflict = errors.New("player progress changed concurrently")
)

// RewardUpdate describes the write that follows a granted daily reward.
type RewardUpdate struct {
	PlayerID string
	// PrevLastReward is the last claim time read before evaluating the claim.
	// The update only applies if the stored value still matches it.
	PrevLastReward *time.Time
	Reward         int64
	LastReward     time.Time
	Streak         int
}

// ProgressStore defines the interface for persistent player progress.
type ProgressStore interface {
	// Get returns the progress of a player, or ErrNotFound.
	Get(ctx context.Context, playerID string) (*progress.PlayerProgress, error)
	// Upsert inserts or replaces the gameplay fields of a player and refreshes updated_at.
	// Daily reward fields are left untouched.
	Upsert(ctx context.Context, p *progress.PlayerProgress) error
	// UpdateRewardFields credits a granted reward and records the claim.
	// It returns the new coin balance, or ErrConflict.
	UpdateRewardFields(ctx context.Context, u RewardUpdate) (int64, error)
	// Ping checks the database connection.
	Ping(ctx context.Context) error
	// Close releases database resources.
	Close() error
}
