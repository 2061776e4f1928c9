package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ugaemi/tapcoin-server/internal/progress"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS player_progress (
    player_id TEXT PRIMARY KEY,
    coins BIGINT NOT NULL DEFAULT 0,
    energy BIGINT NOT NULL DEFAULT 1000,
    max_energy BIGINT NOT NULL DEFAULT 1000,
    profit_per_hour BIGINT NOT NULL DEFAULT 0,
    level BIGINT NOT NULL DEFAULT 1,
    tap_power BIGINT NOT NULL DEFAULT 1,
    upgrades JSONB NOT NULL DEFAULT '[]',
    tasks JSONB NOT NULL DEFAULT '[]',
    completed_tasks JSONB NOT NULL DEFAULT '[]',
    last_daily_reward TIMESTAMPTZ,
    daily_streak INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PostgresConfig holds database connection settings.
type PostgresConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// PostgresStore implements ProgressStore using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and initializes the schema.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Get looks up the progress of a player.
func (s *PostgresStore) Get(ctx context.Context, playerID string) (*progress.PlayerProgress, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT player_id, coins, energy, max_energy, profit_per_hour, level, tap_power,
		        upgrades, tasks, completed_tasks, last_daily_reward, daily_streak, updated_at
		 FROM player_progress WHERE player_id = $1`, playerID)

	p, err := scanProgress(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return p, nil
}

// Upsert inserts or replaces the gameplay fields of a player.
func (s *PostgresStore) Upsert(ctx context.Context, p *progress.PlayerProgress) error {
	lists, err := encodeLists(p)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO player_progress
		     (player_id, coins, energy, max_energy, profit_per_hour, level, tap_power,
		      upgrades, tasks, completed_tasks, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10::jsonb, NOW())
		 ON CONFLICT (player_id) DO UPDATE SET
		     coins = EXCLUDED.coins,
		     energy = EXCLUDED.energy,
		     max_energy = EXCLUDED.max_energy,
		     profit_per_hour = EXCLUDED.profit_per_hour,
		     level = EXCLUDED.level,
		     tap_power = EXCLUDED.tap_power,
		     upgrades = EXCLUDED.upgrades,
		     tasks = EXCLUDED.tasks,
		     completed_tasks = EXCLUDED.completed_tasks,
		     updated_at = NOW()`,
		p.PlayerID, p.Coins, p.Energy, p.MaxEnergy, p.ProfitPerHour, p.Level, p.TapPower,
		string(lists.upgrades), string(lists.tasks), string(lists.completedTasks))
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// UpdateRewardFields credits a reward if the last claim is still the one the
// caller evaluated against.
func (s *PostgresStore) UpdateRewardFields(ctx context.Context, u RewardUpdate) (int64, error) {
	var coins int64
	err := s.pool.QueryRow(ctx,
		`UPDATE player_progress
		 SET coins = coins + $2,
		     last_daily_reward = $3,
		     daily_streak = $4,
		     updated_at = NOW()
		 WHERE player_id = $1
		   AND last_daily_reward IS NOT DISTINCT FROM $5::timestamptz
		 RETURNING coins`,
		u.PlayerID, u.Reward, u.LastReward, u.Streak, u.PrevLastReward).Scan(&coins)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("update reward fields: %w", err)
	}
	return coins, nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanProgress(row pgx.Row) (*progress.PlayerProgress, error) {
	var (
		p          progress.PlayerProgress
		lists      encodedLists
		lastReward *time.Time
	)
	err := row.Scan(&p.PlayerID, &p.Coins, &p.Energy, &p.MaxEnergy, &p.ProfitPerHour, &p.Level, &p.TapPower,
		&lists.upgrades, &lists.tasks, &lists.completedTasks, &lastReward, &p.DailyStreak, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := lists.decodeInto(&p); err != nil {
		return nil, err
	}
	if lastReward != nil {
		t := lastReward.UTC()
		p.LastDailyReward = &t
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
