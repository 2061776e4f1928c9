package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ugaemi/tapcoin-server/internal/progress"
	_ "modernc.org/sqlite"
)

// Timestamps are stored as unix milliseconds; JSON lists as TEXT.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS player_progress (
    player_id TEXT PRIMARY KEY,
    coins INTEGER NOT NULL DEFAULT 0,
    energy INTEGER NOT NULL DEFAULT 1000,
    max_energy INTEGER NOT NULL DEFAULT 1000,
    profit_per_hour INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    tap_power INTEGER NOT NULL DEFAULT 1,
    upgrades TEXT NOT NULL DEFAULT '[]',
    tasks TEXT NOT NULL DEFAULT '[]',
    completed_tasks TEXT NOT NULL DEFAULT '[]',
    last_daily_reward INTEGER,
    daily_streak INTEGER NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL
);
`

// SQLiteStore implements ProgressStore on a local SQLite file.
// It is meant for development and tests.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens the database at path and initializes the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single writer avoids SQLITE_BUSY on concurrent claims.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Get looks up the progress of a player.
func (s *SQLiteStore) Get(ctx context.Context, playerID string) (*progress.PlayerProgress, error) {
	var (
		p          progress.PlayerProgress
		lists      encodedLists
		lastReward sql.NullInt64
		updatedAt  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT player_id, coins, energy, max_energy, profit_per_hour, level, tap_power,
		        upgrades, tasks, completed_tasks, last_daily_reward, daily_streak, updated_at
		 FROM player_progress WHERE player_id = ?`, playerID).
		Scan(&p.PlayerID, &p.Coins, &p.Energy, &p.MaxEnergy, &p.ProfitPerHour, &p.Level, &p.TapPower,
			&lists.upgrades, &lists.tasks, &lists.completedTasks, &lastReward, &p.DailyStreak, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}

	if err := lists.decodeInto(&p); err != nil {
		return nil, err
	}
	if lastReward.Valid {
		t := fromMillis(lastReward.Int64)
		p.LastDailyReward = &t
	}
	p.UpdatedAt = fromMillis(updatedAt)
	return &p, nil
}

// Upsert inserts or replaces the gameplay fields of a player.
func (s *SQLiteStore) Upsert(ctx context.Context, p *progress.PlayerProgress) error {
	lists, err := encodeLists(p)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO player_progress
		     (player_id, coins, energy, max_energy, profit_per_hour, level, tap_power,
		      upgrades, tasks, completed_tasks, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (player_id) DO UPDATE SET
		     coins = excluded.coins,
		     energy = excluded.energy,
		     max_energy = excluded.max_energy,
		     profit_per_hour = excluded.profit_per_hour,
		     level = excluded.level,
		     tap_power = excluded.tap_power,
		     upgrades = excluded.upgrades,
		     tasks = excluded.tasks,
		     completed_tasks = excluded.completed_tasks,
		     updated_at = excluded.updated_at`,
		p.PlayerID, p.Coins, p.Energy, p.MaxEnergy, p.ProfitPerHour, p.Level, p.TapPower,
		string(lists.upgrades), string(lists.tasks), string(lists.completedTasks), toMillis(s.now()))
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// UpdateRewardFields credits a reward if the last claim is still the one the
// caller evaluated against.
func (s *SQLiteStore) UpdateRewardFields(ctx context.Context, u RewardUpdate) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var prev sql.NullInt64
	if u.PrevLastReward != nil {
		prev = sql.NullInt64{Int64: toMillis(*u.PrevLastReward), Valid: true}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE player_progress
		 SET coins = coins + ?,
		     last_daily_reward = ?,
		     daily_streak = ?,
		     updated_at = ?
		 WHERE player_id = ? AND last_daily_reward IS ?`,
		u.Reward, toMillis(u.LastReward), u.Streak, toMillis(s.now()), u.PlayerID, prev)
	if err != nil {
		return 0, fmt.Errorf("update reward fields: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update reward fields: %w", err)
	}
	if n == 0 {
		return 0, ErrConflict
	}

	var coins int64
	if err := tx.QueryRowContext(ctx,
		`SELECT coins FROM player_progress WHERE player_id = ?`, u.PlayerID).Scan(&coins); err != nil {
		return 0, fmt.Errorf("read coins: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return coins, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
