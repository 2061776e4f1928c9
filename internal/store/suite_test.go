package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ugaemi/tapcoin-server/internal/progress"
)

func rawList(items ...string) progress.List {
	l := progress.List{}
	for _, item := range items {
		l = append(l, json.RawMessage(item))
	}
	return l
}

// assertListJSON compares lists by JSON value. PostgreSQL JSONB normalizes
// whitespace and key order, so byte equality only holds for SQLite.
func assertListJSON(t *testing.T, want, got progress.List) {
	t.Helper()
	w, err := json.Marshal(want)
	require.NoError(t, err)
	g, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(w), string(g))
}

// runStoreSuite exercises the ProgressStore contract against any implementation.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) ProgressStore) {
	t.Run("GetNotFound", func(t *testing.T) {
		s := newStore(t)

		p, err := s.Get(context.Background(), "nobody")
		assert.Nil(t, p)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("UpsertAndGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := &progress.PlayerProgress{
			PlayerID:       "player-1",
			Coins:          4200,
			Energy:         750,
			MaxEnergy:      1500,
			ProfitPerHour:  120,
			Level:          3,
			TapPower:       2,
			Upgrades:       rawList(`{"id":"mine","level":2}`),
			Tasks:          rawList(`"daily"`, `3`),
			CompletedTasks: rawList(`{"id":"join"}`),
		}
		require.NoError(t, s.Upsert(ctx, in))

		got, err := s.Get(ctx, "player-1")
		require.NoError(t, err)
		assert.Equal(t, in.Coins, got.Coins)
		assert.Equal(t, in.Energy, got.Energy)
		assert.Equal(t, in.MaxEnergy, got.MaxEnergy)
		assert.Equal(t, in.ProfitPerHour, got.ProfitPerHour)
		assert.Equal(t, in.Level, got.Level)
		assert.Equal(t, in.TapPower, got.TapPower)
		assertListJSON(t, in.Upgrades, got.Upgrades)
		assertListJSON(t, in.Tasks, got.Tasks)
		assertListJSON(t, in.CompletedTasks, got.CompletedTasks)
		assert.Nil(t, got.LastDailyReward)
		assert.Zero(t, got.DailyStreak)
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("ListsKeepLargeNumbers", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := progress.Default("player-big")
		in.Upgrades = rawList(`{"id":"x","cost":9007199254740993}`)
		in.Tasks = rawList(`12345678901234567890`)
		require.NoError(t, s.Upsert(ctx, in))

		got, err := s.Get(ctx, "player-big")
		require.NoError(t, err)
		require.Len(t, got.Upgrades, 1)
		require.Len(t, got.Tasks, 1)
		assert.Contains(t, string(got.Upgrades[0]), "9007199254740993")
		assert.Equal(t, "12345678901234567890", string(got.Tasks[0]))
	})

	t.Run("UpsertRefreshesUpdatedAt", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Upsert(ctx, progress.Default("player-ts")))
		first, err := s.Get(ctx, "player-ts")
		require.NoError(t, err)

		require.NoError(t, s.Upsert(ctx, progress.Default("player-ts")))
		second, err := s.Get(ctx, "player-ts")
		require.NoError(t, err)
		assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
	})

	t.Run("UpsertReplaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first := progress.Default("player-2")
		first.Coins = 10
		first.Tasks = rawList(`"a"`)
		require.NoError(t, s.Upsert(ctx, first))

		second := progress.Default("player-2")
		second.Coins = 99
		require.NoError(t, s.Upsert(ctx, second))

		got, err := s.Get(ctx, "player-2")
		require.NoError(t, err)
		assert.Equal(t, int64(99), got.Coins)
		assert.Equal(t, progress.List{}, got.Tasks)
	})

	t.Run("UpdateRewardFields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		p := progress.Default("player-3")
		p.Coins = 100
		require.NoError(t, s.Upsert(ctx, p))

		claimedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		coins, err := s.UpdateRewardFields(ctx, RewardUpdate{
			PlayerID:   "player-3",
			Reward:     5000,
			LastReward: claimedAt,
			Streak:     1,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5100), coins)

		got, err := s.Get(ctx, "player-3")
		require.NoError(t, err)
		assert.Equal(t, int64(5100), got.Coins)
		assert.Equal(t, 1, got.DailyStreak)
		require.NotNil(t, got.LastDailyReward)
		assert.True(t, claimedAt.Equal(*got.LastDailyReward))

		// Next claim evaluated against the stored timestamp succeeds.
		coins, err = s.UpdateRewardFields(ctx, RewardUpdate{
			PlayerID:       "player-3",
			PrevLastReward: got.LastDailyReward,
			Reward:         6000,
			LastReward:     claimedAt.Add(25 * time.Hour),
			Streak:         2,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(11100), coins)
	})

	t.Run("UpdateRewardFieldsConflict", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Upsert(ctx, progress.Default("player-4")))

		claimedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		_, err := s.UpdateRewardFields(ctx, RewardUpdate{
			PlayerID: "player-4", Reward: 5000, LastReward: claimedAt, Streak: 1,
		})
		require.NoError(t, err)

		// A second claim that also read "never claimed" must lose.
		_, err = s.UpdateRewardFields(ctx, RewardUpdate{
			PlayerID: "player-4", Reward: 5000, LastReward: claimedAt.Add(time.Second), Streak: 1,
		})
		assert.True(t, errors.Is(err, ErrConflict))

		got, err := s.Get(ctx, "player-4")
		require.NoError(t, err)
		assert.Equal(t, int64(5000), got.Coins)
	})

	t.Run("UpdateRewardFieldsUnknownPlayer", func(t *testing.T) {
		s := newStore(t)

		_, err := s.UpdateRewardFields(context.Background(), RewardUpdate{
			PlayerID: "ghost", Reward: 5000, LastReward: time.Now(), Streak: 1,
		})
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("ConcurrentClaimsGrantOnce", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Upsert(ctx, progress.Default("player-5")))

		const claims = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		claimedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		for i := 0; i < claims; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.UpdateRewardFields(ctx, RewardUpdate{
					PlayerID:   "player-5",
					Reward:     5000,
					LastReward: claimedAt.Add(time.Duration(i) * time.Millisecond),
					Streak:     1,
				})
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		got, err := s.Get(ctx, "player-5")
		require.NoError(t, err)
		assert.Equal(t, int64(5000), got.Coins)
	})

	t.Run("UpsertKeepsRewardFields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Upsert(ctx, progress.Default("player-6")))
		claimedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		_, err := s.UpdateRewardFields(ctx, RewardUpdate{
			PlayerID: "player-6", Reward: 5000, LastReward: claimedAt, Streak: 1,
		})
		require.NoError(t, err)

		p := progress.Default("player-6")
		p.Coins = 7000
		require.NoError(t, s.Upsert(ctx, p))

		got, err := s.Get(ctx, "player-6")
		require.NoError(t, err)
		assert.Equal(t, int64(7000), got.Coins)
		assert.Equal(t, 1, got.DailyStreak)
		require.NotNil(t, got.LastDailyReward)
		assert.True(t, claimedAt.Equal(*got.LastDailyReward))
	})

	t.Run("UpsertOverwritesCreditedCoins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		stale := progress.Default("player-7")
		stale.Coins = 100
		require.NoError(t, s.Upsert(ctx, stale))

		coins, err := s.UpdateRewardFields(ctx, RewardUpdate{
			PlayerID: "player-7", Reward: 5000, LastReward: time.Now().UTC(), Streak: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5100), coins)

		// balances are client-authoritative
		require.NoError(t, s.Upsert(ctx, stale))

		got, err := s.Get(ctx, "player-7")
		require.NoError(t, err)
		assert.Equal(t, int64(100), got.Coins)
		assert.Equal(t, 1, got.DailyStreak)
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}
