package progress

import (
	"encoding/json"
	"strings"
	"time"
)

// Default values for a player that has never saved.
const (
	DefaultCoins         = 0
	DefaultEnergy        = 1000
	DefaultMaxEnergy     = 1000
	DefaultProfitPerHour = 0
	DefaultLevel         = 1
	DefaultTapPower      = 1
)

// List is an ordered sequence of opaque JSON values (upgrades, tasks).
// Elements are kept as raw JSON so numbers beyond float64 precision
// survive a save and load unchanged.
type List []json.RawMessage

// PlayerProgress is the persisted game state of one player.
type PlayerProgress struct {
	PlayerID        string     `json:"player_id"`
	Coins           int64      `json:"coins"`
	Energy          int64      `json:"energy"`
	MaxEnergy       int64      `json:"max_energy"`
	ProfitPerHour   int64      `json:"profit_per_hour"`
	Level           int64      `json:"level"`
	TapPower        int64      `json:"tap_power"`
	Upgrades        List       `json:"upgrades"`
	Tasks           List       `json:"tasks"`
	CompletedTasks  List       `json:"completed_tasks"`
	LastDailyReward *time.Time `json:"last_daily_reward,omitempty"`
	DailyStreak     int        `json:"daily_streak"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Default returns the zero-state progress for playerID.
func Default(playerID string) *PlayerProgress {
	return &PlayerProgress{
		PlayerID:       playerID,
		Coins:          DefaultCoins,
		Energy:         DefaultEnergy,
		MaxEnergy:      DefaultMaxEnergy,
		ProfitPerHour:  DefaultProfitPerHour,
		Level:          DefaultLevel,
		TapPower:       DefaultTapPower,
		Upgrades:       List{},
		Tasks:          List{},
		CompletedTasks: List{},
	}
}

// Data is the client-facing view returned by load-progress.
type Data struct {
	Coins         int64 `json:"coins"`
	Energy        int64 `json:"energy"`
	MaxEnergy     int64 `json:"max_energy"`
	ProfitPerHour int64 `json:"profit_per_hour"`
	Level         int64 `json:"level"`
	TapPower      int64 `json:"tap_power"`
	Upgrades      List  `json:"upgrades"`
	Tasks         List  `json:"tasks"`
}

// Data returns the client-facing view of p.
func (p *PlayerProgress) Data() Data {
	return Data{
		Coins:         p.Coins,
		Energy:        p.Energy,
		MaxEnergy:     p.MaxEnergy,
		ProfitPerHour: p.ProfitPerHour,
		Level:         p.Level,
		TapPower:      p.TapPower,
		Upgrades:      nonNil(p.Upgrades),
		Tasks:         nonNil(p.Tasks),
	}
}

// SaveRequest is the body of a save-progress call. Omitted fields are nil
// and fall back to the defaults.
type SaveRequest struct {
	PlayerID       string `json:"player_id"`
	Coins          *int64 `json:"coins"`
	Energy         *int64 `json:"energy"`
	MaxEnergy      *int64 `json:"max_energy"`
	ProfitPerHour  *int64 `json:"profit_per_hour"`
	Level          *int64 `json:"level"`
	TapPower       *int64 `json:"tap_power"`
	Upgrades       List   `json:"upgrades"`
	Tasks          List   `json:"tasks"`
	CompletedTasks List   `json:"completed_tasks"`
}

// ID returns the trimmed player id.
func (r *SaveRequest) ID() string {
	return strings.TrimSpace(r.PlayerID)
}

// Progress builds the record to persist, filling omitted fields with defaults.
func (r *SaveRequest) Progress() *PlayerProgress {
	p := Default(r.ID())
	p.Coins = valueOr(r.Coins, DefaultCoins)
	p.Energy = valueOr(r.Energy, DefaultEnergy)
	p.MaxEnergy = valueOr(r.MaxEnergy, DefaultMaxEnergy)
	p.ProfitPerHour = valueOr(r.ProfitPerHour, DefaultProfitPerHour)
	p.Level = valueOr(r.Level, DefaultLevel)
	p.TapPower = valueOr(r.TapPower, DefaultTapPower)
	p.Upgrades = nonNil(r.Upgrades)
	p.Tasks = nonNil(r.Tasks)
	p.CompletedTasks = nonNil(r.CompletedTasks)
	return p
}

func valueOr(v *int64, fallback int64) int64 {
	if v == nil {
		return fallback
	}
	return *v
}

func nonNil(l List) List {
	if l == nil {
		return List{}
	}
	return l
}
