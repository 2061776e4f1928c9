package reward

import "time"

// Claim windows
const (
	Cooldown = 24 * time.Hour // minimum time between two claims
	Grace    = 48 * time.Hour // a claim later than this resets the streak
)

// Reward amounts (coins)
const (
	BaseReward      = 5000
	StreakBonusStep = 1000
	MaxBonusDays    = 6 // bonus stops growing after day 7
)

// MaxReward is the reward for any streak of MaxBonusDays+1 or more.
const MaxReward = BaseReward + MaxBonusDays*StreakBonusStep
