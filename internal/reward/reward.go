package reward

import (
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyClaimed matches any AlreadyClaimedError via errors.Is.
var ErrAlreadyClaimed = errors.New("daily reward already claimed")

// AlreadyClaimedError is returned when the cooldown has not elapsed yet.
type AlreadyClaimedError struct {
	TimeLeft time.Duration
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("daily reward already claimed, %s left", e.TimeLeft)
}

func (e *AlreadyClaimedError) Is(target error) bool {
	return target == ErrAlreadyClaimed
}

// TimeLeftSeconds returns the remaining cooldown in whole seconds.
func (e *AlreadyClaimedError) TimeLeftSeconds() int64 {
	return int64(e.TimeLeft / time.Second)
}

// Grant is the outcome of a successful claim.
type Grant struct {
	Reward    int64
	NewStreak int
}

// Evaluate decides whether a claim made at now is allowed, given the time of
// the previous claim (nil if the player never claimed) and the stored streak.
// The caller credits Grant.Reward and persists now as the new last claim.
func Evaluate(lastReward *time.Time, currentStreak int, now time.Time) (Grant, error) {
	streak := max(currentStreak, 0)

	if lastReward == nil {
		streak = 0
	} else {
		elapsed := now.Sub(*lastReward)
		if elapsed < Cooldown {
			return Grant{}, &AlreadyClaimedError{TimeLeft: min(Cooldown-elapsed, Cooldown)}
		}
		if elapsed > Grace {
			streak = 0
		}
	}

	newStreak := streak + 1
	return Grant{
		Reward:    RewardFor(newStreak),
		NewStreak: newStreak,
	}, nil
}

// RewardFor returns the coins granted for a claim that brings the streak to
// streak. Streaks below 1 are treated as a first claim.
func RewardFor(streak int) int64 {
	bonusDays := min(max(streak-1, 0), MaxBonusDays)
	return BaseReward + int64(bonusDays)*StreakBonusStep
}
