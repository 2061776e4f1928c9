package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ugaemi/tapcoin-server/internal/metrics"
	"github.com/ugaemi/tapcoin-server/internal/reward"
	"github.com/ugaemi/tapcoin-server/internal/store"
)

// RewardHandler grants daily rewards.
type RewardHandler struct {
	store   store.ProgressStore
	timeout time.Duration
	now     func() time.Time
}

// NewRewardHandler creates a new reward handler. now supplies the claim time.
func NewRewardHandler(store store.ProgressStore, timeout time.Duration, now func() time.Time) *RewardHandler {
	if now == nil {
		now = time.Now
	}
	return &RewardHandler{
		store:   store,
		timeout: timeout,
		now:     now,
	}
}

type claimRequest struct {
	PlayerID string `json:"player_id"`
}

type claimResponse struct {
	Success   bool  `json:"success"`
	Reward    int64 `json:"reward"`
	NewStreak int   `json:"new_streak"`
	NewCoins  int64 `json:"new_coins"`
}

type alreadyClaimedResponse struct {
	Error           string `json:"error"`
	TimeLeftSeconds int64  `json:"time_left_seconds"`
}

// HandleClaim grants the daily reward if the cooldown has elapsed.
func (h *RewardHandler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMsgMethodNotAllowed)
		return
	}

	var req claimRequest
	if err := decodeBody(w, r, &req); err != nil {
		logger(r).Warn("invalid claim request", "error", err)
		writeError(w, http.StatusBadRequest, errMsgInvalidBody)
		return
	}
	playerID := strings.TrimSpace(req.PlayerID)
	if playerID == "" {
		writeError(w, http.StatusBadRequest, errMsgPlayerIDRequired)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.store.Get(ctx, playerID)
	if errors.Is(err, store.ErrNotFound) {
		metrics.DailyClaimsTotal.WithLabelValues(metrics.ClaimNotFound).Inc()
		writeError(w, http.StatusNotFound, errMsgPlayerNotFound)
		return
	}
	if err != nil {
		h.fail(w, r, playerID, "failed to load progress", err)
		return
	}

	now := h.now().UTC()
	grant, err := reward.Evaluate(p.LastDailyReward, p.DailyStreak, now)
	var claimed *reward.AlreadyClaimedError
	if errors.As(err, &claimed) {
		metrics.DailyClaimsTotal.WithLabelValues(metrics.ClaimAlreadyClaimed).Inc()
		writeJSON(w, http.StatusBadRequest, alreadyClaimedResponse{
			Error:           errMsgAlreadyClaimed,
			TimeLeftSeconds: claimed.TimeLeftSeconds(),
		})
		return
	}
	if err != nil {
		h.fail(w, r, playerID, "failed to evaluate claim", err)
		return
	}

	coins, err := h.store.UpdateRewardFields(ctx, store.RewardUpdate{
		PlayerID:       playerID,
		PrevLastReward: p.LastDailyReward,
		Reward:         grant.Reward,
		LastReward:     now,
		Streak:         grant.NewStreak,
	})
	if errors.Is(err, store.ErrConflict) {
		// Another claim for this player committed first.
		metrics.DailyClaimsTotal.WithLabelValues(metrics.ClaimConflict).Inc()
		logger(r).Info("concurrent daily claim rejected", "player_id", playerID)
		writeJSON(w, http.StatusBadRequest, alreadyClaimedResponse{
			Error:           errMsgAlreadyClaimed,
			TimeLeftSeconds: int64(reward.Cooldown / time.Second),
		})
		return
	}
	if err != nil {
		h.fail(w, r, playerID, "failed to update reward fields", err)
		return
	}

	metrics.DailyClaimsTotal.WithLabelValues(metrics.ClaimGranted).Inc()
	metrics.DailyRewardCoinsTotal.Add(float64(grant.Reward))
	logger(r).Info("daily reward claimed",
		"player_id", playerID, "reward", grant.Reward, "streak", grant.NewStreak)

	writeJSON(w, http.StatusOK, claimResponse{
		Success:   true,
		Reward:    grant.Reward,
		NewStreak: grant.NewStreak,
		NewCoins:  coins,
	})
}

func (h *RewardHandler) fail(w http.ResponseWriter, r *http.Request, playerID, msg string, err error) {
	metrics.DailyClaimsTotal.WithLabelValues(metrics.ClaimError).Inc()
	logger(r).Error(msg, "player_id", playerID, "error", err)
	writeError(w, http.StatusInternalServerError, errMsgInternal)
}
