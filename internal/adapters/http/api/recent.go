package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/pickgrader/internal/domain/model"
	"github.com/okian/pickgrader/internal/domain/scoring"
	"github.com/okian/pickgrader/pkg/logger"
)

const defaultRecentLimit = 20

// RecentDependencies defines the interface for archive reads.
type RecentDependencies interface {
	Recent(ctx context.Context, limit int) ([]model.GradedPick, error)
}

// RecentHandler serves recently graded picks.
type RecentHandler struct {
	deps     RecentDependencies
	maxLimit int
	logger   logger.Logger
}

// NewRecentHandler creates a new recent-picks handler.
func NewRecentHandler(deps RecentDependencies, maxLimit int, l logger.Logger) *RecentHandler {
	return &RecentHandler{deps: deps, maxLimit: maxLimit, logger: l}
}

type gradedPickResponse struct {
	PickID    string                `json:"pick_id"`
	GameID    string                `json:"game_id"`
	Market    string                `json:"market,omitempty"`
	Selection string                `json:"selection,omitempty"`
	Odds      int                   `json:"odds,omitempty"`
	Factors   *scoring.FactorScores `json:"factors,omitempty"`
	Result    scoring.Result        `json:"result"`
	TS        time.Time             `json:"ts"`
	GradedAt  time.Time             `json:"graded_at"`
}

// HandleGetRecent handles GET /picks/recent?limit=N requests.
func (h *RecentHandler) HandleGetRecent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_recent"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, ok := parseLimit(r, defaultRecentLimit, h.maxLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest, NewKind(op, ErrBadRequest))
		return
	}
	picks, err := h.deps.Recent(r.Context(), n)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	out := make([]gradedPickResponse, len(picks))
	for i, gp := range picks {
		out[i] = gradedPickResponse{
			PickID:    gp.Pick.PickID,
			GameID:    gp.Pick.GameID,
			Market:    gp.Pick.Market,
			Selection: gp.Pick.Selection,
			Odds:      gp.Pick.Odds,
			Factors:   gp.Pick.Factors,
			Result:    gp.Result,
			TS:        gp.Pick.TS,
			GradedAt:  gp.GradedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
