package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/pickgrader/pkg/logger"
)

const defaultBoardLimit = 10

// BoardDependencies defines the interface for board reads.
type BoardDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	Recommendation(ctx context.Context, gameID string) (Entry, error)
}

// BoardHandler handles recommendation board requests.
type BoardHandler struct {
	deps     BoardDependencies
	maxLimit int
	logger   logger.Logger
}

// NewBoardHandler creates a new board handler.
func NewBoardHandler(deps BoardDependencies, maxLimit int, l logger.Logger) *BoardHandler {
	return &BoardHandler{deps: deps, maxLimit: maxLimit, logger: l}
}

// parseLimit reads ?limit=N, using def when absent and rejecting values
// outside [1, max].
func parseLimit(r *http.Request, def, maxLimit int) (int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return min(def, maxLimit), true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxLimit {
		return 0, false
	}
	return n, true
}

// HandleGetBoard handles GET /board?limit=N requests.
func (h *BoardHandler) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_board"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, ok := parseLimit(r, defaultBoardLimit, h.maxLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest, NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetGame handles GET /board/{game_id} requests.
func (h *BoardHandler) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_game"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	gameID := strings.TrimPrefix(r.URL.Path, "/board/")
	if gameID == "" || strings.Contains(gameID, "/") {
		writeError(w, http.StatusBadRequest, CodeBadRequest, NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.Recommendation(r.Context(), gameID)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
