package api

import (
	"context"
	"net/http"

	service "github.com/okian/pickgrader/internal/app"
	"github.com/okian/pickgrader/internal/domain/model"
	"github.com/okian/pickgrader/pkg/logger"
)

// PickDependencies defines the interface for pick submission.
type PickDependencies interface {
	Submit(ctx context.Context, p model.Pick) (service.SubmitStatus, error)
}

// PicksHandler handles pick submissions.
type PicksHandler struct {
	deps   PickDependencies
	logger logger.Logger
}

// NewPicksHandler creates a new picks handler.
func NewPicksHandler(deps PickDependencies, l logger.Logger) *PicksHandler {
	return &PicksHandler{deps: deps, logger: l}
}

type ackResponse struct {
	Status    string `json:"status"`
	PickID    string `json:"pick_id"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostPick handles POST /picks. Accepted picks are graded asynchronously.
func (h *PicksHandler) HandlePostPick(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_pick"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req pickRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	p, err := req.toPick()
	if err != nil {
		writeFailure(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}

	st, err := h.deps.Submit(r.Context(), p)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	if st.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", PickID: st.PickID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", PickID: st.PickID})
}
