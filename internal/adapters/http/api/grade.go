package api

import (
	"context"
	"fmt"
	"net/http"

	service "github.com/okian/pickgrader/internal/app"
	"github.com/okian/pickgrader/internal/domain/model"
	"github.com/okian/pickgrader/internal/domain/scoring"
	"github.com/okian/pickgrader/pkg/logger"
)

// GradeDependencies defines the interface for synchronous grading.
type GradeDependencies interface {
	Grade(ctx context.Context, p model.Pick) (scoring.Result, error)
	GradeBatch(ctx context.Context, picks []model.Pick) ([]service.BatchItem, error)
}

// GradeHandler handles synchronous grading requests.
type GradeHandler struct {
	deps     GradeDependencies
	maxBatch int
	logger   logger.Logger
}

// NewGradeHandler creates a new grade handler.
func NewGradeHandler(deps GradeDependencies, maxBatch int, l logger.Logger) *GradeHandler {
	return &GradeHandler{deps: deps, maxBatch: maxBatch, logger: l}
}

type batchRequest struct {
	Picks []pickRequest `json:"picks"`
}

type batchItemResponse struct {
	Index  int             `json:"index"`
	Result *scoring.Result `json:"result,omitempty"`
	Error  *errorResponse  `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchItemResponse `json:"results"`
}

func itemError(err error) *errorResponse {
	_, code := statusAndCode(err)
	return &errorResponse{Code: code, Message: err.Error()}
}

// HandleGrade handles POST /grade and returns the result immediately.
func (h *GradeHandler) HandleGrade(w http.ResponseWriter, r *http.Request) {
	const op = "api.grade"
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
	res, err := h.deps.Grade(r.Context(), p)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGradeBatch handles POST /grade/batch. Item-level input errors are
// reported inline; the response keeps request order.
func (h *GradeHandler) HandleGradeBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.grade_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	switch {
	case len(req.Picks) == 0:
		writeError(w, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, service.ErrEmptyBatch))
		return
	case len(req.Picks) > h.maxBatch:
		err := fmt.Errorf("%w: %d > %d", service.ErrBatchTooLarge, len(req.Picks), h.maxBatch)
		writeError(w, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	out := batchResponse{Results: make([]batchItemResponse, len(req.Picks))}
	picks := make([]model.Pick, 0, len(req.Picks))
	index := make([]int, 0, len(req.Picks))
	for i, pr := range req.Picks {
		out.Results[i].Index = i
		p, err := pr.toPick()
		if err != nil {
			out.Results[i].Error = itemError(err)
			continue
		}
		picks = append(picks, p)
		index = append(index, i)
	}

	if len(picks) > 0 {
		items, err := h.deps.GradeBatch(r.Context(), picks)
		if err != nil {
			writeFailure(r.Context(), w, h.logger, Wrap(op, err))
			return
		}
		for j, it := range items {
			i := index[j]
			if it.Err != nil {
				out.Results[i].Error = itemError(it.Err)
				continue
			}
			out.Results[i].Result = it.Result
		}
	}
	writeJSON(w, http.StatusOK, out)
}
