// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/pickgrader/internal/domain/model"
	"github.com/okian/pickgrader/internal/domain/scoring"
	"github.com/okian/pickgrader/internal/domain/types"
	"github.com/okian/pickgrader/pkg/logger"
)

const (
	defaultMaxBoardLimit = 100
	defaultMaxBatchSize  = 500
	maxBodyBytes         = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PickDependencies
	GradeDependencies
	BoardDependencies
	RecentDependencies
	StatsProvider
}

// Entry mirrors the read shape returned by board queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	picksHandler  *PicksHandler
	gradeHandler  *GradeHandler
	boardHandler  *BoardHandler
	recentHandler *RecentHandler

	maxBoardLimit int
	maxBatchSize  int
	logger        logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMaxBoardLimit caps the limit accepted by /board and /picks/recent.
func WithMaxBoardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBoardLimit = n
		}
	}
}

// WithMaxBatchSize caps the number of picks accepted by /grade/batch.
func WithMaxBatchSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxBoardLimit: defaultMaxBoardLimit,
		maxBatchSize:  defaultMaxBatchSize,
		logger:        logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.picksHandler = NewPicksHandler(deps, s.logger)
	s.gradeHandler = NewGradeHandler(deps, s.maxBatchSize, s.logger)
	s.boardHandler = NewBoardHandler(deps, s.maxBoardLimit, s.logger)
	s.recentHandler = NewRecentHandler(deps, s.maxBoardLimit, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/picks", MetricsMiddleware(s.picksHandler.HandlePostPick, "picks"))
	mux.HandleFunc("/picks/recent", MetricsMiddleware(s.recentHandler.HandleGetRecent, "picks_recent"))
	mux.HandleFunc("/grade", MetricsMiddleware(s.gradeHandler.HandleGrade, "grade"))
	mux.HandleFunc("/grade/batch", MetricsMiddleware(s.gradeHandler.HandleGradeBatch, "grade_batch"))
	mux.HandleFunc("/board", MetricsMiddleware(s.boardHandler.HandleGetBoard, "board"))
	mux.HandleFunc("/board/", MetricsMiddleware(s.boardHandler.HandleGetGame, "board_game"))
}

// pickRequest is the wire shape of a pick. Market fields are optional as a
// group; factors are optional as a block.
type pickRequest struct {
	PickID           string                  `json:"pick_id"`
	GameID           string                  `json:"game_id"`
	Market           string                  `json:"market"`
	Selection        string                  `json:"selection"`
	Odds             *int                    `json:"odds"`
	ModelProbability *float64                `json:"model_probability"`
	Confidence       *float64                `json:"confidence"`
	Factors          *scoring.PartialFactors `json:"factors"`
	TS               string                  `json:"ts"`
}

func (p pickRequest) hasMarket() bool {
	return p.Odds != nil || p.ModelProbability != nil || p.Confidence != nil
}

// toPick resolves optional fields into a model.Pick, returning typed scoring
// errors for bad factor or market values.
func (p pickRequest) toPick() (model.Pick, error) {
	out := model.Pick{
		PickID:    strings.TrimSpace(p.PickID),
		GameID:    strings.TrimSpace(p.GameID),
		Market:    p.Market,
		Selection: p.Selection,
	}
	if p.TS != "" {
		ts, err := time.Parse(time.RFC3339, p.TS)
		if err != nil {
			return model.Pick{}, errors.New("invalid ts; must be RFC3339")
		}
		out.TS = ts
	}
	if p.Factors == nil && !p.hasMarket() {
		return model.Pick{}, scoring.ErrEmptyInput
	}
	if p.Factors != nil {
		f, err := p.Factors.Resolve()
		if err != nil {
			return model.Pick{}, err
		}
		out.Factors = &f
	}
	if p.hasMarket() {
		m, err := scoring.PartialMarket{
			Odds:             p.Odds,
			ModelProbability: p.ModelProbability,
			Confidence:       p.Confidence,
		}.Resolve()
		if err != nil {
			return model.Pick{}, err
		}
		out.Odds, out.ModelProbability, out.Confidence = m.Odds, m.ModelProbability, m.Confidence
	}
	return out, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure writes err with the status and code its kind maps to. Server
// errors are logged; client errors are not.
func writeFailure(ctx context.Context, w http.ResponseWriter, l logger.Logger, err error) {
	status, code := statusAndCode(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		l.Error(ctx, "request failed", logger.Error(err))
	}
	writeError(w, status, code, err)
}
