package scoring

import "github.com/okian/pickgrader/internal/domain/grade"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights sets the factor weights. They are validated by NewEngine.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithJitter sets the market-path jitter source. nil disables jitter.
func WithJitter(j JitterSource) Option {
	return func(e *Engine) {
		if j == nil {
			j = NoJitter{}
		}
		e.jitter = j
	}
}

// WithCompositeTable overrides the composite threshold table.
func WithCompositeTable(t grade.Table) Option {
	return func(e *Engine) {
		e.compositeTable = t
	}
}

// WithMarketTable overrides the market threshold table.
func WithMarketTable(t grade.Table) Option {
	return func(e *Engine) {
		e.marketTable = t
	}
}
