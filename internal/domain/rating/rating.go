// Package rating implements the Glicko-2 rating system used by every
// standings scope (historic, league and tournament).
//
// Values are kept on the display scale (about 1500-centred) everywhere
// outside this package. The engine converts to the internal mu/phi scale for
// the duration of one rating period and converts back before returning.
//
// See https://www.glicko.net/glicko/glicko2.pdf for the algorithm.
package rating

import (
	"fmt"
	"math"
)

// Default rating configuration constants.
const (
	DefaultRating     = 1500.0
	DefaultDeviation  = 350.0
	DefaultVolatility = 0.06
	DefaultTau        = 0.5
	DefaultEpsilon    = 1e-6

	// Scale converts between the display scale and the Glicko-2 scale.
	Scale = 173.7178

	ScoreWin  = 1.0
	ScoreDraw = 0.5
	ScoreLoss = 0.0

	defaultMaxIterations = 1000
)

// State is a rating snapshot for one entity in one scope.
type State struct {
	ID         string
	Rating     float64
	Deviation  float64
	Volatility float64
}

func (s State) String() string {
	return fmt.Sprintf("%s(rating=%.3f, rd=%.3f, sigma=%.6f)", s.ID, s.Rating, s.Deviation, s.Volatility)
}

// valid reports whether s satisfies the rating invariants.
func (s State) valid() bool {
	if math.IsNaN(s.Rating) || math.IsInf(s.Rating, 0) {
		return false
	}
	if !(s.Deviation > 0) || math.IsInf(s.Deviation, 0) {
		return false
	}
	return s.Volatility > 0 && !math.IsInf(s.Volatility, 0)
}

// Result is one game of a rating period seen from the rated player's side.
type Result struct {
	Score    float64
	Opponent State
}

// Params holds the engine configuration. It is copied into the engine at
// construction and never changes afterwards.
type Params struct {
	DefaultRating     float64
	DefaultDeviation  float64
	DefaultVolatility float64

	// Tau constrains the change in volatility over time.
	Tau float64
	// Epsilon is the convergence tolerance of the volatility solve.
	Epsilon float64

	Win  float64
	Draw float64
	Loss float64

	// MaxIterations bounds both loops of the volatility solve.
	MaxIterations int
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		DefaultRating:     DefaultRating,
		DefaultDeviation:  DefaultDeviation,
		DefaultVolatility: DefaultVolatility,
		Tau:               DefaultTau,
		Epsilon:           DefaultEpsilon,
		Win:               ScoreWin,
		Draw:              ScoreDraw,
		Loss:              ScoreLoss,
		MaxIterations:     defaultMaxIterations,
	}
}

// Validate checks the parameters for values the algorithm cannot work with.
func (p Params) Validate() error {
	switch {
	case !(p.Tau > 0):
		return fmt.Errorf("%w: tau must be positive, got %v", ErrInvalidParams, p.Tau)
	case !(p.Epsilon > 0):
		return fmt.Errorf("%w: epsilon must be positive, got %v", ErrInvalidParams, p.Epsilon)
	case !(p.DefaultDeviation > 0):
		return fmt.Errorf("%w: default deviation must be positive, got %v", ErrInvalidParams, p.DefaultDeviation)
	case !(p.DefaultVolatility > 0):
		return fmt.Errorf("%w: default volatility must be positive, got %v", ErrInvalidParams, p.DefaultVolatility)
	case p.MaxIterations <= 0:
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidParams, p.MaxIterations)
	}
	for _, score := range []float64{p.Win, p.Draw, p.Loss} {
		if score < 0 || score > 1 || math.IsNaN(score) {
			return fmt.Errorf("%w: outcome scores must be within [0,1], got %v", ErrInvalidParams, score)
		}
	}
	if !(p.Loss < p.Draw && p.Draw < p.Win) {
		return fmt.Errorf("%w: outcome scores must satisfy loss < draw < win", ErrInvalidParams)
	}
	return nil
}

// Option applies a configuration option to the engine parameters.
type Option func(*Params)

// WithTau sets the volatility constraint.
func WithTau(tau float64) Option {
	return func(p *Params) {
		p.Tau = tau
	}
}

// WithEpsilon sets the convergence tolerance.
func WithEpsilon(epsilon float64) Option {
	return func(p *Params) {
		p.Epsilon = epsilon
	}
}

// WithDefaults sets the starting values handed to newly rated entities.
func WithDefaults(rating, deviation, volatility float64) Option {
	return func(p *Params) {
		p.DefaultRating = rating
		p.DefaultDeviation = deviation
		p.DefaultVolatility = volatility
	}
}

// WithScores sets the actual scores for win, draw and loss. Some deployments
// shift win/loss away from 1 and 0 by a tiny epsilon.
func WithScores(win, draw, loss float64) Option {
	return func(p *Params) {
		p.Win = win
		p.Draw = draw
		p.Loss = loss
	}
}

// WithMaxIterations bounds the volatility root finding.
func WithMaxIterations(n int) Option {
	return func(p *Params) {
		p.MaxIterations = n
	}
}
