package rating

import (
	"fmt"
	"math"
)

// Engine applies Glicko-2 rating periods. It is immutable and safe for
// concurrent use.
type Engine struct {
	params Params
}

// New creates an engine from the default parameters and the given options.
func New(opts ...Option) (*Engine, error) {
	p := DefaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: p}, nil
}

// Params returns a copy of the engine configuration.
func (e *Engine) Params() Params { return e.params }

// Initial returns the starting state for a newly rated entity.
func (e *Engine) Initial(id string) State {
	return State{
		ID:         id,
		Rating:     e.params.DefaultRating,
		Deviation:  e.params.DefaultDeviation,
		Volatility: e.params.DefaultVolatility,
	}
}

// Win, Draw and Loss build a series entry against opponent.
func (e *Engine) Win(opponent State) Result  { return Result{Score: e.params.Win, Opponent: opponent} }
func (e *Engine) Draw(opponent State) Result { return Result{Score: e.params.Draw, Opponent: opponent} }
func (e *Engine) Loss(opponent State) Result { return Result{Score: e.params.Loss, Opponent: opponent} }

// ScaleDown converts rating and deviation to the Glicko-2 scale (mu, phi).
// Rating is centred on the configured default rating.
func (e *Engine) ScaleDown(s State) (mu, phi float64) {
	return (s.Rating - e.params.DefaultRating) / Scale, s.Deviation / Scale
}

// ScaleUp converts mu and phi back to the display scale.
func (e *Engine) ScaleUp(id string, mu, phi, sigma float64) State {
	return State{
		ID:         id,
		Rating:     mu*Scale + e.params.DefaultRating,
		Deviation:  phi * Scale,
		Volatility: sigma,
	}
}

// Impact is g(phi): it reduces the weight of games against opponents with an
// uncertain rating.
func Impact(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

// Expect is E(mu, mu_j, phi_j) with g(phi_j) precomputed.
func Expect(mu, muOpponent, impact float64) float64 {
	return 1 / (1 + math.Exp(-impact*(mu-muOpponent)))
}

// Rate applies one rating period to s. An empty series is an idle period:
// only the deviation grows.
func (e *Engine) Rate(s State, series []Result) (State, error) {
	if !s.valid() {
		return State{}, fmt.Errorf("%w: %s", ErrInvalidState, s)
	}
	mu, phi := e.ScaleDown(s)
	if len(series) == 0 {
		phiStar := math.Sqrt(phi*phi + s.Volatility*s.Volatility)
		return e.ScaleUp(s.ID, mu, phiStar, s.Volatility), nil
	}

	var varianceInv, improvement float64
	for _, r := range series {
		if !r.Opponent.valid() {
			return State{}, fmt.Errorf("%w: opponent %s", ErrInvalidState, r.Opponent)
		}
		muJ, phiJ := e.ScaleDown(r.Opponent)
		g := Impact(phiJ)
		expected := Expect(mu, muJ, g)
		varianceInv += g * g * expected * (1 - expected)
		improvement += g * (r.Score - expected)
	}
	if !(varianceInv > 0) {
		return State{}, fmt.Errorf("%w: degenerate variance for %s", ErrNoConvergence, s)
	}
	variance := 1 / varianceInv
	delta := variance * improvement

	sigma, err := e.volatility(phi, s.Volatility, delta, variance)
	if err != nil {
		return State{}, fmt.Errorf("rate %s: %w", s.ID, err)
	}

	phiStar := math.Sqrt(phi*phi + sigma*sigma)
	phiNew := 1 / math.Sqrt(1/(phiStar*phiStar)+1/variance)
	muNew := mu + phiNew*phiNew*improvement

	return e.ScaleUp(s.ID, muNew, phiNew, sigma), nil
}

// volatility solves for sigma' with the Illinois variant of regula falsi
// (step 5 of the paper).
func (e *Engine) volatility(phi, sigma, delta, variance float64) (float64, error) {
	tau := e.params.Tau
	alpha := math.Log(sigma * sigma)
	delta2 := delta * delta
	phi2 := phi * phi

	f := func(x float64) float64 {
		ex := math.Exp(x)
		tmp := phi2 + variance + ex
		return ex*(delta2-phi2-variance-ex)/(2*tmp*tmp) - (x-alpha)/(tau*tau)
	}

	a := alpha
	var b float64
	if delta2 > phi2+variance {
		b = math.Log(delta2 - phi2 - variance)
	} else {
		k := 1
		for f(alpha-float64(k)*tau) < 0 {
			k++
			if k > e.params.MaxIterations {
				return 0, fmt.Errorf("%w: no bracket after %d steps", ErrNoConvergence, k)
			}
		}
		b = alpha - float64(k)*tau
	}

	fA, fB := f(a), f(b)
	for i := 0; math.Abs(b-a) > e.params.Epsilon; i++ {
		if i >= e.params.MaxIterations {
			return 0, fmt.Errorf("%w: |B-A|=%g after %d iterations", ErrNoConvergence, math.Abs(b-a), i)
		}
		c := a + (a-b)*fA/(fB-fA)
		fC := f(c)
		if math.IsNaN(fC) || math.IsInf(fC, 0) {
			return 0, fmt.Errorf("%w: f(%g) is not finite", ErrNoConvergence, c)
		}
		if fC*fB <= 0 {
			a, fA = b, fB
		} else {
			fA /= 2
		}
		b, fB = c, fC
	}
	return math.Exp(a / 2), nil
}

// Quality estimates how balanced a pairing is, in [0, 1]. Two identical
// ratings give 1.
func (e *Engine) Quality(a, b State) float64 {
	muA, phiA := e.ScaleDown(a)
	muB, phiB := e.ScaleDown(b)
	expected := (Expect(muA, muB, Impact(phiA)) + Expect(muB, muA, Impact(phiB))) / 2
	return 2 * (0.5 - math.Abs(0.5-expected))
}
