package service

import (
	"fmt"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/outcome"
	"github.com/okian/ladder/internal/domain/rating"
	"github.com/okian/ladder/pkg/metrics"
)

// pairing is one scope's view of a match: the two standings it updates.
type pairing struct {
	scope    model.Scope
	aID, bID string
	a, b     *model.Standing
}

// seriesFor turns the games into each side's Glicko-2 series against the
// opponent's pre-match state. Unplayed games contribute nothing.
func (s *Service) seriesFor(games []outcome.Game, preA, preB rating.State) (forA, forB []rating.Result) {
	for _, g := range games {
		if r, ok := s.result(g, preB); ok {
			forA = append(forA, r)
		}
		if r, ok := s.result(g.Flip(), preA); ok {
			forB = append(forB, r)
		}
	}
	return forA, forB
}

// result scores one game from side A's point of view.
func (s *Service) result(g outcome.Game, opp rating.State) (rating.Result, bool) {
	switch g {
	case outcome.WinA:
		return s.engine.Win(opp), true
	case outcome.WinB:
		return s.engine.Loss(opp), true
	case outcome.Draw:
		return s.engine.Draw(opp), true
	default:
		return rating.Result{}, false
	}
}

// rateScope applies one Glicko-2 period to both sides of p.
func (s *Service) rateScope(p pairing, games []outcome.Game) error {
	preA, preB := p.a.State(p.aID), p.b.State(p.bID)
	forA, forB := s.seriesFor(games, preA, preB)

	postA, err := s.engine.Rate(preA, forA)
	if err != nil {
		return fmt.Errorf("%s rating of %s: %w", p.scope, p.aID, err)
	}
	postB, err := s.engine.Rate(preB, forB)
	if err != nil {
		return fmt.Errorf("%s rating of %s: %w", p.scope, p.bID, err)
	}
	p.a.Apply(postA)
	p.b.Apply(postB)
	metrics.RecordRateCalls(string(p.scope), 2)
	return nil
}

// decay inflates the deviation of a standing that sat a period out.
func (s *Service) decay(scope model.Scope, id string, st *model.Standing) error {
	post, err := s.engine.Rate(st.State(id), nil)
	if err != nil {
		return fmt.Errorf("%s decay of %s: %w", scope, id, err)
	}
	st.Apply(post)
	return nil
}
