package brackets

import (
	"context"
	"fmt"
)

const firstRound = 1

// SingleRoundGenerator pairs consecutive teams into one round of matches,
// one court per match. An odd trailing team sits the round out.
type SingleRoundGenerator struct{}

func NewSingleRoundGenerator() BracketGenerator {
	return &SingleRoundGenerator{}
}

func (g *SingleRoundGenerator) GetName() string {
	return "SingleRound"
}

func (g *SingleRoundGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	teams := params.Teams
	matches := make([]*BracketMatch, 0, len(teams)/2)

	for k := 0; 2*k+1 < len(teams); k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, b := teams[2*k], teams[2*k+1]
		if a.ID == b.ID {
			return nil, fmt.Errorf("team %d listed twice in bracket input", a.ID)
		}
		matches = append(matches, &BracketMatch{
			Round:   firstRound,
			Court:   k + 1,
			TeamAID: a.ID,
			TeamBID: b.ID,
		})
	}
	return matches, nil
}
