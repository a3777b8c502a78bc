package brackets

import (
	"context"

	"github.com/Dosada05/boules-league/models"
)

type GenerateBracketParams struct {
	EventID int
	// Teams in pairing order; the order decides who meets whom and on which court.
	Teams []*models.Team
}

// BracketMatch is one planned match before it is persisted.
type BracketMatch struct {
	Round   int
	Court   int
	TeamAID int
	TeamBID int
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}
