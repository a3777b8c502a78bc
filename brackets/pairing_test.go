package brackets

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) IntN {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)).IntN
}

func poolOf(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = 100 + i
	}
	return ids
}

func TestPairPlayers_Counts(t *testing.T) {
	tests := []struct {
		players   int
		wantTeams int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 1},
		{16, 8},
		{17, 8},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d players", tt.players), func(t *testing.T) {
			pool := poolOf(tt.players)
			teams := PairPlayers(pool, seeded(1))
			require.Len(t, teams, tt.wantTeams)

			seen := make(map[int]bool)
			for _, team := range teams {
				require.Len(t, team, TeamSize)
				assert.NotEqual(t, team[0], team[1])
				for _, id := range team {
					assert.False(t, seen[id], "player %d placed twice", id)
					assert.Contains(t, pool, id)
					seen[id] = true
				}
			}
			assert.Len(t, seen, tt.wantTeams*TeamSize)
		})
	}
}

func TestPairPlayers_DoesNotModifyInput(t *testing.T) {
	pool := poolOf(10)
	original := slices.Clone(pool)

	PairPlayers(pool, seeded(7))

	assert.Equal(t, original, pool)
}

func TestPairPlayers_FixedSourceIsDeterministic(t *testing.T) {
	pool := poolOf(12)
	assert.Equal(t, PairPlayers(pool, seeded(42)), PairPlayers(pool, seeded(42)))
}

func TestPairPlayers_IdentityShuffleKeepsOrder(t *testing.T) {
	// j == i on every step leaves the pool as is.
	identity := func(n int) int { return n - 1 }

	teams := PairPlayers([]int{1, 2, 3, 4, 5}, identity)

	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, teams)
}

func TestPairPlayers_NilSourceUsesDefault(t *testing.T) {
	teams := PairPlayers(poolOf(6), nil)
	assert.Len(t, teams, 3)
}

func TestShuffle_Uniform(t *testing.T) {
	const trials = 24000
	intN := seeded(2024)
	counts := make(map[[4]int]int)

	for range trials {
		ids := []int{1, 2, 3, 4}
		Shuffle(ids, intN)
		counts[[4]int(ids)]++
	}

	require.Len(t, counts, 24, "every permutation of four players should appear")
	expected := trials / 24
	for perm, n := range counts {
		assert.InDelta(t, expected, n, float64(expected)*0.2, "permutation %v", perm)
	}
}

func TestPairPlayers_TeammateFrequency(t *testing.T) {
	// With four players, any given two end up together a third of the time.
	const trials = 30000
	intN := seeded(99)
	together := 0

	for range trials {
		for _, team := range PairPlayers([]int{1, 2, 3, 4}, intN) {
			if slices.Contains(team, 1) && slices.Contains(team, 2) {
				together++
			}
		}
	}

	assert.InDelta(t, 1.0/3.0, float64(together)/trials, 0.02)
}

func TestTeamName(t *testing.T) {
	tests := map[int]string{
		0:  "Team A",
		1:  "Team B",
		25: "Team Z",
		26: "Team AA",
		27: "Team AB",
		51: "Team AZ",
		52: "Team BA",
	}
	for index, want := range tests {
		assert.Equal(t, want, TeamName(index), "index %d", index)
	}
}
