package brackets

import (
	"math/rand/v2"
)

// TeamSize is the number of players per team.
const TeamSize = 2

// IntN returns a uniformly distributed int in [0, n).
type IntN func(n int) int

// DefaultIntN is safe for concurrent use.
var DefaultIntN IntN = rand.IntN

// Shuffle permutes ids in place with Fisher–Yates, so every ordering is equally likely.
func Shuffle(ids []int, intN IntN) {
	for i := len(ids) - 1; i > 0; i-- {
		j := intN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// PairPlayers shuffles the pool and cuts it into consecutive teams of
// TeamSize. Leftover players (an odd pool) are not placed. The input slice
// is not modified.
func PairPlayers(userIDs []int, intN IntN) [][]int {
	if intN == nil {
		intN = DefaultIntN
	}
	pool := make([]int, len(userIDs))
	copy(pool, userIDs)
	Shuffle(pool, intN)

	teams := make([][]int, 0, len(pool)/TeamSize)
	for i := 0; i+TeamSize <= len(pool); i += TeamSize {
		teams = append(teams, pool[i:i+TeamSize:i+TeamSize])
	}
	return teams
}

// TeamName returns "Team A", "Team B", …, "Team Z", "Team AA", … for index 0, 1, ….
func TeamName(index int) string {
	var suffix []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		suffix = append([]byte{byte('A' + (n-1)%26)}, suffix...)
	}
	return "Team " + string(suffix)
}
