package matching

import (
	"cmp"
	"fmt"
	"slices"

	"devmatch/internal/domain"
)

// Rank orders by score descending, then candidate id ascending, and keeps at
// most limit entries. The input slice is not modified.
func Rank(scored []ScoredCandidate, limit int) ([]ScoredCandidate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", domain.ErrInvalidArgument, limit)
	}

	out := make([]ScoredCandidate, len(scored))
	copy(out, scored)
	slices.SortFunc(out, compareScored)

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func compareScored(a, b ScoredCandidate) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.CandidateID.String(), b.CandidateID.String())
}
