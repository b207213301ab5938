package matching

import (
	"testing"

	"devmatch/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_InvalidLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		_, err := Rank([]ScoredCandidate{{CandidateID: uuid.New(), Score: 1}}, limit)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}
}

func TestRank_SortsAndBreaksTiesByID(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	c := uuid.MustParse("00000000-0000-0000-0000-00000000000c")
	d := uuid.MustParse("00000000-0000-0000-0000-00000000000d")

	in := []ScoredCandidate{
		{CandidateID: c, Score: 0.5},
		{CandidateID: d, Score: 0.9},
		{CandidateID: b, Score: 0.5},
		{CandidateID: a, Score: 0.1},
	}
	got, err := Rank(in, 10)
	require.NoError(t, err)

	want := []uuid.UUID{d, b, c, a}
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i], got[i].CandidateID)
	}
	assert.Equal(t, c, in[0].CandidateID, "input must not be reordered")
}

func TestRank_Truncates(t *testing.T) {
	in := make([]ScoredCandidate, 0, 30)
	for i := 0; i < 30; i++ {
		in = append(in, ScoredCandidate{CandidateID: uuid.New(), Score: float64(i) / 30})
	}
	got, err := Rank(in, 7)
	require.NoError(t, err)
	require.Len(t, got, 7)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestRank_EmptyInput(t *testing.T) {
	got, err := Rank(nil, 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
