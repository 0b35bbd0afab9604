package votes

import (
	"testing"

	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverage(t *testing.T) {
	assert.Equal(t, 0.0, Average(State{}))
	assert.Equal(t, 0.0, Average(State{Total: 9}))
	assert.InDelta(t, 4.333333, Average(State{Total: 13, Count: 3}), 1e-6)
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{4.25, 4.3},
		{3.75, 3.8},
		{4.333, 4.3},
		{4.96, 5},
		{1.04, 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Round(tt.in), 1e-9, "Round(%v)", tt.in)
	}
}

func TestCastVote(t *testing.T) {
	base := State{Total: 4, Count: 1, Users: []string{"u1"}}

	t.Run("success", func(t *testing.T) {
		next, err := CastVote(base, "u2", 5)
		require.NoError(t, err)
		assert.Equal(t, State{Total: 9, Count: 2, Users: []string{"u1", "u2"}}, next)
		assert.Len(t, base.Users, 1)
	})

	t.Run("already voted", func(t *testing.T) {
		next, err := CastVote(base, "u1", 3)
		require.Error(t, err)
		assert.True(t, errs.IsAlreadyVoted(err))
		assert.Equal(t, base, next)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := CastVote(base, "", 3)
		assert.True(t, errs.IsAuthRequired(err))
	})

	for _, star := range []int{0, 6, -1} {
		_, err := CastVote(base, "u3", star)
		assert.True(t, errs.IsInvalidStar(err), "star %d", star)
	}
}

func TestCastVoteIsOrderIndependent(t *testing.T) {
	ballots := []struct {
		user string
		star int
	}{{"a", 5}, {"b", 1}, {"c", 3}, {"d", 4}}

	forward := State{}
	for _, b := range ballots {
		var err error
		forward, err = CastVote(forward, b.user, b.star)
		require.NoError(t, err)
	}

	backward := State{}
	for i := len(ballots) - 1; i >= 0; i-- {
		var err error
		backward, err = CastVote(backward, ballots[i].user, ballots[i].star)
		require.NoError(t, err)
	}

	assert.Equal(t, forward.Total, backward.Total)
	assert.Equal(t, forward.Count, backward.Count)
	assert.Equal(t, int64(13), forward.Total)
	assert.Equal(t, int64(len(forward.Users)), forward.Count)
}
