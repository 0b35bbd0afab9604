package api

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/saqr-syn/portfolio-backend/models"
	"github.com/saqr-syn/portfolio-backend/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastVote(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, &models.Project{Slug: "whispr", Name: "Whispr"})
	token := env.token(t, visitor)

	rec := env.do(t, http.MethodPost, "/api/projects/whispr/votes", VoteRequest{Star: 4}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/projects/whispr/votes", VoteRequest{Star: 6}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "star", decode[ErrorResponse](t, rec).Field)

	rec = env.do(t, http.MethodPost, "/api/projects/whispr/votes", VoteRequest{Star: 4}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rating := decode[RatingResponse](t, rec)
	assert.Equal(t, int64(4), rating.Votes.Total)
	assert.Equal(t, int64(1), rating.Votes.Count)
	assert.Equal(t, 4.0, rating.Rating)

	rec = env.do(t, http.MethodPost, "/api/projects/whispr/votes", VoteRequest{Star: 1}, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	stored, err := env.db.ProjectRepo().FindByID(context.Background(), "whispr")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.Votes.Total)
	assert.Equal(t, int64(1), stored.Votes.Count)
	assert.Equal(t, []string{visitor.ID}, []string(stored.Votes.Users))
}

func TestCastVoteRoundsForDisplay(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, &models.Project{Slug: "whispr", Name: "Whispr"})

	for i, star := range []int{5, 4, 4} {
		id := session.Identity{ID: "google:" + string(rune('a'+i))}
		rec := env.do(t, http.MethodPost, "/api/projects/whispr/votes", VoteRequest{Star: star}, env.token(t, id))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodGet, "/en/projects/whispr", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[ProjectDetailResponse](t, rec)
	assert.InDelta(t, 13.0/3.0, detail.Rating.Average, 1e-9)
	assert.Equal(t, 4.3, detail.Rating.Rating)
}

func TestCastVoteUnknownProject(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/projects/missing/votes", VoteRequest{Star: 3}, env.token(t, visitor))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCastVoteRejectsTamperedToken(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, &models.Project{Slug: "whispr", Name: "Whispr"})

	forged, err := session.NewIssuer("another-secret", 0).Issue(visitor)
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/projects/whispr/votes", VoteRequest{Star: 5}, forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConcurrentVotesFromOneIdentityCountOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, &models.Project{Slug: "whispr", Name: "Whispr"})
	token := env.token(t, visitor)

	const attempts = 20
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = env.do(t, http.MethodPost, "/api/projects/whispr/votes", VoteRequest{Star: 5}, token).Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusConflict, code)
		}
	}
	assert.Equal(t, 1, created)

	stored, err := env.db.ProjectRepo().FindByID(context.Background(), "whispr")
	require.NoError(t, err)
	assert.Equal(t, int64(5), stored.Votes.Total)
	assert.Equal(t, int64(1), stored.Votes.Count)
}
