package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/saqr-syn/portfolio-backend/feed"
	"github.com/saqr-syn/portfolio-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readEvent returns the data line of the next SSE event, skipping heartbeats.
func readEvent(t *testing.T, r *bufio.Reader) feed.Snapshot {
	t.Helper()
	var data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && data != "":
			var snap feed.Snapshot
			require.NoError(t, json.Unmarshal([]byte(data), &snap))
			return snap
		}
	}
}

func TestProjectEventsStreamVotes(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, &models.Project{Slug: "whispr", Name: "Whispr"})

	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/projects/whispr/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := bufio.NewReader(resp.Body)
	initial := readEvent(t, events)
	assert.Equal(t, "whispr", initial.ProjectID)
	assert.Equal(t, int64(0), initial.Votes.Count)
	assert.Equal(t, uint64(0), initial.Seq)

	body, err := json.Marshal(VoteRequest{Star: 3})
	require.NoError(t, err)
	voteReq, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/api/projects/whispr/votes", bytes.NewReader(body))
	require.NoError(t, err)
	voteReq.Header.Set("Authorization", "Bearer "+env.token(t, visitor))
	voteResp, err := srv.Client().Do(voteReq)
	require.NoError(t, err)
	voteResp.Body.Close()
	require.Equal(t, http.StatusCreated, voteResp.StatusCode)

	update := readEvent(t, events)
	assert.Equal(t, uint64(1), update.Seq)
	assert.Equal(t, int64(1), update.Votes.Count)
	assert.Equal(t, 3.0, update.Rating)
}

func TestProjectEventsUnknownProject(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/projects/missing/events", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
