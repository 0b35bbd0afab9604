package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/saqr-syn/portfolio-backend/database"
	"github.com/saqr-syn/portfolio-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToProjectSubscribers(t *testing.T) {
	hub := NewHub(4)
	ch, cancel := hub.Subscribe(context.Background(), "whispr")
	defer cancel()
	other, cancelOther := hub.Subscribe(context.Background(), "other")
	defer cancelOther()

	p := &models.Project{ID: "whispr", Version: 7}
	p.Votes.Total, p.Votes.Count = 9, 2
	hub.PublishProject(p)

	select {
	case s := <-ch:
		assert.Equal(t, uint64(7), s.Seq)
		assert.Equal(t, 4.5, s.Average)
		assert.Equal(t, 4.5, s.Rating)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
	assert.Empty(t, other)
}

func TestSlowSubscriberKeepsNewest(t *testing.T) {
	hub := NewHub(2)
	ch, cancel := hub.Subscribe(context.Background(), "p")
	defer cancel()

	for i := uint64(1); i <= 5; i++ {
		assert.True(t, hub.Publish(Snapshot{Seq: i, ProjectID: "p"}))
	}

	first := <-ch
	second := <-ch
	assert.Equal(t, uint64(4), first.Seq)
	assert.Equal(t, uint64(5), second.Seq)
}

func TestPublishDropsOlderCommit(t *testing.T) {
	hub := NewHub(4)
	ch, cancel := hub.Subscribe(context.Background(), "p")
	defer cancel()

	assert.True(t, hub.Publish(Snapshot{Seq: 2, ProjectID: "p"}))
	assert.False(t, hub.Publish(Snapshot{Seq: 1, ProjectID: "p"}))
	assert.False(t, hub.Publish(Snapshot{Seq: 2, ProjectID: "p"}))
	assert.True(t, hub.Publish(Snapshot{Seq: 3, ProjectID: "p"}))

	assert.Equal(t, uint64(2), (<-ch).Seq)
	assert.Equal(t, uint64(3), (<-ch).Seq)
	assert.Empty(t, ch)
}

func TestPublishWithoutSubscribersIsDropped(t *testing.T) {
	hub := NewHub(1)
	assert.False(t, hub.Publish(Snapshot{Seq: 1, ProjectID: "p"}))
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	hub := NewHub(1)
	ctx, cancelCtx := context.WithCancel(context.Background())
	ch, cancel := hub.Subscribe(ctx, "p")

	cancelCtx()
	require.Eventually(t, func() bool { return hub.Subscribers("p") == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-ch
	assert.False(t, open)

	cancel()
	assert.False(t, hub.Publish(Snapshot{Seq: 1, ProjectID: "p"}))
}

func TestConcurrentPublishersNeverRegress(t *testing.T) {
	hub := NewHub(128)
	ch, cancel := hub.Subscribe(context.Background(), "p")
	defer cancel()

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			hub.Publish(Snapshot{Seq: seq, ProjectID: "p"})
		}(uint64(i))
	}
	wg.Wait()

	var last uint64
	for len(ch) > 0 {
		s := <-ch
		assert.Greater(t, s.Seq, last)
		last = s.Seq
	}
	assert.Equal(t, uint64(100), last)
}

// Two votes commit in order but their publishes are swapped; viewers must settle
// on the state of the later commit.
func TestViewersConvergeOnLastCommittedVote(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewMemory()
	require.NoError(t, err)
	repo := db.ProjectRepo()
	require.NoError(t, repo.Add(ctx, &models.Project{Slug: "whispr"}))

	hub := NewHub(4)
	ch, cancel := hub.Subscribe(ctx, "whispr")
	defer cancel()

	first, err := repo.ApplyVote(ctx, "whispr", "u1", 5)
	require.NoError(t, err)
	second, err := repo.ApplyVote(ctx, "whispr", "u2", 3)
	require.NoError(t, err)

	hub.PublishProject(second)
	hub.PublishProject(first)

	var latest Latest
	for len(ch) > 0 {
		latest.Offer(<-ch)
	}
	got, ok := latest.Get()
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Votes.Count)
	assert.Equal(t, int64(8), got.Votes.Total)

	stored, err := repo.FindByID(ctx, "whispr")
	require.NoError(t, err)
	assert.Equal(t, uint64(stored.Version), got.Seq)
}

// A snapshot queued before the viewer read the project must not follow the initial state.
func TestInitialSnapshotOutranksQueuedOlderCommit(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewMemory()
	require.NoError(t, err)
	repo := db.ProjectRepo()
	require.NoError(t, repo.Add(ctx, &models.Project{Slug: "whispr"}))

	hub := NewHub(4)
	ch, cancel := hub.Subscribe(ctx, "whispr")
	defer cancel()

	voted, err := repo.ApplyVote(ctx, "whispr", "u1", 4)
	require.NoError(t, err)
	_, err = repo.IncrementViews(ctx, "whispr")
	require.NoError(t, err)
	hub.PublishProject(voted)

	current, err := repo.FindByID(ctx, "whispr")
	require.NoError(t, err)

	var latest Latest
	require.True(t, latest.Offer(SnapshotOf(current)))
	assert.False(t, latest.Offer(<-ch))

	got, _ := latest.Get()
	assert.Equal(t, int64(1), got.Views)
	assert.Equal(t, int64(1), got.Votes.Count)
}

func TestLatestDropsStale(t *testing.T) {
	var l Latest
	assert.True(t, l.Offer(Snapshot{Seq: 3}))
	assert.False(t, l.Offer(Snapshot{Seq: 2}))
	assert.False(t, l.Offer(Snapshot{Seq: 3}))
	assert.True(t, l.Offer(Snapshot{Seq: 4}))

	s, ok := l.Get()
	require.True(t, ok)
	assert.Equal(t, uint64(4), s.Seq)
}
