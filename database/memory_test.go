package database

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newTestDB(t *testing.T) Database {
	t.Helper()
	db, err := NewMemory()
	require.NoError(t, err)
	return db
}

func TestAddDerivesIDFromSlug(t *testing.T) {
	ctx := context.Background()
	repo := newTestDB(t).ProjectRepo()

	withSlug := &models.Project{Slug: "whispr", Name: "Whispr"}
	require.NoError(t, repo.Add(ctx, withSlug))
	assert.Equal(t, "whispr", withSlug.ID)

	noSlug := &models.Project{Name: "Untitled"}
	require.NoError(t, repo.Add(ctx, noSlug))
	assert.NotEmpty(t, noSlug.ID)
	assert.Equal(t, noSlug.ID, noSlug.Slug)

	err := repo.Add(ctx, &models.Project{Slug: "whispr", Name: "Again"})
	assert.True(t, errs.IsAlreadyExists(err))

	got, err := repo.FindBySlug(ctx, "whispr")
	require.NoError(t, err)
	assert.Equal(t, "Whispr", got.Name)
	assert.Equal(t, models.StatusInactive, got.Status)
}

func TestFindReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := newTestDB(t).ProjectRepo()
	require.NoError(t, repo.Add(ctx, &models.Project{Slug: "a", Tags: []string{"go"}}))

	p, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	p.Tags[0] = "mutated"

	again, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "go", again.Tags[0])
}

func TestFindPageKeyset(t *testing.T) {
	ctx := context.Background()
	repo := newTestDB(t).ProjectRepo()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		require.NoError(t, repo.Add(ctx, &models.Project{Slug: fmt.Sprintf("p%d", i), CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	first, err := repo.FindPage(ctx, nil, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "p6", first[0].ID)

	last := first[2]
	second, err := repo.FindPage(ctx, &models.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, 10)
	require.NoError(t, err)
	require.Len(t, second, 4)
	assert.Equal(t, "p3", second[0].ID)
	assert.Equal(t, "p0", second[3].ID)
}

func TestUpdateKeepsVotesAndViews(t *testing.T) {
	ctx := context.Background()
	repo := newTestDB(t).ProjectRepo()
	require.NoError(t, repo.Add(ctx, &models.Project{Slug: "whispr", Name: "Whispr", OwnerID: "owner"}))
	_, err := repo.ApplyVote(ctx, "whispr", "u1", 5)
	require.NoError(t, err)
	_, err = repo.IncrementViews(ctx, "whispr")
	require.NoError(t, err)

	edit := &models.Project{ID: "whispr", Slug: "whispr-chat", Name: "Whispr Chat", ExtraMetadata: datatypes.JSONMap{}}
	require.NoError(t, repo.Update(ctx, edit))

	got, err := repo.FindBySlug(ctx, "whispr-chat")
	require.NoError(t, err)
	assert.Equal(t, "Whispr Chat", got.Name)
	assert.Equal(t, int64(5), got.Votes.Total)
	assert.Equal(t, int64(1), got.Views())
	assert.Equal(t, "owner", got.OwnerID)

	_, err = repo.FindBySlug(ctx, "whispr")
	assert.True(t, errs.IsNotFound(err))

	assert.True(t, errs.IsNotFound(repo.Update(ctx, &models.Project{ID: "ghost"})))
}

func TestDeleteCascadesComments(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.ProjectRepo().Add(ctx, &models.Project{Slug: "whispr"}))
	require.NoError(t, db.CommentRepo().Add(ctx, &models.Comment{ProjectID: "whispr", UserID: "u1", Text: "nice"}))

	require.NoError(t, db.ProjectRepo().Delete(ctx, "whispr"))

	comments, err := db.CommentRepo().FindByProject(ctx, "whispr")
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.True(t, errs.IsNotFound(db.ProjectRepo().Delete(ctx, "whispr")))
}

func TestApplyVoteGate(t *testing.T) {
	ctx := context.Background()
	repo := newTestDB(t).ProjectRepo()
	require.NoError(t, repo.Add(ctx, &models.Project{Slug: "whispr"}))

	p, err := repo.ApplyVote(ctx, "whispr", "u1", 4)
	require.NoError(t, err)
	assert.Equal(t, models.Votes{Total: 4, Count: 1, Users: []string{"u1"}}, p.Votes)

	_, err = repo.ApplyVote(ctx, "whispr", "u1", 5)
	assert.True(t, errs.IsAlreadyVoted(err))

	_, err = repo.ApplyVote(ctx, "ghost", "u1", 5)
	assert.True(t, errs.IsNotFound(err))

	p, err = repo.FindByID(ctx, "whispr")
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.Votes.Total)
}

func TestApplyVoteConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := newTestDB(t).ProjectRepo()
	require.NoError(t, repo.Add(ctx, &models.Project{Slug: "whispr"}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 20; i++ {
		for dup := 0; dup < 3; dup++ {
			wg.Add(1)
			go func(user string) {
				defer wg.Done()
				if _, err := repo.ApplyVote(ctx, "whispr", user, 3); err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}(fmt.Sprintf("u%d", i))
		}
	}
	wg.Wait()

	p, err := repo.FindByID(ctx, "whispr")
	require.NoError(t, err)
	assert.Equal(t, 20, accepted)
	assert.Equal(t, int64(20), p.Votes.Count)
	assert.Equal(t, int64(60), p.Votes.Total)
	assert.Len(t, p.Votes.Users, 20)
	assert.Equal(t, int64(20), p.Version)
}

func TestCommittedWritesBumpVersion(t *testing.T) {
	ctx := context.Background()
	repo := newTestDB(t).ProjectRepo()
	require.NoError(t, repo.Add(ctx, &models.Project{Slug: "whispr", Version: 42}))

	p, err := repo.FindByID(ctx, "whispr")
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Version)

	voted, err := repo.ApplyVote(ctx, "whispr", "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), voted.Version)

	_, err = repo.ApplyVote(ctx, "whispr", "u1", 5)
	require.ErrorIs(t, err, errs.ErrAlreadyVoted)

	viewed, err := repo.IncrementViews(ctx, "whispr")
	require.NoError(t, err)
	assert.Equal(t, int64(2), viewed.Version)

	edit := viewed.Clone()
	edit.Name = "Whispr"
	edit.Version = 0
	require.NoError(t, repo.Update(ctx, edit))

	p, err = repo.FindByID(ctx, "whispr")
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.Version)
}

func TestIncrementViewsConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := newTestDB(t).ProjectRepo()
	require.NoError(t, repo.Add(ctx, &models.Project{Slug: "whispr"}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.IncrementViews(ctx, "whispr")
		}()
	}
	wg.Wait()

	p, err := repo.FindByID(ctx, "whispr")
	require.NoError(t, err)
	assert.Equal(t, int64(50), p.Views())
}

func TestCommentsNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.ProjectRepo().Add(ctx, &models.Project{Slug: "whispr"}))

	base := time.Now()
	require.NoError(t, db.CommentRepo().Add(ctx, &models.Comment{ProjectID: "whispr", Text: "first", CreatedAt: base}))
	require.NoError(t, db.CommentRepo().Add(ctx, &models.Comment{ProjectID: "whispr", Text: "second", CreatedAt: base.Add(time.Second)}))

	comments, err := db.CommentRepo().FindByProject(ctx, "whispr")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Text)

	err = db.CommentRepo().Add(ctx, &models.Comment{ProjectID: "ghost", Text: "x"})
	assert.True(t, errs.IsNotFound(err))
}

func TestContactMessages(t *testing.T) {
	ctx := context.Background()
	repo := newTestDB(t).ContactRepo()

	msg := &models.ContactMessage{Name: "Sara", Email: "sara@example.com", Message: "Hello"}
	require.NoError(t, repo.Add(ctx, msg))
	assert.NotEqual(t, msg.ID.String(), "00000000-0000-0000-0000-000000000000")

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Hello", all[0].Message)
}
