package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/lib/pq"
	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/models"
)

const (
	projectTable = "projects"
	commentTable = "comments"
	contactTable = "contact_messages"
)

type commentRecord struct {
	ID        string
	ProjectID string
	Comment   *models.Comment
}

type contactRecord struct {
	ID      string
	Message *models.ContactMessage
}

func memorySchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			projectTable: {
				Name: projectTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id":   {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"slug": {Name: "slug", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Slug"}},
				},
			},
			commentTable: {
				Name: commentTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id":      {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"project": {Name: "project", Indexer: &memdb.StringFieldIndex{Field: "ProjectID"}},
				},
			},
			contactTable: {
				Name: contactTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
				},
			},
		},
	}
}

// NewMemory builds a Database backed by go-memdb. Every write runs in a memdb write
// transaction, which memdb serializes, so the vote gate and view counter stay atomic.
func NewMemory() (Database, error) {
	db, err := memdb.NewMemDB(memorySchema())
	if err != nil {
		return Database{}, fmt.Errorf("create memory store: %w", err)
	}
	return Database{
		projectRepo: &MemoryProjectRepo{db: db, now: time.Now},
		commentRepo: &MemoryCommentRepo{db: db, now: time.Now},
		contactRepo: &MemoryContactRepo{db: db, now: time.Now},
	}, nil
}

type MemoryProjectRepo struct {
	db  *memdb.MemDB
	now func() time.Time
}

func (r *MemoryProjectRepo) all() ([]*models.Project, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(projectTable, "id")
	if err != nil {
		return nil, err
	}

	var projects []*models.Project
	for obj := it.Next(); obj != nil; obj = it.Next() {
		p := obj.(*models.Project).Clone()
		p.ApplyDefaults()
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].ID > projects[j].ID
		}
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

func (r *MemoryProjectRepo) FindAll(ctx context.Context) ([]*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.all()
}

func (r *MemoryProjectRepo) FindPage(ctx context.Context, after *models.Cursor, limit int) ([]*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	projects, err := r.all()
	if err != nil {
		return nil, err
	}

	page := make([]*models.Project, 0, limit)
	for _, p := range projects {
		if len(page) == limit {
			break
		}
		if after == nil || after.Precedes(p) {
			page = append(page, p)
		}
	}
	return page, nil
}

func (r *MemoryProjectRepo) find(index, key string) (*models.Project, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First(projectTable, index, key)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, notFound("project", key)
	}
	p := obj.(*models.Project).Clone()
	p.ApplyDefaults()
	return p, nil
}

func (r *MemoryProjectRepo) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.find("id", id)
}

func (r *MemoryProjectRepo) FindBySlug(ctx context.Context, slug string) (*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.find("slug", slug)
}

func (r *MemoryProjectRepo) Add(ctx context.Context, project *models.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	assignIdentity(project)
	project.ApplyDefaults()
	now := r.now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now
	project.Version = 0

	txn := r.db.Txn(true)
	defer txn.Abort()

	for _, index := range []string{"id", "slug"} {
		key := project.ID
		if index == "slug" {
			key = project.Slug
		}
		existing, err := txn.First(projectTable, index, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("project %s: %w", key, errs.ErrAlreadyExists)
		}
	}

	if err := txn.Insert(projectTable, project.Clone()); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *MemoryProjectRepo) Update(ctx context.Context, project *models.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First(projectTable, "id", project.ID)
	if err != nil {
		return err
	}
	if obj == nil {
		return notFound("project", project.ID)
	}
	current := obj.(*models.Project)

	project.ApplyDefaults()
	if project.Slug != current.Slug {
		clash, err := txn.First(projectTable, "slug", project.Slug)
		if err != nil {
			return err
		}
		if clash != nil {
			return fmt.Errorf("project %s: %w", project.Slug, errs.ErrAlreadyExists)
		}
	}

	next := project.Clone()
	next.Votes = models.Votes{Total: current.Votes.Total, Count: current.Votes.Count, Users: append(pq.StringArray(nil), current.Votes.Users...)}
	next.ExtraMetadata = current.Clone().ExtraMetadata
	next.OwnerID = current.OwnerID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = r.now()
	next.Version = current.Version + 1

	if err := txn.Delete(projectTable, current); err != nil {
		return err
	}
	if err := txn.Insert(projectTable, next); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Delete removes the project and its comments in one transaction.
func (r *MemoryProjectRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First(projectTable, "id", id)
	if err != nil {
		return err
	}
	if obj == nil {
		return notFound("project", id)
	}
	if err := txn.Delete(projectTable, obj); err != nil {
		return err
	}
	if _, err := txn.DeleteAll(commentTable, "project", id); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *MemoryProjectRepo) ApplyVote(ctx context.Context, id, identity string, star int) (*models.Project, error) {
	return r.mutate(ctx, id, func(p *models.Project) error {
		for _, u := range p.Votes.Users {
			if u == identity {
				return errs.ErrAlreadyVoted
			}
		}
		p.Votes.Total += int64(star)
		p.Votes.Count++
		p.Votes.Users = append(p.Votes.Users, identity)
		return nil
	})
}

func (r *MemoryProjectRepo) IncrementViews(ctx context.Context, id string) (*models.Project, error) {
	return r.mutate(ctx, id, func(p *models.Project) error {
		p.ApplyDefaults()
		p.ExtraMetadata["views"] = p.Views() + 1
		return nil
	})
}

// mutate applies fn to a copy of the stored project inside a write transaction and
// commits only when fn succeeds. Every commit bumps Version.
func (r *MemoryProjectRepo) mutate(ctx context.Context, id string, fn func(*models.Project) error) (*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First(projectTable, "id", id)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, notFound("project", id)
	}

	next := obj.(*models.Project).Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Version++
	if err := txn.Insert(projectTable, next); err != nil {
		return nil, err
	}
	txn.Commit()

	out := next.Clone()
	out.ApplyDefaults()
	return out, nil
}

type MemoryCommentRepo struct {
	db  *memdb.MemDB
	now func() time.Time
}

func (r *MemoryCommentRepo) FindByProject(ctx context.Context, projectID string) ([]*models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(commentTable, "project", projectID)
	if err != nil {
		return nil, err
	}

	var comments []*models.Comment
	for obj := it.Next(); obj != nil; obj = it.Next() {
		c := *obj.(*commentRecord).Comment
		comments = append(comments, &c)
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	return comments, nil
}

func (r *MemoryCommentRepo) Add(ctx context.Context, comment *models.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	project, err := txn.First(projectTable, "id", comment.ProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		return notFound("project", comment.ProjectID)
	}

	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = r.now()
	}
	stored := *comment
	if err := txn.Insert(commentTable, &commentRecord{ID: stored.ID.String(), ProjectID: stored.ProjectID, Comment: &stored}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

type MemoryContactRepo struct {
	db  *memdb.MemDB
	now func() time.Time
}

func (r *MemoryContactRepo) FindAll(ctx context.Context) ([]*models.ContactMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(contactTable, "id")
	if err != nil {
		return nil, err
	}

	var messages []*models.ContactMessage
	for obj := it.Next(); obj != nil; obj = it.Next() {
		m := *obj.(*contactRecord).Message
		messages = append(messages, &m)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return messages, nil
}

func (r *MemoryContactRepo) Add(ctx context.Context, message *models.ContactMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = r.now()
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	stored := *message
	if err := txn.Insert(contactTable, &contactRecord{ID: stored.ID.String(), Message: &stored}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
