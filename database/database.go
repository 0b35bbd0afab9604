package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/models"
	"gorm.io/gorm"
)

// ProjectRepository is the project store. Not-found conditions wrap errs.ErrNotFound,
// slug collisions wrap errs.ErrAlreadyExists.
type ProjectRepository interface {
	FindAll(ctx context.Context) ([]*models.Project, error)
	FindPage(ctx context.Context, after *models.Cursor, limit int) ([]*models.Project, error)
	FindByID(ctx context.Context, id string) (*models.Project, error)
	FindBySlug(ctx context.Context, slug string) (*models.Project, error)
	Add(ctx context.Context, project *models.Project) error
	// Update overwrites the editable fields. Votes, view metadata, owner and creation time are kept.
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
	// ApplyVote adds star to the tally and identity to the voter set in one conditional write.
	// It returns errs.ErrAlreadyVoted when identity has voted before.
	ApplyVote(ctx context.Context, id, identity string, star int) (*models.Project, error)
	IncrementViews(ctx context.Context, id string) (*models.Project, error)
}

type CommentRepository interface {
	// FindByProject lists comments newest first.
	FindByProject(ctx context.Context, projectID string) ([]*models.Comment, error)
	Add(ctx context.Context, comment *models.Comment) error
}

type ContactRepository interface {
	FindAll(ctx context.Context) ([]*models.ContactMessage, error)
	Add(ctx context.Context, message *models.ContactMessage) error
}

type Database struct {
	projectRepo ProjectRepository
	commentRepo CommentRepository
	contactRepo ContactRepository
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		projectRepo: NewProjectRepo(db),
		commentRepo: NewCommentRepo(db),
		contactRepo: NewContactRepo(db),
	}
}

func (d Database) ProjectRepo() ProjectRepository {
	return d.projectRepo
}

func (d Database) CommentRepo() CommentRepository {
	return d.commentRepo
}

func (d Database) ContactRepo() ContactRepository {
	return d.contactRepo
}

// assignIdentity derives the primary key: the slug when one is given, a fresh UUID otherwise.
func assignIdentity(p *models.Project) {
	p.Slug = strings.TrimSpace(p.Slug)
	if p.ID == "" {
		if p.Slug != "" {
			p.ID = p.Slug
		} else {
			p.ID = uuid.NewString()
		}
	}
	if p.Slug == "" {
		p.Slug = p.ID
	}
}

func notFound(entity, key string) error {
	return fmt.Errorf("%s %s: %w", entity, key, errs.ErrNotFound)
}

// translate maps driver errors onto the errs sentinels the callers match on.
func translate(entity, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(entity, key)
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "duplicate key"):
		return fmt.Errorf("%s %s: %w", entity, key, errs.ErrAlreadyExists)
	default:
		return fmt.Errorf("%s %s: %w", entity, key, err)
	}
}
