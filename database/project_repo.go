package database

import (
	"context"
	"errors"

	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/models"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

const incrementViewsExpr = `jsonb_set(COALESCE(extra_metadata, '{}'::jsonb), '{views}', to_jsonb(COALESCE((extra_metadata->>'views')::bigint, 0) + 1))`

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// FindAll returns all projects, newest first
func (r *ProjectRepo) FindAll(ctx context.Context) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&projects).Error
	return projects, err
}

// FindPage returns up to limit projects after the cursor using keyset pagination
func (r *ProjectRepo) FindPage(ctx context.Context, after *models.Cursor, limit int) ([]*models.Project, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit)
	if after != nil {
		q = q.Where("(created_at, id) < (?, ?)", after.CreatedAt, after.ID)
	}

	var projects []*models.Project
	err := q.Find(&projects).Error
	return projects, err
}

// FindByID reads from the primary so admin edits see their own writes
func (r *ProjectRepo) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Clauses(dbresolver.Write).First(&project, "id = ?", id).Error
	if err != nil {
		return nil, translate("project", id, err)
	}
	return &project, nil
}

func (r *ProjectRepo) FindBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).First(&project, "slug = ?", slug).Error
	if err != nil {
		return nil, translate("project", slug, err)
	}
	return &project, nil
}

// Add inserts a new project into the database
func (r *ProjectRepo) Add(ctx context.Context, project *models.Project) error {
	assignIdentity(project)
	project.ApplyDefaults()
	project.Version = 0
	return translate("project", project.Slug, r.db.WithContext(ctx).Create(project).Error)
}

// Update writes the editable columns of an existing project
func (r *ProjectRepo) Update(ctx context.Context, project *models.Project) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", project.ID).Updates(editableColumns(project))
	if res.Error != nil {
		return translate("project", project.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("project", project.ID)
	}
	return nil
}

// Delete removes a project; its comments go with it through the foreign key
func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	if res.Error != nil {
		return translate("project", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("project", id)
	}
	return nil
}

func (r *ProjectRepo) ApplyVote(ctx context.Context, id, identity string, star int) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The WHERE clause is re-evaluated after any concurrent writer commits, so the
		// same identity can only pass the gate once.
		res := tx.Model(&models.Project{}).
			Where("id = ? AND NOT (? = ANY(vote_users))", id, identity).
			UpdateColumns(map[string]interface{}{
				"vote_total": gorm.Expr("vote_total + ?", star),
				"vote_count": gorm.Expr("vote_count + 1"),
				"vote_users": gorm.Expr("array_append(vote_users, ?)", identity),
				"version":    gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if err := tx.First(&project, "id = ?", id).Error; err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return errs.ErrAlreadyVoted
		}
		return nil
	})
	if errors.Is(err, errs.ErrAlreadyVoted) {
		return nil, err
	}
	if err != nil {
		return nil, translate("project", id, err)
	}
	return &project, nil
}

func (r *ProjectRepo) IncrementViews(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Project{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
			"extra_metadata": gorm.Expr(incrementViewsExpr),
			"version":        gorm.Expr("version + 1"),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&project, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate("project", id, err)
	}
	return &project, nil
}

// editableColumns also bumps version so live subscribers can order the write
func editableColumns(p *models.Project) map[string]interface{} {
	p.ApplyDefaults()
	return map[string]interface{}{
		"slug":            p.Slug,
		"name":            p.Name,
		"short":           p.Short,
		"description":     p.Description,
		"year":            p.Year,
		"developer":       p.Developer,
		"developer_role":  p.DeveloperRole,
		"team_size":       p.TeamSize,
		"vision":          p.Vision,
		"tools":           p.Tools,
		"links":           p.Links,
		"video":           p.Video,
		"paid":            p.Paid,
		"price":           p.Price,
		"status":          p.Status,
		"type":            p.Type,
		"tags":            p.Tags,
		"screenshot_hero": p.ScreenshotHero,
		"screenshots":     p.Screenshots,
		"challenges":      p.Challenges,
		"solutions":       p.Solutions,
		"features":        p.Features,
		"stages":          p.Stages,
		"version":         gorm.Expr("version + 1"),
	}
}
