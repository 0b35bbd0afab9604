package database

import (
	"context"

	"github.com/saqr-syn/portfolio-backend/models"
	"gorm.io/gorm"
)

type CommentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db}
}

// FindByProject returns the comments of a project, newest first
func (r *CommentRepo) FindByProject(ctx context.Context, projectID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at DESC").Find(&comments).Error
	return comments, err
}

// Add inserts a new comment into the database
func (r *CommentRepo) Add(ctx context.Context, comment *models.Comment) error {
	return translate("comment on project", comment.ProjectID, r.db.WithContext(ctx).Create(comment).Error)
}
