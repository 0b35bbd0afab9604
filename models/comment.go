package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AnonymousUserName = "Anonymous"
	DefaultUserPhoto  = "/default-avatar.png"
)

// Comment is a visitor remark on a project.
type Comment struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	ProjectID string    `json:"projectId" db:"project_id" gorm:"type:text;not null;index:idx_comment_project_created"`
	UserID    string    `json:"userId" db:"user_id" gorm:"type:text;not null"`
	UserName  string    `json:"userName" db:"user_name" gorm:"type:text;not null"`
	UserPhoto string    `json:"userPhoto" db:"user_photo" gorm:"type:text;not null"`
	Text      string    `json:"text" db:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" gorm:"not null;autoCreateTime;index:idx_comment_project_created"`
}
