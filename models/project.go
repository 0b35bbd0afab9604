package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusArchived = "archived"

	TypeWeb    = "web"
	TypeMobile = "mobile"
)

// Project is a portfolio entry. ID equals Slug when the project was created with one.
type Project struct {
	ID             string                     `json:"id" db:"id" gorm:"type:text;primaryKey;not null"`
	Slug           string                     `json:"slug" db:"slug" gorm:"type:text;not null;uniqueIndex:idx_project_slug"`
	Name           string                     `json:"name" db:"name" gorm:"type:text;not null"`
	Short          string                     `json:"short" db:"short" gorm:"type:text;not null;default:''"`
	Description    string                     `json:"description" db:"description" gorm:"type:text;not null;default:''"`
	Year           string                     `json:"year,omitempty" db:"year" gorm:"type:text"`
	Developer      string                     `json:"developer" db:"developer" gorm:"type:text;not null;default:''"`
	DeveloperRole  string                     `json:"developerRole,omitempty" db:"developer_role" gorm:"type:text"`
	TeamSize       int                        `json:"teamSize" db:"team_size" gorm:"type:integer;not null;default:1"`
	Vision         string                     `json:"vision,omitempty" db:"vision" gorm:"type:text"`
	Tools          pq.StringArray             `json:"tools" db:"tools" gorm:"type:text[];not null;default:'{}'"`
	Links          datatypes.JSONType[Links]  `json:"links" db:"links" gorm:"type:jsonb;not null;default:'{}'"`
	Video          string                     `json:"video,omitempty" db:"video" gorm:"type:text"`
	Paid           bool                       `json:"paid" db:"paid" gorm:"type:boolean;not null;default:false"`
	Price          float64                    `json:"price" db:"price" gorm:"type:numeric;not null;default:0"`
	Status         string                     `json:"status" db:"status" gorm:"type:text;not null;default:'inactive'"`
	Type           string                     `json:"type" db:"type" gorm:"type:text;not null;default:'web'"`
	Tags           pq.StringArray             `json:"tags" db:"tags" gorm:"type:text[];not null;default:'{}'"`
	ScreenshotHero string                     `json:"screenshotHero,omitempty" db:"screenshot_hero" gorm:"type:text"`
	Screenshots    pq.StringArray             `json:"screenshots" db:"screenshots" gorm:"type:text[];not null;default:'{}'"`
	Votes          Votes                      `json:"votes" gorm:"embedded;embeddedPrefix:vote_"`
	Challenges     pq.StringArray             `json:"challenges" db:"challenges" gorm:"type:text[];not null;default:'{}'"`
	Solutions      pq.StringArray             `json:"solutions" db:"solutions" gorm:"type:text[];not null;default:'{}'"`
	Features       pq.StringArray             `json:"features" db:"features" gorm:"type:text[];not null;default:'{}'"`
	Stages         datatypes.JSONSlice[Stage] `json:"stages" db:"stages" gorm:"type:jsonb;not null;default:'[]'"`
	ExtraMetadata  datatypes.JSONMap          `json:"extraMetadata" db:"extra_metadata" gorm:"type:jsonb;not null;default:'{}'"`
	Version        int64                      `json:"version" db:"version" gorm:"type:bigint;not null;default:0"`
	OwnerID        string                     `json:"ownerId,omitempty" db:"owner_id" gorm:"type:text"`
	CreatedAt      time.Time                  `json:"createdAt" db:"created_at" gorm:"not null;autoCreateTime;index:idx_project_created_at"`
	UpdatedAt      time.Time                  `json:"updatedAt" db:"updated_at" gorm:"not null;autoUpdateTime"`

	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

// Votes is the running star tally of a project. Users holds every identity that already voted.
type Votes struct {
	Total int64          `json:"total" db:"vote_total" gorm:"column:total;type:bigint;not null;default:0"`
	Count int64          `json:"count" db:"vote_count" gorm:"column:count;type:bigint;not null;default:0"`
	Users pq.StringArray `json:"users" db:"vote_users" gorm:"column:users;type:text[];not null;default:'{}'"`
}

type Links struct {
	Website        string `json:"website"`
	MobileDownload string `json:"mobileDownload,omitempty"`
	Github         string `json:"github,omitempty"`
	CodeRepo       string `json:"codeRepo,omitempty"`
}

type Stage struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
	Done  bool   `json:"done"`
	Date  string `json:"date,omitempty"`
	ETA   string `json:"eta,omitempty"`
}

// AfterFind fills the defaults of rows written before a column existed.
func (p *Project) AfterFind(tx *gorm.DB) error {
	p.ApplyDefaults()
	return nil
}

// ApplyDefaults normalises a record read from any store.
func (p *Project) ApplyDefaults() {
	if p.Slug == "" {
		p.Slug = p.ID
	}
	if p.Status == "" {
		p.Status = StatusInactive
	}
	if p.Type == "" {
		p.Type = TypeWeb
	}
	if p.TeamSize <= 0 {
		p.TeamSize = 1
	}
	if p.Tools == nil {
		p.Tools = pq.StringArray{}
	}
	if p.Tags == nil {
		p.Tags = pq.StringArray{}
	}
	if p.Screenshots == nil {
		p.Screenshots = pq.StringArray{}
	}
	if p.Challenges == nil {
		p.Challenges = pq.StringArray{}
	}
	if p.Solutions == nil {
		p.Solutions = pq.StringArray{}
	}
	if p.Features == nil {
		p.Features = pq.StringArray{}
	}
	if p.Stages == nil {
		p.Stages = datatypes.JSONSlice[Stage]{}
	}
	if p.ExtraMetadata == nil {
		p.ExtraMetadata = datatypes.JSONMap{}
	}
	if p.Votes.Users == nil {
		p.Votes.Users = pq.StringArray{}
	}
}

// Views reads extraMetadata.views, tolerating the numeric shapes JSON decoding produces.
func (p *Project) Views() int64 {
	switch v := p.ExtraMetadata["views"].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

func (p *Project) PendingStages() []Stage {
	var out []Stage
	for _, s := range p.Stages {
		if !s.Done {
			out = append(out, s)
		}
	}
	return out
}

func (p *Project) CompletedStages() []Stage {
	var out []Stage
	for _, s := range p.Stages {
		if s.Done {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy so callers never share slices or maps with a store.
func (p *Project) Clone() *Project {
	c := *p
	c.Tools = append(pq.StringArray(nil), p.Tools...)
	c.Tags = append(pq.StringArray(nil), p.Tags...)
	c.Screenshots = append(pq.StringArray(nil), p.Screenshots...)
	c.Challenges = append(pq.StringArray(nil), p.Challenges...)
	c.Solutions = append(pq.StringArray(nil), p.Solutions...)
	c.Features = append(pq.StringArray(nil), p.Features...)
	c.Stages = append(datatypes.JSONSlice[Stage](nil), p.Stages...)
	c.Votes.Users = append(pq.StringArray(nil), p.Votes.Users...)
	if p.ExtraMetadata != nil {
		c.ExtraMetadata = make(datatypes.JSONMap, len(p.ExtraMetadata))
		for k, v := range p.ExtraMetadata {
			c.ExtraMetadata[k] = v
		}
	}
	c.Comments = nil
	return &c
}
