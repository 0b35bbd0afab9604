package models

import "time"

// Cursor marks the last project of a page in (created_at DESC, id DESC) order.
type Cursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

// Precedes reports whether the cursor sorts ahead of p, so p belongs to the next page.
func (c Cursor) Precedes(p *Project) bool {
	if p.CreatedAt.Equal(c.CreatedAt) {
		return p.ID < c.ID
	}
	return p.CreatedAt.Before(c.CreatedAt)
}
