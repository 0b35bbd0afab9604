// Package catalog serves the paginated, filterable view over the project collection.
package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/models"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 50
	MaxFeatured     = 3

	viewBumpTimeout = 5 * time.Second
)

// Store is the read side of the project repository plus the view counter primitive.
type Store interface {
	// FindPage returns at most limit projects ordered by created_at DESC, id DESC, strictly after the cursor.
	FindPage(ctx context.Context, after *models.Cursor, limit int) ([]*models.Project, error)
	FindBySlug(ctx context.Context, slug string) (*models.Project, error)
	// IncrementViews atomically bumps extraMetadata.views and returns the updated project.
	IncrementViews(ctx context.Context, id string) (*models.Project, error)
}

type Publisher interface {
	PublishProject(p *models.Project)
}

// Page is one slice of the catalog. NextCursor is empty when HasMore is false.
// Degraded is set when the store could not be read and the page is empty for that reason.
type Page struct {
	Items      []*models.Project `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
	HasMore    bool              `json:"hasMore"`
	Degraded   bool              `json:"degraded,omitempty"`
}

type Catalog struct {
	store     Store
	publisher Publisher
	pageSize  int
	logger    zerolog.Logger
	wg        sync.WaitGroup
}

type Option func(*Catalog)

func WithPageSize(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.pageSize = min(n, MaxPageSize)
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(c *Catalog) { c.publisher = p }
}

func New(store Store, opts ...Option) *Catalog {
	c := &Catalog{
		store:    store,
		pageSize: DefaultPageSize,
		logger:   log.With().Str("component", "catalog").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) PageSize() int {
	return c.pageSize
}

// List reads one page with a single store call. A malformed cursor is the only error;
// store failures are logged and produce an empty, degraded page.
func (c *Catalog) List(ctx context.Context, cursor string, pageSize int) (Page, error) {
	after, err := DecodeCursor(cursor)
	if err != nil {
		return Page{}, err
	}

	limit := c.pageSize
	if pageSize > 0 {
		limit = min(pageSize, MaxPageSize)
	}

	items, err := c.store.FindPage(ctx, after, limit+1)
	if err != nil {
		c.logger.Warn().Err(err).Str("cursor", cursor).Msg("catalog read failed, serving empty page")
		return Page{Items: []*models.Project{}, Degraded: true}, nil
	}

	page := Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true
		last := page.Items[limit-1]
		page.NextCursor = EncodeCursor(models.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	if page.Items == nil {
		page.Items = []*models.Project{}
	}
	return page, nil
}

// Featured returns up to n of the newest projects that list at least one feature,
// walking pages until enough are found. A store failure ends the walk with what was collected.
func (c *Catalog) Featured(ctx context.Context, n int) []*models.Project {
	out := make([]*models.Project, 0, n)
	var after *models.Cursor
	for len(out) < n {
		items, err := c.store.FindPage(ctx, after, c.pageSize)
		if err != nil {
			c.logger.Warn().Err(err).Msg("featured read failed")
			break
		}
		for _, p := range items {
			if len(p.Features) > 0 && len(out) < n {
				out = append(out, p)
			}
		}
		if len(items) < c.pageSize {
			break
		}
		last := items[len(items)-1]
		after = &models.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return out
}

// Detail loads one project by slug and schedules a best-effort view increment.
// Read failures are logged and reported as not found.
func (c *Catalog) Detail(ctx context.Context, slug string) (*models.Project, error) {
	project, err := c.store.FindBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			c.logger.Warn().Err(err).Str("slug", slug).Msg("project read failed")
		}
		return nil, errs.NewNotFoundError("project " + slug)
	}

	c.bumpViews(ctx, project.ID)
	return project, nil
}

func (c *Catalog) bumpViews(ctx context.Context, projectID string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		bumpCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), viewBumpTimeout)
		defer cancel()

		updated, err := c.store.IncrementViews(bumpCtx, projectID)
		if err != nil {
			c.logger.Warn().Err(err).Str("projectID", projectID).Msg("view increment failed")
			return
		}
		if c.publisher != nil {
			c.publisher.PublishProject(updated)
		}
	}()
}

// Wait blocks until every scheduled view increment has finished.
func (c *Catalog) Wait() {
	c.wg.Wait()
}
