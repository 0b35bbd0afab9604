package services

import (
	"testing"
	"time"

	"github.com/saqr-syn/portfolio-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSitemap(t *testing.T) {
	generated := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	edited := time.Date(2025, 4, 2, 8, 30, 0, 0, time.UTC)
	projects := []*models.Project{
		{ID: "whispr", Slug: "whispr", UpdatedAt: edited},
		{ID: "a1b2"},
	}

	set := BuildSitemap("", []string{"en", "ar"}, projects, generated)

	require.Len(t, set.URLs, len(SitePages)*2+len(projects)*2)
	assert.Equal(t, "https://saqr-syn.vercel.app/en", set.URLs[0].Loc)
	assert.Equal(t, "https://saqr-syn.vercel.app/ar/contact", set.URLs[7].Loc)

	assert.Equal(t, SitemapURL{Loc: "https://saqr-syn.vercel.app/en/projects/whispr", LastMod: "2025-04-02T08:30:00Z"}, set.URLs[8])
	assert.Equal(t, SitemapURL{Loc: "https://saqr-syn.vercel.app/ar/projects/a1b2", LastMod: "2025-05-01T12:00:00Z"}, set.URLs[11])

	body, err := set.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(body), `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
}
