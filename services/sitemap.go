package services

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/saqr-syn/portfolio-backend/models"
)

const (
	DefaultSiteBaseURL = "https://saqr-syn.vercel.app"
	sitemapNamespace   = "http://www.sitemaps.org/schemas/sitemap/0.9"
)

// SitePages are the top-level pages listed once per locale. "" is the locale home.
var SitePages = []string{"", "/projects", "/about", "/contact"}

type URLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

type SitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// BuildSitemap lists every page per locale, then every project per locale.
// Projects without an update time use generatedAt.
func BuildSitemap(baseURL string, locales []string, projects []*models.Project, generatedAt time.Time) URLSet {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultSiteBaseURL
	}
	stamp := func(t time.Time) string {
		if t.IsZero() {
			t = generatedAt
		}
		return t.UTC().Format(time.RFC3339)
	}

	set := URLSet{Xmlns: sitemapNamespace}
	for _, page := range SitePages {
		for _, l := range locales {
			set.URLs = append(set.URLs, SitemapURL{Loc: baseURL + "/" + l + page, LastMod: stamp(time.Time{})})
		}
	}
	for _, p := range projects {
		slug := p.Slug
		if slug == "" {
			slug = p.ID
		}
		for _, l := range locales {
			set.URLs = append(set.URLs, SitemapURL{Loc: baseURL + "/" + l + "/projects/" + slug, LastMod: stamp(p.UpdatedAt)})
		}
	}
	return set
}

func (s URLSet) Marshal() ([]byte, error) {
	out, err := xml.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
