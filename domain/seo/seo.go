// Package seo derives per-request SEO metadata through a fixed fallback chain.
package seo

import (
	"encoding/json"
	"strings"

	"github.com/artpar/contentgate/domain/content"
)

// DefaultRobots applies when a record sets no robots directive.
const DefaultRobots = "index, follow"

// NoIndexRobots is used for error pages.
const NoIndexRobots = "noindex, nofollow"

// OpenGraph holds Open Graph tag values.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
}

// Context is the SEO data handed to templates.
type Context struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Schema      any // parsed JSON-LD, nil when absent or malformed
}

// Site is the subset of site settings the builder reads.
type Site struct {
	URL                    string
	DefaultMetaDescription string
}

// Build evaluates the fallback chain field by field:
//
//	title          = metaTitle ?? content title
//	description    = metaDescription ?? ""
//	canonical      = canonicalUrl ?? siteUrl + slug
//	robots         = robots ?? "index, follow"
//	og.title       = ogTitle ?? metaTitle ?? content title
//	og.description = ogDescription ?? metaDescription ?? ""
//	og.image       = ogImage ?? ""
//	schema         = parsed schemaMarkup, nil if absent or malformed
func Build(overrides content.SeoOverrides, record content.Record, site Site) Context {
	return Context{
		Title:       first(overrides.MetaTitle, &record.Title),
		Description: first(overrides.MetaDescription),
		Canonical:   first(overrides.CanonicalURL, ptr(JoinURL(site.URL, record.Slug))),
		Robots:      first(overrides.Robots, ptr(DefaultRobots)),
		OG: OpenGraph{
			Title:       first(overrides.OgTitle, overrides.MetaTitle, &record.Title),
			Description: first(overrides.OgDescription, overrides.MetaDescription),
			Image:       first(overrides.OgImage),
		},
		Schema: ParseSchema(overrides.SchemaMarkup),
	}
}

// ForListing builds SEO for a module index page.
func ForListing(title, path string, site Site) Context {
	return Context{
		Title:       title,
		Description: site.DefaultMetaDescription,
		Canonical:   JoinURL(site.URL, path),
		Robots:      DefaultRobots,
		OG: OpenGraph{
			Title:       title,
			Description: site.DefaultMetaDescription,
		},
	}
}

// ForError builds SEO for the not-found and server-error pages.
func ForError(title string) Context {
	return Context{
		Title:  title,
		Robots: NoIndexRobots,
		OG:     OpenGraph{Title: title},
	}
}

// ParseSchema decodes a structured-data blob. Malformed JSON yields nil.
func ParseSchema(markup *string) any {
	if markup == nil || strings.TrimSpace(*markup) == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(*markup), &v); err != nil {
		return nil
	}
	return v
}

// JoinURL appends a slug to the site URL without doubling the slash.
func JoinURL(siteURL, slug string) string {
	return strings.TrimSuffix(siteURL, "/") + slug
}

// first returns the first non-nil value, or "" when all are nil.
// An explicitly empty override still counts as set.
func first(values ...*string) string {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return ""
}

func ptr(s string) *string { return &s }
