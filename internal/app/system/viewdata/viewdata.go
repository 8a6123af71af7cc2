// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/stratametrics/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratametrics/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/storage"
)

// NavItem is one section tab in the page header.
type NavItem struct {
	Title  string
	URL    string
	Active bool
}

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type sectionPage struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := sectionPage{
//	    BaseVM: viewdata.New(r, sec.Title),
//	}
type BaseVM struct {
	// Site settings (from configuration)
	SiteName  string
	LogoURL   string
	IntroHTML template.HTML

	// Page context
	Title       string
	CurrentPath string
	Nav         []NavItem
}

// Site is the configured site chrome.
type Site struct {
	Name      string
	IntroHTML string // plain text or a small HTML fragment
	LogoKey   string // object key in file storage; empty for no logo
	Sections  []models.Section
	// Location and TimezoneLabel drive how fetch times are shown. A nil
	// Location means the server's local zone.
	Location      *time.Location
	TimezoneLabel string
}

var (
	mu        sync.RWMutex
	siteName  = models.DefaultSiteName
	logoURL   string
	introHTML template.HTML
	sections  []models.Section
	location  = time.Local
	tzLabel   string
)

// Init sets the site chrome used by every page. The intro is sanitized once
// here and the logo URL is resolved through store, which may be nil.
// Call this once at startup from bootstrap.
func Init(site Site, store storage.Store) {
	mu.Lock()
	defer mu.Unlock()

	siteName = strings.TrimSpace(site.Name)
	if siteName == "" {
		siteName = models.DefaultSiteName
	}
	introHTML = htmlsanitize.PrepareForDisplay(site.IntroHTML)
	logoURL = ""
	if site.LogoKey != "" && store != nil {
		logoURL = store.URL(site.LogoKey)
	}
	sections = append([]models.Section(nil), site.Sections...)
	location = site.Location
	if location == nil {
		location = time.Local
	}
	tzLabel = site.TimezoneLabel
}

// Stamp formats a fetch time in the configured zone, e.g.
// "05/03/2025 14:30 (Ciudad de México)".
func Stamp(t time.Time) string {
	mu.RLock()
	defer mu.RUnlock()

	s := t.In(location).Format("02/01/2006 15:04")
	if tzLabel != "" {
		s += " (" + tzLabel + ")"
	}
	return s
}

// SiteName returns the configured site name.
func SiteName() string {
	mu.RLock()
	defer mu.RUnlock()
	return siteName
}

// SectionURL is the dashboard path of a section.
func SectionURL(slug string) string {
	return "/s/" + slug
}

// New creates a BaseVM for a page with the given title.
func New(r *http.Request, title string) BaseVM {
	mu.RLock()
	defer mu.RUnlock()

	path := httpnav.CurrentPath(r)
	vm := BaseVM{
		SiteName:    siteName,
		LogoURL:     logoURL,
		IntroHTML:   introHTML,
		Title:       title,
		CurrentPath: path,
		Nav:         make([]NavItem, 0, len(sections)),
	}
	for _, s := range sections {
		url := SectionURL(s.Slug)
		vm.Nav = append(vm.Nav, NavItem{
			Title:  s.Title,
			URL:    url,
			Active: path == url || strings.HasPrefix(path, url+"/"),
		})
	}
	return vm
}
