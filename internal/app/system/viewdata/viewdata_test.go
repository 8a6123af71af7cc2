package viewdata

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/stratametrics/internal/domain/models"
)

var testSections = []models.Section{
	{Slug: "alcance", Title: "Alcance", Tab: "Alcance"},
	{Slug: "uso", Title: "Uso y Participación", Tab: "Uso"},
}

func TestNew_Nav(t *testing.T) {
	Init(Site{Name: "Panel", Sections: testSections}, nil)

	vm := New(httptest.NewRequest("GET", "/s/uso/chart.svg", nil), "Uso")

	if vm.SiteName != "Panel" || vm.Title != "Uso" {
		t.Errorf("SiteName = %q, Title = %q", vm.SiteName, vm.Title)
	}
	if len(vm.Nav) != 2 {
		t.Fatalf("Nav = %d items, want 2", len(vm.Nav))
	}
	if vm.Nav[0].Active || !vm.Nav[1].Active {
		t.Errorf("Nav = %+v, want only uso active", vm.Nav)
	}
	if vm.Nav[0].URL != "/s/alcance" {
		t.Errorf("URL = %q", vm.Nav[0].URL)
	}
}

func TestNew_PrefixIsNotActive(t *testing.T) {
	Init(Site{Sections: []models.Section{{Slug: "uso"}}}, nil)

	vm := New(httptest.NewRequest("GET", "/s/usos", nil), "")

	if vm.Nav[0].Active {
		t.Error("/s/usos should not activate /s/uso")
	}
}

func TestInit_Defaults(t *testing.T) {
	Init(Site{Name: "  ", IntroHTML: "Hola\n\nmundo<script>x</script>"}, nil)

	if SiteName() != models.DefaultSiteName {
		t.Errorf("SiteName() = %q, want default", SiteName())
	}
	vm := New(httptest.NewRequest("GET", "/", nil), "")
	if strings.Contains(string(vm.IntroHTML), "<script>") {
		t.Errorf("IntroHTML not sanitized: %q", vm.IntroHTML)
	}
	if vm.LogoURL != "" {
		t.Errorf("LogoURL = %q without storage", vm.LogoURL)
	}
}

func TestStamp(t *testing.T) {
	loc := time.FixedZone("CST", -6*60*60)
	Init(Site{Location: loc, TimezoneLabel: "Ciudad de México"}, nil)

	got := Stamp(time.Date(2025, 3, 5, 20, 30, 0, 0, time.UTC))

	if got != "05/03/2025 14:30 (Ciudad de México)" {
		t.Errorf("Stamp = %q", got)
	}

	Init(Site{Location: time.UTC}, nil)
	if got := Stamp(time.Date(2025, 3, 5, 20, 30, 0, 0, time.UTC)); got != "05/03/2025 20:30" {
		t.Errorf("Stamp without label = %q", got)
	}
}
