package models

import (
	"testing"
)

func TestParseSections(t *testing.T) {
	got, err := ParseSections(" alcance=Alcance ; uso=Uso|Uso y Participación ")
	if err != nil {
		t.Fatalf("ParseSections: %v", err)
	}
	want := []Section{
		{Slug: "alcance", Title: "Alcance", Tab: "Alcance"},
		{Slug: "uso", Title: "Uso y Participación", Tab: "Uso"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d sections, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("section %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseSections_Defaults(t *testing.T) {
	got, err := ParseSections("")
	if err != nil {
		t.Fatalf("ParseSections: %v", err)
	}
	if len(got) != len(DefaultSections) {
		t.Fatalf("got %d sections, want the defaults", len(got))
	}
	got[0].Title = "changed"
	if DefaultSections[0].Title == "changed" {
		t.Error("ParseSections must return a copy of the defaults")
	}
}

func TestParseSections_Errors(t *testing.T) {
	tests := []string{"=Tab", "alcance", "alcance=|Título", "a=Uno;a=Dos"}
	for _, in := range tests {
		if _, err := ParseSections(in); err == nil {
			t.Errorf("ParseSections(%q) should fail", in)
		}
	}
}
