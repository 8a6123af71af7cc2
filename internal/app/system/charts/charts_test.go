package charts

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/stratametrics/internal/domain/models"
)

func series(name string, vals map[string]float64, order ...string) Series {
	s := Series{Name: name}
	for _, p := range order {
		if v, ok := vals[p]; ok {
			s.Points = append(s.Points, models.TidyObservation{Metric: name, Period: p, Value: v})
		}
	}
	return s
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{"bar": KindBar, " BAR ": KindBar, "line": KindLine, "": KindLine, "pie": KindLine}
	for in, want := range tests {
		if got := ParseKind(in); got != want {
			t.Errorf("ParseKind(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMetric_LineSVG(t *testing.T) {
	r := New(nil)
	periods := []string{"Ene", "Feb", "Mar"}
	s := series("Usuarios totales", map[string]float64{"Ene": 100, "Feb": 200, "Mar": 150}, periods...)
	var buf bytes.Buffer

	if err := r.Metric(&buf, SVG, KindLine, periods, s, Size{}); err != nil {
		t.Fatalf("Metric() error = %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Error("expected SVG output")
	}
	if !strings.Contains(buf.String(), "Feb") {
		t.Error("expected period labels on the x axis")
	}
}

func TestMetric_BarPNG(t *testing.T) {
	r := New(nil)
	periods := []string{"Ene", "Feb"}
	s := series("Tasa de crecimiento", map[string]float64{"Ene": 12.5, "Feb": 10}, periods...)
	var buf bytes.Buffer

	if err := r.Metric(&buf, PNG, KindBar, periods, s, Size{Width: 400, Height: 200}); err != nil {
		t.Fatalf("Metric() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("expected PNG signature")
	}
}

func TestMetric_SinglePointAndFlat(t *testing.T) {
	r := New(nil)
	var buf bytes.Buffer

	one := series("M", map[string]float64{"Ene": 5}, "Ene")
	if err := r.Metric(&buf, SVG, KindLine, []string{"Ene"}, one, Size{}); err != nil {
		t.Fatalf("single period line: %v", err)
	}
	if !strings.Contains(buf.String(), "Ene") {
		t.Error("single period chart should label its month")
	}

	buf.Reset()
	if err := r.Metric(&buf, PNG, KindLine, []string{"Ene"}, one, Size{}); err != nil {
		t.Fatalf("single period PNG: %v", err)
	}

	buf.Reset()
	sparse := series("M", map[string]float64{"Feb": 5}, "Feb")
	if err := r.Metric(&buf, SVG, KindLine, []string{"Ene", "Feb", "Mar"}, sparse, Size{}); err != nil {
		t.Fatalf("one parsed point of three: %v", err)
	}

	buf.Reset()
	flat := series("M", map[string]float64{"Ene": 5, "Feb": 5}, "Ene", "Feb")
	if err := r.Metric(&buf, SVG, KindBar, []string{"Ene", "Feb"}, flat, Size{}); err != nil {
		t.Fatalf("flat bars: %v", err)
	}
}

func TestCombined_SinglePeriod(t *testing.T) {
	r := New(nil)
	a := series("Usuarios", map[string]float64{"Ene": 10}, "Ene")
	b := series("Sesiones", map[string]float64{"Ene": 4}, "Ene")
	var buf bytes.Buffer

	if err := r.Combined(&buf, SVG, []string{"Ene"}, []Series{a, b}, Size{}); err != nil {
		t.Fatalf("Combined() with one period error = %v", err)
	}
	if !strings.Contains(buf.String(), "Sesiones") {
		t.Error("expected the legend")
	}
}

func TestMetric_NoData(t *testing.T) {
	r := New(nil)
	var buf bytes.Buffer

	err := r.Metric(&buf, SVG, KindLine, []string{"Ene"}, Series{Name: "Vacía"}, Size{})

	if !errors.Is(err, ErrNoData) {
		t.Errorf("Metric() error = %v, want ErrNoData", err)
	}
}

func TestCombined(t *testing.T) {
	r := New(nil)
	periods := []string{"Ene", "Feb", "Mar"}
	a := series("Usuarios", map[string]float64{"Ene": 10, "Feb": 20, "Mar": 30}, periods...)
	b := series("Sesiones", map[string]float64{"Ene": 5, "Mar": 9}, periods...)
	var buf bytes.Buffer

	if err := r.Combined(&buf, SVG, periods, []Series{a, b, {Name: "Vacía"}}, Size{}); err != nil {
		t.Fatalf("Combined() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Usuarios") || !strings.Contains(out, "Sesiones") {
		t.Error("expected both series in the legend")
	}

	if err := r.Combined(&buf, SVG, periods, []Series{{Name: "Vacía"}}, Size{}); !errors.Is(err, ErrNoData) {
		t.Errorf("Combined() with no points error = %v, want ErrNoData", err)
	}
}

func TestYRange(t *testing.T) {
	r := yRange([]float64{100, 200})
	if r.Min >= 100 || r.Max <= 200 {
		t.Errorf("yRange = [%v, %v], want padding around [100, 200]", r.Min, r.Max)
	}
	flat := yRange([]float64{5, 5})
	if flat.Max-flat.Min <= 0 {
		t.Error("flat series must get a non-zero range")
	}
	empty := yRange(nil)
	if empty.Min != 0 || empty.Max != 1 {
		t.Errorf("yRange(nil) = [%v, %v], want [0, 1]", empty.Min, empty.Max)
	}
}

func TestFormat_ContentType(t *testing.T) {
	if SVG.ContentType() != "image/svg+xml" {
		t.Error("SVG content type")
	}
	if PNG.ContentType() != "image/png" {
		t.Error("PNG content type")
	}
}
