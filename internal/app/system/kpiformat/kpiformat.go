// Package kpiformat renders metric values for display.
//
// Values are float64 internally; this package is the only place where they
// become locale text (by default Spanish: "." grouping, "," decimal).
package kpiformat

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is the display locale used when none is configured.
const DefaultLocale = "es"

// IsRateMetric reports whether a metric is displayed as a percentage: its
// name contains "%" or, case-insensitively, the substring "tasa".
//
// The match is on the display name, so any name containing "tasa" is treated
// as a rate even when it is not one.
func IsRateMetric(name string) bool {
	return strings.Contains(name, "%") || strings.Contains(strings.ToLower(name), "tasa")
}

// Formatter formats numbers for one locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// New creates a Formatter for a BCP 47 locale such as "es" or "en-US".
func New(locale string) (*Formatter, error) {
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse display locale %q: %w", locale, err)
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}, nil
}

// Default returns a Formatter for DefaultLocale.
func Default() *Formatter {
	tag := language.MustParse(DefaultLocale)
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

// Locale returns the formatter's locale tag.
func (f *Formatter) Locale() string {
	return f.tag.String()
}

// Number formats v with the given number of decimals and locale grouping.
func (f *Formatter) Number(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return f.printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

// KPI formats v according to the metric name: rates get two decimals and a
// trailing "%", everything else is a grouped integer.
func (f *Formatter) KPI(metricName string, v float64) string {
	if IsRateMetric(metricName) {
		return f.Number(v, 2) + "%"
	}
	return f.Number(v, 0)
}

// Stat formats a summary statistic with two decimals.
func (f *Formatter) Stat(v float64) string {
	return f.Number(v, 2)
}

var defaultFormatter = Default()

// FormatKPI formats v for metricName using DefaultLocale.
func FormatKPI(metricName string, v float64) string {
	return defaultFormatter.KPI(metricName, v)
}
