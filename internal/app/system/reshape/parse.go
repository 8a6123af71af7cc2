// Package reshape turns wide metric rows into tidy (metric, period, value)
// observations and summarizes them.
//
// Cell values arrive as spreadsheet display text ("12,34%", "1.234,56",
// "N/D"). ParseValue converts them to float64; anything that does not parse
// is dropped by the caller rather than zeroed.
package reshape

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DecimalMode selects how decimal and grouping separators are read.
type DecimalMode string

const (
	// ModeAuto infers the decimal separator per cell: when both separators
	// appear the rightmost one is decimal, a repeated separator is grouping,
	// and a single lone separator is decimal.
	ModeAuto DecimalMode = "auto"
	// ModeDot reads "1,234.56".
	ModeDot DecimalMode = "dot"
	// ModeComma reads "1.234,56".
	ModeComma DecimalMode = "comma"
)

// ParseDecimalMode validates a configured mode. Empty means ModeAuto.
func ParseDecimalMode(s string) (DecimalMode, error) {
	switch DecimalMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeDot:
		return ModeDot, nil
	case ModeComma:
		return ModeComma, nil
	}
	return "", fmt.Errorf("unknown decimal mode %q (want auto, dot or comma)", s)
}

// spaceReplacer removes whitespace used as a grouping separator
// (regular, no-break and narrow no-break spaces).
var spaceReplacer = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "")

// ParseValue converts a raw cell to a number. A trailing percent sign is
// stripped (the number is not divided by 100). ok is false when the cell is
// blank or not numeric.
func ParseValue(raw string, mode DecimalMode) (v float64, ok bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	s = spaceReplacer.Replace(s)
	if s == "" {
		return 0, false
	}

	s = normalizeSeparators(s, mode)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// normalizeSeparators rewrites s so that "." is the only decimal separator
// and no grouping separators remain.
func normalizeSeparators(s string, mode DecimalMode) string {
	switch mode {
	case ModeDot:
		return strings.ReplaceAll(s, ",", "")
	case ModeComma:
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", ".")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	var group, dec string
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			group, dec = ".", ","
		} else {
			group, dec = ",", "."
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			group = ","
		} else {
			dec = ","
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			group = "."
		} else {
			dec = "."
		}
	default:
		return s
	}

	if group != "" {
		s = strings.ReplaceAll(s, group, "")
	}
	if dec != "" && dec != "." {
		s = strings.Replace(s, dec, ".", 1)
	}
	return s
}
