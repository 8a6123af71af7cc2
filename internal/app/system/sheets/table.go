// Package sheets loads metric tables from a spreadsheet document, one tab per
// dashboard section.
package sheets

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratametrics/internal/domain/models"
)

var (
	// ErrLoad wraps every load failure (credentials, network, missing
	// document or tab, malformed header).
	ErrLoad = errors.New("sheet load failed")

	// ErrEmpty reports a tab without data rows. It is a warning, not a
	// failure.
	ErrEmpty = errors.New("sheet has no data")

	// ErrUnknownTab is returned by a Source when the document has no tab with
	// the requested name.
	ErrUnknownTab = errors.New("unknown sheet tab")

	// ErrDuplicateHeader is returned when two columns share a header.
	ErrDuplicateHeader = errors.New("duplicate column header")
)

// BuildTable turns the raw cell grid of a tab into a MetricTable.
//
// The first row is the header row. Headers are trimmed and columns with a blank
// header are dropped. Data rows that are entirely blank are skipped, and short
// rows are padded. When a header equals keyColumn exactly, that column is
// moved to the first position and HasKey is set.
//
// A grid with no header row, or with a header and no data rows, yields an empty
// table and a nil error; callers check IsEmpty.
func BuildTable(tab, keyColumn string, grid [][]string, fetchedAt time.Time) (*models.MetricTable, error) {
	if keyColumn == "" {
		keyColumn = models.DefaultKeyColumn
	}
	t := &models.MetricTable{
		Tab:       tab,
		KeyColumn: keyColumn,
		Columns:   []string{},
		Rows:      [][]string{},
		FetchedAt: fetchedAt,
	}
	if len(grid) == 0 {
		return t, nil
	}

	// Resolve the kept source columns and their order.
	var src []int
	seen := make(map[string]bool)
	keyAt := -1
	for i, h := range grid[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if seen[h] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateHeader, h)
		}
		seen[h] = true
		if h == keyColumn && keyAt < 0 {
			keyAt = i
			continue
		}
		src = append(src, i)
		t.Columns = append(t.Columns, h)
	}
	if keyAt >= 0 {
		src = append([]int{keyAt}, src...)
		t.Columns = append([]string{keyColumn}, t.Columns...)
		t.HasKey = true
	}

	for _, raw := range grid[1:] {
		row := make([]string, len(src))
		blank := true
		for j, i := range src {
			if i < len(raw) {
				row[j] = strings.TrimSpace(raw[i])
			}
			if row[j] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
