package sheets

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads tabs from a local workbook. The file is opened on every
// fetch, so edits are picked up once the cached copy expires.
type XLSXSource struct {
	path string
}

// NewXLSXSource creates a source for the workbook at path.
func NewXLSXSource(path string) *XLSXSource {
	return &XLSXSource{path: path}
}

// Name implements Source.
func (x *XLSXSource) Name() string { return "xlsx" }

// Fetch implements Source.
func (x *XLSXSource) Fetch(ctx context.Context, tab string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if !slices.Contains(f.GetSheetList(), tab) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	rows, err := f.GetRows(tab)
	if err != nil {
		return nil, fmt.Errorf("read tab %q: %w", tab, err)
	}
	return rows, nil
}

// Ping implements Source.
func (x *XLSXSource) Ping(context.Context) error {
	_, err := os.Stat(x.path)
	return err
}
