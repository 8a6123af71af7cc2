package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// GoogleConfig selects the spreadsheet document and its credentials.
type GoogleConfig struct {
	// SpreadsheetID is used as-is when set. Otherwise SpreadsheetName is
	// resolved through Drive to the first spreadsheet with that exact title.
	SpreadsheetID   string
	SpreadsheetName string

	// Service-account JSON, either inline or from a file. Inline wins.
	CredentialsJSON string
	CredentialsFile string
}

// GoogleSource reads tabs from a Google Sheets document.
//
// The client is built on first use, so missing or bad credentials surface as a
// load failure on the dashboard instead of stopping the process. A failed
// build is retried on the next fetch.
type GoogleSource struct {
	cfg    GoogleConfig
	logger *zap.Logger

	mu    sync.Mutex
	svc   *gsheets.Service
	docID string
}

// NewGoogleSource creates a GoogleSource. No network call is made here.
func NewGoogleSource(cfg GoogleConfig, logger *zap.Logger) *GoogleSource {
	return &GoogleSource{cfg: cfg, logger: logger}
}

// Name implements Source.
func (g *GoogleSource) Name() string { return "google" }

func (g *GoogleSource) credentials() ([]byte, error) {
	if s := strings.TrimSpace(g.cfg.CredentialsJSON); s != "" {
		return []byte(s), nil
	}
	if g.cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("no service account credentials configured")
	}
	b, err := os.ReadFile(g.cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	return b, nil
}

// client returns the sheets service and the resolved document ID.
func (g *GoogleSource) client(ctx context.Context) (*gsheets.Service, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.svc != nil && g.docID != "" {
		return g.svc, g.docID, nil
	}

	raw, err := g.credentials()
	if err != nil {
		return nil, "", err
	}
	// The client outlives this request, so its token source must not be
	// bound to ctx.
	bg := context.Background()
	creds, err := google.CredentialsFromJSON(bg, raw,
		gsheets.SpreadsheetsReadonlyScope,
		drive.DriveMetadataReadonlyScope,
	)
	if err != nil {
		return nil, "", fmt.Errorf("parse credentials: %w", err)
	}

	svc, err := gsheets.NewService(bg, option.WithCredentials(creds))
	if err != nil {
		return nil, "", fmt.Errorf("create sheets client: %w", err)
	}

	id := g.cfg.SpreadsheetID
	if id == "" {
		id, err = g.resolveByName(ctx, creds)
		if err != nil {
			return nil, "", err
		}
		g.logger.Info("resolved spreadsheet",
			zap.String("name", g.cfg.SpreadsheetName),
			zap.String("id", id))
	}

	g.svc, g.docID = svc, id
	return svc, id, nil
}

func (g *GoogleSource) resolveByName(ctx context.Context, creds *google.Credentials) (string, error) {
	name := strings.TrimSpace(g.cfg.SpreadsheetName)
	if name == "" {
		return "", fmt.Errorf("neither spreadsheet id nor name configured")
	}
	dsvc, err := drive.NewService(context.Background(), option.WithCredentials(creds))
	if err != nil {
		return "", fmt.Errorf("create drive client: %w", err)
	}

	q := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`))
	list, err := dsvc.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(10).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("find spreadsheet %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("spreadsheet %q not found or not shared with the service account", name)
	}
	return list.Files[0].Id, nil
}

// Fetch implements Source.
func (g *GoogleSource) Fetch(ctx context.Context, tab string) ([][]string, error) {
	svc, id, err := g.client(ctx)
	if err != nil {
		return nil, err
	}

	if err := g.checkTab(ctx, svc, id, tab); err != nil {
		return nil, err
	}

	resp, err := svc.Spreadsheets.Values.Get(id, a1Tab(tab)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read tab %q: %w", tab, err)
	}

	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		grid[i] = cells
	}
	return grid, nil
}

func (g *GoogleSource) checkTab(ctx context.Context, svc *gsheets.Service, id, tab string) error {
	doc, err := svc.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	for _, s := range doc.Sheets {
		if s.Properties != nil && s.Properties.Title == tab {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
}

// Ping implements Source.
func (g *GoogleSource) Ping(ctx context.Context) error {
	svc, id, err := g.client(ctx)
	if err != nil {
		return err
	}
	_, err = svc.Spreadsheets.Get(id).Fields("spreadsheetId").Context(ctx).Do()
	return err
}

// a1Tab quotes a tab name as an A1 range covering the whole tab.
func a1Tab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
