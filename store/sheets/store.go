// Package sheets stores the ledger tables as worksheets of a Google Sheets
// spreadsheet. Row 1 of each worksheet is the header; data row i lives on
// worksheet row i+2.
//
// Requests are rate limited and transient API errors (429, 5xx) are retried
// with exponential backoff. Appends use the values.append endpoint, so a
// retried append whose first attempt reached the server may write twice.
//
// Update and delete check the row index against the count seen by the last
// ListRows on the same Store, so the store assumes it is the only writer.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/xraph/freightledger/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

const (
	// valueInput stores cells exactly as written, so "350.00" stays text.
	valueInput = "RAW"

	defaultMaxTries = 5
)

// Store is a store.Store over one spreadsheet.
type Store struct {
	svc           *sheetsapi.Service
	spreadsheetID string

	limiter         *rate.Limiter
	maxTries        uint
	initialInterval time.Duration
	logger          *slog.Logger
	clientOpts      []option.ClientOption

	mu       sync.Mutex
	sheetIDs map[store.Table]int64
	closed   bool

	// rowCounts holds the data-row count of each table as of the last list,
	// adjusted by this store's own appends and deletes.
	rowCounts map[store.Table]int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithCredentialsFile authenticates with a service-account JSON key.
func WithCredentialsFile(path string) Option {
	return func(s *Store) {
		s.clientOpts = append(s.clientOpts, option.WithCredentialsFile(path))
	}
}

// WithClientOptions passes options to the underlying API client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(s *Store) { s.clientOpts = append(s.clientOpts, opts...) }
}

// WithRateLimit limits outgoing requests. The default is one request per
// second with a burst of 5, inside the per-user read quota.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(s *Store) { s.limiter = rate.NewLimiter(limit, burst) }
}

// WithRetry sets the attempts per request and the first backoff interval.
func WithRetry(maxTries uint, initial time.Duration) Option {
	return func(s *Store) {
		s.maxTries = maxTries
		s.initialInterval = initial
	}
}

// New connects to the spreadsheet with the given id.
func New(ctx context.Context, spreadsheetID string, opts ...Option) (*Store, error) {
	s := &Store{
		spreadsheetID:   spreadsheetID,
		limiter:         rate.NewLimiter(rate.Every(time.Second), 5),
		maxTries:        defaultMaxTries,
		initialInterval: 500 * time.Millisecond,
		logger:          slog.Default(),
		sheetIDs:        make(map[store.Table]int64),
		rowCounts:       make(map[store.Table]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if spreadsheetID == "" {
		return nil, fmt.Errorf("freightledger/sheets: spreadsheet id is required")
	}

	svc, err := sheetsapi.NewService(ctx, s.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("freightledger/sheets: create service: %w", err)
	}
	s.svc = svc
	return s, nil
}

func (s *Store) ListRows(ctx context.Context, table store.Table) ([]store.Row, error) {
	if err := s.check(ctx, table); err != nil {
		return nil, err
	}
	return s.listRows(ctx, table)
}

func (s *Store) AppendRow(ctx context.Context, table store.Table, row store.Row) error {
	if err := s.check(ctx, table); err != nil {
		return err
	}
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{cells(row)}}
	_, err := call(ctx, s, "append", func() (*sheetsapi.AppendValuesResponse, error) {
		return s.svc.Spreadsheets.Values.Append(s.spreadsheetID, string(table)+"!A1", vr).
			ValueInputOption(valueInput).
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
	})
	if err != nil {
		s.forgetRowCount(table)
		return fmt.Errorf("freightledger/sheets: append %s: %w", table, err)
	}
	s.adjustRowCount(table, 1)
	return nil
}

func (s *Store) UpdateRow(ctx context.Context, table store.Table, index int, row store.Row) error {
	if err := s.check(ctx, table); err != nil {
		return err
	}
	if err := s.checkIndex(ctx, table, index); err != nil {
		return err
	}

	// Pad to the schema width so cells of the previous content are blanked.
	rng, err := rowRange(table, index+2, store.Width(table))
	if err != nil {
		return err
	}
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{cells(row.Pad(store.Width(table)))}}
	_, err = call(ctx, s, "update", func() (*sheetsapi.UpdateValuesResponse, error) {
		return s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
			ValueInputOption(valueInput).
			Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("freightledger/sheets: update %s row %d: %w", table, index, err)
	}
	return nil
}

func (s *Store) DeleteRow(ctx context.Context, table store.Table, index int) error {
	if err := s.check(ctx, table); err != nil {
		return err
	}
	if err := s.checkIndex(ctx, table, index); err != nil {
		return err
	}
	sheetID, err := s.sheetID(ctx, table)
	if err != nil {
		return err
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(index + 1),
					EndIndex:   int64(index + 2),
				},
			},
		}},
	}
	_, err = call(ctx, s, "delete", func() (*sheetsapi.BatchUpdateSpreadsheetResponse, error) {
		return s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	})
	if err != nil {
		s.forgetRowCount(table)
		return fmt.Errorf("freightledger/sheets: delete %s row %d: %w", table, index, err)
	}
	s.adjustRowCount(table, -1)
	return nil
}

// Migrate adds missing worksheets and writes header rows to empty ones.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.check(ctx, store.Invoices); err != nil {
		return err
	}
	if err := s.loadSheetIDs(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	var add []*sheetsapi.Request
	for _, table := range store.Tables() {
		if _, ok := s.sheetIDs[table]; !ok {
			add = append(add, &sheetsapi.Request{
				AddSheet: &sheetsapi.AddSheetRequest{
					Properties: &sheetsapi.SheetProperties{Title: string(table)},
				},
			})
		}
	}
	s.mu.Unlock()

	if len(add) > 0 {
		resp, err := call(ctx, s, "add-sheet", func() (*sheetsapi.BatchUpdateSpreadsheetResponse, error) {
			return s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID,
				&sheetsapi.BatchUpdateSpreadsheetRequest{Requests: add}).Context(ctx).Do()
		})
		if err != nil {
			return fmt.Errorf("freightledger/sheets: add sheets: %w", err)
		}
		s.mu.Lock()
		for _, reply := range resp.Replies {
			if reply.AddSheet == nil || reply.AddSheet.Properties == nil {
				continue
			}
			p := reply.AddSheet.Properties
			s.sheetIDs[store.Table(p.Title)] = p.SheetId
			s.logger.Info("sheets: created sheet", "sheet", p.Title)
		}
		s.mu.Unlock()
	}

	tables := store.Tables()
	ranges := make([]string, len(tables))
	for i, table := range tables {
		ranges[i] = string(table) + "!1:1"
	}
	headers, err := call(ctx, s, "get-headers", func() (*sheetsapi.BatchGetValuesResponse, error) {
		return s.svc.Spreadsheets.Values.BatchGet(s.spreadsheetID).Ranges(ranges...).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("freightledger/sheets: read headers: %w", err)
	}

	for i, table := range tables {
		if i < len(headers.ValueRanges) {
			if vr := headers.ValueRanges[i]; vr != nil && len(vr.Values) > 0 && len(vr.Values[0]) > 0 {
				continue
			}
		}

		cols, err := store.Columns(table)
		if err != nil {
			return err
		}
		rng, err := rowRange(table, 1, len(cols))
		if err != nil {
			return err
		}
		vr := &sheetsapi.ValueRange{Values: [][]interface{}{cells(cols)}}
		if _, err := call(ctx, s, "write-header", func() (*sheetsapi.UpdateValuesResponse, error) {
			return s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
				ValueInputOption(valueInput).Context(ctx).Do()
		}); err != nil {
			return fmt.Errorf("freightledger/sheets: write %s header: %w", table, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return store.ErrClosed
	}

	_, err := call(ctx, s, "ping", func() (*sheetsapi.Spreadsheet, error) {
		return s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("freightledger/sheets: ping: %w", err)
	}
	return nil
}

// Close marks the store closed. The HTTP client holds no resources to
// release.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) check(ctx context.Context, table store.Table) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return store.CheckTable(table)
}

func (s *Store) listRows(ctx context.Context, table store.Table) ([]store.Row, error) {
	vr, err := call(ctx, s, "list", func() (*sheetsapi.ValueRange, error) {
		return s.svc.Spreadsheets.Values.Get(s.spreadsheetID, string(table)+"!A2:ZZ").Context(ctx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("freightledger/sheets: list %s: %w", table, err)
	}

	// Blank rows between data rows come back empty and keep their position.
	rows := make([]store.Row, len(vr.Values))
	for i, values := range vr.Values {
		row := make(store.Row, len(values))
		for j, v := range values {
			row[j] = fmt.Sprint(v)
		}
		rows[i] = row
	}

	s.mu.Lock()
	s.rowCounts[table] = len(rows)
	s.mu.Unlock()
	return rows, nil
}

// checkIndex validates index against the cached row count. The table is
// listed only when no count is known yet.
func (s *Store) checkIndex(ctx context.Context, table store.Table, index int) error {
	s.mu.Lock()
	n, ok := s.rowCounts[table]
	s.mu.Unlock()
	if !ok {
		rows, err := s.listRows(ctx, table)
		if err != nil {
			return err
		}
		n = len(rows)
	}
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %s[%d] of %d", store.ErrRowOutOfRange, table, index, n)
	}
	return nil
}

func (s *Store) adjustRowCount(table store.Table, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.rowCounts[table]; ok {
		s.rowCounts[table] = n + delta
	}
}

func (s *Store) forgetRowCount(table store.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rowCounts, table)
}

func (s *Store) sheetID(ctx context.Context, table store.Table) (int64, error) {
	s.mu.Lock()
	id, ok := s.sheetIDs[table]
	s.mu.Unlock()
	if ok {
		return id, nil
	}

	if err := s.loadSheetIDs(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok = s.sheetIDs[table]
	if !ok {
		return 0, fmt.Errorf("freightledger/sheets: sheet %s does not exist", table)
	}
	return id, nil
}

func (s *Store) loadSheetIDs(ctx context.Context) error {
	ss, err := call(ctx, s, "get-sheets", func() (*sheetsapi.Spreadsheet, error) {
		return s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("freightledger/sheets: get spreadsheet: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		s.sheetIDs[store.Table(sh.Properties.Title)] = sh.Properties.SheetId
	}
	return nil
}

// rowRange returns the A1 range covering width cells of one sheet row.
func rowRange(table store.Table, sheetRow, width int) (string, error) {
	from, err := excelize.CoordinatesToCellName(1, sheetRow)
	if err != nil {
		return "", err
	}
	to, err := excelize.CoordinatesToCellName(width, sheetRow)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s!%s:%s", table, from, to), nil
}

func cells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, c := range row {
		out[i] = c
	}
	return out
}
