package sheets_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/xraph/freightledger/store"
	"github.com/xraph/freightledger/store/sheets"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"quota", &googleapi.Error{Code: 429}, true},
		{"internal", &googleapi.Error{Code: 500}, true},
		{"unavailable", &googleapi.Error{Code: 503}, true},
		{"wrapped bad gateway", fmt.Errorf("append: %w", &googleapi.Error{Code: 502}), true},
		{"bad request", &googleapi.Error{Code: 400}, false},
		{"forbidden", &googleapi.Error{Code: 403}, false},
		{"not found", &googleapi.Error{Code: 404}, false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sheets.Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// newTestStore points a Store at handler with retries and rate limiting
// tuned for tests.
func newTestStore(t *testing.T, handler http.HandlerFunc) *sheets.Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := sheets.New(context.Background(), "sheet-1",
		sheets.WithClientOptions(
			option.WithEndpoint(srv.URL+"/"),
			option.WithHTTPClient(srv.Client()),
			option.WithoutAuthentication(),
		),
		sheets.WithRateLimit(rate.Inf, 1),
		sheets.WithRetry(4, time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func writeError(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":"test failure"}}`, code)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func TestPingRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			writeError(w, http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, `{"spreadsheetId":"sheet-1"}`)
	})

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestClientErrorsFailFast(t *testing.T) {
	var calls atomic.Int32
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeError(w, http.StatusForbidden)
	})

	err := s.Ping(context.Background())
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusForbidden {
		t.Fatalf("Ping = %v, want 403 googleapi.Error", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestRetriesGiveUp(t *testing.T) {
	var calls atomic.Int32
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeError(w, http.StatusTooManyRequests)
	})

	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("Ping succeeded against an exhausted quota")
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("calls = %d, want 4", got)
	}
}

func TestListRowsKeepsBlankRows(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/values/") {
			t.Errorf("unexpected request %s", r.URL.Path)
		}
		writeJSON(w, `{"range":"Invoices!A2:ZZ","majorDimension":"ROWS",
			"values":[["INV-0001","2026-01-01","Acme"],[],["INV-0002"]]}`)
	})

	rows, err := s.ListRows(context.Background(), store.Invoices)
	if err != nil {
		t.Fatalf("ListRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0].Cell(2) != "Acme" || len(rows[1]) != 0 || rows[2].Cell(0) != "INV-0002" {
		t.Errorf("rows = %q", rows)
	}
}

func TestUpdateOutOfRange(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, `{"values":[["INV-0001"]]}`)
	})

	err := s.UpdateRow(context.Background(), store.Invoices, 3, store.Row{"INV-0004"})
	if !errors.Is(err, store.ErrRowOutOfRange) {
		t.Errorf("UpdateRow = %v, want ErrRowOutOfRange", err)
	}
}

func TestUnknownTableAndClosed(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	ctx := context.Background()

	if _, err := s.ListRows(ctx, "Payments"); !errors.Is(err, store.ErrUnknownTable) {
		t.Errorf("ListRows(Payments) = %v", err)
	}
	_ = s.Close()
	if err := s.AppendRow(ctx, store.Invoices, store.Row{"INV-0001"}); !errors.Is(err, store.ErrClosed) {
		t.Errorf("AppendRow after Close = %v", err)
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := sheets.New(context.Background(), "", sheets.WithClientOptions(option.WithoutAuthentication())); err == nil {
		t.Error("New with empty id succeeded")
	}
}

func TestRowIndexUsesListedCount(t *testing.T) {
	var lists, writes atomic.Int32
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
			lists.Add(1)
			writeJSON(w, `{"values":[["INV-0001"],["INV-0002"]]}`)
		case r.Method == http.MethodGet:
			writeJSON(w, `{"sheets":[{"properties":{"sheetId":7,"title":"Invoices"}}]}`)
		default:
			writes.Add(1)
			writeJSON(w, `{}`)
		}
	})
	ctx := context.Background()

	if _, err := s.ListRows(ctx, store.Invoices); err != nil {
		t.Fatalf("ListRows: %v", err)
	}
	if err := s.UpdateRow(ctx, store.Invoices, 1, store.Row{"INV-0002"}); err != nil {
		t.Fatalf("UpdateRow: %v", err)
	}
	if err := s.DeleteRow(ctx, store.Invoices, 0); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	if err := s.UpdateRow(ctx, store.Invoices, 1, store.Row{"INV-0002"}); !errors.Is(err, store.ErrRowOutOfRange) {
		t.Errorf("UpdateRow past the deleted row = %v, want ErrRowOutOfRange", err)
	}
	if err := s.AppendRow(ctx, store.Invoices, store.Row{"INV-0003"}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if err := s.UpdateRow(ctx, store.Invoices, 1, store.Row{"INV-0003"}); err != nil {
		t.Errorf("UpdateRow of the appended row: %v", err)
	}

	if got := lists.Load(); got != 1 {
		t.Errorf("list requests = %d, want 1", got)
	}
	if got := writes.Load(); got != 4 {
		t.Errorf("write requests = %d, want 4", got)
	}
}

func TestMigrateExistingSpreadsheet(t *testing.T) {
	var calls atomic.Int32
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch {
		case r.Method != http.MethodGet:
			t.Errorf("unexpected write %s %s", r.Method, r.URL.Path)
			writeJSON(w, `{}`)
		case strings.HasSuffix(r.URL.Path, "values:batchGet"):
			writeJSON(w, `{"valueRanges":[{"values":[["invoice_no"]]},{"values":[["invoice_no"]]}]}`)
		default:
			writeJSON(w, `{"sheets":[
				{"properties":{"sheetId":1,"title":"Invoices"}},
				{"properties":{"sheetId":2,"title":"InvoiceItems"}}]}`)
		}
	})

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}
