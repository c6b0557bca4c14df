// Package drive archives rendered invoices in Google Drive.
//
// An Archiver wraps another formatter. It serves the wrapped format with a
// "-drive" suffix: the document is rendered, uploaded to Drive and then
// written to the caller.
//
//	a, err := drive.New(ctx, pdf.New(), drive.WithFolder(folderID))
//	l := ledger.New(s, ledger.WithPlugin(a))
//	err = l.Render(ctx, "INV-0001", "pdf-drive", w)
package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/plugin"
)

// Suffix is appended to the wrapped format name.
const Suffix = "-drive"

const defaultMaxTries = 4

// Compile-time interface checks.
var (
	_ plugin.Plugin           = (*Archiver)(nil)
	_ plugin.InvoiceFormatter = (*Archiver)(nil)
)

// mimeTypes maps format names to the Drive file content type.
var mimeTypes = map[string]string{
	"pdf":  "application/pdf",
	"csv":  "text/csv",
	"txt":  "text/plain",
	"json": "application/json",
}

// Archiver uploads every document rendered by the wrapped formatter.
type Archiver struct {
	next            plugin.InvoiceFormatter
	svc             *driveapi.Service
	folderID        string
	maxTries        uint
	initialInterval time.Duration
	logger          *slog.Logger
	clientOpts      []option.ClientOption
}

// Option configures an Archiver.
type Option func(*Archiver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archiver) { a.logger = logger }
}

// WithFolder uploads into the Drive folder with the given id. Without it,
// files land in the root of the authenticated account's Drive.
func WithFolder(id string) Option {
	return func(a *Archiver) { a.folderID = id }
}

// WithCredentialsFile authenticates with a service-account JSON key.
func WithCredentialsFile(path string) Option {
	return func(a *Archiver) {
		a.clientOpts = append(a.clientOpts, option.WithCredentialsFile(path))
	}
}

// WithClientOptions passes options to the underlying API client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(a *Archiver) { a.clientOpts = append(a.clientOpts, opts...) }
}

// WithRetry sets the upload attempts and the first backoff interval.
func WithRetry(maxTries uint, initial time.Duration) Option {
	return func(a *Archiver) {
		a.maxTries = maxTries
		a.initialInterval = initial
	}
}

// New returns an Archiver around next.
func New(ctx context.Context, next plugin.InvoiceFormatter, opts ...Option) (*Archiver, error) {
	if next == nil {
		return nil, errors.New("drive: nil formatter")
	}
	a := &Archiver{
		next:            next,
		maxTries:        defaultMaxTries,
		initialInterval: time.Second,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	svc, err := driveapi.NewService(ctx, a.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("drive: create service: %w", err)
	}
	a.svc = svc
	return a, nil
}

// Name implements plugin.Plugin.
func (a *Archiver) Name() string { return "drive-archive" }

// Format implements plugin.InvoiceFormatter.
func (a *Archiver) Format() string { return a.next.Format() + Suffix }

// Render implements plugin.InvoiceFormatter. Nothing is written to w when
// the upload fails.
func (a *Archiver) Render(ctx context.Context, inv *invoice.Invoice, w io.Writer) error {
	if inv == nil {
		return errors.New("drive: nil invoice")
	}

	var buf bytes.Buffer
	if err := a.next.Render(ctx, inv, &buf); err != nil {
		return err
	}

	name := FileName(inv.Number, a.next.Format())
	f, err := a.upload(ctx, name, buf.Bytes())
	if err != nil {
		return fmt.Errorf("drive: upload %s: %w", name, err)
	}
	a.logger.Info("drive: invoice archived",
		"number", inv.Number,
		"file_id", f.Id,
		"link", f.WebViewLink,
	)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("drive: write %s: %w", inv.Number, err)
	}
	return nil
}

// FileName returns the Drive file name for an invoice rendered as format.
func FileName(number, format string) string {
	return number + "." + format
}

func (a *Archiver) upload(ctx context.Context, name string, doc []byte) (*driveapi.File, error) {
	meta := &driveapi.File{Name: name, MimeType: mimeType(a.next.Format())}
	if a.folderID != "" {
		meta.Parents = []string{a.folderID}
	}

	attempt := func() (*driveapi.File, error) {
		f, err := a.svc.Files.Create(meta).
			Media(bytes.NewReader(doc), googleapi.ContentType(meta.MimeType)).
			Fields("id", "name", "webViewLink").
			SupportsAllDrives(true).
			Context(ctx).Do()
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return f, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.initialInterval
	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(a.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			a.logger.Warn("drive: retrying upload", "file", name, "error", err, "backoff", next)
		}),
	)
}

func mimeType(format string) string {
	if t, ok := mimeTypes[format]; ok {
		return t
	}
	return "application/octet-stream"
}

// retryable reports quota exhaustion (429) and server errors (5xx).
func retryable(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError
}
