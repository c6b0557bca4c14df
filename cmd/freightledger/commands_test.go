package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	audithook "github.com/xraph/freightledger/audit_hook"
	"github.com/xraph/freightledger/invoice"
)

var numberPattern = regexp.MustCompile(`^INV-\d{4,}$`)

// run executes one command line against a fresh root command, the way a
// separate process would.
func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.ExecuteContext(context.Background())
	return strings.TrimSpace(out.String()), err
}

func testConfig(t *testing.T) (cfgPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "freightledger.yaml")
	content := "currency: thb\ntax:\n  mode: percentage\n  value: \"7\"\nstore:\n  driver: xlsx\n  path: " +
		filepath.Join(dir, "invoices.xlsx") + "\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return cfgPath, dir
}

func TestCreateShowList(t *testing.T) {
	cfg, dir := testConfig(t)
	draft := writeFile(t, "draft.yaml", palletDraft)

	next, err := run(t, cfg, "next-number")
	if err != nil {
		t.Fatalf("next-number: %v", err)
	}
	if next != "INV-0001" {
		t.Errorf("next-number = %q, want INV-0001", next)
	}

	number, err := run(t, cfg, "create", "-f", draft)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if number != next || !numberPattern.MatchString(number) {
		t.Errorf("create = %q, want %q", number, next)
	}

	out, err := run(t, cfg, "show", "--json", number)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var inv invoice.Invoice
	if err := json.Unmarshal([]byte(out), &inv); err != nil {
		t.Fatalf("decode show output: %v\n%s", err, out)
	}
	if inv.CustomerName != "Siam Logistics" || len(inv.Items) != 1 {
		t.Errorf("show = %+v", inv)
	}

	text, err := run(t, cfg, "show", number)
	if err != nil {
		t.Fatalf("show text: %v", err)
	}
	if !strings.Contains(text, "Pallet") || !strings.Contains(text, "474.50") {
		t.Errorf("show text missing item or total:\n%s", text)
	}

	list, err := run(t, cfg, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(list, "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], number) {
		t.Fatalf("list =\n%s", list)
	}
	if fields := strings.Fields(lines[1]); fields[len(fields)-2] != "1" {
		t.Errorf("list item count = %q, want 1\n%s", fields[len(fields)-2], list)
	}

	if _, err := os.Stat(filepath.Join(dir, "invoices.xlsx")); err != nil {
		t.Errorf("workbook not written: %v", err)
	}
}

func TestEditAndDuplicate(t *testing.T) {
	cfg, _ := testConfig(t)
	number, err := run(t, cfg, "create", "-f", writeFile(t, "draft.yaml", palletDraft))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	edit := writeFile(t, "edit.yaml", `
items:
  - product: Pallet
    qty: 10
    price: "35"
  - product: Crate
    qty: 1
    price: "20"
`)
	got, err := run(t, cfg, "edit", number, "-f", edit)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got != number {
		t.Errorf("edit returned %q, want %q", got, number)
	}

	copyNumber, err := run(t, cfg, "duplicate", number)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if copyNumber != "INV-0002" {
		t.Errorf("duplicate = %q", copyNumber)
	}

	out, err := run(t, cfg, "show", "--json", copyNumber)
	if err != nil {
		t.Fatalf("show copy: %v", err)
	}
	var inv invoice.Invoice
	if err := json.Unmarshal([]byte(out), &inv); err != nil {
		t.Fatal(err)
	}
	if len(inv.Items) != 2 || inv.CustomerName != "Siam Logistics" {
		t.Errorf("copy = %+v", inv)
	}
}

func TestRenderWritesPDF(t *testing.T) {
	cfg, dir := testConfig(t)
	number, err := run(t, cfg, "create", "-f", writeFile(t, "draft.yaml", palletDraft))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	out := filepath.Join(dir, "out.pdf")
	if _, err := run(t, cfg, "render", number, "-o", out); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", data[:min(len(data), 16)])
	}

	missing := filepath.Join(dir, "missing.pdf")
	if _, err := run(t, cfg, "render", "INV-0999", "-o", missing); err == nil {
		t.Error("render of unknown number succeeded")
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("failed render left its output file behind")
	}
}

func TestMigrateCommand(t *testing.T) {
	cfg, dir := testConfig(t)
	f, err := os.OpenFile(cfg, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("auto_migrate: false\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	workbook := filepath.Join(dir, "invoices.xlsx")

	if _, err := run(t, cfg, "list"); err == nil {
		t.Error("list succeeded on an unmigrated store")
	}
	if _, err := os.Stat(workbook); err == nil {
		t.Error("workbook written without migrate")
	}

	out, err := run(t, cfg, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if out != "migrated xlsx store" {
		t.Errorf("migrate = %q", out)
	}
	if _, err := os.Stat(workbook); err != nil {
		t.Fatalf("workbook not written: %v", err)
	}

	if _, err := run(t, cfg, "create", "-f", writeFile(t, "draft.yaml", palletDraft)); err != nil {
		t.Fatalf("create after migrate: %v", err)
	}
	list, err := run(t, cfg, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if lines := strings.Split(list, "\n"); len(lines) != 2 {
		t.Errorf("list =\n%s", list)
	}
}

func TestCommandErrors(t *testing.T) {
	cfg, _ := testConfig(t)

	if _, err := run(t, cfg, "show", "INV-0001"); err == nil {
		t.Error("show of unknown number succeeded")
	}
	if _, err := run(t, cfg, "create", "-f", writeFile(t, "empty.yaml", "customer_name: Nobody\n")); err == nil {
		t.Error("create without items succeeded")
	}
	if _, err := run(t, filepath.Join(t.TempDir(), "absent.yaml"), "list"); err == nil {
		t.Error("explicit missing config accepted")
	}
	if _, err := run(t, cfg, "migrate"); err != nil {
		t.Errorf("migrate: %v", err)
	}
}

func TestAuditLog(t *testing.T) {
	cfg, dir := testConfig(t)
	logPath := filepath.Join(dir, "audit.jsonl")
	f, err := os.OpenFile(cfg, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("audit_log: " + logPath + "\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	number, err := run(t, cfg, "create", "-f", writeFile(t, "draft.yaml", palletDraft))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("audit log: %v", err)
	}
	var event struct {
		Action     string `json:"action"`
		ResourceID string `json:"resource_id"`
	}
	line, _, _ := strings.Cut(string(data), "\n")
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	if event.Action != audithook.ActionInvoiceCreated || event.ResourceID != number {
		t.Errorf("event = %+v", event)
	}
}
