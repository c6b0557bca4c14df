package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	audithook "github.com/xraph/freightledger/audit_hook"
)

// auditFile appends audit events to a JSON-lines file.
type auditFile struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

type auditLine struct {
	Time time.Time `json:"time"`
	*audithook.AuditEvent
}

func openAuditFile(path string) (*auditFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &auditFile{f: f, enc: json.NewEncoder(f)}, nil
}

func (a *auditFile) Record(_ context.Context, event *audithook.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enc.Encode(auditLine{Time: time.Now().UTC(), AuditEvent: event})
}

func (a *auditFile) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.f.Close()
}
