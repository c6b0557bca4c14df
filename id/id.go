// Package id defines TypeID-based identifiers for drafts and stored rows.
//
// Invoice numbers ("INV-0001") are the business key and are not TypeIDs.
// These IDs only name things the ledger itself creates: an open draft and,
// in database backends, the primary key of a table row.
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix names the kind of thing an ID identifies.
type Prefix string

const (
	PrefixDraft Prefix = "draft"
	PrefixRow   Prefix = "row"
)

// ID is a prefixed, K-sortable identifier in "prefix_suffix" form. The zero
// value is Nil.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// DraftID identifies an open invoice draft.
type DraftID = ID

// RowID is the primary key of a stored table row.
type RowID = ID

// New generates an ID with the given prefix. It panics on an invalid
// prefix.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

func NewDraftID() ID { return New(PrefixDraft) }
func NewRowID() ID   { return New(PrefixRow) }

// Parse parses an ID of any prefix.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses s and requires its prefix to be expected.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}
	return parsed, nil
}

func ParseDraftID(s string) (ID, error) { return ParseWithPrefix(s, PrefixDraft) }
func ParseRowID(s string) (ID, error)   { return ParseWithPrefix(s, PrefixRow) }

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

func (i ID) IsNil() bool { return !i.valid }

// MarshalText implements encoding.TextMarshaler. Nil marshals as empty.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
