package invoice

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberPrefix precedes the running sequence in every invoice number.
const NumberPrefix = "INV-"

// FirstNumber is assigned to the first invoice, and whenever the last
// stored number cannot be parsed.
const FirstNumber = "INV-0001"

// MalformedNumberError reports a last-stored invoice number that does not
// follow the INV-<digits> pattern.
type MalformedNumberError struct {
	Value string
}

func (e *MalformedNumberError) Error() string {
	return fmt.Sprintf("invoice: malformed number %q, sequence restarts at %s", e.Value, FirstNumber)
}

// FormatNumber renders seq as INV-NNNN. Widths beyond four digits are kept.
func FormatNumber(seq int) string {
	return fmt.Sprintf("%s%04d", NumberPrefix, seq)
}

// ParseNumber extracts the sequence from an invoice number. Surrounding
// whitespace is ignored.
func ParseNumber(s string) (int, error) {
	v := strings.TrimSpace(s)
	digits, ok := strings.CutPrefix(v, NumberPrefix)
	if !ok || digits == "" {
		return 0, &MalformedNumberError{Value: s}
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, &MalformedNumberError{Value: s}
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, &MalformedNumberError{Value: s}
	}
	return n, nil
}

// NextNumber derives the number for a new invoice from the stored numbers
// in store order. Only the last element is consulted; gaps and earlier
// values are not scanned.
//
// If the last element is malformed, FirstNumber is returned together with
// a *MalformedNumberError so the caller can log it.
func NextNumber(existing []string) (string, error) {
	if len(existing) == 0 {
		return FirstNumber, nil
	}
	last := existing[len(existing)-1]
	n, err := ParseNumber(last)
	if err != nil {
		return FirstNumber, err
	}
	return FormatNumber(n + 1), nil
}

// SameNumber reports whether a stored cell refers to number.
func SameNumber(cell, number string) bool {
	return strings.TrimSpace(cell) == strings.TrimSpace(number)
}
