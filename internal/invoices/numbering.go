package invoices

import (
	"fmt"
	"strings"
)

// DefaultPrefix is used when a user has no numbering prefix configured.
const DefaultPrefix = "INV"

// FormatNumber renders an invoice number: the prefix followed by the counter
// zero padded to at least four digits. Larger counters are never truncated.
func FormatNumber(prefix string, counter int) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s%04d", prefix, counter)
}
