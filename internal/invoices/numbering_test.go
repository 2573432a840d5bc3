package invoices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		prefix  string
		counter int
		want    string
	}{
		{"INV", 1, "INV0001"},
		{"INV", 7, "INV0007"},
		{"INV", 9999, "INV9999"},
		{"INV", 12345, "INV12345"},
		{"AB", 42, "AB0042"},
		{"", 3, "INV0003"},
		{"  ", 3, "INV0003"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatNumber(tc.prefix, tc.counter))
	}
}
