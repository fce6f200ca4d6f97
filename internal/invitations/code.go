package invitations

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"io"
	"strings"
)

const (
	codeBytes = 10
	groupSize = 4
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewCode draws a code from r, formatted as XXXX-XXXX-XXXX-XXXX.
func NewCode(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, codeBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("invitations: read random: %w", err)
	}
	return group(encoding.EncodeToString(buf)), nil
}

// NormalizeCode accepts user input in any case, with or without separators,
// and returns the canonical grouped form.
func NormalizeCode(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return group(b.String())
}

func group(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && i%groupSize == 0 {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}
