package contactgraph

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashPhoneNumber returns the hex SHA-256 of the digits of a phone number,
// or "" when it has none. The server only ever receives hashes; this is the
// client-side rule, used by cmd/debug_token and tests to build payloads.
func HashPhoneNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
