package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HeaderHash identifies a bank export layout: the first 16 hex characters of
// the SHA-256 of the trimmed column names joined by "|". Column order matters.
func HeaderHash(columns []string) string {
	trimmed := make([]string, len(columns))
	for i, c := range columns {
		trimmed[i] = strings.TrimSpace(c)
	}
	sum := sha256.Sum256([]byte(strings.Join(trimmed, "|")))
	return hex.EncodeToString(sum[:])[:16]
}
