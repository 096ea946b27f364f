package booking

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/eransh/bookwise/internal/slot"
)

// IdempotencyKey derives a deterministic key from the conversation identity
// and the candidate slot. The same conversation accepting the same candidate
// always yields the same key, so a retried commit cannot double-book.
func IdempotencyKey(conversationID string, c slot.Candidate, attendees []string) string {
	sorted := append([]string(nil), attendees...)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(conversationID))
	h.Write([]byte{0})
	h.Write([]byte(c.Start.UTC().Format(time.RFC3339)))
	h.Write([]byte{0})
	h.Write([]byte(c.End.UTC().Format(time.RFC3339)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sorted, ",")))
	return hex.EncodeToString(h.Sum(nil))
}
