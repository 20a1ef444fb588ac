package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strconv"
)

// Key derives the idempotency key of one money movement from the chat, the
// flow id minted when the wizard started and the confirmed values. Parts are
// NUL-separated so ("ab", "c") and ("a", "bc") differ.
func Key(chatID int64, flowID string, fields ...string) string {
	h := sha256.New()
	_, _ = io.WriteString(h, strconv.FormatInt(chatID, 10))
	for _, part := range append([]string{flowID}, fields...) {
		_, _ = h.Write([]byte{0})
		_, _ = io.WriteString(h, part)
	}
	return hex.EncodeToString(h.Sum(nil))
}
