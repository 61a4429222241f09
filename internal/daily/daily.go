// Package daily derives the deterministic daily challenge secret.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/KhashayarKhm/chameleon/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Secret returns the code for a date using HMAC(salt, YYYY-MM-DD),
// read as a base-Colors number, one digit per slot.
func Secret(date time.Time, salt string, cfg game.Config) game.Code {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as the source of digits
	n := binary.BigEndian.Uint64(sum[:8])

	code := make(game.Code, cfg.Length)
	base := uint64(cfg.Colors)
	for i := range code {
		code[i] = game.Symbol(n % base)
		n /= base
		if n == 0 {
			// re-seed from the rest of the digest for very long codes
			n = binary.BigEndian.Uint64(sum[8+(i%3)*8:])
		}
	}
	return code
}
