package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var idCounter uint64

// GenerateSearchID generates a search ID with a timestamp prefix, e.g.
// "search-20250101-120000-a1b2c3d4".
func GenerateSearchID() string {
	timestamp := time.Now().Format("20060102-150405")
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		count := atomic.AddUint64(&idCounter, 1)
		return fmt.Sprintf("search-%s-%x", timestamp, count)
	}
	return fmt.Sprintf("search-%s-%s", timestamp, hex.EncodeToString(b))
}
