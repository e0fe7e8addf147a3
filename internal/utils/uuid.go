package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffixLength   = 18
)

// GenerateUUID generates a new UUID string
func GenerateUUID() string {
	return uuid.New().String()
}

// timeOrderedSuffix is a hex millisecond timestamp, a dash, then random characters up to size.
// Falls back to uuid characters when the random source fails.
func timeOrderedSuffix(size int) string {
	ts := fmt.Sprintf("%x-", time.Now().UTC().UnixMilli())
	if len(ts) >= size {
		return strings.ReplaceAll(uuid.New().String(), "-", "")[:size]
	}

	var b strings.Builder
	b.Grow(size)
	b.WriteString(ts)
	max := big.NewInt(int64(len(suffixAlphabet)))
	for b.Len() < size {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			fallback := strings.ReplaceAll(uuid.New().String(), "-", "")
			b.WriteString(fallback[:size-b.Len()])
			break
		}
		b.WriteByte(suffixAlphabet[n.Int64()])
	}
	return b.String()
}

// IDWithPrefix returns prefix-<time ordered suffix>
func IDWithPrefix(prefix string) string {
	return prefix + "-" + timeOrderedSuffix(suffixLength)
}

// ManualTestID names a single on-demand test run against component
func ManualTestID(component string) string {
	return IDWithPrefix("manual_" + component)
}
