package pagination

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

const MaxLimit = 100

// ClampLimit acota n a [1, MaxLimit]. 0 y negativos quedan en 1.
func ClampLimit(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// ResolveLimit: nil => def; si no, ClampLimit.
func ResolveLimit(n *int, def int) int {
	if n == nil {
		return ClampLimit(def)
	}
	return ClampLimit(*n)
}

// ParseLimit lee un query param. Ausente o no numérico => nil (usar default);
// numérico => acotado a [1, MaxLimit].
func ParseLimit(raw string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return Limit(ClampLimit(n))
}

func Limit(n int) *int {
	return &n
}

// ParseCursor: el cursor es el createdAt (RFC3339) del último ítem visto; la página
// siguiente trae createdAt estrictamente menor. "" => sin cursor.
func ParseCursor(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &t, nil
}

func EncodeCursor(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
