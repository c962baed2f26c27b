package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// DefaultLimit and MaxLimit bound page sizes for every paginated listing.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// EncodeToken creates a base64 encoded cursor from the sort key of the last returned row
// and its id, which breaks ties between rows sharing the same sort key.
func EncodeToken(sortKey time.Time, id string) string {
	tokenStr := fmt.Sprintf("%s|%s", sortKey.Format(timeFormat), id)
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses the base64 encoded cursor back into its sort key and id.
func DecodeToken(token string) (time.Time, string, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (split)")
	}

	sortKey, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (sort key parse): %w", err)
	}
	return sortKey, parts[1], nil
}

// After reports whether the row (sortKey, id) comes strictly after the cursor position.
func After(sortKey time.Time, id string, cursorKey time.Time, cursorID string) bool {
	if sortKey.Equal(cursorKey) {
		return id > cursorID
	}
	return sortKey.After(cursorKey)
}

// NormalizeLimit clamps a requested page size into (0, MaxLimit].
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
