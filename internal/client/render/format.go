package render

import (
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are the shapes the backend emits for created_at /
// updated_at. Tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// FormatByteSize renders a byte count using binary (1024-based) units.
// Display only; the stored numeric value is untouched.
//
//	FormatByteSize(0)    == "0 B"
//	FormatByteSize(1536) == "1.5 KB"
func FormatByteSize(size int64) string {
	if size == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	f := float64(size)
	i := 0
	for f >= 1024 && i < len(units)-1 {
		f /= 1024
		i++
	}
	s := strconv.FormatFloat(f, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + " " + units[i]
}

// FormatTimestamp renders a nullable ISO-8601 string for display.
// Nil, empty and unparsable values render empty.
func FormatTimestamp(ts *string) string {
	if ts == nil || *ts == "" {
		return ""
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, *ts); err == nil {
			return t.Local().Format("2006-01-02 15:04:05")
		}
	}
	return ""
}
