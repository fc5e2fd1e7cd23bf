package timeutils

import (
	"time"
)

// FormatLocal converts a timestamp into a readable format in the local
// timezone. Zero timestamps render as an empty string.
func FormatLocal(timestamp time.Time) string {
	outputLayout := "2 January 2006 3:04:05 PM MST"

	if timestamp.IsZero() {
		return ""
	}
	return timestamp.Local().Format(outputLayout)
}
