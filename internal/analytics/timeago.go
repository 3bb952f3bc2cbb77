package analytics

import (
	"strconv"
	"time"
)

var timeUnits = []struct {
	name    string
	seconds int64
}{
	{"year", 31536000},
	{"month", 2592000},
	{"week", 604800},
	{"day", 86400},
	{"hour", 3600},
	{"minute", 60},
}

// FormatTimeAgo renders the time elapsed between t and now, e.g. "3 days ago".
// Anything under a minute, including timestamps in the future, is "just now".
func FormatTimeAgo(t, now time.Time) string {
	elapsed := int64(now.Sub(t) / time.Second)

	for _, unit := range timeUnits {
		n := elapsed / unit.seconds
		if n < 1 {
			continue
		}

		if n == 1 {
			return "1 " + unit.name + " ago"
		}

		return strconv.FormatInt(n, 10) + " " + unit.name + "s ago"
	}

	return "just now"
}
