package extract

import (
	"regexp"
	"time"
)

// lineTimestampRe matches the first RFC3339-like instant in a line:
// fractional seconds up to microsecond precision, Z-suffixed.
var lineTimestampRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{1,6}Z`)

// LineTimestamp extracts and parses the first timestamp found in a log
// line as UTC. ok is false when no timestamp is present or it fails to
// parse.
func LineTimestamp(line string) (time.Time, bool) {
	match := lineTimestampRe.FindString(line)
	if match == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, match)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}
