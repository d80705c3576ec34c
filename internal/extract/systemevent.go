package extract

import (
	"regexp"

	"github.com/qdblens/qdblens/internal/model"
)

const maxEventMessageLen = 200

// systemEventRe is the structural gate for the lowest-priority pattern:
// any of the four engine event phrases, anywhere in the line.
var systemEventRe = regexp.MustCompile(`max connection limit reached|o3 split partition|squashing partitions|merged partition`)

var (
	connectionLimitRe = regexp.MustCompile(`max connection limit reached`)
	o3SplitRe         = regexp.MustCompile(`o3 split partition`)
	squashingRe       = regexp.MustCompile(`squashing partitions`)
	mergedRe          = regexp.MustCompile(`merged partition`)

	o3SplitTableRe   = regexp.MustCompile(`o3 split partition \[table=([^,\]]+)`)
	squashingTableRe = regexp.MustCompile(`squashing partitions \[table=([^,\]]+)`)
	mergedTableRe    = regexp.MustCompile("merged partition \\[table=`([^`]+)`")
)

// buildSystemEvent sub-classifies an event line. The four phrases are
// tested in priority order; the first hit determines the event type. The
// table name is extracted when the phrase carries one and stays empty
// otherwise.
func buildSystemEvent(_ []string, line string) (model.LogRecord, bool) {
	rec := model.LogRecord{
		Kind:    model.KindSystemEvent,
		Message: truncateMessage(line),
	}

	switch {
	case connectionLimitRe.MatchString(line):
		rec.EventType = model.EventConnectionLimit
	case o3SplitRe.MatchString(line):
		rec.EventType = model.EventO3PartitionSplit
		rec.Table = eventTable(o3SplitTableRe, line)
	case squashingRe.MatchString(line):
		rec.EventType = model.EventPartitionSquashing
		rec.Table = eventTable(squashingTableRe, line)
	case mergedRe.MatchString(line):
		rec.EventType = model.EventMergePartition
		rec.Table = eventTable(mergedTableRe, line)
	default:
		return model.LogRecord{}, false
	}

	return rec, true
}

func eventTable(re *regexp.Regexp, line string) string {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return NormalizeTable(m[1])
}

func truncateMessage(line string) string {
	if len(line) <= maxEventMessageLen {
		return line
	}
	return line[:maxEventMessageLen]
}
