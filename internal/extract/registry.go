// Package extract classifies raw engine log lines and decodes them into
// typed records. Patterns are tried in a fixed priority order; the first
// structural match whose captures decode cleanly wins.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/qdblens/qdblens/internal/model"
)

// Pattern pairs a structural test with a field-extraction rule. A line
// that matches structurally but fails secondary decoding (for example a
// non-numeric time capture) is treated as no match for this pattern.
type Pattern struct {
	Name  string
	re    *regexp.Regexp
	build func(m []string, line string) (model.LogRecord, bool)
}

// Match runs the structural test and, on success, the field decode.
// ok is false when the line does not belong to this pattern.
func (p Pattern) Match(line string) (model.LogRecord, bool) {
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return model.LogRecord{}, false
	}
	return p.build(m, line)
}

// Registry is the ordered pattern catalog. It is an immutable value:
// construct once with NewRegistry and share by reference.
type Registry struct {
	patterns []Pattern
}

// Patterns returns the catalog in evaluation order.
func (r *Registry) Patterns() []Pattern {
	return r.patterns
}

var (
	queryRe = regexp.MustCompile("QueryProgress fin \\[id=(\\d+), sql=`(.*?)`, time=(\\d+)\\]")

	walApplyRe = regexp.MustCompile(`ApplyWal2TableJob job finished \[table=([^,\]]+), seqTxn=(\d+), transactions=(\d+), rows=(\d+), time=(\d+)ms, rate=(\d+)rows/s, ampl=([^,\]]+)\]`)

	walCommitRe = regexp.MustCompile(`WalWriter commit \[wal=/([^/\]]+)/wal\d+/\d+, segTxn=(\d+), seqTxn=(\d+), rowLo=(\d+), rowHi=(\d+)`)

	partitionCloseRe = regexp.MustCompile(`TableReader closed partition \[path=([^,\]]+), timestamp=([^,\]]+)`)

	pgwireRe = regexp.MustCompile(`pg-server connected \[ip=([^,\]]+), fd=(\d+), connCount=(\d+)`)

	tableShardSuffixRe = regexp.MustCompile(`~\d+$`)
)

// NewRegistry builds the catalog in priority order: query, WAL apply,
// WAL commit, partition close, pgwire connection, system event.
func NewRegistry() *Registry {
	return &Registry{patterns: []Pattern{
		{Name: "query", re: queryRe, build: buildQuery},
		{Name: "walApply", re: walApplyRe, build: buildWalApply},
		{Name: "walCommit", re: walCommitRe, build: buildWalCommit},
		{Name: "partitionClose", re: partitionCloseRe, build: buildPartitionClose},
		{Name: "pgwireConnection", re: pgwireRe, build: buildPgwire},
		{Name: "systemEvent", re: systemEventRe, build: buildSystemEvent},
	}}
}

// NormalizeTable strips a single trailing shard suffix of the shape
// ~<digits>. Names without the suffix pass through unchanged.
func NormalizeTable(name string) string {
	return tableShardSuffixRe.ReplaceAllString(name, "")
}

// SQLPreview returns the first five whitespace-delimited tokens of a
// statement joined by single spaces, with "..." appended only when the
// statement has more than five tokens.
func SQLPreview(sql string) string {
	tokens := strings.Fields(sql)
	if len(tokens) <= 5 {
		return strings.Join(tokens, " ")
	}
	return strings.Join(tokens[:5], " ") + "..."
}

func buildQuery(m []string, _ string) (model.LogRecord, bool) {
	nanos, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return model.LogRecord{}, false
	}
	sql := m[2]
	return model.LogRecord{
		Kind:            model.KindQuery,
		ExecutionTimeMs: float64(nanos) / 1e6,
		SQLPreview:      SQLPreview(sql),
		FullSQL:         sql,
	}, true
}

func buildWalApply(m []string, _ string) (model.LogRecord, bool) {
	transactions, err1 := strconv.ParseUint(m[3], 10, 64)
	rows, err2 := strconv.ParseUint(m[4], 10, 64)
	timeMs, err3 := strconv.ParseUint(m[5], 10, 64)
	rate, err4 := strconv.ParseUint(m[6], 10, 64)
	ampl, err5 := strconv.ParseFloat(m[7], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return model.LogRecord{}, false
	}
	return model.LogRecord{
		Kind:           model.KindWalApply,
		Table:          NormalizeTable(m[1]),
		Transactions:   transactions,
		Rows:           rows,
		TimeMs:         timeMs,
		RateRowsPerSec: rate,
		Amplification:  ampl,
	}, true
}

func buildWalCommit(m []string, _ string) (model.LogRecord, bool) {
	rowLo, err1 := strconv.ParseInt(m[4], 10, 64)
	rowHi, err2 := strconv.ParseInt(m[5], 10, 64)
	if err1 != nil || err2 != nil {
		return model.LogRecord{}, false
	}
	return model.LogRecord{
		Kind:  model.KindWalCommit,
		Table: NormalizeTable(m[1]),
		RowLo: rowLo,
		RowHi: rowHi,
		// Unguarded: a rowHi below rowLo yields a negative count.
		RowsCommitted: rowHi - rowLo,
	}, true
}

func buildPartitionClose(m []string, _ string) (model.LogRecord, bool) {
	path := m[1]
	table := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		table = path[i+1:]
	}
	if table == "" {
		return model.LogRecord{}, false
	}
	return model.LogRecord{
		Kind:               model.KindPartitionClose,
		Table:              NormalizeTable(table),
		PartitionTimestamp: m[2],
	}, true
}

func buildPgwire(m []string, _ string) (model.LogRecord, bool) {
	fd, err1 := strconv.ParseUint(m[2], 10, 32)
	connCount, err2 := strconv.ParseUint(m[3], 10, 32)
	if err1 != nil || err2 != nil {
		return model.LogRecord{}, false
	}
	return model.LogRecord{
		Kind:      model.KindPgwireConnection,
		IP:        m[1],
		FD:        uint32(fd),
		ConnCount: uint32(connCount),
	}, true
}
