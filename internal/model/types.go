package model

import "time"

// RecordKind identifies which log line category a LogRecord was extracted from.
type RecordKind int

const (
	KindQuery RecordKind = iota
	KindWalApply
	KindWalCommit
	KindPartitionClose
	KindPgwireConnection
	KindSystemEvent
)

// String returns the category name used in API responses and display.
func (k RecordKind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindWalApply:
		return "walApply"
	case KindWalCommit:
		return "walCommit"
	case KindPartitionClose:
		return "partitionClose"
	case KindPgwireConnection:
		return "pgwireConnection"
	case KindSystemEvent:
		return "systemEvent"
	default:
		return "unknown"
	}
}

// SystemEventType classifies engine-level events found in otherwise
// unstructured lines.
type SystemEventType string

const (
	EventConnectionLimit    SystemEventType = "ConnectionLimit"
	EventO3PartitionSplit   SystemEventType = "O3PartitionSplit"
	EventPartitionSquashing SystemEventType = "PartitionSquashing"
	EventMergePartition     SystemEventType = "MergePartition"
)

// LogRecord is the canonical typed record extracted from a single log line.
// Kind selects which of the per-category fields are populated; Timestamp
// (UTC) and SourceFile are set for every record.
type LogRecord struct {
	Kind       RecordKind
	Timestamp  time.Time
	SourceFile string

	// Query execution (KindQuery).
	ExecutionTimeMs float64
	SQLPreview      string
	FullSQL         string

	// Table name, shard suffix stripped (WAL apply/commit, partition
	// close, and some system events).
	Table string

	// WAL apply job (KindWalApply).
	Transactions   uint64
	Rows           uint64
	TimeMs         uint64
	RateRowsPerSec uint64
	Amplification  float64

	// WAL commit (KindWalCommit). RowsCommitted is RowHi-RowLo and may
	// go negative on a malformed pair.
	RowLo         int64
	RowHi         int64
	RowsCommitted int64

	// Partition close (KindPartitionClose). Passed through verbatim.
	PartitionTimestamp string

	// pgwire connection (KindPgwireConnection).
	IP        string
	FD        uint32
	ConnCount uint32

	// System event (KindSystemEvent).
	EventType SystemEventType
	Message   string
}

// MetricValue returns the numeric field time-bucket statistics are
// computed over for this record's category.
func (r LogRecord) MetricValue() float64 {
	switch r.Kind {
	case KindQuery:
		return r.ExecutionTimeMs
	case KindWalApply:
		return float64(r.TimeMs)
	case KindWalCommit:
		return float64(r.RowsCommitted)
	default:
		return 0
	}
}

// RecordSet groups extracted records into the six category collections.
type RecordSet struct {
	Queries           []LogRecord
	WalApplies        []LogRecord
	WalCommits        []LogRecord
	PartitionCloses   []LogRecord
	PgwireConnections []LogRecord
	SystemEvents      []LogRecord
}

// Add appends a record to the collection matching its Kind.
func (s *RecordSet) Add(r LogRecord) {
	switch r.Kind {
	case KindQuery:
		s.Queries = append(s.Queries, r)
	case KindWalApply:
		s.WalApplies = append(s.WalApplies, r)
	case KindWalCommit:
		s.WalCommits = append(s.WalCommits, r)
	case KindPartitionClose:
		s.PartitionCloses = append(s.PartitionCloses, r)
	case KindPgwireConnection:
		s.PgwireConnections = append(s.PgwireConnections, r)
	case KindSystemEvent:
		s.SystemEvents = append(s.SystemEvents, r)
	}
}

// Merge appends all of other's collections onto s, preserving order.
func (s *RecordSet) Merge(other RecordSet) {
	s.Queries = append(s.Queries, other.Queries...)
	s.WalApplies = append(s.WalApplies, other.WalApplies...)
	s.WalCommits = append(s.WalCommits, other.WalCommits...)
	s.PartitionCloses = append(s.PartitionCloses, other.PartitionCloses...)
	s.PgwireConnections = append(s.PgwireConnections, other.PgwireConnections...)
	s.SystemEvents = append(s.SystemEvents, other.SystemEvents...)
}

// All returns every record across the six collections. Order is
// category-major and insertion-ordered within a category.
func (s *RecordSet) All() []LogRecord {
	out := make([]LogRecord, 0, s.Len())
	out = append(out, s.Queries...)
	out = append(out, s.WalApplies...)
	out = append(out, s.WalCommits...)
	out = append(out, s.PartitionCloses...)
	out = append(out, s.PgwireConnections...)
	out = append(out, s.SystemEvents...)
	return out
}

// Len returns the total record count across all collections.
func (s *RecordSet) Len() int {
	return len(s.Queries) + len(s.WalApplies) + len(s.WalCommits) +
		len(s.PartitionCloses) + len(s.PgwireConnections) + len(s.SystemEvents)
}

// FileMetadata describes the time range covered by one ingested file,
// computed across all six record categories.
type FileMetadata struct {
	FileName     string
	StartTime    time.Time
	EndTime      time.Time
	RecordCount  int
	SkippedLines int
}

// FileError is a per-file ingestion failure surfaced to the caller.
type FileError struct {
	File    string
	Message string
}

// TimeBucket is a fixed-width interval of records with summary values
// over the members' metric field. Never mutated after creation.
type TimeBucket struct {
	BucketStart time.Time
	Records     []LogRecord
	AvgTime     float64
	MaxTime     float64
	Count       int
}

// QueryStatistic summarizes all samples sharing one SQL preview signature.
type QueryStatistic struct {
	Signature   string
	FullSQL     string
	SampleCount int
	TotalTime   float64
	AvgTime     float64
	MaxTime     float64
	MinTime     float64
	P50         float64
	P95         float64
	P99         float64
}

// TableMetric is the per-table rollup of WAL apply jobs.
type TableMetric struct {
	Table            string
	JobCount         int
	TotalRows        uint64
	AvgAmplification float64
	AvgRate          float64
}

// Stats holds descriptive statistics over a value sample. All fields are
// zero for an empty sample.
type Stats struct {
	Count  int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	StdDev float64
	P25    float64
	P75    float64
	P95    float64
	P99    float64
}

// TimeMetrics describes the overall time span and throughput of a record
// collection.
type TimeMetrics struct {
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds float64
	Rate            float64
}

// HistogramBin is one equal-width bin over a value sample. The final bin
// includes values equal to the sample maximum.
type HistogramBin struct {
	Start float64
	End   float64
	Count int
}
