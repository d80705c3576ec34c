// Package stats turns flat record collections into time-bucketed groups,
// ranked summaries, histograms, and per-table rollups. Every function is
// a pure transform over caller-owned data.
package stats

import (
	"sort"
	"time"

	"github.com/qdblens/qdblens/internal/model"
)

// UnknownTable is the reserved bucket for records without a table field.
const UnknownTable = "unknown"

// GroupByInterval buckets records by floor(timestamp/interval)*interval
// and returns the buckets sorted ascending by start time. Avg and max
// are computed over the members' metric values. Fractional-second
// intervals are supported.
func GroupByInterval(records []model.LogRecord, interval time.Duration) []model.TimeBucket {
	if len(records) == 0 || interval <= 0 {
		return nil
	}

	grouped := make(map[int64][]model.LogRecord)
	for _, r := range records {
		key := (r.Timestamp.UnixNano() / int64(interval)) * int64(interval)
		grouped[key] = append(grouped[key], r)
	}

	keys := make([]int64, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	buckets := make([]model.TimeBucket, 0, len(keys))
	for _, k := range keys {
		members := grouped[k]
		var sum, max float64
		for _, r := range members {
			v := r.MetricValue()
			sum += v
			if v > max {
				max = v
			}
		}
		buckets = append(buckets, model.TimeBucket{
			BucketStart: time.Unix(0, k).UTC(),
			Records:     members,
			AvgTime:     sum / float64(len(members)),
			MaxTime:     max,
			Count:       len(members),
		})
	}
	return buckets
}

// TopQueries groups query records by SQL preview signature, computes
// per-signature statistics over the full sample, and returns the top
// signatures ranked descending by max time, truncated to limit. A
// non-positive limit uses the default of 12.
func TopQueries(records []model.LogRecord, limit int) []model.QueryStatistic {
	if limit <= 0 {
		limit = model.DefaultTopQueryLimit
	}

	type group struct {
		fullSQL string
		times   []float64
	}
	groups := make(map[string]*group)
	order := make([]string, 0)
	for _, r := range records {
		if r.Kind != model.KindQuery {
			continue
		}
		g, ok := groups[r.SQLPreview]
		if !ok {
			g = &group{fullSQL: r.FullSQL}
			groups[r.SQLPreview] = g
			order = append(order, r.SQLPreview)
		}
		g.times = append(g.times, r.ExecutionTimeMs)
	}

	result := make([]model.QueryStatistic, 0, len(order))
	for _, sig := range order {
		g := groups[sig]
		sorted := make([]float64, len(g.times))
		copy(sorted, g.times)
		sort.Float64s(sorted)

		var total float64
		for _, v := range sorted {
			total += v
		}

		result = append(result, model.QueryStatistic{
			Signature:   sig,
			FullSQL:     g.fullSQL,
			SampleCount: len(sorted),
			TotalTime:   total,
			AvgTime:     total / float64(len(sorted)),
			MaxTime:     sorted[len(sorted)-1],
			MinTime:     sorted[0],
			P50:         Percentile(sorted, 50),
			P95:         Percentile(sorted, 95),
			P99:         Percentile(sorted, 99),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].MaxTime > result[j].MaxTime
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// GroupByTable maps records to their normalized table name. Records
// without a table fall into the reserved "unknown" bucket.
func GroupByTable(records []model.LogRecord) map[string][]model.LogRecord {
	grouped := make(map[string][]model.LogRecord)
	for _, r := range records {
		table := r.Table
		if table == "" {
			table = UnknownTable
		}
		grouped[table] = append(grouped[table], r)
	}
	return grouped
}

// TimeMetrics reports the time span and throughput of a record
// collection. Rate divides by max(1, durationSeconds) so a sub-second
// span never divides by zero. Empty input yields the zero value.
func TimeMetrics(records []model.LogRecord) model.TimeMetrics {
	if len(records) == 0 {
		return model.TimeMetrics{}
	}

	start, end := records[0].Timestamp, records[0].Timestamp
	for _, r := range records[1:] {
		if r.Timestamp.Before(start) {
			start = r.Timestamp
		}
		if r.Timestamp.After(end) {
			end = r.Timestamp
		}
	}

	duration := end.Sub(start).Seconds()
	denom := duration
	if denom < 1 {
		denom = 1
	}
	return model.TimeMetrics{
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: duration,
		Rate:            float64(len(records)) / denom,
	}
}

// FilterByTimeRange returns the records with start <= timestamp <= end,
// inclusive on both ends, preserving input order.
func FilterByTimeRange(records []model.LogRecord, start, end time.Time) []model.LogRecord {
	out := make([]model.LogRecord, 0, len(records))
	for _, r := range records {
		if r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// AggregateWalMetrics rolls up WAL apply jobs per table. avgRate is
// totalRows / max(1, totalTimeMs/1000). Non-apply records are ignored.
func AggregateWalMetrics(records []model.LogRecord) map[string]model.TableMetric {
	type acc struct {
		jobs        int
		totalRows   uint64
		totalAmpl   float64
		totalTimeMs uint64
	}
	accs := make(map[string]*acc)
	for _, r := range records {
		if r.Kind != model.KindWalApply {
			continue
		}
		a, ok := accs[r.Table]
		if !ok {
			a = &acc{}
			accs[r.Table] = a
		}
		a.jobs++
		a.totalRows += r.Rows
		a.totalAmpl += r.Amplification
		a.totalTimeMs += r.TimeMs
	}

	metrics := make(map[string]model.TableMetric, len(accs))
	for table, a := range accs {
		seconds := float64(a.totalTimeMs) / 1000
		if seconds < 1 {
			seconds = 1
		}
		metrics[table] = model.TableMetric{
			Table:            table,
			JobCount:         a.jobs,
			TotalRows:        a.totalRows,
			AvgAmplification: a.totalAmpl / float64(a.jobs),
			AvgRate:          float64(a.totalRows) / seconds,
		}
	}
	return metrics
}
