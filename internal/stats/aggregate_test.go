package stats

import (
	"math"
	"testing"
	"time"

	"github.com/qdblens/qdblens/internal/model"
)

func queryRecord(ts time.Time, ms float64, preview string) model.LogRecord {
	return model.LogRecord{
		Kind:            model.KindQuery,
		Timestamp:       ts,
		ExecutionTimeMs: ms,
		SQLPreview:      preview,
		FullSQL:         preview,
	}
}

func TestPercentile_NearestRank(t *testing.T) {
	t.Parallel()
	seq := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	cases := []struct {
		p    float64
		want float64
	}{
		{50, 5},
		{90, 9},
		{95, 10},
		{100, 10},
		{0, 1},
	}
	for _, tc := range cases {
		if got := Percentile(seq, tc.p); got != tc.want {
			t.Errorf("Percentile(1..10, %v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestPercentile_Boundaries(t *testing.T) {
	t.Parallel()
	for _, p := range []float64{0, 50, 99, 100} {
		if got := Percentile(nil, p); got != 0 {
			t.Errorf("Percentile(empty, %v) = %v, want 0", p, got)
		}
		if got := Percentile([]float64{42}, p); got != 42 {
			t.Errorf("Percentile([42], %v) = %v, want 42", p, got)
		}
	}
}

func TestDescriptiveStats(t *testing.T) {
	t.Parallel()
	s := DescriptiveStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if s.Count != 8 {
		t.Errorf("count = %d, want 8", s.Count)
	}
	if s.Mean != 5 {
		t.Errorf("mean = %v, want 5", s.Mean)
	}
	// Population standard deviation of this classic sample is exactly 2.
	if math.Abs(s.StdDev-2) > 1e-12 {
		t.Errorf("stdDev = %v, want 2 (population form)", s.StdDev)
	}
	if s.Min != 2 || s.Max != 9 {
		t.Errorf("min/max = %v/%v, want 2/9", s.Min, s.Max)
	}
	if s.Median != 4 {
		t.Errorf("median = %v, want 4 (nearest-rank)", s.Median)
	}
}

func TestDescriptiveStats_Empty(t *testing.T) {
	t.Parallel()
	s := DescriptiveStats(nil)
	if s.Count != 0 || s.Mean != 0 || s.Median != 0 || s.StdDev != 0 {
		t.Errorf("DescriptiveStats(empty) = %+v, want all zeros", s)
	}
}

func TestGroupByInterval(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 9, 3, 13, 0, 0, 0, time.UTC)
	records := []model.LogRecord{
		queryRecord(base.Add(100*time.Millisecond), 10, "a"),
		queryRecord(base.Add(500*time.Millisecond), 30, "b"),
		queryRecord(base.Add(1100*time.Millisecond), 50, "c"),
	}

	buckets := GroupByInterval(records, time.Second)
	if len(buckets) != 2 {
		t.Fatalf("bucket count = %d, want 2", len(buckets))
	}
	first := buckets[0]
	if first.Count != 2 {
		t.Errorf("first bucket count = %d, want 2", first.Count)
	}
	if first.AvgTime != 20 {
		t.Errorf("first bucket avg = %v, want 20", first.AvgTime)
	}
	if first.MaxTime != 30 {
		t.Errorf("first bucket max = %v, want 30", first.MaxTime)
	}
	if !first.BucketStart.Equal(base) {
		t.Errorf("first bucket start = %v, want %v", first.BucketStart, base)
	}
	if !buckets[1].BucketStart.After(first.BucketStart) {
		t.Error("buckets not sorted ascending")
	}
}

func TestGroupByInterval_FractionalWidth(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 9, 3, 13, 0, 0, 0, time.UTC)
	records := []model.LogRecord{
		queryRecord(base, 1, "a"),
		queryRecord(base.Add(400*time.Millisecond), 2, "a"),
		queryRecord(base.Add(600*time.Millisecond), 3, "a"),
	}
	buckets := GroupByInterval(records, 500*time.Millisecond)
	if len(buckets) != 2 {
		t.Fatalf("bucket count = %d, want 2 for 500ms width", len(buckets))
	}
	if buckets[0].Count != 2 || buckets[1].Count != 1 {
		t.Errorf("bucket sizes = %d/%d, want 2/1", buckets[0].Count, buckets[1].Count)
	}
}

func TestGroupByInterval_Empty(t *testing.T) {
	t.Parallel()
	if got := GroupByInterval(nil, time.Second); len(got) != 0 {
		t.Errorf("GroupByInterval(empty) = %v, want empty", got)
	}
}

func TestTopQueries(t *testing.T) {
	t.Parallel()
	ts := time.Date(2025, 9, 3, 13, 0, 0, 0, time.UTC)
	records := []model.LogRecord{
		queryRecord(ts, 10, "SELECT a"),
		queryRecord(ts, 30, "SELECT a"),
		queryRecord(ts, 500, "SELECT b"),
		queryRecord(ts, 5, "SELECT c"),
	}

	top := TopQueries(records, 2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2 (truncated to limit)", len(top))
	}
	if top[0].Signature != "SELECT b" {
		t.Errorf("top signature = %q, want SELECT b (ranked by max time)", top[0].Signature)
	}
	if top[1].Signature != "SELECT a" {
		t.Errorf("second signature = %q, want SELECT a", top[1].Signature)
	}
	a := top[1]
	if a.SampleCount != 2 || a.TotalTime != 40 || a.AvgTime != 20 || a.MinTime != 10 || a.MaxTime != 30 {
		t.Errorf("SELECT a stats = %+v", a)
	}
}

func TestTopQueries_DefaultLimit(t *testing.T) {
	t.Parallel()
	ts := time.Now().UTC()
	var records []model.LogRecord
	for i := 0; i < 20; i++ {
		records = append(records, queryRecord(ts, float64(i), string(rune('a'+i))))
	}
	top := TopQueries(records, 0)
	if len(top) != model.DefaultTopQueryLimit {
		t.Errorf("len = %d, want default limit %d", len(top), model.DefaultTopQueryLimit)
	}
}

func TestGroupByTable_UnknownBucket(t *testing.T) {
	t.Parallel()
	ts := time.Now().UTC()
	records := []model.LogRecord{
		{Kind: model.KindWalApply, Timestamp: ts, Table: "trades"},
		{Kind: model.KindQuery, Timestamp: ts},
		{Kind: model.KindWalCommit, Timestamp: ts, Table: "trades"},
	}
	grouped := GroupByTable(records)
	if len(grouped["trades"]) != 2 {
		t.Errorf("trades group = %d records, want 2", len(grouped["trades"]))
	}
	if len(grouped[UnknownTable]) != 1 {
		t.Errorf("unknown group = %d records, want 1", len(grouped[UnknownTable]))
	}
}

func TestTimeMetrics(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 9, 3, 13, 0, 0, 0, time.UTC)
	records := []model.LogRecord{
		queryRecord(base, 1, "a"),
		queryRecord(base.Add(10*time.Second), 1, "a"),
		queryRecord(base.Add(5*time.Second), 1, "a"),
	}
	tm := TimeMetrics(records)
	if !tm.StartTime.Equal(base) || !tm.EndTime.Equal(base.Add(10*time.Second)) {
		t.Errorf("span = %v..%v", tm.StartTime, tm.EndTime)
	}
	if tm.DurationSeconds != 10 {
		t.Errorf("durationSeconds = %v, want 10", tm.DurationSeconds)
	}
	if tm.Rate != 0.3 {
		t.Errorf("rate = %v, want 0.3", tm.Rate)
	}
}

func TestTimeMetrics_SubSecondSpanAvoidsDivisionByZero(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 9, 3, 13, 0, 0, 0, time.UTC)
	records := []model.LogRecord{
		queryRecord(base, 1, "a"),
		queryRecord(base.Add(100*time.Millisecond), 1, "a"),
	}
	tm := TimeMetrics(records)
	if tm.Rate != 2 {
		t.Errorf("rate = %v, want 2 (count / max(1, duration))", tm.Rate)
	}
	if tm := TimeMetrics(nil); tm.Rate != 0 || !tm.StartTime.IsZero() {
		t.Errorf("TimeMetrics(empty) = %+v, want zero value", tm)
	}
}

func TestHistogramBins(t *testing.T) {
	t.Parallel()
	bins := HistogramBins([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 10}, 5)
	if len(bins) != 5 {
		t.Fatalf("bin count = %d, want 5", len(bins))
	}
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != 10 {
		t.Errorf("total binned = %d, want 10 (no value may overflow)", total)
	}
	// The maximum lands in the final bin, not past it.
	if bins[4].Count == 0 {
		t.Error("final bin empty; maximum value overflowed")
	}
	if bins[0].Start != 0 || bins[4].End != 10 {
		t.Errorf("span = [%v, %v], want [0, 10]", bins[0].Start, bins[4].End)
	}
}

func TestHistogramBins_DegenerateInputs(t *testing.T) {
	t.Parallel()
	if bins := HistogramBins(nil, 5); bins != nil {
		t.Errorf("HistogramBins(empty) = %v, want nil", bins)
	}
	bins := HistogramBins([]float64{3, 3, 3}, 4)
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != 3 {
		t.Errorf("all-equal sample binned %d values, want 3", total)
	}
}

func TestFilterByTimeRange_Inclusive(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 9, 3, 13, 0, 0, 0, time.UTC)
	records := []model.LogRecord{
		queryRecord(base.Add(-time.Second), 1, "before"),
		queryRecord(base, 1, "start"),
		queryRecord(base.Add(time.Second), 1, "mid"),
		queryRecord(base.Add(2*time.Second), 1, "end"),
		queryRecord(base.Add(3*time.Second), 1, "after"),
	}
	got := FilterByTimeRange(records, base, base.Add(2*time.Second))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (inclusive on both ends)", len(got))
	}
	if got[0].SQLPreview != "start" || got[2].SQLPreview != "end" {
		t.Errorf("boundaries = %q..%q, want start..end", got[0].SQLPreview, got[2].SQLPreview)
	}
}

func TestAggregateWalMetrics(t *testing.T) {
	t.Parallel()
	ts := time.Now().UTC()
	records := []model.LogRecord{
		{Kind: model.KindWalApply, Timestamp: ts, Table: "trades", Rows: 100, Amplification: 1.5, TimeMs: 2000},
		{Kind: model.KindWalApply, Timestamp: ts, Table: "trades", Rows: 200, Amplification: 2.0, TimeMs: 1000},
		{Kind: model.KindQuery, Timestamp: ts},
	}
	metrics := AggregateWalMetrics(records)
	m, ok := metrics["trades"]
	if !ok {
		t.Fatal("missing trades metric")
	}
	if m.JobCount != 2 {
		t.Errorf("jobCount = %d, want 2", m.JobCount)
	}
	if m.TotalRows != 300 {
		t.Errorf("totalRows = %d, want 300", m.TotalRows)
	}
	if m.AvgAmplification != 1.75 {
		t.Errorf("avgAmplification = %v, want 1.75", m.AvgAmplification)
	}
	if m.AvgRate != 100 {
		t.Errorf("avgRate = %v, want 100 (300 rows / 3s)", m.AvgRate)
	}
}

func TestAggregateWalMetrics_SubSecondTotalTime(t *testing.T) {
	t.Parallel()
	ts := time.Now().UTC()
	records := []model.LogRecord{
		{Kind: model.KindWalApply, Timestamp: ts, Table: "t", Rows: 500, Amplification: 1, TimeMs: 50},
	}
	m := AggregateWalMetrics(records)["t"]
	if m.AvgRate != 500 {
		t.Errorf("avgRate = %v, want 500 (rows / max(1, 0.05s))", m.AvgRate)
	}
}
