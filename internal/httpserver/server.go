// Package httpserver exposes the aggregated views over a read-only JSON
// API. It contains no parsing logic: handlers consume whatever snapshot
// the state container currently holds.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qdblens/qdblens/internal/model"
	"github.com/qdblens/qdblens/internal/state"
	"github.com/qdblens/qdblens/internal/stats"
)

// Server provides the HTTP read API over the current snapshot.
type Server struct {
	addr      string
	store     *state.Store
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates an HTTP API server publishing the given store.
func NewServer(addr string, store *state.Store) *Server {
	if addr == "" {
		addr = "0.0.0.0:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Engine builds the gin engine with all routes registered.
func (s *Server) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/overview", s.handleOverview)
	r.GET("/api/timeline", s.handleTimeline)
	r.GET("/api/queries/top", s.handleTopQueries)
	r.GET("/api/tables", s.handleTables)
	r.GET("/api/histogram", s.handleHistogram)
	r.GET("/api/connections", s.handleConnections)

	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Handler:           s.Engine(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"uptime":       time.Since(s.startTime).String(),
		"record_count": snap.Result.Records.Len(),
		"file_count":   len(snap.Result.FileMetadata),
	})
}

func (s *Server) handleOverview(c *gin.Context) {
	snap := s.store.Snapshot()
	all := snap.Result.Records.All()

	files := make([]gin.H, 0, len(snap.Result.FileMetadata))
	for _, md := range snap.Result.FileMetadata {
		files = append(files, gin.H{
			"fileName":     md.FileName,
			"startTime":    md.StartTime,
			"endTime":      md.EndTime,
			"recordCount":  md.RecordCount,
			"skippedLines": md.SkippedLines,
		})
	}

	errs := make([]string, 0, len(snap.Result.Errors))
	for _, fe := range snap.Result.Errors {
		errs = append(errs, fe.Message)
	}

	tm := stats.TimeMetrics(all)
	c.JSON(http.StatusOK, gin.H{
		"timeMetrics": gin.H{
			"startTime":       tm.StartTime,
			"endTime":         tm.EndTime,
			"durationSeconds": tm.DurationSeconds,
			"rate":            tm.Rate,
		},
		"files":  files,
		"errors": errs,
		"categories": gin.H{
			"queries":           len(snap.Result.Records.Queries),
			"walApplies":        len(snap.Result.Records.WalApplies),
			"walCommits":        len(snap.Result.Records.WalCommits),
			"partitionCloses":   len(snap.Result.Records.PartitionCloses),
			"pgwireConnections": len(snap.Result.Records.PgwireConnections),
			"systemEvents":      len(snap.Result.Records.SystemEvents),
		},
	})
}

func (s *Server) handleTimeline(c *gin.Context) {
	interval, ok := queryDuration(c, "interval", model.DefaultBucketInterval)
	if !ok {
		return
	}

	snap := s.store.Snapshot()
	buckets := stats.GroupByInterval(snap.Result.Records.Queries, interval)

	out := make([]gin.H, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, gin.H{
			"bucketStart": b.BucketStart,
			"avg":         b.AvgTime,
			"max":         b.MaxTime,
			"count":       b.Count,
		})
	}
	c.JSON(http.StatusOK, gin.H{"interval": interval.String(), "buckets": out})
}

func (s *Server) handleTopQueries(c *gin.Context) {
	limit, ok := queryInt(c, "limit", model.DefaultTopQueryLimit)
	if !ok {
		return
	}

	snap := s.store.Snapshot()
	top := stats.TopQueries(snap.Result.Records.Queries, limit)
	c.JSON(http.StatusOK, gin.H{"queries": top})
}

func (s *Server) handleTables(c *gin.Context) {
	snap := s.store.Snapshot()
	metrics := stats.AggregateWalMetrics(snap.Result.Records.WalApplies)

	out := make([]model.TableMetric, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, m)
	}
	c.JSON(http.StatusOK, gin.H{"tables": out})
}

func (s *Server) handleHistogram(c *gin.Context) {
	bins, ok := queryInt(c, "bins", model.DefaultHistogramBins)
	if !ok {
		return
	}

	snap := s.store.Snapshot()
	values := make([]float64, 0, len(snap.Result.Records.Queries))
	for _, r := range snap.Result.Records.Queries {
		values = append(values, r.ExecutionTimeMs)
	}

	c.JSON(http.StatusOK, gin.H{
		"bins":  stats.HistogramBins(values, bins),
		"stats": stats.DescriptiveStats(values),
	})
}

func (s *Server) handleConnections(c *gin.Context) {
	snap := s.store.Snapshot()

	conns := make([]gin.H, 0, len(snap.Result.Records.PgwireConnections))
	for _, r := range snap.Result.Records.PgwireConnections {
		conns = append(conns, gin.H{
			"timestamp": r.Timestamp,
			"ip":        r.IP,
			"fd":        r.FD,
			"connCount": r.ConnCount,
		})
	}

	events := make([]gin.H, 0, len(snap.Result.Records.SystemEvents))
	for _, r := range snap.Result.Records.SystemEvents {
		events = append(events, gin.H{
			"timestamp": r.Timestamp,
			"errorType": r.EventType,
			"table":     r.Table,
			"message":   r.Message,
		})
	}

	c.JSON(http.StatusOK, gin.H{"connections": conns, "events": events})
}

func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return n, true
}

func queryDuration(c *gin.Context, name string, fallback time.Duration) (time.Duration, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return d, true
}
