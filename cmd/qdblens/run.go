package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/qdblens/qdblens/internal/extract"
	"github.com/qdblens/qdblens/internal/httpserver"
	"github.com/qdblens/qdblens/internal/ingest"
	"github.com/qdblens/qdblens/internal/state"
	"github.com/qdblens/qdblens/internal/stats"
	"github.com/qdblens/qdblens/internal/tui"
)

func run(cfg appConfig, paths []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	files, err := readFiles(paths)
	if err != nil {
		return err
	}

	ingestCtx, ingestCancel := context.WithTimeout(ctx, cfg.IngestTimeout)
	defer ingestCancel()

	pipeline := ingest.NewPipeline(extract.NewRegistry()).WithWorkers(cfg.IngestWorkers)
	result, err := pipeline.Ingest(ingestCtx, files, func(processed, total int) {
		fmt.Fprintf(os.Stderr, "\rProcessing: %d/%d lines", processed, total)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("ingesting log files: %w", err)
	}
	for _, fe := range result.Errors {
		fmt.Fprintln(os.Stderr, fe.Message)
	}

	store := state.NewStore()
	store.Set(result)

	if cfg.Once {
		printSummary(os.Stdout, cfg, store)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, store)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer apiServer.Stop()
	}

	dashboard := tui.NewDashboard(store, tui.Options{
		BucketInterval: cfg.BucketInterval,
		TopQueryLimit:  cfg.TopQueryLimit,
	})
	program := tea.NewProgram(dashboard, tea.WithAltScreen())

	store.Subscribe(func(state.Snapshot) {
		program.Send(tui.RefreshMsg{})
	})

	g.Go(func() error {
		_, err := program.Run()
		cancel()
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		program.Quit()
		return nil
	})

	return g.Wait()
}

func readFiles(paths []string) ([]ingest.File, error) {
	files := make([]ingest.File, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		files = append(files, ingest.File{Name: path, Content: string(content)})
	}
	return files, nil
}

func printSummary(w *os.File, cfg appConfig, store *state.Store) {
	snap := store.Snapshot()
	all := snap.Result.Records.All()
	tm := stats.TimeMetrics(all)

	fmt.Fprintf(w, "Records: %d across %d files\n", len(all), len(snap.Result.FileMetadata))
	if !tm.StartTime.IsZero() {
		fmt.Fprintf(w, "Span:    %s -> %s (%.1fs, %.1f rec/s)\n",
			tm.StartTime.Format("2006-01-02 15:04:05"),
			tm.EndTime.Format("2006-01-02 15:04:05"),
			tm.DurationSeconds, tm.Rate)
	}

	top := stats.TopQueries(snap.Result.Records.Queries, cfg.TopQueryLimit)
	if len(top) > 0 {
		fmt.Fprintf(w, "\nTop queries by max time:\n")
		for _, q := range top {
			fmt.Fprintf(w, "  %9.2fms  x%-5d p99=%9.2fms  %s\n", q.MaxTime, q.SampleCount, q.P99, q.Signature)
		}
	}

	values := make([]float64, 0, len(snap.Result.Records.Queries))
	for _, q := range snap.Result.Records.Queries {
		values = append(values, q.ExecutionTimeMs)
	}
	if bins := stats.HistogramBins(values, cfg.HistogramBins); len(bins) > 0 {
		fmt.Fprintf(w, "\nQuery latency distribution:\n")
		for _, b := range bins {
			fmt.Fprintf(w, "  %9.2f - %9.2f ms  %d\n", b.Start, b.End, b.Count)
		}
	}

	metrics := stats.AggregateWalMetrics(snap.Result.Records.WalApplies)
	if len(metrics) > 0 {
		names := make([]string, 0, len(metrics))
		for name := range metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintf(w, "\nWAL apply by table:\n")
		for _, name := range names {
			t := metrics[name]
			fmt.Fprintf(w, "  %-24s jobs=%-5d rows=%-10d ampl=%.2f rate=%.0f rows/s\n",
				t.Table, t.JobCount, t.TotalRows, t.AvgAmplification, t.AvgRate)
		}
	}

	for _, fe := range snap.Result.Errors {
		fmt.Fprintf(w, "\n%s\n", fe.Message)
	}
}
