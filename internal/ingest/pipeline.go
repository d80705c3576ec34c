// Package ingest streams log file text through the extractor, merging
// results across files with per-file failure isolation.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/qdblens/qdblens/internal/extract"
	"github.com/qdblens/qdblens/internal/model"
)

// File is one raw text blob handed over by the file-acquisition layer.
type File struct {
	Name    string
	Content string
}

// ProgressFunc is invoked every model.ProgressInterval lines within a
// file, including line 0, with the lines processed so far and the
// file's total line count.
type ProgressFunc func(linesProcessed, totalLines int)

// Result is the output of one ingestion batch: the merged category
// collections, per-file time-range metadata, and per-file errors.
// Collections are concatenated in file-processing order.
type Result struct {
	Records      model.RecordSet
	FileMetadata []model.FileMetadata
	Errors       []model.FileError
}

// Pipeline drives extraction over one or more files.
type Pipeline struct {
	extractor *extract.Extractor
	workers   int
}

// NewPipeline creates a pipeline over the given registry. Files are
// processed sequentially.
func NewPipeline(registry *extract.Registry) *Pipeline {
	return &Pipeline{extractor: extract.NewExtractor(registry), workers: 1}
}

// WithWorkers enables bounded parallel per-file extraction. Output
// ordering is unaffected: results are merged in input order. Values
// below 2 keep sequential processing.
func (p *Pipeline) WithWorkers(n int) *Pipeline {
	if n < 1 {
		n = 1
	}
	p.workers = n
	return p
}

type fileResult struct {
	records  model.RecordSet
	metadata *model.FileMetadata
	err      error
}

// Ingest processes the files in order. A failure confined to one file
// does not abort the batch: it is recorded as a FileError and the
// file's partial records are discarded. Cancellation is checked at each
// progress boundary; a cancelled batch returns the files completed so
// far together with ctx.Err().
func (p *Pipeline) Ingest(ctx context.Context, files []File, onProgress ProgressFunc) (*Result, error) {
	if p.workers > 1 {
		return p.ingestParallel(ctx, files, onProgress)
	}

	result := &Result{}
	for _, f := range files {
		fr := p.processFile(ctx, f, onProgress)
		if fr.err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Errors = append(result.Errors, model.FileError{
				File:    f.Name,
				Message: fmt.Sprintf("Failed to process %s: %s", f.Name, fr.err),
			})
			continue
		}
		result.Records.Merge(fr.records)
		if fr.metadata != nil {
			result.FileMetadata = append(result.FileMetadata, *fr.metadata)
		}
	}
	return result, nil
}

func (p *Pipeline) ingestParallel(ctx context.Context, files []File, onProgress ProgressFunc) (*Result, error) {
	slots := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, f := range files {
		g.Go(func() error {
			slots[i] = p.processFile(gctx, f, onProgress)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	err := g.Wait()

	// Merge in input order regardless of completion order.
	result := &Result{}
	for i, fr := range slots {
		if fr.err != nil {
			if errors.Is(fr.err, context.Canceled) || errors.Is(fr.err, context.DeadlineExceeded) {
				continue
			}
			result.Errors = append(result.Errors, model.FileError{
				File:    files[i].Name,
				Message: fmt.Sprintf("Failed to process %s: %s", files[i].Name, fr.err),
			})
			continue
		}
		result.Records.Merge(fr.records)
		if fr.metadata != nil {
			result.FileMetadata = append(result.FileMetadata, *fr.metadata)
		}
	}
	if err != nil && ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}

// processFile scans one file's lines in order. Panics during extraction
// are converted into the file's error; records extracted before the
// failure are discarded with it.
func (p *Pipeline) processFile(ctx context.Context, f File, onProgress ProgressFunc) (fr fileResult) {
	defer func() {
		if r := recover(); r != nil {
			fr = fileResult{err: fmt.Errorf("%v", r)}
		}
	}()

	if !utf8.ValidString(f.Content) {
		return fileResult{err: errors.New("invalid UTF-8 encoding")}
	}

	lines := strings.Split(f.Content, "\n")
	total := len(lines)

	var (
		set      model.RecordSet
		count    int
		skipped  int
		earliest time.Time
		latest   time.Time
	)

	for i, line := range lines {
		if i%model.ProgressInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fileResult{err: err}
			}
			if onProgress != nil {
				onProgress(i, total)
			}
		}

		rec := p.extractor.Extract(line, f.Name)
		if rec == nil {
			if strings.TrimSpace(line) != "" {
				skipped++
			}
			continue
		}

		set.Add(*rec)
		if count == 0 || rec.Timestamp.Before(earliest) {
			earliest = rec.Timestamp
		}
		if count == 0 || rec.Timestamp.After(latest) {
			latest = rec.Timestamp
		}
		count++
	}

	fr = fileResult{records: set}
	if count > 0 {
		fr.metadata = &model.FileMetadata{
			FileName:     f.Name,
			StartTime:    earliest,
			EndTime:      latest,
			RecordCount:  count,
			SkippedLines: skipped,
		}
	}
	return fr
}

// IngestFile processes a single text blob. Multi-file merge is the
// caller's responsibility, folding repeated single-file calls.
func (p *Pipeline) IngestFile(ctx context.Context, name, content string, onProgress ProgressFunc) (*Result, error) {
	return p.Ingest(ctx, []File{{Name: name, Content: content}}, onProgress)
}
