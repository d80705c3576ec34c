package main

import (
	"time"

	"github.com/qdblens/qdblens/internal/model"
)

const (
	defaultBucketInterval = model.DefaultBucketInterval
	defaultTopQueryLimit  = model.DefaultTopQueryLimit
	defaultHistogramBins  = model.DefaultHistogramBins
	defaultBindHost       = "127.0.0.1"
	defaultAPIPort        = 3000
	defaultIngestWorkers  = 1
	defaultIngestTimeout  = 5 * time.Minute
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	BucketInterval time.Duration `mapstructure:"bucket-interval"`
	TopQueryLimit  int           `mapstructure:"top-query-limit"`
	HistogramBins  int           `mapstructure:"histogram-bins"`
	IngestWorkers  int           `mapstructure:"ingest-workers"`
	IngestTimeout  time.Duration `mapstructure:"ingest-timeout"`
	APIEnabled     bool          `mapstructure:"api-enabled"`
	APIPort        int           `mapstructure:"api-port"`
	APIAddr        string        `mapstructure:"api-addr"`
	Once           bool          `mapstructure:"once"`
	ConfigPath     string        `mapstructure:"-"` // not from config file
}
