package model

import "time"

// Shared defaults used by the CLI, API, and dashboard.
const (
	DefaultBucketInterval = time.Second
	DefaultTopQueryLimit  = 12
	DefaultHistogramBins  = 10

	// Progress callbacks fire every ProgressInterval lines, including
	// line 0. Fixed by the ingestion contract, not configurable.
	ProgressInterval = 1000
)
