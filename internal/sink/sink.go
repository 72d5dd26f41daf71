// Package sink implements the Provider boundary SPEC_FULL §4.9 assigns
// to the spec's opaque "external record sink" (spec §6 "Persisted
// output"): a columnar batch writer with local, S3, and HDFS backends.
package sink

import (
	"context"
)

// Record wraps one published result (SPEC_FULL §3 "Batch record").
type Record struct {
	Sequence uint64
	Priority string
	Bytes    []byte
}

// Batch is a columnar buffer of Records, flushed either on a timer or
// once it reaches a configured record count.
type Batch struct {
	ManagerName string
	Records     []Record
}

// Provider persists Batches for a named Manager.
type Provider interface {
	WriteBatch(ctx context.Context, managerName string, batch Batch) error
	Close() error
}
