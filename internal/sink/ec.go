package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/reedsolomon"

	"github.com/waveacq/rtadp/internal/cmn"
	"github.com/waveacq/rtadp/internal/nlog"
)

// ECWrapper hands a batch to Local, then shards its encoding into
// data+parity shards with klauspost/reedsolomon, so a single
// corrupted shard is recoverable (SPEC_FULL §4.9 "Optional erasure-
// coded replication"). Off by default; this is the one consumer of
// reedsolomon in this domain (aistore itself uses it for bucket-level
// data protection — here it protects the result sink).
type ECWrapper struct {
	local       *Local
	dataShards  int
	parityShard int
	enc         reedsolomon.Encoder
}

// NewECWrapper wraps local with an (dataShards, parityShards)
// Reed-Solomon encoder.
func NewECWrapper(local *Local, dataShards, parityShards int) (*ECWrapper, error) {
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, cmn.WrapError(cmn.KindConfigurationInvalid, err, "construct reed-solomon encoder")
	}
	return &ECWrapper{local: local, dataShards: dataShards, parityShard: parityShards, enc: enc}, nil
}

// WriteBatch encodes batch, shards it, writes the primary file through
// Local, and additionally writes each parity shard alongside it.
func (w *ECWrapper) WriteBatch(ctx context.Context, managerName string, batch Batch) error {
	if err := w.local.WriteBatch(ctx, managerName, batch); err != nil {
		return err
	}

	encoded, err := encodeBatch(batch)
	if err != nil {
		return err
	}
	shards, err := w.enc.Split(encoded)
	if err != nil {
		return cmn.WrapError(cmn.KindTransportFatal, err, "split batch into ec shards")
	}
	if err := w.enc.Encode(shards); err != nil {
		return cmn.WrapError(cmn.KindTransportFatal, err, "compute ec parity shards")
	}

	w.local.mu.Lock()
	seq := w.local.seq
	w.local.mu.Unlock()

	for i := w.dataShards; i < len(shards); i++ {
		name := fmt.Sprintf("%s-%020d.shard%d", managerName, seq, i)
		path := filepath.Join(w.local.dir, name)
		if err := os.WriteFile(path, shards[i], 0o644); err != nil {
			nlog.Warningln("ec: failed to write parity shard", name, ":", err)
		}
	}
	return nil
}

// Close closes the wrapped Local sink.
func (w *ECWrapper) Close() error { return w.local.Close() }
