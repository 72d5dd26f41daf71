package sink

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lz4 "github.com/pierrec/lz4/v3"
	"github.com/tidwall/buntdb"
	"github.com/tinylib/msgp/msgp"

	"github.com/waveacq/rtadp/internal/cmn"
)

// SchemaDescriptor is written once at Supervisor start, mirroring spec
// §6's "schema is loaded from an XML descriptor at start". No XML
// library appears anywhere in the example pack, so this one boundary is
// built on the standard library's encoding/xml (see DESIGN.md).
type SchemaDescriptor struct {
	XMLName xml.Name `xml:"Schema"`
	Group   string   `xml:"group,attr"`
	Dataset struct {
		Name   string `xml:"name,attr"`
		Fields []struct {
			Name string `xml:"name,attr"`
			Type string `xml:"type,attr"`
		} `xml:"field"`
	} `xml:"dataset"`
}

// DefaultSchema describes the single group/dataset this runtime
// persists: sequence, priority, and the raw result bytes.
func DefaultSchema() SchemaDescriptor {
	sd := SchemaDescriptor{Group: "results"}
	sd.Dataset.Name = "batch"
	sd.Dataset.Fields = []struct {
		Name string `xml:"name,attr"`
		Type string `xml:"type,attr"`
	}{
		{Name: "sequence", Type: "uint64"},
		{Name: "priority", Type: "string"},
		{Name: "bytes", Type: "blob"},
	}
	return sd
}

// WriteSchema writes sd as an XML descriptor at path.
func WriteSchema(path string, sd SchemaDescriptor) error {
	data, err := xml.MarshalIndent(sd, "", "  ")
	if err != nil {
		return cmn.WrapError(cmn.KindConfigurationInvalid, err, "marshal schema descriptor")
	}
	return os.WriteFile(path, data, 0o644)
}

// Local persists each Batch as a msgp-encoded columnar record file, one
// per Manager per flush, under dir. Compress enables LZ4 framing;
// metadata about every written file is recorded in a buntdb index so an
// operator can enumerate a run's output without reading every file.
type Local struct {
	dir      string
	compress bool

	mu    sync.Mutex
	index *buntdb.DB
	seq   uint64
}

// NewLocal opens (creating if needed) a Local sink rooted at dir.
func NewLocal(dir string, compress bool) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cmn.WrapError(cmn.KindConfigurationInvalid, err, "create sink dir")
	}
	db, err := buntdb.Open(filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, cmn.WrapError(cmn.KindConfigurationInvalid, err, "open sink index")
	}
	return &Local{dir: dir, compress: compress, index: db}, nil
}

// WriteBatch encodes batch with msgp, optionally LZ4-compresses it, and
// writes it to a new file under dir, recording its path and record
// count in the buntdb index.
func (l *Local) WriteBatch(_ context.Context, managerName string, batch Batch) error {
	encoded, err := encodeBatch(batch)
	if err != nil {
		return err
	}
	if l.compress {
		encoded, err = compress(encoded)
		if err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	ext := ".msgp"
	if l.compress {
		ext = ".msgp.lz4"
	}
	name := fmt.Sprintf("%s-%020d%s", managerName, seq, ext)
	path := filepath.Join(l.dir, name)
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return cmn.WrapError(cmn.KindTransportFatal, err, "write batch file")
	}

	return l.index.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(name, fmt.Sprintf("%s|%d|%d", managerName, len(batch.Records), time.Now().Unix()), nil)
		return err
	})
}

// Close closes the underlying metadata index.
func (l *Local) Close() error {
	if l.index == nil {
		return nil
	}
	return l.index.Close()
}

// encodeBatch serializes batch with msgp's low-level Writer directly
// (no generated Marshal/UnmarshalMsg: codegen requires `go generate`,
// which is not run here), as a 3-element array of parallel columns:
// [sequences, priorities, bytes].
func encodeBatch(batch Batch) ([]byte, error) {
	var buf bytes.Buffer
	w := msgp.NewWriter(&buf)

	if err := w.WriteArrayHeader(3); err != nil {
		return nil, err
	}
	n := uint32(len(batch.Records))

	if err := w.WriteArrayHeader(n); err != nil {
		return nil, err
	}
	for _, r := range batch.Records {
		if err := w.WriteUint64(r.Sequence); err != nil {
			return nil, err
		}
	}

	if err := w.WriteArrayHeader(n); err != nil {
		return nil, err
	}
	for _, r := range batch.Records {
		if err := w.WriteString(r.Priority); err != nil {
			return nil, err
		}
	}

	if err := w.WriteArrayHeader(n); err != nil {
		return nil, err
	}
	for _, r := range batch.Records {
		if err := w.WriteBytes(r.Bytes); err != nil {
			return nil, err
		}
	}

	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBatch is encodeBatch's inverse, used by tests and by operator
// tooling that needs to read a written file back.
func DecodeBatch(managerName string, data []byte) (Batch, error) {
	r := msgp.NewReader(bytes.NewReader(data))
	cols, err := r.ReadArrayHeader()
	if err != nil || cols != 3 {
		return Batch{}, cmn.NewError(cmn.KindInvalidSize, "batch file: expected 3 columns")
	}

	n, err := r.ReadArrayHeader()
	if err != nil {
		return Batch{}, err
	}
	records := make([]Record, n)
	for i := range records {
		v, err := r.ReadUint64()
		if err != nil {
			return Batch{}, err
		}
		records[i].Sequence = v
	}

	n2, err := r.ReadArrayHeader()
	if err != nil || n2 != n {
		return Batch{}, cmn.NewError(cmn.KindInvalidSize, "batch file: column length mismatch")
	}
	for i := range records {
		v, err := r.ReadString()
		if err != nil {
			return Batch{}, err
		}
		records[i].Priority = v
	}

	n3, err := r.ReadArrayHeader()
	if err != nil || n3 != n {
		return Batch{}, cmn.NewError(cmn.KindInvalidSize, "batch file: column length mismatch")
	}
	for i := range records {
		v, err := r.ReadBytes(nil)
		if err != nil {
			return Batch{}, err
		}
		records[i].Bytes = v
	}

	return Batch{ManagerName: managerName, Records: records}, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, cmn.WrapError(cmn.KindTransportFatal, err, "lz4 compress batch")
	}
	if err := w.Close(); err != nil {
		return nil, cmn.WrapError(cmn.KindTransportFatal, err, "lz4 close")
	}
	return buf.Bytes(), nil
}
