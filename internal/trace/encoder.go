// Package trace implements the Trace Repair encoder and decoder
// (spec §4.C, §4.D): RS-encoding a stripe, deriving per-helper repair
// traces for a chosen erased index, and reconstructing a lost shard
// from those traces.
package trace

import (
	"github.com/pkg/errors"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/errs"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/gf"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/tables"
)

// Encoder RS-encodes data shards into parity shards and emits repair
// traces targeted at a chosen erased index.
type Encoder struct {
	k, m, n  int
	gfTables *gf.Tables
}

// NewEncoder builds an Encoder for the given data/parity shard counts.
// Construction fails with an invalid-argument error when k+m >= 256
// (spec §6).
func NewEncoder(k, m int) (*Encoder, error) {
	if k <= 0 || m <= 0 {
		return nil, errors.Wrap(errs.ErrInvalidArgument, "k and m must be positive")
	}
	n := k + m
	if n >= 256 {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "k+m=%d must be < 256", n)
	}
	mat, err := gf.GenerateCauchyMatrix(n, k)
	if err != nil {
		return nil, errors.Wrap(err, "trace: building generator matrix")
	}
	t, err := gf.InitTables(k, m, mat)
	if err != nil {
		return nil, errors.Wrap(err, "trace: building gf tables")
	}
	return &Encoder{k: k, m: m, n: n, gfTables: t}, nil
}

// Encode RS-encodes dataIn into m parity shards of length L and emits,
// for every node other than erasedIndex, the repair trace it would
// ship toward repairing erasedIndex. The returned traces slice has
// length n; traces[erasedIndex] is nil.
func (e *Encoder) Encode(dataIn [][]byte, dataOffsets []int, length, erasedIndex int) (parities [][]byte, traces [][]byte, err error) {
	if len(dataIn) != e.k {
		return nil, nil, errors.Wrapf(errs.ErrInvalidArgument, "expected %d data shards, got %d", e.k, len(dataIn))
	}
	if length <= 0 || length%8 != 0 {
		return nil, nil, errors.Wrapf(errs.ErrInvalidArgument, "encodeLength %d must be a positive multiple of 8", length)
	}
	if erasedIndex < 0 || erasedIndex >= e.n {
		return nil, nil, errors.Wrapf(errs.ErrInvalidArgument, "erasedIndex %d out of range [0,%d)", erasedIndex, e.n)
	}
	if dataOffsets == nil {
		dataOffsets = make([]int, e.k)
	}
	if len(dataOffsets) != e.k {
		return nil, nil, errors.Wrapf(errs.ErrInvalidArgument, "expected %d data offsets, got %d", e.k, len(dataOffsets))
	}

	parities, err = e.encodeParities(dataIn, dataOffsets, length)
	if err != nil {
		return nil, nil, err
	}

	shards := make([][]byte, e.n)
	for i := 0; i < e.k; i++ {
		shards[i] = dataIn[i][dataOffsets[i] : dataOffsets[i]+length]
	}
	for i := 0; i < e.m; i++ {
		shards[e.k+i] = parities[i]
	}

	traces = make([][]byte, e.n)
	for i := 0; i < e.n; i++ {
		if i == erasedIndex {
			continue
		}
		traces[i] = emitTrace(tables.HelperRow(i, erasedIndex), shards[i], length)
	}
	return parities, traces, nil
}

// EmitHelperTrace computes the repair trace a single node at
// helperIndex would ship toward repairing erasedIndex, from that
// node's own locally stored shard bytes. Unlike Encode, it needs
// nothing about any other node's shard — this is the primitive a
// repair-node process actually runs when it answers a trace request
// (internal/transport's TraceProvider), as opposed to Encode's
// whole-stripe view used for testing the round trip centrally.
func (e *Encoder) EmitHelperTrace(helperIndex, erasedIndex int, shard []byte, length int) ([]byte, error) {
	if helperIndex < 0 || helperIndex >= e.n {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "helperIndex %d out of range [0,%d)", helperIndex, e.n)
	}
	if erasedIndex < 0 || erasedIndex >= e.n {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "erasedIndex %d out of range [0,%d)", erasedIndex, e.n)
	}
	if helperIndex == erasedIndex {
		return nil, errors.Wrap(errs.ErrInvalidArgument, "helperIndex must differ from erasedIndex")
	}
	if length <= 0 || length%8 != 0 {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "length %d must be a positive multiple of 8", length)
	}
	if len(shard) < length {
		return nil, errors.Wrapf(errs.ErrCorruptInput, "shard length %d shorter than requested %d", len(shard), length)
	}
	return emitTrace(tables.HelperRow(helperIndex, erasedIndex), shard, length), nil
}

func (e *Encoder) encodeParities(dataIn [][]byte, dataOffsets []int, length int) ([][]byte, error) {
	parities := make([][]byte, e.m)
	parityOffsets := make([]int, e.m)
	for i := range parities {
		parities[i] = make([]byte, length)
	}
	if err := e.gfTables.EncodeData(dataIn, dataOffsets, parities, parityOffsets, length); err != nil {
		return nil, errors.Wrap(err, "trace: RS encode")
	}
	return parities, nil
}

// emitTrace packs the bit-level repair trace helper row emits toward
// its target, a-major across the L byte positions (spec §4.C.3): all
// a=0 bits first, then a=1, etc., MSB-first within each byte.
func emitTrace(row tables.HelperEntry, shard []byte, length int) []byte {
	w := newBitWriter(row.Bandwidth * length)
	for a := 0; a < row.Bandwidth; a++ {
		coef := row.Coeffs[a]
		for p := 0; p < length; p++ {
			w.WriteBit(parity8(coef & shard[p]))
		}
	}
	return w.Bytes()
}

// EncodeAll produces, for every possible erased index j, the traces
// every other node would ship toward repairing j (spec §4.C: "the
// default behavior is to iterate all non-erased nodes producing each
// trace in turn — used for bulk test/debug rather than production
// repair"). Production callers should use Encode with a single
// erasedIndex instead.
func (e *Encoder) EncodeAll(dataIn [][]byte, dataOffsets []int, length int) (parities [][]byte, tracesByTarget [][][]byte, err error) {
	tracesByTarget = make([][][]byte, e.n)
	for j := 0; j < e.n; j++ {
		p, traces, encErr := e.Encode(dataIn, dataOffsets, length, j)
		if encErr != nil {
			return nil, nil, encErr
		}
		parities = p
		tracesByTarget[j] = traces
	}
	return parities, tracesByTarget, nil
}

// EncodeBitBuffer is the bit-buffer variant of the encode path. The
// reference implementation leaves this unimplemented (spec §9 Design
// Notes); we take option (b) and provide a parity-only implementation
// matching the byte-array path instead of returning NotImplemented.
func (e *Encoder) EncodeBitBuffer(dataIn [][]byte, dataOffsets []int, length int) ([][]byte, error) {
	if len(dataIn) != e.k {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "expected %d data shards, got %d", e.k, len(dataIn))
	}
	if dataOffsets == nil {
		dataOffsets = make([]int, e.k)
	}
	return e.encodeParities(dataIn, dataOffsets, length)
}
