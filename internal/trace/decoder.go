package trace

import (
	"github.com/pkg/errors"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/errs"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/tables"
)

// HelperBuffer pairs a surviving stripe position with the repair
// trace it shipped. Decode's output depends only on the set of
// (HelperIndex, Buffer) pairs presented, not on slice order (spec §8,
// "helper-subset invariance").
type HelperBuffer struct {
	HelperIndex int
	Buffer      []byte
}

// Decoder reconstructs an erased shard from helper repair traces.
type Decoder struct{}

// NewDecoder returns a ready-to-use Decoder. Decoders hold no state
// (the static tables they consult are process-wide constants), so a
// zero-value Decoder also works.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode reconstructs the length-L shard at erasedIndex from the
// supplied helper trace buffers (spec §4.D). n is the codec's total
// shard count.
func (d *Decoder) Decode(buffers []HelperBuffer, erasedIndex, n, length int) ([]byte, error) {
	if erasedIndex < 0 || erasedIndex >= n {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "erasedIndex %d out of range [0,%d)", erasedIndex, n)
	}
	if len(buffers) != n-1 {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "expected %d helper buffers, got %d", n-1, len(buffers))
	}
	if length <= 0 || length%8 != 0 {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "decodeLength %d must be a positive multiple of 8", length)
	}

	// target[p][s] accumulates the XOR-reduction of every helper's
	// column trace for output byte p (spec §4.D step 2).
	target := make([][tables.T]byte, length)

	seen := make(map[int]bool, n-1)
	for _, hb := range buffers {
		if err := validateHelperIndex(hb.HelperIndex, erasedIndex, n, seen); err != nil {
			return nil, err
		}
		seen[hb.HelperIndex] = true

		if err := accumulateColumnTrace(target, hb, erasedIndex, length); err != nil {
			return nil, err
		}
	}

	basis := tables.DualBasis(erasedIndex)
	recovered := make([]byte, length)
	for p := 0; p < length; p++ {
		var v byte
		for s := 0; s < tables.T; s++ {
			if target[p][s] != 0 {
				v ^= basis[s]
			}
		}
		recovered[p] = v
	}
	return recovered, nil
}

func validateHelperIndex(helperIndex, erasedIndex, n int, seen map[int]bool) error {
	if helperIndex == erasedIndex || helperIndex < 0 || helperIndex >= n {
		return errors.Wrapf(errs.ErrInvalidArgument, "invalid helper index %d for erasedIndex %d", helperIndex, erasedIndex)
	}
	if seen[helperIndex] {
		return errors.Wrapf(errs.ErrInvalidArgument, "duplicate helper index %d", helperIndex)
	}
	return nil
}

// accumulateColumnTrace bit-unpacks one helper's buffer and XORs its
// contribution into every output byte's target trace (spec §4.D
// step 1).
func accumulateColumnTrace(target [][tables.T]byte, hb HelperBuffer, erasedIndex, length int) error {
	row := tables.RecoveryRow(hb.HelperIndex, erasedIndex)
	bw := row.Bandwidth
	wantLen := length * bw / 8
	if len(hb.Buffer) != wantLen {
		return errors.Wrapf(errs.ErrCorruptInput, "helper %d buffer length %d, want %d (bw=%d, L=%d)",
			hb.HelperIndex, len(hb.Buffer), wantLen, bw, length)
	}

	// The buffer packs bits a-major (all a=0 across positions, then
	// a=1, ...), so unpack the whole thing into a [a][p] grid before
	// walking byte positions.
	r := newBitReader(hb.Buffer)
	bits := make([][]byte, bw)
	for a := 0; a < bw; a++ {
		bits[a] = make([]byte, length)
		for p := 0; p < length; p++ {
			bits[a][p] = r.ReadBit()
		}
	}

	for p := 0; p < length; p++ {
		for s := 0; s < tables.T; s++ {
			mask := expandMask(row.Masks[s], bw)
			var acc byte
			for a := 0; a < bw; a++ {
				acc ^= mask[a] & bits[a][p]
			}
			target[p][s] ^= acc
		}
	}
	return nil
}
