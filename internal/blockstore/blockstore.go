// Package blockstore provides minimal stand-ins for the collaborators
// spec.md §1 places out of scope: a block placement lookup, an
// on-disk shard reader with a checksum, and a zero-filled source for
// a stripe position a repair node has no data for. These are seams
// just wide enough to drive internal/coordinator end to end, not a
// production cluster block store (non-goal, carried in SPEC_FULL.md §E).
package blockstore

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/coordinator"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/errs"
)

// PlacementLookup resolves a stripe identity to its helper endpoints,
// in live-index order. A real cluster would answer this from a
// placement service; here it is a static, in-memory table the
// operator fills from internal/config.Config.Helpers.
type PlacementLookup struct {
	endpoints map[string][]string
}

// NewPlacementLookup builds a lookup from a stripe-id-to-endpoints map.
func NewPlacementLookup(endpoints map[string][]string) *PlacementLookup {
	return &PlacementLookup{endpoints: endpoints}
}

// Endpoints returns the live helper endpoints for stripeID.
func (p *PlacementLookup) Endpoints(stripeID string) ([]string, error) {
	ep, ok := p.endpoints[stripeID]
	if !ok {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "no placement recorded for stripe %q", stripeID)
	}
	return ep, nil
}

// LocalShardStore reads a repair node's own on-disk shard bytes, the
// local side of the collaborator spec.md §1 calls "full on-disk block
// reader." Each shard is stored as Root/<stripeID>/shard-<index>,
// alongside a sha256 sidecar for a basic integrity check.
type LocalShardStore struct {
	Root string
}

// ReadShard reads index's shard for stripeID and verifies it against
// its stored checksum, reporting CorruptInput on a mismatch.
func (s *LocalShardStore) ReadShard(stripeID string, index int) ([]byte, error) {
	path := s.shardPath(stripeID, index)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	sumPath := path + ".sha256"
	want, err := os.ReadFile(sumPath)
	if err == nil {
		got := sha256.Sum256(data)
		if string(want) != hexString(got[:]) {
			return nil, errors.Wrapf(errs.ErrCorruptInput, "checksum mismatch for %s", path)
		}
	}
	return data, nil
}

// WriteShard stores data as index's shard for stripeID along with its
// checksum sidecar.
func (s *LocalShardStore) WriteShard(stripeID string, index int, data []byte) error {
	dir := filepath.Join(s.Root, stripeID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	path := s.shardPath(stripeID, index)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	sum := sha256.Sum256(data)
	return os.WriteFile(path+".sha256", []byte(hexString(sum[:])), 0o644)
}

func (s *LocalShardStore) shardPath(stripeID string, index int) string {
	return filepath.Join(s.Root, stripeID, "shard-"+strconv.Itoa(index))
}

func hexString(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0f]
	}
	return string(out)
}

// ZeroSource is a coordinator.Source that always answers with
// length bytes of zeros — the "pre-allocated zero buffer" spec §4.E
// step 5 expects for a stripe position with no real contribution
// (e.g. a helper known in advance to be trivially absent rather than
// merely slow). It never fails and never blocks.
type ZeroSource struct {
	Length int
}

var _ coordinator.Source = ZeroSource{}

func (z ZeroSource) Open(ctx context.Context) (coordinator.Reader, error) {
	return &zeroReader{remaining: int64(z.Length)}, nil
}

type zeroReader struct {
	remaining int64
}

func (z *zeroReader) Read(ctx context.Context, buf []byte) (int, error) {
	n := len(buf)
	if int64(n) > z.remaining {
		n = int(z.remaining)
	}
	for i := 0; i < n; i++ {
		buf[i] = 0
	}
	z.remaining -= int64(n)
	return n, nil
}

func (z *zeroReader) Close() error { return nil }

func (z *zeroReader) RemainingLen() int64 { return z.remaining }
