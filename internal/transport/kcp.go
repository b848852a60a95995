package transport

import (
	"context"

	"github.com/pkg/errors"
	kcp "github.com/xtaci/kcp-go/v5"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/coordinator"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/errs"
)

// KCPSource dials a helper node's KCP listener and asks it for the
// repair trace that helper contributes toward repairing erasedIndex.
// Grounded on client/utils.go's DialKCP (kcp.DialWithOptions) paired
// with server/main.go's handleMux smux-over-KCP pattern, mirrored
// here from the dialing side.
//
// A KCPSource is scoped to a single Repair call: DecodeLength must be
// set to that call's decode length before the source is handed to
// coordinator.New, since coordinator.Source.Open takes no arguments.
type KCPSource struct {
	RemoteAddr   string
	Block        kcp.BlockCrypt
	DataShards   int
	ParityShards int

	HelperIndex  int
	ErasedIndex  int
	DecodeLength int

	Smux SmuxParams
}

var _ coordinator.Source = (*KCPSource)(nil)

// Open dials the helper and negotiates one multiplexed stream carrying
// the trace for s.HelperIndex's contribution to repairing s.ErasedIndex.
func (s *KCPSource) Open(ctx context.Context) (coordinator.Reader, error) {
	sess, err := kcp.DialWithOptions(s.RemoteAddr, s.Block, s.DataShards, s.ParityShards)
	if err != nil {
		return nil, errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	if dl, ok := ctx.Deadline(); ok {
		sess.SetDeadline(dl)
	}
	reader, err := openTraceStream(sess, s.Smux, request{
		HelperIndex:  uint32(s.HelperIndex),
		ErasedIndex:  uint32(s.ErasedIndex),
		DecodeLength: uint32(s.DecodeLength),
	})
	if err != nil {
		sess.Close()
		return nil, err
	}
	return reader, nil
}
