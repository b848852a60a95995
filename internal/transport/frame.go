// Package transport dials a helper node and opens a multiplexed stream
// that speaks the repair-trace request/response framing used between a
// repair coordinator and the repair nodes holding surviving shards.
// It supplies the two coordinator.Source implementations named in
// SPEC_FULL.md §B: a KCP-backed primary path (client/utils.go's
// DialKCP, server/main.go's handleMux/smux pairing) and a tcpraw
// fallback for UDP-hostile networks (server/main.go's tcpraw.Listen
// branch).
package transport

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/errs"
)

// request is the fixed-width frame a coordinator writes on a freshly
// opened stream to ask a helper node for the repair trace it would
// contribute toward reconstructing erasedIndex, given a decode length
// of decodeLength bytes per shard. Fixed-width binary framing mirrors
// kcp-go's own fecHeaderSize-style headers (vendor/kcp-go/v5/fec.go).
type request struct {
	HelperIndex  uint32
	ErasedIndex  uint32
	DecodeLength uint32
}

const requestSize = 12

func writeRequest(w io.Writer, r request) error {
	var buf [requestSize]byte
	binary.BigEndian.PutUint32(buf[0:4], r.HelperIndex)
	binary.BigEndian.PutUint32(buf[4:8], r.ErasedIndex)
	binary.BigEndian.PutUint32(buf[8:12], r.DecodeLength)
	if _, err := w.Write(buf[:]); err != nil {
		return errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	return nil
}

func readRequest(r io.Reader) (request, error) {
	var buf [requestSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return request{}, errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	return request{
		HelperIndex:  binary.BigEndian.Uint32(buf[0:4]),
		ErasedIndex:  binary.BigEndian.Uint32(buf[4:8]),
		DecodeLength: binary.BigEndian.Uint32(buf[8:12]),
	}, nil
}

// writeTraceHeader announces how many trace bytes follow on the
// stream, letting the reading side answer RemainingLen() without a
// separate round trip.
func writeTraceHeader(w io.Writer, length int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(length))
	if _, err := w.Write(buf[:]); err != nil {
		return errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	return nil
}

func readTraceHeader(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}
