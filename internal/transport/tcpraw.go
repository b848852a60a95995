package transport

import (
	"context"
	"net"

	"github.com/pkg/errors"
	kcp "github.com/xtaci/kcp-go/v5"
	"github.com/xtaci/tcpraw"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/coordinator"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/errs"
)

// TCPRawSource is the fallback dial path for helper endpoints behind
// networks that drop UDP: it opens a raw TCP socket via tcpraw (as
// server/main.go's handleMux does on the listen side via
// tcpraw.Listen when config.TCP is set) and runs KCP's ARQ/FEC layer
// on top of it exactly as the UDP path does, via kcp.NewConn2.
type TCPRawSource struct {
	RemoteAddr   string
	Block        kcp.BlockCrypt
	DataShards   int
	ParityShards int

	HelperIndex  int
	ErasedIndex  int
	DecodeLength int

	Smux SmuxParams
}

var _ coordinator.Source = (*TCPRawSource)(nil)

func (s *TCPRawSource) Open(ctx context.Context) (coordinator.Reader, error) {
	conn, err := tcpraw.Dial("tcp", s.RemoteAddr)
	if err != nil {
		return nil, errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	raddr, err := net.ResolveTCPAddr("tcp", s.RemoteAddr)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(errs.ErrInvalidArgument, err.Error())
	}
	sess, err := kcp.NewConn2(raddr, s.Block, s.DataShards, s.ParityShards, conn)
	if err != nil {
		conn.Close()
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
