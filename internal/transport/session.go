package transport

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/xtaci/smux"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/compress"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/errs"
)

// SmuxParams configures the smux session wrapping a transport dial,
// adapted from std/smuxcfg.go's BuildSmuxConfig into something
// internal/config.Config can populate directly.
type SmuxParams struct {
	Version          int
	MaxReceiveBuffer int
	MaxStreamBuffer  int
	MaxFrameSize     int
	KeepAliveSeconds int
	Compress         bool
}

// maybeCompress wraps conn in snappy framing when compression is
// enabled, matching client/main.go and server/main.go's
// config.NoComp branch around std.NewCompStream.
func maybeCompress(conn io.ReadWriteCloser, enabled bool) io.ReadWriteCloser {
	if !enabled {
		return conn
	}
	return compress.NewStream(conn)
}

// buildSmuxConfig constructs and validates a smux.Config the same way
// std/smuxcfg.go's BuildSmuxConfig does; a zero-value SmuxParams
// yields smux's own defaults.
func buildSmuxConfig(p SmuxParams) (*smux.Config, error) {
	cfg := smux.DefaultConfig()
	if p.Version != 0 {
		cfg.Version = p.Version
	}
	if p.MaxReceiveBuffer != 0 {
		cfg.MaxReceiveBuffer = p.MaxReceiveBuffer
	}
	if p.MaxStreamBuffer != 0 {
		cfg.MaxStreamBuffer = p.MaxStreamBuffer
	}
	if p.MaxFrameSize != 0 {
		cfg.MaxFrameSize = p.MaxFrameSize
	}
	if p.KeepAliveSeconds != 0 {
		cfg.KeepAliveInterval = time.Duration(p.KeepAliveSeconds) * time.Second
	}
	if err := smux.VerifyConfig(cfg); err != nil {
		return nil, errors.Wrap(errs.ErrInvalidArgument, err.Error())
	}
	return cfg, nil
}

// multiCloser closes several io.Closers in order, stream first so the
// underlying session and connection tear down cleanly beneath it, and
// reports the first error encountered (matching server/main.go's
// handleMux, which closes stream/session/conn in the same order on
// every exit path).
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openTraceStream opens one smux stream over conn, sends the trace
// request, and reads back the length header that precedes the trace
// payload itself. conn is taken over by the returned reader: closing
// the reader closes the stream, the smux session, and conn.
func openTraceStream(conn io.ReadWriteCloser, params SmuxParams, req request) (*streamReader, error) {
	smuxCfg, err := buildSmuxConfig(params)
	if err != nil {
		return nil, err
	}
	session, err := smux.Client(maybeCompress(conn, params.Compress), smuxCfg)
	if err != nil {
		return nil, errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	stream, err := session.OpenStream()
	if err != nil {
		session.Close()
		return nil, errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	if err := writeRequest(stream, req); err != nil {
		stream.Close()
		session.Close()
		return nil, err
	}
	length, err := readTraceHeader(stream)
	if err != nil {
		stream.Close()
		session.Close()
		return nil, err
	}
	rc := &readCloser{r: stream, c: multiCloser{stream, session, conn}}
	return newStreamReader(rc, stream, length), nil
}

// readCloser splits the read path (just the stream) from the close
// path (stream, session, and the raw connection together), since
// smux.Stream.Close alone leaves the session and dialed conn open.
type readCloser struct {
	r io.Reader
	c io.Closer
}

func (rc *readCloser) Read(p []byte) (int, error) { return rc.r.Read(p) }
func (rc *readCloser) Close() error                { return rc.c.Close() }
