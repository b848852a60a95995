package transport

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/errs"
)

// deadliner is satisfied by both smux.Stream and a tcpraw/kcp
// net.Conn; streamReader uses it to honor ctx's deadline on a Read
// call without blocking past it, the same posture kcp-go's own
// session plumbing takes toward per-call deadlines.
type deadliner interface {
	SetReadDeadline(time.Time) error
}

// streamReader adapts a stream opened against a helper node into
// coordinator.Reader: it knows, from the 8-byte header the helper
// wrote right after accepting the request, how many trace bytes
// remain to be read.
type streamReader struct {
	rc        io.ReadCloser
	dl        deadliner
	remaining int64
}

func newStreamReader(rc io.ReadCloser, dl deadliner, length int64) *streamReader {
	return &streamReader{rc: rc, dl: dl, remaining: length}
}

func (r *streamReader) Read(ctx context.Context, buf []byte) (int, error) {
	if dl, ok := ctx.Deadline(); ok && r.dl != nil {
		if err := r.dl.SetReadDeadline(dl); err != nil {
			return 0, errors.Wrap(errs.ErrSourceReadFailure, err.Error())
		}
	}
	n, err := r.rc.Read(buf)
	r.remaining -= int64(n)
	if err != nil && err != io.EOF {
		return n, errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	return n, nil
}

func (r *streamReader) Close() error {
	if err := r.rc.Close(); err != nil {
		return errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	return nil
}

func (r *streamReader) RemainingLen() int64 {
	if r.remaining < 0 {
		return 0
	}
	return r.remaining
}
