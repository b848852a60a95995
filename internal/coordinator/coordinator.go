// Package coordinator implements the repair coordinator (spec §4.E):
// orchestrating a single repair of one erased shard by concurrently
// fetching repair traces from surviving helpers, failing over on
// timeout or read failure, and driving the decoder once enough
// helpers have responded.
package coordinator

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/errs"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/tables"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/trace"
)

// Source opens a Reader against one candidate helper endpoint.
// internal/transport implements this over kcp-go+smux and tcpraw.
type Source interface {
	Open(ctx context.Context) (Reader, error)
}

// Reader streams one helper's repair-trace bytes sequentially from
// the position it was opened at.
type Reader interface {
	io.Closer
	Read(ctx context.Context, buf []byte) (int, error)
	// RemainingLen reports how many trace bytes are left to read for
	// this helper's block, the "on-disk block length per index"
	// external input spec §4.E assumes.
	RemainingLen() int64
}

// Config bundles the coordinator's environment-configured knobs
// (spec §6: reconstruction.striped-read.timeout.ms /
// reconstruction.striped-read.buffer.size).
type Config struct {
	Timeout    time.Duration
	BufferSize int
}

// Coordinator orchestrates a single repair of one erased shard in a
// stripe.
type Coordinator struct {
	n           int
	erasedIndex int
	minRequired int
	cfg         Config
	decoder     *trace.Decoder
	pool        *BufferPool

	// liveIndices[s] and sources[s] are parallel: sources[s] is the
	// transport endpoint for the survivor identified by liveIndices[s]
	// (spec §4.E inputs).
	liveIndices []int
	sources     []Source
}

// New builds a Coordinator for one repair of erasedIndex in an
// n-shard stripe. liveIndices and sources must be parallel and at
// least n-1 long (spec §4.E: "fail if fewer than minRequired readers
// initialise").
func New(n, erasedIndex int, liveIndices []int, sources []Source, cfg Config) (*Coordinator, error) {
	if erasedIndex < 0 || erasedIndex >= n {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "erasedIndex %d out of range [0,%d)", erasedIndex, n)
	}
	if len(liveIndices) != len(sources) {
		return nil, errors.Wrap(errs.ErrInvalidArgument, "liveIndices and sources must be the same length")
	}
	minRequired := n - 1
	if len(sources) < minRequired {
		return nil, errors.Wrapf(errs.ErrInsufficientSources, "need at least %d sources, got %d", minRequired, len(sources))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 4096
	}
	return &Coordinator{
		n:           n,
		erasedIndex: erasedIndex,
		minRequired: minRequired,
		cfg:         cfg,
		decoder:     trace.NewDecoder(),
		pool:        NewBufferPool(cfg.BufferSize),
		liveIndices: liveIndices,
		sources:     sources,
	}, nil
}

// helperIndexFor implements the compacted-to-full index mapping from
// spec §4.E step 2: "Reader slot s maps to helperIndex = liveIndices[s]
// if liveIndices[s] < j else liveIndices[s] + 1".
func helperIndexFor(liveIndex, erasedIndex int) int {
	if liveIndex < erasedIndex {
		return liveIndex
	}
	return liveIndex + 1
}

// workingSlot is one member of the active successList-in-progress: a
// live reader assigned to contribute one helper's trace.
type workingSlot struct {
	sourceIdx   int
	helperIndex int
	reader      Reader
	data        []byte
	done        bool
}

type readOutcome struct {
	slot int
	data []byte
	err  error
}

// Repair drives one repair iteration end to end (spec §4.E steps 1-8)
// and returns the recovered erasedIndex shard of length decodeLength.
func (c *Coordinator) Repair(ctx context.Context, decodeLength int) ([]byte, error) {
	if decodeLength <= 0 || decodeLength%8 != 0 {
		return nil, errors.Wrapf(errs.ErrInvalidArgument, "decodeLength %d must be a positive multiple of 8", decodeLength)
	}

	working := make([]*workingSlot, c.minRequired)
	used := make([]bool, len(c.sources))
	attempts := make([]int, len(c.sources))
	spare := make([]int, 0, len(c.sources))
	nextUnused := 0

	// Step 1: initialise one reader per source for the initial working
	// set; fail outright if fewer than minRequired initialise.
	for s := 0; s < c.minRequired; s++ {
		ws, ok := c.openNextUnused(ctx, used, &nextUnused)
		if !ok {
			c.closeAll(working[:s])
			return nil, errors.Wrapf(errs.ErrInsufficientSources, "only %d of %d readers initialised", s, c.minRequired)
		}
		attempts[ws.sourceIdx]++
		working[s] = ws
	}

	results := make(chan readOutcome, c.minRequired)
	for s := range working {
		c.issue(ctx, working, s, decodeLength, results)
	}

	successCount := 0
	for successCount < c.minRequired {
		select {
		case <-ctx.Done():
			c.closeAll(working)
			return nil, errors.Wrap(errs.ErrCancelled, ctx.Err().Error())
		case res := <-results:
			ws := working[res.slot]
			if res.err != nil {
				if ws.reader != nil {
					ws.reader.Close()
				}
				// A source that keeps failing after maxAttemptsPerSource
				// tries is dropped for good rather than requeued forever
				// (spec §4.E leaves the retry budget implicit; without a
				// per-source cap a permanently broken source would loop
				// scheduleNewRead indefinitely instead of surfacing
				// InsufficientSources).
				if attempts[ws.sourceIdx] < maxAttemptsPerSource {
					spare = append(spare, ws.sourceIdx)
				}
				ok := c.scheduleNewRead(ctx, working, res.slot, used, attempts, &nextUnused, &spare, decodeLength, results)
				if !ok {
					c.closeAll(working)
					return nil, errors.Wrapf(errs.ErrInsufficientSources, "exhausted sources replacing slot %d", res.slot)
				}
				continue
			}
			if !ws.done {
				ws.data = res.data
				ws.done = true
				successCount++
			}
		}
	}

	// Step 6 termination: cancel anything still outstanding and drain.
	c.closeAll(working)
	drainResults(results)

	// Steps 7-8: assemble the n-slot input array and decode.
	buffers := make([]trace.HelperBuffer, 0, c.minRequired)
	for _, ws := range working {
		buffers = append(buffers, trace.HelperBuffer{HelperIndex: ws.helperIndex, Buffer: ws.data})
	}
	recovered, err := c.decoder.Decode(buffers, c.erasedIndex, c.n, decodeLength)
	if err != nil {
		return nil, errors.Wrap(errs.ErrCorruptInput, err.Error())
	}
	return recovered, nil
}

// maxAttemptsPerSource bounds how many times the same source is
// opened in total (its first open plus scheduleNewRead's revisits
// after failures) before it is given up for good (see Repair's
// retry-budget comment).
const maxAttemptsPerSource = 3

func (c *Coordinator) openNextUnused(ctx context.Context, used []bool, nextUnused *int) (*workingSlot, bool) {
	for *nextUnused < len(c.sources) {
		idx := *nextUnused
		*nextUnused++
		if used[idx] {
			continue
		}
		used[idx] = true
		ws, err := c.tryOpen(ctx, idx)
		if err != nil {
			continue
		}
		return ws, true
	}
	return nil, false
}

func (c *Coordinator) tryOpen(ctx context.Context, sourceIdx int) (*workingSlot, error) {
	liveIdx := c.liveIndices[sourceIdx]
	helperIndex := helperIndexFor(liveIdx, c.erasedIndex)
	reader, err := c.sources[sourceIdx].Open(ctx)
	if err != nil {
		return nil, errors.Wrap(errs.ErrSourceReadFailure, err.Error())
	}
	return &workingSlot{sourceIdx: sourceIdx, helperIndex: helperIndex, reader: reader}, nil
}

// expectedTraceLen is the byte length the helper for helperIndex
// should contribute toward repairing erasedIndex at stripe length L
// (spec §4.C.3's bit-packing contract).
func expectedTraceLen(helperIndex, erasedIndex, decodeLength int) int {
	return decodeLength * tables.Bandwidth(helperIndex, erasedIndex) / 8
}

// issue submits slot s's read asynchronously (spec §4.E step 3). A
// zero-length read (remaining block length is 0) is resolved
// trivially, in place, with a zero-filled buffer of the expected
// length (step 7: "missing stripe positions ... are filled with
// pre-allocated zero buffers").
func (c *Coordinator) issue(ctx context.Context, working []*workingSlot, s, decodeLength int, results chan<- readOutcome) {
	ws := working[s]
	want := expectedTraceLen(ws.helperIndex, c.erasedIndex, decodeLength)
	toRead := want
	if remaining := ws.reader.RemainingLen(); remaining < int64(toRead) {
		toRead = int(remaining)
	}
	if toRead <= 0 {
		results <- readOutcome{slot: s, data: make([]byte, want)}
		return
	}

	go func() {
		readCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		buf := c.pool.Get(toRead)
		n, err := ws.reader.Read(readCtx, buf)
		if err != nil {
			c.pool.Put(buf)
			results <- readOutcome{slot: s, err: errors.Wrap(errs.ErrSourceReadFailure, err.Error())}
			return
		}
		out := make([]byte, want)
		copy(out, buf[:n])
		c.pool.Put(buf)
		results <- readOutcome{slot: s, data: out}
	}()
}

// scheduleNewRead implements spec §4.E step 5: first try a source not
// yet opened this repair, otherwise revisit a previously-closed
// source not currently used, reopening it fresh.
func (c *Coordinator) scheduleNewRead(ctx context.Context, working []*workingSlot, slot int, used []bool, attempts []int, nextUnused *int, spare *[]int, decodeLength int, results chan<- readOutcome) bool {
	if ws, ok := c.openNextUnused(ctx, used, nextUnused); ok {
		attempts[ws.sourceIdx]++
		working[slot] = ws
		c.issue(ctx, working, slot, decodeLength, results)
		return true
	}
	for len(*spare) > 0 {
		idx := (*spare)[0]
		*spare = (*spare)[1:]
		ws, err := c.tryOpen(ctx, idx)
		if err != nil {
			continue
		}
		attempts[idx]++
		working[slot] = ws
		c.issue(ctx, working, slot, decodeLength, results)
		return true
	}
	return false
}

func (c *Coordinator) closeAll(working []*workingSlot) {
	for _, ws := range working {
		if ws != nil && ws.reader != nil {
			ws.reader.Close()
		}
	}
}

// drainResults releases any in-flight completions so their buffers
// are returned to the pool instead of leaking a blocked goroutine
// (spec §4.E step 6: "drain the completion queue to release
// resources").
func drainResults(results chan readOutcome) {
	for {
		select {
		case <-results:
		default:
			return
		}
	}
}
