// Package metrics implements the repair-system metrics sink (spec
// §6): an ordered append-only log of `timestamp \t thread-id \t event
// \t label` lines. Write-only and best-effort — I/O failures are
// logged and swallowed, never propagated (spec §7).
package metrics

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// Event names recorded by the sink (spec §6).
const (
	EventStart = "START"
	EventEnd   = "END"
	EventMark  = "MARK"
)

// Sink appends metrics lines to a single file, one call to Record at
// a time. Grounded on std/snmp.go's SnmpLogger: open-append-close per
// write rather than holding a long-lived file handle, so a sink left
// idle for hours doesn't hold a stale fd across log rotation.
type Sink struct {
	path string
	mu   sync.Mutex
}

// NewSink opens a metrics sink writing to path. An empty path
// disables the sink entirely (Record becomes a no-op), mirroring
// SnmpLogger's "path == '' -> return" guard.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Record appends one "timestamp\tthread\tevent\tlabel" line. thread
// identifies the logical worker (e.g. a repair's block-group id, not
// an OS thread id — Go has no stable thread handle to report).
// Failures are logged and swallowed (spec §7: "Metrics I/O errors are
// swallowed after logging").
func (s *Sink) Record(thread, event, label string) {
	if s.path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Println("metrics: open failed:", err)
		return
	}
	defer f.Close()

	line := fmt.Sprintf("%d\t%s\t%s\t%s\n", time.Now().UnixNano(), thread, event, label)
	if _, err := f.WriteString(line); err != nil {
		log.Println("metrics: write failed:", err)
	}
}

// Start records the beginning of a named unit of work.
func (s *Sink) Start(thread, label string) { s.Record(thread, EventStart, label) }

// End records the completion of a named unit of work.
func (s *Sink) End(thread, label string) { s.Record(thread, EventEnd, label) }

// Mark records a point-in-time event with no duration.
func (s *Sink) Mark(thread, label string) { s.Record(thread, EventMark, label) }
