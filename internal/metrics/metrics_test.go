package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordAppendsLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metrics.log")
	s := NewSink(path)

	s.Start("repair-1", "erasedIndex=2")
	s.End("repair-1", "erasedIndex=2")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "\tSTART\t") {
		t.Fatalf("line 0 missing START event: %q", lines[0])
	}
	if !strings.Contains(lines[1], "\tEND\t") {
		t.Fatalf("line 1 missing END event: %q", lines[1])
	}
}

func TestRecordNoopWithEmptyPath(t *testing.T) {
	s := NewSink("")
	// Must not panic or create any file.
	s.Mark("repair-1", "noop")
}
