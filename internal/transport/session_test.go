package transport

import (
	"io"
	"net"
	"testing"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/compress"
)

func TestMaybeCompressPassthroughWhenDisabled(t *testing.T) {
	conn, _ := net.Pipe()
	defer conn.Close()
	wrapped := maybeCompress(conn, false)
	if wrapped != io.ReadWriteCloser(conn) {
		t.Fatalf("expected maybeCompress to return the conn unchanged when disabled")
	}
}

func TestMaybeCompressWrapsWhenEnabled(t *testing.T) {
	conn, _ := net.Pipe()
	defer conn.Close()
	wrapped := maybeCompress(conn, true)
	if _, ok := wrapped.(*compress.Stream); !ok {
		t.Fatalf("expected maybeCompress to return a *compress.Stream, got %T", wrapped)
	}
}

func TestBuildSmuxConfigAppliesOverrides(t *testing.T) {
	cfg, err := buildSmuxConfig(SmuxParams{Version: 2, MaxFrameSize: 4096})
	if err != nil {
		t.Fatalf("buildSmuxConfig: %v", err)
	}
	if cfg.Version != 2 {
		t.Fatalf("Version = %d, want 2", cfg.Version)
	}
	if cfg.MaxFrameSize != 4096 {
		t.Fatalf("MaxFrameSize = %d, want 4096", cfg.MaxFrameSize)
	}
}

func TestBuildSmuxConfigZeroValueUsesDefaults(t *testing.T) {
	cfg, err := buildSmuxConfig(SmuxParams{})
	if err != nil {
		t.Fatalf("buildSmuxConfig: %v", err)
	}
	if cfg.Version == 0 {
		t.Fatalf("expected a non-zero default Version")
	}
}

func TestBuildSmuxConfigRejectsInvalidVersion(t *testing.T) {
	if _, err := buildSmuxConfig(SmuxParams{Version: 99}); err == nil {
		t.Fatalf("expected error for unsupported smux version")
	}
}
