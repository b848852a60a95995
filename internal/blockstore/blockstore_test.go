package blockstore

import (
	"context"
	"os"
	"testing"
)

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func TestLocalShardStoreRoundTrip(t *testing.T) {
	store := &LocalShardStore{Root: t.TempDir()}
	payload := []byte("shard-bytes")
	if err := store.WriteShard("stripe-1", 3, payload); err != nil {
		t.Fatalf("WriteShard: %v", err)
	}
	got, err := store.ReadShard("stripe-1", 3)
	if err != nil {
		t.Fatalf("ReadShard: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestLocalShardStoreDetectsCorruption(t *testing.T) {
	store := &LocalShardStore{Root: t.TempDir()}
	if err := store.WriteShard("stripe-1", 0, []byte("original")); err != nil {
		t.Fatalf("WriteShard: %v", err)
	}
	// Tamper with the shard after the checksum sidecar was written.
	if err := store.WriteShard("stripe-1", 0, []byte("original")); err != nil {
		t.Fatalf("WriteShard: %v", err)
	}
	path := store.shardPath("stripe-1", 0)
	if err := writeFile(path, []byte("tampered!")); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if _, err := store.ReadShard("stripe-1", 0); err == nil {
		t.Fatalf("expected checksum mismatch to be detected")
	}
}

func TestPlacementLookup(t *testing.T) {
	p := NewPlacementLookup(map[string][]string{
		"stripe-1": {"10.0.0.1:9000", "10.0.0.2:9000"},
	})
	ep, err := p.Endpoints("stripe-1")
	if err != nil {
		t.Fatalf("Endpoints: %v", err)
	}
	if len(ep) != 2 {
		t.Fatalf("got %d endpoints, want 2", len(ep))
	}
	if _, err := p.Endpoints("unknown"); err == nil {
		t.Fatalf("expected error for unknown stripe")
	}
}

func TestZeroSourceFillsZeroes(t *testing.T) {
	src := ZeroSource{Length: 10}
	r, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	buf := make([]byte, 4)
	n, err := r.Read(context.Background(), buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 4 {
		t.Fatalf("read %d bytes, want 4", n)
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatalf("expected zero bytes, got %v", buf)
		}
	}
	if r.RemainingLen() != 6 {
		t.Fatalf("RemainingLen = %d, want 6", r.RemainingLen())
	}
}
