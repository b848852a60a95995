package trace

import (
	"math/rand"
	"testing"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/tables"
)

func newTestEncoder(t *testing.T) *Encoder {
	t.Helper()
	enc, err := NewEncoder(tables.K, tables.M)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	return enc
}

func buffersExcept(traces [][]byte, erasedIndex int) []HelperBuffer {
	var buffers []HelperBuffer
	for i, buf := range traces {
		if i == erasedIndex {
			continue
		}
		buffers = append(buffers, HelperBuffer{HelperIndex: i, Buffer: buf})
	}
	return buffers
}

// TestRoundTripAllErasedIndices is scenario S1/S3 plus property 1: for
// every erased index, decoding from the traces produced by Encode
// recovers exactly the original shard at that index.
func TestRoundTripAllErasedIndices(t *testing.T) {
	enc := newTestEncoder(t)
	dec := NewDecoder()
	const length = 8

	rng := rand.New(rand.NewSource(1))
	data := make([][]byte, tables.K)
	for i := range data {
		data[i] = make([]byte, length)
		rng.Read(data[i])
	}

	for j := 0; j < tables.N; j++ {
		parities, traces, err := enc.Encode(data, nil, length, j)
		if err != nil {
			t.Fatalf("Encode(j=%d): %v", j, err)
		}

		want := make([]byte, length)
		switch {
		case j < tables.K:
			copy(want, data[j])
		default:
			copy(want, parities[j-tables.K])
		}

		buffers := buffersExcept(traces, j)
		got, err := dec.Decode(buffers, j, tables.N, length)
		if err != nil {
			t.Fatalf("Decode(j=%d): %v", j, err)
		}
		for p := range want {
			if got[p] != want[p] {
				t.Fatalf("j=%d: recovered[%d]=%d want %d", j, p, got[p], want[p])
			}
		}
	}
}

// TestHelperSubsetInvariance is property 2: the decoder's output
// depends only on the set of (helperIndex, buffer) pairs, not their
// order.
func TestHelperSubsetInvariance(t *testing.T) {
	enc := newTestEncoder(t)
	dec := NewDecoder()
	const length = 8
	const erasedIndex = 2

	rng := rand.New(rand.NewSource(2))
	data := make([][]byte, tables.K)
	for i := range data {
		data[i] = make([]byte, length)
		rng.Read(data[i])
	}

	_, traces, err := enc.Encode(data, nil, length, erasedIndex)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	buffers := buffersExcept(traces, erasedIndex)

	got1, err := dec.Decode(buffers, erasedIndex, tables.N, length)
	if err != nil {
		t.Fatalf("Decode (forward order): %v", err)
	}

	shuffled := make([]HelperBuffer, len(buffers))
	copy(shuffled, buffers)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	got2, err := dec.Decode(shuffled, erasedIndex, tables.N, length)
	if err != nil {
		t.Fatalf("Decode (shuffled order): %v", err)
	}

	for p := range got1 {
		if got1[p] != got2[p] {
			t.Fatalf("order dependence at byte %d: %d != %d", p, got1[p], got2[p])
		}
	}
}

// TestBandwidthConsistency is scenario S4 / property 3.
func TestBandwidthConsistency(t *testing.T) {
	enc := newTestEncoder(t)
	const length = 8
	const erasedIndex = 0

	data := make([][]byte, tables.K)
	for i := range data {
		data[i] = make([]byte, length)
	}
	_, traces, err := enc.Encode(data, nil, length, erasedIndex)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for i, buf := range traces {
		if i == erasedIndex {
			continue
		}
		want := length * tables.Bandwidth(i, erasedIndex) / 8
		if len(buf) != want {
			t.Fatalf("trace[%d] length = %d, want %d", i, len(buf), want)
		}
	}
}

// TestIdentityEncodeYieldsZeroTraces is scenario S1.
func TestIdentityEncodeYieldsZeroTraces(t *testing.T) {
	enc := newTestEncoder(t)
	const length = 8
	const erasedIndex = 4

	data := make([][]byte, tables.K)
	for i := range data {
		data[i] = make([]byte, length)
	}
	parities, traces, err := enc.Encode(data, nil, length, erasedIndex)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for p, shard := range parities {
		for b, v := range shard {
			if v != 0 {
				t.Fatalf("parity[%d][%d] = %d, want 0", p, b, v)
			}
		}
	}
	for i, buf := range traces {
		if i == erasedIndex {
			continue
		}
		for b, v := range buf {
			if v != 0 {
				t.Fatalf("trace[%d][%d] = %d, want 0", i, b, v)
			}
		}
	}
}

func TestDecodeRejectsWrongHelperCount(t *testing.T) {
	dec := NewDecoder()
	_, err := dec.Decode([]HelperBuffer{}, 0, tables.N, 8)
	if err == nil {
		t.Fatalf("expected error for too few helper buffers")
	}
}

func TestDecodeRejectsBadLength(t *testing.T) {
	dec := NewDecoder()
	buffers := make([]HelperBuffer, tables.N-1)
	idx := 0
	for i := 0; i < tables.N; i++ {
		if i == 0 {
			continue
		}
		buffers[idx] = HelperBuffer{HelperIndex: i, Buffer: []byte{0}}
		idx++
	}
	if _, err := dec.Decode(buffers, 0, tables.N, 8); err == nil {
		t.Fatalf("expected error for mismatched buffer length")
	}
}

func TestParity8MatchesPopcount(t *testing.T) {
	for x := 0; x < 256; x++ {
		v := byte(x)
		var count int
		for b := 0; b < 8; b++ {
			if v&(1<<uint(b)) != 0 {
				count++
			}
		}
		want := byte(count % 2)
		if parity8(v) != want {
			t.Fatalf("parity8(%d) = %d, want %d", x, parity8(v), want)
		}
	}
}

// TestEmitHelperTraceMatchesEncode confirms the single-shard
// production primitive a repair node runs (EmitHelperTrace) produces
// byte-identical output to the whole-stripe Encode path used for
// testing, for every surviving helper.
func TestEmitHelperTraceMatchesEncode(t *testing.T) {
	enc := newTestEncoder(t)
	const length = 8
	erasedIndex := 2

	rng := rand.New(rand.NewSource(7))
	data := make([][]byte, tables.K)
	for i := range data {
		data[i] = make([]byte, length)
		rng.Read(data[i])
	}

	parities, traces, err := enc.Encode(data, nil, length, erasedIndex)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	shards := make([][]byte, tables.K+tables.M)
	copy(shards, data)
	copy(shards[tables.K:], parities)

	for i := 0; i < tables.K+tables.M; i++ {
		if i == erasedIndex {
			continue
		}
		got, err := enc.EmitHelperTrace(i, erasedIndex, shards[i], length)
		if err != nil {
			t.Fatalf("EmitHelperTrace(%d): %v", i, err)
		}
		if string(got) != string(traces[i]) {
			t.Fatalf("helper %d: EmitHelperTrace differs from Encode's trace", i)
		}
	}
}

func TestEmitHelperTraceRejectsShortShard(t *testing.T) {
	enc := newTestEncoder(t)
	if _, err := enc.EmitHelperTrace(0, 1, []byte{1, 2, 3}, 8); err == nil {
		t.Fatalf("expected error for shard shorter than requested length")
	}
}

func TestExpandMask(t *testing.T) {
	for bw := 1; bw <= 8; bw++ {
		for m := 0; m < 1<<uint(bw); m++ {
			mask := expandMask(m, bw)
			var sum int
			for a := 0; a < bw; a++ {
				sum += int(mask[a]) << uint(bw-1-a)
			}
			if sum != m {
				t.Fatalf("bw=%d m=%d: reassembled %d", bw, m, sum)
			}
		}
	}
}
