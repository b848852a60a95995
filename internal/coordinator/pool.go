package coordinator

import "sync"

// BufferPool recycles the read buffers reads are issued against; each
// pooled buffer is cfg.BufferSize bytes (spec §6:
// "reconstruction.striped-read.buffer.size"). Sizes are used as given:
// neither the pooled size nor a larger per-read allocation is rounded
// to a chunk multiple. Allocation/release is concurrency
// safe, backed by sync.Pool the way the teacher's hot paths avoid
// per-call allocation (std/copy.go's Copy reuses a single scratch
// buffer per call; here the scratch buffer is shared across
// concurrent reader goroutines instead).
type BufferPool struct {
	size int
	pool sync.Pool
}

// NewBufferPool builds a pool whose freshly allocated buffers are
// exactly size bytes.
func NewBufferPool(size int) *BufferPool {
	p := &BufferPool{size: size}
	p.pool.New = func() interface{} {
		return make([]byte, p.size)
	}
	return p
}

// Get returns a buffer with capacity at least n, drawing from the
// pool when a recycled buffer is large enough and allocating fresh
// otherwise (traces for wide bandwidths can exceed the configured
// chunk size).
func (p *BufferPool) Get(n int) []byte {
	buf := p.pool.Get().([]byte)
	if cap(buf) < n {
		return make([]byte, n)
	}
	return buf[:n]
}

// Put returns buf to the pool for reuse.
func (p *BufferPool) Put(buf []byte) {
	p.pool.Put(buf[:cap(buf)])
}
