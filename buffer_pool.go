package psu

import (
	"sync"

	"go.uber.org/atomic"
)

// BufferPool manages reusable line buffers for the exchange read loop.
// Buffers are handed out empty with a fixed capacity.
type BufferPool struct {
	pool sync.Pool
	size int
	// Metrics for monitoring pool efficiency
	gets    atomic.Int64
	puts    atomic.Int64
	creates atomic.Int64
}

// NewBufferPool creates a buffer pool with fixed-capacity buffers
func NewBufferPool(bufferSize int) *BufferPool {
	bp := &BufferPool{
		size: bufferSize,
	}
	bp.pool = sync.Pool{
		New: func() interface{} {
			bp.creates.Inc()
			return make([]byte, 0, bufferSize)
		},
	}
	return bp
}

// Get retrieves an empty buffer from the pool
func (bp *BufferPool) Get() []byte {
	bp.gets.Inc()
	return bp.pool.Get().([]byte)[:0]
}

// Put returns a buffer to the pool (clears it first so stale responses
// never leak into a later exchange)
func (bp *BufferPool) Put(buf []byte) {
	if cap(buf) != bp.size {
		return // Don't pool incorrectly sized buffers
	}
	bp.puts.Inc()

	buf = buf[:cap(buf)]
	clear(buf)
	bp.pool.Put(buf[:0])
}

// Stats returns pool usage statistics
func (bp *BufferPool) Stats() PoolStats {
	return PoolStats{
		Size:    bp.size,
		Gets:    bp.gets.Load(),
		Puts:    bp.puts.Load(),
		Creates: bp.creates.Load(),
	}
}

// PoolStats contains buffer pool usage statistics
type PoolStats struct {
	Size    int   // Buffer capacity managed by this pool
	Gets    int64 // Number of Get() calls
	Puts    int64 // Number of Put() calls
	Creates int64 // Number of new buffers created
}

// HitRatio returns the cache hit ratio (0.0 to 1.0)
func (ps PoolStats) HitRatio() float64 {
	if ps.Gets == 0 {
		return 0.0
	}
	return 1.0 - (float64(ps.Creates) / float64(ps.Gets))
}
