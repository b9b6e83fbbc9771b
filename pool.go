package mustache

import (
	"bytes"
	"sync"
)

// ----------------------------- Buffer pools ---------------------------------

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

func getBuffer() *bytes.Buffer {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	// Oversized buffers are left to the GC.
	if buf.Cap() > 64<<10 {
		return
	}
	bufPool.Put(buf)
}

// WarmupPools pre-allocates n render buffers of the given size.
func WarmupPools(n, size int) {
	bufs := make([]*bytes.Buffer, n)
	for i := range bufs {
		buf := getBuffer()
		buf.Grow(size)
		bufs[i] = buf
	}
	for _, buf := range bufs {
		putBuffer(buf)
	}
}
