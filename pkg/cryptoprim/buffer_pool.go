// buffer_pool.go provides pooled byte slices for record encryption and
// decryption, sized to the TLS
// record ceiling (constants.MaxRecordLength, 16KB) plus AEAD/CBC overhead.
package cryptoprim

import (
	"sync"

	"github.com/sarahazel/tls-core/internal/constants"
)

const (
	smallRecordBufferSize  = 1024 + 64
	mediumRecordBufferSize = constants.MaxRecordLength/2 + 64
	largeRecordBufferSize  = constants.MaxRecordLength + 64
)

// BufferPool hands out size-classed byte slices for record processing.
type BufferPool struct {
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool
}

// NewBufferPool creates a new record buffer pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		small:  sync.Pool{New: func() any { b := make([]byte, smallRecordBufferSize); return &b }},
		medium: sync.Pool{New: func() any { b := make([]byte, mediumRecordBufferSize); return &b }},
		large:  sync.Pool{New: func() any { b := make([]byte, largeRecordBufferSize); return &b }},
	}
}

// Get returns a buffer of at least size bytes.
func (p *BufferPool) Get(size int) []byte {
	if size <= 0 {
		return nil
	}
	var bufPtr *[]byte
	switch {
	case size <= smallRecordBufferSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= mediumRecordBufferSize:
		bufPtr = p.medium.Get().(*[]byte)
	case size <= largeRecordBufferSize:
		bufPtr = p.large.Get().(*[]byte)
	default:
		return make([]byte, size)
	}
	return (*bufPtr)[:size]
}

// Put returns buf to the pool, zeroing it first since record buffers carry
// plaintext and key-derived ciphertext.
func (p *BufferPool) Put(buf []byte) {
	if buf == nil || cap(buf) == 0 {
		return
	}
	buf = buf[:cap(buf)]
	for i := range buf {
		buf[i] = 0
	}
	bufPtr := &buf
	switch cap(buf) {
	case smallRecordBufferSize:
		p.small.Put(bufPtr)
	case mediumRecordBufferSize:
		p.medium.Put(bufPtr)
	case largeRecordBufferSize:
		p.large.Put(bufPtr)
	}
}

var globalRecordPool = NewBufferPool()

// GetRecordBuffer returns a buffer from the package-global pool.
func GetRecordBuffer(size int) []byte { return globalRecordPool.Get(size) }

// PutRecordBuffer returns a buffer to the package-global pool.
func PutRecordBuffer(buf []byte) { globalRecordPool.Put(buf) }
