// Package store implements the object store and binary persistence
// layer (spec §4.5): little-endian scalar/string/sequence encoding, a
// form envelope, the save-file header, and a two-phase id resolver.
package store

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"time"

	"github.com/timefuzz-go/timefuzz/internal/fuzzerr"
)

// Buffer is a grow-on-write byte buffer used to encode a form body
// before it is framed into the save file. Buffers are pooled per
// goroutine rather than kept per-thread (unlike the derivation-node
// slabs in internal/dtree, a Buffer's contents don't outlive the call
// that filled it, so a sync.Pool is the idiomatic replacement for
// original_source's per-thread MemoryStream).
type Buffer struct {
	buf []byte
}

var bufferPool = sync.Pool{New: func() any { return &Buffer{buf: make([]byte, 0, 256)} }}

// GetBuffer draws a Buffer from the shared pool; the caller must call
// PutBuffer when done.
func GetBuffer() *Buffer {
	b := bufferPool.Get().(*Buffer)
	b.buf = b.buf[:0]
	return b
}

// PutBuffer returns b to the shared pool.
func PutBuffer(b *Buffer) {
	bufferPool.Put(b)
}

func (b *Buffer) Bytes() []byte { return b.buf }

func (b *Buffer) WriteU8(v uint8)   { b.buf = append(b.buf, v) }
func (b *Buffer) WriteBool(v bool)  { if v { b.WriteU8(1) } else { b.WriteU8(0) } }

func (b *Buffer) WriteU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

func (b *Buffer) WriteI32(v int32) { b.WriteU32(uint32(v)) }

func (b *Buffer) WriteU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

func (b *Buffer) WriteI64(v int64) { b.WriteU64(uint64(v)) }

func (b *Buffer) WriteF32(v float32) { b.WriteU32(math.Float32bits(v)) }
func (b *Buffer) WriteF64(v float64) { b.WriteU64(math.Float64bits(v)) }

func (b *Buffer) WriteDuration(v time.Duration) { b.WriteI64(int64(v)) }

func (b *Buffer) WriteString(s string) {
	b.WriteU64(uint64(len(s)))
	b.buf = append(b.buf, s...)
}

func (b *Buffer) WriteI64Seq(vs []int64) {
	b.WriteU64(uint64(len(vs)))
	for _, v := range vs {
		b.WriteI64(v)
	}
}

func (b *Buffer) WriteStringSeq(vs []string) {
	total := 0
	for _, s := range vs {
		total += 8 + len(s)
	}
	b.WriteU64(uint64(total))
	b.WriteU64(uint64(len(vs)))
	for _, s := range vs {
		b.WriteString(s)
	}
}

func (b *Buffer) WriteBytes(p []byte) {
	b.WriteU64(uint64(len(p)))
	b.buf = append(b.buf, p...)
}

// Stream is a cursor-based reader over a decoded form body.
type Stream struct {
	buf []byte
	pos int
	err error
}

var streamPool = sync.Pool{New: func() any { return &Stream{} }}

func GetStream(data []byte) *Stream {
	s := streamPool.Get().(*Stream)
	s.buf, s.pos, s.err = data, 0, nil
	return s
}

func PutStream(s *Stream) {
	streamPool.Put(s)
}

func (s *Stream) Err() error { return s.err }

func (s *Stream) take(n int) []byte {
	if s.err != nil || s.pos+n > len(s.buf) {
		if s.err == nil {
			s.err = fuzzerr.New(fuzzerr.KindDecode, io.ErrUnexpectedEOF)
		}
		return nil
	}
	b := s.buf[s.pos : s.pos+n]
	s.pos += n
	return b
}

func (s *Stream) ReadU8() uint8 {
	b := s.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (s *Stream) ReadBool() bool { return s.ReadU8() != 0 }

func (s *Stream) ReadU32() uint32 {
	b := s.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (s *Stream) ReadI32() int32 { return int32(s.ReadU32()) }

func (s *Stream) ReadU64() uint64 {
	b := s.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (s *Stream) ReadI64() int64 { return int64(s.ReadU64()) }

func (s *Stream) ReadF32() float32 { return math.Float32frombits(s.ReadU32()) }
func (s *Stream) ReadF64() float64 { return math.Float64frombits(s.ReadU64()) }

func (s *Stream) ReadDuration() time.Duration { return time.Duration(s.ReadI64()) }

func (s *Stream) ReadString() string {
	n := s.ReadU64()
	b := s.take(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

func (s *Stream) ReadI64Seq() []int64 {
	n := s.ReadU64()
	out := make([]int64, 0, n)
	for i := uint64(0); i < n && s.err == nil; i++ {
		out = append(out, s.ReadI64())
	}
	return out
}

func (s *Stream) ReadStringSeq() []string {
	_ = s.ReadU64() // total byte size, used by skip-forward readers; not needed here
	n := s.ReadU64()
	out := make([]string, 0, n)
	for i := uint64(0); i < n && s.err == nil; i++ {
		out = append(out, s.ReadString())
	}
	return out
}

func (s *Stream) ReadBytes() []byte {
	n := s.ReadU64()
	b := s.take(int(n))
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
