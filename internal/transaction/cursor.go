package transaction

import (
	"encoding/binary"

	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/codecerr"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/varint"
)

// reader walks a byte slice. Every read either advances off by the bytes it
// consumed or fails with a FormatError and leaves off unchanged.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) need(n int, what string) error {
	if n < 0 || r.remaining() < n {
		return codecerr.Formatf("%s at offset %d: need %d bytes, have %d", what, r.off, n, r.remaining())
	}
	return nil
}

// peek reports whether the next bytes equal b without consuming them.
func (r *reader) peek(b ...byte) bool {
	if r.remaining() < len(b) {
		return false
	}
	for i, v := range b {
		if r.buf[r.off+i] != v {
			return false
		}
	}
	return true
}

func (r *reader) skip(n int) {
	r.off += n
}

// bytes returns a copy of the next n bytes.
func (r *reader) bytes(n int, what string) ([]byte, error) {
	if err := r.need(n, what); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[r.off:])
	r.off += n
	return out, nil
}

// into fills dst from the next len(dst) bytes.
func (r *reader) into(dst []byte, what string) error {
	if err := r.need(len(dst), what); err != nil {
		return err
	}
	r.off += copy(dst, r.buf[r.off:])
	return nil
}

func (r *reader) uint8(what string) (byte, error) {
	if err := r.need(1, what); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *reader) uint32(what string) (uint32, error) {
	if err := r.need(4, what); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) int32(what string) (int32, error) {
	v, err := r.uint32(what)
	return int32(v), err
}

func (r *reader) uint64(what string) (uint64, error) {
	v, err := varint.Uint64(r.buf, r.off)
	if err != nil {
		return 0, codecerr.Format(what, err)
	}
	r.off += 8
	return v, nil
}

func (r *reader) varInt(what string) (uint64, error) {
	v, n, err := varint.Decode(r.buf, r.off)
	if err != nil {
		return 0, codecerr.Format(what, err)
	}
	r.off += n
	return v, nil
}

// count reads a compact-size element count and rejects counts that cannot
// fit in the remaining bytes at minSize bytes per element.
func (r *reader) count(what string, minSize int) (int, error) {
	n, err := r.varInt(what)
	if err != nil {
		return 0, err
	}
	if n > uint64(r.remaining()/minSize) {
		return 0, codecerr.Formatf("%s %d exceeds remaining %d bytes", what, n, r.remaining())
	}
	return int(n), nil
}

func (r *reader) varSlice(what string) ([]byte, error) {
	n, err := r.count(what+" length", 1)
	if err != nil {
		return nil, err
	}
	return r.bytes(n, what)
}

func (r *reader) vector(what string) ([][]byte, error) {
	n, err := r.count(what+" count", 1)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, n)
	for i := range out {
		if out[i], err = r.varSlice(what); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// writer fills a pre-sized buffer. The first failure sticks and later
// writes are no-ops.
type writer struct {
	buf []byte
	off int
	err error
}

func (w *writer) ok(n int) bool {
	if w.err != nil {
		return false
	}
	if len(w.buf)-w.off < n {
		w.err = codecerr.Contractf("write at offset %d: need %d bytes, have %d", w.off, n, len(w.buf)-w.off)
		return false
	}
	return true
}

func (w *writer) bytes(b []byte) {
	if w.ok(len(b)) {
		w.off += copy(w.buf[w.off:], b)
	}
}

func (w *writer) uint8(v byte) {
	if w.ok(1) {
		w.buf[w.off] = v
		w.off++
	}
}

func (w *writer) uint32(v uint32) {
	if w.ok(4) {
		binary.LittleEndian.PutUint32(w.buf[w.off:], v)
		w.off += 4
	}
}

func (w *writer) int32(v int32) {
	w.uint32(uint32(v))
}

func (w *writer) uint64(v uint64) {
	if w.ok(8) {
		w.err = varint.PutUint64(w.buf[w.off:], v)
		w.off += 8
	}
}

func (w *writer) varInt(v uint64) {
	if w.err != nil {
		return
	}
	n, err := varint.Put(w.buf[w.off:], v)
	if err != nil {
		w.err = err
		return
	}
	w.off += n
}

func (w *writer) varSlice(b []byte) {
	w.varInt(uint64(len(b)))
	w.bytes(b)
}

func (w *writer) vector(v [][]byte) {
	w.varInt(uint64(len(v)))
	for _, b := range v {
		w.varSlice(b)
	}
}

func varSliceSize(b []byte) int {
	return varint.EncodingLength(uint64(len(b))) + len(b)
}

func vectorSize(v [][]byte) int {
	size := varint.EncodingLength(uint64(len(v)))
	for _, b := range v {
		size += varSliceSize(b)
	}
	return size
}
