// Package rrdata reads and writes resource record payloads.
//
// All reads go through a Reader, a cursor over a byte range whose read
// position persists across calls. Every read fails with
// domain.ErrMalformedRecord when the range runs out before the read
// completes; such failures also match ErrExhausted so callers can tell a
// short buffer apart from an invalid field.
package rrdata

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/haukened/rr-doh/internal/dns/domain"
)

// ErrExhausted marks a read that ran past the end of its byte range.
var ErrExhausted = errors.New("byte range exhausted")

// Reader is a cursor over a byte range.
type Reader struct {
	buf []byte
	pos int
	// msg is the enclosing message when compression pointers may be
	// followed; nil for standalone record payloads.
	msg []byte
}

// NewReader returns a standalone cursor over b. Domain names read through
// it must be fully spelled out; compression pointers are rejected.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// NewMessageReader returns a cursor over a complete DNS message. Domain names
// read through it, or through any Sub reader derived from it, may use
// compression pointers into the message.
func NewMessageReader(msg []byte) *Reader {
	return &Reader{buf: msg, msg: msg}
}

// Offset returns the read position within the reader's range.
func (r *Reader) Offset() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) need(what string, n int) error {
	if r.Remaining() < n {
		return exhausted(what, n, r.Remaining())
	}
	return nil
}

func exhausted(what string, need, have int) error {
	return fmt.Errorf("%w: %s needs %d bytes, %d remain: %w", domain.ErrMalformedRecord, what, need, have, ErrExhausted)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrMalformedRecord}, args...)...)
}

// ReadUint8 consumes one byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need("uint8", 1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// ReadUint16 consumes a big-endian 16-bit value.
func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need("uint16", 2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadUint32 consumes a big-endian 32-bit value.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need("uint32", 4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadBytes consumes n bytes and returns a copy of them.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need("byte string", n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+n])
	r.pos += n
	return b, nil
}

// Sub consumes the next n bytes and returns a reader limited to them.
// The sub reader keeps the message context of its parent.
func (r *Reader) Sub(n int) (*Reader, error) {
	if err := r.need("record data", n); err != nil {
		return nil, err
	}
	sub := &Reader{buf: r.buf[r.pos : r.pos+n], msg: r.msg}
	r.pos += n
	return sub, nil
}

// Bytes returns a copy of the whole range, independent of the read position.
func (r *Reader) Bytes() []byte {
	b := make([]byte, len(r.buf))
	copy(b, r.buf)
	return b
}
