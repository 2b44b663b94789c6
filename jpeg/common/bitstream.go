package common

import (
	"bufio"
	"errors"
	"io"
)

// BitReader reads MSB-first bits from entropy-coded segment data.
//
// Stuffed 0xFF00 pairs yield a literal 0xFF. Any other 0xFFxx pair is a marker:
// the reader leaves it unread in the underlying stream, reports EndOfScan and
// pads further reads with 1-bits so an in-flight Huffman code can complete.
// End of input is treated the same way. Any other read error also ends the
// scan and is kept for Err.
type BitReader struct {
	r      *bufio.Reader
	acc    uint32 // Bit accumulator, valid bits are the low n bits
	n      int    // Number of valid bits in acc
	pad    int    // Number of trailing padding bits in acc
	marker byte   // Marker byte that ended the scan, 0 if none seen
	eof    bool   // Underlying reader is exhausted
	padded bool   // At least one padding bit has been consumed
	err    error  // First read error other than io.EOF
}

// NewBitReader creates a bit reader over r.
func NewBitReader(r *bufio.Reader) *BitReader {
	return &BitReader{r: r}
}

// Reset clears the bit buffer and end-of-scan state for a new scan.
func (b *BitReader) Reset() {
	b.acc, b.n, b.pad = 0, 0, 0
	b.marker = 0
	b.eof = false
	b.padded = false
	b.err = nil
}

// Err returns the first read error other than io.EOF met by the reader.
func (b *BitReader) Err() error {
	return b.err
}

// EndOfScan reports whether the reader has reached a marker or the end of input.
func (b *BitReader) EndOfScan() bool {
	return b.marker != 0 || b.eof
}

// Marker returns the marker byte that terminated the scan, or 0.
func (b *BitReader) Marker() byte {
	return b.marker
}

// Exhausted reports whether every real bit has been consumed and only padding remains.
func (b *BitReader) Exhausted() bool {
	return b.EndOfScan() && b.n <= b.pad
}

// PastEnd reports whether a padding bit has been handed out to a caller.
func (b *BitReader) PastEnd() bool {
	return b.padded
}

// fill appends one byte (8 bits) to the accumulator.
func (b *BitReader) fill() {
	if b.EndOfScan() {
		b.appendPad()
		return
	}

	bs, err := b.r.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		b.err = err
		b.eof = true
		b.appendPad()
		return
	}
	if len(bs) == 0 {
		if err != nil {
			b.eof = true
		}
		b.appendPad()
		return
	}

	if bs[0] != 0xFF {
		_, _ = b.r.Discard(1)
		b.appendByte(bs[0])
		return
	}

	if len(bs) < 2 {
		// A lone 0xFF at end of input cannot start a marker.
		_, _ = b.r.Discard(1)
		b.eof = true
		b.appendPad()
		return
	}

	if bs[1] == 0x00 {
		_, _ = b.r.Discard(2)
		b.appendByte(0xFF)
		return
	}

	b.marker = bs[1]
	b.appendPad()
}

func (b *BitReader) appendByte(v byte) {
	b.acc = b.acc<<8 | uint32(v)
	b.n += 8
}

func (b *BitReader) appendPad() {
	b.acc = b.acc<<8 | 0xFF
	b.n += 8
	b.pad += 8
}

func (b *BitReader) take(n int) uint32 {
	b.n -= n
	v := (b.acc >> uint(b.n)) & (1<<uint(n) - 1)
	b.acc &= 1<<uint(b.n) - 1
	if b.pad > b.n {
		b.padded = true
		b.pad = b.n
	}
	return v
}

// ReadBit reads a single bit.
func (b *BitReader) ReadBit() (uint32, error) {
	if b.n == 0 {
		b.fill()
	}
	return b.take(1), nil
}

// ReadBits reads n bits (0 <= n <= 16), MSB first.
func (b *BitReader) ReadBits(n int) (uint32, error) {
	if n < 0 || n > 16 {
		return 0, ErrBitCount
	}
	if n == 0 {
		return 0, nil
	}
	for b.n < n {
		b.fill()
	}
	return b.take(n), nil
}

// ReceiveExtend reads an s-bit magnitude and sign-extends it (RECEIVE + EXTEND).
func (b *BitReader) ReceiveExtend(s int) (int32, error) {
	if s == 0 {
		return 0, nil
	}
	if s > 16 {
		return 0, FormatErrorf("coefficient size %d out of range", s)
	}
	v, err := b.ReadBits(s)
	if err != nil {
		return 0, err
	}
	return Extend(v, s), nil
}

// Extend converts an s-bit magnitude category value to a signed coefficient.
func Extend(v uint32, s int) int32 {
	x := int32(v)
	if x < 1<<uint(s-1) {
		x += (-1 << uint(s)) + 1
	}
	return x
}

// SkipToMarker discards the remaining entropy-coded bytes so the next byte in the
// stream is the 0xFF of a marker (or the stream is exhausted).
func (b *BitReader) SkipToMarker() {
	b.acc, b.n, b.pad = 0, 0, 0
	for {
		bs, _ := b.r.Peek(2)
		switch {
		case len(bs) == 0:
			return
		case bs[0] != 0xFF:
			_, _ = b.r.Discard(1)
		case len(bs) == 1:
			_, _ = b.r.Discard(1)
			return
		case bs[1] == 0x00:
			_, _ = b.r.Discard(2)
		default:
			return
		}
	}
}

// BitWriter writes MSB-first bits with JPEG byte stuffing.
type BitWriter struct {
	w     io.Writer
	bits  uint32 // Bit buffer
	nBits int    // Number of bits in buffer
	buf   [2]byte
}

// NewBitWriter creates a new bit writer.
func NewBitWriter(w io.Writer) *BitWriter {
	return &BitWriter{w: w}
}

// WriteBits writes the low n bits of bits (0 <= n <= 16).
func (e *BitWriter) WriteBits(bits uint32, n int) error {
	if n < 0 || n > 16 {
		return ErrBitCount
	}
	if n == 0 {
		return nil
	}

	e.bits = (e.bits << uint(n)) | (bits & ((1 << uint(n)) - 1))
	e.nBits += n

	for e.nBits >= 8 {
		b := byte(e.bits >> uint(e.nBits-8))
		if err := e.writeByte(b); err != nil {
			return err
		}
		e.nBits -= 8
	}
	e.bits &= (1 << uint(e.nBits)) - 1

	return nil
}

// writeByte writes a byte, stuffing a 0x00 after every 0xFF.
func (e *BitWriter) writeByte(b byte) error {
	e.buf[0] = b
	p := e.buf[:1]
	if b == 0xFF {
		e.buf[1] = 0x00
		p = e.buf[:2]
	}
	_, err := e.w.Write(p)
	return err
}

// Flush pads the final partial byte with 1-bits and writes it.
func (e *BitWriter) Flush() error {
	if e.nBits > 0 {
		b := byte((e.bits << uint(8-e.nBits)) | ((1 << uint(8-e.nBits)) - 1))
		if err := e.writeByte(b); err != nil {
			return err
		}
		e.nBits = 0
		e.bits = 0
	}
	return nil
}
