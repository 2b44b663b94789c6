package common

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// Reader provides utilities for reading JPEG marker segments
type Reader struct {
	r   *bufio.Reader
	buf [2]byte
	br  *BitReader
}

// NewReader creates a new JPEG reader. r is wrapped in a bufio.Reader unless it already is one.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br}
}

// ReadUint16 reads a 16-bit big-endian value
func (r *Reader) ReadUint16() (uint16, error) {
	if _, err := io.ReadFull(r.r, r.buf[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.buf[:2]), nil
}

// ReadSOI consumes the first two bytes of the stream, which must be 0xFF 0xD8.
func (r *Reader) ReadSOI() error {
	v, err := r.ReadUint16()
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	if err != nil || v != MarkerSOI {
		return ErrInvalidSOI
	}
	return nil
}

// Next reads the next marker and, for markers that carry one, its length field.
// 0xFF fill bytes are skipped. End of input where a marker is expected yields MarkerEOF.
func (r *Reader) Next() (MarkerResult, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return endOfInput(err)
	}
	if b != 0xFF {
		return MarkerResult{}, FormatErrorf("expected marker, found byte 0x%02X", b)
	}

	// Skip any padding 0xFF bytes
	for b == 0xFF {
		b, err = r.r.ReadByte()
		if err != nil {
			return endOfInput(err)
		}
	}

	// 0x00 is a stuffed byte and only valid inside entropy-coded data
	if b == 0x00 {
		return MarkerResult{}, ErrInvalidMarker
	}

	marker := uint16(0xFF00) | uint16(b)
	res := MarkerResult{Kind: MarkerUnknown, Marker: marker, Length: -1}
	if IsKnownMarker(marker) {
		res.Kind = MarkerKnown
	}

	if HasLength(marker) {
		length, err := r.ReadUint16()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return MarkerResult{}, ErrUnexpectedEOF
			}
			return MarkerResult{}, err
		}
		// Length includes itself (2 bytes)
		if length < 2 {
			return MarkerResult{}, FormatErrorf("%s segment length %d too short", MarkerName(marker), length)
		}
		res.Length = int(length) - 2
	}

	return res, nil
}

// endOfInput maps the end of input where a marker is expected to MarkerEOF and
// passes any other read error through.
func endOfInput(err error) (MarkerResult, error) {
	if errors.Is(err, io.EOF) {
		return MarkerResult{Kind: MarkerEOF, Length: -1}, nil
	}
	return MarkerResult{}, err
}

// ReadPayload reads the n-byte body of the current segment.
func (r *Reader) ReadPayload(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r.r, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrUnexpectedEOF
		}
		return nil, err
	}
	return data, nil
}

// Skip skips n bytes
func (r *Reader) Skip(n int) error {
	if n <= 0 {
		return nil
	}
	if _, err := r.r.Discard(n); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// BitReader returns the entropy-coded data reader sharing this reader's buffer,
// reset for a new scan.
func (r *Reader) BitReader() *BitReader {
	if r.br == nil {
		r.br = NewBitReader(r.r)
	}
	r.br.Reset()
	return r.br
}
