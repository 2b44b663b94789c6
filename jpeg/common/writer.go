package common

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Writer provides utilities for writing JPEG marker segments
type Writer struct {
	w   *bufio.Writer
	buf [2]byte
}

// NewWriter creates a new JPEG writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteUint16 writes a 16-bit big-endian value
func (w *Writer) WriteUint16(v uint16) error {
	binary.BigEndian.PutUint16(w.buf[:2], v)
	_, err := w.w.Write(w.buf[:2])
	return err
}

// WriteMarker writes a JPEG marker
func (w *Writer) WriteMarker(marker uint16) error {
	return w.WriteUint16(marker)
}

// WriteSegment writes a segment with length
// The length field is automatically calculated and includes itself (2 bytes)
func (w *Writer) WriteSegment(marker uint16, data []byte) error {
	if len(data)+2 > 0xFFFF {
		return FormatErrorf("%s segment too large", MarkerName(marker))
	}
	if err := w.WriteMarker(marker); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(len(data) + 2)); err != nil {
		return err
	}
	return w.WriteBytes(data)
}

// WriteBytes writes raw bytes
func (w *Writer) WriteBytes(data []byte) error {
	_, err := w.w.Write(data)
	return err
}

// WriteDQT writes an 8-bit quantization table given in natural order.
// The table is emitted in zigzag order as required by the DQT segment.
func (w *Writer) WriteDQT(id int, table *[64]int32) error {
	data := make([]byte, 65)
	data[0] = byte(id & 0x0F)
	for k := 0; k < BlockSize; k++ {
		data[1+k] = byte(Clamp(table[ZigZag[k]], 1, 255))
	}
	return w.WriteSegment(MarkerDQT, data)
}

// WriteDHT writes one Huffman table. class is 0 for DC and 1 for AC.
func (w *Writer) WriteDHT(class, id int, table *HuffmanTable) error {
	data := make([]byte, 0, 17+len(table.Values))
	data = append(data, byte(class<<4|id&0x0F))
	for _, n := range table.Bits {
		data = append(data, byte(n))
	}
	data = append(data, table.Values...)
	return w.WriteSegment(MarkerDHT, data)
}

// BitWriter returns an entropy-coded data writer sharing this writer's buffer.
func (w *Writer) BitWriter() *BitWriter {
	return NewBitWriter(w.w)
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
