// Package frame holds the per-image decoding state of a DCT JPEG stream:
// the frame header, the quantization and Huffman table slots, the current
// scan parameters and, for progressive frames, the coefficient planes.
package frame

import (
	"github.com/cocosip/go-jpeg-codec/jpeg/common"
)

// MaxPixels bounds width*height of a frame to keep allocations finite on hostile input.
const MaxPixels = 1 << 28

// maxBlocksPerMCU is the ITU T.81 limit on data units in one interleaved MCU.
const maxBlocksPerMCU = 10

// Component represents a color component in the frame
type Component struct {
	ID byte // Component identifier
	H  int  // Horizontal sampling factor
	V  int  // Vertical sampling factor
	Tq int  // Quantization table selector
	Td int  // DC Huffman table selector, set by the current scan
	Ta int  // AC Huffman table selector, set by the current scan

	// DCPred is the DC predictor, reset at every SOS.
	DCPred int32

	// Blocks covering the padded MCU grid.
	BlocksPerLine   int
	BlocksPerColumn int

	// Component dimensions in samples.
	Width  int
	Height int
}

// ScanBlocks returns the block grid visited by a non-interleaved scan of the
// component: only blocks that intersect the component's own dimensions.
func (c *Component) ScanBlocks() (cols, rows int) {
	return common.DivCeil(c.Width, 8), common.DivCeil(c.Height, 8)
}

// Header is the parsed frame header (SOF0 or SOF2).
type Header struct {
	Width       int
	Height      int
	Precision   int
	Progressive bool
	Components  []Component

	MaxH int
	MaxV int

	MCUsPerLine   int
	MCUsPerColumn int
}

// NewHeader validates the frame parameters and derives the MCU geometry.
// Only H, V, Tq and ID of each component are read.
func NewHeader(width, height int, progressive bool, comps []Component) (*Header, error) {
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return nil, common.ErrInvalidDimensions
	}
	if width*height > MaxPixels {
		return nil, common.FormatErrorf("image %dx%d exceeds %d pixels", width, height, MaxPixels)
	}
	switch len(comps) {
	case 1, 3, 4:
	default:
		return nil, common.ErrInvalidComponents
	}

	h := &Header{
		Width:       width,
		Height:      height,
		Precision:   8,
		Progressive: progressive,
		Components:  make([]Component, len(comps)),
		MaxH:        1,
		MaxV:        1,
	}

	blocksPerMCU := 0
	for i, c := range comps {
		if c.H < 1 || c.H > 4 || c.V < 1 || c.V > 4 {
			return nil, common.ErrInvalidSampling
		}
		if c.Tq < 0 || c.Tq > 3 {
			return nil, common.FormatErrorf("component %d: bad quantization table index %d", c.ID, c.Tq)
		}
		for j := 0; j < i; j++ {
			if comps[j].ID == c.ID {
				return nil, common.FormatErrorf("duplicate component identifier %d", c.ID)
			}
		}
		h.MaxH = max(h.MaxH, c.H)
		h.MaxV = max(h.MaxV, c.V)
		blocksPerMCU += c.H * c.V
		h.Components[i] = Component{ID: c.ID, H: c.H, V: c.V, Tq: c.Tq}
	}
	if len(comps) > 1 && blocksPerMCU > maxBlocksPerMCU {
		return nil, common.ErrInvalidSampling
	}

	h.MCUsPerLine = common.DivCeil(width, 8*h.MaxH)
	h.MCUsPerColumn = common.DivCeil(height, 8*h.MaxV)

	for i := range h.Components {
		c := &h.Components[i]
		c.Width = common.DivCeil(width*c.H, h.MaxH)
		c.Height = common.DivCeil(height*c.V, h.MaxV)
		c.BlocksPerLine = h.MCUsPerLine * c.H
		c.BlocksPerColumn = h.MCUsPerColumn * c.V
	}

	return h, nil
}

// ParseSOF parses a Start of Frame payload. marker selects baseline (SOF0) or
// progressive (SOF2); every other SOFn is unsupported.
func ParseSOF(marker uint16, data []byte) (*Header, error) {
	var progressive bool
	switch marker {
	case common.MarkerSOF0:
	case common.MarkerSOF2:
		progressive = true
	default:
		return nil, common.FormatErrorf("unsupported frame type %s", common.MarkerName(marker))
	}

	if len(data) < 6 {
		return nil, common.ErrInvalidSOF
	}

	precision := int(data[0])
	if precision != 8 {
		return nil, common.ErrInvalidPrecision
	}

	height := int(data[1])<<8 | int(data[2])
	width := int(data[3])<<8 | int(data[4])
	numComponents := int(data[5])

	if height == 0 {
		// DNL-defined heights are not supported.
		return nil, common.ErrInvalidDimensions
	}
	if len(data) != 6+numComponents*3 {
		return nil, common.ErrInvalidSOF
	}

	comps := make([]Component, numComponents)
	for i := range comps {
		offset := 6 + i*3
		comps[i] = Component{
			ID: data[offset],
			H:  int(data[offset+1] >> 4),
			V:  int(data[offset+1] & 0x0F),
			Tq: int(data[offset+2]),
		}
	}

	return NewHeader(width, height, progressive, comps)
}

// SOFPayload returns the SOF segment body describing h.
func (h *Header) SOFPayload() []byte {
	data := make([]byte, 6+3*len(h.Components))
	data[0] = byte(h.Precision)
	data[1] = byte(h.Height >> 8)
	data[2] = byte(h.Height)
	data[3] = byte(h.Width >> 8)
	data[4] = byte(h.Width)
	data[5] = byte(len(h.Components))
	for i, c := range h.Components {
		offset := 6 + i*3
		data[offset] = c.ID
		data[offset+1] = byte(c.H<<4 | c.V)
		data[offset+2] = byte(c.Tq)
	}
	return data
}

// SOFMarker returns the marker that introduces h.
func (h *Header) SOFMarker() uint16 {
	if h.Progressive {
		return common.MarkerSOF2
	}
	return common.MarkerSOF0
}

// ComponentIndex returns the index of the component with identifier id, or -1.
func (h *Header) ComponentIndex(id byte) int {
	for i := range h.Components {
		if h.Components[i].ID == id {
			return i
		}
	}
	return -1
}
