package scan

import (
	"github.com/cocosip/go-jpeg-codec/jpeg/common"
	"github.com/cocosip/go-jpeg-codec/jpeg/frame"
)

// Coefficient magnitude limits for 8-bit baseline: AC sizes reach 10, DC differences 11.
const (
	maxACMagnitude = 1<<10 - 1
	maxDCMagnitude = 1<<11 - 1
)

// ComponentTables are the encoding tables of one component.
type ComponentTables struct {
	// Quant is the quantization table in natural order.
	Quant *[64]int32
	DC    *common.HuffmanTable
	AC    *common.HuffmanTable
}

// Encoder writes the entropy-coded segment of a single baseline scan.
type Encoder struct {
	hdr    *frame.Header
	tables []ComponentTables
	bw     *common.BitWriter
	preds  []int32
	block  common.Block
}

// NewEncoder creates an encoder for hdr writing to bw. tables holds one entry per component.
func NewEncoder(bw *common.BitWriter, hdr *frame.Header, tables []ComponentTables) (*Encoder, error) {
	if len(tables) != len(hdr.Components) {
		return nil, common.ErrInvalidComponents
	}
	for _, t := range tables {
		if t.Quant == nil || t.DC == nil || t.AC == nil {
			return nil, common.FormatErrorf("missing encoding table")
		}
	}
	return &Encoder{
		hdr:    hdr,
		tables: tables,
		bw:     bw,
		preds:  make([]int32, len(hdr.Components)),
	}, nil
}

// EncodeFrame encodes all planes as one scan and flushes the final byte.
// Each plane must match its component's dimensions.
func (e *Encoder) EncodeFrame(planes []common.SampleBuffer) error {
	h := e.hdr
	if len(planes) != len(h.Components) {
		return common.ErrInvalidComponents
	}
	for i, p := range planes {
		c := &h.Components[i]
		if err := common.CheckSampleBuffer(p, c.Width, c.Height); err != nil {
			return common.FormatErrorf("plane %d: %v", i, err)
		}
	}
	for i := range e.preds {
		e.preds[i] = 0
	}

	if len(h.Components) == 1 {
		c := &h.Components[0]
		cols, rows := c.ScanBlocks()
		for by := 0; by < rows; by++ {
			for bx := 0; bx < cols; bx++ {
				if err := e.encodeAt(0, planes[0], bx, by); err != nil {
					return err
				}
			}
		}
		return e.bw.Flush()
	}

	for my := 0; my < h.MCUsPerColumn; my++ {
		for mx := 0; mx < h.MCUsPerLine; mx++ {
			for ci := range h.Components {
				c := &h.Components[ci]
				for v := 0; v < c.V; v++ {
					for u := 0; u < c.H; u++ {
						if err := e.encodeAt(ci, planes[ci], mx*c.H+u, my*c.V+v); err != nil {
							return err
						}
					}
				}
			}
		}
	}
	return e.bw.Flush()
}

func (e *Encoder) encodeAt(ci int, p common.SampleBuffer, bx, by int) error {
	extractBlock(&e.block, p, bx*8, by*8)
	t := &e.tables[ci]
	return EncodeBlock(e.bw, &e.block, t.Quant, t.DC, t.AC, &e.preds[ci])
}

// extractBlock copies the 8x8 samples at (x0, y0), padding out-of-bounds samples with 128.
func extractBlock(blk *common.Block, p common.SampleBuffer, x0, y0 int) {
	w, h := p.Dims()
	pix, stride := p.Bytes(), p.RowStride()
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := int32(128)
			if x0+x < w && y0+y < h {
				v = int32(pix[(y0+y)*stride+x0+x])
			}
			blk[y*8+x] = v
		}
	}
}

// EncodeBlock transforms, quantizes and entropy codes one block of samples.
// blk is overwritten. pred is the component's running DC predictor.
func EncodeBlock(bw *common.BitWriter, blk *common.Block, q *[64]int32, dc, ac *common.HuffmanTable, pred *int32) error {
	common.FDCT(blk)

	var zz [64]int32
	for k := 0; k < common.BlockSize; k++ {
		u := common.ZigZag[k]
		zz[k] = quantize(blk[u], q[u])
	}

	// DC difference
	diff := common.Clamp(zz[0]-*pred, -maxDCMagnitude, maxDCMagnitude)
	*pred += diff
	cat, bits := common.Category(diff)
	if err := dc.Encode(bw, byte(cat)); err != nil {
		return err
	}
	if err := bw.WriteBits(bits, cat); err != nil {
		return err
	}

	// AC run-length coding
	run := 0
	for k := 1; k < common.BlockSize; k++ {
		v := common.Clamp(zz[k], -maxACMagnitude, maxACMagnitude)
		if v == 0 {
			run++
			continue
		}
		for run > 15 {
			if err := ac.Encode(bw, 0xF0); err != nil {
				return err
			}
			run -= 16
		}
		cat, bits := common.Category(v)
		if err := ac.Encode(bw, byte(run<<4|cat)); err != nil {
			return err
		}
		if err := bw.WriteBits(bits, cat); err != nil {
			return err
		}
		run = 0
	}
	if run > 0 {
		return ac.Encode(bw, 0x00)
	}
	return nil
}

// quantize divides coef by q, rounding half away from zero.
func quantize(coef, q int32) int32 {
	if coef < 0 {
		return -((-coef + q/2) / q)
	}
	return (coef + q/2) / q
}
