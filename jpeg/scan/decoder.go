// Package scan implements the MCU pipeline of DCT JPEG: entropy decoding of
// baseline and progressive scans, block reconstruction into sample planes and
// baseline entropy encoding.
package scan

import (
	"errors"

	"github.com/cocosip/go-jpeg-codec/jpeg/common"
	"github.com/cocosip/go-jpeg-codec/jpeg/frame"
)

// maxACIterations caps the AC symbol loop of one block.
const maxACIterations = 128

// errEndOfData stops a scan whose entropy-coded data ran out early.
var errEndOfData = errors.New("end of entropy-coded data")

// Decoder is one decode session's MCU pipeline. It owns all per-scan mutable
// state, so independent Decoders may run concurrently.
type Decoder struct {
	state  *frame.State
	br     *common.BitReader
	planes []*common.Plane

	// eobRun counts the remaining blocks of a progressive end-of-band run.
	// It persists across the blocks of one scan and is reset at each SOS.
	eobRun int32

	block common.Block
	tile  [64]byte
}

// NewDecoder creates a pipeline over st. The frame header must already be set.
func NewDecoder(st *frame.State) *Decoder {
	return &Decoder{
		state:  st,
		planes: make([]*common.Plane, len(st.Header.Components)),
	}
}

// Planes returns the per-component sample planes. A component no scan has
// written yet comes back zeroed.
func (d *Decoder) Planes() []*common.Plane {
	for ci := range d.planes {
		d.plane(ci)
	}
	return d.planes
}

// plane returns the sample plane of component ci, allocating it on first use.
func (d *Decoder) plane(ci int) *common.Plane {
	if d.planes[ci] == nil {
		c := &d.state.Header.Components[ci]
		d.planes[ci] = common.NewPlane(c.Width, c.Height)
	}
	return d.planes[ci]
}

// DecodeScan decodes the entropy-coded segment of scan from br. Running out of
// data before the last MCU stops the scan without error; the bit reader pads
// with 1-bits so the block in flight completes.
func (d *Decoder) DecodeScan(br *common.BitReader, scan *frame.Scan) error {
	d.br = br
	d.eobRun = 0

	var decode func(ci int, c *frame.Component, bx, by int) error
	switch {
	case !d.state.Header.Progressive:
		decode = d.decodeBaseline
	case scan.IsDC() && !scan.IsRefinement():
		decode = func(ci int, c *frame.Component, bx, by int) error {
			return d.decodeDCFirst(d.coefBlock(ci, bx, by), c, scan.Al)
		}
	case scan.IsDC():
		decode = func(ci int, c *frame.Component, bx, by int) error {
			return d.refineDC(d.coefBlock(ci, bx, by), scan.Al)
		}
	case !scan.IsRefinement():
		decode = func(ci int, c *frame.Component, bx, by int) error {
			return d.decodeACFirst(d.coefBlock(ci, bx, by), d.state.AC[c.Ta], scan)
		}
	default:
		decode = func(ci int, c *frame.Component, bx, by int) error {
			return d.refineAC(d.coefBlock(ci, bx, by), d.state.AC[c.Ta], scan)
		}
	}

	err := d.forEachBlock(scan, decode)
	if ioErr := d.br.Err(); ioErr != nil {
		return ioErr
	}
	if err == errEndOfData {
		return nil
	}
	if err != nil && d.br.PastEnd() && !errors.Is(err, common.ErrTooManyACCodes) {
		// Truncated data: the failure came from decoding padding bits.
		return nil
	}
	return err
}

// forEachBlock visits the blocks of scan in coding order. Interleaved scans
// walk the MCU grid; a single-component scan walks only the blocks that
// intersect that component.
func (d *Decoder) forEachBlock(scan *frame.Scan, fn func(ci int, c *frame.Component, bx, by int) error) error {
	h := d.state.Header

	if !scan.Interleaved() {
		ci := scan.Components[0]
		c := &h.Components[ci]
		cols, rows := c.ScanBlocks()
		for by := 0; by < rows; by++ {
			for bx := 0; bx < cols; bx++ {
				if d.br.Exhausted() && d.eobRun == 0 {
					return errEndOfData
				}
				if err := fn(ci, c, bx, by); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for my := 0; my < h.MCUsPerColumn; my++ {
		for mx := 0; mx < h.MCUsPerLine; mx++ {
			if d.br.Exhausted() && d.eobRun == 0 {
				return errEndOfData
			}
			for _, ci := range scan.Components {
				c := &h.Components[ci]
				for v := 0; v < c.V; v++ {
					for u := 0; u < c.H; u++ {
						if err := fn(ci, c, mx*c.H+u, my*c.V+v); err != nil {
							return err
						}
					}
				}
			}
		}
	}
	return nil
}

// decodeDC decodes one DC difference and updates the component's predictor.
func (d *Decoder) decodeDC(c *frame.Component) (int32, error) {
	s, err := d.state.DC[c.Td].Decode(d.br)
	if err != nil {
		return 0, err
	}
	if s > 11 {
		return 0, common.FormatErrorf("bad DC coefficient size %d", s)
	}
	diff, err := d.br.ReceiveExtend(int(s))
	if err != nil {
		return 0, err
	}
	c.DCPred += diff
	return c.DCPred, nil
}

// decodeBaseline decodes one sequential block and writes its samples.
func (d *Decoder) decodeBaseline(ci int, c *frame.Component, bx, by int) error {
	blk := &d.block
	*blk = common.Block{}

	dc, err := d.decodeDC(c)
	if err != nil {
		return err
	}
	blk[0] = dc

	ac := d.state.AC[c.Ta]
	for k, n := 1, 0; k < common.BlockSize; n++ {
		if n >= maxACIterations {
			return common.ErrTooManyACCodes
		}
		rs, err := ac.Decode(d.br)
		if err != nil {
			return err
		}
		r, s := int(rs>>4), int(rs&0x0F)
		if s == 0 {
			if r != 0x0F {
				break // EOB
			}
			k += 16 // ZRL
			continue
		}
		k += r
		if k >= common.BlockSize {
			return common.FormatErrorf("AC coefficient index %d out of range", k)
		}
		v, err := d.br.ReceiveExtend(s)
		if err != nil {
			return err
		}
		blk[common.ZigZag[k]] = v
		k++
	}

	d.reconstruct(ci, blk, d.state.ComponentQuant(ci), bx, by)
	return nil
}

// reconstruct dequantizes blk in place, runs the IDCT and stores the samples
// of block (bx, by) into the component plane, dropping out-of-bounds samples.
func (d *Decoder) reconstruct(ci int, blk *common.Block, q *[64]int32, bx, by int) {
	for k := 0; k < common.BlockSize; k++ {
		blk[common.ZigZag[k]] *= q[k]
	}
	common.IDCT(blk, d.tile[:], 8)

	p := d.plane(ci)
	x0, y0 := bx*8, by*8
	if x0 >= p.Width || y0 >= p.Height {
		return
	}
	w := min(8, p.Width-x0)
	hgt := min(8, p.Height-y0)
	for y := 0; y < hgt; y++ {
		copy(p.Pix[(y0+y)*p.Stride+x0:], d.tile[y*8:y*8+w])
	}
}
