package scan

import (
	"github.com/cocosip/go-jpeg-codec/jpeg/common"
	"github.com/cocosip/go-jpeg-codec/jpeg/frame"
)

// Progressive coefficients are kept un-dequantized, already shifted left by
// Al, in natural order within each block.

func (d *Decoder) coefBlock(ci, bx, by int) *common.Block {
	c := &d.state.Header.Components[ci]
	return &d.state.CoefficientPlane(ci)[by*c.BlocksPerLine+bx]
}

// decodeDCFirst handles the first DC scan of a coefficient band.
func (d *Decoder) decodeDCFirst(blk *common.Block, c *frame.Component, al int) error {
	dc, err := d.decodeDC(c)
	if err != nil {
		return err
	}
	blk[0] = dc << uint(al)
	return nil
}

// refineDC adds one more bit of DC precision.
func (d *Decoder) refineDC(blk *common.Block, al int) error {
	bit, err := d.br.ReadBit()
	if err != nil {
		return err
	}
	if bit != 0 {
		blk[0] |= 1 << uint(al)
	}
	return nil
}

// readEOBRun returns (1<<r) plus r extra bits: the length of an end-of-band run.
func (d *Decoder) readEOBRun(r int) (int32, error) {
	run := int32(1) << uint(r)
	if r > 0 {
		bits, err := d.br.ReadBits(r)
		if err != nil {
			return 0, err
		}
		run += int32(bits)
	}
	return run, nil
}

// decodeACFirst handles the first scan of an AC band.
func (d *Decoder) decodeACFirst(blk *common.Block, ac *common.HuffmanTable, scan *frame.Scan) error {
	if d.eobRun > 0 {
		d.eobRun--
		return nil
	}

	for k := scan.ZigStart; k <= scan.ZigEnd; {
		rs, err := ac.Decode(d.br)
		if err != nil {
			return err
		}
		r, s := int(rs>>4), int(rs&0x0F)
		if s == 0 {
			if r != 0x0F {
				run, err := d.readEOBRun(r)
				if err != nil {
					return err
				}
				// This block is the first of the run.
				d.eobRun = run - 1
				return nil
			}
			k += 16 // ZRL
			continue
		}
		k += r
		if k > scan.ZigEnd {
			return common.FormatErrorf("AC coefficient index %d past band end %d", k, scan.ZigEnd)
		}
		v, err := d.br.ReceiveExtend(s)
		if err != nil {
			return err
		}
		blk[common.ZigZag[k]] = v << uint(scan.Al)
		k++
	}
	return nil
}

// refineAC handles an AC successive approximation scan (ITU T.81 G.1.2.3).
// Every already non-zero coefficient in the band receives one correction bit;
// newly non-zero coefficients are coded with magnitude 1 and a sign bit.
func (d *Decoder) refineAC(blk *common.Block, ac *common.HuffmanTable, scan *frame.Scan) error {
	delta := int32(1) << uint(scan.Al)
	k := scan.ZigStart

	if d.eobRun == 0 {
	loop:
		for ; k <= scan.ZigEnd; k++ {
			z := int32(0)
			rs, err := ac.Decode(d.br)
			if err != nil {
				return err
			}
			r, s := int(rs>>4), int(rs&0x0F)

			switch s {
			case 0:
				if r != 0x0F {
					d.eobRun, err = d.readEOBRun(r)
					if err != nil {
						return err
					}
					break loop
				}
			case 1:
				z = delta
				bit, err := d.br.ReadBit()
				if err != nil {
					return err
				}
				if bit == 0 {
					z = -z
				}
			default:
				return common.FormatErrorf("unexpected Huffman code in AC refinement")
			}

			k, err = d.refineNonZeroes(blk, k, scan.ZigEnd, int32(r), delta)
			if err != nil {
				return err
			}
			if k > scan.ZigEnd {
				return common.FormatErrorf("too many coefficients in AC refinement")
			}
			if z != 0 {
				blk[common.ZigZag[k]] = z
			}
		}
	}

	if d.eobRun > 0 {
		d.eobRun--
		if _, err := d.refineNonZeroes(blk, k, scan.ZigEnd, -1, delta); err != nil {
			return err
		}
	}
	return nil
}

// refineNonZeroes applies correction bits to the non-zero coefficients from
// zigzag index k, stopping at the (nz+1)th zero coefficient. nz < 0 refines to
// the end of the band.
func (d *Decoder) refineNonZeroes(blk *common.Block, k, end int, nz, delta int32) (int, error) {
	for ; k <= end; k++ {
		u := common.ZigZag[k]
		if blk[u] == 0 {
			if nz == 0 {
				break
			}
			nz--
			continue
		}
		bit, err := d.br.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 0 {
			continue
		}
		if blk[u] >= 0 {
			blk[u] += delta
		} else {
			blk[u] -= delta
		}
	}
	return k, nil
}

// Reconstruct dequantizes and inverse transforms every progressive coefficient
// block into the sample planes, then releases the coefficient planes.
func (d *Decoder) Reconstruct() []*common.Plane {
	h := d.state.Header
	for ci := range h.Components {
		c := &h.Components[ci]
		q := d.state.ComponentQuant(ci)
		if q == nil {
			// Never scanned: the plane stays mid-gray.
			q = &flatQuant
		}
		coefs := d.state.CoefficientPlane(ci)
		cols, rows := c.ScanBlocks()
		for by := 0; by < rows; by++ {
			for bx := 0; bx < cols; bx++ {
				d.block = coefs[by*c.BlocksPerLine+bx]
				d.reconstruct(ci, &d.block, q, bx, by)
			}
		}
	}
	d.state.ReleaseCoefficients()
	return d.Planes()
}

var flatQuant = func() (q [64]int32) {
	for i := range q {
		q[i] = 1
	}
	return q
}()
