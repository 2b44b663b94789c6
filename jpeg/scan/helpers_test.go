package scan

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/cocosip/go-jpeg-codec/jpeg/common"
	"github.com/cocosip/go-jpeg-codec/jpeg/frame"
)

func newTestState(t *testing.T, progressive bool, width, height int, sampling ...[2]int) *frame.State {
	t.Helper()
	comps := make([]frame.Component, len(sampling))
	for i, s := range sampling {
		comps[i] = frame.Component{ID: byte(i + 1), H: s[0], V: s[1]}
	}
	h, err := frame.NewHeader(width, height, progressive, comps)
	if err != nil {
		t.Fatalf("NewHeader() error: %v", err)
	}
	st := frame.NewState()
	if err := st.SetFrame(h); err != nil {
		t.Fatal(err)
	}
	return st
}

// zigzagOf converts a natural-order table to the transmitted zigzag order.
func zigzagOf(nat *[64]int32) *[64]int32 {
	zz := new([64]int32)
	for k := range zz {
		zz[k] = nat[common.ZigZag[k]]
	}
	return zz
}

func onesQuant() *[64]int32 {
	q := new([64]int32)
	for i := range q {
		q[i] = 1
	}
	return q
}

// flatTable codes every byte value below 0xFF as itself in 8 bits. 0xFF
// takes the 9-bit code 0x1FE.
func flatTable(t *testing.T) *common.HuffmanTable {
	t.Helper()
	var bits [16]int
	bits[7] = 255
	bits[8] = 1
	values := make([]byte, 256)
	for i := range values {
		values[i] = byte(i)
	}
	table, err := common.NewHuffmanTable(bits, values)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

// bitReaderOf returns a reader over entropy data terminated by an EOI marker.
func bitReaderOf(data []byte) *common.BitReader {
	stream := append(append([]byte(nil), data...), 0xFF, 0xD9)
	return common.NewBitReader(bufio.NewReader(bytes.NewReader(stream)))
}

func scanPayload(ids []byte, ss, se, ah, al int) []byte {
	data := []byte{byte(len(ids))}
	for _, id := range ids {
		data = append(data, id, 0x00)
	}
	return append(data, byte(ss), byte(se), byte(ah<<4|al))
}

type blockRef struct {
	ci, bx, by int
}

// scanOrder lists the blocks a scan codes, in coding order.
func scanOrder(h *frame.Header, comps []int) []blockRef {
	var refs []blockRef
	if len(comps) == 1 {
		c := &h.Components[comps[0]]
		cols, rows := c.ScanBlocks()
		for by := 0; by < rows; by++ {
			for bx := 0; bx < cols; bx++ {
				refs = append(refs, blockRef{comps[0], bx, by})
			}
		}
		return refs
	}
	for my := 0; my < h.MCUsPerColumn; my++ {
		for mx := 0; mx < h.MCUsPerLine; mx++ {
			for _, ci := range comps {
				c := &h.Components[ci]
				for v := 0; v < c.V; v++ {
					for u := 0; u < c.H; u++ {
						refs = append(refs, blockRef{ci, mx*c.H + u, my*c.V + v})
					}
				}
			}
		}
	}
	return refs
}
