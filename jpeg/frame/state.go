package frame

import (
	"github.com/cocosip/go-jpeg-codec/jpeg/common"
)

// State is the decoding state of one image. It is owned by a single decode
// session and must not be shared between goroutines.
type State struct {
	Header *Header

	// Quantization tables in zigzag order, as transmitted.
	Quant [4]*[64]int32

	// Huffman table slots. The last definition of a slot wins.
	DC [4]*common.HuffmanTable
	AC [4]*common.HuffmanTable

	// Coefficients holds, per component, the progressive coefficient blocks
	// over the padded MCU grid. A nil entry has not been referenced yet.
	Coefficients [][]common.Block

	// lastAl is the Al of the most recent scan that coded each coefficient
	// of each component, -1 before the first scan.
	lastAl [][64]int8

	// quantFor is the quantization table in effect at the first scan of each
	// component. Later DQT redefinitions do not affect that component.
	quantFor []*[64]int32

	// Scans counts the scans started so far.
	Scans int
}

// NewState creates an empty decoding state.
func NewState() *State {
	return &State{}
}

// SetFrame installs the frame header. A frame may be defined only once.
func (s *State) SetFrame(h *Header) error {
	if s.Header != nil {
		return common.FormatErrorf("multiple frame headers")
	}
	s.Header = h
	s.quantFor = make([]*[64]int32, len(h.Components))
	if h.Progressive {
		s.Coefficients = make([][]common.Block, len(h.Components))
		s.lastAl = make([][64]int8, len(h.Components))
		for i := range s.lastAl {
			for k := range s.lastAl[i] {
				s.lastAl[i][k] = -1
			}
		}
	}
	return nil
}

// ParseDQT stores every table of a DQT payload.
func (s *State) ParseDQT(data []byte) error {
	if len(data) == 0 {
		return common.ErrInvalidDQT
	}
	for offset := 0; offset < len(data); {
		pq := data[offset] >> 4   // Precision (0=8-bit, 1=16-bit)
		tq := data[offset] & 0x0F // Table ID
		offset++

		if pq != 0 {
			return common.FormatErrorf("unsupported 16-bit quantization table")
		}
		if tq > 3 {
			return common.FormatErrorf("bad quantization table index %d", tq)
		}
		if offset+64 > len(data) {
			return common.ErrInvalidDQT
		}

		table := new([64]int32)
		for k := 0; k < 64; k++ {
			v := data[offset+k]
			if v == 0 {
				return common.FormatErrorf("quantization table %d has a zero entry", tq)
			}
			table[k] = int32(v)
		}
		s.Quant[tq] = table
		offset += 64
	}
	return nil
}

// ParseDHT builds and stores every table of a DHT payload.
func (s *State) ParseDHT(data []byte) error {
	if len(data) == 0 {
		return common.ErrInvalidDHT
	}
	for offset := 0; offset < len(data); {
		tc := data[offset] >> 4   // Table class (0=DC, 1=AC)
		th := data[offset] & 0x0F // Table ID
		offset++

		if tc > 1 || th > 3 {
			return common.FormatErrorf("bad Huffman table class %d index %d", tc, th)
		}
		if offset+16 > len(data) {
			return common.ErrInvalidDHT
		}

		var bits [16]int
		total := 0
		for i := range bits {
			bits[i] = int(data[offset+i])
			total += bits[i]
		}
		offset += 16

		if offset+total > len(data) {
			return common.ErrInvalidDHT
		}
		table, err := common.NewHuffmanTable(bits, data[offset:offset+total])
		if err != nil {
			return err
		}
		offset += total

		if tc == 0 {
			s.DC[th] = table
		} else {
			s.AC[th] = table
		}
	}
	return nil
}

// ParseSOS validates a scan header against the frame and the defined tables,
// resets the DC predictors of the scan components and returns the scan.
func (s *State) ParseSOS(data []byte) (*Scan, error) {
	h := s.Header
	if h == nil {
		return nil, common.ErrMissingSOF
	}

	scan, selectors, err := parseScan(h, data)
	if err != nil {
		return nil, err
	}

	if h.Progressive {
		if err := scan.validateProgressive(h); err != nil {
			return nil, err
		}
	} else {
		if len(scan.Components) != len(h.Components) {
			return nil, common.FormatErrorf("baseline scan with %d of %d components", len(scan.Components), len(h.Components))
		}
		scan.ZigStart, scan.ZigEnd, scan.Ah, scan.Al = 0, 63, 0, 0
	}

	needDC := scan.IsDC() && !scan.IsRefinement()
	needAC := scan.ZigEnd > 0

	for i, ci := range scan.Components {
		c := &h.Components[ci]
		td := int(selectors[i] >> 4)
		ta := int(selectors[i] & 0x0F)
		if td > 3 || ta > 3 {
			return nil, common.FormatErrorf("component %d: bad Huffman table index", c.ID)
		}
		if s.Quant[c.Tq] == nil {
			return nil, common.FormatErrorf("component %d: undefined quantization table %d", c.ID, c.Tq)
		}
		if needDC && s.DC[td] == nil {
			return nil, common.FormatErrorf("component %d: undefined DC Huffman table %d", c.ID, td)
		}
		if needAC && s.AC[ta] == nil {
			return nil, common.FormatErrorf("component %d: undefined AC Huffman table %d", c.ID, ta)
		}
		c.Td = td
		c.Ta = ta
	}

	if h.Progressive {
		if err := s.trackApproximation(scan); err != nil {
			return nil, err
		}
	}

	for _, ci := range scan.Components {
		c := &h.Components[ci]
		c.DCPred = 0
		if s.quantFor[ci] == nil {
			s.quantFor[ci] = s.Quant[c.Tq]
		}
	}
	s.Scans++
	return scan, nil
}

// trackApproximation checks the scan's Ah against the Al of the previous scan
// of every coefficient in its window and records the new Al.
func (s *State) trackApproximation(scan *Scan) error {
	for _, ci := range scan.Components {
		last := &s.lastAl[ci]
		for k := scan.ZigStart; k <= scan.ZigEnd; k++ {
			prev := int(last[k])
			if scan.Ah == 0 {
				if prev != -1 {
					return common.FormatErrorf("coefficient %d of component %d coded twice", k, s.Header.Components[ci].ID)
				}
			} else if prev != scan.Ah {
				return common.FormatErrorf("refinement Ah=%d does not follow Al=%d", scan.Ah, prev)
			}
		}
		for k := scan.ZigStart; k <= scan.ZigEnd; k++ {
			last[k] = int8(scan.Al)
		}
	}
	return nil
}

// ComponentQuant returns the zigzag-order quantization table for component ci,
// or nil if the component has not appeared in a scan.
func (s *State) ComponentQuant(ci int) *[64]int32 {
	return s.quantFor[ci]
}

// CoefficientPlane returns the coefficient blocks of component ci, allocating
// them on first reference.
func (s *State) CoefficientPlane(ci int) []common.Block {
	if s.Coefficients[ci] == nil {
		c := &s.Header.Components[ci]
		s.Coefficients[ci] = make([]common.Block, c.BlocksPerLine*c.BlocksPerColumn)
	}
	return s.Coefficients[ci]
}

// ReleaseCoefficients drops the coefficient planes after reconstruction.
func (s *State) ReleaseCoefficients() {
	for i := range s.Coefficients {
		s.Coefficients[i] = nil
	}
}
