package frame

import "github.com/cocosip/go-jpeg-codec/jpeg/common"

// maxAl is the largest successive approximation bit position allowed by ITU T.81.
const maxAl = 13

// Scan holds the parameters of one SOS segment.
type Scan struct {
	// Components lists indices into Header.Components in scan order.
	Components []int

	// Spectral selection window, zigzag indices.
	ZigStart int
	ZigEnd   int

	// Successive approximation bit positions.
	Ah int
	Al int
}

// IsDC reports whether the scan codes DC coefficients.
func (s *Scan) IsDC() bool {
	return s.ZigStart == 0
}

// IsRefinement reports whether the scan refines previously coded bits.
func (s *Scan) IsRefinement() bool {
	return s.Ah != 0
}

// Interleaved reports whether the scan codes more than one component.
func (s *Scan) Interleaved() bool {
	return len(s.Components) > 1
}

// SOSPayload returns the SOS segment body for s, using each component's Td/Ta.
func (s *Scan) SOSPayload(h *Header) []byte {
	data := make([]byte, 0, 4+2*len(s.Components))
	data = append(data, byte(len(s.Components)))
	for _, ci := range s.Components {
		c := &h.Components[ci]
		data = append(data, c.ID, byte(c.Td<<4|c.Ta))
	}
	return append(data, byte(s.ZigStart), byte(s.ZigEnd), byte(s.Ah<<4|s.Al))
}

func parseScan(h *Header, data []byte) (*Scan, []byte, error) {
	if len(data) < 1 {
		return nil, nil, common.ErrInvalidSOS
	}
	ns := int(data[0])
	if ns < 1 || ns > 4 || len(data) != 1+2*ns+3 {
		return nil, nil, common.ErrInvalidSOS
	}

	s := &Scan{Components: make([]int, ns)}
	selectors := make([]byte, ns)
	for i := 0; i < ns; i++ {
		id := data[1+2*i]
		ci := h.ComponentIndex(id)
		if ci < 0 {
			return nil, nil, common.FormatErrorf("scan references unknown component %d", id)
		}
		for j := 0; j < i; j++ {
			if s.Components[j] == ci {
				return nil, nil, common.FormatErrorf("component %d repeated in scan", id)
			}
		}
		s.Components[i] = ci
		selectors[i] = data[2+2*i]
	}

	tail := data[1+2*ns:]
	s.ZigStart = int(tail[0])
	s.ZigEnd = int(tail[1])
	s.Ah = int(tail[2] >> 4)
	s.Al = int(tail[2] & 0x0F)

	return s, selectors, nil
}

func (s *Scan) validateProgressive(h *Header) error {
	if len(s.Components) != 1 && len(s.Components) != len(h.Components) {
		return common.FormatErrorf("progressive scan with %d of %d components", len(s.Components), len(h.Components))
	}
	if s.ZigStart > s.ZigEnd || s.ZigEnd > 63 {
		return common.FormatErrorf("bad spectral selection %d-%d", s.ZigStart, s.ZigEnd)
	}
	if s.ZigStart == 0 && s.ZigEnd != 0 {
		return common.FormatErrorf("progressive DC scan with spectral end %d", s.ZigEnd)
	}
	if s.ZigStart != 0 && len(s.Components) != 1 {
		return common.FormatErrorf("progressive AC scan with %d components", len(s.Components))
	}
	if s.Al > maxAl || s.Ah > maxAl {
		return common.FormatErrorf("bad successive approximation Ah=%d Al=%d", s.Ah, s.Al)
	}
	if s.Ah != 0 && s.Al != s.Ah-1 {
		return common.FormatErrorf("bad successive approximation refinement Ah=%d Al=%d", s.Ah, s.Al)
	}
	return nil
}
