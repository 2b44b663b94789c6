package common

// MaxCodeLength is the longest Huffman code length allowed by JPEG.
const MaxCodeLength = 16

// HuffmanCode represents a Huffman code
type HuffmanCode struct {
	Code uint16 // The Huffman code
	Len  int    // Code length in bits, 0 if the symbol is absent
}

// HuffmanTable represents a canonical Huffman coding table
type HuffmanTable struct {
	// Number of codes of each length (1-16 bits)
	Bits [16]int
	// Values for each code, in order of code length
	Values []byte

	// Decoding tables indexed by code length; index 0 is unused.
	minCode [MaxCodeLength + 1]int32
	maxCode [MaxCodeLength + 1]int32
	valPtr  [MaxCodeLength + 1]int32

	codes [256]HuffmanCode
	built bool
}

// NewHuffmanTable copies bits and values into a new table and builds it.
func NewHuffmanTable(bits [16]int, values []byte) (*HuffmanTable, error) {
	t := &HuffmanTable{Bits: bits, Values: append([]byte(nil), values...)}
	if err := t.Build(); err != nil {
		return nil, err
	}
	return t, nil
}

// Build derives the mincode/maxcode/valptr decode arrays and the encode map.
func (h *HuffmanTable) Build() error {
	total := 0
	for l, n := range h.Bits {
		if n < 0 || n > 255 {
			return FormatErrorf("Huffman code count %d at length %d out of range", n, l+1)
		}
		total += n
	}
	if total != len(h.Values) {
		return FormatErrorf("Huffman table has %d codes but %d values", total, len(h.Values))
	}
	if total > 256 {
		return FormatErrorf("Huffman table has %d codes", total)
	}

	h.codes = [256]HuffmanCode{}

	code := int32(0)
	p := int32(0)
	for l := 1; l <= MaxCodeLength; l++ {
		n := int32(h.Bits[l-1])
		h.valPtr[l] = p
		h.minCode[l] = code
		if n == 0 {
			h.maxCode[l] = -1
		} else {
			for i := int32(0); i < n; i++ {
				sym := h.Values[p+i]
				if h.codes[sym].Len == 0 {
					h.codes[sym] = HuffmanCode{Code: uint16(code + i), Len: l}
				}
			}
			h.maxCode[l] = code + n - 1
		}
		code += n
		p += n
		// A code of all 1-bits is reserved.
		if code >= 1<<uint(l) {
			return FormatErrorf("Huffman code lengths over-subscribed at length %d", l)
		}
		code <<= 1
	}

	h.built = true
	return nil
}

// Decode reads one symbol, growing the candidate code one bit at a time.
func (h *HuffmanTable) Decode(br *BitReader) (byte, error) {
	if !h.built {
		return 0, ErrInvalidDHT
	}

	code := int32(0)
	for l := 1; l <= MaxCodeLength; l++ {
		bit, err := br.ReadBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | int32(bit)

		if h.maxCode[l] >= 0 && code <= h.maxCode[l] {
			idx := h.valPtr[l] + code - h.minCode[l]
			if idx < 0 || int(idx) >= len(h.Values) {
				return 0, ErrHuffmanDecode
			}
			return h.Values[idx], nil
		}
	}

	return 0, ErrHuffmanDecode
}

// Lookup returns the canonical code assigned to symbol.
func (h *HuffmanTable) Lookup(symbol byte) (HuffmanCode, bool) {
	c := h.codes[symbol]
	return c, c.Len > 0
}

// Encode writes the canonical code for symbol.
func (h *HuffmanTable) Encode(bw *BitWriter, symbol byte) error {
	c, ok := h.Lookup(symbol)
	if !ok {
		return ErrHuffmanEncode
	}
	return bw.WriteBits(uint32(c.Code), c.Len)
}

// Category returns the magnitude category of val and its category-coded bits.
func Category(val int32) (cat int, bits uint32) {
	if val == 0 {
		return 0, 0
	}

	absVal := Abs(val)

	// Find category (number of bits needed)
	cat = 1
	for (int32(1) << uint(cat)) <= absVal {
		cat++
	}

	if val > 0 {
		bits = uint32(val)
	} else {
		bits = uint32((int32(1) << uint(cat)) + val - 1)
	}
	bits &= (1 << uint(cat)) - 1

	return cat, bits
}
