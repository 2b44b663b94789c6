package common

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestStandardTablesBuild(t *testing.T) {
	tests := []struct {
		name   string
		bits   [16]int
		values []byte
	}{
		{"DC luminance", StandardDCLuminanceBits, StandardDCLuminanceValues},
		{"DC chrominance", StandardDCChrominanceBits, StandardDCChrominanceValues},
		{"AC luminance", StandardACLuminanceBits, StandardACLuminanceValues},
		{"AC chrominance", StandardACChrominanceBits, StandardACChrominanceValues},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewHuffmanTable(tt.bits, tt.values)
			if err != nil {
				t.Fatalf("NewHuffmanTable() error: %v", err)
			}
			for _, v := range tt.values {
				if _, ok := table.Lookup(v); !ok {
					t.Errorf("symbol %#x has no code", v)
				}
			}
		})
	}
}

func TestHuffmanTableValidation(t *testing.T) {
	tests := []struct {
		name   string
		bits   [16]int
		values []byte
	}{
		{"count mismatch", [16]int{0, 2}, []byte{1}},
		{"over-subscribed", [16]int{3}, []byte{1, 2, 3}},
		{"all-ones code", [16]int{2}, []byte{1, 2}},
		{"all-ones code at length 3", [16]int{1, 1, 2}, []byte{1, 2, 3, 4}},
		{"256 codes of length 8", [16]int{7: 256}, make([]byte, 256)},
		{"256 codes of length 9", [16]int{8: 256}, make([]byte, 256)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHuffmanTable(tt.bits, tt.values)
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Errorf("NewHuffmanTable() error = %v, want FormatError", err)
			}
		})
	}
}

func TestHuffmanCanonicalCodes(t *testing.T) {
	// Two codes of length 2 and two of length 3: 00, 01, 100, 101
	table, err := NewHuffmanTable([16]int{0, 2, 2}, []byte{'a', 'b', 'c', 'd'})
	if err != nil {
		t.Fatal(err)
	}

	want := map[byte]HuffmanCode{
		'a': {Code: 0, Len: 2},
		'b': {Code: 1, Len: 2},
		'c': {Code: 4, Len: 3},
		'd': {Code: 5, Len: 3},
	}
	for sym, code := range want {
		got, _ := table.Lookup(sym)
		if got != code {
			t.Errorf("Lookup(%c) = %+v, want %+v", sym, got, code)
		}
	}
}

// randomTable builds a valid canonical table with n symbols. The Kraft sum of
// the code lengths stays below 1 so no code is all 1-bits.
func randomTable(rng *rand.Rand, n int) ([16]int, []byte) {
	var bits [16]int
	// Start with every symbol at length 1 budget and deepen until the code fits.
	lengths := make([]int, n)
	for i := range lengths {
		lengths[i] = 1 + rng.Intn(16)
	}
	for {
		sum := 0.0
		for _, l := range lengths {
			sum += 1 / float64(uint(1)<<uint(l))
		}
		if sum < 1 {
			break
		}
		i := rng.Intn(n)
		if lengths[i] < 16 {
			lengths[i]++
		}
	}
	for _, l := range lengths {
		bits[l-1]++
	}
	perm := rng.Perm(256)
	values := make([]byte, n)
	for i := range values {
		values[i] = byte(perm[i])
	}
	return bits, values
}

func TestHuffmanRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for iter := 0; iter < 50; iter++ {
		n := 1 + rng.Intn(200)
		bits, values := randomTable(rng, n)
		table, err := NewHuffmanTable(bits, values)
		if err != nil {
			t.Fatalf("iteration %d: %v", iter, err)
		}

		msg := make([]byte, 300)
		for i := range msg {
			msg[i] = values[rng.Intn(n)]
		}

		var buf bytes.Buffer
		bw := NewBitWriter(&buf)
		for _, sym := range msg {
			if err := table.Encode(bw, sym); err != nil {
				t.Fatalf("Encode(%#x): %v", sym, err)
			}
		}
		if err := bw.Flush(); err != nil {
			t.Fatal(err)
		}

		br := newBitReader(buf.Bytes())
		for i, want := range msg {
			got, err := table.Decode(br)
			if err != nil {
				t.Fatalf("iteration %d symbol %d: %v", iter, i, err)
			}
			if got != want {
				t.Fatalf("iteration %d symbol %d: got %#x, want %#x", iter, i, got, want)
			}
		}
	}
}

func TestHuffmanDecodeBadCode(t *testing.T) {
	// Only code "0" exists; a run of ones never matches.
	table, err := NewHuffmanTable([16]int{1}, []byte{7})
	if err != nil {
		t.Fatal(err)
	}
	br := newBitReader([]byte{0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00})
	if _, err := table.Decode(br); !errors.Is(err, ErrHuffmanDecode) {
		t.Errorf("Decode() error = %v, want ErrHuffmanDecode", err)
	}
}

func TestHuffmanEncodeUnknownSymbol(t *testing.T) {
	table := BuildStandardHuffmanTable(StandardDCLuminanceBits, StandardDCLuminanceValues)
	var buf bytes.Buffer
	if err := table.Encode(NewBitWriter(&buf), 200); !errors.Is(err, ErrHuffmanEncode) {
		t.Errorf("Encode() error = %v, want ErrHuffmanEncode", err)
	}
}
