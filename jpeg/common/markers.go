package common

import (
	"fmt"
	"strconv"
)

// JPEG marker constants
const (
	// Start of Image
	MarkerSOI = 0xFFD8

	// End of Image
	MarkerEOI = 0xFFD9

	// Start of Frame markers
	MarkerSOF0  = 0xFFC0 // Baseline DCT
	MarkerSOF1  = 0xFFC1 // Extended Sequential DCT
	MarkerSOF2  = 0xFFC2 // Progressive DCT
	MarkerSOF3  = 0xFFC3 // Lossless (Sequential)
	MarkerSOF5  = 0xFFC5 // Differential Sequential DCT
	MarkerSOF6  = 0xFFC6 // Differential Progressive DCT
	MarkerSOF7  = 0xFFC7 // Differential Lossless
	MarkerSOF9  = 0xFFC9 // Extended Sequential DCT, Arithmetic coding
	MarkerSOF10 = 0xFFCA // Progressive DCT, Arithmetic coding
	MarkerSOF11 = 0xFFCB // Lossless, Arithmetic coding
	MarkerSOF13 = 0xFFCD // Differential Sequential DCT, Arithmetic coding
	MarkerSOF14 = 0xFFCE // Differential Progressive DCT, Arithmetic coding
	MarkerSOF15 = 0xFFCF // Differential Lossless, Arithmetic coding

	// Define Huffman Table
	MarkerDHT = 0xFFC4

	// Define Arithmetic Coding conditioning
	MarkerDAC = 0xFFCC

	// Define Quantization Table
	MarkerDQT = 0xFFDB

	// Define Number of Lines
	MarkerDNL = 0xFFDC

	// Define Restart Interval
	MarkerDRI = 0xFFDD

	// Hierarchical progression
	MarkerDHP = 0xFFDE
	MarkerEXP = 0xFFDF

	// Start of Scan
	MarkerSOS = 0xFFDA

	// Application segments
	MarkerAPP0  = 0xFFE0
	MarkerAPP14 = 0xFFEE
	MarkerAPP15 = 0xFFEF

	// Comment
	MarkerCOM = 0xFFFE

	// Temporary private use in arithmetic coding
	MarkerTEM = 0xFF01

	// Restart markers
	MarkerRST0 = 0xFFD0
	MarkerRST7 = 0xFFD7
)

// IsSOF returns true if the marker is a Start of Frame marker
func IsSOF(marker uint16) bool {
	return (marker >= MarkerSOF0 && marker <= MarkerSOF3) ||
		(marker >= MarkerSOF5 && marker <= MarkerSOF7) ||
		(marker >= MarkerSOF9 && marker <= MarkerSOF11) ||
		(marker >= MarkerSOF13 && marker <= MarkerSOF15)
}

// IsRST returns true if the marker is a Restart marker
func IsRST(marker uint16) bool {
	return marker >= MarkerRST0 && marker <= MarkerRST7
}

// IsAPP returns true for APP0 through APP15.
func IsAPP(marker uint16) bool {
	return marker >= MarkerAPP0 && marker <= MarkerAPP15
}

// HasLength returns true if the marker is followed by a length field
func HasLength(marker uint16) bool {
	// Markers without length: SOI, EOI, TEM and RSTn
	if marker == MarkerSOI || marker == MarkerEOI || marker == MarkerTEM {
		return false
	}
	if IsRST(marker) {
		return false
	}
	return true
}

// MarkerKind tags the outcome of one marker read.
type MarkerKind int

const (
	// MarkerKnown is a marker the decoder has a handler for.
	MarkerKnown MarkerKind = iota
	// MarkerUnknown is any other marker; Length holds its payload size if it has one.
	MarkerUnknown
	// MarkerEOF means the stream ended where a marker was expected.
	MarkerEOF
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerKnown:
		return "known"
	case MarkerUnknown:
		return "unknown"
	case MarkerEOF:
		return "eof"
	}
	return "invalid"
}

// MarkerResult is the tagged result of Reader.Next.
type MarkerResult struct {
	Kind   MarkerKind
	Marker uint16
	// Length is the payload size in bytes (segment length minus the two length
	// bytes), or -1 for markers that carry no length field.
	Length int
}

// IsKnownMarker reports whether the decoder dispatches marker itself.
func IsKnownMarker(marker uint16) bool {
	switch marker {
	case MarkerSOI, MarkerEOI, MarkerSOF0, MarkerSOF2, MarkerDHT, MarkerDQT,
		MarkerSOS, MarkerDRI, MarkerCOM:
		return true
	}
	return IsAPP(marker)
}

// MarkerName returns a short mnemonic for marker, used in error messages.
func MarkerName(marker uint16) string {
	switch {
	case marker == MarkerSOI:
		return "SOI"
	case marker == MarkerEOI:
		return "EOI"
	case marker == MarkerDHT:
		return "DHT"
	case marker == MarkerDQT:
		return "DQT"
	case marker == MarkerSOS:
		return "SOS"
	case marker == MarkerDRI:
		return "DRI"
	case marker == MarkerDAC:
		return "DAC"
	case marker == MarkerDNL:
		return "DNL"
	case marker == MarkerDHP:
		return "DHP"
	case marker == MarkerEXP:
		return "EXP"
	case marker == MarkerCOM:
		return "COM"
	case IsSOF(marker):
		return "SOF" + strconv.Itoa(int(marker-MarkerSOF0))
	case IsAPP(marker):
		return "APP" + strconv.Itoa(int(marker-MarkerAPP0))
	case IsRST(marker):
		return "RST" + strconv.Itoa(int(marker-MarkerRST0))
	}
	return fmt.Sprintf("0x%04X", marker)
}
