package common

import (
	"errors"
	"fmt"
)

// ErrFormat is matched by every FormatError through errors.Is.
var ErrFormat = errors.New("invalid JPEG format")

// FormatError reports a JPEG stream that violates the supported subset of ITU T.81.
// Decoding and encoding abort on the first FormatError; no partial image is returned.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string {
	return "jpeg: " + e.Msg
}

// Is reports whether target is ErrFormat or a FormatError with the same message.
func (e *FormatError) Is(target error) bool {
	if target == ErrFormat {
		return true
	}
	var fe *FormatError
	if errors.As(target, &fe) {
		return fe.Msg == e.Msg
	}
	return false
}

// FormatErrorf builds a FormatError from a format string.
func FormatErrorf(format string, args ...any) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

func newFormatError(msg string) *FormatError {
	return &FormatError{Msg: msg}
}

// Common errors
var (
	ErrInvalidMarker     = newFormatError("invalid JPEG marker")
	ErrInvalidSOI        = newFormatError("missing SOI marker")
	ErrInvalidSOF        = newFormatError("invalid Start of Frame")
	ErrMissingSOF        = newFormatError("scan before Start of Frame")
	ErrInvalidDHT        = newFormatError("invalid Huffman table")
	ErrInvalidDQT        = newFormatError("invalid Quantization table")
	ErrInvalidSOS        = newFormatError("invalid Start of Scan")
	ErrUnexpectedEOF     = newFormatError("unexpected end of file")
	ErrInvalidDimensions = newFormatError("invalid image dimensions")
	ErrInvalidComponents = newFormatError("invalid number of components")
	ErrInvalidSampling   = newFormatError("invalid sampling factors")
	ErrInvalidPrecision  = newFormatError("invalid precision")
	ErrInvalidQuality    = newFormatError("invalid quality factor")
	ErrHuffmanDecode     = newFormatError("bad Huffman code")
	ErrHuffmanEncode     = newFormatError("symbol not in Huffman table")
	ErrBufferTooSmall    = newFormatError("buffer too small")
	ErrBlockSize         = newFormatError("block must hold 64 values")
	ErrBitCount          = newFormatError("bit count out of range")
	ErrTooManyACCodes    = newFormatError("too many AC coefficients in block")
)
