package common

// 8-bit DICOM data tagged PixelRepresentation=1 stores two's complement samples.
// JPEG samples are unsigned, so signed frames are shifted by 128 before encoding
// and shifted back after decoding.

const signBit8 = 0x80

// SignedSamples reports whether frames described by pixelRepresentation and
// bitsStored hold two's complement 8-bit samples.
func SignedSamples(pixelRepresentation, bitsStored int) bool {
	return pixelRepresentation == 1 && bitsStored > 0 && bitsStored <= 8
}

// ShiftSignedToUnsigned maps two's complement samples [-128,127] to [0,255] in place.
func ShiftSignedToUnsigned(pix []byte) {
	for i, b := range pix {
		pix[i] = b ^ signBit8
	}
}

// ShiftUnsignedToSigned maps [0,255] back to two's complement [-128,127] in place.
func ShiftUnsignedToSigned(pix []byte) {
	ShiftSignedToUnsigned(pix)
}
