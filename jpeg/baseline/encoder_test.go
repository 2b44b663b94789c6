package baseline

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cocosip/go-jpeg-codec/jpeg/common"
	"github.com/cocosip/go-jpeg-codec/jpeg/frame"
)

// rawBuffer is a SampleBuffer that reports whatever geometry it is given.
type rawBuffer struct {
	w, h, stride int
	pix          []byte
}

func (b rawBuffer) Dims() (int, int) { return b.w, b.h }
func (b rawBuffer) RowStride() int { return b.stride }
func (b rawBuffer) Bytes() []byte { return b.pix }

func grayHeader(t *testing.T, width, height int) *frame.Header {
	t.Helper()
	hdr, err := frame.NewHeader(width, height, false, []frame.Component{{ID: 1, H: 1, V: 1}})
	if err != nil {
		t.Fatal(err)
	}
	return hdr
}

func TestEncodePlanesValidation(t *testing.T) {
	hdr := grayHeader(t, 16, 16)

	tests := []struct {
		name    string
		planes  []common.SampleBuffer
		quality int
	}{
		{"short backing slice", []common.SampleBuffer{rawBuffer{16, 16, 16, make([]byte, 10)}}, 75},
		{"stride below width", []common.SampleBuffer{rawBuffer{16, 16, 4, make([]byte, 256)}}, 75},
		{"negative stride", []common.SampleBuffer{rawBuffer{16, 16, -16, make([]byte, 256)}}, 75},
		{"wrong size", []common.SampleBuffer{common.NewPlane(16, 8)}, 75},
		{"too many planes", []common.SampleBuffer{common.NewPlane(16, 16), common.NewPlane(16, 16)}, 75},
		{"bad quality", []common.SampleBuffer{common.NewPlane(16, 16)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := EncodePlanes(&out, tt.planes, hdr, tt.quality)
			if !errors.Is(err, common.ErrFormat) {
				t.Errorf("EncodePlanes() error = %v, want FormatError", err)
			}
			if out.Len() != 0 {
				t.Errorf("%d bytes written before validation failed", out.Len())
			}
		})
	}
}

func TestEncodePlanesPaddedStride(t *testing.T) {
	const width, height, stride = 12, 10, 16
	hdr := grayHeader(t, width, height)

	pix := make([]byte, (height-1)*stride+width)
	for y := 0; y < height; y++ {
		for x := 0; x < stride && y*stride+x < len(pix); x++ {
			v := byte(100)
			if x >= width {
				v = 0 // outside the plane, must not be encoded
			}
			pix[y*stride+x] = v
		}
	}

	var out bytes.Buffer
	if err := EncodePlanes(&out, []common.SampleBuffer{rawBuffer{width, height, stride, pix}}, hdr, 95); err != nil {
		t.Fatalf("EncodePlanes failed: %v", err)
	}

	img, err := DecodeFrame(&out)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	for i, v := range img.Planes[0].Pix {
		if d := common.Abs(int(v) - 100); d > 2 {
			t.Fatalf("sample %d = %d, want about 100", i, v)
		}
	}
}
