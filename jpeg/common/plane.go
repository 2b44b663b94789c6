package common

// SampleBuffer is a planar 8-bit sample buffer. The codec core only needs its
// dimensions, its row stride and its backing bytes.
type SampleBuffer interface {
	Dims() (width, height int)
	RowStride() int
	Bytes() []byte
}

// Plane holds the samples of one image component at that component's own
// (possibly subsampled) resolution.
type Plane struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// NewPlane allocates a zeroed width x height plane.
func NewPlane(width, height int) *Plane {
	return &Plane{
		Width:  width,
		Height: height,
		Stride: width,
		Pix:    make([]byte, width*height),
	}
}

// Dims implements SampleBuffer.
func (p *Plane) Dims() (int, int) { return p.Width, p.Height }

// RowStride implements SampleBuffer.
func (p *Plane) RowStride() int { return p.Stride }

// Bytes implements SampleBuffer.
func (p *Plane) Bytes() []byte { return p.Pix }

// CheckSampleBuffer reports a FormatError unless buf is a width x height plane
// whose stride and backing slice cover every sample.
func CheckSampleBuffer(buf SampleBuffer, width, height int) error {
	w, h := buf.Dims()
	if w != width || h != height {
		return FormatErrorf("plane is %dx%d, component is %dx%d", w, h, width, height)
	}
	stride := buf.RowStride()
	if stride < w {
		return FormatErrorf("plane stride %d is less than its width %d", stride, w)
	}
	if need := (h-1)*stride + w; len(buf.Bytes()) < need {
		return FormatErrorf("plane holds %d bytes, %dx%d with stride %d needs %d", len(buf.Bytes()), w, h, stride, need)
	}
	return nil
}
