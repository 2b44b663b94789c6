// Package colorspace converts between interleaved pixels and the per-component
// sample planes used by the JPEG codec: RGB to YCbCr and back, chroma
// subsampling and nearest-neighbour upsampling.
package colorspace

import (
	"image/color"

	"github.com/cocosip/go-jpeg-codec/jpeg/common"
)

// Subsampling selects the chroma resolution used when encoding color images.
type Subsampling int

const (
	// Ratio420 halves chroma in both directions.
	Ratio420 Subsampling = iota
	// Ratio422 halves chroma horizontally.
	Ratio422
	// Ratio444 keeps chroma at full resolution.
	Ratio444
)

// LumaFactors returns the luma sampling factors (H, V) for s; chroma is always 1x1.
func (s Subsampling) LumaFactors() (h, v int) {
	switch s {
	case Ratio422:
		return 2, 1
	case Ratio444:
		return 1, 1
	}
	return 2, 2
}

func (s Subsampling) String() string {
	switch s {
	case Ratio422:
		return "4:2:2"
	case Ratio444:
		return "4:4:4"
	}
	return "4:2:0"
}

// ParseSubsampling maps "4:2:0", "4:2:2" or "4:4:4" to a Subsampling.
func ParseSubsampling(s string) (Subsampling, bool) {
	switch s {
	case "4:2:0", "420":
		return Ratio420, true
	case "4:2:2", "422":
		return Ratio422, true
	case "4:4:4", "444":
		return Ratio444, true
	}
	return Ratio420, false
}

// SplitRGB converts interleaved RGB to full-resolution Y, Cb and Cr planes.
func SplitRGB(rgb []byte, width, height int) (y, cb, cr *common.Plane) {
	y = common.NewPlane(width, height)
	cb = common.NewPlane(width, height)
	cr = common.NewPlane(width, height)
	for i := 0; i < width*height; i++ {
		y.Pix[i], cb.Pix[i], cr.Pix[i] = color.RGBToYCbCr(rgb[i*3], rgb[i*3+1], rgb[i*3+2])
	}
	return y, cb, cr
}

// SplitComponents deinterleaves n-component pixels into n full-resolution planes.
func SplitComponents(pix []byte, width, height, n int) []*common.Plane {
	planes := make([]*common.Plane, n)
	for c := range planes {
		p := common.NewPlane(width, height)
		for i := range p.Pix {
			p.Pix[i] = pix[i*n+c]
		}
		planes[c] = p
	}
	return planes
}

// Subsample reduces p by integer factors fx and fy, averaging each fx x fy
// box. The result is ceil(width/fx) x ceil(height/fy); edge boxes average only
// the samples they cover.
func Subsample(p *common.Plane, fx, fy int) *common.Plane {
	if fx == 1 && fy == 1 {
		return p
	}
	w := common.DivCeil(p.Width, fx)
	h := common.DivCeil(p.Height, fy)
	out := common.NewPlane(w, h)
	for oy := 0; oy < h; oy++ {
		for ox := 0; ox < w; ox++ {
			sum, n := 0, 0
			for y := oy * fy; y < min(oy*fy+fy, p.Height); y++ {
				for x := ox * fx; x < min(ox*fx+fx, p.Width); x++ {
					sum += int(p.Pix[y*p.Stride+x])
					n++
				}
			}
			out.Pix[oy*w+ox] = byte((sum + n/2) / n)
		}
	}
	return out
}

// Upsample expands a component plane with sampling factors (h, v) to
// width x height, the resolution of factors (maxH, maxV), by replicating samples.
func Upsample(p *common.Plane, width, height, h, v, maxH, maxV int) *common.Plane {
	if h == maxH && v == maxV && p.Width == width && p.Height == height {
		return p
	}
	out := common.NewPlane(width, height)
	for y := 0; y < height; y++ {
		sy := min(y*v/maxV, p.Height-1)
		src := p.Pix[sy*p.Stride:]
		dst := out.Pix[y*width : (y+1)*width]
		for x := range dst {
			dst[x] = src[min(x*h/maxH, p.Width-1)]
		}
	}
	return out
}

// MergeYCbCr converts full-resolution Y, Cb and Cr planes to interleaved RGB.
func MergeYCbCr(y, cb, cr *common.Plane) []byte {
	w, h := y.Width, y.Height
	rgb := make([]byte, w*h*3)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			o := j*w + i
			r, g, b := color.YCbCrToRGB(y.Pix[j*y.Stride+i], cb.Pix[j*cb.Stride+i], cr.Pix[j*cr.Stride+i])
			rgb[o*3], rgb[o*3+1], rgb[o*3+2] = r, g, b
		}
	}
	return rgb
}

// Interleave merges full-resolution planes into n-component pixels.
func Interleave(planes []*common.Plane) []byte {
	n := len(planes)
	w, h := planes[0].Width, planes[0].Height
	pix := make([]byte, w*h*n)
	for c, p := range planes {
		for j := 0; j < h; j++ {
			row := p.Pix[j*p.Stride : j*p.Stride+w]
			for i, v := range row {
				pix[(j*w+i)*n+c] = v
			}
		}
	}
	return pix
}
