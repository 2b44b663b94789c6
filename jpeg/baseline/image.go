package baseline

import (
	"image"
	"image/color"
	"io"

	"github.com/cocosip/go-jpeg-codec/jpeg/colorspace"
	"github.com/cocosip/go-jpeg-codec/jpeg/common"
	"github.com/cocosip/go-jpeg-codec/jpeg/frame"
)

// ycbcrRatios maps luma sampling factors (chroma 1x1) to Go subsample ratios.
var ycbcrRatios = map[[2]int]image.YCbCrSubsampleRatio{
	{1, 1}: image.YCbCrSubsampleRatio444,
	{2, 1}: image.YCbCrSubsampleRatio422,
	{2, 2}: image.YCbCrSubsampleRatio420,
	{1, 2}: image.YCbCrSubsampleRatio440,
	{4, 1}: image.YCbCrSubsampleRatio411,
	{4, 2}: image.YCbCrSubsampleRatio410,
}

// DecodeImage decodes a JPEG stream into an *image.Gray, *image.YCbCr or
// *image.CMYK. YCbCr frames whose sampling has no Go equivalent are
// returned as *image.RGBA.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, err := DecodeFrame(r)
	if err != nil {
		return nil, err
	}
	h := img.Header
	rect := image.Rect(0, 0, h.Width, h.Height)

	switch len(img.Planes) {
	case 1:
		out := image.NewGray(rect)
		copyPlane(out.Pix, out.Stride, img.Planes[0])
		return out, nil

	case 3:
		y, cb, cr := h.Components[0], h.Components[1], h.Components[2]
		if cb.H == 1 && cb.V == 1 && cr.H == 1 && cr.V == 1 {
			if ratio, ok := ycbcrRatios[[2]int{y.H, y.V}]; ok {
				out := image.NewYCbCr(rect, ratio)
				copyPlane(out.Y, out.YStride, img.Planes[0])
				copyPlane(out.Cb, out.CStride, img.Planes[1])
				copyPlane(out.Cr, out.CStride, img.Planes[2])
				return out, nil
			}
		}
		out := image.NewRGBA(rect)
		rgb := img.Interleave()
		for i := 0; i < h.Width*h.Height; i++ {
			copy(out.Pix[i*4:], rgb[i*3:i*3+3])
			out.Pix[i*4+3] = 0xFF
		}
		return out, nil

	default:
		out := image.NewCMYK(rect)
		copy(out.Pix, img.Interleave())
		return out, nil
	}
}

func copyPlane(dst []byte, stride int, p *common.Plane) {
	n := min(p.Width, stride)
	for y := 0; y < p.Height; y++ {
		off := y * stride
		if off+n > len(dst) {
			return
		}
		copy(dst[off:off+n], p.Pix[y*p.Stride:])
	}
}

// EncodeImage writes m as a baseline JPEG. Gray and CMYK images keep their
// components; *image.YCbCr keeps its sampling when it maps to JPEG factors;
// everything else is converted to YCbCr with the subsampling from opts.
func EncodeImage(w io.Writer, m image.Image, opts *Options) error {
	if opts == nil {
		opts = NewOptions()
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	quality := opts.Quality
	if quality == 0 {
		quality = DefaultQuality
	}
	enc, err := NewEncoder(quality)
	if err != nil {
		return err
	}

	b := m.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return common.ErrInvalidDimensions
	}

	var (
		planes []common.SampleBuffer
		comps  []frame.Component
	)
	switch src := m.(type) {
	case *image.Gray:
		planes = []common.SampleBuffer{&common.Plane{
			Width: width, Height: height, Stride: src.Stride,
			Pix: src.Pix[src.PixOffset(b.Min.X, b.Min.Y):],
		}}
		comps = []frame.Component{{ID: 1, H: 1, V: 1}}

	case *image.YCbCr:
		if fh, fv, ok := samplingOf(src.SubsampleRatio); ok && b.Min == (image.Point{}) {
			cw, ch := common.DivCeil(width, fh), common.DivCeil(height, fv)
			planes = []common.SampleBuffer{
				&common.Plane{Width: width, Height: height, Stride: src.YStride, Pix: src.Y},
				&common.Plane{Width: cw, Height: ch, Stride: src.CStride, Pix: src.Cb},
				&common.Plane{Width: cw, Height: ch, Stride: src.CStride, Pix: src.Cr},
			}
			comps = ycbcrComponents(fh, fv)
		}

	case *image.CMYK:
		pix := make([]byte, 0, width*height*4)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := src.PixOffset(b.Min.X, y)
			pix = append(pix, src.Pix[off:off+width*4]...)
		}
		for i, p := range colorspace.SplitComponents(pix, width, height, 4) {
			planes = append(planes, p)
			comps = append(comps, frame.Component{ID: byte(i + 1), H: 1, V: 1})
		}
	}

	if planes == nil {
		rgb := make([]byte, 0, width*height*3)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.RGBAModel.Convert(m.At(x, y)).(color.RGBA)
				rgb = append(rgb, c.R, c.G, c.B)
			}
		}
		fh, fv := opts.Subsampling.LumaFactors()
		y, cb, cr := colorspace.SplitRGB(rgb, width, height)
		planes = []common.SampleBuffer{y, colorspace.Subsample(cb, fh, fv), colorspace.Subsample(cr, fh, fv)}
		comps = ycbcrComponents(fh, fv)
	}

	hdr, err := frame.NewHeader(width, height, false, comps)
	if err != nil {
		return err
	}
	return enc.EncodePlanes(w, planes, hdr)
}

func ycbcrComponents(h, v int) []frame.Component {
	return []frame.Component{
		{ID: 1, H: h, V: v, Tq: 0},
		{ID: 2, H: 1, V: 1, Tq: 1},
		{ID: 3, H: 1, V: 1, Tq: 1},
	}
}

func samplingOf(ratio image.YCbCrSubsampleRatio) (h, v int, ok bool) {
	for f, r := range ycbcrRatios {
		if r == ratio {
			return f[0], f[1], true
		}
	}
	return 0, 0, false
}
