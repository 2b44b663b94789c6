package baseline

import (
	"bytes"
	"io"

	"github.com/cocosip/go-jpeg-codec/jpeg/colorspace"
	"github.com/cocosip/go-jpeg-codec/jpeg/common"
	"github.com/cocosip/go-jpeg-codec/jpeg/frame"
	"github.com/cocosip/go-jpeg-codec/jpeg/scan"
)

// DefaultQuality is used when no quality is configured.
const DefaultQuality = 85

// jfifHeader is the APP0 body written ahead of gray and YCbCr frames:
// JFIF 1.01, no density units, 1:1 aspect, no thumbnail.
var jfifHeader = []byte{'J', 'F', 'I', 'F', 0, 1, 1, 0, 0, 1, 0, 1, 0, 0}

// tableSet holds the quantization and Huffman tables of one table class
// (0 = luminance, 1 = chrominance).
type tableSet struct {
	quant [64]int32
	dc    *common.HuffmanTable
	ac    *common.HuffmanTable
}

// Encoder writes baseline JPEG streams at a fixed quality.
type Encoder struct {
	quality int
	classes [2]tableSet
}

// NewEncoder builds the scaled quantization tables for quality (1-100) and
// the standard Huffman tables.
func NewEncoder(quality int) (*Encoder, error) {
	lum, err := common.ScaleQuantTable(common.DefaultLuminanceQuantTable, quality)
	if err != nil {
		return nil, err
	}
	chrom, err := common.ScaleQuantTable(common.DefaultChrominanceQuantTable, quality)
	if err != nil {
		return nil, err
	}

	enc := &Encoder{quality: quality}
	enc.classes[0] = tableSet{
		quant: lum,
		dc:    common.BuildStandardHuffmanTable(common.StandardDCLuminanceBits, common.StandardDCLuminanceValues),
		ac:    common.BuildStandardHuffmanTable(common.StandardACLuminanceBits, common.StandardACLuminanceValues),
	}
	enc.classes[1] = tableSet{
		quant: chrom,
		dc:    common.BuildStandardHuffmanTable(common.StandardDCChrominanceBits, common.StandardDCChrominanceValues),
		ac:    common.BuildStandardHuffmanTable(common.StandardACChrominanceBits, common.StandardACChrominanceValues),
	}
	return enc, nil
}

// Encode encodes pixel data to JPEG Baseline format
// components: 1 for grayscale, 3 for RGB, 4 for CMYK
// quality: 1-100, where 100 is best quality
// RGB input is converted to YCbCr with 4:2:0 chroma subsampling.
func Encode(pixelData []byte, width, height, components, quality int) ([]byte, error) {
	return encodeInterleaved(pixelData, width, height, components, quality, colorspace.Ratio420, false)
}

// EncodeSubsampled is Encode with an explicit chroma subsampling for RGB input.
func EncodeSubsampled(pixelData []byte, width, height, components, quality int, ratio colorspace.Subsampling) ([]byte, error) {
	return encodeInterleaved(pixelData, width, height, components, quality, ratio, false)
}

// EncodeYCbCr encodes interleaved pixels that are already YCbCr, subsampling
// chroma by ratio.
func EncodeYCbCr(pixelData []byte, width, height, quality int, ratio colorspace.Subsampling) ([]byte, error) {
	return encodeInterleaved(pixelData, width, height, 3, quality, ratio, true)
}

func encodeInterleaved(pixelData []byte, width, height, components, quality int, ratio colorspace.Subsampling, ycc bool) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, common.ErrInvalidDimensions
	}
	if components != 1 && components != 3 && components != 4 {
		return nil, common.ErrInvalidComponents
	}
	enc, err := NewEncoder(quality)
	if err != nil {
		return nil, err
	}
	if len(pixelData) < width*height*components {
		return nil, common.ErrBufferTooSmall
	}

	var (
		planes []common.SampleBuffer
		comps  []frame.Component
	)
	switch components {
	case 1:
		p := &common.Plane{Width: width, Height: height, Stride: width, Pix: pixelData[:width*height]}
		planes = []common.SampleBuffer{p}
		comps = []frame.Component{{ID: 1, H: 1, V: 1}}
	case 3:
		var y, cb, cr *common.Plane
		if ycc {
			split := colorspace.SplitComponents(pixelData, width, height, 3)
			y, cb, cr = split[0], split[1], split[2]
		} else {
			y, cb, cr = colorspace.SplitRGB(pixelData, width, height)
		}
		h, v := ratio.LumaFactors()
		planes = []common.SampleBuffer{y, colorspace.Subsample(cb, h, v), colorspace.Subsample(cr, h, v)}
		comps = ycbcrComponents(h, v)
	case 4:
		for i, p := range colorspace.SplitComponents(pixelData, width, height, 4) {
			planes = append(planes, p)
			comps = append(comps, frame.Component{ID: byte(i + 1), H: 1, V: 1})
		}
	}

	hdr, err := frame.NewHeader(width, height, false, comps)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := enc.EncodePlanes(&buf, planes, hdr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePlanes writes a baseline stream for hdr from pre-converted,
// pre-subsampled component planes. Components with quantization table 0 use
// the luminance tables, all others the chrominance tables.
func EncodePlanes(w io.Writer, planes []common.SampleBuffer, hdr *frame.Header, quality int) error {
	enc, err := NewEncoder(quality)
	if err != nil {
		return err
	}
	return enc.EncodePlanes(w, planes, hdr)
}

// EncodePlanes writes one complete baseline stream. Nothing is written if the
// planes do not match hdr.
func (enc *Encoder) EncodePlanes(w io.Writer, planes []common.SampleBuffer, hdr *frame.Header) error {
	if hdr.Progressive {
		return common.FormatErrorf("progressive encoding is not supported")
	}
	if len(planes) != len(hdr.Components) {
		return common.ErrInvalidComponents
	}
	for i, p := range planes {
		c := &hdr.Components[i]
		if err := common.CheckSampleBuffer(p, c.Width, c.Height); err != nil {
			return common.FormatErrorf("plane %d: %v", i, err)
		}
	}

	// Work on a copy so the caller's table selectors are left alone.
	h := *hdr
	h.Components = append([]frame.Component(nil), hdr.Components...)
	var used [2]bool
	tables := make([]scan.ComponentTables, len(h.Components))
	for i := range h.Components {
		c := &h.Components[i]
		class := 0
		if c.Tq != 0 {
			class = 1
		}
		c.Tq, c.Td, c.Ta = class, class, class
		used[class] = true
		ts := &enc.classes[class]
		tables[i] = scan.ComponentTables{Quant: &ts.quant, DC: ts.dc, AC: ts.ac}
	}

	writer := common.NewWriter(w)
	if err := enc.writeHeaders(writer, &h, used); err != nil {
		return err
	}

	all := make([]int, len(h.Components))
	for i := range all {
		all[i] = i
	}
	sos := &frame.Scan{Components: all, ZigEnd: 63}
	if err := writer.WriteSegment(common.MarkerSOS, sos.SOSPayload(&h)); err != nil {
		return err
	}

	mcu, err := scan.NewEncoder(writer.BitWriter(), &h, tables)
	if err != nil {
		return err
	}
	if err := mcu.EncodeFrame(planes); err != nil {
		return err
	}

	if err := writer.WriteMarker(common.MarkerEOI); err != nil {
		return err
	}
	return writer.Flush()
}

// writeHeaders writes SOI through the Huffman tables.
func (enc *Encoder) writeHeaders(writer *common.Writer, h *frame.Header, used [2]bool) error {
	if err := writer.WriteMarker(common.MarkerSOI); err != nil {
		return err
	}
	if len(h.Components) != 4 {
		if err := writer.WriteSegment(common.MarkerAPP0, jfifHeader); err != nil {
			return err
		}
	}

	for class, ok := range used {
		if !ok {
			continue
		}
		if err := writer.WriteDQT(class, &enc.classes[class].quant); err != nil {
			return err
		}
	}

	if err := writer.WriteSegment(h.SOFMarker(), h.SOFPayload()); err != nil {
		return err
	}

	for class, ok := range used {
		if !ok {
			continue
		}
		ts := &enc.classes[class]
		if err := writer.WriteDHT(0, class, ts.dc); err != nil {
			return err
		}
		if err := writer.WriteDHT(1, class, ts.ac); err != nil {
			return err
		}
	}
	return nil
}
