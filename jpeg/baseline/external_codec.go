package baseline

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cocosip/go-dicom/pkg/dicom/transfer"
	"github.com/cocosip/go-dicom/pkg/imaging/codec"
	"github.com/cocosip/go-dicom/pkg/imaging/imagetypes"

	"github.com/cocosip/go-jpeg-codec/jpeg/common"
)

var _ codec.Codec = (*BaselineCodec)(nil)

// BaselineCodec implements the go-dicom codec.Codec interface for
// JPEG Baseline (Process 1). Decoding also accepts progressive frames.
type BaselineCodec struct {
	quality int
}

// NewBaselineCodec creates a new JPEG Baseline codec
// quality: 1-100, where 100 is best quality (default 85)
func NewBaselineCodec(quality int) *BaselineCodec {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &BaselineCodec{quality: quality}
}

// Name returns the codec name
func (c *BaselineCodec) Name() string {
	return fmt.Sprintf("JPEG Baseline (Quality %d)", c.quality)
}

// TransferSyntax returns the transfer syntax this codec handles
func (c *BaselineCodec) TransferSyntax() *transfer.Syntax {
	return transfer.JPEGBaseline8Bit
}

// GetDefaultParameters returns the default codec parameters
func (c *BaselineCodec) GetDefaultParameters() codec.Parameters {
	return NewBaselineParameters().WithQuality(c.quality)
}

func (c *BaselineCodec) resolveParameters(parameters codec.Parameters) *JPEGBaselineParameters {
	if parameters == nil {
		return NewBaselineParameters().WithQuality(c.quality)
	}
	if bp, ok := parameters.(*JPEGBaselineParameters); ok {
		bp.Validate()
		return bp
	}

	// Fallback: create from generic parameters
	bp := NewBaselineParameters().WithQuality(c.quality)
	if q := parameters.GetParameter("quality"); q != nil {
		if qInt, ok := q.(int); ok && qInt >= 1 && qInt <= 100 {
			bp.Quality = qInt
		}
	}
	if s := parameters.GetParameter("subsampling"); s != nil {
		bp.SetParameter("subsampling", s)
	}
	return bp
}

// Encode encodes pixel data using JPEG Baseline
func (c *BaselineCodec) Encode(oldPixelData imagetypes.PixelData, newPixelData imagetypes.PixelData, parameters codec.Parameters) error {
	frameInfo := oldPixelData.GetFrameInfo()
	if frameInfo == nil {
		return fmt.Errorf("failed to get frame info from source pixel data")
	}
	if frameInfo.BitsStored > 8 {
		return fmt.Errorf("JPEG Baseline supports at most 8 bits stored, got %d", frameInfo.BitsStored)
	}

	params := c.resolveParameters(parameters)
	width := int(frameInfo.Width)
	height := int(frameInfo.Height)
	components := int(frameInfo.SamplesPerPixel)
	signed := common.SignedSamples(int(frameInfo.PixelRepresentation), int(frameInfo.BitsStored))
	ybr := components == 3 && strings.HasPrefix(string(frameInfo.PhotometricInterpretation), "YBR")

	frameCount := oldPixelData.FrameCount()
	for frameIndex := 0; frameIndex < frameCount; frameIndex++ {
		frameData, err := oldPixelData.GetFrame(frameIndex)
		if err != nil {
			return fmt.Errorf("failed to get frame %d: %w", frameIndex, err)
		}
		if len(frameData) == 0 {
			return fmt.Errorf("frame %d pixel data is empty", frameIndex)
		}

		pix := frameData
		switch {
		case components > 1 && frameInfo.PlanarConfiguration == 1:
			pix = interleavePlanar(pix, width*height, components)
		case signed:
			pix = append([]byte(nil), pix...)
		}
		if signed {
			common.ShiftSignedToUnsigned(pix)
		}

		var encoded []byte
		if ybr {
			encoded, err = EncodeYCbCr(pix, width, height, params.Quality, params.Subsampling)
		} else {
			encoded, err = EncodeSubsampled(pix, width, height, components, params.Quality, params.Subsampling)
		}
		if err != nil {
			return fmt.Errorf("JPEG Baseline encode failed for frame %d: %w", frameIndex, err)
		}

		if err := newPixelData.AddFrame(encoded); err != nil {
			return fmt.Errorf("failed to add encoded frame %d: %w", frameIndex, err)
		}
	}

	return nil
}

// Decode decodes JPEG Baseline or progressive data into interleaved pixels.
func (c *BaselineCodec) Decode(oldPixelData imagetypes.PixelData, newPixelData imagetypes.PixelData, parameters codec.Parameters) error {
	frameInfo := oldPixelData.GetFrameInfo()
	if frameInfo == nil {
		return fmt.Errorf("failed to get frame info from source pixel data")
	}
	signed := common.SignedSamples(int(frameInfo.PixelRepresentation), int(frameInfo.BitsStored))

	frameCount := oldPixelData.FrameCount()
	for frameIndex := 0; frameIndex < frameCount; frameIndex++ {
		frameData, err := oldPixelData.GetFrame(frameIndex)
		if err != nil {
			return fmt.Errorf("failed to get frame %d: %w", frameIndex, err)
		}

		img, err := DecodeFrame(bytes.NewReader(frameData))
		if err != nil {
			return fmt.Errorf("JPEG Baseline decode failed for frame %d: %w", frameIndex, err)
		}

		h := img.Header
		if h.Width != int(frameInfo.Width) || h.Height != int(frameInfo.Height) {
			return fmt.Errorf("decoded dimensions (%dx%d) don't match expected (%dx%d)",
				h.Width, h.Height, frameInfo.Width, frameInfo.Height)
		}
		if len(h.Components) != int(frameInfo.SamplesPerPixel) {
			return fmt.Errorf("decoded components (%d) don't match expected (%d)",
				len(h.Components), frameInfo.SamplesPerPixel)
		}

		pixelData := img.Interleave()
		if signed {
			common.ShiftUnsignedToSigned(pixelData)
		}

		if err := newPixelData.AddFrame(pixelData); err != nil {
			return fmt.Errorf("failed to add decoded frame %d: %w", frameIndex, err)
		}
	}

	return nil
}

// interleavePlanar converts color-by-plane samples (PlanarConfiguration 1)
// to color-by-pixel order.
func interleavePlanar(planar []byte, pixels, components int) []byte {
	out := make([]byte, pixels*components)
	for c := 0; c < components; c++ {
		src := planar[c*pixels : min((c+1)*pixels, len(planar))]
		for i, v := range src {
			out[i*components+c] = v
		}
	}
	return out
}

// RegisterBaselineCodec registers JPEG Baseline codec with the global registry
// quality: 1-100 (default 85)
func RegisterBaselineCodec(quality int) {
	c := NewBaselineCodec(quality)
	registry := codec.GetGlobalRegistry()
	registry.RegisterCodec(transfer.JPEGBaseline8Bit, c)
}

func init() {
	RegisterBaselineCodec(DefaultQuality)
}
