package baseline

import (
	"github.com/cocosip/go-jpeg-codec/codec"
	"github.com/cocosip/go-jpeg-codec/jpeg/colorspace"
)

// Codec implements the codec.Codec interface for JPEG Baseline.
// Decode also accepts progressive streams.
type Codec struct{}

// NewCodec creates a new JPEG Baseline codec
func NewCodec() *Codec {
	return &Codec{}
}

// Encode encodes pixel data using JPEG Baseline
func (c *Codec) Encode(params codec.EncodeParams) ([]byte, error) {
	if params.BitDepth != 0 && params.BitDepth != 8 {
		return nil, codec.ErrUnsupportedFormat
	}

	opts := NewOptions()
	if params.Options != nil {
		o, ok := params.Options.(*Options)
		if !ok {
			return nil, codec.ErrInvalidParameter
		}
		if err := o.Validate(); err != nil {
			return nil, err
		}
		opts = o
	}

	quality := opts.Quality
	if quality == 0 {
		quality = DefaultQuality
	}
	return EncodeSubsampled(
		params.PixelData,
		params.Width,
		params.Height,
		params.Components,
		quality,
		opts.Subsampling,
	)
}

// Decode decodes JPEG Baseline data
func (c *Codec) Decode(data []byte) (*codec.DecodeResult, error) {
	pixelData, width, height, components, err := Decode(data)
	if err != nil {
		return nil, err
	}

	return &codec.DecodeResult{
		PixelData:  pixelData,
		Width:      width,
		Height:     height,
		Components: components,
		BitDepth:   8,
	}, nil
}

// UID returns the DICOM Transfer Syntax UID for JPEG Baseline
func (c *Codec) UID() string {
	return "1.2.840.10008.1.2.4.50"
}

// Name returns the human-readable name
func (c *Codec) Name() string {
	return "jpeg-baseline"
}

// Options contains encoding options for JPEG Baseline.
// A zero Quality selects DefaultQuality.
type Options struct {
	codec.BaseOptions
	Subsampling colorspace.Subsampling
}

// NewOptions returns options with the default quality and 4:2:0 subsampling.
func NewOptions() *Options {
	return &Options{
		BaseOptions: codec.BaseOptions{Quality: DefaultQuality},
		Subsampling: colorspace.Ratio420,
	}
}

// Validate validates the options
func (o *Options) Validate() error {
	if err := o.BaseOptions.Validate(); err != nil {
		return err
	}
	switch o.Subsampling {
	case colorspace.Ratio420, colorspace.Ratio422, colorspace.Ratio444:
		return nil
	}
	return codec.ErrInvalidParameter
}

// Register registers this codec with the global registry
func init() {
	codec.Register(NewCodec())
}
