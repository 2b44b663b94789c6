package baseline

import (
	"bytes"
	"io"

	"github.com/cocosip/go-jpeg-codec/jpeg/colorspace"
	"github.com/cocosip/go-jpeg-codec/jpeg/common"
	"github.com/cocosip/go-jpeg-codec/jpeg/frame"
	"github.com/cocosip/go-jpeg-codec/jpeg/scan"
)

// Image is a decoded frame: one sample plane per component, each at that
// component's own resolution.
type Image struct {
	Header *frame.Header
	Planes []*common.Plane
}

// Config describes a JPEG stream without decoding its scans.
type Config struct {
	Width       int
	Height      int
	Components  int
	Progressive bool
}

// Decoder walks the marker segments of one JPEG stream.
type Decoder struct {
	r     *common.Reader
	state *frame.State
	mcu   *scan.Decoder
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:     common.NewReader(r),
		state: frame.NewState(),
	}
}

// DecodeFrame decodes a baseline or progressive JPEG stream into component planes.
func DecodeFrame(r io.Reader) (*Image, error) {
	return NewDecoder(r).Decode()
}

// ReadHeader parses the stream up to and including the frame header.
func ReadHeader(r io.Reader) (Config, error) {
	d := NewDecoder(r)
	if err := d.run(true); err != nil {
		return Config{}, err
	}
	h := d.state.Header
	return Config{
		Width:       h.Width,
		Height:      h.Height,
		Components:  len(h.Components),
		Progressive: h.Progressive,
	}, nil
}

// DecodeConfig is ReadHeader over an in-memory stream.
func DecodeConfig(jpegData []byte) (Config, error) {
	return ReadHeader(bytes.NewReader(jpegData))
}

// Decode decodes JPEG data into interleaved 8-bit pixels.
// Three-component frames are converted from YCbCr to RGB; four-component
// frames are returned as stored (CMYK).
func Decode(jpegData []byte) (pixelData []byte, width, height, components int, err error) {
	img, err := DecodeFrame(bytes.NewReader(jpegData))
	if err != nil {
		return nil, 0, 0, 0, err
	}
	h := img.Header
	return img.Interleave(), h.Width, h.Height, len(h.Components), nil
}

// Decode runs the marker state machine until EOI and reconstructs the image.
func (d *Decoder) Decode() (*Image, error) {
	if err := d.run(false); err != nil {
		return nil, err
	}

	var planes []*common.Plane
	if d.state.Header.Progressive {
		planes = d.mcu.Reconstruct()
	} else {
		planes = d.mcu.Planes()
	}
	return &Image{Header: d.state.Header, Planes: planes}, nil
}

// run dispatches marker segments. With headerOnly set it returns right after SOF.
func (d *Decoder) run(headerOnly bool) error {
	if err := d.r.ReadSOI(); err != nil {
		return err
	}

	for {
		m, err := d.r.Next()
		if err != nil {
			return err
		}

		switch m.Kind {
		case common.MarkerEOF:
			// A stream cut short after its first scan still yields an image.
			if !headerOnly && d.state.Scans > 0 {
				return nil
			}
			if d.state.Header == nil {
				return common.ErrMissingSOF
			}
			return common.ErrUnexpectedEOF
		case common.MarkerUnknown:
			if err := d.skipUnknown(m); err != nil {
				return err
			}
			continue
		}

		switch {
		case m.Marker == common.MarkerSOI:
			return common.FormatErrorf("unexpected SOI marker")

		case m.Marker == common.MarkerEOI:
			if d.state.Header == nil {
				return common.ErrMissingSOF
			}
			if d.state.Scans == 0 {
				return common.FormatErrorf("no scan before EOI")
			}
			return nil

		case common.IsSOF(m.Marker):
			if err := d.readFrame(m); err != nil {
				return err
			}
			if headerOnly {
				return nil
			}

		case m.Marker == common.MarkerDQT:
			data, err := d.r.ReadPayload(m.Length)
			if err != nil {
				return err
			}
			if err := d.state.ParseDQT(data); err != nil {
				return err
			}

		case m.Marker == common.MarkerDHT:
			data, err := d.r.ReadPayload(m.Length)
			if err != nil {
				return err
			}
			if err := d.state.ParseDHT(data); err != nil {
				return err
			}

		case m.Marker == common.MarkerDRI:
			if err := d.readRestartInterval(m); err != nil {
				return err
			}

		case m.Marker == common.MarkerSOS:
			if headerOnly {
				return common.ErrMissingSOF
			}
			if err := d.readScan(m); err != nil {
				return err
			}

		default:
			// APPn and COM
			if err := d.r.Skip(m.Length); err != nil {
				return err
			}
		}
	}
}

func (d *Decoder) readFrame(m common.MarkerResult) error {
	data, err := d.r.ReadPayload(m.Length)
	if err != nil {
		return err
	}
	h, err := frame.ParseSOF(m.Marker, data)
	if err != nil {
		return err
	}
	if err := d.state.SetFrame(h); err != nil {
		return err
	}
	d.mcu = scan.NewDecoder(d.state)
	return nil
}

func (d *Decoder) readRestartInterval(m common.MarkerResult) error {
	if m.Length != 2 {
		return common.FormatErrorf("DRI segment length %d, want 2", m.Length)
	}
	v, err := d.r.ReadUint16()
	if err != nil {
		return common.ErrUnexpectedEOF
	}
	if v != 0 {
		return common.FormatErrorf("restart intervals are not supported")
	}
	return nil
}

func (d *Decoder) readScan(m common.MarkerResult) error {
	data, err := d.r.ReadPayload(m.Length)
	if err != nil {
		return err
	}
	if d.state.Header != nil && !d.state.Header.Progressive && d.state.Scans > 0 {
		return common.FormatErrorf("baseline frame has more than one scan")
	}
	sc, err := d.state.ParseSOS(data)
	if err != nil {
		return err
	}

	br := d.r.BitReader()
	if err := d.mcu.DecodeScan(br, sc); err != nil {
		return err
	}
	br.SkipToMarker()
	return nil
}

// skipUnknown rejects the coding processes this decoder does not implement and
// skips any other segment that declares its length.
func (d *Decoder) skipUnknown(m common.MarkerResult) error {
	switch {
	case common.IsSOF(m.Marker):
		return common.FormatErrorf("unsupported frame type %s", common.MarkerName(m.Marker))
	case m.Marker == common.MarkerDAC:
		return common.FormatErrorf("arithmetic coding is not supported")
	case m.Marker == common.MarkerDHP, m.Marker == common.MarkerEXP:
		return common.FormatErrorf("hierarchical mode is not supported")
	case m.Marker == common.MarkerDNL:
		return common.FormatErrorf("DNL segments are not supported")
	case common.IsRST(m.Marker):
		return common.FormatErrorf("unexpected restart marker %s", common.MarkerName(m.Marker))
	case m.Length < 0:
		return common.FormatErrorf("unexpected marker %s", common.MarkerName(m.Marker))
	}
	return d.r.Skip(m.Length)
}

// Interleave returns the image as interleaved full-resolution pixels.
// Subsampled components are upsampled by replication; three components are
// converted from YCbCr to RGB.
func (img *Image) Interleave() []byte {
	if len(img.Planes) == 1 {
		p := img.Planes[0]
		if p.Stride == p.Width {
			return p.Pix[:p.Width*p.Height]
		}
		return colorspace.Interleave(img.Planes)
	}

	full := img.FullResolution()
	if len(full) == 3 {
		return colorspace.MergeYCbCr(full[0], full[1], full[2])
	}
	return colorspace.Interleave(full)
}

// FullResolution returns every component plane upsampled to the frame size.
func (img *Image) FullResolution() []*common.Plane {
	h := img.Header
	full := make([]*common.Plane, len(img.Planes))
	for i, p := range img.Planes {
		c := &h.Components[i]
		full[i] = colorspace.Upsample(p, h.Width, h.Height, c.H, c.V, h.MaxH, h.MaxV)
	}
	return full
}
