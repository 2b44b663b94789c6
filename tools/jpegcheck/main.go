// Command jpegcheck prints the frame header of a JPEG stream, decodes it and
// reports per-component sample statistics. DICOM files with encapsulated
// JPEG pixel data are checked frame by frame.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cocosip/go-dicom/pkg/dicom/element"
	"github.com/cocosip/go-dicom/pkg/dicom/parser"
	"github.com/cocosip/go-dicom/pkg/dicom/tag"
	"github.com/cocosip/go-dicom/pkg/imaging/codec"

	"github.com/cocosip/go-jpeg-codec/jpeg/baseline"
	"github.com/cocosip/go-jpeg-codec/jpeg/common"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: jpegcheck <image.jpg|image.dcm> ...")
		os.Exit(2)
	}

	failed := false
	for _, path := range os.Args[1:] {
		var err error
		if strings.EqualFold(filepath.Ext(path), ".dcm") {
			err = checkDICOM(path)
		} else {
			err = checkFile(path)
		}
		if err != nil {
			fmt.Printf("ERROR: %s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func checkFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d bytes)\n", path, len(data))
	return checkStream(data)
}

func checkDICOM(path string) error {
	result, err := parser.ParseFile(path, parser.WithReadOption(parser.ReadAll))
	if err != nil {
		return fmt.Errorf("failed to parse: %w", err)
	}

	ds := result.Dataset
	ts := result.TransferSyntax
	rows := ds.TryGetUInt16(tag.Rows, 0)
	cols := ds.TryGetUInt16(tag.Columns, 0)

	fmt.Printf("%s\n", path)
	fmt.Printf("  Transfer Syntax: %s\n", ts.UID().UID())
	fmt.Printf("  Dimensions: %d x %d\n", cols, rows)
	if c, ok := codec.GetGlobalRegistry().GetCodec(ts); ok {
		fmt.Printf("  Registered codec: %s\n", c.Name())
	}

	if !ts.IsEncapsulated() {
		fmt.Println("  Pixel data is not encapsulated, nothing to decode")
		return nil
	}

	pd, ok := ds.Get(tag.PixelData)
	if !ok {
		return fmt.Errorf("no PixelData element found")
	}
	var fragments [][]byte
	switch v := pd.(type) {
	case *element.OtherByteFragment:
		for _, frag := range v.Fragments() {
			fragments = append(fragments, frag.Data())
		}
	case *element.OtherWordFragment:
		for _, frag := range v.Fragments() {
			fragments = append(fragments, frag.Data())
		}
	default:
		return fmt.Errorf("unexpected pixel data type: %T", pd)
	}

	frames := splitFrames(fragments)
	fmt.Printf("  Frames: %d\n", len(frames))
	for i, f := range frames {
		fmt.Printf("Frame %d (%d bytes)\n", i, len(f))
		if err := checkStream(f); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

// splitFrames groups encapsulated fragments into JPEG streams: every fragment
// starting with SOI begins a new frame, the others continue the current one.
// Fragments before the first SOI, such as the basic offset table, are dropped.
func splitFrames(fragments [][]byte) [][]byte {
	var frames [][]byte
	for _, frag := range fragments {
		if bytes.HasPrefix(frag, []byte{0xFF, 0xD8}) {
			frames = append(frames, append([]byte(nil), frag...))
			continue
		}
		if n := len(frames); n > 0 {
			frames[n-1] = append(frames[n-1], frag...)
		}
	}
	return frames
}

func checkStream(data []byte) error {
	cfg, err := baseline.DecodeConfig(data)
	if err != nil {
		return err
	}
	mode := "baseline"
	if cfg.Progressive {
		mode = "progressive"
	}
	fmt.Printf("  %s, %d x %d, %d component(s)\n", mode, cfg.Width, cfg.Height, cfg.Components)

	img, err := baseline.DecodeFrame(bytes.NewReader(data))
	if err != nil {
		return err
	}
	for i, p := range img.Planes {
		c := img.Header.Components[i]
		s := planeStats(p)
		fmt.Printf("  component %d: id=%d sampling=%dx%d plane=%dx%d range=[%d, %d] mean=%.2f\n",
			i, c.ID, c.H, c.V, p.Width, p.Height, s.min, s.max, s.mean)
	}
	return nil
}

type stats struct {
	min, max byte
	mean     float64
}

func planeStats(p *common.Plane) stats {
	s := stats{min: 255}
	total := 0
	for y := 0; y < p.Height; y++ {
		for _, v := range p.Pix[y*p.Stride : y*p.Stride+p.Width] {
			s.min = min(s.min, v)
			s.max = max(s.max, v)
			total += int(v)
		}
	}
	if n := p.Width * p.Height; n > 0 {
		s.mean = float64(total) / float64(n)
	}
	return s
}
