package frame

import (
	"errors"
	"testing"

	"github.com/cocosip/go-jpeg-codec/jpeg/common"
)

func sofPayload(width, height int, comps ...[3]byte) []byte {
	data := []byte{8, byte(height >> 8), byte(height), byte(width >> 8), byte(width), byte(len(comps))}
	for _, c := range comps {
		data = append(data, c[0], c[1], c[2])
	}
	return data
}

func dqtPayload(id byte, v byte) []byte {
	data := []byte{id}
	for i := 0; i < 64; i++ {
		data = append(data, v)
	}
	return data
}

func dhtPayload(class, id byte) []byte {
	data := []byte{class<<4 | id}
	if class == 0 {
		for _, n := range common.StandardDCLuminanceBits {
			data = append(data, byte(n))
		}
		return append(data, common.StandardDCLuminanceValues...)
	}
	for _, n := range common.StandardACLuminanceBits {
		data = append(data, byte(n))
	}
	return append(data, common.StandardACLuminanceValues...)
}

func TestParseSOFGeometry(t *testing.T) {
	h, err := ParseSOF(common.MarkerSOF0, sofPayload(33, 17,
		[3]byte{1, 0x22, 0}, [3]byte{2, 0x11, 1}, [3]byte{3, 0x11, 1}))
	if err != nil {
		t.Fatalf("ParseSOF() error: %v", err)
	}

	if h.MaxH != 2 || h.MaxV != 2 {
		t.Errorf("MaxH/MaxV = %d/%d, want 2/2", h.MaxH, h.MaxV)
	}
	if h.MCUsPerLine != 3 || h.MCUsPerColumn != 2 {
		t.Errorf("MCU grid = %dx%d, want 3x2", h.MCUsPerLine, h.MCUsPerColumn)
	}

	y, cb := h.Components[0], h.Components[1]
	if y.Width != 33 || y.Height != 17 || y.BlocksPerLine != 6 || y.BlocksPerColumn != 4 {
		t.Errorf("Y component = %+v", y)
	}
	if cb.Width != 17 || cb.Height != 9 || cb.BlocksPerLine != 3 || cb.BlocksPerColumn != 2 {
		t.Errorf("Cb component = %+v", cb)
	}
	if cols, rows := cb.ScanBlocks(); cols != 3 || rows != 2 {
		t.Errorf("Cb ScanBlocks() = %dx%d, want 3x2", cols, rows)
	}
	if cols, rows := y.ScanBlocks(); cols != 5 || rows != 3 {
		t.Errorf("Y ScanBlocks() = %dx%d, want 5x3", cols, rows)
	}
}

func TestParseSOFErrors(t *testing.T) {
	tests := []struct {
		name   string
		marker uint16
		data   []byte
	}{
		{"extended sequential", common.MarkerSOF1, sofPayload(8, 8, [3]byte{1, 0x11, 0})},
		{"lossless", common.MarkerSOF3, sofPayload(8, 8, [3]byte{1, 0x11, 0})},
		{"12-bit", common.MarkerSOF0, append([]byte{12}, sofPayload(8, 8, [3]byte{1, 0x11, 0})[1:]...)},
		{"zero width", common.MarkerSOF0, sofPayload(0, 8, [3]byte{1, 0x11, 0})},
		{"zero height", common.MarkerSOF0, sofPayload(8, 0, [3]byte{1, 0x11, 0})},
		{"two components", common.MarkerSOF0, sofPayload(8, 8, [3]byte{1, 0x11, 0}, [3]byte{2, 0x11, 0})},
		{"sampling 5", common.MarkerSOF0, sofPayload(8, 8, [3]byte{1, 0x51, 0})},
		{"sampling 0", common.MarkerSOF0, sofPayload(8, 8, [3]byte{1, 0x10, 0})},
		{"quant index 4", common.MarkerSOF0, sofPayload(8, 8, [3]byte{1, 0x11, 4})},
		{"duplicate id", common.MarkerSOF0, sofPayload(8, 8, [3]byte{1, 0x11, 0}, [3]byte{1, 0x11, 0}, [3]byte{3, 0x11, 0})},
		{"too many blocks", common.MarkerSOF0, sofPayload(8, 8, [3]byte{1, 0x44, 0}, [3]byte{2, 0x11, 0}, [3]byte{3, 0x11, 0})},
		{"truncated", common.MarkerSOF0, sofPayload(8, 8, [3]byte{1, 0x11, 0})[:7]},
		{"too large", common.MarkerSOF0, sofPayload(0xFFFF, 0xFFFF, [3]byte{1, 0x11, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSOF(tt.marker, tt.data)
			var fe *common.FormatError
			if !errors.As(err, &fe) {
				t.Errorf("ParseSOF() error = %v, want FormatError", err)
			}
		})
	}
}

func TestParseSOFPrecision(t *testing.T) {
	for _, p := range []byte{12, 16} {
		data := append([]byte{p}, sofPayload(8, 8, [3]byte{1, 0x11, 0})[1:]...)
		if _, err := ParseSOF(common.MarkerSOF0, data); !errors.Is(err, common.ErrInvalidPrecision) {
			t.Errorf("precision %d: error = %v, want ErrInvalidPrecision", p, err)
		}
	}
}

func TestSOFPayloadRoundTrip(t *testing.T) {
	data := sofPayload(640, 480, [3]byte{1, 0x22, 0}, [3]byte{2, 0x11, 1}, [3]byte{3, 0x11, 1})
	h, err := ParseSOF(common.MarkerSOF2, data)
	if err != nil {
		t.Fatal(err)
	}
	if string(h.SOFPayload()) != string(data) {
		t.Errorf("SOFPayload() = %x, want %x", h.SOFPayload(), data)
	}
	if h.SOFMarker() != common.MarkerSOF2 {
		t.Errorf("SOFMarker() = %#x", h.SOFMarker())
	}
}

func TestParseDQT(t *testing.T) {
	s := NewState()
	data := append(dqtPayload(0, 2), dqtPayload(3, 9)...)
	if err := s.ParseDQT(data); err != nil {
		t.Fatalf("ParseDQT() error: %v", err)
	}
	if s.Quant[0] == nil || s.Quant[0][10] != 2 || s.Quant[3] == nil || s.Quant[3][63] != 9 {
		t.Error("tables not stored")
	}

	// Redefinition replaces the slot.
	if err := s.ParseDQT(dqtPayload(0, 5)); err != nil {
		t.Fatal(err)
	}
	if s.Quant[0][0] != 5 {
		t.Errorf("redefined table[0] = %d, want 5", s.Quant[0][0])
	}

	bad := map[string][]byte{
		"16-bit":    dqtPayload(0x10, 1),
		"index 4":   dqtPayload(4, 1),
		"zero":      dqtPayload(0, 0),
		"truncated": dqtPayload(0, 1)[:40],
		"empty":     {},
	}
	for name, data := range bad {
		if err := s.ParseDQT(data); !errors.Is(err, common.ErrFormat) {
			t.Errorf("%s: ParseDQT() error = %v, want FormatError", name, err)
		}
	}
}

func TestParseDHT(t *testing.T) {
	s := NewState()
	data := append(dhtPayload(0, 1), dhtPayload(1, 3)...)
	if err := s.ParseDHT(data); err != nil {
		t.Fatalf("ParseDHT() error: %v", err)
	}
	if s.DC[1] == nil || s.AC[3] == nil || s.DC[0] != nil {
		t.Error("tables stored in wrong slots")
	}

	bad := map[string][]byte{
		"class 2":   dhtPayload(0, 0)[:1],
		"index 4":   append([]byte{0x04}, dhtPayload(0, 0)[1:]...),
		"truncated": dhtPayload(1, 0)[:30],
	}
	bad["class 2"][0] = 0x20
	for name, data := range bad {
		if err := s.ParseDHT(data); !errors.Is(err, common.ErrFormat) {
			t.Errorf("%s: ParseDHT() error = %v, want FormatError", name, err)
		}
	}
}

func newState(t *testing.T, marker uint16, comps ...[3]byte) *State {
	t.Helper()
	h, err := ParseSOF(marker, sofPayload(16, 16, comps...))
	if err != nil {
		t.Fatal(err)
	}
	s := NewState()
	if err := s.SetFrame(h); err != nil {
		t.Fatal(err)
	}
	if err := s.ParseDQT(dqtPayload(0, 1)); err != nil {
		t.Fatal(err)
	}
	if err := s.ParseDHT(append(dhtPayload(0, 0), dhtPayload(1, 0)...)); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestParseSOSBaseline(t *testing.T) {
	s := newState(t, common.MarkerSOF0, [3]byte{1, 0x11, 0}, [3]byte{2, 0x11, 0}, [3]byte{3, 0x11, 0})
	s.Header.Components[1].DCPred = 42

	scan, err := s.ParseSOS([]byte{3, 1, 0x00, 2, 0x00, 3, 0x00, 0, 63, 0})
	if err != nil {
		t.Fatalf("ParseSOS() error: %v", err)
	}
	if len(scan.Components) != 3 || scan.ZigEnd != 63 {
		t.Errorf("scan = %+v", scan)
	}
	if s.Header.Components[1].DCPred != 0 {
		t.Error("DC predictor not reset")
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"partial components", []byte{1, 1, 0x00, 0, 63, 0}},
		{"undefined DC table", []byte{3, 1, 0x10, 2, 0x00, 3, 0x00, 0, 63, 0}},
		{"undefined AC table", []byte{3, 1, 0x02, 2, 0x00, 3, 0x00, 0, 63, 0}},
		{"unknown component", []byte{3, 1, 0x00, 2, 0x00, 9, 0x00, 0, 63, 0}},
		{"repeated component", []byte{3, 1, 0x00, 1, 0x00, 3, 0x00, 0, 63, 0}},
		{"bad length", []byte{3, 1, 0x00, 2, 0x00, 3, 0x00, 0, 63}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ParseSOS(tt.data)
			var fe *common.FormatError
			if !errors.As(err, &fe) {
				t.Errorf("ParseSOS() error = %v, want FormatError", err)
			}
		})
	}
}

func TestParseSOSUndefinedQuantTable(t *testing.T) {
	s := newState(t, common.MarkerSOF0, [3]byte{1, 0x11, 2})
	if _, err := s.ParseSOS([]byte{1, 1, 0x00, 0, 63, 0}); !errors.Is(err, common.ErrFormat) {
		t.Errorf("ParseSOS() error = %v, want FormatError", err)
	}
}

func TestParseSOSBeforeSOF(t *testing.T) {
	s := NewState()
	if _, err := s.ParseSOS([]byte{1, 1, 0x00, 0, 63, 0}); !errors.Is(err, common.ErrMissingSOF) {
		t.Errorf("ParseSOS() error = %v, want ErrMissingSOF", err)
	}
}

func TestParseSOSProgressive(t *testing.T) {
	tests := []struct {
		name    string
		scans   [][]byte
		wantErr bool
	}{
		{
			name: "valid script",
			scans: [][]byte{
				{3, 1, 0x00, 2, 0x00, 3, 0x00, 0, 0, 0x01},
				{1, 1, 0x00, 1, 5, 0x02},
				{1, 1, 0x00, 6, 63, 0x01},
				{1, 1, 0x00, 1, 5, 0x21},
				{1, 1, 0x00, 1, 5, 0x10},
				{1, 1, 0x00, 6, 63, 0x10},
				{3, 1, 0x00, 2, 0x00, 3, 0x00, 0, 0, 0x10},
			},
		},
		{name: "DC with AC band", scans: [][]byte{{3, 1, 0x00, 2, 0x00, 3, 0x00, 0, 5, 0}}, wantErr: true},
		{name: "interleaved AC", scans: [][]byte{{3, 1, 0x00, 2, 0x00, 3, 0x00, 1, 5, 0}}, wantErr: true},
		{name: "two of three components", scans: [][]byte{{2, 1, 0x00, 2, 0x00, 0, 0, 0}}, wantErr: true},
		{name: "start after end", scans: [][]byte{{1, 1, 0x00, 9, 5, 0}}, wantErr: true},
		{name: "end past 63", scans: [][]byte{{1, 1, 0x00, 1, 64, 0}}, wantErr: true},
		{name: "refine without first scan", scans: [][]byte{{1, 1, 0x00, 1, 5, 0x10}}, wantErr: true},
		{name: "Al not Ah-1", scans: [][]byte{{1, 1, 0x00, 1, 5, 0x02}, {1, 1, 0x00, 1, 5, 0x20}}, wantErr: true},
		{name: "Ah skips a bit", scans: [][]byte{{1, 1, 0x00, 1, 5, 0x02}, {1, 1, 0x00, 1, 5, 0x10}}, wantErr: true},
		{name: "band coded twice", scans: [][]byte{{1, 1, 0x00, 1, 5, 0}, {1, 1, 0x00, 3, 9, 0}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t, common.MarkerSOF2, [3]byte{1, 0x22, 0}, [3]byte{2, 0x11, 0}, [3]byte{3, 0x11, 0})
			var err error
			for _, data := range tt.scans {
				if _, err = s.ParseSOS(data); err != nil {
					break
				}
			}
			if tt.wantErr {
				if !errors.Is(err, common.ErrFormat) {
					t.Errorf("ParseSOS() error = %v, want FormatError", err)
				}
			} else if err != nil {
				t.Errorf("ParseSOS() error: %v", err)
			}
		})
	}
}

func TestDCRefineNeedsNoHuffmanTable(t *testing.T) {
	h, _ := ParseSOF(common.MarkerSOF2, sofPayload(8, 8, [3]byte{1, 0x11, 0}))
	s := NewState()
	_ = s.SetFrame(h)
	_ = s.ParseDQT(dqtPayload(0, 1))
	_ = s.ParseDHT(dhtPayload(0, 0))

	if _, err := s.ParseSOS([]byte{1, 1, 0x00, 0, 0, 0x01}); err != nil {
		t.Fatal(err)
	}
	// Refinement reads raw bits; table 3 is never consulted.
	if _, err := s.ParseSOS([]byte{1, 1, 0x30, 0, 0, 0x10}); err != nil {
		t.Errorf("DC refine scan error: %v", err)
	}
}

func TestCoefficientPlaneLazy(t *testing.T) {
	s := newState(t, common.MarkerSOF2, [3]byte{1, 0x22, 0}, [3]byte{2, 0x11, 0}, [3]byte{3, 0x11, 0})
	if s.Coefficients[1] != nil {
		t.Fatal("plane allocated before first reference")
	}
	plane := s.CoefficientPlane(0)
	if len(plane) != 4 {
		t.Errorf("Y plane has %d blocks, want 4", len(plane))
	}
	if len(s.CoefficientPlane(1)) != 1 {
		t.Errorf("Cb plane has %d blocks, want 1", len(s.CoefficientPlane(1)))
	}
	s.ReleaseCoefficients()
	if s.Coefficients[0] != nil {
		t.Error("planes not released")
	}
}

func TestSetFrameTwice(t *testing.T) {
	s := newState(t, common.MarkerSOF0, [3]byte{1, 0x11, 0})
	if err := s.SetFrame(s.Header); !errors.Is(err, common.ErrFormat) {
		t.Errorf("SetFrame() error = %v, want FormatError", err)
	}
}

func TestComponentQuantSnapshot(t *testing.T) {
	s := newState(t, common.MarkerSOF2, [3]byte{1, 0x11, 0}, [3]byte{2, 0x11, 0}, [3]byte{3, 0x11, 0})
	if s.ComponentQuant(0) != nil {
		t.Fatal("quantization table bound before the first scan")
	}

	if _, err := s.ParseSOS([]byte{1, 1, 0x00, 0, 0, 0x00}); err != nil {
		t.Fatal(err)
	}
	// A table redefined between scans does not affect components already scanned.
	if err := s.ParseDQT(dqtPayload(0, 7)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ParseSOS([]byte{1, 2, 0x00, 0, 0, 0x00}); err != nil {
		t.Fatal(err)
	}

	if got := s.ComponentQuant(0)[0]; got != 1 {
		t.Errorf("component 1 quant[0] = %d, want 1", got)
	}
	if got := s.ComponentQuant(1)[0]; got != 7 {
		t.Errorf("component 2 quant[0] = %d, want 7", got)
	}
	if s.ComponentQuant(2) != nil {
		t.Error("component 3 bound without a scan")
	}
}
