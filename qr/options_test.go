package qr

import (
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#000000", color.NRGBA{A: 255}},
		{"#FFFFFF", color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{"#f00", color.NRGBA{R: 255, A: 255}},
		{"#0f08", color.NRGBA{G: 255, A: 0x88}},
		{"12345678", color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0x78}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "#12", "#12345", "#gggggg", "red"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) expected error", bad)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"png":        FormatPNG,
		"image/png":  FormatPNG,
		"JPEG":       FormatJPEG,
		"jpg":        FormatJPEG,
		"image/webp": FormatWEBP,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("gif"); CodeOf(err) != CodeInvalidOption {
		t.Errorf("expected %s for gif, got %v", CodeInvalidOption, err)
	}
}

func TestFormatExtension(t *testing.T) {
	if FormatPNG.Extension() != "png" || FormatJPEG.Extension() != "jpeg" || FormatWEBP.Extension() != "webp" {
		t.Fatal("unexpected extension mapping")
	}
	if Filename(FormatJPEG) != "qrcode.jpeg" {
		t.Errorf("unexpected filename %s", Filename(FormatJPEG))
	}
}

func TestLookupLevel(t *testing.T) {
	opt, ok := LookupLevel("q")
	if !ok || opt.Value != LevelQuartile || opt.Label != "Quartile (Q)" {
		t.Errorf("unexpected option for q: %+v, %v", opt, ok)
	}
	opt, ok = LookupLevel("Z")
	if ok || opt.Value != LevelHigh || opt.Label != "High (H)" {
		t.Errorf("expected High fallback, got %+v, %v", opt, ok)
	}
}

func TestDefaultOptionsValid(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("default options invalid: %v", err)
	}
}

func TestNormalized(t *testing.T) {
	opts := Options{ErrorCorrection: "q", Format: "webp"}.Normalized()
	if opts.ErrorCorrection != LevelQuartile || opts.Format != FormatWEBP {
		t.Errorf("unexpected normalized options %+v", opts)
	}

	opts = Options{ErrorCorrection: "Z", Format: "gif"}.Normalized()
	if opts.ErrorCorrection != "Z" || opts.Format != "gif" {
		t.Errorf("unknown values should be left as is, got %+v", opts)
	}
}
