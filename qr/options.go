// Package qr turns text and rendering options into an encoded QR image.
//
// Symbol construction is delegated to github.com/skip2/go-qrcode. This package
// rasterises the module matrix with a quiet-zone margin, a target pixel width
// and custom colours, then encodes it as PNG, JPEG or WEBP.
package qr

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Level is a QR error-correction level.
type Level string

const (
	LevelLow      Level = "L"
	LevelMedium   Level = "M"
	LevelQuartile Level = "Q"
	LevelHigh     Level = "H"
)

// LevelOption pairs a level with its display label.
type LevelOption struct {
	Value Level  `json:"value"`
	Label string `json:"label"`
}

// LevelOptions lists the selectable levels in display order.
var LevelOptions = []LevelOption{
	{Value: LevelLow, Label: "Low (L)"},
	{Value: LevelMedium, Label: "Medium (M)"},
	{Value: LevelQuartile, Label: "Quartile (Q)"},
	{Value: LevelHigh, Label: "High (H)"},
}

// LookupLevel returns the option for v. Unknown values resolve to High, and
// ok reports whether v was recognised.
func LookupLevel(v string) (opt LevelOption, ok bool) {
	for _, o := range LevelOptions {
		if string(o.Value) == strings.ToUpper(strings.TrimSpace(v)) {
			return o, true
		}
	}
	return LevelOptions[len(LevelOptions)-1], false
}

func (l Level) recovery() (qrcode.RecoveryLevel, error) {
	switch l {
	case LevelLow:
		return qrcode.Low, nil
	case LevelMedium:
		return qrcode.Medium, nil
	case LevelQuartile:
		return qrcode.High, nil
	case LevelHigh:
		return qrcode.Highest, nil
	}
	return 0, fmt.Errorf("unknown error correction level %q", string(l))
}

// Format is an output image MIME type.
type Format string

const (
	FormatPNG  Format = "image/png"
	FormatJPEG Format = "image/jpeg"
	FormatWEBP Format = "image/webp"
)

// ParseFormat accepts a MIME type ("image/png") or a bare name ("png", "JPEG").
func ParseFormat(s string) (Format, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "image/")
	switch v {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "webp":
		return FormatWEBP, nil
	}
	return "", invalidOption(fmt.Sprintf("unsupported image type %q", s), nil)
}

// Extension is the MIME subtype, used as the download file extension.
func (f Format) Extension() string {
	_, ext, _ := strings.Cut(string(f), "/")
	return ext
}

// Options are the user-editable encoding options.
type Options struct {
	Text            string  `json:"text" yaml:"-"`
	ErrorCorrection Level   `json:"error_correction" yaml:"error_correction"`
	Format          Format  `json:"type" yaml:"type"`
	Quality         float64 `json:"quality" yaml:"quality"`
	Margin          int     `json:"margin" yaml:"margin"`
	Width           int     `json:"width" yaml:"width"`
	Foreground      string  `json:"foreground" yaml:"foreground"`
	Background      string  `json:"background" yaml:"background"`
}

// DefaultOptions returns the options a fresh form starts with.
func DefaultOptions() Options {
	return Options{
		ErrorCorrection: LevelHigh,
		Format:          FormatJPEG,
		Quality:         0.3,
		Margin:          1,
		Width:           240,
		Foreground:      "#000000",
		Background:      "#FFFFFF",
	}
}

// Normalized resolves format and level aliases ("png", "h") to their
// canonical values. Unknown values are left for Validate to reject.
func (o Options) Normalized() Options {
	if f, err := ParseFormat(string(o.Format)); err == nil {
		o.Format = f
	}
	if opt, ok := LookupLevel(string(o.ErrorCorrection)); ok {
		o.ErrorCorrection = opt.Value
	}
	return o
}

// Validate checks every option except the text.
func (o Options) Validate() error {
	if _, err := o.ErrorCorrection.recovery(); err != nil {
		return invalidOption("invalid error correction level", err)
	}
	if _, err := ParseFormat(string(o.Format)); err != nil {
		return err
	}
	if o.Margin < 0 {
		return invalidOption(fmt.Sprintf("margin must be non-negative, got %d", o.Margin), nil)
	}
	if o.Margin > MaxSide/2 {
		return invalidOption(fmt.Sprintf("margin %d exceeds %d", o.Margin, MaxSide/2), nil)
	}
	if o.Width <= 0 {
		return invalidOption(fmt.Sprintf("width must be positive, got %d", o.Width), nil)
	}
	if o.Width > MaxSide {
		return invalidOption(fmt.Sprintf("width %d exceeds %d", o.Width, MaxSide), nil)
	}
	if _, err := ParseColor(o.Foreground); err != nil {
		return invalidOption("invalid foreground colour", err)
	}
	if _, err := ParseColor(o.Background); err != nil {
		return invalidOption("invalid background colour", err)
	}
	return nil
}

// ParseColor parses "#RGB", "#RGBA", "#RRGGBB" or "#RRGGBBAA".
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3, 4:
		var b strings.Builder
		for _, r := range hex {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		hex = b.String()
	case 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
