package qr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func testOptions(text string) Options {
	opts := DefaultOptions()
	opts.Text = text
	return opts
}

func TestEncodeEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := Encode(context.Background(), testOptions(text))
		if !errors.Is(err, ErrEmptyText) {
			t.Errorf("Encode(%q) error = %v, want ErrEmptyText", text, err)
		}
	}
}

func TestEncodePNGWidth(t *testing.T) {
	opts := testOptions("https://example.com")
	opts.Format = FormatPNG
	opts.Width = 300
	opts.Margin = 2

	img, err := Encode(context.Background(), opts)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if img.Format != FormatPNG {
		t.Fatalf("expected format %s, got %s", FormatPNG, img.Format)
	}
	decoded, err := png.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if got := decoded.Bounds().Dx(); got != 300 {
		t.Errorf("expected width 300, got %d", got)
	}
	if img.Width != 300 {
		t.Errorf("expected Image.Width 300, got %d", img.Width)
	}
	if img.Modules < 21 {
		t.Errorf("expected at least 21 modules, got %d", img.Modules)
	}
}

func TestEncodeSmallWidthFallsBackToScale(t *testing.T) {
	opts := testOptions("hello")
	opts.Format = FormatPNG
	opts.Width = 5
	opts.Margin = 0

	img, err := Encode(context.Background(), opts)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if want := img.Modules * fallbackScale; img.Width != want {
		t.Errorf("expected width %d, got %d", want, img.Width)
	}
}

func TestEncodeColors(t *testing.T) {
	opts := testOptions("colours")
	opts.Format = FormatPNG
	opts.Margin = 4
	opts.Width = 290
	opts.Foreground = "#ff0000"
	opts.Background = "#00ff00"

	img, err := Encode(context.Background(), opts)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}

	// The top-left corner is in the quiet zone, the finder pattern's first
	// module starts right after it.
	corner := color.NRGBAModel.Convert(decoded.At(0, 0)).(color.NRGBA)
	if corner != (color.NRGBA{R: 0, G: 255, B: 0, A: 255}) {
		t.Errorf("expected background in margin, got %v", corner)
	}
	scale := float64(opts.Width) / float64(img.Modules+2*opts.Margin)
	inside := int(float64(opts.Margin)*scale) + 1
	finder := color.NRGBAModel.Convert(decoded.At(inside, inside)).(color.NRGBA)
	if finder != (color.NRGBA{R: 255, G: 0, B: 0, A: 255}) {
		t.Errorf("expected foreground on finder pattern, got %v", finder)
	}
}

func TestEncodeJPEG(t *testing.T) {
	img, err := Encode(context.Background(), testOptions("jpeg please"))
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(img.Data)); err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
	if img.Filename() != "qrcode.jpeg" {
		t.Errorf("expected qrcode.jpeg, got %s", img.Filename())
	}
}

func TestEncodeWEBP(t *testing.T) {
	opts := testOptions("webp please")
	opts.Format = FormatWEBP

	img, err := Encode(context.Background(), opts)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(img.Data) < 12 || string(img.Data[0:4]) != "RIFF" || string(img.Data[8:12]) != "WEBP" {
		t.Fatalf("output is not a RIFF/WEBP container")
	}
	if !strings.HasPrefix(img.DataURI(), "data:image/webp;base64,") {
		t.Errorf("unexpected data uri prefix: %.30s", img.DataURI())
	}
	if img.Filename() != "qrcode.webp" {
		t.Errorf("expected qrcode.webp, got %s", img.Filename())
	}
}

func TestEncodeTooLong(t *testing.T) {
	opts := testOptions(strings.Repeat("x", 4000))
	opts.ErrorCorrection = LevelHigh

	_, err := Encode(context.Background(), opts)
	if CodeOf(err) != CodeEncodeFailed {
		t.Fatalf("expected %s, got %v", CodeEncodeFailed, err)
	}
}

func TestEncodeInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"level", func(o *Options) { o.ErrorCorrection = "X" }},
		{"format", func(o *Options) { o.Format = "image/gif" }},
		{"margin", func(o *Options) { o.Margin = -1 }},
		{"width", func(o *Options) { o.Width = 0 }},
		{"foreground", func(o *Options) { o.Foreground = "black" }},
		{"background", func(o *Options) { o.Background = "#12345" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions("valid")
			tt.modify(&opts)
			_, err := Encode(context.Background(), opts)
			if CodeOf(err) != CodeInvalidOption {
				t.Errorf("expected %s, got %v", CodeInvalidOption, err)
			}
		})
	}
}

func TestEncodeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Encode(ctx, testOptions("late")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRasterizeMargin(t *testing.T) {
	modules := [][]bool{
		{true, false},
		{false, true},
	}
	dark := color.NRGBA{A: 255}
	light := color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	img := rasterize(modules, 1, 8, dark, light)
	if img.Bounds() != image.Rect(0, 0, 8, 8) {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	// scale is 2: margin covers pixels 0-1 and 6-7.
	checks := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, light},
		{2, 2, dark},
		{3, 3, dark},
		{4, 2, light},
		{4, 4, dark},
		{7, 7, light},
	}
	for _, c := range checks {
		if got := img.NRGBAAt(c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestJPEGQuality(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0.3, 30},
		{1, 100},
		{0, 1},
		{-1, 92},
		{1.5, 92},
	}
	for _, tt := range tests {
		if got := jpegQuality(tt.in); got != tt.want {
			t.Errorf("jpegQuality(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("hello", LevelLow, false)
	if err != nil {
		t.Fatalf("Terminal() failed: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Fatal("expected terminal output")
	}
	if _, err := Terminal(" ", LevelLow, false); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestWithLimits(t *testing.T) {
	calls := 0
	next := EncoderFunc(func(ctx context.Context, opts Options) (*Image, error) {
		calls++
		return &Image{Format: opts.Format}, nil
	})
	enc := WithLimits(next, Limits{MaxTextLength: 5, MaxWidth: 100})

	opts := testOptions("héllo")
	opts.Width = 100
	if _, err := enc.Encode(context.Background(), opts); err != nil {
		t.Fatalf("expected options within limits to pass, got %v", err)
	}

	opts.Text = "hello!"
	if _, err := enc.Encode(context.Background(), opts); CodeOf(err) != CodeInvalidOption {
		t.Errorf("expected text limit error, got %v", err)
	}

	opts.Text = "hello"
	opts.Width = 101
	if _, err := enc.Encode(context.Background(), opts); CodeOf(err) != CodeInvalidOption {
		t.Errorf("expected width limit error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call to the wrapped encoder, got %d", calls)
	}
}

func TestWithLimitsBoundsMarginGrowth(t *testing.T) {
	calls := 0
	next := EncoderFunc(func(ctx context.Context, opts Options) (*Image, error) {
		calls++
		return &Image{Format: opts.Format}, nil
	})
	enc := WithLimits(next, Limits{MaxWidth: 4096})

	// Width 10 cannot hold the symbol, so the fallback scale applies and the
	// margin drives the side to (21+1200)*4 pixels.
	opts := testOptions("hello")
	opts.Width = 10
	opts.Margin = 600
	side, err := Side(opts)
	if err != nil {
		t.Fatalf("Side: %v", err)
	}
	if side <= 4096 {
		t.Fatalf("expected side above 4096, got %d", side)
	}
	if _, err := enc.Encode(context.Background(), opts); CodeOf(err) != CodeInvalidOption {
		t.Errorf("expected side limit error, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected the wrapped encoder not to run, got %d calls", calls)
	}
}

func TestEncodeRejectsOversizedImage(t *testing.T) {
	tests := []struct {
		name   string
		margin int
		width  int
	}{
		{"huge margin", 1 << 30, 240},
		{"max int margin", int(^uint(0) >> 1), 240},
		{"fallback side over ceiling", 1100, 10},
		{"width over ceiling", 1, MaxSide + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions("hello")
			opts.Margin = tt.margin
			opts.Width = tt.width
			img, err := Encode(context.Background(), opts)
			if CodeOf(err) != CodeInvalidOption {
				t.Errorf("expected INVALID_OPTION, got %v", err)
			}
			if img != nil {
				t.Error("expected no image")
			}
		})
	}
}

func TestEncodeAtMaxSide(t *testing.T) {
	opts := testOptions("hello")
	opts.Format = FormatPNG
	opts.Width = MaxSide
	side, err := Side(opts)
	if err != nil || side != MaxSide {
		t.Fatalf("Side = %d, %v; want %d", side, err, MaxSide)
	}
}
