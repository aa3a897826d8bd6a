package qr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/skip2/go-qrcode"
)

const (
	// fallbackScale is used when the requested width cannot fit the symbol.
	fallbackScale = 4

	// defaultQuality matches the browser default for lossy data URLs.
	defaultQuality = 0.92
)

// MaxSide is the largest image side in pixels Encode will allocate.
const MaxSide = 8192

// Image is an encoded QR image.
type Image struct {
	Format  Format `json:"type"`
	Data    []byte `json:"-"`
	Width   int    `json:"width"`
	Modules int    `json:"modules"`
}

// DataURI renders the image as a self-contained data URI.
func (img *Image) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", img.Format, base64.StdEncoding.EncodeToString(img.Data))
}

// Filename is the download name for the image, e.g. "qrcode.png".
func (img *Image) Filename() string {
	return Filename(img.Format)
}

// Filename returns the download name for an image of format f.
func Filename(f Format) string {
	return "qrcode." + f.Extension()
}

// Encoder produces images from options. Encode is the package-level
// implementation.
type Encoder interface {
	Encode(ctx context.Context, opts Options) (*Image, error)
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(ctx context.Context, opts Options) (*Image, error)

// Encode calls f(ctx, opts).
func (f EncoderFunc) Encode(ctx context.Context, opts Options) (*Image, error) {
	return f(ctx, opts)
}

// Default is the Encoder backed by Encode.
var Default Encoder = EncoderFunc(Encode)

// Encode builds the QR symbol for opts.Text and renders it according to opts.
func Encode(ctx context.Context, opts Options) (*Image, error) {
	if strings.TrimSpace(opts.Text) == "" {
		return nil, ErrEmptyText
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	format, _ := ParseFormat(string(opts.Format))
	level, _ := opts.ErrorCorrection.recovery()
	dark, _ := ParseColor(opts.Foreground)
	light, _ := ParseColor(opts.Background)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	code, err := qrcode.New(opts.Text, level)
	if err != nil {
		return nil, encodeFailed("build qr symbol", err)
	}
	code.DisableBorder = true
	modules := code.Bitmap()

	if _, side := layout(len(modules), opts.Margin, opts.Width); side > MaxSide {
		return nil, invalidOption(fmt.Sprintf("image side %d exceeds %d", side, MaxSide), nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := rasterize(modules, opts.Margin, opts.Width, dark, light)

	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(opts.Quality)})
	case FormatWEBP:
		err = nativewebp.Encode(&buf, img, nil)
	}
	if err != nil {
		return nil, encodeFailed(fmt.Sprintf("encode %s", format.Extension()), err)
	}

	return &Image{
		Format:  format,
		Data:    buf.Bytes(),
		Width:   img.Bounds().Dx(),
		Modules: len(modules),
	}, nil
}

// Side returns the side in pixels of the image Encode would produce for opts.
// It builds the symbol but does not rasterize it.
func Side(opts Options) (int, error) {
	if err := opts.Validate(); err != nil {
		return 0, err
	}
	level, _ := opts.ErrorCorrection.recovery()
	code, err := qrcode.New(opts.Text, level)
	if err != nil {
		return 0, encodeFailed("build qr symbol", err)
	}
	code.DisableBorder = true
	_, side := layout(len(code.Bitmap()), opts.Margin, opts.Width)
	return side, nil
}

// layout returns the pixels-per-module and the image side for a symbol of
// size modules. The side equals width whenever the symbol fits in it.
func layout(size, margin, width int) (scale float64, side int) {
	total := size + margin*2
	if width >= total {
		return float64(width) / float64(total), width
	}
	return fallbackScale, total * fallbackScale
}

// rasterize draws modules into a square image. A pixel is dark only when it
// lies inside the margin band and maps to a set module.
func rasterize(modules [][]bool, margin, width int, dark, light color.NRGBA) *image.NRGBA {
	size := len(modules)
	scale, side := layout(size, margin, width)
	scaledMargin := float64(margin) * scale

	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			c := light
			fi, fj := float64(i), float64(j)
			if fi >= scaledMargin && fj >= scaledMargin &&
				fi < float64(side)-scaledMargin && fj < float64(side)-scaledMargin {
				row := int(math.Floor((fi - scaledMargin) / scale))
				col := int(math.Floor((fj - scaledMargin) / scale))
				if row < size && col < size && modules[row][col] {
					c = dark
				}
			}
			img.SetNRGBA(j, i, c)
		}
	}
	return img
}

// jpegQuality maps a [0,1] quality to the image/jpeg [1,100] range.
func jpegQuality(q float64) int {
	if math.IsNaN(q) || q < 0 || q > 1 {
		q = defaultQuality
	}
	v := int(math.Round(q * 100))
	if v < 1 {
		v = 1
	}
	return v
}
