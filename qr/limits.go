package qr

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Limits bounds the work a single encode may do. Zero values disable a check.
type Limits struct {
	MaxTextLength int
	MaxWidth      int
}

// Check returns a CodeInvalidOption error when opts exceed l. MaxWidth bounds
// the side of the produced image, which a large margin can push past the
// requested width.
func (l Limits) Check(opts Options) error {
	if l.MaxTextLength > 0 {
		if n := utf8.RuneCountInString(opts.Text); n > l.MaxTextLength {
			return invalidOption(fmt.Sprintf("text is %d characters, limit is %d", n, l.MaxTextLength), nil)
		}
	}
	if l.MaxWidth > 0 && opts.Width > l.MaxWidth {
		return invalidOption(fmt.Sprintf("width %d exceeds limit %d", opts.Width, l.MaxWidth), nil)
	}
	if l.MaxWidth > 0 && strings.TrimSpace(opts.Text) != "" {
		// Invalid options are left for the encoder to report.
		if side, err := Side(opts); err == nil && side > l.MaxWidth {
			return invalidOption(fmt.Sprintf("image side %d exceeds limit %d", side, l.MaxWidth), nil)
		}
	}
	return nil
}

// WithLimits returns an Encoder that rejects options exceeding l before
// calling next.
func WithLimits(next Encoder, l Limits) Encoder {
	return EncoderFunc(func(ctx context.Context, opts Options) (*Image, error) {
		if err := l.Check(opts); err != nil {
			return nil, err
		}
		return next.Encode(ctx, opts)
	})
}
