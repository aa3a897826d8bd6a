package qr

import (
	"strings"

	"github.com/skip2/go-qrcode"
)

// Terminal renders text as a compact block-character QR code for a terminal.
func Terminal(text string, level Level, inverse bool) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	rl, err := level.recovery()
	if err != nil {
		return "", invalidOption("invalid error correction level", err)
	}
	code, err := qrcode.New(text, rl)
	if err != nil {
		return "", encodeFailed("build qr symbol", err)
	}
	return code.ToSmallString(inverse), nil
}
