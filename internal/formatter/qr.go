package formatter

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the PNG edge length in pixels.
const DefaultQRSize = 256

// QRCodePNG encodes content as a PNG QR code of size x size pixels.
func QRCodePNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("empty content provided")
	}
	if size <= 0 {
		size = DefaultQRSize
	}

	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("generating qr code: %w", err)
	}

	png, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("encoding qr code: %w", err)
	}
	return png, nil
}

// QRCodeTerminal renders content as a QR code drawn with half-block characters, two
// modules per character row. Dark modules are drawn as spaces so the code reads
// correctly on dark terminal backgrounds.
func QRCodeTerminal(content string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("empty content provided")
	}

	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("generating qr code: %w", err)
	}

	matrix := qr.Bitmap()
	var b strings.Builder
	for y := 0; y < len(matrix); y += 2 {
		for x := range matrix[y] {
			top := matrix[y][x]
			bottom := y+1 < len(matrix) && matrix[y+1][x]
			switch {
			case top && bottom:
				b.WriteRune(' ')
			case top:
				b.WriteRune('▄')
			case bottom:
				b.WriteRune('▀')
			default:
				b.WriteRune('█')
			}
		}
		b.WriteByte('\n')
	}

	return b.String(), nil
}
