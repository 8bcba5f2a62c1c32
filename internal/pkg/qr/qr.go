package qr

import (
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const DefaultSize = 320

// PNG кодирует content в QR-код. size в пикселях, 0 значит DefaultSize
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qr: empty content")
	}
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr: encode: %w", err)
	}
	return png, nil
}
