// Package qrcode renders target URLs as QR code images for the info page.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

const (
	// DefaultSize is the edge length in pixels of generated images.
	DefaultSize = 256
	// MaxSize caps the edge length of generated images.
	MaxSize = 1024
)

var ErrEmptyContent = errors.New("qr content is empty")

// PNG encodes content as a QR code PNG of size x size pixels. Sizes above
// MaxSize are clamped.
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	png, err := qr.Encode(content, qr.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

// DataURI returns content as a QR code PNG embedded in a data URI, ready for
// an <img src>.
func DataURI(content string, size int) (string, error) {
	png, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
