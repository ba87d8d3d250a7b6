package services

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// EntryQRSize is the PNG edge length in pixels
const EntryQRSize = 256

// EntryQRCode returns a PNG data URI that encodes the order number for door scanning
func EntryQRCode(orderNumber string) (string, error) {
	png, err := qrcode.Encode(orderNumber, qrcode.Medium, EntryQRSize)
	if err != nil {
		return "", fmt.Errorf("failed to encode entry QR: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
