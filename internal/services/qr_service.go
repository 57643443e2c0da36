package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const qrSize = 256

// QRService renders an employee's issued code as a QR image.
type QRService interface {
	Render(code string) ([]byte, error)
	RenderBase64(code string) (string, []byte, error)
}

type qrService struct {
	size int
}

func NewQRService() QRService {
	return &qrService{size: qrSize}
}

// Render returns the code as a square PNG.
func (s *qrService) Render(code string) ([]byte, error) {
	if code == "" {
		return nil, fmt.Errorf("cannot render an empty code")
	}
	symbol, err := qr.Encode(code, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	symbol, err = barcode.Scale(symbol, s.size, s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to scale QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, symbol); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderBase64 returns the PNG both raw and base64 encoded.
func (s *qrService) RenderBase64(code string) (string, []byte, error) {
	data, err := s.Render(code)
	if err != nil {
		return "", nil, err
	}
	return base64.StdEncoding.EncodeToString(data), data, nil
}
