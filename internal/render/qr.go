package render

import (
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"
)

// QR genera la imagen del código con corrección de errores alta (el QR
// termina impreso en papel, conviene margen de daño).
func QR(content string, size int) (image.Image, error) {
	q, err := qrcode.New(content, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("render: qr encode: %w", err)
	}
	return q.Image(size), nil
}
