package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	_ "embed"
	_ "image/jpeg"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var (
	// ErrBadTemplate indica que el template no se pudo decodificar.
	ErrBadTemplate = errors.New("render: template decode failed")

	// ErrEncode indica que el documento final no se pudo codificar.
	ErrEncode = errors.New("render: document encode failed")
)

//go:embed assets/default_certificate.png
var defaultTemplate []byte

// Coordenadas de alta resolución (escala 2x para generación rápida).
// El template original se asume 1024x768 → escalado a 2048x1536.
const (
	scaleFactor = 2.0
	nameCenterX = 512 * scaleFactor // centro X del nombre
	nameCenterY = 410 * scaleFactor // baseline Y del nombre
	nameVSize   = 48 * scaleFactor  // tamaño de fuente del nombre
	qrSize      = 100 * scaleFactor // lado del QR compuesto
	qrMargin    = 60 * scaleFactor  // margen del QR (dentro del borde)
	qrPad       = 5                 // padding del recuadro blanco

	// Ancho de página PDF en puntos (A4 apaisado); el alto se deriva de
	// la relación de aspecto de la imagen.
	pdfPageWidth = 842.0
)

// Config del renderer.
type Config struct {
	// FontPaths es la lista ordenada de fuentes script/manuscritas a
	// intentar. Si ninguna carga, cae a la fuente bold embebida.
	FontPaths []string
}

// Renderer compone certificados. Es seguro para uso concurrente: la
// cara opentype comparte buffers internos entre glyphs, así que el
// dibujado de texto se serializa con faceMu.
type Renderer struct {
	faceMu sync.Mutex
	face   font.Face
}

// New construye un Renderer resolviendo la fuente una sola vez.
func New(cfg Config) (*Renderer, error) {
	face, err := loadBestFace(cfg.FontPaths, nameVSize)
	if err != nil {
		return nil, fmt.Errorf("render: load font: %w", err)
	}
	return &Renderer{face: face}, nil
}

// DefaultTemplate retorna el PNG del template embebido (también usado
// para el preview del frontend).
func DefaultTemplate() []byte {
	out := make([]byte, len(defaultTemplate))
	copy(out, defaultTemplate)
	return out
}

// Render compone el certificado y retorna el PDF de una página.
// template puede ser nil/vacío: se usa el default embebido. qr puede ser
// nil: el certificado sale sin QR (solo para previews).
// Nunca retorna bytes parciales junto con un error.
func (r *Renderer) Render(template []byte, participantName string, qr image.Image) ([]byte, error) {
	if participantName == "" {
		return nil, fmt.Errorf("render: empty participant name")
	}
	if len(template) == 0 {
		template = defaultTemplate
	}

	src, _, err := image.Decode(bytes.NewReader(template))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTemplate, err)
	}

	// Upscale 2x con interpolación suave para que el texto y el QR no
	// queden pixelados al imprimir.
	sb := src.Bounds()
	w := int(float64(sb.Dx()) * scaleFactor)
	h := int(float64(sb.Dy()) * scaleFactor)
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(canvas, canvas.Bounds(), src, sb, draw.Over, nil)

	r.drawName(canvas, participantName)

	if qr != nil {
		drawQR(canvas, qr)
	}

	return encodePDF(canvas)
}

// drawName centra el nombre horizontalmente en el anchor fijo. El anchor
// vertical es el mismo para todos los nombres. La cara no soporta uso
// concurrente, de ahí el lock.
func (r *Renderer) drawName(dst *image.RGBA, name string) {
	r.faceMu.Lock()
	defer r.faceMu.Unlock()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: r.face,
	}
	width := d.MeasureString(name)
	d.Dot = fixed.Point26_6{
		X: fixed.I(nameCenterX) - width/2,
		Y: fixed.I(nameCenterY),
	}
	d.DrawString(name)
}

// drawQR compone el QR en la esquina superior derecha dentro de un
// recuadro blanco con padding.
func drawQR(dst *image.RGBA, qr image.Image) {
	qrX := dst.Bounds().Dx() - qrSize - qrMargin
	qrY := int(qrMargin)

	pad := image.Rect(qrX-qrPad, qrY-qrPad, qrX+qrSize+qrPad, qrY+qrSize+qrPad)
	draw.Draw(dst, pad, image.White, image.Point{}, draw.Src)

	box := image.Rect(qrX, qrY, qrX+qrSize, qrY+qrSize)
	draw.NearestNeighbor.Scale(dst, box, qr, qr.Bounds(), draw.Over, nil)
}

// encodePDF envuelve el raster en una página cuyo alto preserva la
// relación de aspecto.
func encodePDF(img *image.RGBA) ([]byte, error) {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	pageW := pdfPageWidth
	pageH := pageW / float64(img.Bounds().Dx()) * float64(img.Bounds().Dy())

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.AddPage()

	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("certificate", opt, &pngBuf)
	pdf.ImageOptions("certificate", 0, 0, pageW, pageH, false, opt, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return out.Bytes(), nil
}
