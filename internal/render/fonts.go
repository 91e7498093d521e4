package render

import (
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// Fuentes script/manuscritas preferidas, en orden. Son las típicas de
// instalaciones de escritorio; en servers suele no haber ninguna y se usa
// el fallback embebido.
var defaultFontPaths = []string{
	"/usr/share/fonts/truetype/lucida/LucidaHandwriting.ttf",
	"/usr/share/fonts/truetype/msttcorefonts/Brush_Script_MT.ttf",
	"/usr/share/fonts/truetype/edwardian/EdwardianScriptITC.ttf",
	"/usr/share/fonts/truetype/corsiva/MonotypeCorsiva.ttf",
	"/usr/share/fonts/truetype/segoe/SegoeScript.ttf",
	"/usr/share/fonts/opentype/urw-base35/Z003-MediumItalic.otf",
}

// loadBestFace intenta la lista de fuentes en orden y cae a la bold
// embebida (gobold) si ninguna está disponible.
func loadBestFace(paths []string, size float64) (font.Face, error) {
	if len(paths) == 0 {
		paths = defaultFontPaths
	}
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		fnt, err := opentype.Parse(b)
		if err != nil {
			continue
		}
		face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			continue
		}
		return face, nil
	}

	fnt, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
