// Package avatar renders the default profile picture: the user's initial in
// white on a background colour picked from the user id.
package avatar

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"unicode"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	Size        = 200
	ContentType = "image/png"
	glyphScale  = 8
	fallback    = 'U'
)

var palette = [16]color.RGBA{
	{0xE5, 0x39, 0x35, 0xFF}, {0xD8, 0x1B, 0x60, 0xFF}, {0x8E, 0x24, 0xAA, 0xFF}, {0x5E, 0x35, 0xB1, 0xFF},
	{0x39, 0x49, 0xAB, 0xFF}, {0x1E, 0x88, 0xE5, 0xFF}, {0x03, 0x9B, 0xE5, 0xFF}, {0x00, 0xAC, 0xC1, 0xFF},
	{0x00, 0x89, 0x7B, 0xFF}, {0x43, 0xA0, 0x47, 0xFF}, {0x7C, 0xB3, 0x42, 0xFF}, {0xC0, 0xCA, 0x33, 0xFF},
	{0xF4, 0x51, 0x1E, 0xFF}, {0x6D, 0x4C, 0x41, 0xFF}, {0x75, 0x75, 0x75, 0xFF}, {0x54, 0x6E, 0x7A, 0xFF},
}

// Background returns the palette colour assigned to seed
func Background(seed string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return palette[h.Sum32()%uint32(len(palette))]
}

// FileName is the object name of a user's default avatar
func FileName(userID string) string {
	return fmt.Sprintf("default_avatar_%s.png", userID)
}

// Render draws the avatar and returns it PNG encoded
func Render(seed, initial string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: Background(seed)}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	glyph := image.NewRGBA(image.Rect(0, 0, face.Advance, face.Height))
	d := &font.Drawer{
		Dst:  glyph,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(string(Glyph(initial)))

	w, h := face.Advance*glyphScale, face.Height*glyphScale
	x0, y0 := (Size-w)/2, (Size-h)/2
	xdraw.NearestNeighbor.Scale(img, image.Rect(x0, y0, x0+w, y0+h), glyph, glyph.Bounds(), xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

// Glyph picks the rune drawn for initial. Letters the bitmap font lacks
// fall back to 'U'.
func Glyph(initial string) rune {
	for _, r := range initial {
		r = unicode.ToUpper(r)
		if hasGlyph(r) {
			return r
		}
		break
	}
	return fallback
}

func hasGlyph(r rune) bool {
	if r == unicode.ReplacementChar || unicode.IsSpace(r) {
		return false
	}
	for _, rng := range basicfont.Face7x13.Ranges {
		if r >= rng.Low && r < rng.High {
			return true
		}
	}
	return false
}
