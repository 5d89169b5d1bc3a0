package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/HammerMeetNail/conversando/internal/game"
	"github.com/HammerMeetNail/conversando/internal/models"
)

const (
	cardWidth   = 480
	cardHeight  = 640
	discRadius  = 170
	iconSize    = 40
	iconInset   = 32
	discPadding = 28
)

var (
	discColor = color.RGBA{0xFE, 0xE0, 0xC5, 0xFF}
	iconColor = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
)

var (
	fontOnce     sync.Once
	parsedFonts  map[string]*opentype.Font
	parsedFontEr error
)

// RenderCardPNG draws one face of a card: the category colour as background,
// the category icon in two corners, and the category name or the question
// centred on a light disc.
func RenderCardPNG(q models.ReflectionQuestion, face game.Face) ([]byte, error) {
	style := game.StyleFor(q.Category)

	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: style.RGBA}, image.Point{}, draw.Src)

	drawIcon(img, style.Icon, image.Rect(iconInset, iconInset, iconInset+iconSize, iconInset+iconSize), iconColor)
	drawIcon(img, style.Icon, image.Rect(
		cardWidth-iconInset-iconSize,
		cardHeight-iconInset-iconSize,
		cardWidth-iconInset,
		cardHeight-iconInset,
	), iconColor)

	center := image.Pt(cardWidth/2, cardHeight/2)
	fillDisc(img, center, discRadius, discColor)

	text, fontName, size, maxLines := q.Category, "bold", 30.0, 4
	if face == game.FaceQuestion {
		text, fontName, size, maxLines = q.Question, "regular", 20.0, 7
	}

	textFace, err := newFontFace(fontName, size)
	if err != nil {
		return nil, err
	}
	defer func() { _ = textFace.Close() }()

	half := textHalfWidth()
	textRect := image.Rect(center.X-half, center.Y-half, center.X+half, center.Y+half)

	lines := wrapText(textFace, text, textRect.Dx())
	lines = clampLines(textFace, lines, maxLines, textRect.Dx())
	drawWrappedText(img, textFace, textRect, lines, style.RGBA)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// textHalfWidth is half the side of the text square: the square inscribed in
// the disc, less padding.
func textHalfWidth() int {
	return discRadius*7071/10000 - discPadding
}

func newFontFace(name string, size float64) (*opentype.Face, error) {
	fontOnce.Do(func() {
		parsedFonts = map[string]*opentype.Font{}
		for n, ttf := range map[string][]byte{"regular": goregular.TTF, "bold": gobold.TTF} {
			f, err := opentype.Parse(ttf)
			if err != nil {
				parsedFontEr = err
				return
			}
			parsedFonts[n] = f
		}
	})
	if parsedFontEr != nil {
		return nil, fmt.Errorf("parse font: %w", parsedFontEr)
	}
	parsed, ok := parsedFonts[name]
	if !ok {
		return nil, fmt.Errorf("unknown font %q", name)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("load font face: %w", err)
	}
	otFace, ok := face.(*opentype.Face)
	if !ok {
		return nil, fmt.Errorf("load font face: unexpected type")
	}
	return otFace, nil
}

func drawText(img draw.Image, face font.Face, x, y int, text string, clr color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(clr),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func wrapText(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	d := &font.Drawer{Face: face}
	lines := []string{}
	current := words[0]

	for _, word := range words[1:] {
		test := current + " " + word
		if d.MeasureString(test).Ceil() <= maxWidth {
			current = test
			continue
		}
		lines = append(lines, current)
		current = word
	}
	lines = append(lines, current)
	return lines
}

func clampLines(face font.Face, lines []string, maxLines int, maxWidth int) []string {
	if len(lines) <= maxLines {
		return lines
	}
	lines = lines[:maxLines]
	last := lines[maxLines-1]
	ellipsis := "..."
	d := &font.Drawer{Face: face}

	runes := []rune(last)
	for d.MeasureString(string(runes)+ellipsis).Ceil() > maxWidth && len(runes) > 0 {
		runes = runes[:len(runes)-1]
	}
	lines[maxLines-1] = strings.TrimSpace(string(runes)) + ellipsis
	return lines
}

func drawWrappedText(img draw.Image, face font.Face, rect image.Rectangle, lines []string, clr color.Color) {
	if len(lines) == 0 {
		return
	}
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	textHeight := lineHeight * len(lines)
	startY := rect.Min.Y + (rect.Dy()-textHeight)/2 + metrics.Ascent.Ceil()

	for i, line := range lines {
		lineWidth := font.MeasureString(face, line).Ceil()
		x := rect.Min.X + (rect.Dx()-lineWidth)/2
		y := startY + i*lineHeight
		drawText(img, face, x, y, line, clr)
	}
}

func fillDisc(img *image.RGBA, c image.Point, r int, clr color.RGBA) {
	for y := c.Y - r; y <= c.Y+r; y++ {
		for x := c.X - r; x <= c.X+r; x++ {
			dx, dy := x-c.X, y-c.Y
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, clr)
			}
		}
	}
}

func fillTriangle(img *image.RGBA, a, b, c image.Point, clr color.RGBA) {
	minX, maxX := minInt(a.X, minInt(b.X, c.X)), maxInt(a.X, maxInt(b.X, c.X))
	minY, maxY := minInt(a.Y, minInt(b.Y, c.Y)), maxInt(a.Y, maxInt(b.Y, c.Y))
	edge := func(p, q, r image.Point) int {
		return (q.X-p.X)*(r.Y-p.Y) - (q.Y-p.Y)*(r.X-p.X)
	}
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := image.Pt(x, y)
			w0, w1, w2 := edge(b, c, p), edge(c, a, p), edge(a, b, p)
			if (w0 >= 0 && w1 >= 0 && w2 >= 0) || (w0 <= 0 && w1 <= 0 && w2 <= 0) {
				img.SetRGBA(x, y, clr)
			}
		}
	}
}

// drawIcon paints a flat glyph of the icon inside rect.
func drawIcon(img *image.RGBA, icon game.Icon, rect image.Rectangle, clr color.RGBA) {
	size := rect.Dx()
	switch icon {
	case game.IconMoon:
		r := size / 2
		c := image.Pt(rect.Min.X+r, rect.Min.Y+r)
		bg := img.RGBAAt(c.X, c.Y)
		fillDisc(img, c, r, clr)
		fillDisc(img, image.Pt(c.X+r/2, c.Y-r/3), r*4/5, bg)
	case game.IconHeart:
		r := size / 4
		fillDisc(img, image.Pt(rect.Min.X+r, rect.Min.Y+r+r/2), r, clr)
		fillDisc(img, image.Pt(rect.Max.X-r, rect.Min.Y+r+r/2), r, clr)
		fillTriangle(img,
			image.Pt(rect.Min.X, rect.Min.Y+r*2),
			image.Pt(rect.Max.X, rect.Min.Y+r*2),
			image.Pt(rect.Min.X+size/2, rect.Max.Y),
			clr)
	default:
		fillTriangle(img,
			image.Pt(rect.Min.X+size/2, rect.Min.Y),
			image.Pt(rect.Max.X, rect.Max.Y),
			image.Pt(rect.Min.X, rect.Max.Y),
			clr)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
