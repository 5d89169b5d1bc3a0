package services

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/HammerMeetNail/conversando/internal/game"
	"github.com/HammerMeetNail/conversando/internal/models"
)

func TestClampLines_TruncatesWithValidUTF8(t *testing.T) {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}

	original := "¿Qué recuerdo de tu niñez te hace sonreír todavía?"
	maxWidth := d.MeasureString("¿Qué recuerdo...").Ceil()

	lines := []string{original, "unused"}
	out := clampLines(face, lines, 1, maxWidth)
	if len(out) != 1 {
		t.Fatalf("expected 1 line, got %d", len(out))
	}
	if !strings.HasSuffix(out[0], "...") {
		t.Fatalf("expected ellipsis suffix, got %q", out[0])
	}
	if !utf8.ValidString(out[0]) {
		t.Fatalf("expected valid UTF-8, got %q", out[0])
	}
	if !strings.HasPrefix(out[0], "¿Qu") {
		t.Fatalf("expected some original content preserved, got %q", out[0])
	}
}

func TestWrapText_SplitsOnWidth(t *testing.T) {
	face := basicfont.Face7x13
	lines := wrapText(face, "uno dos tres cuatro", 7*8)
	if len(lines) < 2 {
		t.Fatalf("expected text to wrap, got %v", lines)
	}
	if got := wrapText(face, "   ", 100); len(got) != 0 {
		t.Fatalf("expected no lines for blank text, got %v", got)
	}
}

func TestRenderCardPNG(t *testing.T) {
	q := models.ReflectionQuestion{
		Question: "¿Qué pequeño gesto cotidiano te hace sentir querido?",
		Category: "Cotidiano",
	}

	for _, face := range []game.Face{game.FaceCategory, game.FaceQuestion} {
		data, err := RenderCardPNG(q, face)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", face, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s: invalid png: %v", face, err)
		}
		if img.Bounds().Dx() != cardWidth || img.Bounds().Dy() != cardHeight {
			t.Fatalf("%s: unexpected size %v", face, img.Bounds())
		}

		// Edge pixel away from the icons carries the category colour.
		r, g, b, _ := img.At(cardWidth/2, 4).RGBA()
		want := game.StyleFor(q.Category).RGBA
		if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
			t.Fatalf("%s: expected background %v, got %d,%d,%d", face, want, r>>8, g>>8, b>>8)
		}
	}
}

func TestRenderCardPNG_AllIcons(t *testing.T) {
	for _, category := range []string{"Reflexivo", "Relaciones amorosas", "Cotidiano", ""} {
		if _, err := RenderCardPNG(models.ReflectionQuestion{Category: category, Question: "x"}, game.FaceCategory); err != nil {
			t.Fatalf("%q: unexpected error: %v", category, err)
		}
	}
}

func TestTextHalfWidth_FitsInsideDisc(t *testing.T) {
	half := textHalfWidth()
	if half != 92 {
		t.Fatalf("expected half width 92, got %d", half)
	}
	// Corners of the text square, padding added back, stay inside the disc.
	corner := half + discPadding
	if 2*corner*corner > discRadius*discRadius {
		t.Fatalf("text square corner %d lies outside disc of radius %d", corner, discRadius)
	}
}
