package game

import (
	"image/color"
	"unicode/utf8"
)

type Icon int

const (
	IconMoon Icon = iota
	IconHeart
	IconTriangle
)

func (i Icon) String() string {
	switch i {
	case IconMoon:
		return "moon"
	case IconHeart:
		return "heart"
	case IconTriangle:
		return "triangle"
	default:
		return "unknown"
	}
}

// Style is how a category is drawn: a named colour used for the card
// background and the text on the central disc, plus the corner icon.
type Style struct {
	Color string
	RGBA  color.RGBA
	Icon  Icon
}

type swatch struct {
	name string
	rgba color.RGBA
}

var categoryStyles = map[string]Style{
	"Reflexivo":           {Color: "blue", RGBA: color.RGBA{0x3B, 0x82, 0xF6, 0xFF}, Icon: IconMoon},
	"Relaciones amorosas": {Color: "orange", RGBA: color.RGBA{0xF9, 0x73, 0x16, 0xFF}, Icon: IconHeart},
	"Cotidiano":           {Color: "green", RGBA: color.RGBA{0x22, 0xC5, 0x5E, 0xFF}, Icon: IconTriangle},
}

var fallbackPalette = []swatch{
	{"purple", color.RGBA{0xA8, 0x55, 0xF7, 0xFF}},
	{"pink", color.RGBA{0xEC, 0x48, 0x99, 0xFF}},
	{"indigo", color.RGBA{0x63, 0x66, 0xF1, 0xFF}},
	{"cyan", color.RGBA{0x06, 0xB6, 0xD4, 0xFF}},
	{"teal", color.RGBA{0x14, 0xB8, 0xA6, 0xFF}},
	{"yellow", color.RGBA{0xEA, 0xB3, 0x08, 0xFF}},
	{"red", color.RGBA{0xEF, 0x44, 0x44, 0xFF}},
	{"emerald", color.RGBA{0x10, 0xB9, 0x81, 0xFF}},
	{"violet", color.RGBA{0x8B, 0x5C, 0xF6, 0xFF}},
	{"rose", color.RGBA{0xF4, 0x3F, 0x5E, 0xFF}},
}

var fallbackIcons = []Icon{IconMoon, IconHeart, IconTriangle}

// StyleFor returns the style for category. Known categories come from a fixed
// table; any other string gets a colour picked by its length and an icon
// picked by its first character, so the result is stable for a given string.
func StyleFor(category string) Style {
	if style, ok := categoryStyles[category]; ok {
		return style
	}

	sw := fallbackPalette[utf8.RuneCountInString(category)%len(fallbackPalette)]

	first := 0
	if r, _ := utf8.DecodeRuneInString(category); r != utf8.RuneError {
		first = int(r)
	}

	return Style{
		Color: sw.name,
		RGBA:  sw.rgba,
		Icon:  fallbackIcons[first%len(fallbackIcons)],
	}
}
