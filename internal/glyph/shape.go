package glyph

import (
	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// Positioned is a glyph placed relative to the start of the run's baseline,
// in pixels with y growing downwards.
type Positioned struct {
	ID uint32
	X  fixed.Int26_6
	Y  fixed.Int26_6
}

// Shape runs text through HarfBuzz at size pixels per em. Default
// ignorables such as unsupported variation selectors come back as
// invisible glyphs or are dropped, as HarfBuzz decides.
func (f *Font) Shape(text string, size float64) []Positioned {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      gotext.NewFace(f.shaper),
		Size:      fixed.Int26_6(size * 64),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	var shaper shaping.HarfbuzzShaper
	output := shaper.Shape(input)

	glyphs := make([]Positioned, 0, len(output.Glyphs))
	var pen fixed.Int26_6
	for _, g := range output.Glyphs {
		glyphs = append(glyphs, Positioned{
			ID: uint32(g.GlyphID),
			X:  pen + g.XOffset,
			// HarfBuzz offsets point up.
			Y: -g.YOffset,
		})
		pen += g.Advance
	}

	return glyphs
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
