package shaper

import (
	hbtt "github.com/benoitkugler/textlayout/fonts/truetype"
	hb "github.com/benoitkugler/textlayout/harfbuzz"
	hblang "github.com/benoitkugler/textlayout/language"
	"golang.org/x/image/font/sfnt"

	"github.com/npillmayer/chws/font"
	"github.com/npillmayer/chws/ot"
	"github.com/npillmayer/chws/spacing"
)

// scriptHan is the HarfBuzz script for Han, ISO 15924 'Hani'.
const scriptHan = hblang.Script(0x48616e69)

// otLanguages maps the OpenType language system tags occurring in East
// Asian spacing analysis to BCP 47 tags, the way hb_ot_tag_to_language
// resolves them.
var otLanguages = map[string]string{
	"JAN": "ja",
	"KOR": "ko",
	"ZHS": "zh-hans",
	"ZHT": "zh-hant",
	"ZHH": "zh-hk",
}

// Glyph is one glyph of a shaping result, with advance and offset along the
// flow direction in font design units.
type Glyph struct {
	GID     ot.GlyphIndex
	Cluster int
	Advance int32
	Offset  int32
}

// Shape shapes text against a face with the Han script, an optional
// OpenType language system tag, and the given feature tags enabled over the
// whole text. Vertical shaping runs top-to-bottom with advances negated, so
// a fullwidth glyph reports a positive em-sized advance in both directions.
func Shape(face *font.Face, vertical bool, language string, features []string, text []rune) ([]Glyph, error) {
	if len(text) == 0 {
		return nil, nil
	}
	hbFont, err := face.HBFont()
	if err != nil {
		return nil, err
	}
	props := hb.SegmentProperties{
		Script:    scriptHan,
		Direction: hb.LeftToRight,
	}
	if vertical {
		props.Direction = hb.TopToBottom
	}
	if language != "" {
		bcp47, ok := otLanguages[language]
		if !ok {
			return nil, errShaping("unsupported language system tag: " + language)
		}
		props.Language = hblang.NewLanguage(bcp47)
	}
	hbFeatures := make([]hb.Feature, 0, len(features))
	for _, feature := range features {
		hbFeatures = append(hbFeatures, hb.Feature{
			Tag:   hbtt.Tag(ot.T(feature)),
			Value: 1,
			Start: 0,
			End:   len(text),
		})
	}
	buf := hb.NewBuffer()
	buf.Props = props
	buf.AddRunes(text, 0, len(text))
	buf.Shape(hbFont, hbFeatures)
	glyphs := make([]Glyph, 0, len(buf.Info))
	for i, info := range buf.Info {
		pos := &buf.Pos[i]
		g := Glyph{GID: ot.GlyphIndex(info.Glyph), Cluster: info.Cluster}
		if vertical {
			g.Advance, g.Offset = -pos.YAdvance, -pos.YOffset
		} else {
			g.Advance, g.Offset = pos.XAdvance, pos.XOffset
		}
		glyphs = append(glyphs, g)
	}
	tracer().Debugf("shaped %d runes (%s, vertical=%t) to %d glyphs",
		len(text), language, vertical, len(glyphs))
	return glyphs, nil
}

// HarfBuzz is the spacing.Shaper implementation backed by HarfBuzz.
type HarfBuzz struct{}

var _ spacing.Shaper = HarfBuzz{}

// probeFeatures returns the features of a classification probe. Unified
// code points (e.g. U+2018..201D) map to Latin glyphs in most fonts; the
// 'fwid' feature retrieves the fullwidth forms.
func probeFeatures(vertical bool) []string {
	if vertical {
		return []string{"fwid", "vert"}
	}
	return []string{"fwid"}
}

// ShapeFullwidth shapes a probe text and keeps the glyphs at fullwidth
// advance. Glyph 0 is dropped: it is the .notdef glyph per the OpenType
// recommendations and never a classifiable fullwidth form.
func (HarfBuzz) ShapeFullwidth(face *font.Face, vertical bool, language string, text []rune) (spacing.GlyphSet, error) {
	glyphs, err := Shape(face, vertical, language, probeFeatures(vertical), text)
	if err != nil {
		return spacing.GlyphSet{}, err
	}
	em := int32(face.FullwidthAdvance())
	result := spacing.NewGlyphSet()
	for _, g := range glyphs {
		if g.GID != 0 && g.Advance == em {
			result.Add(g.GID)
		}
	}
	return result, nil
}

// fullwidthProbe is a code point that is fullwidth in any CJK font.
const fullwidthProbe = rune(0x6C34) // 水, CJK WATER

// EnsureFullwidthAdvance determines the face's fullwidth advance by shaping
// U+6C34, which normally equals the em size but differs in non-square
// fonts. The result is memoized on the face. ok is false when the probe
// yields no usable advance; such faces are skipped by classification.
func (HarfBuzz) EnsureFullwidthAdvance(face *font.Face, vertical bool) (ok bool, err error) {
	if face.FullwidthAdvance() > 0 {
		return true, nil
	}
	glyphs, err := Shape(face, vertical, "", probeFeatures(vertical), []rune{fullwidthProbe})
	if err != nil {
		return false, err
	}
	if len(glyphs) == 0 || glyphs[0].GID == 0 || glyphs[0].Advance <= 0 {
		tracer().Infof("no fullwidth advance for %s", face)
		return false, nil
	}
	advance := sfnt.Units(glyphs[0].Advance)
	if advance != face.UnitsPerEm() {
		tracer().Infof("fullwidth advance %d differs from upem %d for %s",
			advance, face.UnitsPerEm(), face)
	}
	face.SetFullwidthAdvance(advance)
	return true, nil
}
