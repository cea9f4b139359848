package builder

import (
	"fmt"

	"github.com/npillmayer/chws/font"
	"github.com/npillmayer/chws/shaper"
	"github.com/npillmayer/chws/spacing"
)

// Tester verifies a built font by shaping pairs of brackets with the
// spacing feature switched on and off and comparing the resulting advances.
// It parses the font anew from its compiled bytes, so the shaper sees the
// rebuilt GPOS table rather than the one the font was loaded with.
type Tester struct {
	source *font.Font
}

// NewTester creates a tester for a (possibly modified) font.
func NewTester(f *font.Font) *Tester {
	return &Tester{source: f}
}

// Test shapes test pairs in every face of the font. Faces without the
// spacing feature are skipped. It returns the first mismatch found.
func (t *Tester) Test(config *spacing.Config) error {
	if config == nil {
		config = spacing.DefaultConfig()
	}
	data, err := t.source.Bytes()
	if err != nil {
		return err
	}
	f, err := font.ParseFont(data, t.source.Path)
	if err != nil {
		return err
	}
	for i, face := range f.Faces {
		face.Language = t.source.Faces[i].Language
		if !face.HasGPOSFeature(spacing.TagChws) {
			tracer().Infof("not testing %s, no spacing feature", face)
			continue
		}
		if err := t.testFace(face, config, false); err != nil {
			return err
		}
		if face.HasVertical() && face.HasGPOSFeature(spacing.TagVchw) {
			if err := t.testFace(face, config, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tester) testFace(face *font.Face, config *spacing.Config, vertical bool) error {
	shp := shaper.HarfBuzz{}
	ok, err := shp.EnsureFullwidthAdvance(face, vertical)
	if err != nil {
		return err
	}
	if !ok {
		tracer().Infof("not testing %s, no fullwidth advance", face)
		return nil
	}
	em := int32(face.FullwidthAdvance())
	half := em / 2
	language := face.Language
	if language == "" {
		language = config.Language
	}
	on, off := testFeatures(vertical)
	tested := 0
	// a closing bracket followed by an opening bracket loses the trailing
	// blank of the closing glyph
	for _, closing := range config.CJKClosing {
		for _, opening := range config.CJKOpening {
			pair := []rune{closing, opening}
			glyphs, skip, err := t.shapePair(face, vertical, language, on, off, pair, em)
			if err != nil {
				return err
			}
			if skip {
				continue
			}
			if glyphs[0].Advance != em-half {
				return errTest(face, vertical, pair,
					fmt.Sprintf("advance %d, want %d", glyphs[0].Advance, em-half))
			}
			tested++
		}
	}
	// two adjacent opening brackets shift the second one into its own
	// leading blank
	for _, first := range config.CJKOpening {
		for _, second := range config.CJKOpening {
			pair := []rune{first, second}
			glyphs, skip, err := t.shapePair(face, vertical, language, on, off, pair, em)
			if err != nil {
				return err
			}
			if skip {
				continue
			}
			if glyphs[1].Advance != em-half {
				return errTest(face, vertical, pair,
					fmt.Sprintf("advance %d, want %d", glyphs[1].Advance, em-half))
			}
			if glyphs[1].Offset != -half {
				return errTest(face, vertical, pair,
					fmt.Sprintf("offset %d, want %d", glyphs[1].Offset, -half))
			}
			tested++
		}
	}
	tracer().Infof("%s: %d pairs pass (vertical=%v)", face, tested, vertical)
	if tested == 0 {
		return errBuild(fmt.Sprintf("%s: no testable pairs", face))
	}
	return nil
}

// shapePair shapes a two character pair with the feature on. Pairs where
// the feature-off shape is incomplete or not fullwidth are reported as
// skip: the font simply has no suitable glyphs for them.
func (t *Tester) shapePair(face *font.Face, vertical bool, language string,
	on, off []string, pair []rune, em int32) (glyphs []shaper.Glyph, skip bool, err error) {
	//
	offGlyphs, err := shaper.Shape(face, vertical, language, off, pair)
	if err != nil {
		return nil, false, err
	}
	if len(offGlyphs) != len(pair) {
		return nil, true, nil
	}
	for _, g := range offGlyphs {
		if g.GID == 0 || g.Advance != em {
			return nil, true, nil
		}
	}
	glyphs, err = shaper.Shape(face, vertical, language, on, pair)
	if err != nil {
		return nil, false, err
	}
	if len(glyphs) != len(pair) {
		return nil, false, errTest(face, vertical, pair, "unexpected glyph count")
	}
	for i := range glyphs {
		glyphs[i].Offset -= offGlyphs[i].Offset
	}
	return glyphs, false, nil
}

// testFeatures returns the shaping features with the spacing feature
// switched on resp. off.
func testFeatures(vertical bool) (on, off []string) {
	if vertical {
		return []string{"vchw", "fwid", "vert"}, []string{"fwid", "vert"}
	}
	return []string{"chws", "fwid"}, []string{"fwid"}
}

func errTest(face *font.Face, vertical bool, pair []rune, detail string) error {
	dir := "horizontal"
	if vertical {
		dir = "vertical"
	}
	return errBuild(fmt.Sprintf("%s: %s pair %U: %s", face, dir, pair, detail))
}
