package spacing

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/npillmayer/chws/font"
)

// ErrOverlap is returned when the three spacing classes of a trio are not
// pairwise disjoint, i.e. the font's shaping put one glyph on both sides of
// a classification. Such a font cannot be given a consistent chws feature.
var ErrOverlap = errors.New("spacing classes overlap")

// Shaper runs shaping probes against a font face. The one real
// implementation lives in the shaper package on top of HarfBuzz; tests
// substitute table-driven fakes.
type Shaper interface {
	// EnsureFullwidthAdvance determines and memoizes the face's fullwidth
	// advance. ok is false if the face has no discernible fullwidth
	// advance, in which case the face is skipped rather than processed.
	EnsureFullwidthAdvance(face *font.Face, vertical bool) (ok bool, err error)

	// ShapeFullwidth shapes text with the Han script and the given OpenType
	// language system tag ("" for none) and returns the glyphs that came out
	// at fullwidth advance. Glyphs at any other advance, and the missing
	// glyph, are not part of the result.
	ShapeFullwidth(face *font.Face, vertical bool, language string, text []rune) (GlyphSet, error)
}

// Trio is the result of glyph classification for one flow direction. The
// classes name the side the ink sits on: Left glyphs (closing brackets,
// Japanese period) have their blank space trailing, Right glyphs (opening
// brackets) have it leading, Middle glyphs (fullwidth space, middle dot)
// are centered with blank space on both sides. The names refer to
// horizontal flow; in vertical flow read "left" as the upstream side.
type Trio struct {
	Left   GlyphSet
	Middle GlyphSet
	Right  GlyphSet

	root *font.Font // all contributing faces must share one root
}

// NewTrio creates a trio with empty glyph classes.
func NewTrio() *Trio {
	return &Trio{
		Left:   NewGlyphSet(),
		Middle: NewGlyphSet(),
		Right:  NewGlyphSet(),
	}
}

// bindFace asserts that face belongs to the font file the trio is
// collecting glyphs for, binding it on first use.
func (t *Trio) bindFace(face *font.Face) error {
	if t.root == nil {
		t.root = face.Root
		return nil
	}
	if t.root != face.Root {
		return errSpacing(fmt.Sprintf("face %s does not belong to %s", face, t.root))
	}
	return nil
}

// Unite adds all glyph classes of other to t. A nil other is permitted and
// does nothing.
func (t *Trio) Unite(other *Trio) {
	if other == nil {
		return
	}
	t.Left.UniteWith(other.Left)
	t.Middle.UniteWith(other.Middle)
	t.Right.UniteWith(other.Right)
}

// CheckDisjoint verifies that no glyph sits in two classes.
func (t *Trio) CheckDisjoint() error {
	switch {
	case !t.Left.IsDisjoint(t.Middle):
		return fmt.Errorf("left and middle: %w", ErrOverlap)
	case !t.Left.IsDisjoint(t.Right):
		return fmt.Errorf("left and right: %w", ErrOverlap)
	case !t.Middle.IsDisjoint(t.Right):
		return fmt.Errorf("middle and right: %w", ErrOverlap)
	}
	return nil
}

// IsEmpty is true if no glyphs have been classified.
func (t *Trio) IsEmpty() bool {
	return t.Left.IsEmpty() && t.Middle.IsEmpty() && t.Right.IsEmpty()
}

// CanAddToLayout is true when the trio has enough material for spacing
// lookups. Every adjustment involves a Left and a Right glyph, so both
// classes must be populated.
func (t *Trio) CanAddToLayout() bool {
	return !t.Left.IsEmpty() && !t.Right.IsEmpty()
}

// SaveGlyphs writes the glyph classes as a text report, one glyph ID per
// line, each class preceded by a '#'-comment naming it.
func (t *Trio) SaveGlyphs(w io.Writer, prefix string) error {
	for _, class := range []struct {
		name string
		set  GlyphSet
	}{{"left", t.Left}, {"right", t.Right}, {"middle", t.Middle}} {
		if _, err := fmt.Fprintf(w, "# %s%s\n", prefix, class.name); err != nil {
			return err
		}
		for _, g := range class.set.Glyphs() {
			if _, err := fmt.Fprintf(w, "%d\n", g); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Trio) String() string {
	return fmt.Sprintf("left=%v, right=%v, middle=%v", t.Left, t.Right, t.Middle)
}

// --- Classification --------------------------------------------------------

// AddGlyphs classifies the code point groups of config for one face and one
// flow direction and adds the resulting glyphs to the trio's classes.
//
// The four groups probe independently and run concurrently; their results
// are merged in fixed order so that the outcome does not depend on
// scheduling. The cache is consulted for glyphs classified by earlier faces
// (or the earlier flow direction) and updated with this face's results.
func (t *Trio) AddGlyphs(face *font.Face, vertical bool, shp Shaper, cache *ClassCache, config *Config) error {
	if err := t.bindFace(face); err != nil {
		return err
	}
	ok, err := shp.EnsureFullwidthAdvance(face, vertical)
	if err != nil {
		return err
	}
	if !ok {
		tracer().Infof("skipping %s, no fullwidth advance", face)
		return nil
	}
	cfg := config.ForFont(face, vertical)
	if cfg == nil {
		tracer().Infof("skipping %s, not applicable", face)
		return nil
	}
	var results [4]*Trio
	g := new(errgroup.Group)
	g.Go(func() (err error) {
		results[0], err = openingClosing(face, vertical, shp, cfg)
		return
	})
	g.Go(func() (err error) {
		results[1], err = periodComma(face, vertical, shp, cfg)
		return
	})
	g.Go(func() (err error) {
		results[2], err = colonSemicolon(face, vertical, shp, cache, cfg)
		return
	})
	g.Go(func() (err error) {
		results[3], err = exclamQuestion(face, vertical, shp, cfg)
		return
	})
	if err := g.Wait(); err != nil {
		return err
	}
	for _, result := range results {
		t.Unite(result)
	}
	if cache != nil {
		if err := cache.AddTrio(t); err != nil {
			return err
		}
	}
	return t.CheckDisjoint()
}

func sortedRunes(groups ...[]rune) []rune {
	var runes []rune
	for _, group := range groups {
		runes = append(runes, group...)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	return runes
}

// openingClosing classifies brackets and quotes: closing glyphs are blank on
// the left, opening glyphs on the right, fullwidth space and middle dot on
// both sides.
func openingClosing(face *font.Face, vertical bool, shp Shaper, cfg *Config) (*Trio, error) {
	opening := sortedRunes(cfg.CJKOpening, cfg.QuotesOpening)
	closing := sortedRunes(cfg.CJKClosing, cfg.QuotesClosing)
	result := NewTrio()
	g := new(errgroup.Group)
	g.Go(func() (err error) {
		result.Left, err = shp.ShapeFullwidth(face, vertical, "", closing)
		return
	})
	g.Go(func() (err error) {
		result.Right, err = shp.ShapeFullwidth(face, vertical, "", opening)
		return
	})
	g.Go(func() (err error) {
		result.Middle, err = shp.ShapeFullwidth(face, vertical, "", sortedRunes(cfg.CJKMiddle))
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if vertical {
		// left/right in vertical flow should apply only to glyphs with
		// 'vert' alternates; YuGothic has none for U+2018/201C/301A/301B
		horizontal, err := shp.ShapeFullwidth(face, false, "", sortedRunes(opening, closing))
		if err != nil {
			return nil, err
		}
		result.Left.Subtract(horizontal)
		result.Right.Subtract(horizontal)
	}
	return result, result.CheckDisjoint()
}

// periodComma classifies fullwidth period and comma. They are centered in
// Traditional Chinese but left-flush in other language conventions; the two
// probes tell the variants apart. If shaping cannot, the config's language
// decides, and without one the face is refused.
func periodComma(face *font.Face, vertical bool, shp Shaper, cfg *Config) (*Trio, error) {
	text := sortedRunes(cfg.CJKPeriodComma)
	if len(text) == 0 {
		return nil, nil
	}
	var ja, zht GlyphSet
	g := new(errgroup.Group)
	g.Go(func() (err error) {
		ja, err = shp.ShapeFullwidth(face, vertical, "JAN", text)
		return
	})
	g.Go(func() (err error) {
		zht, err = shp.ShapeFullwidth(face, vertical, "ZHT", text)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ja.Equal(zht) {
		if cfg.Language == "" {
			return nil, face.RequireLanguage()
		}
		if cfg.Language == "ZHT" || cfg.Language == "ZHH" {
			ja.Clear()
		} else {
			zht.Clear()
		}
	}
	if !ja.IsDisjoint(zht) {
		return nil, fmt.Errorf("period/comma variants: %w", ErrOverlap)
	}
	result := NewTrio()
	result.Left = ja
	result.Middle = zht
	return result, nil
}

// colonSemicolon classifies fullwidth colon and semicolon. They are centered
// in Japanese but left-flush in Simplified Chinese. Cached classes from
// earlier faces take precedence over fresh probes. In vertical flow they
// only participate when the font rotates them, which their having a 'vert'
// alternate indicates.
func colonSemicolon(face *font.Face, vertical bool, shp Shaper, cache *ClassCache, cfg *Config) (*Trio, error) {
	text := sortedRunes(cfg.CJKColonSemicolon)
	result := NewTrio()
	if len(text) == 0 {
		return result, nil
	}
	var ja, zhs GlyphSet
	if cfg.ColonSemicolonMiddle == nil {
		g := new(errgroup.Group)
		g.Go(func() (err error) {
			ja, err = shp.ShapeFullwidth(face, vertical, "JAN", text)
			return
		})
		g.Go(func() (err error) {
			zhs, err = shp.ShapeFullwidth(face, vertical, "ZHS", text)
			return
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if cache != nil {
			ja = cache.Distribute(result, ja)
			zhs = cache.Distribute(result, zhs)
		}
		if ja.IsEmpty() && zhs.IsEmpty() {
			return result, nil
		}
		if ja.Equal(zhs) {
			if cfg.Language == "" {
				return nil, face.RequireLanguage()
			}
			if cfg.Language == "ZHS" {
				ja.Clear()
			} else {
				zhs.Clear()
			}
		}
	} else {
		glyphs, err := shp.ShapeFullwidth(face, vertical, cfg.Language, text)
		if err != nil {
			return nil, err
		}
		if *cfg.ColonSemicolonMiddle {
			ja, zhs = glyphs, NewGlyphSet()
		} else {
			ja, zhs = NewGlyphSet(), glyphs
		}
	}
	if !ja.IsDisjoint(zhs) {
		return nil, fmt.Errorf("colon/semicolon variants: %w", ErrOverlap)
	}
	if vertical {
		// upright glyphs keep their fullwidth advance in vertical flow; only
		// rotated ones, recognizable by their 'vert' alternate, are trimmed
		if cfg.Language == "" || cfg.Language == "JAN" {
			jaHorizontal, err := shp.ShapeFullwidth(face, false, "JAN", text)
			if err != nil {
				return nil, err
			}
			ja.Subtract(jaHorizontal)
			result.Middle.UniteWith(ja)
		}
		return result, nil
	}
	result.Middle.UniteWith(ja)
	result.Left.UniteWith(zhs)
	return result, result.CheckDisjoint()
}

// exclamQuestion classifies fullwidth exclamation and question marks, which
// are left-flush in Simplified Chinese only. They never participate in
// vertical flow.
func exclamQuestion(face *font.Face, vertical bool, shp Shaper, cfg *Config) (*Trio, error) {
	if vertical {
		return nil, nil
	}
	text := sortedRunes(cfg.CJKExclamQuestion)
	if len(text) == 0 {
		return nil, nil
	}
	var ja, zhs GlyphSet
	g := new(errgroup.Group)
	g.Go(func() (err error) {
		ja, err = shp.ShapeFullwidth(face, vertical, "JAN", text)
		return
	})
	g.Go(func() (err error) {
		zhs, err = shp.ShapeFullwidth(face, vertical, "ZHS", text)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ja.Equal(zhs) {
		if cfg.Language == "" {
			return nil, face.RequireLanguage()
		}
		if cfg.Language == "ZHS" {
			ja.Clear()
		} else {
			zhs.Clear()
		}
	}
	if !ja.IsDisjoint(zhs) {
		return nil, fmt.Errorf("exclam/question variants: %w", ErrOverlap)
	}
	result := NewTrio()
	result.Left = zhs
	return result, nil
}
