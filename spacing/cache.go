package spacing

import (
	"errors"
	"fmt"

	"github.com/npillmayer/chws/font"
	"github.com/npillmayer/chws/ot"
)

// ErrClassConflict is returned when a glyph would be assigned to two
// different spacing classes. Since all faces of a collection share one GPOS
// table, a conflicting classification cannot be represented and is fatal.
var ErrClassConflict = errors.New("conflicting spacing class for glyph")

type glyphClass byte

const (
	classLeft   glyphClass = 'L'
	classMiddle glyphClass = 'M'
	classRight  glyphClass = 'R'
)

// ClassCache records the spacing class of every glyph classified so far for
// one font file. It serves two purposes: earlier classifications take
// precedence over later shaping probes (a glyph shared across faces must not
// flip its class), and any contradiction surfaces as ErrClassConflict.
//
// The cache is keyed to the root font; binding a face of a different font
// file is a programming error.
type ClassCache struct {
	root    *font.Font
	classes map[ot.GlyphIndex]glyphClass
}

// NewClassCache creates a cache for the faces of root.
func NewClassCache(root *font.Font) *ClassCache {
	return &ClassCache{
		root:    root,
		classes: make(map[ot.GlyphIndex]glyphClass),
	}
}

func (c *ClassCache) add(glyphs GlyphSet, class glyphClass) error {
	for _, g := range glyphs.Glyphs() {
		if have, ok := c.classes[g]; ok && have != class {
			return fmt.Errorf("glyph %d: %c vs %c: %w", g, have, class, ErrClassConflict)
		}
		c.classes[g] = class
	}
	return nil
}

// AddTrio records the classes of all glyphs of a trio.
func (c *ClassCache) AddTrio(t *Trio) error {
	if err := c.add(t.Left, classLeft); err != nil {
		return err
	}
	if err := c.add(t.Middle, classMiddle); err != nil {
		return err
	}
	return c.add(t.Right, classRight)
}

// Distribute moves those glyphs whose class is already cached into the
// matching slots of t and returns the set of glyphs the cache knows nothing
// about.
func (c *ClassCache) Distribute(t *Trio, glyphs GlyphSet) GlyphSet {
	unknown := NewGlyphSet()
	for _, g := range glyphs.Glyphs() {
		switch c.classes[g] {
		case classLeft:
			t.Left.Add(g)
		case classMiddle:
			t.Middle.Add(g)
		case classRight:
			t.Right.Add(g)
		default:
			unknown.Add(g)
		}
	}
	return unknown
}
