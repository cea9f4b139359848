package spacing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emirpasic/gods/sets/hashset"

	"github.com/npillmayer/chws/ot"
)

// GlyphSet is a mutable set of glyph IDs. The zero value is not usable;
// construct with NewGlyphSet.
type GlyphSet struct {
	set *hashset.Set
}

// NewGlyphSet creates a set holding the given glyphs.
func NewGlyphSet(glyphs ...ot.GlyphIndex) GlyphSet {
	s := GlyphSet{set: hashset.New()}
	for _, g := range glyphs {
		s.set.Add(g)
	}
	return s
}

// Add adds a glyph to the set.
func (s GlyphSet) Add(g ot.GlyphIndex) {
	s.set.Add(g)
}

// Contains checks g for membership.
func (s GlyphSet) Contains(g ot.GlyphIndex) bool {
	return s.set.Contains(g)
}

// Size returns the number of glyphs in the set.
func (s GlyphSet) Size() int {
	return s.set.Size()
}

// IsEmpty is true for sets without glyphs.
func (s GlyphSet) IsEmpty() bool {
	return s.set.Empty()
}

// Clear removes all glyphs.
func (s GlyphSet) Clear() {
	s.set.Clear()
}

// UniteWith adds all glyphs of other to s.
func (s GlyphSet) UniteWith(other GlyphSet) {
	s.set.Add(other.set.Values()...)
}

// Subtract removes all glyphs of other from s.
func (s GlyphSet) Subtract(other GlyphSet) {
	s.set.Remove(other.set.Values()...)
}

// IsDisjoint is true if s and other have no glyph in common.
func (s GlyphSet) IsDisjoint(other GlyphSet) bool {
	return s.set.Intersection(other.set).Empty()
}

// Equal is true if s and other hold exactly the same glyphs.
func (s GlyphSet) Equal(other GlyphSet) bool {
	return s.set.Size() == other.set.Size() &&
		s.set.Intersection(other.set).Size() == s.set.Size()
}

// Clone returns an independent copy of s.
func (s GlyphSet) Clone() GlyphSet {
	c := NewGlyphSet()
	c.set.Add(s.set.Values()...)
	return c
}

// Glyphs returns the glyphs in ascending order.
func (s GlyphSet) Glyphs() []ot.GlyphIndex {
	values := s.set.Values()
	glyphs := make([]ot.GlyphIndex, 0, len(values))
	for _, v := range values {
		glyphs = append(glyphs, v.(ot.GlyphIndex))
	}
	sort.Slice(glyphs, func(i, j int) bool { return glyphs[i] < glyphs[j] })
	return glyphs
}

func (s GlyphSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, g := range s.Glyphs() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", g)
	}
	b.WriteByte('}')
	return b.String()
}
