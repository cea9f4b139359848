package spacing

import (
	"io"

	"github.com/npillmayer/chws/font"
	"github.com/npillmayer/chws/ot"
)

// Feature tags synthesized by this package.
var (
	TagChws = ot.T("chws") // contextual half-width spacing, horizontal
	TagVchw = ot.T("vchw") // contextual half-width spacing, vertical
)

// Spacing holds the glyph classification of one face (or of several united
// faces) for both flow directions. The vertical trio stays empty for faces
// without vertical alternates.
type Spacing struct {
	Horizontal *Trio
	Vertical   *Trio
}

// NewSpacing creates an empty spacing classification.
func NewSpacing() *Spacing {
	return &Spacing{
		Horizontal: NewTrio(),
		Vertical:   NewTrio(),
	}
}

// AddGlyphs classifies the glyphs of one face, horizontally and — if the
// face has vertical alternates — vertically.
func (s *Spacing) AddGlyphs(face *font.Face, shp Shaper, cache *ClassCache, config *Config) error {
	config = config.WithLanguage(effectiveLanguage(face, config))
	if err := s.Horizontal.AddGlyphs(face, false, shp, cache, config); err != nil {
		return err
	}
	if face.HasVertical() {
		if err := s.Vertical.AddGlyphs(face, true, shp, cache, config); err != nil {
			return err
		}
	}
	return nil
}

// effectiveLanguage prefers a language pinned to the face (by
// Builder.ApplyLanguages) over the config's language.
func effectiveLanguage(face *font.Face, config *Config) string {
	if face.Language != "" {
		return face.Language
	}
	return config.Language
}

// Unite adds all glyph classes of other to s.
func (s *Spacing) Unite(other *Spacing) {
	if other == nil {
		return
	}
	s.Horizontal.Unite(other.Horizontal)
	s.Vertical.Unite(other.Vertical)
}

// CanAddToFont is true when at least one flow direction has enough
// classified glyphs for spacing lookups.
func (s *Spacing) CanAddToFont() bool {
	return s.Horizontal.CanAddToLayout() || s.Vertical.CanAddToLayout()
}

// AddToFont synthesizes the chws/vchw features from the classification and
// replaces the face's GPOS table with one carrying them. Faces without a
// GPOS table get a fresh one.
func (s *Spacing) AddToFont(face *font.Face) error {
	if !s.CanAddToFont() {
		return errSpacing("no glyphs classified, nothing to add")
	}
	var layout *ot.Layout
	if gpos := face.OT.Table(ot.TagGPOS); gpos != nil {
		var err error
		if layout, err = ot.ParseLayout(gpos, ot.GPosKind); err != nil {
			return err
		}
	} else {
		layout = ot.NewLayout(ot.GPosKind)
	}
	if s.Horizontal.CanAddToLayout() {
		if err := s.Horizontal.AddToLayout(layout, face, false, TagChws); err != nil {
			return err
		}
	}
	if face.HasVertical() && s.Vertical.CanAddToLayout() {
		if err := s.Vertical.AddToLayout(layout, face, true, TagVchw); err != nil {
			return err
		}
	}
	data, err := layout.Compile()
	if err != nil {
		return err
	}
	face.OT.SetTable(ot.TagGPOS, data)
	return nil
}

// FontHasFeature is true if the face already carries a chws feature, or a
// vchw feature it can use. Such faces are left alone.
func FontHasFeature(face *font.Face) bool {
	if face.HasGPOSFeature(TagChws) {
		return true
	}
	return face.HasVertical() && face.HasGPOSFeature(TagVchw)
}

// SaveGlyphs writes the classification as a text report.
func (s *Spacing) SaveGlyphs(w io.Writer) error {
	if err := s.Horizontal.SaveGlyphs(w, ""); err != nil {
		return err
	}
	if !s.Vertical.IsEmpty() {
		return s.Vertical.SaveGlyphs(w, "vertical.")
	}
	return nil
}
