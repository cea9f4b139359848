package font

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	hbtt "github.com/benoitkugler/textlayout/fonts/truetype"
	hb "github.com/benoitkugler/textlayout/harfbuzz"
	"golang.org/x/image/font/sfnt"

	"github.com/npillmayer/chws/core"
	"github.com/npillmayer/chws/ot"
)

// ErrLanguageRequired is returned when a font serves more than one East
// Asian language convention and the caller did not say which one to apply.
var ErrLanguageRequired = errors.New("language is required but not set")

// Font is a loaded font file: a single font or a TTC collection.
type Font struct {
	Path  string
	Faces []*Face

	coll *ot.Collection
}

// Face is one font of a loaded font file. All faces of a Font share the
// underlying byte arena.
type Face struct {
	Root *Font
	OT   *ot.Font

	// Language carries an OpenType language system tag ("JAN", "ZHS", …)
	// when the caller pinned the face to a language convention, "" otherwise.
	Language string

	fullwidth sfnt.Units

	hbOnce sync.Once
	hbFont *hb.Font
	hbErr  error
}

// Load reads and parses a font file.
func Load(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot read font file %s", path)
	}
	return ParseFont(data, path)
}

// ParseFont parses a font file held in memory. path is informational only.
func ParseFont(data []byte, path string) (*Font, error) {
	coll, err := ot.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	f := &Font{Path: path, coll: coll}
	for _, face := range coll.Faces {
		f.Faces = append(f.Faces, &Face{Root: f, OT: face})
	}
	tracer().Infof("loaded %s with %d face(s)", filepath.Base(path), len(f.Faces))
	return f, nil
}

// IsCollection returns true for TTC collection files.
func (f *Font) IsCollection() bool {
	return f.coll.IsCollection()
}

// IsModified returns true if any face's tables were replaced.
func (f *Font) IsModified() bool {
	return f.coll.IsModified()
}

// Bytes serializes the font file, including all table replacements.
func (f *Font) Bytes() ([]byte, error) {
	return f.coll.Compile()
}

// Save serializes the font file to path.
func (f *Font) Save(path string) error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot write font file %s", path)
	}
	tracer().Infof("saved %s (%d bytes)", filepath.Base(path), len(data))
	return nil
}

func (f *Font) String() string {
	if f.IsCollection() {
		return fmt.Sprintf("%s[%d faces]", filepath.Base(f.Path), len(f.Faces))
	}
	return filepath.Base(f.Path)
}

// --- Face ------------------------------------------------------------------

// FamilyName returns the face's family name from its name table.
func (fc *Face) FamilyName() string {
	return fc.OT.FamilyName()
}

// UnitsPerEm returns the face's design units per em.
func (fc *Face) UnitsPerEm() sfnt.Units {
	return sfnt.Units(fc.OT.UnitsPerEm())
}

// FullwidthAdvance returns the advance of a fullwidth glyph in design units,
// or 0 if it has not been determined yet; see SetFullwidthAdvance.
func (fc *Face) FullwidthAdvance() sfnt.Units {
	return fc.fullwidth
}

// SetFullwidthAdvance memoizes the fullwidth advance for this face.
func (fc *Face) SetFullwidthAdvance(adv sfnt.Units) {
	fc.fullwidth = adv
}

// HasVertical checks for vertical glyph alternates, i.e. a 'vert' feature
// in the GSUB table.
func (fc *Face) HasVertical() bool {
	gsub := fc.OT.Table(ot.TagGSUB)
	return gsub != nil && ot.LayoutHasFeature(gsub, ot.T("vert"))
}

// HasGPOSFeature checks the GPOS feature list for a tag.
func (fc *Face) HasGPOSFeature(tag ot.Tag) bool {
	gpos := fc.OT.Table(ot.TagGPOS)
	return gpos != nil && ot.LayoutHasFeature(gpos, tag)
}

// GPOSOffset returns the file offset of the face's GPOS table. Faces of a
// collection that share their GPOS table report the same offset, which is
// the criterion for processing them as one group. ok is false if the face
// has no GPOS table.
func (fc *Face) GPOSOffset() (offset uint32, ok bool) {
	return fc.OT.TableOffset(ot.TagGPOS)
}

// HBFont returns a HarfBuzz font for shaping probes against this face.
// The HarfBuzz view is built lazily from a standalone extraction of the
// face and cached; it reflects the face's tables at the time of the first
// call.
func (fc *Face) HBFont() (*hb.Font, error) {
	fc.hbOnce.Do(func() {
		var data []byte
		if data, fc.hbErr = fc.OT.Compile(); fc.hbErr != nil {
			return
		}
		hbFace, err := hbtt.Parse(bytes.NewReader(data), true)
		if err != nil {
			fc.hbErr = core.WrapError(err, core.EINVALID, "HarfBuzz cannot parse %s", fc)
			return
		}
		fc.hbFont = hb.NewFont(hbFace)
	})
	return fc.hbFont, fc.hbErr
}

// RequireLanguage returns the error to raise when a spacing decision needs a
// language but none is set for this face. The message lists the language
// systems the font's layout tables serve, as a hint which values would make
// sense.
func (fc *Face) RequireLanguage() error {
	hint := strings.Join(fc.scriptLangSysStrings(), "; ")
	if hint != "" {
		hint = " (" + hint + ")"
	}
	return fmt.Errorf("%s%s: %w", fc, hint, ErrLanguageRequired)
}

// scriptLangSysStrings lists scripts and their language systems of the
// face's GSUB and GPOS tables, e.g. "GPOS hani: JAN, ZHS".
func (fc *Face) scriptLangSysStrings() []string {
	var out []string
	for _, which := range []struct {
		tag  ot.Tag
		kind ot.LayoutKind
	}{{ot.TagGSUB, ot.GSubKind}, {ot.TagGPOS, ot.GPosKind}} {
		data := fc.OT.Table(which.tag)
		if data == nil {
			continue
		}
		layout, err := ot.ParseLayout(data, which.kind)
		if err != nil {
			continue
		}
		for _, script := range layout.Scripts {
			var langs []string
			for _, ls := range script.LangSys {
				langs = append(langs, ls.Tag.String())
			}
			out = append(out, fmt.Sprintf("%s %s: %s", which.tag, script.Tag,
				strings.Join(langs, ", ")))
		}
	}
	return out
}

func (fc *Face) String() string {
	name := fc.FamilyName()
	if name == "" {
		name = filepath.Base(fc.Root.Path)
	}
	if fc.Root.IsCollection() {
		return fmt.Sprintf("%s#%d", name, fc.OT.FaceIndex)
	}
	return name
}
