package builder

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font/sfnt"

	"github.com/npillmayer/chws/font"
	"github.com/npillmayer/chws/internal/testfont"
	"github.com/npillmayer/chws/ot"
	"github.com/npillmayer/chws/spacing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// probeShaper stands in for the HarfBuzz shaper: glyph IDs derive from the
// code point, with distinct variants per language system. Distinct variants
// everywhere means classification never needs a language hint.
type probeShaper struct {
	em sfnt.Units
}

func (s probeShaper) EnsureFullwidthAdvance(face *font.Face, vertical bool) (bool, error) {
	face.SetFullwidthAdvance(s.em)
	return true, nil
}

func (s probeShaper) ShapeFullwidth(face *font.Face, vertical bool, language string, text []rune) (spacing.GlyphSet, error) {
	set := spacing.NewGlyphSet()
	for _, r := range text {
		g := ot.GlyphIndex(r & 0x1FFF)
		switch language {
		case "JAN":
			g |= 0x2000
		case "ZHS":
			g |= 0x4000
		case "ZHT", "ZHH":
			g |= 0x6000
		}
		set.Add(g)
	}
	return set, nil
}

func newTestBuilder(t *testing.T, data []byte, path string) *Builder {
	f, err := font.ParseFont(data, path)
	if err != nil {
		t.Fatal(err)
	}
	b := NewBuilder(f, nil)
	b.Shaper = probeShaper{em: 1000}
	return b
}

func TestBuildSingleFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	b := newTestBuilder(t, testfont.Single(testfont.Options{FamilyName: "Single"}), "single.otf")
	if err := b.Build(); err != nil {
		t.Fatal(err)
	}
	if !b.HasSpacings() || len(b.BuiltFaces()) != 1 {
		t.Fatal("expected the single face to be built")
	}
	if !b.Font.Faces[0].HasGPOSFeature(spacing.TagChws) {
		t.Error("built face has no chws feature")
	}
	if !b.Font.IsModified() {
		t.Error("built font claims to be unmodified")
	}
}

func TestBuildSkipsFontWithFeature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	b := newTestBuilder(t, testfont.Single(testfont.Options{}), "first.otf")
	if err := b.Build(); err != nil {
		t.Fatal(err)
	}
	out, err := b.Font.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	again := newTestBuilder(t, out, "again.otf")
	if err := again.Build(); err != nil {
		t.Fatal(err)
	}
	if again.HasSpacings() {
		t.Error("font with an existing chws feature must be left alone")
	}
}

func TestBuildCollectionGroupsByGPOS(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	kern := testfont.KernGPOS()
	data := testfont.Collection([]testfont.Options{
		{FamilyName: "Shared A", GPOS: kern},
		{FamilyName: "Shared B", GPOS: kern},
		{FamilyName: "Lone C"},
	})
	b := newTestBuilder(t, data, "grouped.ttc")
	if err := b.Build(); err != nil {
		t.Fatal(err)
	}
	if len(b.BuiltFaces()) != 3 {
		t.Fatalf("expected all 3 faces to be built, have %d", len(b.BuiltFaces()))
	}
	if len(b.spacings) != 2 {
		t.Errorf("expected 2 spacing groups, have %d", len(b.spacings))
	}
	out, err := b.Font.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	rebuilt, err := font.ParseFont(out, "grouped.ttc")
	if err != nil {
		t.Fatal(err)
	}
	// faces that shared their GPOS table before must share the rebuilt one
	off0, ok0 := rebuilt.Faces[0].GPOSOffset()
	off1, ok1 := rebuilt.Faces[1].GPOSOffset()
	if !ok0 || !ok1 || off0 != off1 {
		t.Error("rebuilt GPOS tables of the shared group are not shared")
	}
	for i, face := range rebuilt.Faces {
		if !face.HasGPOSFeature(spacing.TagChws) {
			t.Errorf("face %d has no chws feature", i)
		}
	}
	if !rebuilt.Faces[0].HasGPOSFeature(ot.T("kern")) {
		t.Error("pre-existing kern feature lost")
	}
}

func TestBuildCollectionSkipsWhenFeaturePresent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	single := newTestBuilder(t, testfont.Single(testfont.Options{}), "donor.otf")
	if err := single.Build(); err != nil {
		t.Fatal(err)
	}
	withFeature := single.Font.Faces[0].OT.Table(ot.TagGPOS)
	data := testfont.Collection([]testfont.Options{
		{FamilyName: "Done", GPOS: withFeature},
		{FamilyName: "Pending"},
	})
	b := newTestBuilder(t, data, "partial.ttc")
	if err := b.Build(); err != nil {
		t.Fatal(err)
	}
	if b.HasSpacings() {
		t.Error("collection with a feature-bearing face must be skipped entirely")
	}
}

func TestBuildDeterministicBytes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	kern := testfont.KernGPOS()
	data := testfont.Collection([]testfont.Options{
		{FamilyName: "Repro A", GPOS: kern},
		{FamilyName: "Repro B", GPOS: kern},
		{FamilyName: "Repro C"},
	})
	build := func() []byte {
		b := newTestBuilder(t, data, "repro.ttc")
		if err := b.Build(); err != nil {
			t.Fatal(err)
		}
		out, err := b.Font.Bytes()
		if err != nil {
			t.Fatal(err)
		}
		return out
	}
	first := build()
	second := build()
	if !bytes.Equal(first, second) {
		t.Error("building the same input twice must produce identical bytes")
	}
	// and a built font passes through a second run unchanged
	again := newTestBuilder(t, first, "repro.ttc")
	if err := again.Build(); err != nil {
		t.Fatal(err)
	}
	if again.HasSpacings() {
		t.Fatal("font with spacing features must be skipped")
	}
	out, err := again.Font.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, first) {
		t.Error("recompiling an untouched font must reproduce its bytes")
	}
}

func TestApplyLanguages(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	single := newTestBuilder(t, testfont.Single(testfont.Options{}), "single.otf")
	if err := single.ApplyLanguages("JAN", ""); err != nil {
		t.Fatal(err)
	}
	if single.Font.Faces[0].Language != "JAN" {
		t.Error("language not applied to the single face")
	}
	if err := single.ApplyLanguages("JAN", "0"); err == nil {
		t.Error("face indices must be rejected for single fonts")
	}
	if err := single.ApplyLanguages("JAN,ZHS", ""); err == nil {
		t.Error("multiple languages must be rejected for single fonts")
	}
	//
	data := testfont.Collection([]testfont.Options{
		{FamilyName: "One"}, {FamilyName: "Two"}, {FamilyName: "Three"},
	})
	coll := newTestBuilder(t, data, "coll.ttc")
	if err := coll.ApplyLanguages("JAN,,ZHS", ""); err != nil {
		t.Fatal(err)
	}
	languages := []string{
		coll.Font.Faces[0].Language,
		coll.Font.Faces[1].Language,
		coll.Font.Faces[2].Language,
	}
	if languages[0] != "JAN" || languages[1] != "" || languages[2] != "ZHS" {
		t.Errorf("unexpected per-face languages %v", languages)
	}
	if err := coll.ApplyLanguages("KOR", ""); err != nil {
		t.Fatal(err)
	}
	for i, face := range coll.Font.Faces {
		if face.Language != "KOR" {
			t.Errorf("face %d: single language not applied to all faces", i)
		}
	}
	if err := coll.ApplyLanguages("JAN,ZHS", "0,2"); err != nil {
		t.Fatal(err)
	}
	if len(coll.facesToBuild()) != 2 {
		t.Error("indices must restrict the faces to build")
	}
	if coll.Font.Faces[0].Language != "JAN" || coll.Font.Faces[2].Language != "ZHS" {
		t.Error("languages not zipped with indices")
	}
	if err := coll.ApplyLanguages("", "7"); err == nil {
		t.Error("out-of-range index must be rejected")
	}
}

func TestCalcOutputPath(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	cases := []struct {
		input, outputDir, suffix, want string
	}{
		{"fonts/a.ttf", "", "", "fonts/a.ttf"},
		{"fonts/a.ttf", "out", "", "out/a.ttf"},
		{"fonts/a.ttf", "out", "-chws", "out/a-chws.ttf"},
		{"a.ttc", "", "-chws", "a-chws.ttc"},
	}
	for _, c := range cases {
		got := CalcOutputPath(c.input, c.outputDir, c.suffix)
		if got != filepath.FromSlash(c.want) {
			t.Errorf("CalcOutputPath(%q, %q, %q) = %q, want %q",
				c.input, c.outputDir, c.suffix, got, c.want)
		}
	}
}

func TestExpandPaths(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	dir := t.TempDir()
	for _, name := range []string{"a.ttf", "b.TTC", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "d.otf"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	accept := func(path string) bool { return IsFontExtension(filepath.Ext(path)) }
	paths, err := expandPaths([]string{dir}, strings.NewReader(""), accept)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 font files, have %v", paths)
	}
	for _, p := range paths {
		if strings.HasSuffix(p, ".txt") {
			t.Errorf("non-font file %s included", p)
		}
	}
	//
	stdin := strings.NewReader("x.ttf\n\n  y.otf  \n")
	paths, err = expandPaths([]string{"-"}, stdin, accept)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 || paths[0] != "x.ttf" || paths[1] != "y.otf" {
		t.Errorf("unexpected stdin expansion %v", paths)
	}
	//
	if _, err := expandPaths([]string{filepath.Join(dir, "missing.ttf")}, nil, accept); err == nil {
		t.Error("missing path must be reported")
	}
}

func TestSaveAndGlyphReport(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	dir := t.TempDir()
	input := filepath.Join(dir, "report.otf")
	if err := os.WriteFile(input, testfont.Single(testfont.Options{}), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := font.Load(input)
	if err != nil {
		t.Fatal(err)
	}
	b := NewBuilder(f, nil)
	b.Shaper = probeShaper{em: 1000}
	if _, err := b.Save(dir, "-chws"); err == nil {
		t.Error("saving before building must be refused")
	}
	if err := b.Build(); err != nil {
		t.Fatal(err)
	}
	outputPath, err := b.Save(dir, "-chws")
	if err != nil {
		t.Fatal(err)
	}
	if outputPath != filepath.Join(dir, "report-chws.otf") {
		t.Errorf("unexpected output path %s", outputPath)
	}
	saved, err := font.Load(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	if !saved.Faces[0].HasGPOSFeature(spacing.TagChws) {
		t.Error("saved font has no chws feature")
	}
	var report strings.Builder
	if err := b.SaveGlyphs(&report); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(report.String(), "# left\n") {
		t.Errorf("unexpected glyph report: %.40q", report.String())
	}
}
