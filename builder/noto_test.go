package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/chws/internal/testfont"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestNotoLanguage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	cases := []struct {
		family, language string
		ok               bool
	}{
		{"Noto Sans CJK JP", "JAN", true},
		{"Noto Serif CJK KR", "KOR", true},
		{"Noto Sans CJK SC", "ZHS", true},
		{"Noto Serif CJK TC", "ZHT", true},
		{"Noto Sans CJK HK", "ZHH", true},
		{"Noto Sans Mono CJK JP", "", false},
		{"Noto Sans", "", false},
		{"Meiryo", "", false},
	}
	for _, c := range cases {
		language, ok := NotoLanguage(c.family)
		if language != c.language || ok != c.ok {
			t.Errorf("NotoLanguage(%q) = %q, %v, want %q, %v",
				c.family, language, ok, c.language, c.ok)
		}
	}
}

func TestApplyNotoLanguagesSingle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	b := newTestBuilder(t, testfont.Single(testfont.Options{FamilyName: "Noto Sans CJK JP"}),
		"NotoSansCJKjp-Regular.otf")
	if err := b.ApplyNotoLanguages(); err != nil {
		t.Fatal(err)
	}
	if b.Font.Faces[0].Language != "JAN" {
		t.Errorf("expected language JAN, have %q", b.Font.Faces[0].Language)
	}
	//
	other := newTestBuilder(t, testfont.Single(testfont.Options{FamilyName: "Meiryo"}), "meiryo.ttf")
	if err := other.ApplyNotoLanguages(); err == nil {
		t.Error("non-Noto single font must be rejected")
	}
}

func TestApplyNotoLanguagesCollection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	data := testfont.Collection([]testfont.Options{
		{FamilyName: "Noto Sans CJK JP"},
		{FamilyName: "Noto Sans Mono CJK JP"},
		{FamilyName: "Noto Sans CJK KR"},
	})
	b := newTestBuilder(t, data, "NotoSansCJK.ttc")
	if err := b.ApplyNotoLanguages(); err != nil {
		t.Fatal(err)
	}
	faces := b.facesToBuild()
	if len(faces) != 2 {
		t.Fatalf("expected the Mono face to be dropped, building %d faces", len(faces))
	}
	if faces[0].Language != "JAN" || faces[1].Language != "KOR" {
		t.Errorf("unexpected languages %q, %q", faces[0].Language, faces[1].Language)
	}
	if b.Font.Faces[1].Language != "" {
		t.Error("dropped face must not receive a language")
	}
	//
	plain := testfont.Collection([]testfont.Options{
		{FamilyName: "One"}, {FamilyName: "Two"},
	})
	other := newTestBuilder(t, plain, "plain.ttc")
	if err := other.ApplyNotoLanguages(); err == nil {
		t.Error("collection without Noto CJK faces must be rejected")
	}
}

func TestIsNotoFontPath(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	cases := []struct {
		path string
		want bool
	}{
		{"NotoSansCJK.ttc", true},
		{"fonts/NotoSerifCJKjp-Regular.otf", true},
		{"NotoSansMonoCJKjp-Regular.otf", false},
		{"NotoSansCJKjp-Regular.ttf", false},
		{"Arial.otf", false},
	}
	for _, c := range cases {
		if got := IsNotoFontPath(c.path); got != c.want {
			t.Errorf("IsNotoFontPath(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestExpandNotoPaths(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.build")
	defer teardown()
	//
	dir := t.TempDir()
	names := []string{
		"NotoSansCJK.ttc",
		"NotoSerifCJKkr-Regular.otf",
		"NotoSansMonoCJKjp-Regular.otf",
		"Arial.ttf",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	paths, err := ExpandNotoPaths([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 Noto CJK files, have %v", paths)
	}
	for _, p := range paths {
		if !strings.Contains(filepath.Base(p), "Noto") || strings.Contains(p, "Mono") {
			t.Errorf("unexpected file %s included", p)
		}
	}
	// explicitly listed files bypass the name filter
	explicit := filepath.Join(dir, "Arial.ttf")
	paths, err = ExpandNotoPaths([]string{explicit})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != explicit {
		t.Errorf("explicit path not taken as given: %v", paths)
	}
}
