package spacing

import (
	"testing"

	"github.com/npillmayer/chws/font"
	"github.com/npillmayer/chws/internal/testfont"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func loadNamedFace(t *testing.T, family string) *font.Face {
	f, err := font.ParseFont(testfont.Single(testfont.Options{FamilyName: family}), family+".ttf")
	if err != nil {
		t.Fatal(err)
	}
	return f.Faces[0]
}

func TestConfigLanguageDefaults(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.spacing")
	defer teardown()
	//
	cases := []struct {
		family   string
		language string
	}{
		{"Meiryo", "JAN"},
		{"Meiryo UI", "JAN"},
		{"Yu Gothic UI", "JAN"},
		{"Microsoft JhengHei UI", "ZHH"},
		{"Microsoft YaHei", "ZHS"},
		{"PMingLiU-ExtB", "ZHT"},
		{"Malgun Gothic", "KOR"},
		{"Noto Sans CJK JP", ""},
	}
	for _, c := range cases {
		face := loadNamedFace(t, c.family)
		cfg := DefaultConfig().ForFont(face, false)
		if cfg.Language != c.language {
			t.Errorf("%s: expected language %q, have %q", c.family, c.language, cfg.Language)
		}
	}
}

func TestConfigExplicitLanguageWins(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.spacing")
	defer teardown()
	//
	face := loadNamedFace(t, "Meiryo")
	cfg := DefaultConfig().WithLanguage("ZHS").ForFont(face, false)
	if cfg.Language != "ZHS" {
		t.Errorf("explicit language overridden by family default: %q", cfg.Language)
	}
}

func TestConfigVerticalQuotes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.spacing")
	defer teardown()
	//
	contains := func(runes []rune, r rune) bool {
		for _, x := range runes {
			if x == r {
				return true
			}
		}
		return false
	}
	meiryo := DefaultConfig().ForFont(loadNamedFace(t, "Meiryo"), true)
	if !contains(meiryo.QuotesOpening, 0x2019) || contains(meiryo.QuotesClosing, 0x2019) {
		t.Error("Meiryo vertical: expected U+2019 to move to the opening class")
	}
	if contains(meiryo.QuotesOpening, 0x201D) {
		t.Error("Meiryo vertical: U+201D must stay a closing quote")
	}
	jhenghei := DefaultConfig().ForFont(loadNamedFace(t, "Microsoft JhengHei"), true)
	if !contains(jhenghei.QuotesOpening, 0x2019) || !contains(jhenghei.QuotesOpening, 0x201D) {
		t.Error("JhengHei vertical: expected U+2019 and U+201D to move to the opening class")
	}
	plain := DefaultConfig().ForFont(loadNamedFace(t, "Noto Sans CJK JP"), true)
	if !contains(plain.QuotesClosing, 0x2019) {
		t.Error("default vertical: U+2019 must stay a closing quote")
	}
}

func TestConfigCloneIndependence(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.spacing")
	defer teardown()
	//
	orig := DefaultConfig()
	clone := orig.Clone()
	clone.CJKOpening[0] = 0xFFFF
	if orig.CJKOpening[0] == 0xFFFF {
		t.Error("clone shares slices with original")
	}
}
