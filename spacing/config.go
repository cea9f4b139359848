package spacing

import (
	"strings"

	"github.com/npillmayer/chws/font"
)

// Config controls which code points participate in spacing analysis and how
// ambiguities are resolved. The zero value is not usable; start from
// DefaultConfig.
//
// The code point groups follow UAX#50 and the chws feature description:
// opening and closing brackets carry their blank space on the outside,
// period/comma and colon/semicolon placement depends on the language
// convention, and fullwidth space and middle dot are centered.
type Config struct {
	// Language pins the font to an OpenType language system tag ("JAN",
	// "ZHS", "ZHT", "ZHH", "KOR"). Leave empty to let shaping decide; faces
	// whose shaping does not distinguish languages will then refuse
	// classification with font.ErrLanguageRequired.
	Language string

	CJKOpening    []rune
	CJKClosing    []rune
	QuotesOpening []rune
	QuotesClosing []rune

	CJKMiddle         []rune
	CJKPeriodComma    []rune
	CJKColonSemicolon []rune
	CJKExclamQuestion []rune

	// ColonSemicolonMiddle overrides the shaping-based decision whether
	// colon and semicolon are centered (true, Japanese convention) or
	// left-flush (false, Simplified Chinese convention). nil lets shaping
	// decide.
	ColonSemicolonMiddle *bool
}

// DefaultConfig returns the default code point groups.
func DefaultConfig() *Config {
	return &Config{
		CJKOpening: []rune{
			0x3008, 0x300A, 0x300C, 0x300E, 0x3010, 0x3014, 0x3016, 0x3018,
			0x301A, 0x301D, 0xFF08, 0xFF3B, 0xFF5B, 0xFF5F,
		},
		CJKClosing: []rune{
			0x3009, 0x300B, 0x300D, 0x300F, 0x3011, 0x3015, 0x3017, 0x3019,
			0x301B, 0x301E, 0x301F, 0xFF09, 0xFF3D, 0xFF5D, 0xFF60,
		},
		QuotesOpening:     []rune{0x2018, 0x201C},
		QuotesClosing:     []rune{0x2019, 0x201D},
		CJKMiddle:         []rune{0x3000, 0x30FB},
		CJKPeriodComma:    []rune{0x3001, 0x3002, 0xFF0C, 0xFF0E},
		CJKColonSemicolon: []rune{0xFF1A, 0xFF1B},
		CJKExclamQuestion: []rune{0xFF01, 0xFF1F},
	}
}

// Clone returns a copy of c with independent code point slices.
func (c *Config) Clone() *Config {
	clone := *c
	clone.CJKOpening = append([]rune(nil), c.CJKOpening...)
	clone.CJKClosing = append([]rune(nil), c.CJKClosing...)
	clone.QuotesOpening = append([]rune(nil), c.QuotesOpening...)
	clone.QuotesClosing = append([]rune(nil), c.QuotesClosing...)
	clone.CJKMiddle = append([]rune(nil), c.CJKMiddle...)
	clone.CJKPeriodComma = append([]rune(nil), c.CJKPeriodComma...)
	clone.CJKColonSemicolon = append([]rune(nil), c.CJKColonSemicolon...)
	clone.CJKExclamQuestion = append([]rune(nil), c.CJKExclamQuestion...)
	return &clone
}

// WithLanguage returns a copy of c pinned to the given language, or c itself
// if the language matches already.
func (c *Config) WithLanguage(language string) *Config {
	if c.Language == language {
		return c
	}
	clone := c.Clone()
	clone.Language = language
	return clone
}

// defaultLanguages maps family name prefixes of well-known fonts to the
// language convention they are designed for. These fonts shape several
// groups identically across language systems, so classification would
// otherwise have to be refused.
var defaultLanguages = []struct {
	prefix   string
	language string
}{
	{"Meiryo", "JAN"},
	{"MS Gothic", "JAN"},
	{"MS PGothic", "JAN"},
	{"MS Mincho", "JAN"},
	{"MS PMincho", "JAN"},
	{"Yu Gothic", "JAN"},
	{"Yu Mincho", "JAN"},
	{"YuGothic", "JAN"},
	{"YuMincho", "JAN"},
	{"Microsoft JhengHei", "ZHH"},
	{"Microsoft YaHei", "ZHS"},
	{"SimHei", "ZHS"},
	{"SimSun", "ZHS"},
	{"PMingLiU", "ZHT"},
	{"MingLiU", "ZHT"},
	{"Malgun Gothic", "KOR"},
}

// ForFont specializes the config for one face and flow direction, applying
// name-based language defaults and per-font quirks. A nil return means the
// face should be skipped entirely.
func (c *Config) ForFont(face *font.Face, vertical bool) *Config {
	name := face.FamilyName()
	config := c
	if config.Language == "" {
		for _, d := range defaultLanguages {
			if strings.HasPrefix(name, d.prefix) {
				config = config.WithLanguage(d.language)
				break
			}
		}
	}
	if vertical {
		config = config.verticalQuotes(name)
	}
	return config
}

// verticalQuotes adjusts the quote classes for vertical flow. Most fonts
// keep U+2019/U+201D as closing quotes when rotated; Meiryo designs U+2019
// as an opening quote in vertical flow, Microsoft JhengHei both.
func (c *Config) verticalQuotes(name string) *Config {
	move := func(quotes ...rune) *Config {
		clone := c.Clone()
		clone.QuotesOpening = append(clone.QuotesOpening, quotes...)
		remaining := clone.QuotesClosing[:0]
		for _, q := range clone.QuotesClosing {
			moved := false
			for _, m := range quotes {
				if q == m {
					moved = true
					break
				}
			}
			if !moved {
				remaining = append(remaining, q)
			}
		}
		clone.QuotesClosing = remaining
		return clone
	}
	switch {
	case strings.HasPrefix(name, "Meiryo"):
		return move(0x2019)
	case strings.HasPrefix(name, "Microsoft JhengHei"):
		return move(0x2019, 0x201D)
	}
	return c
}
