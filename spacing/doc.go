/*
Package spacing derives East Asian contextual half-width spacing from a
font's own shaping behavior and synthesizes the OpenType 'chws' and 'vchw'
features from it.

Fullwidth punctuation of Chinese, Japanese and Korean carries blank space
inside the glyph. When two such glyphs meet, the blank space doubles; the
'chws' feature trims it. Which side of a glyph is blank is not knowable
from the code point alone — period and comma are centered in Traditional
Chinese but left-flush in Japanese, and fonts differ — so this package
asks the font: it shapes small probe texts under different language
systems and classifies the resulting glyphs as blank-left, blank-right or
blank-on-both-sides. From the classes it builds GPOS lookups that trim
the blank side whenever two fullwidth glyphs are adjacent.

The classification is stateful across the faces of a collection: a glyph
shared by several faces must end up in the same class everywhere, which a
ClassCache both verifies and exploits.
*/
package spacing

import (
	"github.com/npillmayer/chws/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'chws.spacing'
func tracer() tracing.Trace {
	return tracing.Select("chws.spacing")
}

// errSpacing produces user level errors for spacing analysis.
func errSpacing(x string) error {
	return core.Error(core.EINVALID, "East Asian spacing: %s", x)
}
