/*
Package ot provides low-level access to OpenType font binaries.

The package reads and writes the sfnt container format (including TTC
collection files) and decompiles just enough of the advanced layout
tables (GSUB, GPOS) to let clients append lookups and features without
disturbing what is already there. It is emphatically not a font engine:
it will not interpret glyph outlines, character maps or metrics beyond
the handful of header fields its clients need. Higher-level font
semantics are homed in sister packages.

Two properties drive the design:

▪︎ Pre-existing layout structures are never rebuilt. An existing GPOS or
GSUB table is carried along as an opaque region and new material is
woven around it, so lookup and feature indices that other tables or
tools may rely on keep their numbering.

▪︎ Compilation is deterministic. Given the same input bytes and the same
additions, Compile produces byte-identical output, which in turn lets
collection files share identical tables across faces.

Code comments often cite the OpenType specification version 1.9;
see https://docs.microsoft.com/en-us/typography/opentype/spec/.
*/
package ot

import (
	"github.com/npillmayer/chws/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'chws.ot'
func tracer() tracing.Trace {
	return tracing.Select("chws.ot")
}

// errFontFormat produces user level errors for font parsing.
func errFontFormat(x string) error {
	return core.Error(core.EINVALID, "OpenType font format: %s", x)
}
