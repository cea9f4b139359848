/*
Package font wraps OpenType font files for spacing analysis and rewriting.

A Font is one loaded font file; its faces are the fonts contained in it,
a single one for plain font files, several for TTC collections. Faces of a
collection are views into the same arena of bytes, which is how shared
tables across faces remain observable (by their file offset) and shareable
on output.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2023 Norbert Pillmayer <norbert@pillmayer.com>
*/
package font

import (
	"github.com/npillmayer/chws/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'chws.fonts'
func tracer() tracing.Trace {
	return tracing.Select("chws.fonts")
}

// errFontFormat produces user level errors for font loading.
func errFontFormat(x string) error {
	return core.Error(core.EINVALID, "OpenType font format: %s", x)
}
