/*
Package shaper runs HarfBuzz shaping probes against font faces.

Spacing classification never inspects glyph outlines or character maps
directly; it asks HarfBuzz how the font itself maps and positions
fullwidth punctuation under a given language system, and works with the
glyph IDs that come out. This package is the bridge: it converts OpenType
language system tags to the BCP 47 tags HarfBuzz wants, applies the
features a probe needs ('fwid' always, 'vert' for vertical flow), and
reduces shaping output to the glyph sets the spacing package consumes.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2023 Norbert Pillmayer <norbert@pillmayer.com>
*/
package shaper

import (
	"github.com/npillmayer/chws/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'chws.shape'
func tracer() tracing.Trace {
	return tracing.Select("chws.shape")
}

// errShaping produces user level errors for shaping probes.
func errShaping(x string) error {
	return core.Error(core.EINVALID, "text shaping: %s", x)
}
