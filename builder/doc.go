/*
Package builder orchestrates spacing analysis and feature synthesis for
whole font files.

A Builder takes one font file — a single font or a TTC collection — and
drives classification, feature synthesis and saving. For collections it
groups faces by their GPOS table: faces sharing one GPOS in the input must
receive identical spacing data, so their classifications are united before
synthesis and the rebuilt table is shared again on output.
*/
package builder

import (
	"github.com/npillmayer/chws/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'chws.build'
func tracer() tracing.Trace {
	return tracing.Select("chws.build")
}

// errBuild produces user level errors for the build process.
func errBuild(x string) error {
	return core.Error(core.EINVALID, "building spacing features: %s", x)
}
