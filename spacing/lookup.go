package spacing

import (
	"fmt"

	"github.com/npillmayer/chws/font"
	"github.com/npillmayer/chws/ot"
)

// AddToLayout appends the spacing lookups and the feature record for one
// flow direction to a GPOS layout. Three lookups are built:
//
//  1. a pair positioning lookup (type 2) trimming the trailing blank of a
//     Left glyph when any classified glyph follows,
//  2. a single positioning lookup (type 1) shifting a Right glyph into its
//     leading blank and trimming its advance, and
//  3. a chained context lookup (type 8) applying lookup 2 only when a
//     Middle or Right glyph precedes; type 2 pairs cannot adjust the
//     position of the second glyph, hence the indirection.
//
// The feature references lookups 1 and 3 and is registered with every
// language system, so it stays reachable however the font is tagged.
func (t *Trio) AddToLayout(layout *ot.Layout, face *font.Face, vertical bool, featureTag ot.Tag) error {
	if !t.CanAddToLayout() {
		return errSpacing(fmt.Sprintf("cannot build %s, left or right class is empty", featureTag))
	}
	if err := t.bindFace(face); err != nil {
		return err
	}
	if err := t.CheckDisjoint(); err != nil {
		return err
	}
	if layout.HasFeature(featureTag) {
		return errSpacing(fmt.Sprintf("font already has a %s feature", featureTag))
	}
	em := face.FullwidthAdvance()
	// when em is odd, the trimmed advance is rounded up: floor the
	// adjustment, not the result
	half := int16(em / 2)
	if half <= 0 {
		return errSpacing(fmt.Sprintf("no fullwidth advance known for %s", face))
	}
	left, right, middle := t.Left.Glyphs(), t.Right.Glyphs(), t.Middle.Glyphs()
	tracer().Infof("adding %s lookups for %d left, %d right, %d middle glyphs",
		featureTag, len(left), len(right), len(middle))

	var leftValue, rightValue ot.ValueRecord
	var leftFormat, rightFormat uint16
	if vertical {
		leftValue = ot.ValueRecord{YAdvance: -half}
		leftFormat = ot.ValueFormatYAdvance
		rightValue = ot.ValueRecord{YPlacement: half, YAdvance: -half}
		rightFormat = ot.ValueFormatYPlacement | ot.ValueFormatYAdvance
	} else {
		leftValue = ot.ValueRecord{XAdvance: -half}
		leftFormat = ot.ValueFormatXAdvance
		rightValue = ot.ValueRecord{XPlacement: -half, XAdvance: -half}
		rightFormat = ot.ValueFormatXPlacement | ot.ValueFormatXAdvance
	}

	all := make([]ot.GlyphIndex, 0, len(left)+len(middle)+len(right))
	all = append(append(append(all, left...), middle...), right...)
	pairIndex := layout.AppendLookup(ot.BuiltLookup{
		Type:      2,
		Subtables: [][]byte{ot.BuildPairPosFormat2(left, all, leftValue, leftFormat)},
	})
	singleIndex := layout.AppendLookup(ot.BuiltLookup{
		Type:      1,
		Subtables: [][]byte{ot.BuildSinglePosFormat1(right, rightValue, rightFormat)},
	})
	backtrack := make([]ot.GlyphIndex, 0, len(middle)+len(right))
	backtrack = append(append(backtrack, middle...), right...)
	chainIndex := layout.AppendLookup(ot.BuiltLookup{
		Type:      8,
		Subtables: [][]byte{ot.BuildChainContextFormat3(backtrack, right, uint16(singleIndex))},
	})

	featureIndex := layout.AppendFeature(featureTag, []uint16{uint16(pairIndex), uint16(chainIndex)})
	tracer().Infof("adding feature '%s' at index %d for lookups %v",
		featureTag, featureIndex, []int{pairIndex, chainIndex})
	layout.AddFeatureToAllLangSys(uint16(featureIndex))
	return nil
}
