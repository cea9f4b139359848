package ot

import "sort"

// ValueRecord formats, see OpenType spec § GPOS header.
const (
	ValueFormatXPlacement uint16 = 0x0001
	ValueFormatYPlacement uint16 = 0x0002
	ValueFormatXAdvance   uint16 = 0x0004
	ValueFormatYAdvance   uint16 = 0x0008
)

// ValueRecord describes a glyph position adjustment in font design units.
// Which of the fields end up in the serialized record is controlled by a
// value format mask; device table fields are not supported.
type ValueRecord struct {
	XPlacement int16
	YPlacement int16
	XAdvance   int16
	YAdvance   int16
}

// valueRecordSize returns the byte size of a ValueRecord with the given format.
func valueRecordSize(format uint16) int {
	count := 0
	for f := format & 0xff; f != 0; f >>= 1 {
		if f&1 != 0 {
			count++
		}
	}
	return count * 2
}

// writeValueRecord writes those fields of vr selected by format.
func writeValueRecord(data []byte, vr ValueRecord, format uint16) {
	off := 0
	if format&ValueFormatXPlacement != 0 {
		putU16(data[off:], uint16(vr.XPlacement))
		off += 2
	}
	if format&ValueFormatYPlacement != 0 {
		putU16(data[off:], uint16(vr.YPlacement))
		off += 2
	}
	if format&ValueFormatXAdvance != 0 {
		putU16(data[off:], uint16(vr.XAdvance))
		off += 2
	}
	if format&ValueFormatYAdvance != 0 {
		putU16(data[off:], uint16(vr.YAdvance))
	}
}

func sortedGlyphs(glyphs []GlyphIndex) []GlyphIndex {
	sorted := make([]GlyphIndex, len(glyphs))
	copy(sorted, glyphs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

// BuildCoverageFormat1 builds a format 1 coverage table. The input need not
// be sorted; the caller's slice is left untouched.
func BuildCoverageFormat1(glyphs []GlyphIndex) []byte {
	sorted := sortedGlyphs(glyphs)
	// format(2) + glyphCount(2) + glyphArray[](2n)
	data := make([]byte, 4+len(sorted)*2)
	putU16(data, 1)
	putU16(data[2:], uint16(len(sorted)))
	for i, g := range sorted {
		putU16(data[4+i*2:], uint16(g))
	}
	return data
}

// BuildClassDefFormat2 builds a ClassDef format 2 table assigning the given
// class to every glyph of the set. Glyphs outside the set get class 0, per
// the spec.
func BuildClassDefFormat2(glyphs []GlyphIndex, class uint16) []byte {
	sorted := sortedGlyphs(glyphs)
	type classRange struct {
		start, end GlyphIndex
	}
	var ranges []classRange
	for _, g := range sorted {
		if n := len(ranges); n > 0 && g == ranges[n-1].end+1 {
			ranges[n-1].end = g
		} else {
			ranges = append(ranges, classRange{g, g})
		}
	}
	// format(2) + classRangeCount(2) + ClassRangeRecords[](6n)
	data := make([]byte, 4+len(ranges)*6)
	putU16(data, 2)
	putU16(data[2:], uint16(len(ranges)))
	for i, r := range ranges {
		off := 4 + i*6
		putU16(data[off:], uint16(r.start))
		putU16(data[off+2:], uint16(r.end))
		putU16(data[off+4:], class)
	}
	return data
}

// BuildSinglePosFormat1 builds a GPOS type 1 (single adjustment) subtable
// applying the same value record to every covered glyph.
func BuildSinglePosFormat1(glyphs []GlyphIndex, value ValueRecord, valueFormat uint16) []byte {
	vrsize := valueRecordSize(valueFormat)
	coverage := BuildCoverageFormat1(glyphs)
	headerSize := 6 + vrsize
	data := make([]byte, headerSize+len(coverage))
	putU16(data, 1)                      // posFormat
	putU16(data[2:], uint16(headerSize)) // coverageOffset
	putU16(data[4:], valueFormat)
	writeValueRecord(data[6:], value, valueFormat)
	copy(data[headerSize:], coverage)
	return data
}

// BuildPairPosFormat2 builds a GPOS type 2 (pair adjustment) subtable in its
// class-based form: a single first-glyph class covering the first set, a
// single second-glyph class for the second set, with the value record applied
// to the first glyph of each matching pair. The second glyph is not adjusted.
func BuildPairPosFormat2(first, second []GlyphIndex, value ValueRecord, valueFormat uint16) []byte {
	vrsize := valueRecordSize(valueFormat)
	// class1Count = 1 (the coverage restricts first glyphs already),
	// class2Count = 2 (class 1 = second set, class 0 = everything else)
	matrixSize := 1 * 2 * vrsize
	headerSize := 16
	classDef1 := BuildClassDefFormat2(nil, 0) // all first glyphs in class 0
	classDef2 := BuildClassDefFormat2(second, 1)
	coverage := BuildCoverageFormat1(first)

	classDef1Off := headerSize + matrixSize
	classDef2Off := classDef1Off + len(classDef1)
	coverageOff := classDef2Off + len(classDef2)
	data := make([]byte, coverageOff+len(coverage))
	putU16(data, 2) // posFormat
	putU16(data[2:], uint16(coverageOff))
	putU16(data[4:], valueFormat) // valueFormat1
	putU16(data[6:], 0)           // valueFormat2
	putU16(data[8:], uint16(classDef1Off))
	putU16(data[10:], uint16(classDef2Off))
	putU16(data[12:], 1) // class1Count
	putU16(data[14:], 2) // class2Count
	// class1Records[0].class2Records: [0] stays zero, [1] carries the value
	writeValueRecord(data[headerSize+vrsize:], value, valueFormat)
	copy(data[classDef1Off:], classDef1)
	copy(data[classDef2Off:], classDef2)
	copy(data[coverageOff:], coverage)
	return data
}

// BuildChainContextFormat3 builds a chained context subtable (GSUB type 6 /
// GPOS type 8, format 3) with a one-glyph backtrack set, a one-glyph input
// set, no lookahead, and a single nested lookup applied at input position 0.
func BuildChainContextFormat3(backtrack, input []GlyphIndex, lookupIndex uint16) []byte {
	backtrackCov := BuildCoverageFormat1(backtrack)
	inputCov := BuildCoverageFormat1(input)
	const headerSize = 18
	backtrackOff := headerSize
	inputOff := backtrackOff + len(backtrackCov)
	data := make([]byte, inputOff+len(inputCov))
	putU16(data, 3)		// format
	putU16(data[2:], 1)	// backtrackGlyphCount
	putU16(data[4:], uint16(backtrackOff))
	putU16(data[6:], 1)	// inputGlyphCount
	putU16(data[8:], uint16(inputOff))
	putU16(data[10:], 0)	// lookaheadGlyphCount
	putU16(data[12:], 1)	// seqLookupCount
	putU16(data[14:], 0)	// sequenceIndex
	putU16(data[16:], lookupIndex)
	copy(data[backtrackOff:], backtrackCov)
	copy(data[inputOff:], inputCov)
	return data
}

// BuildSingleSubstFormat1 builds a GSUB type 1 format 1 (single substitution)
// subtable mapping each covered glyph to glyph + delta.
func BuildSingleSubstFormat1(glyphs []GlyphIndex, delta int16) []byte {
	coverage := BuildCoverageFormat1(glyphs)
	data := make([]byte, 6+len(coverage))
	putU16(data, 1)
	putU16(data[2:], 6) // coverageOffset
	putU16(data[4:], uint16(delta))
	copy(data[6:], coverage)
	return data
}
