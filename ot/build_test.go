package ot

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestBuildCoverage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.ot")
	defer teardown()
	//
	cov := BuildCoverageFormat1([]GlyphIndex{30, 10, 20})
	if u16(cov) != 1 || u16(cov[2:]) != 3 {
		t.Fatalf("unexpected coverage header: %v", cov)
	}
	for i, want := range []uint16{10, 20, 30} {
		if u16(cov[4+2*i:]) != want {
			t.Errorf("coverage glyphs not sorted: %v", cov)
		}
	}
}

func TestBuildClassDefRanges(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.ot")
	defer teardown()
	//
	cd := BuildClassDefFormat2([]GlyphIndex{5, 6, 7, 10}, 1)
	if u16(cd) != 2 {
		t.Fatalf("expected classDef format 2, have %d", u16(cd))
	}
	if u16(cd[2:]) != 2 {
		t.Fatalf("expected 2 class ranges, have %d", u16(cd[2:]))
	}
	// first range 5..7, second range 10..10, both class 1
	if u16(cd[4:]) != 5 || u16(cd[6:]) != 7 || u16(cd[8:]) != 1 {
		t.Errorf("unexpected first range: %v", cd)
	}
	if u16(cd[10:]) != 10 || u16(cd[12:]) != 10 || u16(cd[14:]) != 1 {
		t.Errorf("unexpected second range: %v", cd)
	}
	empty := BuildClassDefFormat2(nil, 0)
	if u16(empty) != 2 || u16(empty[2:]) != 0 {
		t.Errorf("expected an empty classDef, have %v", empty)
	}
}

func TestBuildSinglePos(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.ot")
	defer teardown()
	//
	format := ValueFormatXPlacement | ValueFormatXAdvance
	sub := BuildSinglePosFormat1([]GlyphIndex{42}, ValueRecord{XPlacement: -500, XAdvance: -500}, format)
	if u16(sub) != 1 {
		t.Fatalf("expected posFormat 1, have %d", u16(sub))
	}
	if u16(sub[4:]) != format {
		t.Errorf("unexpected value format %x", u16(sub[4:]))
	}
	if int16(u16(sub[6:])) != -500 || int16(u16(sub[8:])) != -500 {
		t.Errorf("unexpected value record: %v", sub[6:10])
	}
	covOff := u16(sub[2:])
	if u16(sub[covOff:]) != 1 || u16(sub[covOff+4:]) != 42 {
		t.Errorf("unexpected coverage at %d: %v", covOff, sub)
	}
}

func TestBuildPairPos(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.ot")
	defer teardown()
	//
	sub := BuildPairPosFormat2([]GlyphIndex{10, 11}, []GlyphIndex{20, 21},
		ValueRecord{XAdvance: -500}, ValueFormatXAdvance)
	if u16(sub) != 2 {
		t.Fatalf("expected posFormat 2, have %d", u16(sub))
	}
	if u16(sub[4:]) != ValueFormatXAdvance || u16(sub[6:]) != 0 {
		t.Error("unexpected value formats")
	}
	if u16(sub[12:]) != 1 || u16(sub[14:]) != 2 {
		t.Errorf("expected a 1x2 class matrix, have %dx%d", u16(sub[12:]), u16(sub[14:]))
	}
	// matrix: [class2=0] zero, [class2=1] the adjustment
	if int16(u16(sub[16:])) != 0 || int16(u16(sub[18:])) != -500 {
		t.Errorf("unexpected class matrix: %v", sub[16:20])
	}
	cd1Off, cd2Off := u16(sub[8:]), u16(sub[10:])
	if u16(sub[cd1Off+2:]) != 0 {
		t.Error("classDef1 must be empty, first glyph classes come from coverage")
	}
	if u16(sub[cd2Off+2:]) != 1 || u16(sub[cd2Off+8:]) != 1 {
		t.Errorf("expected classDef2 mapping second glyphs to class 1")
	}
	covOff := u16(sub[2:])
	if u16(sub[covOff+2:]) != 2 || u16(sub[covOff+4:]) != 10 {
		t.Error("unexpected first-glyph coverage")
	}
}

func TestBuildChainContext(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.ot")
	defer teardown()
	//
	sub := BuildChainContextFormat3([]GlyphIndex{10}, []GlyphIndex{20}, 3)
	if u16(sub) != 3 {
		t.Fatalf("expected format 3, have %d", u16(sub))
	}
	if u16(sub[2:]) != 1 || u16(sub[6:]) != 1 || u16(sub[10:]) != 0 {
		t.Error("unexpected backtrack/input/lookahead counts")
	}
	if u16(sub[12:]) != 1 || u16(sub[14:]) != 0 || u16(sub[16:]) != 3 {
		t.Error("unexpected sequence lookup record")
	}
	btOff, inOff := u16(sub[4:]), u16(sub[8:])
	if u16(sub[btOff+4:]) != 10 || u16(sub[inOff+4:]) != 20 {
		t.Error("unexpected coverage tables")
	}
}

func TestValueRecordSize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.ot")
	defer teardown()
	//
	if valueRecordSize(ValueFormatXAdvance) != 2 {
		t.Error("expected a single-field record to be 2 bytes")
	}
	if valueRecordSize(ValueFormatYPlacement|ValueFormatYAdvance) != 4 {
		t.Error("expected a two-field record to be 4 bytes")
	}
	if valueRecordSize(0) != 0 {
		t.Error("expected an empty record to be 0 bytes")
	}
}
