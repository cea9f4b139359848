package ot

import (
	"bytes"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestTag(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.ot")
	defer teardown()
	//
	if T("GPOS") != TagGPOS {
		t.Errorf("expected T(\"GPOS\") to equal TagGPOS, is %x", T("GPOS"))
	}
	if TagGPOS.String() != "GPOS" {
		t.Errorf("expected tag to print as 'GPOS', is %q", TagGPOS.String())
	}
	if MakeTag([]byte("chws")) != T("chws") {
		t.Error("expected MakeTag and T to agree")
	}
}

func TestParseHeader(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.ot")
	defer teardown()
	//
	otf := parseTestFont(t, 2048, 7, "Almost A Font")
	if otf.Header.FontType != fontTypeTrueType {
		t.Errorf("expected font type 0x00010000, is %x", otf.Header.FontType)
	}
	if otf.UnitsPerEm() != 2048 {
		t.Errorf("expected 2048 units per em, have %d", otf.UnitsPerEm())
	}
	if otf.NumGlyphs() != 7 {
		t.Errorf("expected 7 glyphs, have %d", otf.NumGlyphs())
	}
	if otf.FamilyName() != "Almost A Font" {
		t.Errorf("unexpected family name %q", otf.FamilyName())
	}
	if !otf.HasTable(TagHead) || otf.HasTable(TagGPOS) {
		t.Error("unexpected table inventory")
	}
}

func TestParseRejectsCollection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.ot")
	defer teardown()
	//
	data := []byte{'t', 't', 'c', 'f', 0, 1, 0, 0}
	if _, err := Parse(data); err == nil {
		t.Error("expected Parse to reject a TTC file")
	}
}

func TestSetTableAndCompile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.ot")
	defer teardown()
	//
	otf := parseTestFont(t, 1000, 3, "Almost A Font")
	if otf.IsModified() {
		t.Fatal("fresh font claims to be modified")
	}
	gpos := []byte{0, 1, 0, 0, 0, 0, 0, 0, 0, 0}
	otf.SetTable(TagGPOS, gpos)
	if !otf.IsModified() {
		t.Fatal("font with replaced table claims to be unmodified")
	}
	if _, ok := otf.TableOffset(TagGPOS); ok {
		t.Error("replaced table must not report a file offset")
	}
	bin, err := otf.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if checksum(bin) != checksumMagic {
		t.Errorf("expected whole-font checksum %x, have %x", checksumMagic, checksum(bin))
	}
	reparsed, err := Parse(bin)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(reparsed.Table(TagGPOS), gpos) {
		t.Error("GPOS table did not survive the compile round trip")
	}
	if reparsed.FamilyName() != "Almost A Font" {
		t.Errorf("unexpected family name %q after round trip", reparsed.FamilyName())
	}
}

func TestCollectionSharing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "chws.ot")
	defer teardown()
	//
	gpos := []byte{0, 1, 0, 0, 0, 10, 0, 16, 0, 22, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	f1 := parseTestFont(t, 1000, 3, "Face One")
	f1.SetTable(TagGPOS, gpos)
	f2 := parseTestFont(t, 1000, 3, "Face Two")
	f2.SetTable(TagGPOS, gpos)
	coll := &Collection{Faces: []*Font{f1, f2}, ttc: true}
	bin, err := coll.Compile()
	if err != nil {
		t.Fatal(err)
	}
	reparsed, err := ParseCollection(bin)
	if err != nil {
		t.Fatal(err)
	}
	if !reparsed.IsCollection() || len(reparsed.Faces) != 2 {
		t.Fatalf("expected a TTC with 2 faces")
	}
	off1, ok1 := reparsed.Faces[0].TableOffset(TagGPOS)
	off2, ok2 := reparsed.Faces[1].TableOffset(TagGPOS)
	if !ok1 || !ok2 {
		t.Fatal("faces lack a GPOS offset")
	}
	if off1 != off2 {
		t.Errorf("identical GPOS tables not shared: offsets %d and %d", off1, off2)
	}
	// differing content must not be shared
	moff1, _ := reparsed.Faces[0].TableOffset(TagName)
	moff2, _ := reparsed.Faces[1].TableOffset(TagName)
	if moff1 == moff2 {
		t.Error("differing name tables share an offset")
	}
}

// --- Test font construction ------------------------------------------------

func parseTestFont(t *testing.T, upem, numGlyphs uint16, family string) *Font {
	tables := map[Tag][]byte{
		TagHead: testHead(upem),
		TagMaxp: testMaxp(numGlyphs),
		TagName: testName(family),
	}
	tags := []Tag{TagHead, TagMaxp, TagName} // ascending: head < maxp < name
	bin := compileSfnt(fontTypeTrueType, tags, tables, true)
	otf, err := Parse(bin)
	if err != nil {
		t.Fatalf("cannot parse synthetic test font: %v", err)
	}
	return otf
}

func testHead(upem uint16) []byte {
	head := make([]byte, 54)
	putU32(head, 0x00010000)
	putU32(head[12:], 0x5F0F3CF5)
	putU16(head[18:], upem)
	return head
}

func testMaxp(numGlyphs uint16) []byte {
	maxp := make([]byte, 6)
	putU32(maxp, 0x00005000)
	putU16(maxp[4:], numGlyphs)
	return maxp
}

func testName(family string) []byte {
	str := make([]byte, 0, 2*len(family))
	for _, r := range family { // ASCII only in tests
		str = append(str, 0, byte(r))
	}
	name := make([]byte, 18+len(str))
	putU16(name[2:], 1)
	putU16(name[4:], 18)
	putU16(name[6:], 3) // windows
	putU16(name[8:], 1) // unicode BMP
	putU16(name[10:], 0x0409)
	putU16(name[12:], 1) // family name
	putU16(name[14:], uint16(len(str)))
	putU16(name[16:], 0)
	copy(name[18:], str)
	return name
}
