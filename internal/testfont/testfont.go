// Package testfont assembles minimal synthetic OpenType fonts for tests.
// The fonts carry just enough tables (head, maxp, name, optionally GSUB and
// GPOS) to exercise parsing, classification and feature synthesis; they are
// not shapeable and not valid for rendering.
package testfont

import (
	"bytes"
	"encoding/binary"
	"sort"
	"unicode/utf16"

	"github.com/npillmayer/chws/ot"
)

// Options describes one synthetic face.
type Options struct {
	UnitsPerEm uint16
	NumGlyphs  uint16
	FamilyName string
	GSUB       []byte
	GPOS       []byte
}

func (opt *Options) fill() {
	if opt.UnitsPerEm == 0 {
		opt.UnitsPerEm = 1000
	}
	if opt.NumGlyphs == 0 {
		opt.NumGlyphs = 100
	}
	if opt.FamilyName == "" {
		opt.FamilyName = "Synthetic Test"
	}
}

// Single builds a single sfnt font.
func Single(opt Options) []byte {
	opt.fill()
	tags, tables := faceTables(opt)
	var buf bytes.Buffer
	offsets := make(map[string]uint32)
	dirSize := 12 + 16*len(tags)
	blobs := appendDirectory(&buf, tags, tables, uint32(dirSize), offsets)
	writeBlobs(&buf, blobs)
	return buf.Bytes()
}

// Collection builds a TTC from the given faces. Identical table content is
// stored once and shared between faces, so two faces with equal GPOS bytes
// end up with the same GPOS file offset.
func Collection(opts []Options) []byte {
	headerSize := 12 + 4*len(opts)
	dirSize := 0
	faceTags := make([][]ot.Tag, len(opts))
	faceTabs := make([]map[ot.Tag][]byte, len(opts))
	for i := range opts {
		opts[i].fill()
		faceTags[i], faceTabs[i] = faceTables(opts[i])
		dirSize += 12 + 16*len(faceTags[i])
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(0x74746366)) // 'ttcf'
	binary.Write(&buf, binary.BigEndian, uint32(0x00010000))
	binary.Write(&buf, binary.BigEndian, uint32(len(opts)))
	dirPos := uint32(headerSize)
	for i := range opts {
		binary.Write(&buf, binary.BigEndian, dirPos)
		dirPos += uint32(12 + 16*len(faceTags[i]))
	}
	offsets := make(map[string]uint32)
	blobPos := uint32(headerSize + dirSize)
	var blobs [][]byte
	for i := range opts {
		more := appendDirectory(&buf, faceTags[i], faceTabs[i], blobPos, offsets)
		for _, b := range more {
			blobPos += uint32(len(padded(b)))
		}
		blobs = append(blobs, more...)
	}
	writeBlobs(&buf, blobs)
	return buf.Bytes()
}

// faceTables builds the tables of one face.
func faceTables(opt Options) ([]ot.Tag, map[ot.Tag][]byte) {
	tables := map[ot.Tag][]byte{
		ot.TagHead: headTable(opt.UnitsPerEm),
		ot.TagMaxp: maxpTable(opt.NumGlyphs),
		ot.TagName: nameTable(opt.FamilyName),
	}
	if opt.GSUB != nil {
		tables[ot.TagGSUB] = opt.GSUB
	}
	if opt.GPOS != nil {
		tables[ot.TagGPOS] = opt.GPOS
	}
	tags := make([]ot.Tag, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags, tables
}

// appendDirectory writes the offset table and table records of one face,
// assigning blob offsets starting at blobPos. Content already present in
// offsets is referenced instead of stored again; new blobs are returned in
// record order.
func appendDirectory(buf *bytes.Buffer, tags []ot.Tag, tables map[ot.Tag][]byte,
	blobPos uint32, offsets map[string]uint32) (blobs [][]byte) {
	//
	binary.Write(buf, binary.BigEndian, uint32(0x00010000))
	binary.Write(buf, binary.BigEndian, uint16(len(tags)))
	binary.Write(buf, binary.BigEndian, uint16(0)) // search params unused here
	binary.Write(buf, binary.BigEndian, uint16(0))
	binary.Write(buf, binary.BigEndian, uint16(0))
	for _, tag := range tags {
		data := tables[tag]
		offset, known := offsets[string(data)]
		if !known {
			offset = blobPos
			offsets[string(data)] = offset
			blobs = append(blobs, data)
			blobPos += uint32(len(padded(data)))
		}
		binary.Write(buf, binary.BigEndian, uint32(tag))
		binary.Write(buf, binary.BigEndian, uint32(0)) // checksum not verified
		binary.Write(buf, binary.BigEndian, offset)
		binary.Write(buf, binary.BigEndian, uint32(len(data)))
	}
	return blobs
}

func writeBlobs(buf *bytes.Buffer, blobs [][]byte) {
	for _, b := range blobs {
		buf.Write(padded(b))
	}
}

func padded(data []byte) []byte {
	if rem := len(data) % 4; rem != 0 {
		return append(append([]byte(nil), data...), make([]byte, 4-rem)...)
	}
	return data
}

func headTable(unitsPerEm uint16) []byte {
	head := make([]byte, 54)
	binary.BigEndian.PutUint32(head[0:], 0x00010000)
	binary.BigEndian.PutUint32(head[12:], 0x5F0F3CF5) // magic
	binary.BigEndian.PutUint16(head[18:], unitsPerEm)
	return head
}

func maxpTable(numGlyphs uint16) []byte {
	maxp := make([]byte, 6)
	binary.BigEndian.PutUint32(maxp[0:], 0x00005000) // version 0.5
	binary.BigEndian.PutUint16(maxp[4:], numGlyphs)
	return maxp
}

func nameTable(family string) []byte {
	encoded := utf16.Encode([]rune(family))
	str := make([]byte, 2*len(encoded))
	for i, u := range encoded {
		binary.BigEndian.PutUint16(str[2*i:], u)
	}
	name := make([]byte, 6+12+len(str))
	binary.BigEndian.PutUint16(name[2:], 1)		// count
	binary.BigEndian.PutUint16(name[4:], 18)	// string storage offset
	binary.BigEndian.PutUint16(name[6:], 3)		// platform: windows
	binary.BigEndian.PutUint16(name[8:], 1)		// encoding: unicode BMP
	binary.BigEndian.PutUint16(name[10:], 0x0409)
	binary.BigEndian.PutUint16(name[12:], 1)	// nameID: family
	binary.BigEndian.PutUint16(name[14:], uint16(len(str)))
	binary.BigEndian.PutUint16(name[16:], 0)
	copy(name[18:], str)
	return name
}

// VerticalGSUB builds a GSUB table carrying a 'vert' feature, the marker
// for vertical writing support.
func VerticalGSUB() []byte {
	layout := ot.NewLayout(ot.GSubKind)
	lk := ot.BuildSingleSubstFormat1([]ot.GlyphIndex{10, 11}, 50)
	inx := layout.AppendLookup(ot.BuiltLookup{Type: 1, Subtables: [][]byte{lk}})
	finx := layout.AppendFeature(ot.T("vert"), []uint16{uint16(inx)})
	layout.AddFeatureToAllLangSys(uint16(finx))
	data, err := layout.Compile()
	if err != nil {
		panic(err)
	}
	return data
}

// KernGPOS builds a GPOS table with one unrelated positioning feature, for
// testing that existing lookups survive a feature append.
func KernGPOS() []byte {
	layout := ot.NewLayout(ot.GPosKind)
	value := ot.ValueRecord{XAdvance: -80}
	lk := ot.BuildSinglePosFormat1([]ot.GlyphIndex{20, 21}, value, ot.ValueFormatXAdvance)
	inx := layout.AppendLookup(ot.BuiltLookup{Type: 1, Subtables: [][]byte{lk}})
	finx := layout.AppendFeature(ot.T("kern"), []uint16{uint16(inx)})
	layout.AddFeatureToAllLangSys(uint16(finx))
	data, err := layout.Compile()
	if err != nil {
		panic(err)
	}
	return data
}
