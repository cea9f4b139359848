package ot

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is defined by the spec as:
// Array of four uint8s (length = 32 bits) used to identify a table, design-variation axis,
// script, language system, feature, or baseline
type Tag uint32

// MakeTag creates a Tag from 4 bytes, e.g.,
//
//	MakeTag([]byte("GPOS"))
//
// If b is shorter or longer, it will be silently extended or cut as appropriate.
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate.
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// Tags of tables and features this module deals with regularly.
var (
	TagHead = T("head")
	TagMaxp = T("maxp")
	TagName = T("name")
	TagGSUB = T("GSUB")
	TagGPOS = T("GPOS")
)

// --- Font ------------------------------------------------------------------

// FontHeader is a directory of the top-level tables in a font. If the font file
// contains only one font, the table directory will begin at byte 0 of the file.
// If the font file is an OpenType Font Collection file, the beginning
// point of the table directory for each font is indicated in the TTC header.
//
// OpenType fonts that contain TrueType outlines use the value of 0x00010000
// for the FontType. OpenType fonts containing CFF data (version 1 or 2)
// use 0x4F54544F ('OTTO', when re-interpreted as a Tag).
type FontHeader struct {
	FontType   uint32
	TableCount uint16
}

// TableRecord is an entry of the font's table directory.
// Offset and Length locate the table's data within the font file the
// font was parsed from. For collection files the offset is relative to
// the start of the file, not to the face's table directory, which is
// what makes shared tables recognizable across faces.
type TableRecord struct {
	Tag      Tag
	Checksum uint32
	Offset   uint32
	Length   uint32
}

// Font represents a single face of an OpenType font file, i.e. one table
// directory and the tables it points to. Tables are exposed as raw byte
// segments; semantic interpretation is left to the packages sitting on
// top of this one.
//
// A Font is an overlay view: it never modifies the bytes it was parsed
// from. Replacement tables set with SetTable live alongside the original
// data until Compile serializes a new standalone font binary.
type Font struct {
	Header    FontHeader
	FaceIndex int // index within a collection file, 0 for single fonts

	data     []byte // the complete font file (collection file for TTCs)
	records  []TableRecord
	replaced map[Tag][]byte

	// fields lifted out of head, maxp and name during parsing
	unitsPerEm uint16
	numGlyphs  int
	family     string
}

// Table returns the byte segment of the font table with the given tag, or nil
// if the font has no such table. If a replacement has been set with SetTable,
// the replacement is returned.
//
// Table tag names are case-sensitive, following the names in the OpenType
// specification.
func (f *Font) Table(tag Tag) []byte {
	if b, ok := f.replaced[tag]; ok {
		return b
	}
	for _, r := range f.records {
		if r.Tag == tag {
			return f.data[r.Offset : r.Offset+r.Length]
		}
	}
	return nil
}

// HasTable checks for the existence of a table without touching its data.
func (f *Font) HasTable(tag Tag) bool {
	if _, ok := f.replaced[tag]; ok {
		return true
	}
	for _, r := range f.records {
		if r.Tag == tag {
			return true
		}
	}
	return false
}

// TableOffset returns the offset of a table's data within the font file the
// face was parsed from. For faces of a collection file this is the offset
// within the collection, so two faces sharing a table report the same offset.
// Tables replaced via SetTable have no file offset; ok is false then, as it
// is for missing tables.
func (f *Font) TableOffset(tag Tag) (offset uint32, ok bool) {
	if _, repl := f.replaced[tag]; repl {
		return 0, false
	}
	for _, r := range f.records {
		if r.Tag == tag {
			return r.Offset, true
		}
	}
	return 0, false
}

// SetTable replaces (or adds) a table. The font file bytes are left
// untouched; the replacement takes effect for Table and Compile.
func (f *Font) SetTable(tag Tag, data []byte) {
	if f.replaced == nil {
		f.replaced = make(map[Tag][]byte)
	}
	f.replaced[tag] = data
}

// IsModified returns true if any table has been replaced since parsing.
func (f *Font) IsModified() bool {
	return len(f.replaced) > 0
}

// TableTags returns a list of tags, one for each table contained in the font,
// in ascending tag order.
func (f *Font) TableTags() []Tag {
	tags := make([]Tag, 0, len(f.records)+len(f.replaced))
	seen := make(map[Tag]bool, len(f.records))
	for _, r := range f.records {
		tags = append(tags, r.Tag)
		seen[r.Tag] = true
	}
	for tag := range f.replaced {
		if !seen[tag] {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// UnitsPerEm returns head.unitsPerEm.
func (f *Font) UnitsPerEm() uint16 { return f.unitsPerEm }

// NumGlyphs returns maxp.numGlyphs.
func (f *Font) NumGlyphs() int { return f.numGlyphs }

// FamilyName returns the font family (name ID 1) from the name table, or ""
// if the font carries no decodable family name.
func (f *Font) FamilyName() string { return f.family }

func (f *Font) String() string {
	return fmt.Sprintf("%s[%d tables]", f.family, len(f.records))
}

// --- Binary helpers --------------------------------------------------------

func u16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

func u32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

func putU16(b []byte, v uint16) {
	binary.BigEndian.PutUint16(b, v)
}

func putU32(b []byte, v uint32) {
	binary.BigEndian.PutUint32(b, v)
}
