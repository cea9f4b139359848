package ot

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// Magic numbers of the sfnt container format.
const (
	fontTypeTrueType   uint32 = 0x00010000 // TrueType outlines
	fontTypeOpenType   uint32 = 0x4F54544F // 'OTTO', CFF outlines
	fontTypeAppleTT    uint32 = 0x74727565 // 'true', Apple legacy
	fontTypeCollection uint32 = 0x74746366 // 'ttcf'
)

const (
	offsetTableSize = 12 // sfntVersion + numTables + searchRange + entrySelector + rangeShift
	tableRecordSize = 16 // tag + checksum + offset + length
)

// Parse parses an OpenType font from a byte slice. The font file may be a
// single font only; for collection files (TTC) use ParseCollection.
// The byte slice is kept referenced and must not be modified afterwards.
func Parse(data []byte) (*Font, error) {
	if len(data) < 4 {
		return nil, errFontFormat("font file too short")
	}
	if u32(data) == fontTypeCollection {
		return nil, errFontFormat("font is a collection file, not a single font")
	}
	return parseFontAt(data, 0, 0)
}

// parseFontAt parses the table directory at the given file offset, together
// with the handful of header fields (head, maxp, name) clients of this
// package rely on.
func parseFontAt(data []byte, offset uint32, faceIndex int) (*Font, error) {
	if int64(offset)+offsetTableSize > int64(len(data)) {
		return nil, errFontFormat("table directory out of bounds")
	}
	fontType := u32(data[offset:])
	switch fontType {
	case fontTypeTrueType, fontTypeOpenType, fontTypeAppleTT:
	default:
		return nil, errFontFormat(fmt.Sprintf("font type not supported: %x", fontType))
	}
	numTables := u16(data[offset+4:])
	tracer().Debugf("font contains %d tables", numTables)
	f := &Font{
		Header:    FontHeader{FontType: fontType, TableCount: numTables},
		FaceIndex: faceIndex,
		data:      data,
		records:   make([]TableRecord, 0, numTables),
	}
	recbase := int64(offset) + offsetTableSize
	if recbase+int64(numTables)*tableRecordSize > int64(len(data)) {
		return nil, errFontFormat("table directory out of bounds")
	}
	for i := 0; i < int(numTables); i++ {
		b := data[recbase+int64(i)*tableRecordSize:]
		rec := TableRecord{
			Tag:      Tag(u32(b)),
			Checksum: u32(b[4:]),
			Offset:   u32(b[8:]),
			Length:   u32(b[12:]),
		}
		if int64(rec.Offset)+int64(rec.Length) > int64(len(data)) {
			return nil, errFontFormat(fmt.Sprintf("table %s out of bounds", rec.Tag))
		}
		f.records = append(f.records, rec)
	}
	if err := f.parseHeaderTables(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Font) parseHeaderTables() error {
	head := f.Table(TagHead)
	if len(head) < 54 {
		return errFontFormat("head table missing or truncated")
	}
	f.unitsPerEm = u16(head[18:])
	if f.unitsPerEm == 0 {
		return errFontFormat("head.unitsPerEm is zero")
	}
	maxp := f.Table(TagMaxp)
	if len(maxp) < 6 {
		return errFontFormat("maxp table missing or truncated")
	}
	f.numGlyphs = int(u16(maxp[4:]))
	f.family = parseNameEntry(f.Table(TagName), 1)
	return nil
}

// Name returns a name table entry, e.g. 1 for the family name or 4 for the
// full font name, or "" if the entry is missing or not decodable.
func (f *Font) Name(nameID uint16) string {
	return parseNameEntry(f.Table(TagName), nameID)
}

// parseNameEntry extracts one entry from a name table. Windows Unicode BMP
// records (platform 3, encoding 1) take precedence, Unicode platform records
// serve as fallback.
func parseNameEntry(name []byte, wantID uint16) string {
	if len(name) < 6 {
		return ""
	}
	count := int(u16(name[2:]))
	storage := int(u16(name[4:]))
	best := -1 // 2 = windows, 1 = unicode
	entry := ""
	for i := 0; i < count; i++ {
		rec := name[6+i*12:]
		if len(rec) < 12 {
			break
		}
		pltf, enc, nameID := u16(rec), u16(rec[2:]), u16(rec[6:])
		if nameID != wantID {
			continue
		}
		var rank int
		switch {
		case pltf == 3 && enc == 1:
			rank = 2
		case pltf == 0:
			rank = 1
		default:
			continue
		}
		if rank <= best {
			continue
		}
		strlen := int(u16(rec[8:]))
		stroff := int(u16(rec[10:]))
		if storage+stroff+strlen > len(name) {
			continue
		}
		s, err := decodeUtf16(name[storage+stroff : storage+stroff+strlen])
		if err != nil {
			tracer().Infof("name table entry not decodable: %v", err)
			continue
		}
		entry, best = s, rank
	}
	return entry
}

func decodeUtf16(str []byte) (string, error) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	decoder := enc.NewDecoder()
	s, err := decoder.Bytes(str)
	if err != nil {
		return "", fmt.Errorf("decoding UTF-16 error: %v", err)
	}
	return string(s), nil
}

// --- Collections -----------------------------------------------------------

// Collection is a set of font faces parsed from one font file. Single-font
// files yield a collection with exactly one face; TTC files yield one face
// per collection entry. Faces of a TTC may share tables, which is visible
// through identical TableOffset values.
type Collection struct {
	Faces []*Font
	data  []byte
	ttc   bool
}

// ParseCollection parses a font file that may be either a single font or a
// TTC collection file.
// The byte slice is kept referenced and must not be modified afterwards.
func ParseCollection(data []byte) (*Collection, error) {
	if len(data) < 4 {
		return nil, errFontFormat("font file too short")
	}
	if u32(data) != fontTypeCollection {
		f, err := parseFontAt(data, 0, 0)
		if err != nil {
			return nil, err
		}
		return &Collection{Faces: []*Font{f}, data: data}, nil
	}
	if len(data) < 12 {
		return nil, errFontFormat("TTC header truncated")
	}
	numFonts := u32(data[8:])
	tracer().Debugf("TTC header with %d fonts", numFonts)
	if numFonts == 0 || numFonts > 0xffff {
		return nil, errFontFormat(fmt.Sprintf("implausible number of fonts in TTC: %d", numFonts))
	}
	if int64(12+4*numFonts) > int64(len(data)) {
		return nil, errFontFormat("TTC header truncated")
	}
	coll := &Collection{
		Faces: make([]*Font, 0, numFonts),
		data:  data,
		ttc:   true,
	}
	for i := 0; i < int(numFonts); i++ {
		offset := u32(data[12+4*i:])
		f, err := parseFontAt(data, offset, i)
		if err != nil {
			return nil, err
		}
		coll.Faces = append(coll.Faces, f)
	}
	return coll, nil
}

// IsCollection returns true for faces parsed from a TTC file.
func (c *Collection) IsCollection() bool {
	return c.ttc
}

// IsModified returns true if any face has a replaced table.
func (c *Collection) IsModified() bool {
	for _, f := range c.Faces {
		if f.IsModified() {
			return true
		}
	}
	return false
}
