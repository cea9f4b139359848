package ot

// checkSumAdjustment is computed such that the whole font sums to this magic
// value, see OpenType spec § head table.
const checksumMagic uint32 = 0xB1B0AFBA

const headAdjustmentOffset = 8 // position of checkSumAdjustment within head

// Compile serializes the face as a standalone font binary, applying any
// table replacements set with SetTable. Tables are emitted in ascending tag
// order, 4-byte padded, with recalculated checksums and head adjustment, so
// output depends only on table content.
//
// For faces of a collection file this produces a single-font extraction of
// the face, which is also what text shaping libraries without TTC support
// want to be fed.
func (f *Font) Compile() ([]byte, error) {
	tags := f.TableTags()
	tables := make(map[Tag][]byte, len(tags))
	for _, tag := range tags {
		tables[tag] = f.Table(tag)
	}
	return compileSfnt(f.Header.FontType, tags, tables, true), nil
}

// compileSfnt writes one table directory plus table data. With adjustHead
// set, head.checkSumAdjustment is recomputed over the whole output;
// otherwise it is zeroed, which is the convention used for collection
// members where the font-level checksum is not well-defined.
func compileSfnt(fontType uint32, tags []Tag, tables map[Tag][]byte, adjustHead bool) []byte {
	numTables := len(tags)
	searchRange, entrySelector, rangeShift := calcSearchParams(numTables)
	headerSize := offsetTableSize + numTables*tableRecordSize

	dataSize := 0
	for _, tag := range tags {
		dataSize += pad4(len(tables[tag]))
	}
	out := make([]byte, headerSize+dataSize)
	putU32(out, fontType)
	putU16(out[4:], uint16(numTables))
	putU16(out[6:], searchRange)
	putU16(out[8:], entrySelector)
	putU16(out[10:], rangeShift)

	offset := headerSize
	headOffset := -1
	for i, tag := range tags {
		data := tables[tag]
		if tag == TagHead && len(data) >= headAdjustmentOffset+4 {
			headOffset = offset
		}
		rec := out[offsetTableSize+i*tableRecordSize:]
		putU32(rec, uint32(tag))
		putU32(rec[8:], uint32(offset))
		putU32(rec[12:], uint32(len(data)))
		copy(out[offset:], data)
		if tag == TagHead && headOffset >= 0 {
			putU32(out[headOffset+headAdjustmentOffset:], 0)
		}
		putU32(rec[4:], checksum(out[offset:offset+pad4(len(data))]))
		offset += pad4(len(data))
	}
	if adjustHead && headOffset >= 0 {
		putU32(out[headOffset+headAdjustmentOffset:], checksumMagic-checksum(out))
	}
	return out
}

// Compile serializes the collection. Single-font collections produce a
// plain font binary. TTC collections produce a 'ttcf' version 1.0 file in
// which identical tables are stored once and shared across faces, so table
// sharing of the input file survives as long as faces were modified
// identically.
func (c *Collection) Compile() ([]byte, error) {
	if !c.ttc {
		return c.Faces[0].Compile()
	}
	numFonts := len(c.Faces)
	headerSize := 12 + 4*numFonts

	type faceDir struct {
		tags   []Tag
		tables map[Tag][]byte
	}
	dirs := make([]faceDir, numFonts)
	dirSize := 0
	for i, f := range c.Faces {
		tags := f.TableTags()
		tables := make(map[Tag][]byte, len(tags))
		for _, tag := range tags {
			data := f.Table(tag)
			if tag == TagHead && len(data) >= headAdjustmentOffset+4 {
				// zero the adjustment so identical heads stay shareable
				head := make([]byte, len(data))
				copy(head, data)
				putU32(head[headAdjustmentOffset:], 0)
				data = head
			}
			tables[tag] = data
		}
		dirs[i] = faceDir{tags: tags, tables: tables}
		dirSize += offsetTableSize + len(tags)*tableRecordSize
	}

	// first pass: deduplicate table data by content, assign offsets
	offsets := make(map[string]uint32)
	var blobs [][]byte
	pos := uint32(headerSize + dirSize)
	for _, dir := range dirs {
		for _, tag := range dir.tags {
			data := dir.tables[tag]
			if _, ok := offsets[string(data)]; !ok {
				offsets[string(data)] = pos
				blobs = append(blobs, data)
				pos += uint32(pad4(len(data)))
			}
		}
	}

	out := make([]byte, pos)
	putU32(out, fontTypeCollection)
	putU32(out[4:], 0x00010000) // version 1.0
	putU32(out[8:], uint32(numFonts))
	dirPos := uint32(headerSize)
	for i, f := range c.Faces {
		putU32(out[12+4*i:], dirPos)
		dir := dirs[i]
		numTables := len(dir.tags)
		searchRange, entrySelector, rangeShift := calcSearchParams(numTables)
		putU32(out[dirPos:], f.Header.FontType)
		putU16(out[dirPos+4:], uint16(numTables))
		putU16(out[dirPos+6:], searchRange)
		putU16(out[dirPos+8:], entrySelector)
		putU16(out[dirPos+10:], rangeShift)
		for j, tag := range dir.tags {
			data := dir.tables[tag]
			rec := out[dirPos+offsetTableSize+uint32(j*tableRecordSize):]
			putU32(rec, uint32(tag))
			putU32(rec[4:], checksum(padded(data)))
			putU32(rec[8:], offsets[string(data)])
			putU32(rec[12:], uint32(len(data)))
		}
		dirPos += offsetTableSize + uint32(numTables*tableRecordSize)
	}
	for _, data := range blobs {
		copy(out[offsets[string(data)]:], data)
	}
	return out, nil
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

// padded returns data 4-byte zero-padded, copying only when necessary.
func padded(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	p := make([]byte, pad4(len(data)))
	copy(p, data)
	return p
}

// calcSearchParams calculates the binary search fields of the table directory.
func calcSearchParams(numTables int) (searchRange, entrySelector, rangeShift uint16) {
	entrySelector = 0
	power := 1
	for power*2 <= numTables {
		power *= 2
		entrySelector++
	}
	searchRange = uint16(power * 16)
	rangeShift = uint16(numTables*16) - searchRange
	return
}

// checksum calculates the OpenType table checksum: the sum of the data read
// as big-endian uint32s, with a short tail zero-padded.
func checksum(data []byte) uint32 {
	var sum uint32
	length := len(data)
	for i := 0; i+4 <= length; i += 4 {
		sum += u32(data[i:])
	}
	if remaining := length % 4; remaining > 0 {
		var last uint32
		offset := length - remaining
		for i := 0; i < remaining; i++ {
			last |= uint32(data[offset+i]) << (24 - i*8)
		}
		sum += last
	}
	return sum
}
