package ot

import (
	"errors"
	"fmt"
)

// ErrOffsetOverflow is returned by Layout.Compile when a structure cannot be
// reached with a 16-bit offset. With existing lookups wrapped in extension
// lookups this does not happen for realistic fonts, so no overflow resolution
// is attempted.
var ErrOffsetOverflow = errors.New("16-bit offset overflow in layout table")

// LayoutKind distinguishes the two advanced layout tables. The split matters
// for compilation: GSUB and GPOS use different lookup types for extension
// lookups.
type LayoutKind uint8

const (
	GSubKind LayoutKind = iota // GSUB
	GPosKind                   // GPOS
)

// "GSUB lookup type 7 and GPOS lookup type 9 provide a mechanism
// whereby any other lookup type's subtables are stored at 32-bit offsets"
func (k LayoutKind) extensionType() uint16 {
	if k == GPosKind {
		return 9
	}
	return 7
}

func (k LayoutKind) String() string {
	if k == GPosKind {
		return "GPOS"
	}
	return "GSUB"
}

const lookupFlagUseMarkFilteringSet = 0x0010

// LangSys is a language system table: the feature indices that apply for one
// language of a script. A Required index of 0xFFFF means no required feature.
type LangSys struct {
	Tag            Tag // zero value for a default language system
	Required       uint16
	FeatureIndices []uint16
}

// HasFeatureIndex checks inx for membership in the language system's feature list.
func (l *LangSys) HasFeatureIndex(inx uint16) bool {
	for _, fi := range l.FeatureIndices {
		if fi == inx {
			return true
		}
	}
	return false
}

// ScriptRecord is a script table together with its tag.
type ScriptRecord struct {
	Tag            Tag
	DefaultLangSys *LangSys
	LangSys        []LangSys
}

// FeatureRecord is a feature table together with its tag. LookupIndices
// index into the layout table's lookup list. Params carries raw feature
// parameters for the few features that have them.
type FeatureRecord struct {
	Tag           Tag
	Params        []byte
	LookupIndices []uint16
}

// BuiltLookup is a lookup assembled by a client, ready to be appended to a
// Layout. Subtables are raw subtable blobs as produced by the builder
// functions of this package.
type BuiltLookup struct {
	Type      uint16
	Flag      uint16
	Subtables [][]byte
}

// baseLookup describes a lookup of the pre-existing layout table. Subtable
// positions are absolute offsets into the base table bytes, with extension
// indirections already resolved.
type baseLookup struct {
	lookupType       uint16
	flag             uint16
	markFilteringSet uint16
	subtables        []uint32
	subtableTypes    []uint16
}

// Layout is a decompiled view of a GSUB or GPOS table, decompiled just deep
// enough to append lookups and features. The script and feature lists are
// fully decompiled; pre-existing lookups stay opaque and are carried along
// as part of the original table bytes.
//
// On Compile, the original table is embedded verbatim in the output and each
// pre-existing lookup is re-exposed through an extension lookup whose 32-bit
// offsets point into the embedded region. Lookup and feature indices are
// thereby preserved, and existing subtables need never be re-derived.
type Layout struct {
	Kind     LayoutKind
	Scripts  []ScriptRecord
	Features []FeatureRecord

	base        []byte
	baseLookups []baseLookup
	added       []BuiltLookup
	fvOffset    uint32 // featureVariations offset within base, 0 = none
}

// NewLayout creates an empty layout table with a DFLT script and a default
// language system, the shape a layout table takes in a font that never had
// one.
func NewLayout(kind LayoutKind) *Layout {
	return &Layout{
		Kind: kind,
		Scripts: []ScriptRecord{{
			Tag:            T("DFLT"),
			DefaultLangSys: &LangSys{Required: 0xFFFF},
		}},
	}
}

// ParseLayout decompiles a GSUB or GPOS table.
func ParseLayout(data []byte, kind LayoutKind) (*Layout, error) {
	if len(data) < 10 {
		return nil, errFontFormat(fmt.Sprintf("%s table truncated", kind))
	}
	major, minor := u16(data), u16(data[2:])
	if major != 1 {
		return nil, errFontFormat(fmt.Sprintf("unsupported %s version %d.%d", kind, major, minor))
	}
	l := &Layout{Kind: kind, base: data}
	if minor >= 1 {
		if len(data) < 14 {
			return nil, errFontFormat(fmt.Sprintf("%s table truncated", kind))
		}
		l.fvOffset = u32(data[10:])
	}
	var err error
	if l.Scripts, err = parseScriptList(data, u16(data[4:]), kind); err != nil {
		return nil, err
	}
	if l.Features, err = parseFeatureList(data, u16(data[6:]), kind); err != nil {
		return nil, err
	}
	if l.baseLookups, err = parseLookupList(data, u16(data[8:]), kind); err != nil {
		return nil, err
	}
	tracer().Debugf("%s: %d scripts, %d features, %d lookups", kind,
		len(l.Scripts), len(l.Features), len(l.baseLookups))
	return l, nil
}

func parseScriptList(data []byte, offset uint16, kind LayoutKind) ([]ScriptRecord, error) {
	if offset == 0 || int(offset)+2 > len(data) {
		return nil, errFontFormat(fmt.Sprintf("%s script list out of bounds", kind))
	}
	list := data[offset:]
	count := int(u16(list))
	if 2+6*count > len(list) {
		return nil, errFontFormat(fmt.Sprintf("%s script list out of bounds", kind))
	}
	scripts := make([]ScriptRecord, 0, count)
	for i := 0; i < count; i++ {
		rec := list[2+6*i:]
		tag, scrOff := Tag(u32(rec)), u16(rec[4:])
		script, err := parseScript(list, scrOff, kind)
		if err != nil {
			return nil, err
		}
		script.Tag = tag
		scripts = append(scripts, script)
	}
	return scripts, nil
}

func parseScript(list []byte, offset uint16, kind LayoutKind) (ScriptRecord, error) {
	var script ScriptRecord
	if int(offset)+4 > len(list) {
		return script, errFontFormat(fmt.Sprintf("%s script table out of bounds", kind))
	}
	tbl := list[offset:]
	dfltOff, count := u16(tbl), int(u16(tbl[2:]))
	if 4+6*count > len(tbl) {
		return script, errFontFormat(fmt.Sprintf("%s script table out of bounds", kind))
	}
	if dfltOff != 0 {
		lsys, err := parseLangSys(tbl, dfltOff, kind)
		if err != nil {
			return script, err
		}
		script.DefaultLangSys = &lsys
	}
	for i := 0; i < count; i++ {
		rec := tbl[4+6*i:]
		lsys, err := parseLangSys(tbl, u16(rec[4:]), kind)
		if err != nil {
			return script, err
		}
		lsys.Tag = Tag(u32(rec))
		script.LangSys = append(script.LangSys, lsys)
	}
	return script, nil
}

func parseLangSys(script []byte, offset uint16, kind LayoutKind) (LangSys, error) {
	var lsys LangSys
	if int(offset)+6 > len(script) {
		return lsys, errFontFormat(fmt.Sprintf("%s langsys table out of bounds", kind))
	}
	tbl := script[offset:]
	lsys.Required = u16(tbl[2:])
	count := int(u16(tbl[4:]))
	if 6+2*count > len(tbl) {
		return lsys, errFontFormat(fmt.Sprintf("%s langsys table out of bounds", kind))
	}
	lsys.FeatureIndices = make([]uint16, count)
	for i := range lsys.FeatureIndices {
		lsys.FeatureIndices[i] = u16(tbl[6+2*i:])
	}
	return lsys, nil
}

func parseFeatureList(data []byte, offset uint16, kind LayoutKind) ([]FeatureRecord, error) {
	if offset == 0 || int(offset)+2 > len(data) {
		return nil, errFontFormat(fmt.Sprintf("%s feature list out of bounds", kind))
	}
	list := data[offset:]
	count := int(u16(list))
	if 2+6*count > len(list) {
		return nil, errFontFormat(fmt.Sprintf("%s feature list out of bounds", kind))
	}
	features := make([]FeatureRecord, 0, count)
	for i := 0; i < count; i++ {
		rec := list[2+6*i:]
		tag, featOff := Tag(u32(rec)), u16(rec[4:])
		if int(featOff)+4 > len(list) {
			return nil, errFontFormat(fmt.Sprintf("%s feature table out of bounds", kind))
		}
		tbl := list[featOff:]
		paramsOff, n := u16(tbl), int(u16(tbl[2:]))
		if 4+2*n > len(tbl) {
			return nil, errFontFormat(fmt.Sprintf("%s feature table out of bounds", kind))
		}
		feature := FeatureRecord{Tag: tag, LookupIndices: make([]uint16, n)}
		for j := range feature.LookupIndices {
			feature.LookupIndices[j] = u16(tbl[4+2*j:])
		}
		if paramsOff != 0 {
			feature.Params = featureParams(tbl, paramsOff, tag)
		}
		features = append(features, feature)
	}
	return features, nil
}

// featureParams preserves the feature parameter blob for the features whose
// parameter size is known from the tag. Other parameterized features are
// rare enough in GSUB/GPOS tables we touch that dropping the blob with a
// warning is acceptable.
func featureParams(feature []byte, offset uint16, tag Tag) []byte {
	var size int
	switch tag {
	case T("size"):
		size = 10
	default:
		tracer().Infof("dropping unknown feature parameters of feature %s", tag)
		return nil
	}
	if int(offset)+size > len(feature) {
		return nil
	}
	params := make([]byte, size)
	copy(params, feature[offset:])
	return params
}

func parseLookupList(data []byte, offset uint16, kind LayoutKind) ([]baseLookup, error) {
	if offset == 0 || int(offset)+2 > len(data) {
		return nil, errFontFormat(fmt.Sprintf("%s lookup list out of bounds", kind))
	}
	list := data[offset:]
	count := int(u16(list))
	if 2+2*count > len(list) {
		return nil, errFontFormat(fmt.Sprintf("%s lookup list out of bounds", kind))
	}
	extType := kind.extensionType()
	lookups := make([]baseLookup, 0, count)
	for i := 0; i < count; i++ {
		lkOff := uint32(offset) + uint32(u16(list[2+2*i:]))
		if int64(lkOff)+6 > int64(len(data)) {
			return nil, errFontFormat(fmt.Sprintf("%s lookup %d out of bounds", kind, i))
		}
		tbl := data[lkOff:]
		lk := baseLookup{lookupType: u16(tbl), flag: u16(tbl[2:])}
		n := int(u16(tbl[4:]))
		hdrlen := 6 + 2*n
		if lk.flag&lookupFlagUseMarkFilteringSet != 0 {
			hdrlen += 2
		}
		if hdrlen > len(tbl) {
			return nil, errFontFormat(fmt.Sprintf("%s lookup %d out of bounds", kind, i))
		}
		if lk.flag&lookupFlagUseMarkFilteringSet != 0 {
			lk.markFilteringSet = u16(tbl[6+2*n:])
		}
		for j := 0; j < n; j++ {
			subPos := lkOff + uint32(u16(tbl[6+2*j:]))
			subType := lk.lookupType
			if lk.lookupType == extType {
				// resolve the extension indirection; nesting extensions is illegal
				if int64(subPos)+8 > int64(len(data)) {
					return nil, errFontFormat(fmt.Sprintf("%s extension subtable out of bounds", kind))
				}
				ext := data[subPos:]
				if u16(ext) != 1 {
					return nil, errFontFormat(fmt.Sprintf("unsupported %s extension subtable format %d", kind, u16(ext)))
				}
				subType = u16(ext[2:])
				subPos += u32(ext[4:])
				if int64(subPos) > int64(len(data)) {
					return nil, errFontFormat(fmt.Sprintf("%s extension subtable out of bounds", kind))
				}
			}
			lk.subtables = append(lk.subtables, subPos)
			lk.subtableTypes = append(lk.subtableTypes, subType)
		}
		lookups = append(lookups, lk)
	}
	return lookups, nil
}

// --- Queries and mutation --------------------------------------------------

// LookupCount returns the number of lookups, pre-existing and appended.
func (l *Layout) LookupCount() int {
	return len(l.baseLookups) + len(l.added)
}

// HasFeature checks if any feature record carries the given tag.
func (l *Layout) HasFeature(tag Tag) bool {
	for _, f := range l.Features {
		if f.Tag == tag {
			return true
		}
	}
	return false
}

// AppendLookup appends a lookup to the lookup list and returns its index.
// Pre-existing lookups keep their indices.
func (l *Layout) AppendLookup(lk BuiltLookup) int {
	l.added = append(l.added, lk)
	return len(l.baseLookups) + len(l.added) - 1
}

// AppendFeature appends a feature record to the feature list and returns its
// index. The feature is not yet referenced by any language system; see
// AddFeatureToAllLangSys.
func (l *Layout) AppendFeature(tag Tag, lookupIndices []uint16) int {
	l.Features = append(l.Features, FeatureRecord{Tag: tag, LookupIndices: lookupIndices})
	return len(l.Features) - 1
}

// AddFeatureToAllLangSys registers a feature index with every language system
// of every script, including default language systems. Language systems that
// already list the index are left alone.
func (l *Layout) AddFeatureToAllLangSys(featureIndex uint16) {
	for i := range l.Scripts {
		script := &l.Scripts[i]
		if script.DefaultLangSys != nil && !script.DefaultLangSys.HasFeatureIndex(featureIndex) {
			script.DefaultLangSys.FeatureIndices = append(script.DefaultLangSys.FeatureIndices, featureIndex)
		}
		for j := range script.LangSys {
			if !script.LangSys[j].HasFeatureIndex(featureIndex) {
				script.LangSys[j].FeatureIndices = append(script.LangSys[j].FeatureIndices, featureIndex)
			}
		}
	}
}

// LayoutHasFeature scans a GSUB or GPOS table's feature list for a tag
// without decompiling the table.
func LayoutHasFeature(data []byte, tag Tag) bool {
	if len(data) < 10 {
		return false
	}
	offset := u16(data[6:])
	if offset == 0 || int(offset)+2 > len(data) {
		return false
	}
	list := data[offset:]
	count := int(u16(list))
	if 2+6*count > len(list) {
		return false
	}
	for i := 0; i < count; i++ {
		if Tag(u32(list[2+6*i:])) == tag {
			return true
		}
	}
	return false
}

// --- Compilation -----------------------------------------------------------

// Compile serializes the layout table. The output consists of freshly
// serialized script, feature and lookup lists, the appended lookups, and —
// if the layout was parsed from an existing table — the original table
// embedded verbatim, reached through extension lookups.
func (l *Layout) Compile() ([]byte, error) {
	headerSize := 10
	if l.fvOffset != 0 {
		headerSize = 12 + 2 // minor version 1, 32-bit featureVariations offset
	}
	scriptList, err := l.compileScriptList()
	if err != nil {
		return nil, err
	}
	featureList, err := l.compileFeatureList()
	if err != nil {
		return nil, err
	}
	// base position is needed for the extension offsets, so size the lookup
	// area before writing it
	lookupArea := l.lookupAreaSize()
	basePos := headerSize + len(scriptList) + len(featureList) + lookupArea
	basePos = (basePos + 3) &^ 3
	lookupList, err := l.compileLookupArea(headerSize+len(scriptList)+len(featureList), basePos)
	if err != nil {
		return nil, err
	}

	size := basePos + len(l.base)
	out := make([]byte, size)
	putU16(out, 1) // majorVersion
	if l.fvOffset != 0 {
		putU16(out[2:], 1)
		putU32(out[10:], uint32(basePos)+l.fvOffset)
	}
	scriptListPos := headerSize
	featureListPos := scriptListPos + len(scriptList)
	lookupListPos := featureListPos + len(featureList)
	if lookupListPos+len(lookupList) > 0xffff {
		// the lookup list offset itself is 16 bit
		return nil, ErrOffsetOverflow
	}
	putU16(out[4:], uint16(scriptListPos))
	putU16(out[6:], uint16(featureListPos))
	putU16(out[8:], uint16(lookupListPos))
	copy(out[scriptListPos:], scriptList)
	copy(out[featureListPos:], featureList)
	copy(out[lookupListPos:], lookupList)
	copy(out[basePos:], l.base)
	return out, nil
}

func (l *Layout) compileScriptList() ([]byte, error) {
	count := len(l.Scripts)
	size := 2 + 6*count
	scriptSizes := make([]int, count)
	for i, s := range l.Scripts {
		sz := 4 + 6*len(s.LangSys)
		if s.DefaultLangSys != nil {
			sz += 6 + 2*len(s.DefaultLangSys.FeatureIndices)
		}
		for _, ls := range s.LangSys {
			sz += 6 + 2*len(ls.FeatureIndices)
		}
		scriptSizes[i] = sz
		size += sz
	}
	out := make([]byte, size)
	putU16(out, uint16(count))
	pos := 2 + 6*count
	for i, s := range l.Scripts {
		if pos > 0xffff {
			return nil, ErrOffsetOverflow
		}
		putU32(out[2+6*i:], uint32(s.Tag))
		putU16(out[2+6*i+4:], uint16(pos))
		if err := compileScript(out[pos:pos+scriptSizes[i]], s); err != nil {
			return nil, err
		}
		pos += scriptSizes[i]
	}
	return out, nil
}

func compileScript(out []byte, s ScriptRecord) error {
	putU16(out[2:], uint16(len(s.LangSys)))
	pos := 4 + 6*len(s.LangSys)
	writeLangSys := func(ls *LangSys) int {
		putU16(out[pos:], 0) // lookupOrderOffset, reserved
		putU16(out[pos+2:], ls.Required)
		putU16(out[pos+4:], uint16(len(ls.FeatureIndices)))
		for i, fi := range ls.FeatureIndices {
			putU16(out[pos+6+2*i:], fi)
		}
		return pos + 6 + 2*len(ls.FeatureIndices)
	}
	if s.DefaultLangSys != nil {
		if pos > 0xffff {
			return ErrOffsetOverflow
		}
		putU16(out, uint16(pos))
		pos = writeLangSys(s.DefaultLangSys)
	}
	for i := range s.LangSys {
		if pos > 0xffff {
			return ErrOffsetOverflow
		}
		putU32(out[4+6*i:], uint32(s.LangSys[i].Tag))
		putU16(out[4+6*i+4:], uint16(pos))
		pos = writeLangSys(&s.LangSys[i])
	}
	return nil
}

func (l *Layout) compileFeatureList() ([]byte, error) {
	count := len(l.Features)
	size := 2 + 6*count
	for _, f := range l.Features {
		size += 4 + 2*len(f.LookupIndices) + len(f.Params)
	}
	out := make([]byte, size)
	putU16(out, uint16(count))
	pos := 2 + 6*count
	for i, f := range l.Features {
		if pos > 0xffff {
			return nil, ErrOffsetOverflow
		}
		putU32(out[2+6*i:], uint32(f.Tag))
		putU16(out[2+6*i+4:], uint16(pos))
		tbl := out[pos:]
		putU16(tbl[2:], uint16(len(f.LookupIndices)))
		for j, li := range f.LookupIndices {
			putU16(tbl[4+2*j:], li)
		}
		if len(f.Params) > 0 {
			paramsOff := 4 + 2*len(f.LookupIndices)
			putU16(tbl, uint16(paramsOff))
			copy(tbl[paramsOff:], f.Params)
		}
		pos += 4 + 2*len(f.LookupIndices) + len(f.Params)
	}
	return out, nil
}

func wrappedLookupSize(lk baseLookup) int {
	n := len(lk.subtables)
	size := 6 + 2*n + 8*n // header, subtable offsets, extension subtables
	if lk.flag&lookupFlagUseMarkFilteringSet != 0 {
		size += 2
	}
	return size
}

func builtLookupSize(lk BuiltLookup) int {
	size := 6 + 2*len(lk.Subtables)
	if lk.Flag&lookupFlagUseMarkFilteringSet != 0 {
		size += 2
	}
	for _, sub := range lk.Subtables {
		size += len(sub)
	}
	return size
}

func (l *Layout) lookupAreaSize() int {
	size := 2 + 2*l.LookupCount()
	for _, lk := range l.baseLookups {
		size += wrappedLookupSize(lk)
	}
	for _, lk := range l.added {
		size += builtLookupSize(lk)
	}
	return size
}

// compileLookupArea writes the lookup list and all lookup tables. listPos and
// basePos are positions relative to the start of the layout table; basePos is
// where the embedded original table will live.
func (l *Layout) compileLookupArea(listPos, basePos int) ([]byte, error) {
	total := l.LookupCount()
	out := make([]byte, l.lookupAreaSize())
	putU16(out, uint16(total))
	pos := 2 + 2*total // position within the lookup area
	extType := l.Kind.extensionType()
	for i, lk := range l.baseLookups {
		if pos > 0xffff {
			return nil, ErrOffsetOverflow
		}
		putU16(out[2+2*i:], uint16(pos))
		tbl := out[pos:]
		n := len(lk.subtables)
		putU16(tbl, extType)
		putU16(tbl[2:], lk.flag)
		putU16(tbl[4:], uint16(n))
		subPos := 6 + 2*n
		if lk.flag&lookupFlagUseMarkFilteringSet != 0 {
			putU16(tbl[6+2*n:], lk.markFilteringSet)
			subPos += 2
		}
		for j := 0; j < n; j++ {
			putU16(tbl[6+2*j:], uint16(subPos))
			// extension subtable: format 1, target lookup type, 32-bit offset
			// from the extension subtable to the target within the embedded base
			putU16(tbl[subPos:], 1)
			putU16(tbl[subPos+2:], lk.subtableTypes[j])
			extAbs := listPos + pos + subPos // position within the layout table
			target := basePos + int(lk.subtables[j])
			putU32(tbl[subPos+4:], uint32(target-extAbs))
			subPos += 8
		}
		pos += wrappedLookupSize(lk)
	}
	for i, lk := range l.added {
		if pos > 0xffff {
			return nil, ErrOffsetOverflow
		}
		putU16(out[2+2*(len(l.baseLookups)+i):], uint16(pos))
		tbl := out[pos:]
		n := len(lk.Subtables)
		putU16(tbl, lk.Type)
		putU16(tbl[2:], lk.Flag)
		putU16(tbl[4:], uint16(n))
		subPos := 6 + 2*n
		if lk.Flag&lookupFlagUseMarkFilteringSet != 0 {
			subPos += 2
		}
		for j, sub := range lk.Subtables {
			if subPos > 0xffff {
				return nil, ErrOffsetOverflow
			}
			putU16(tbl[6+2*j:], uint16(subPos))
			copy(tbl[subPos:], sub)
			subPos += len(sub)
		}
		pos += builtLookupSize(lk)
	}
	return out, nil
}
