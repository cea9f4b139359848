package builder

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/npillmayer/chws/core"
	"github.com/npillmayer/chws/font"
	"github.com/npillmayer/chws/shaper"
	"github.com/npillmayer/chws/spacing"
)

// Builder adds chws/vchw features to one font file.
type Builder struct {
	Font   *font.Font
	Config *spacing.Config
	Shaper spacing.Shaper

	faces      []*font.Face // faces to process; nil = all
	spacings   []*spacing.Spacing
	builtFaces []*font.Face
}

// NewBuilder creates a builder for a loaded font, probing with HarfBuzz.
func NewBuilder(f *font.Font, config *spacing.Config) *Builder {
	if config == nil {
		config = spacing.DefaultConfig()
	}
	return &Builder{
		Font:   f,
		Config: config,
		Shaper: shaper.HarfBuzz{},
	}
}

// ApplyLanguages pins faces to language conventions before building.
// language is a comma-separated list of OpenType language system tags,
// indices a comma-separated list of face indices. A single language with no
// indices applies to every face; otherwise languages are zipped with the
// (listed or implied) indices, and listing indices also restricts the build
// to those faces.
func (b *Builder) ApplyLanguages(language, indices string) error {
	if !b.Font.IsCollection() {
		if indices != "" {
			return errBuild("face indices only apply to collection files")
		}
		if strings.Contains(language, ",") {
			return errBuild("multiple languages only apply to collection files")
		}
		b.Font.Faces[0].Language = language
		return nil
	}
	var faceIndices []int
	if indices == "" {
		for i := range b.Font.Faces {
			faceIndices = append(faceIndices, i)
		}
	} else {
		for _, field := range strings.Split(indices, ",") {
			i, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil || i < 0 || i >= len(b.Font.Faces) {
				return errBuild(fmt.Sprintf("invalid face index %q", field))
			}
			faceIndices = append(faceIndices, i)
		}
	}
	var languages []string
	if language != "" {
		languages = strings.Split(language, ",")
		if len(languages) == 1 {
			// a single language applies to all selected faces
			for len(languages) < len(faceIndices) {
				languages = append(languages, language)
			}
		}
	}
	b.faces = nil
	for k, i := range faceIndices {
		face := b.Font.Faces[i]
		if k < len(languages) {
			face.Language = strings.TrimSpace(languages[k])
		}
		b.faces = append(b.faces, face)
	}
	return nil
}

// facesToBuild returns the selected faces, defaulting to all.
func (b *Builder) facesToBuild() []*font.Face {
	if b.faces != nil {
		return b.faces
	}
	return b.Font.Faces
}

// HasSpacings is true if Build produced any spacing features.
func (b *Builder) HasSpacings() bool {
	return len(b.spacings) > 0
}

// BuiltFaces returns the faces that received a spacing feature.
func (b *Builder) BuiltFaces() []*font.Face {
	return b.builtFaces
}

// Build classifies glyphs and adds the spacing features. Fonts that
// already carry a chws/vchw feature, and fonts where no glyph pairs to
// adjust were found, are left unmodified; HasSpacings tells the outcome.
func (b *Builder) Build() error {
	tracer().Infof("building %s", b.Font)
	if b.Font.IsCollection() {
		return b.buildCollection()
	}
	face := b.Font.Faces[0]
	if spacing.FontHasFeature(face) {
		tracer().Infof("skipping %s, already has a spacing feature", face)
		return nil
	}
	cache := spacing.NewClassCache(b.Font)
	sp := spacing.NewSpacing()
	if err := sp.AddGlyphs(face, b.Shaper, cache, b.Config); err != nil {
		return err
	}
	if !sp.CanAddToFont() {
		tracer().Infof("skipping %s, no pairs", face)
		return nil
	}
	if err := sp.AddToFont(face); err != nil {
		return err
	}
	b.spacings = append(b.spacings, sp)
	b.builtFaces = append(b.builtFaces, face)
	return nil
}

// gposKey identifies a face group of a collection by the file offset of its
// GPOS table. Faces without GPOS form one group of their own and will share
// a freshly built table.
type gposKey struct {
	offset uint32
	hasSub bool
}

// buildCollection processes the faces of a TTC. Faces sharing their GPOS
// table are classified into one united spacing, then every face of the
// group gets the same feature data, so the rebuilt tables come out
// byte-identical and are shared again in the output file.
func (b *Builder) buildCollection() error {
	cache := spacing.NewClassCache(b.Font)
	type group struct {
		spacing *spacing.Spacing
		faces   []*font.Face
	}
	groupByKey := make(map[gposKey]*group)
	var groups []*group
	for _, face := range b.facesToBuild() {
		if spacing.FontHasFeature(face) {
			tracer().Infof("skipping %s, already has a spacing feature", b.Font)
			return nil
		}
		offset, ok := face.GPOSOffset()
		key := gposKey{offset: offset, hasSub: ok}
		if g, shared := groupByKey[key]; shared {
			tracer().Infof("%s GPOS at %d (shared)", face, offset)
			if err := g.spacing.AddGlyphs(face, b.Shaper, cache, b.Config); err != nil {
				return err
			}
			g.faces = append(g.faces, face)
			continue
		}
		tracer().Infof("%s GPOS at %d", face, offset)
		sp := spacing.NewSpacing()
		if err := sp.AddGlyphs(face, b.Shaper, cache, b.Config); err != nil {
			return err
		}
		g := &group{spacing: sp, faces: []*font.Face{face}}
		groupByKey[key] = g
		groups = append(groups, g)
	}
	for _, g := range groups {
		if !g.spacing.CanAddToFont() {
			tracer().Infof("skipping %v, no pairs", g.faces)
			continue
		}
		for _, face := range g.faces {
			if err := g.spacing.AddToFont(face); err != nil {
				return err
			}
		}
		b.spacings = append(b.spacings, g.spacing)
		b.builtFaces = append(b.builtFaces, g.faces...)
	}
	return nil
}

// CalcOutputPath derives the output file path: the input file name within
// outputDir if given, the input path itself otherwise, with stemSuffix
// inserted before the extension.
func CalcOutputPath(inputPath, outputDir, stemSuffix string) string {
	outputPath := inputPath
	if outputDir != "" {
		outputPath = filepath.Join(outputDir, filepath.Base(inputPath))
	}
	if stemSuffix == "" {
		return outputPath
	}
	ext := filepath.Ext(outputPath)
	return outputPath[:len(outputPath)-len(ext)] + stemSuffix + ext
}

// Save writes the modified font to its output path and returns that path.
func (b *Builder) Save(outputDir, stemSuffix string) (string, error) {
	if !b.HasSpacings() {
		return "", errBuild("nothing was built, not saving")
	}
	outputPath := CalcOutputPath(b.Font.Path, outputDir, stemSuffix)
	if err := b.Font.Save(outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

// SaveGlyphs writes the united glyph classification of all built faces as a
// text report.
func (b *Builder) SaveGlyphs(w io.Writer) error {
	if !b.HasSpacings() {
		return errBuild("nothing was built, no glyphs to save")
	}
	united := spacing.NewSpacing()
	for _, sp := range b.spacings {
		united.Unite(sp)
	}
	return united.SaveGlyphs(w)
}

// Test re-shapes the built font and verifies the spacing adjustments; see
// Tester.
func (b *Builder) Test() error {
	return NewTester(b.Font).Test(b.Config)
}

// --- Path expansion --------------------------------------------------------

var fontExtensions = map[string]bool{
	".otf": true,
	".otc": true,
	".ttf": true,
	".ttc": true,
}

// IsFontExtension is true for file extensions of OpenType fonts.
func IsFontExtension(ext string) bool {
	return fontExtensions[strings.ToLower(ext)]
}

// ExpandPaths expands a list of command line arguments to font file paths:
// directories are searched recursively for font files, and "-" reads
// paths from stdin, one per line.
func ExpandPaths(args []string) ([]string, error) {
	return expandPaths(args, os.Stdin, func(path string) bool {
		return IsFontExtension(filepath.Ext(path))
	})
}

// expandPaths walks directory arguments with accept deciding which files
// qualify; explicitly listed files bypass the filter.
func expandPaths(args []string, stdin io.Reader, accept func(string) bool) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if arg == "-" {
			scanner := bufio.NewScanner(stdin)
			for scanner.Scan() {
				if line := strings.TrimSpace(scanner.Text()); line != "" {
					paths = append(paths, line)
				}
			}
			if err := scanner.Err(); err != nil {
				return nil, core.WrapError(err, core.EINTERNAL, "cannot read paths from stdin")
			}
			continue
		}
		info, err := os.Stat(arg)
		if err != nil {
			return nil, core.WrapError(err, core.EMISSING, "cannot stat %s", arg)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && accept(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, core.WrapError(err, core.EINTERNAL, "cannot scan directory %s", arg)
		}
	}
	return paths, nil
}
