package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// The Noto CJK release encodes each face's target convention in its family
// name ("Noto Sans CJK JP", "Noto Serif CJK TC", ...), so languages need
// not be given on the command line: this file derives them from the names.

// NotoLanguage derives the OpenType language system tag from a Noto CJK
// family name. ok is false for non-Noto families, for the Mono variants,
// and for names without a region part.
func NotoLanguage(familyName string) (language string, ok bool) {
	if !strings.HasPrefix(familyName, "Noto ") {
		return "", false
	}
	if strings.Contains(familyName, "Mono") {
		return "", false
	}
	switch {
	case strings.Contains(familyName, "JP"):
		return "JAN", true
	case strings.Contains(familyName, "KR"):
		return "KOR", true
	case strings.Contains(familyName, "SC"):
		return "ZHS", true
	case strings.Contains(familyName, "TC"):
		return "ZHT", true
	case strings.Contains(familyName, "HK"):
		return "ZHH", true
	}
	return "", false
}

// ApplyNotoLanguages derives per-face languages from the Noto CJK family
// names, instead of an explicit ApplyLanguages selection. Faces of a
// collection whose name yields no language are dropped from the build; a
// single font whose name yields none is an error.
func (b *Builder) ApplyNotoLanguages() error {
	if !b.Font.IsCollection() {
		face := b.Font.Faces[0]
		language, ok := NotoLanguage(face.FamilyName())
		if !ok {
			return errBuild(fmt.Sprintf("not a Noto CJK font: %q", face.FamilyName()))
		}
		face.Language = language
		return nil
	}
	b.faces = nil
	for i, face := range b.Font.Faces {
		language, ok := NotoLanguage(face.FamilyName())
		if !ok {
			tracer().Infof("face %d %s skipped, no Noto CJK language", i, face)
			continue
		}
		face.Language = language
		b.faces = append(b.faces, face)
	}
	if len(b.faces) == 0 {
		return errBuild("no Noto CJK faces in collection")
	}
	return nil
}

// IsNotoFontPath is true for file names the Noto CJK release uses:
// a Noto prefix, an .otf or .ttc extension, and not a Mono variant.
func IsNotoFontPath(path string) bool {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "Noto") || strings.Contains(name, "Mono") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".otf" || ext == ".ttc"
}

// ExpandNotoPaths expands command line arguments like ExpandPaths, but
// directories are searched for Noto CJK font files only. Explicitly
// listed files are taken as given.
func ExpandNotoPaths(args []string) ([]string, error) {
	return expandPaths(args, os.Stdin, IsNotoFontPath)
}
