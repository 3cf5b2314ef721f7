package finder

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

var extensions = map[scenario.Language][]string{
	scenario.LanguageC:      {".c", ".cc", ".cpp", ".cxx", ".h", ".hh", ".hpp"},
	scenario.LanguagePython: {".py", ".pyw", ".py3"},
	scenario.LanguageRuby:   {".rb"},
}

// FindSourceFiles walks a fixture tree and returns the paths, relative to
// root and slash separated, of all files the analyzer would scan for lang.
// Extensions match case-insensitively. Hidden directories are skipped.
func FindSourceFiles(root string, lang scenario.Language) ([]string, error) {
	if lang == scenario.LanguageDefault {
		lang = scenario.LanguageC
	}
	exts := extensions[lang]

	var sourceFiles []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !slices.Contains(exts, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sourceFiles = append(sourceFiles, filepath.ToSlash(rel))
		return nil
	})

	slices.Sort(sourceFiles)
	return sourceFiles, err
}

// MissingRoots returns the expected scan roots that are not in the tree
func MissingRoots(root string, lang scenario.Language, roots []string) ([]string, error) {
	files, err := FindSourceFiles(root, lang)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, r := range roots {
		if _, found := slices.BinarySearch(files, r); !found {
			missing = append(missing, r)
		}
	}
	return missing, nil
}
