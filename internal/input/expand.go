package input

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Expand turns command line arguments into a list of files. Files are kept
// as given, even when they do not exist, so the caller can report them.
// Directories are walked only when recursive is set; inside them hidden
// entries, non-regular files and paths matched by a .gitignore are skipped.
// Each path appears once, in argument order then walk order.
func Expand(paths []string, recursive bool) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			add(p)
			continue
		}
		if !recursive {
			return nil, fmt.Errorf("%s is a directory (use --recursive)", p)
		}
		if err := walkDir(p, add); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// walkDir walks root and calls add for each file that survives filtering.
// Gitignore layers are inherited from the parent directory, so a rule only
// applies below the directory holding it.
func walkDir(root string, add func(string)) error {
	root = filepath.Clean(root)
	layers := make(map[string][]ignoreLayer)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("walk %s: %w", root, err)
			}
			// unreadable subtrees are skipped
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		parent := layers[filepath.Dir(path)]
		if path != root {
			if isHidden(d.Name()) || isIgnoredByLayers(parent, path, d.IsDir()) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			inherited := parent
			if path == root {
				inherited = nil
			}
			if layer := loadIgnoreLayer(path); layer.parser != nil {
				inherited = append(inherited[:len(inherited):len(inherited)], layer)
			}
			layers[path] = inherited
			return nil
		}

		if d.Type().IsRegular() {
			add(path)
		}
		return nil
	})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

type ignoreLayer struct {
	dir    string
	parser *ignore.GitIgnore
}

// loadIgnoreLayer compiles the .gitignore in dir. The parser is nil when
// the file is missing or unreadable.
func loadIgnoreLayer(dir string) ignoreLayer {
	parser, err := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return ignoreLayer{dir: dir}
	}
	return ignoreLayer{dir: dir, parser: parser}
}

// isIgnoredByLayers checks fullPath against every layer, relative to the
// directory each layer was loaded from.
func isIgnoredByLayers(layers []ignoreLayer, fullPath string, isDir bool) bool {
	for _, layer := range layers {
		rel, err := filepath.Rel(layer.dir, fullPath)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if isDir {
			rel += "/"
		}
		if layer.parser.MatchesPath(rel) {
			return true
		}
	}
	return false
}
