package host

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// Picker lists the HTML documents a session may open. It backs the
// file-selection affordance of the preview surface.
type Picker struct {
	root     string
	patterns []string
}

// NewPicker creates a picker restricted to HTML files under root.
func NewPicker(root string) *Picker {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &Picker{
		root:     abs,
		patterns: []string{"**/*.html", "**/*.htm"},
	}
}

// ListDocuments walks the root and returns matching files sorted by path,
// relative to the root. Hidden directories are skipped.
func (p *Picker) ListDocuments() ([]string, error) {
	var (
		mu  sync.Mutex
		out []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, p.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != p.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(p.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range p.patterns {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				mu.Lock()
				out = append(out, rel)
				mu.Unlock()
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(out)
	return out, nil
}
