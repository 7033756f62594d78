package host

import (
	"net/url"
	"path/filepath"
	"strings"
)

// AssetMapper maps filesystem paths to URIs the rendering surface is
// permitted to load, and resolves those URIs back to files for serving.
// Only paths under the session root resolve.
type AssetMapper struct {
	root   string
	prefix string
}

// NewAssetMapper creates a mapper serving files under root at prefix.
func NewAssetMapper(root, prefix string) *AssetMapper {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &AssetMapper{root: abs, prefix: strings.TrimSuffix(prefix, "/")}
}

// MapPath converts a filesystem path into a surface-addressable URI.
// Paths outside the root map to themselves untouched.
func (m *AssetMapper) MapPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(m.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}

	u := url.URL{Path: m.prefix + "/" + filepath.ToSlash(rel)}
	return u.String()
}

// Resolve converts a request path (already stripped of the URI prefix)
// back into a filesystem path, refusing anything outside the root.
func (m *AssetMapper) Resolve(requestPath string) (string, bool) {
	unescaped, err := url.PathUnescape(requestPath)
	if err != nil {
		return "", false
	}

	abs := filepath.Join(m.root, filepath.FromSlash(unescaped))
	abs = filepath.Clean(abs)
	if abs != m.root && !strings.HasPrefix(abs, m.root+string(filepath.Separator)) {
		return "", false
	}
	return abs, true
}
