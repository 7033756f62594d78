package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MapURI converts a filesystem path into a URI the rendering surface is
// permitted to load.
type MapURI func(path string) string

// Resolver resolves relative resource references against a document's
// directory.
type Resolver struct {
	mapURI MapURI
}

// New creates a resolver using the host-supplied URI mapper.
func New(mapURI MapURI) *Resolver {
	return &Resolver{mapURI: mapURI}
}

// Resolve rewrites the document's relative references. sourcePath is the
// file the document was loaded from; its directory is the base for
// relative-path resolution. Any parse failure fails open: the original
// text is returned unchanged.
func (r *Resolver) Resolve(html, sourcePath string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	base := filepath.Dir(sourcePath)
	r.inlineStylesheets(doc, base)
	r.resolveScripts(doc, base)
	r.rewriteSources(doc, base)

	out, err := doc.Html()
	if err != nil {
		return html
	}
	return out
}

// isAbsolute reports whether a reference needs no resolution.
func isAbsolute(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "//") ||
		strings.HasPrefix(lower, "data:")
}

// localPath resolves a relative reference against the base directory,
// dropping any query or fragment suffix.
func localPath(base, ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	if ref == "" {
		return ""
	}
	return filepath.Join(base, filepath.FromSlash(ref))
}

// inlineStylesheets replaces relative stylesheet links with inline style
// blocks carrying the file content verbatim. Unreadable targets keep
// their original markup.
func (r *Resolver) inlineStylesheets(doc *goquery.Document, base string) {
	doc.Find("link[rel='stylesheet'][href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" || isAbsolute(href) {
			return
		}

		path := localPath(base, href)
		if path == "" {
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return
		}
		s.ReplaceWithHtml(fmt.Sprintf("<style>%s</style>", string(data)))
	})
}

// resolveScripts handles script elements: readable relative targets are
// inlined, unreadable ones fall back to the URI rewrite every other
// src-bearing element gets.
func (r *Resolver) resolveScripts(doc *goquery.Document, base string) {
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" || isAbsolute(src) {
			return
		}

		path := localPath(base, src)
		if path == "" {
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if r.mapURI != nil {
				s.SetAttr("src", r.mapURI(path))
			}
			return
		}
		s.RemoveAttr("src")
		s.SetText(string(data))
	})
}

// rewriteSources maps every remaining relative src reference (images,
// media, frames) through the host URI mapper. Scripts are excluded: they
// were classified by resolveScripts already.
func (r *Resolver) rewriteSources(doc *goquery.Document, base string) {
	if r.mapURI == nil {
		return
	}
	doc.Find("[src]").Not("script").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" || isAbsolute(src) {
			return
		}

		path := localPath(base, src)
		if path == "" {
			return
		}
		s.SetAttr("src", r.mapURI(path))
	})
}
