// Package host supplies the editor-side primitives the preview core
// consumes: the focused document, file reads with charset detection, the
// path-to-URI mapper for the rendering surface, and the HTML file picker.
package host

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// Document is a snapshot of an open source document.
type Document struct {
	Path        string
	ContentType string
	Text        string
}

// IsHTML reports whether a detected content type is renderable HTML.
func IsHTML(contentType string) bool {
	return strings.Contains(contentType, "text/html")
}

// DetectContentType sniffs a document's content type from its bytes,
// trusting the extension when sniffing is inconclusive.
func DetectContentType(path string, data []byte) string {
	mtype := mimetype.Detect(data)
	if IsHTML(mtype.String()) {
		return mtype.String()
	}
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
		return "text/html; charset=utf-8"
	}
	return mtype.String()
}

// DecodeText converts raw file bytes to UTF-8 using charset detection.
// Falls back to the raw bytes when detection or conversion fails.
func DecodeText(data []byte) string {
	detector := chardet.NewTextDetector()
	detected := "utf-8"
	if result, err := detector.DetectBest(data); err == nil && result != nil {
		detected = strings.ToLower(result.Charset)
	}

	reader, err := charset.NewReader(bytes.NewReader(data), fmt.Sprintf("text/plain; charset=%s", detected))
	if err != nil {
		return string(data)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}
