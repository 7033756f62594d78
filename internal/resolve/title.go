package resolve

import (
	"strings"

	"github.com/antchfx/htmlquery"
)

// Title extracts the document's title text, or "" when absent.
func Title(html string) string {
	doc, err := htmlquery.Parse(strings.NewReader(html))
	if err != nil {
		return ""
	}
	node := htmlquery.FindOne(doc, "//title")
	if node == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.InnerText(node))
}
