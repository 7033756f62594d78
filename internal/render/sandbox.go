// Package render wraps resolved HTML into an isolated, script-capable
// rendering frame that cannot navigate its host page.
package render

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// navGuard intercepts anchor clicks at the document level in the capture
// phase. Hash-only links behave normally; http(s) links are reported to
// the host for potential external handling; nothing navigates the frame.
const navGuard = `<script>(function () {
  document.addEventListener("click", function (event) {
    var anchor = event.target && event.target.closest ? event.target.closest("a") : null;
    if (!anchor) { return; }
    var href = anchor.getAttribute("href") || "";
    if (href.charAt(0) === "#") { return; }
    event.preventDefault();
    if (href.indexOf("http://") === 0 || href.indexOf("https://") === 0) {
      if (window.parent !== window) {
        window.parent.postMessage({ command: "openExternal", href: href }, "*");
      }
    }
  }, true);
})();</script>`

// Renderer produces display payloads for the preview surface.
type Renderer struct {
	sanitize bool
	policy   *bluemonday.Policy
}

// New creates a renderer. When sanitize is set, documents pass through
// bluemonday's UGC policy before wrapping; scripts and event handlers are
// stripped, trading fidelity for safety on untrusted sources.
func New(sanitize bool) *Renderer {
	r := &Renderer{sanitize: sanitize}
	if sanitize {
		r.policy = bluemonday.UGCPolicy()
	}
	return r
}

// Frame wraps resolved HTML into a sandboxed iframe. The frame may run
// scripts in its own execution context but cannot navigate the outer page.
func (r *Renderer) Frame(html string) string {
	if r.sanitize {
		html = r.policy.Sanitize(html)
	}
	html = InjectNavGuard(html)
	return fmt.Sprintf(
		`<iframe class="preview-frame" sandbox="allow-scripts" srcdoc="%s"></iframe>`,
		EscapeAttr(html),
	)
}

// Placeholder is the view shown when no tab has bound content.
func (r *Renderer) Placeholder() string {
	return `<div class="preview-empty">` +
		`<p>No document loaded</p>` +
		`<button type="button" data-command="selectFile">Select an HTML file</button>` +
		`</div>`
}

// InjectNavGuard places the navigation-guard script immediately before
// the closing body marker, or appends it when no such marker exists.
func InjectNavGuard(html string) string {
	lower := strings.ToLower(html)
	idx := strings.LastIndex(lower, "</body>")
	if idx < 0 {
		return html + navGuard
	}
	return html[:idx] + navGuard + html[idx:]
}

// EscapeAttr escapes text for embedding as an attribute value. The
// ampersand must be escaped first so the entities it introduces are not
// escaped again.
func EscapeAttr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	s = strings.ReplaceAll(s, "'", "&#39;")
	return s
}
