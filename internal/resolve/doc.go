// Package resolve rewrites a document's relative resource references into
// forms the sandboxed rendering frame can load.
//
// Resolution is a single markup-aware pass: every reference is classified
// exactly once as inline, URI-rewrite, or leave-alone, so no two passes
// can race over the same element. Stylesheets and scripts with readable
// relative targets are inlined; other relative src references are mapped
// through the host-supplied URI mapper; absolute references are never
// touched. Missing or unreadable targets leave the original markup
// unchanged.
package resolve
