// Package ws carries the preview command channel: render payloads are
// pushed to connected surfaces, and a closed set of tagged commands
// flows back. Unknown tags are rejected with an error frame.
package ws
