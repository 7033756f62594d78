// Package session ties one preview session together: the tab store, the
// sync scheduler, the editor host and its file watcher, and the
// resolver/renderer pipeline that produces display payloads.
//
// Sessions are created through a Registry keyed by caller-supplied
// identifiers; there is no process-wide current session.
package session
