// Package main is the entry point for the previewd server.
//
// previewd renders live, sandboxed previews of HTML documents while they
// are being edited. Each preview session watches its focused document,
// debounces writes, resolves relative stylesheet/script/asset references
// and pushes rendered iframe payloads to connected surfaces over
// WebSocket.
//
// Architecture:
//
//	Editor host (filesystem) → debounced sync → tab store
//	                                         → resolver/renderer → WebSocket push
//
// The server provides:
//   - REST API for session lifecycle and asset serving
//   - WebSocket command channel per session
//   - Prometheus metrics
//   - Rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional YAML file overlay (-config)
//   - CLI flags (override both)
//
// Usage:
//
//	./previewd -port 8900 -root ./site
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
