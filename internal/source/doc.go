// Package source provides non-browser status accessors for statuspoll.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and size limits
//   - [HTTP]: reads a status string from a JSON field of an HTTP response
package source
