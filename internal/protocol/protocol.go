// Package protocol encodes and decodes the subset of the Mark Protocol that
// the Mark content source needs: FETCH requests and their responses.
//
// A request is a "VERB /path" line, optionally followed by YAML metadata
// between "---" lines. A response is YAML frontmatter carrying "status" and
// other metadata, followed by the markdown body.
package protocol

const (
	// DefaultPort is the default port for Mark Protocol servers.
	DefaultPort = 6309

	// ALPN is the application-layer protocol negotiation identifier.
	ALPN = "mark"

	// VerbFetch retrieves a document.
	VerbFetch = "FETCH"
)

// Response status values.
const (
	StatusOK          = "ok"
	StatusNotModified = "not-modified"
	StatusNotFound    = "not-found"
	StatusServerError = "server-error"
)
