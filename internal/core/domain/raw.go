package domain

// RawDocument is what an ingestion trigger delivers: an identifier, a content
// type and the bytes (or a location already read into bytes).
type RawDocument struct {
	// ID is the stable external document identifier.
	ID string

	// URI is the original location (file path, URL, etc).
	URI string

	// MIMEType is the content type (e.g., "text/markdown").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains trigger-specific key-value pairs.
	Metadata map[string]any
}

// ChangeType represents the type of document change.
type ChangeType int

const (
	// ChangeCreated indicates a new document.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified document.
	ChangeUpdated

	// ChangeDeleted indicates a removed document.
	ChangeDeleted
)

// String returns the string representation.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// RawDocumentChange represents a change event from a trigger.
// Deleted changes carry only the document ID.
type RawDocumentChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Document is the affected document.
	Document RawDocument
}
