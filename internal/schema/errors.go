// Package schema implements a declarative structural validator: a document
// shape is described as a Spec value and walked generically, so adding a
// required field to a document is a data change, not new assertion code.
package schema

// Reason labels one class of structural defect.
type Reason string

const (
	// ReasonMissing reports a required field that is absent.
	ReasonMissing Reason = "missing"
	// ReasonWrongType reports a value of the wrong shape or type.
	ReasonWrongType Reason = "wrong type"
	// ReasonKeyMismatch reports a map entry whose identifying field does not
	// equal its key.
	ReasonKeyMismatch Reason = "key/value mismatch"
	// ReasonDuplicateKey reports an object key that appears more than once in
	// the source document.
	ReasonDuplicateKey Reason = "duplicate key"
	// ReasonEmpty reports a mapping or text that must not be empty but is.
	ReasonEmpty Reason = "empty"
	// ReasonInvalidKey reports a map key that violates the key rule, such as
	// a zero-padded or non-numeric chapter number.
	ReasonInvalidKey Reason = "invalid key"
	// ReasonInvalidJSON reports input that is not well-formed JSON at all.
	ReasonInvalidJSON Reason = "invalid JSON"
)

// Error is one structural validation finding. Path is the dot-joined field
// path from the document root ("chapters.2.verses.47.languages.sa.text");
// the root itself is the empty path.
type Error struct {
	Path   string `json:"path"`
	Reason Reason `json:"reason"`
}

// Error implements the error interface for log and CLI output.
func (e Error) Error() string {
	if e.Path == "" {
		return string(e.Reason)
	}
	return e.Path + ": " + string(e.Reason)
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
