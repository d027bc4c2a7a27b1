package codec

import "fmt"

// DecodeError reports a document that failed structural validation.
// It never accompanies a partially-populated collection: decoding is
// all-or-nothing.
type DecodeError struct {
	Collection string // collection name, e.g. "tasks"
	Reason     string // human-readable reason
	Err        error  // underlying cause, may be nil
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %s: %v", e.Collection, e.Reason, e.Err)
	}

	return fmt.Sprintf("decode %s: %s", e.Collection, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(collection, reason string, err error) *DecodeError {
	return &DecodeError{Collection: collection, Reason: reason, Err: err}
}
