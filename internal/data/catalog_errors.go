package data

import "fmt"

// StructuralError reports a catalog that is missing a mandatory section or has
// the wrong shape. Nothing from such a catalog is ever exposed.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "invalid configuration: " + e.Reason
}

func structuralf(format string, args ...any) *StructuralError {
	return &StructuralError{Reason: fmt.Sprintf(format, args...)}
}

// TransportError reports a failure to fetch or parse the catalog document.
type TransportError struct {
	Source string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("configuration loading failed: %s: %v", e.Source, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ItemWarning describes a catalog item dropped during validation.
type ItemWarning struct {
	Index  int
	ID     string
	Reason string
}

func (w ItemWarning) String() string {
	if w.ID == "" {
		return fmt.Sprintf("#%d: %s", w.Index, w.Reason)
	}
	return fmt.Sprintf("#%d (%s): %s", w.Index, w.ID, w.Reason)
}
