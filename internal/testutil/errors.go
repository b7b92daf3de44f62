package testutil

import "errors"

// ErrSimulated is returned by test doubles that emulate a broken dependency.
var ErrSimulated = errors.New("simulated error for testing")
