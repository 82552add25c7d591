package errors

import "errors"

// ErrFileNotFound is returned when a file is not found.
var ErrFileNotFound = errors.New("file not found")

// ErrIncorrectInput is returned when the user input is incorrect.
var ErrIncorrectInput = errors.New("incorrect input")

// ErrCAExists is returned when a CA certificate already exists
// and the operation was not forced.
var ErrCAExists = errors.New("CA certificate already exists")

// ErrCANotFound is returned when an operation requires a CA certificate
// that has not been created yet.
var ErrCANotFound = errors.New("CA certificate not found")

// ErrMissingDependency is returned when a required external binary
// is not found on the search path.
var ErrMissingDependency = errors.New("missing dependency")
