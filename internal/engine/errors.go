package engine

// constError is an immutable error type for sentinel errors.
// It implements the error interface and can be compared with errors.Is().
type constError string

func (e constError) Error() string { return string(e) }

// Validation errors raised by the quantification core. These are
// caller-recoverable: catch and present, never fatal to the process.
var (
	// ErrEmptyInput indicates a calculation was requested on an empty
	// record set.
	ErrEmptyInput = constError("input data is empty; provide at least one activity record")

	// ErrNoValidRows indicates every row was dropped during numeric
	// validation or factor resolution.
	ErrNoValidRows = constError("no valid rows remain after numeric validation")
)
