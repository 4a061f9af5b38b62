package serial

import "errors"

// ErrClosed is returned by Port operations once Close has been called,
// matching the fmt.Errorf("...: %w", err) + sentinel convention the rest
// of the module uses instead of a bespoke error type.
var ErrClosed = errors.New("serial: port already closed")
