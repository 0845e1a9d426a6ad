package driver

import "fmt"

// NotEnteredError is returned by any operation that requires an active
// session when Enter has not yet succeeded.
type NotEnteredError struct{}

func (e *NotEnteredError) Error() string {
	return "driver: no active session; call Enter first"
}

// BaudCoercedError is not actually an error returned to the caller — it
// backs the warning the driver logs when a requested baud rate isn't one
// of the four the target supports and gets coerced to 115200bps.
type BaudCoercedError struct {
	Requested int
	Actual    int
}

func (e *BaudCoercedError) Error() string {
	return fmt.Sprintf("unsupported baud rate %dbps, using %dbps", e.Requested, e.Actual)
}
