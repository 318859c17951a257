package errors

import (
	"fmt"
)

var (
	ErrNotFound        = fmt.Errorf("job not found")
	ErrVersionMismatch = fmt.Errorf("version mismatch")
	ErrInvalidState    = fmt.Errorf("invalid state")
	ErrInvalidArg      = fmt.Errorf("invalid arg")
	ErrInvalidParams   = fmt.Errorf("invalid params")
	ErrPaymentRejected = fmt.Errorf("payment rejected")
	ErrNotSupported    = fmt.Errorf("not supported")
)
