package error

import "errors"

var ErrTypeAssertMismatch = errors.New("failed to type assert value from context")
