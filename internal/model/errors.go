package model

import "errors"

// ErrNotFound is returned only where absence is a caller error (e.g.
// migrating a memorial id that does not exist). Plain reads report
// absence as a nil record, not an error.
var ErrNotFound = errors.New("not found")
