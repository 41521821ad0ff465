// Package driven defines secondary port interfaces for external adapters.
package driven

import "errors"

// ErrStoreUnavailable wraps any persistence failure that is not a domain
// condition (read/write errors, closed database, corrupt rows).
var ErrStoreUnavailable = errors.New("store unavailable")
