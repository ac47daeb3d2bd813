package source

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoSources  = errors.New("no fight sources configured")
	ErrReadSource = errors.New("read fight source failed")
	ErrDecode     = errors.New("decode fight source failed")
)
