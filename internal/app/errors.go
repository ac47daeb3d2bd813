package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrRebuild = errors.New("rebuild ranking failed")
	ErrExport  = errors.New("export ranking failed")
)
