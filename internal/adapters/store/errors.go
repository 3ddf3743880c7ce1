package store

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrTableNotFound       = errors.New("data table not found")
	ErrNotDataTable        = errors.New("export is not a data table")
	ErrEngineMismatch      = errors.New("engine version mismatch")
	ErrUnsupportedProperty = errors.New("unsupported property type")
	ErrInvalidDocument     = errors.New("invalid export document")
	ErrNotLoaded           = errors.New("document not loaded")
)
