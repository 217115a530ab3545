package regroup

import "errors"

var (
	ErrInvalidCount       = errors.New("no valid access parameter, must be digit > 0")
	ErrLayerMissing       = errors.New("required layer is missing")
	ErrSelectionEmpty     = errors.New("selection is empty")
	ErrAmbiguousSelection = errors.New("please select only one polygon")
	ErrDegenerateGeometry = errors.New("polygon geometry is degenerate")
	ErrUnknownMode        = errors.New("unknown placement mode")
)
