package tensor

import "errors"

// Common errors.
var (
	ErrUnsupportedType = errors.New("unsupported data type")
	ErrLengthMismatch  = errors.New("incorrect tensor input data length")
	ErrDeviceSync      = errors.New("sync device to host failed")
	ErrNotNumber       = errors.New("expect tensor type number")
	ErrInvalidShape    = errors.New("invalid shape")
)
