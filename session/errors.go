package session

import "github.com/rjboer/xrce-client/internal/xrceerr"

// Runtime errors returned by Create and Listen. These are aliases onto
// internal/xrceerr so internal/framing and this package can share one
// taxonomy without session importing framing's internals or framing
// importing session (which owns framing).
var (
	ErrTimeout      = xrceerr.ErrTimeout
	ErrIO           = xrceerr.ErrIO
	ErrRemoteAddr   = xrceerr.ErrRemoteAddr
	ErrInvalidData  = xrceerr.ErrInvalidData
	ErrDenied       = xrceerr.ErrDenied
	ErrIncompatible = xrceerr.ErrIncompatible
)

// PartWrittenError reports a short HAL write that made no further progress;
// see internal/xrceerr.PartWrittenError.
type PartWrittenError = xrceerr.PartWrittenError
