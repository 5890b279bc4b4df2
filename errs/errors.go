// Package errs defines the sentinel errors shared by the fitstile packages.
//
// Errors are returned wrapped with context (fmt.Errorf with %w); callers match
// them with errors.Is.
package errs

import "errors"

// Configuration errors. They are reported at the call that introduced the bad
// configuration and are never corrected silently.
var (
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrUnknownAlgorithm    = errors.New("unknown compression algorithm")
	ErrUnsupportedElement  = errors.New("element type not supported by algorithm")
	ErrInvalidTileSize     = errors.New("invalid tile size")
	ErrTileOutOfBounds     = errors.New("tile exceeds image bounds")
	ErrBufferSizeMismatch  = errors.New("buffer size mismatch")
	ErrDuplicateParameter  = errors.New("duplicate compression parameter name")
	ErrInvalidQuantization = errors.New("invalid quantization method")
)

// Storage collaborator errors.
var (
	ErrMissingHeaderCard  = errors.New("missing header card")
	ErrInvalidHeaderValue = errors.New("invalid header card value")
	ErrColumnNotFound     = errors.New("column not found")
	ErrColumnType         = errors.New("column type mismatch")
	ErrRowOutOfRange      = errors.New("row index out of range")
	ErrColumnsNotReady    = errors.New("columns not initialized")
)

// Decompression errors.
var (
	ErrCorruptData        = errors.New("corrupt compressed data")
	ErrMaskMismatch       = errors.New("null pixel mask does not match tile payload")
	ErrMissingTilePayload = errors.New("tile payload missing")
	ErrNoStreamProvider   = errors.New("no stream provider for magic bytes")
)
