package upload

import "errors"

var (
	ErrInvalidSize    = errors.New("invalid size")
	ErrUnknownUpload  = errors.New("unknown upload")
	ErrClosed         = errors.New("upload already closed")
	ErrEmptyChunk     = errors.New("empty chunk")
	ErrFileExceeded   = errors.New("FileExceeded")
	ErrWriteFailed    = errors.New("WriteFailed")
)

// MaxFileSize is the hard cap on any single upload (spec: 25 MiB).
const MaxFileSize = 25 * 1024 * 1024
