package imagesim

import "errors"

// Common index errors
var (
	// ErrEmptyIndex indicates a similarity query against an index with no
	// records (every input failed or no rebuild happened yet)
	ErrEmptyIndex = errors.New("index has no records")

	// ErrIndexOutOfRange indicates a record index outside [0, Len)
	ErrIndexOutOfRange = errors.New("record index out of range")

	// ErrTitleCountMismatch indicates a titles slice whose length differs
	// from the locations slice
	ErrTitleCountMismatch = errors.New("titles must be nil or match locations in length")

	// ErrNoVector indicates the pipeline yielded no vector for an item
	// without reporting an error (a fetcher's "no result" outcome); the
	// item is dropped like any other failure
	ErrNoVector = errors.New("no vector produced for image")

	// ErrInvalidMatchCount indicates a non-positive top-match count
	ErrInvalidMatchCount = errors.New("match count must be positive")
)
