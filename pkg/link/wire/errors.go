package wire

import "errors"

var (
	// ErrUnknownEncoding indicates a word whose checksum verifies but
	// whose payload does not decode to any known frame.
	ErrUnknownEncoding = errors.New("unknown encoding")
)
