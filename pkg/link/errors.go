package link

import "errors"

var (
	// ErrNotReady indicates the link is not connected.
	ErrNotReady = errors.New("link not ready")
	// ErrWindowFull indicates every sequence number is outstanding.
	// Acknowledgements from the peer make room again; callers may retry.
	ErrWindowFull = errors.New("window full")
)
