// Package transport moves 32-bit link words between the two halves.
package transport

// WordReader reads whole words, blocking until one arrives.
type WordReader interface {
	ReadWord() (uint32, error)
}

// WordWriter writes whole words.
type WordWriter interface {
	WriteWord(uint32) error
}

// WordReadWriter reads/writes words.
type WordReadWriter interface {
	WordReader
	WordWriter
}
