// Package stream carries link words over any byte stream, one 4-byte
// little-endian word at a time. Serial lines and TCP sockets both ride
// on it.
package stream

import (
	"encoding/binary"
	"io"
)

// ReadWriter implements transport.WordReadWriter.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter over a byte stream.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// ReadWord implements transport.WordReader.
func (p *ReadWriter) ReadWord() (uint32, error) {
	var w uint32
	if err := binary.Read(p, binary.LittleEndian, &w); err != nil {
		return 0, err
	}
	return w, nil
}

// WriteWord implements transport.WordWriter.
func (p *ReadWriter) WriteWord(w uint32) error {
	return binary.Write(p, binary.LittleEndian, w)
}

// Close closes the underlying stream when it supports that.
func (p *ReadWriter) Close() error {
	if c, ok := p.ReadWriter.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
