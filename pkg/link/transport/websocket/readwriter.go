// Package websocket carries link words over a websocket connection,
// one 4-byte binary frame per word.
package websocket

import (
	"encoding/binary"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// ReadWriter implements transport.WordReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Dial connects to a websocket endpoint.
func Dial(url string) (*ReadWriter, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadWord implements transport.WordReader. Frames of any other size
// are dropped.
func (p *ReadWriter) ReadWord() (uint32, error) {
	for {
		var frame []byte
		if err := websocket.Message.Receive((*websocket.Conn)(p), &frame); err != nil {
			return 0, err
		}
		if len(frame) == 4 {
			return binary.LittleEndian.Uint32(frame), nil
		}
		glog.Warningf("dropped %d-byte frame", len(frame))
	}
}

// WriteWord implements transport.WordWriter.
func (p *ReadWriter) WriteWord(w uint32) error {
	var frame [4]byte
	binary.LittleEndian.PutUint32(frame[:], w)
	return websocket.Message.Send((*websocket.Conn)(p), frame[:])
}

// Close closes the connection.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}
