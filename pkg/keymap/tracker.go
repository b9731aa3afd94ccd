package keymap

import (
	"context"
	"sync"

	"github.com/golang/glog"
)

// Tracker keeps the peer half's matrix current. It implements
// link.KeyHandler and is safe for concurrent readers.
type Tracker struct {
	lock   sync.RWMutex
	matrix Matrix
	events uint64
}

// HandleKey implements link.KeyHandler.
func (t *Tracker) HandleKey(_ context.Context, row, col uint8, pressed bool) {
	glog.V(2).Infof("key %d,%d pressed=%v", row, col, pressed)
	t.lock.Lock()
	defer t.lock.Unlock()
	t.events++
	if pressed {
		t.matrix.Set(row, col)
	} else {
		t.matrix.Clear(row, col)
	}
}

// Snapshot returns a copy of the current matrix.
func (t *Tracker) Snapshot() Matrix {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.matrix
}

// Events returns the number of transitions seen.
func (t *Tracker) Events() uint64 {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.events
}
