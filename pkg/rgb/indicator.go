package rgb

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/keebworks/sidelink.go/pkg/link"
)

// Indicator mirrors the peer-driven lighting state and overrides the
// indicator color while the link is down. It implements
// link.RgbHandler and link.StateNotifier.
type Indicator struct {
	lock  sync.RWMutex
	anim  uint8
	layer uint8
	down  bool
}

// NewIndicator creates an Indicator showing a down link.
func NewIndicator() *Indicator {
	return &Indicator{down: true}
}

// HandleRgbAnim implements link.RgbHandler.
func (i *Indicator) HandleRgbAnim(_ context.Context, id uint8) {
	glog.V(2).Infof("rgb anim %s", AnimName(id))
	i.lock.Lock()
	i.anim = id
	i.lock.Unlock()
}

// HandleRgbLayer implements link.RgbHandler.
func (i *Indicator) HandleRgbLayer(_ context.Context, layer uint8) {
	glog.V(2).Infof("rgb layer %d", layer)
	i.lock.Lock()
	i.layer = layer
	i.lock.Unlock()
}

// StateChanged implements link.StateNotifier.
func (i *Indicator) StateChanged(_ context.Context, s link.State) {
	i.lock.Lock()
	i.down = s != link.Connected
	i.lock.Unlock()
}

// Anim returns the peer-selected animation.
func (i *Indicator) Anim() uint8 {
	i.lock.RLock()
	defer i.lock.RUnlock()
	return i.anim
}

// Layer returns the layer last reported by the peer.
func (i *Indicator) Layer() uint8 {
	i.lock.RLock()
	defer i.lock.RUnlock()
	return i.layer
}

// Linked indicates if the link is up.
func (i *Indicator) Linked() bool {
	i.lock.RLock()
	defer i.lock.RUnlock()
	return !i.down
}

// Color returns the indicator color, red while the link is down and
// green otherwise. The firmware owns the per-key rendering.
func (i *Indicator) Color() (r, g, b uint8) {
	i.lock.RLock()
	defer i.lock.RUnlock()
	if i.down {
		return 255, 0, 0
	}
	return 0, 255, 0
}
