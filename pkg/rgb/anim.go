// Package rgb tracks the lighting commands exchanged between the
// halves and surfaces link health as an indicator color.
package rgb

import (
	"fmt"
	"strconv"
	"strings"
)

// Animation identifiers, shared with the firmware.
const (
	Off uint8 = iota
	SolidColor
	Wheel
	Pulse
	PulseSolid
	Input
	InputSolid
)

var animNames = [...]string{
	"off", "solid-color", "wheel", "pulse", "pulse-solid", "input", "input-solid",
}

// AnimName returns the name of an animation, or its number when it
// has none.
func AnimName(id uint8) string {
	if int(id) < len(animNames) {
		return animNames[id]
	}
	return strconv.Itoa(int(id))
}

// ParseAnim resolves an animation by name or number.
func ParseAnim(s string) (uint8, error) {
	name := strings.ToLower(s)
	for id, n := range animNames {
		if n == name {
			return uint8(id), nil
		}
	}
	if id, err := strconv.ParseUint(s, 10, 8); err == nil {
		return uint8(id), nil
	}
	return 0, fmt.Errorf("unknown animation %q", s)
}
