package rgb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keebworks/sidelink.go/pkg/link"
)

func TestParseAnim(t *testing.T) {
	for _, c := range []struct {
		in   string
		id   uint8
		fail bool
	}{
		{in: "off", id: Off},
		{in: "wheel", id: Wheel},
		{in: "PULSE-SOLID", id: PulseSolid},
		{in: "3", id: Pulse},
		{in: "200", id: 200},
		{in: "sparkle", fail: true},
		{in: "300", fail: true},
	} {
		t.Run(c.in, func(t *testing.T) {
			id, err := ParseAnim(c.in)
			if c.fail {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.id, id)
		})
	}
}

func TestAnimName(t *testing.T) {
	require.Equal(t, "input-solid", AnimName(InputSolid))
	require.Equal(t, "42", AnimName(42))
}

func TestIndicator(t *testing.T) {
	ctx := context.Background()
	ind := NewIndicator()

	require.False(t, ind.Linked())
	r, g, b := ind.Color()
	require.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})

	ind.StateChanged(ctx, link.Connected)
	ind.HandleRgbAnim(ctx, Wheel)
	ind.HandleRgbLayer(ctx, 2)
	require.True(t, ind.Linked())
	require.Equal(t, Wheel, ind.Anim())
	require.Equal(t, uint8(2), ind.Layer())
	r, g, b = ind.Color()
	require.Equal(t, [3]uint8{0, 255, 0}, [3]uint8{r, g, b})

	ind.StateChanged(ctx, link.Disconnected)
	require.False(t, ind.Linked())
}
