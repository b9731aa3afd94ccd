// Package rgb provides lighting commands for the link CLI.
package rgb

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/keebworks/sidelink.go/pkg/cli/sh"
	"github.com/keebworks/sidelink.go/pkg/rgb"
)

var (
	// RgbAnimCmd switches the peer's animation.
	RgbAnimCmd = ishell.Cmd{
		Name:    "rgb.anim",
		Aliases: []string{"ra"},
		Help:    "NAME|ID",
		Func: sh.MustBeLinked(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("NAME or ID required"))
				return
			}
			id, err := rgb.ParseAnim(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if err = sh.SideFrom(c).Endpoint.RgbAnim(id); err != nil {
				c.Err(err)
			}
		}),
	}

	// RgbLayerCmd reports the active layer to the peer.
	RgbLayerCmd = ishell.Cmd{
		Name:    "rgb.layer",
		Aliases: []string{"rl"},
		Help:    "LAYER",
		Func: sh.MustBeLinked(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("LAYER required"))
				return
			}
			layer, err := strconv.ParseUint(c.Args[0], 10, 8)
			if err != nil {
				c.Err(fmt.Errorf("invalid LAYER: %v", err))
				return
			}
			if err = sh.SideFrom(c).Endpoint.RgbLayer(uint8(layer)); err != nil {
				c.Err(err)
			}
		}),
	}

	// RgbShowCmd shows the mirrored lighting state.
	RgbShowCmd = ishell.Cmd{
		Name:    "rgb.show",
		Aliases: []string{"rs"},
		Help:    "",
		Func: sh.MustBeLinked(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			ind := sh.SideFrom(c).Indicator
			if s.OutputJSON {
				out, err := json.Marshal(struct {
					Anim   string `json:"anim"`
					Layer  uint8  `json:"layer"`
					Linked bool   `json:"linked"`
				}{rgb.AnimName(ind.Anim()), ind.Layer(), ind.Linked()})
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			c.Printf("anim   %s\n", rgb.AnimName(ind.Anim()))
			c.Printf("layer  %d\n", ind.Layer())
			c.Printf("linked %v\n", ind.Linked())
		}),
	}
)

func init() {
	sh.AddCmds(
		&RgbAnimCmd,
		&RgbLayerCmd,
		&RgbShowCmd,
	)
}
