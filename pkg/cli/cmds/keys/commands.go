// Package keys provides key matrix commands for the link CLI.
package keys

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/keebworks/sidelink.go/pkg/cli/sh"
	"github.com/keebworks/sidelink.go/pkg/keymap"
)

func parseKey(args []string) (row, col uint8, err error) {
	if len(args) < 2 {
		return 0, 0, fmt.Errorf("ROW COL required")
	}
	r, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil || r >= keymap.Rows {
		return 0, 0, fmt.Errorf("invalid ROW %q", args[0])
	}
	cl, err := strconv.ParseUint(args[1], 10, 8)
	if err != nil || cl >= keymap.Cols {
		return 0, 0, fmt.Errorf("invalid COL %q", args[1])
	}
	return uint8(r), uint8(cl), nil
}

var (
	// KeyPressCmd reports a key down to the peer half.
	KeyPressCmd = ishell.Cmd{
		Name:    "key.press",
		Aliases: []string{"kp"},
		Help:    "ROW COL",
		Func: sh.MustBeLinked(func(c *ishell.Context) {
			row, col, err := parseKey(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if err = sh.SideFrom(c).Endpoint.Press(row, col); err != nil {
				c.Err(err)
			}
		}),
	}

	// KeyReleaseCmd reports a key up to the peer half.
	KeyReleaseCmd = ishell.Cmd{
		Name:    "key.release",
		Aliases: []string{"kr"},
		Help:    "ROW COL",
		Func: sh.MustBeLinked(func(c *ishell.Context) {
			row, col, err := parseKey(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if err = sh.SideFrom(c).Endpoint.Release(row, col); err != nil {
				c.Err(err)
			}
		}),
	}

	// KeyTapCmd reports a key down and up in one go.
	KeyTapCmd = ishell.Cmd{
		Name:    "key.tap",
		Aliases: []string{"kt"},
		Help:    "ROW COL",
		Func: sh.MustBeLinked(func(c *ishell.Context) {
			row, col, err := parseKey(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			ep := sh.SideFrom(c).Endpoint
			if err = ep.Press(row, col); err != nil {
				c.Err(err)
				return
			}
			if err = ep.Release(row, col); err != nil {
				c.Err(err)
			}
		}),
	}

	// KeyMatrixCmd shows the peer half's pressed keys.
	KeyMatrixCmd = ishell.Cmd{
		Name:    "key.matrix",
		Aliases: []string{"km"},
		Help:    "",
		Func: sh.MustBeLinked(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			pressed := sh.SideFrom(c).Keys.Snapshot().Pressed()
			if s.OutputJSON {
				if pressed == nil {
					pressed = [][2]uint8{}
				}
				out, err := json.Marshal(pressed)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(pressed) == 0 {
				c.Println("no keys down")
				return
			}
			for _, k := range pressed {
				c.Printf("%d,%d\n", k[0], k[1])
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&KeyPressCmd,
		&KeyReleaseCmd,
		&KeyTapCmd,
		&KeyMatrixCmd,
	)
}
