// Package link provides link diagnostic commands for the CLI.
package link

import (
	"encoding/json"

	"github.com/abiosoft/ishell"

	"github.com/keebworks/sidelink.go/pkg/cli/sh"
)

var (
	// StateCmd shows the link state.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeLinked(func(c *ishell.Context) {
			c.Println(sh.SideFrom(c).Endpoint.State().String())
		}),
	}

	// StatsCmd shows the link activity counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: sh.MustBeLinked(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			ep := sh.SideFrom(c).Endpoint
			st := ep.Stats()
			if s.OutputJSON {
				out, err := json.Marshal(st)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			c.Printf("state          %v\n", ep.State())
			c.Printf("words in/out   %d/%d\n", st.WordsIn, st.WordsOut)
			c.Printf("frames in/out  %d/%d\n", st.FramesIn, st.FramesOut)
			c.Printf("checksum drops %d\n", st.ChecksumDrops)
			c.Printf("decode drops   %d\n", st.DecodeDrops)
			c.Printf("duplicates     %d\n", st.Duplicates)
			c.Printf("gaps           %d\n", st.Gaps)
			c.Printf("retransmits    %d\n", st.Retransmits)
			c.Printf("acks out       %d\n", st.AcksOut)
			c.Printf("timeouts       %d\n", st.Timeouts)
			c.Printf("restarts       %d\n", st.Restarts)
			c.Printf("outstanding    %d\n", st.Outstanding)
		}),
	}

	// PingCmd sends a keepalive probe.
	PingCmd = ishell.Cmd{
		Name: "ping",
		Help: "",
		Func: sh.MustBeLinked(func(c *ishell.Context) {
			if err := sh.SideFrom(c).Endpoint.Ping(); err != nil {
				c.Err(err)
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&StateCmd,
		&StatsCmd,
		&PingCmd,
	)
}
