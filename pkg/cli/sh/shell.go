// Package sh provides the interactive shell of the link CLI.
package sh

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/keebworks/sidelink.go/pkg/side"
)

// Shell provides an ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *side.Config
	Conn   *Conn
}

// Conn is a running link stack.
type Conn struct {
	Ctx    context.Context
	Cancel func()
	Side   *side.Side

	done chan error
}

const (
	shellKey       = "$shell"
	unlinkedPrompt = "[no link] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other command providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *side.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unlinkedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// SideFrom gets the running side, nil without a connection.
func SideFrom(c *ishell.Context) *side.Side {
	if conn := ShellFrom(c).Conn; conn != nil {
		return conn.Side
	}
	return nil
}

// MustBeLinked wraps a command func that needs a running link stack.
func MustBeLinked(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the configured transport and starts pumping the link
// in the background.
func (s *Shell) Connect() error {
	if err := s.Config.Validate(); err != nil {
		return err
	}
	sd, err := s.Config.NewSide()
	if err != nil {
		return err
	}
	if s.Conn != nil {
		s.Disconnect()
	}
	conn := &Conn{Side: sd, done: make(chan error, 1)}
	conn.Ctx, conn.Cancel = context.WithCancel(context.Background())
	s.Conn = conn
	go func() {
		conn.done <- sd.Run(conn.Ctx)
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", s.Config.Role))
	return nil
}

// Disconnect stops the running link stack.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Cancel()
		<-s.Conn.done
		s.Conn = nil
		s.Shell.SetPrompt(unlinkedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		if s.Interactive {
			s.Shell.Printf("Connecting %s %s ...\n", s.Config.Role, s.Config.Transport)
		}
		if err := s.Connect(); err != nil {
			log.Fatalf("connect failed: %v", err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd starts the link stack.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Connect(); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd stops the link stack.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf, err := side.Default()
	if err != nil {
		log.Fatalln(err)
	}
	New(conf).WithAutoConnect(true).Run(flag.Args()...)
}
