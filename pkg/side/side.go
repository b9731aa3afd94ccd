package side

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"strconv"

	"github.com/keebworks/sidelink.go/pkg/framework"
	"github.com/keebworks/sidelink.go/pkg/keymap"
	"github.com/keebworks/sidelink.go/pkg/link"
	"github.com/keebworks/sidelink.go/pkg/link/transport"
	"github.com/keebworks/sidelink.go/pkg/link/transport/mqtt"
	"github.com/keebworks/sidelink.go/pkg/link/transport/serial"
	"github.com/keebworks/sidelink.go/pkg/link/transport/stream"
	"github.com/keebworks/sidelink.go/pkg/link/transport/websocket"
	"github.com/keebworks/sidelink.go/pkg/rgb"
)

// Side is one assembled half of the keyboard.
type Side struct {
	Config    *Config
	Endpoint  *link.Endpoint
	Keys      *keymap.Tracker
	Indicator *rgb.Indicator

	closer io.Closer
}

// NewSide opens the configured transport and assembles the endpoint
// with its collaborators.
func (c *Config) NewSide() (*Side, error) {
	s := &Side{
		Config:    c,
		Keys:      &keymap.Tracker{},
		Indicator: rgb.NewIndicator(),
	}
	rw, closer, err := c.openTransport()
	if err != nil {
		return nil, err
	}
	s.closer = closer

	e := link.NewEndpoint(rw)
	e.Keys = s.Keys
	e.Rgb = s.Indicator
	e.Notifier = s.Indicator
	e.Name = c.Role
	e.Initiator = c.Role == RoleRight
	e.AckTimeout = c.AckTimeout.Duration
	e.PingInterval = c.PingInterval.Duration
	e.LinkTimeout = c.LinkTimeout.Duration
	e.TickInterval = c.TickInterval.Duration
	s.Endpoint = e
	return s, nil
}

// MustNewSide creates the side and fails the process on error.
func (c *Config) MustNewSide() *Side {
	s, err := c.NewSide()
	if err != nil {
		log.Fatalln(err)
	}
	return s
}

// openTransport dials the transport URL.
func (c *Config) openTransport() (transport.WordReadWriter, io.Closer, error) {
	u, err := url.Parse(c.Transport)
	if err != nil {
		return nil, nil, err
	}
	switch u.Scheme {
	case "mqtt", "mqtts":
		q, err := mqtt.NewQueueFromURL(c.Transport)
		if err != nil {
			return nil, nil, err
		}
		// scope the pair under the broker prefix
		q.TopicPrefix += c.Pair + "/"
		if err = q.Connect(); err != nil {
			return nil, nil, err
		}
		rw, err := mqtt.ForRole(q, c.Role)
		if err != nil {
			q.Close()
			return nil, nil, err
		}
		return rw, closers{rw, q}, nil
	case "tcp":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, nil, err
		}
		rw := stream.New(conn)
		return rw, rw, nil
	case "ws", "wss":
		rw, err := websocket.Dial(c.Transport)
		if err != nil {
			return nil, nil, err
		}
		return rw, rw, nil
	case "serial", "":
		cfg := serial.Config{Device: u.Path}
		if cfg.Device == "" {
			cfg.Device = u.Opaque
		}
		if baud := u.Query().Get("baud"); baud != "" {
			if cfg.Baud, err = strconv.Atoi(baud); err != nil {
				return nil, nil, fmt.Errorf("bad baud %q", baud)
			}
		}
		rw, err := serial.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		return rw, rw, nil
	}
	return nil, nil, fmt.Errorf("unsupported transport %q", c.Transport)
}

// Name implements framework.Named.
func (s *Side) Name() string {
	return "side-" + s.Config.Role
}

// Run pumps the endpoint until ctx is canceled and closes the
// transport on the way out, unblocking any stuck read.
func (s *Side) Run(ctx context.Context) error {
	return framework.RunWithContextCloser(ctx, s.closer, func() error {
		return s.Endpoint.Run(ctx)
	})
}

type closers []io.Closer

func (c closers) Close() error {
	var errs framework.AggregatedError
	for _, cl := range c {
		errs.Add(cl.Close())
	}
	return errs.Aggregate()
}
