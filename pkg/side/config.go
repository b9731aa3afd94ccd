// Package side assembles one half of the keyboard: the link endpoint,
// its transport, and the local mirrors of the peer's state.
package side

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Roles of the two halves. The right half initiates the handshake by
// convention.
const (
	RoleLeft  = "left"
	RoleRight = "right"
)

// Duration wraps time.Duration for TOML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	dd, err := time.ParseDuration(string(text))
	d.Duration = dd
	return err
}

// Config defines the configuration of one half.
type Config struct {
	// Pair names the keyboard and isolates it on shared transports.
	// It defaults to the machine ID.
	Pair string `toml:"pair"`
	// Role is the half of the board, left or right.
	Role string `toml:"role"`
	// Transport is the transport URL, e.g.
	// mqtt://host:1883/prefix, tcp://host:port,
	// ws://host:port/path or serial:///dev/ttyACM0?baud=115200.
	Transport string `toml:"transport"`

	// Link timing overrides. Zero keeps the endpoint defaults.
	AckTimeout   Duration `toml:"ack-timeout"`
	PingInterval Duration `toml:"ping-interval"`
	LinkTimeout  Duration `toml:"link-timeout"`
	TickInterval Duration `toml:"tick-interval"`
}

var defaultConfig = Config{
	Transport: "mqtt://localhost:1883/sidelink",
}

var configFile string

func init() {
	if val := os.Getenv("SIDELINK_PAIR"); val != "" {
		defaultConfig.Pair = val
	}
	if val := os.Getenv("SIDELINK_ROLE"); val != "" {
		defaultConfig.Role = val
	}
	if val := os.Getenv("SIDELINK_TRANSPORT"); val != "" {
		defaultConfig.Transport = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "Config file (TOML).")
	flag.StringVar(&defaultConfig.Pair, "pair", defaultConfig.Pair, "Pair name, machine ID when empty.")
	flag.StringVar(&defaultConfig.Role, "role", defaultConfig.Role, "Half of the board, left or right.")
	flag.StringVar(&defaultConfig.Transport, "transport", defaultConfig.Transport, "Transport URL.")
}

// Default gets the effective config: built-in defaults, then the
// environment, then the config file, with explicit flags on top.
func Default() (*Config, error) {
	conf := defaultConfig
	if configFile != "" {
		if _, err := toml.DecodeFile(configFile, &conf); err != nil {
			return nil, fmt.Errorf("config file: %v", err)
		}
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "pair":
				conf.Pair = defaultConfig.Pair
			case "role":
				conf.Role = defaultConfig.Role
			case "transport":
				conf.Transport = defaultConfig.Transport
			}
		})
	}
	if conf.Pair == "" {
		conf.Pair = MachineID()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the config for completeness.
func (c *Config) Validate() error {
	if c.Role != RoleLeft && c.Role != RoleRight {
		return fmt.Errorf("role must be %q or %q, got %q", RoleLeft, RoleRight, c.Role)
	}
	if c.Transport == "" {
		return fmt.Errorf("transport must be specified")
	}
	return nil
}
