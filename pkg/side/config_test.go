package side

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/require"
)

func TestConfigFile(t *testing.T) {
	f, err := ioutil.TempFile("", "sidelink-*.toml")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	_, err = f.WriteString(`
pair = "desk60"
role = "left"
transport = "serial:///dev/ttyACM0?baud=57600"
ack-timeout = "75ms"
link-timeout = "2s"
`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	conf := NewConfig()
	_, err = toml.DecodeFile(f.Name(), conf)
	require.NoError(t, err)
	require.Equal(t, "desk60", conf.Pair)
	require.Equal(t, RoleLeft, conf.Role)
	require.Equal(t, "serial:///dev/ttyACM0?baud=57600", conf.Transport)
	require.Equal(t, 75*time.Millisecond, conf.AckTimeout.Duration)
	require.Equal(t, 2*time.Second, conf.LinkTimeout.Duration)
	require.Zero(t, conf.PingInterval.Duration)
	require.NoError(t, conf.Validate())
}

func TestValidate(t *testing.T) {
	conf := Config{Role: "middle", Transport: "tcp://localhost:7777"}
	require.Error(t, conf.Validate())
	conf.Role = RoleRight
	require.NoError(t, conf.Validate())
	conf.Transport = ""
	require.Error(t, conf.Validate())
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("150ms")))
	require.Equal(t, 150*time.Millisecond, d.Duration)
	require.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestOpenTransportErrors(t *testing.T) {
	conf := Config{Role: RoleLeft, Transport: "ftp://example.com"}
	_, _, err := conf.openTransport()
	require.Error(t, err)

	conf.Transport = "serial:///dev/ttyACM0?baud=fast"
	_, _, err = conf.openTransport()
	require.Error(t, err)
}
