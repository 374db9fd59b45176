package upnp

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGatewayType(t *testing.T) {
	assert.True(t, isGatewayType("urn:schemas-upnp-org:device:InternetGatewayDevice:1"))
	assert.True(t, isGatewayType("urn:schemas-upnp-org:service:WANIPConnection:2"))
	assert.True(t, isGatewayType("urn:schemas-upnp-org:service:WANPPPConnection:1"))
	assert.False(t, isGatewayType("urn:schemas-upnp-org:device:MediaServer:1"))
	assert.False(t, isGatewayType("upnp:rootdevice"))
}

func TestMonitor_ByeEvictsCache(t *testing.T) {
	usn := "uuid:1234::urn:schemas-upnp-org:service:WANIPConnection:1"
	d, _ := newTestDiscoverer(t,
		[]net.IP{net.ParseIP("192.168.1.20")},
		map[string][]searchResult{
			"192.168.1.20": {{location: mustURL(t, testLocation), usn: usn}},
		})
	_, err := d.Discover(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, d.Cached())

	m := NewMonitor(d)
	var byes, alives []string
	m.OnBye = func(usn string) { byes = append(byes, usn) }
	m.OnAlive = func(usn, _ string) { alives = append(alives, usn) }

	m.handleBye("urn:schemas-upnp-org:device:MediaServer:1", "uuid:1234::other")
	assert.Equal(t, 1, d.Cached())

	m.handleAlive("urn:schemas-upnp-org:device:InternetGatewayDevice:1", "uuid:1234::urn:igd", testLocation)
	assert.Equal(t, []string{"uuid:1234::urn:igd"}, alives)

	m.handleBye("urn:schemas-upnp-org:service:WANIPConnection:1", usn)
	assert.Zero(t, d.Cached())
	assert.Equal(t, []string{usn}, byes)
}

func TestMonitor_CloseWithoutStart(t *testing.T) {
	assert.NoError(t, NewMonitor(nil).Close())
}
