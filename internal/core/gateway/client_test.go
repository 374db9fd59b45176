package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dep2p/go-portmapper/internal/core/gateway/mocks"
	gwif "github.com/dep2p/go-portmapper/pkg/interfaces/gateway"
	"github.com/dep2p/go-portmapper/pkg/types"
)

func newTestClient(t *testing.T, dev gwif.Device, opts ...Option) *Client {
	t.Helper()
	c, err := New(dev, opts...)
	require.NoError(t, err)
	return c
}

func mapping(proto types.Protocol, ext int, client string, in int, desc string) types.PortMapping {
	return types.PortMapping{
		Protocol:       proto,
		ExternalPort:   ext,
		InternalClient: client,
		InternalPort:   in,
		Description:    desc,
	}
}

// ============================================================================
//                              构造
// ============================================================================

func TestNew_NilDevice(t *testing.T) {
	c, err := New(nil)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrNilDevice)
}

func TestNew_InvalidOption(t *testing.T) {
	_, err := New(newFakeDevice(), WithEnumConfig(EnumConfig{MaxRetries: -1}))
	assert.Error(t, err)

	_, err = New(newFakeDevice(), WithLogger(nil))
	assert.Error(t, err)
}

func TestNew_Live(t *testing.T) {
	c := newTestClient(t, newFakeDevice())
	assert.Equal(t, StateLive, c.State())
	assert.NotEmpty(t, c.ID())
}

// ============================================================================
//                              枚举
// ============================================================================

func TestMappings_StopsAtFirstFailure(t *testing.T) {
	dev := newFakeDevice(
		tcpEntry(22, "192.168.1.5", 22, "ssh"),
		tcpEntry(80, "192.168.1.6", 8080, "web"),
		&gwif.Entry{ExternalPort: 53, Protocol: "UDP", InternalClient: "192.168.1.7", InternalPort: 53, Description: "dns"},
	)
	c := newTestClient(t, dev)

	ms, err := c.Mappings(context.Background())
	require.NoError(t, err)
	require.Len(t, ms, 3)

	assert.Equal(t, mapping(types.ProtocolTCP, 22, "192.168.1.5", 22, "ssh"), ms[0])
	assert.Equal(t, mapping(types.ProtocolTCP, 80, "192.168.1.6", 8080, "web"), ms[1])
	assert.Equal(t, mapping(types.ProtocolUDP, 53, "192.168.1.7", 53, "dns"), ms[2])
	assert.Equal(t, []int{0, 1, 2, 3}, dev.fetches)
}

func TestMappings_EmptyTable(t *testing.T) {
	dev := newFakeDevice()
	c := newTestClient(t, dev)

	ms, err := c.Mappings(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ms)
	assert.Empty(t, ms)
	assert.Equal(t, []int{0}, dev.fetches)
}

func TestMappings_SkipsEmptyEntry(t *testing.T) {
	dev := newFakeDevice(
		tcpEntry(22, "192.168.1.5", 22, "ssh"),
		nil,
		tcpEntry(443, "192.168.1.6", 443, "https"),
	)
	c := newTestClient(t, dev)

	ms, err := c.Mappings(context.Background())
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, 22, ms[0].ExternalPort)
	assert.Equal(t, 443, ms[1].ExternalPort)
}

func TestMappings_ProtocolTranslation(t *testing.T) {
	tests := []struct {
		token string
		want  types.Protocol
	}{
		{"TCP", types.ProtocolTCP},
		{"tcp", types.ProtocolTCP},
		{"Tcp", types.ProtocolTCP},
		{"UDP", types.ProtocolUDP},
		{"udp", types.ProtocolUDP},
		{"", types.ProtocolUDP},
		{"SCTP", types.ProtocolUDP},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			dev := newFakeDevice(&gwif.Entry{ExternalPort: 1000, Protocol: tt.token, InternalClient: "10.0.0.2", InternalPort: 1000})
			c := newTestClient(t, dev)

			ms, err := c.Mappings(context.Background())
			require.NoError(t, err)
			require.Len(t, ms, 1)
			assert.Equal(t, tt.want, ms[0].Protocol)
		})
	}
}

func TestMappings_TransientFailureTruncates(t *testing.T) {
	dev := newFakeDevice(
		tcpEntry(22, "192.168.1.5", 22, "ssh"),
		tcpEntry(80, "192.168.1.6", 80, "web"),
	)
	dev.failAt[1] = 1
	c := newTestClient(t, dev)

	ms, err := c.Mappings(context.Background())
	require.NoError(t, err)
	assert.Len(t, ms, 1)
}

func TestMappings_RetryRecoversTransientFailure(t *testing.T) {
	dev := newFakeDevice(
		tcpEntry(22, "192.168.1.5", 22, "ssh"),
		tcpEntry(80, "192.168.1.6", 80, "web"),
	)
	dev.failAt[1] = 1
	c := newTestClient(t, dev, WithEnumConfig(EnumConfig{MaxRetries: 2}))

	ms, err := c.Mappings(context.Background())
	require.NoError(t, err)
	assert.Len(t, ms, 2)
}

func TestMappings_CanceledContext(t *testing.T) {
	dev := newFakeDevice(tcpEntry(22, "192.168.1.5", 22, "ssh"))
	c := newTestClient(t, dev)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ms, err := c.Mappings(ctx)
	assert.Nil(t, ms)
	assert.True(t, IsFault(err, OpList))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dev.fetches)
}

func TestEachMapping_EarlyStop(t *testing.T) {
	dev := newFakeDevice(
		tcpEntry(22, "192.168.1.5", 22, "ssh"),
		tcpEntry(80, "192.168.1.6", 80, "web"),
		tcpEntry(443, "192.168.1.6", 443, "https"),
	)
	c := newTestClient(t, dev)

	var seen []int
	err := c.EachMapping(context.Background(), func(m types.PortMapping) bool {
		seen = append(seen, m.ExternalPort)
		return len(seen) < 2
	})
	require.NoError(t, err)
	assert.Equal(t, []int{22, 80}, seen)
	assert.Equal(t, []int{0, 1}, dev.fetches)
}

// ============================================================================
//                              添加 / 删除
// ============================================================================

func TestAddMapping(t *testing.T) {
	dev := newFakeDevice()
	c := newTestClient(t, dev)

	err := c.AddMapping(context.Background(), mapping(types.ProtocolTCP, 2222, "192.168.1.5", 22, "ssh"))
	require.NoError(t, err)
	require.Len(t, dev.adds, 1)
	assert.Equal(t, fakeAdd{2222, 22, "192.168.1.5", "TCP", "ssh"}, dev.adds[0])
}

func TestAddMapping_TransportFault(t *testing.T) {
	dev := newFakeDevice()
	cause := errors.New("ConflictInMappingEntry")
	dev.addErr[2222] = cause
	c := newTestClient(t, dev)

	err := c.AddMapping(context.Background(), mapping(types.ProtocolUDP, 2222, "192.168.1.5", 22, ""))
	require.Error(t, err)
	assert.True(t, IsFault(err, OpAdd))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "could not add port mapping")
}

func TestAddMapping_InvalidMapping(t *testing.T) {
	dev := newFakeDevice()
	c := newTestClient(t, dev)

	err := c.AddMapping(context.Background(), mapping(types.ProtocolTCP, 0, "192.168.1.5", 22, ""))
	assert.True(t, IsFault(err, OpAdd))
	assert.ErrorIs(t, err, ErrInvalidMapping)
	assert.ErrorIs(t, err, types.ErrInvalidPort)
	assert.Zero(t, dev.callCount())
}

func TestAddMappings_StopsAtFirstFailure(t *testing.T) {
	dev := newFakeDevice()
	cause := errors.New("device busy")
	dev.addErr[2000] = cause
	c := newTestClient(t, dev)

	err := c.AddMappings(context.Background(), []types.PortMapping{
		mapping(types.ProtocolTCP, 1000, "192.168.1.5", 1000, "m1"),
		mapping(types.ProtocolTCP, 2000, "192.168.1.5", 2000, "m2"),
		mapping(types.ProtocolTCP, 3000, "192.168.1.5", 3000, "m3"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	require.Len(t, dev.adds, 1)
	assert.Equal(t, "m1", dev.adds[0].description)
	// m3 未被尝试
	assert.Equal(t, 2, dev.callCount())
}

func TestAddMappings_Empty(t *testing.T) {
	dev := newFakeDevice()
	c := newTestClient(t, dev)
	assert.NoError(t, c.AddMappings(context.Background(), nil))
	assert.Zero(t, dev.callCount())
}

func TestRemovePortMapping_IgnoresRemoteHost(t *testing.T) {
	withHost := newFakeDevice()
	withoutHost := newFakeDevice()

	require.NoError(t, newTestClient(t, withHost).
		RemovePortMapping(context.Background(), types.ProtocolTCP, "198.51.100.4", 2222))
	require.NoError(t, newTestClient(t, withoutHost).
		RemovePortMapping(context.Background(), types.ProtocolTCP, "", 2222))

	assert.Equal(t, withoutHost.deletes, withHost.deletes)
	assert.Equal(t, []fakeDelete{{2222, "TCP"}}, withHost.deletes)
}

func TestRemoveMapping(t *testing.T) {
	dev := newFakeDevice()
	c := newTestClient(t, dev)

	m := mapping(types.ProtocolUDP, 5353, "192.168.1.5", 5353, "mdns")
	m.RemoteHost = "198.51.100.4"
	require.NoError(t, c.RemoveMapping(context.Background(), m))
	assert.Equal(t, []fakeDelete{{5353, "UDP"}}, dev.deletes)
}

func TestRemovePortMapping_Fault(t *testing.T) {
	dev := newFakeDevice()
	dev.deleteErr = errors.New("NoSuchEntryInArray")
	c := newTestClient(t, dev)

	err := c.RemovePortMapping(context.Background(), types.ProtocolTCP, "", 2222)
	assert.True(t, IsFault(err, OpRemove))
	assert.ErrorIs(t, err, dev.deleteErr)
}

// ============================================================================
//                              查询
// ============================================================================

func TestExternalIPAddress(t *testing.T) {
	dev := newFakeDevice()
	c := newTestClient(t, dev)

	ip, err := c.ExternalIPAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", ip)

	dev.ipErr = errors.New("timeout")
	_, err = c.ExternalIPAddress(context.Background())
	assert.True(t, IsFault(err, OpGetExternalIP))
}

func TestInternalHostNameAndPort(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPort int
	}{
		{"explicit port", "http://192.168.1.1:8080/", "192.168.1.1", 8080},
		{"http without port", "http://192.168.1.1/", "192.168.1.1", NoPort},
		{"https without port", "https://router.lan/admin", "router.lan", NoPort},
		{"zero port", "http://192.168.1.1:0/", "192.168.1.1", 0},
		{"no host", "http://:8080/", "", 8080},
		{"unknown scheme", "ftp://192.168.1.1", "192.168.1.1", NoPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			dev.presentationURL = tt.url
			c := newTestClient(t, dev)

			host, err := c.InternalHostName(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)

			port, err := c.InternalPort(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestInternalHostNameAndPort_MalformedURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "http://[::1", "http://192.168.1.1:99999/"} {
		t.Run(raw, func(t *testing.T) {
			dev := newFakeDevice()
			dev.presentationURL = raw
			c := newTestClient(t, dev)

			_, err := c.InternalHostName(context.Background())
			assert.True(t, IsFault(err, OpParseLocation))
			assert.ErrorIs(t, err, ErrMalformedURL)

			_, err = c.InternalPort(context.Background())
			assert.True(t, IsFault(err, OpParseLocation))
			assert.ErrorIs(t, err, ErrMalformedURL)
		})
	}
}

func TestName(t *testing.T) {
	dev := newFakeDevice()
	c := newTestClient(t, dev)

	name, err := c.Name()
	require.NoError(t, err)
	assert.Equal(t, "Test Router", name)
	assert.Zero(t, dev.callCount())
}

func TestUpTime(t *testing.T) {
	t.Run("unsupported", func(t *testing.T) {
		c := newTestClient(t, newFakeDevice())
		_, err := c.UpTime(context.Background())
		assert.True(t, IsFault(err, OpGetUpTime))
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("reported", func(t *testing.T) {
		dev := &uptimeDevice{fakeDevice: newFakeDevice(), uptime: 36 * time.Hour}
		c := newTestClient(t, dev)
		up, err := c.UpTime(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 36*time.Hour, up)
	})

	t.Run("transport error", func(t *testing.T) {
		dev := &uptimeDevice{fakeDevice: newFakeDevice(), err: errors.New("timeout")}
		c := newTestClient(t, dev)
		_, err := c.UpTime(context.Background())
		assert.True(t, IsFault(err, OpGetUpTime))
		assert.NotErrorIs(t, err, ErrUnsupported)
	})
}

func TestRouterInfo_Sorted(t *testing.T) {
	c := newTestClient(t, newFakeDevice())

	info, err := c.LogRouterInfo()
	require.NoError(t, err)
	require.Equal(t, 5, info.Len())

	entries := info.Entries()
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Key, entries[i].Key)
	}
	v, ok := info.Get(types.InfoManufacturer)
	assert.True(t, ok)
	assert.Equal(t, "Acme", v)
}

// ============================================================================
//                              断开
// ============================================================================

func TestDisconnect_FailsFastWithoutTransport(t *testing.T) {
	ctrl := gomock.NewController(t)
	dev := mocks.NewMockDevice(ctrl)
	// 构造时只读取缓存的元数据
	dev.EXPECT().FriendlyName().Return("mock").AnyTimes()
	dev.EXPECT().Location().Return("http://192.168.1.1/desc.xml").AnyTimes()

	c := newTestClient(t, dev)
	c.Disconnect()
	c.Disconnect()
	assert.Equal(t, StateDisconnected, c.State())

	ctx := context.Background()
	m := mapping(types.ProtocolTCP, 2222, "192.168.1.5", 22, "ssh")

	checks := map[string]error{}
	checks[OpAdd] = c.AddMapping(ctx, m)
	checks[OpRemove] = c.RemoveMapping(ctx, m)
	_, checks[OpGetExternalIP] = c.ExternalIPAddress(ctx)
	_, checks[OpGetInternalHostName] = c.InternalHostName(ctx)
	_, checks[OpGetInternalPort] = c.InternalPort(ctx)
	_, checks[OpGetName] = c.Name()
	_, checks[OpList] = c.Mappings(ctx)
	_, checks[OpGetUpTime] = c.UpTime(ctx)
	_, checks[OpRouterInfo] = c.RouterInfo()

	for op, err := range checks {
		assert.True(t, IsFault(err, op), "op %s: %v", op, err)
		assert.True(t, IsDisconnected(err), "op %s", op)
	}

	err := c.AddMappings(ctx, []types.PortMapping{m})
	assert.True(t, IsDisconnected(err))
}
