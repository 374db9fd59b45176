package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-portmapper/internal/util/logger"
	"github.com/dep2p/go-portmapper/pkg/types"
)

func drain(ctx context.Context, e *Enumerator) []types.PortMapping {
	var out []types.PortMapping
	for {
		m, ok := e.Next(ctx)
		if !ok {
			return out
		}
		out = append(out, m)
	}
}

func TestEnumerator_EndOfTable(t *testing.T) {
	dev := newFakeDevice(
		tcpEntry(22, "192.168.1.5", 22, "ssh"),
		nil,
		tcpEntry(80, "192.168.1.5", 80, "web"),
	)
	e := NewEnumerator(dev, DefaultEnumConfig())

	ms := drain(context.Background(), e)
	assert.Len(t, ms, 2)
	assert.True(t, e.Done())
	assert.False(t, e.Canceled())
	assert.ErrorIs(t, e.Err(), errNoSuchEntry)
	assert.Equal(t, 3, e.Index())
	assert.Equal(t, 1, e.Skipped())

	// 结束后保持结束
	_, ok := e.Next(context.Background())
	assert.False(t, ok)
	assert.Equal(t, []int{0, 1, 2, 3}, dev.fetches)
}

func TestEnumerator_MaxEntries(t *testing.T) {
	dev := newFakeDevice(
		tcpEntry(1, "10.0.0.2", 1, ""),
		tcpEntry(2, "10.0.0.2", 2, ""),
		tcpEntry(3, "10.0.0.2", 3, ""),
	)
	e := NewEnumerator(dev, EnumConfig{MaxEntries: 2})

	ms := drain(context.Background(), e)
	assert.Len(t, ms, 2)
	assert.True(t, e.Done())
	assert.NoError(t, e.Err())
	assert.Equal(t, []int{0, 1}, dev.fetches)
}

func TestEnumerator_RetriesExhausted(t *testing.T) {
	dev := newFakeDevice(tcpEntry(1, "10.0.0.2", 1, ""))
	dev.failAt[0] = 5
	e := NewEnumerator(dev, EnumConfig{MaxRetries: 2})

	ms := drain(context.Background(), e)
	assert.Empty(t, ms)
	assert.Error(t, e.Err())
	assert.False(t, e.Canceled())
	assert.Equal(t, []int{0, 0, 0}, dev.fetches)
}

func TestEnumerator_RetryDelayUsesClock(t *testing.T) {
	dev := newFakeDevice(tcpEntry(1, "10.0.0.2", 1, ""))
	dev.failAt[0] = 1
	mock := clock.NewMock()
	e := newEnumerator(dev, EnumConfig{MaxRetries: 1, RetryDelay: time.Second}, mock, logger.Logger("gateway"))

	done := make(chan []types.PortMapping, 1)
	go func() { done <- drain(context.Background(), e) }()

	var ms []types.PortMapping
	require.Eventually(t, func() bool {
		select {
		case ms = <-done:
			return true
		default:
			mock.Add(time.Second)
			return false
		}
	}, 5*time.Second, 5*time.Millisecond)

	assert.Len(t, ms, 1)
	assert.Equal(t, []int{0, 0, 1, 1}, dev.fetches)
}

func TestEnumerator_CanceledDuringRetryWait(t *testing.T) {
	dev := newFakeDevice(tcpEntry(1, "10.0.0.2", 1, ""))
	dev.failAt[0] = 1
	mock := clock.NewMock()
	e := newEnumerator(dev, EnumConfig{MaxRetries: 3, RetryDelay: time.Minute}, mock, logger.Logger("gateway"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		drain(ctx, e)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("enumerator did not stop after cancel")
	}
	assert.True(t, e.Canceled())
	assert.ErrorIs(t, e.Err(), context.Canceled)
}
