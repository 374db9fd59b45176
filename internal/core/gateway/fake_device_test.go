package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	gwif "github.com/dep2p/go-portmapper/pkg/interfaces/gateway"
)

var errNoSuchEntry = errors.New("SpecifiedArrayIndexInvalid")

// fakeDevice 内存映射表设备
//
// entries 中的 nil 表示网关返回空条目；超出长度的索引返回 errNoSuchEntry。
type fakeDevice struct {
	mu sync.Mutex

	entries []*gwif.Entry
	failAt  map[int]int // index -> 剩余失败次数

	addErr    map[int]error // extPort -> 错误
	deleteErr error
	ipErr     error
	ip        string

	presentationURL string

	adds    []fakeAdd
	deletes []fakeDelete
	fetches []int
	calls   int
}

type fakeAdd struct {
	extPort, intPort int
	client, protocol string
	description      string
}

type fakeDelete struct {
	extPort  int
	protocol string
}

func newFakeDevice(entries ...*gwif.Entry) *fakeDevice {
	return &fakeDevice{
		entries:         entries,
		failAt:          make(map[int]int),
		addErr:          make(map[int]error),
		ip:              "203.0.113.7",
		presentationURL: "http://192.168.1.1:8080/",
	}
}

func (d *fakeDevice) AddPortMapping(_ context.Context, extPort, intPort int, intClient, protocol, description string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if err := d.addErr[extPort]; err != nil {
		return err
	}
	d.adds = append(d.adds, fakeAdd{extPort, intPort, intClient, protocol, description})
	return nil
}

func (d *fakeDevice) DeletePortMapping(_ context.Context, extPort int, protocol string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.deleteErr != nil {
		return d.deleteErr
	}
	d.deletes = append(d.deletes, fakeDelete{extPort, protocol})
	return nil
}

func (d *fakeDevice) ExternalIPAddress(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.ipErr != nil {
		return "", d.ipErr
	}
	return d.ip, nil
}

func (d *fakeDevice) GenericPortMappingEntry(ctx context.Context, index int) (*gwif.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.fetches = append(d.fetches, index)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n := d.failAt[index]; n > 0 {
		d.failAt[index] = n - 1
		return nil, errors.New("transient failure")
	}
	if index >= len(d.entries) {
		return nil, errNoSuchEntry
	}
	return d.entries[index], nil
}

func (d *fakeDevice) FriendlyName() string     { return "Test Router" }
func (d *fakeDevice) Manufacturer() string     { return "Acme" }
func (d *fakeDevice) ModelDescription() string { return "Acme IGD" }
func (d *fakeDevice) DeviceType() string {
	return "urn:schemas-upnp-org:device:InternetGatewayDevice:1"
}
func (d *fakeDevice) Location() string        { return "http://192.168.1.1:5000/rootDesc.xml" }
func (d *fakeDevice) PresentationURL() string { return d.presentationURL }

func (d *fakeDevice) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// uptimeDevice 支持 UptimeReporter 的设备
type uptimeDevice struct {
	*fakeDevice
	uptime time.Duration
	err    error
}

func (d *uptimeDevice) Uptime(_ context.Context) (time.Duration, error) {
	return d.uptime, d.err
}

func tcpEntry(ext int, client string, in int, desc string) *gwif.Entry {
	return &gwif.Entry{
		ExternalPort:   ext,
		Protocol:       "TCP",
		InternalClient: client,
		InternalPort:   in,
		Enabled:        true,
		Description:    desc,
	}
}
