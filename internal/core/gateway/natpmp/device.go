package natpmp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	natpmp "github.com/jackpal/go-nat-pmp"

	"github.com/dep2p/go-portmapper/internal/util/logger"
	gwif "github.com/dep2p/go-portmapper/pkg/interfaces/gateway"
)

// 包级别日志实例
var log = logger.Logger("gateway.natpmp")

// ============================================================================
//                              错误定义
// ============================================================================

// NAT-PMP 相关错误
var (
	// ErrNoGateway 未找到 NAT-PMP 网关
	ErrNoGateway = errors.New("no NAT-PMP gateway found")

	// ErrNoSuchEntry 本地映射表中没有该索引
	ErrNoSuchEntry = errors.New("no such port mapping entry")

	// ErrInvalidProtocol 协议不是 TCP/UDP
	ErrInvalidProtocol = errors.New("invalid protocol")
)

// 端口 5351 是 NAT-PMP 服务端口
const servicePort = 5351

// pmpClient 抽象 go-nat-pmp 客户端
type pmpClient interface {
	GetExternalAddress() (*natpmp.GetExternalAddressResult, error)
	AddPortMapping(protocol string, internalPort, requestedExternalPort int, lifetime int) (*natpmp.AddPortMappingResult, error)
}

var _ pmpClient = (*natpmp.Client)(nil)

// ============================================================================
//                              Device 结构
// ============================================================================

// Device NAT-PMP 网关设备
type Device struct {
	client   pmpClient
	gateway  net.IP
	localIP  string
	lifetime time.Duration
	clock    clock.Clock

	mu      sync.Mutex
	entries []*record
}

// record 本设备创建的映射
type record struct {
	entry   gwif.Entry
	expires time.Time
}

// 确保实现接口
var (
	_ gwif.Device         = (*Device)(nil)
	_ gwif.UptimeReporter = (*Device)(nil)
)

func newDevice(client pmpClient, gw net.IP, localIP string, lifetime time.Duration, clk clock.Clock) *Device {
	return &Device{
		client:   client,
		gateway:  gw,
		localIP:  localIP,
		lifetime: lifetime,
		clock:    clk,
	}
}

// Gateway 网关地址
func (d *Device) Gateway() net.IP { return d.gateway }

// LocalIP 本机地址（NAT-PMP 映射的唯一合法内部客户端）
func (d *Device) LocalIP() string { return d.localIP }

// do 执行阻塞调用，ctx 结束时提前返回
//
// go-nat-pmp 的网络调用不支持 context 取消，因此用 goroutine + select 包装。
func do[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func protoToken(protocol string) (string, error) {
	switch strings.ToUpper(protocol) {
	case "TCP":
		return "tcp", nil
	case "UDP":
		return "udp", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidProtocol, protocol)
	}
}

// ============================================================================
//                              Device 接口实现
// ============================================================================

// AddPortMapping 添加端口映射
//
// 网关可能分配与请求不同的外部端口，本地表记录实际分配的端口。
func (d *Device) AddPortMapping(ctx context.Context, extPort, intPort int, intClient, protocol, description string) error {
	proto, err := protoToken(protocol)
	if err != nil {
		return err
	}
	if intClient != "" && d.localIP != "" && intClient != d.localIP {
		log.Warn("NAT-PMP 只能映射到本机，忽略内部客户端", "intClient", intClient, "localIP", d.localIP)
	}

	resp, err := do(ctx, func() (*natpmp.AddPortMappingResult, error) {
		return d.client.AddPortMapping(proto, intPort, extPort, int(d.lifetime/time.Second))
	})
	if err != nil {
		return err
	}

	mapped := int(resp.MappedExternalPort)
	if mapped != extPort {
		log.Info("网关分配了不同的外部端口", "requested", extPort, "mapped", mapped)
	}

	client := d.localIP
	if client == "" {
		client = intClient
	}
	rec := &record{
		entry: gwif.Entry{
			ExternalPort:   mapped,
			Protocol:       strings.ToUpper(proto),
			InternalPort:   int(resp.InternalPort),
			InternalClient: client,
			Enabled:        true,
			Description:    description,
			LeaseDuration:  time.Duration(resp.PortMappingLifetimeInSeconds) * time.Second,
		},
		expires: d.clock.Now().Add(time.Duration(resp.PortMappingLifetimeInSeconds) * time.Second),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.entries {
		if r.entry.Protocol == rec.entry.Protocol && r.entry.ExternalPort == mapped {
			d.entries[i] = rec
			return nil
		}
	}
	d.entries = append(d.entries, rec)
	return nil
}

// DeletePortMapping 删除端口映射（lifetime 为 0 的映射请求）
//
// NAT-PMP 按内部端口删除，建议外部端口和租约均为 0；本地表中没有记录时假定内外端口相同。
func (d *Device) DeletePortMapping(ctx context.Context, extPort int, protocol string) error {
	proto, err := protoToken(protocol)
	if err != nil {
		return err
	}
	upper := strings.ToUpper(proto)

	intPort := extPort
	d.mu.Lock()
	for _, r := range d.entries {
		if r.entry.Protocol == upper && r.entry.ExternalPort == extPort {
			intPort = r.entry.InternalPort
			break
		}
	}
	d.mu.Unlock()

	if _, err := do(ctx, func() (*natpmp.AddPortMappingResult, error) {
		return d.client.AddPortMapping(proto, intPort, 0, 0)
	}); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.entries {
		if r.entry.Protocol == upper && r.entry.ExternalPort == extPort {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			break
		}
	}
	return nil
}

// ExternalIPAddress 获取外部 IP
func (d *Device) ExternalIPAddress(ctx context.Context) (string, error) {
	resp, err := do(ctx, d.client.GetExternalAddress)
	if err != nil {
		return "", err
	}
	return net.IP(resp.ExternalIPAddress[:]).String(), nil
}

// GenericPortMappingEntry 返回本地映射表中第 index 个条目
//
// 已过期的条目返回 (nil, nil)。
func (d *Device) GenericPortMappingEntry(_ context.Context, index int) (*gwif.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.entries) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchEntry, index)
	}
	r := d.entries[index]
	if !d.clock.Now().Before(r.expires) {
		return nil, nil
	}
	e := r.entry
	return &e, nil
}

// Uptime 网关自上次重置映射表以来的秒数
func (d *Device) Uptime(ctx context.Context) (time.Duration, error) {
	resp, err := do(ctx, d.client.GetExternalAddress)
	if err != nil {
		return 0, err
	}
	return time.Duration(resp.SecondsSinceStartOfEpoc) * time.Second, nil
}

// FriendlyName 设备名称
func (d *Device) FriendlyName() string { return "NAT-PMP gateway " + d.gateway.String() }

// Manufacturer 协议不提供制造商信息
func (d *Device) Manufacturer() string { return "" }

// ModelDescription 型号描述
func (d *Device) ModelDescription() string { return "NAT Port Mapping Protocol (RFC 6886)" }

// DeviceType 设备类型
func (d *Device) DeviceType() string { return "nat-pmp" }

// Location 网关的 NAT-PMP 服务地址
func (d *Device) Location() string {
	return "natpmp://" + net.JoinHostPort(d.gateway.String(), fmt.Sprint(servicePort))
}

// PresentationURL 假定网关管理页面位于网关地址的 80 端口
func (d *Device) PresentationURL() string {
	return "http://" + net.JoinHostPort(d.gateway.String(), "80") + "/"
}
