package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/dep2p/go-portmapper/internal/util/logger"
	gwif "github.com/dep2p/go-portmapper/pkg/interfaces/gateway"
	"github.com/dep2p/go-portmapper/pkg/types"
)

// 包级别日志实例
var log = logger.Logger("gateway")

// ============================================================================
//                              状态
// ============================================================================

// State 客户端状态
type State int

const (
	// StateLive 持有可用的设备句柄
	StateLive State = iota
	// StateDisconnected 已断开（终态）
	StateDisconnected
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              Client 结构
// ============================================================================

// Client 网关端口映射客户端
type Client struct {
	// mu 在整个操作期间持有：保证单个在途设备请求，并保护 device/state
	mu     sync.Mutex
	device gwif.Device // 断开后置 nil
	state  State

	id      string
	enum    EnumConfig
	log     *slog.Logger
	clock   clock.Clock
	metrics *Metrics
}

// 确保实现接口
var _ gwif.Router = (*Client)(nil)

// New 创建客户端，独占 device 直到 Disconnect
func New(device gwif.Device, opts ...Option) (*Client, error) {
	if device == nil {
		return nil, ErrNilDevice
	}

	id := uuid.NewString()
	c := &Client{
		device: device,
		state:  StateLive,
		id:     id,
		enum:   DefaultEnumConfig(),
		log:    log.With("client", id),
		clock:  clock.New(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("gateway: apply option: %w", err)
		}
	}

	c.log.Debug("网关客户端已创建", "device", device.FriendlyName(), "location", device.Location())
	return c, nil
}

// ID 客户端实例标识（用于日志关联）
func (c *Client) ID() string {
	return c.id
}

// State 当前状态
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// live 返回可用设备；已断开时返回 op 的断开故障
//
// 调用者必须持有 c.mu。
func (c *Client) live(op string) (gwif.Device, error) {
	if c.state == StateDisconnected || c.device == nil {
		c.metrics.rejected(op)
		return nil, newFault(op, ErrDisconnected)
	}
	return c.device, nil
}

// roundTrip 执行一次设备调用并记录指标
func (c *Client) roundTrip(op string, fn func() error) error {
	start := c.clock.Now()
	err := fn()
	c.metrics.observe(op, c.clock.Since(start), err)
	return err
}

// ============================================================================
//                              添加 / 删除
// ============================================================================

// AddMapping 添加一条端口映射
//
// 网关映射表中 (protocol, externalPort) 处的条目被新增或覆盖。
func (c *Client) AddMapping(ctx context.Context, m types.PortMapping) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addMappingLocked(ctx, m)
}

func (c *Client) addMappingLocked(ctx context.Context, m types.PortMapping) error {
	dev, err := c.live(OpAdd)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return newFault(OpAdd, fmt.Errorf("%w: %w", ErrInvalidMapping, err))
	}

	err = c.roundTrip(OpAdd, func() error {
		return dev.AddPortMapping(ctx, m.ExternalPort, m.InternalPort, m.InternalClient, m.Protocol.String(), m.Description)
	})
	if err != nil {
		c.log.Warn("添加端口映射失败", "mapping", m.String(), "err", err)
		return newFault(OpAdd, err)
	}

	c.log.Info("端口映射已添加", "mapping", m.String())
	return nil
}

// AddMappings 按顺序添加多条映射
//
// 遇到第一个失败立即返回该故障，后续条目不再尝试，已添加的条目不回滚。
func (c *Client) AddMappings(ctx context.Context, ms []types.PortMapping) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, m := range ms {
		if err := c.addMappingLocked(ctx, m); err != nil {
			if i > 0 {
				c.log.Warn("批量添加中止，已添加的映射保留", "applied", i, "total", len(ms))
			}
			return err
		}
	}
	return nil
}

// RemoveMapping 删除一条映射，等价于 RemovePortMapping(m.Protocol, m.RemoteHost, m.ExternalPort)
func (c *Client) RemoveMapping(ctx context.Context, m types.PortMapping) error {
	return c.RemovePortMapping(ctx, m.Protocol, m.RemoteHost, m.ExternalPort)
}

// RemovePortMapping 删除 (protocol, externalPort) 处的映射
//
// remoteHost 不发送给网关：网关只按协议和外部端口识别条目。
func (c *Client) RemovePortMapping(ctx context.Context, protocol types.Protocol, remoteHost string, externalPort int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dev, err := c.live(OpRemove)
	if err != nil {
		return err
	}

	err = c.roundTrip(OpRemove, func() error {
		return dev.DeletePortMapping(ctx, externalPort, protocol.String())
	})
	if err != nil {
		c.log.Warn("删除端口映射失败",
			"protocol", protocol.String(),
			"externalPort", externalPort,
			"err", err)
		return newFault(OpRemove, err)
	}

	c.log.Info("端口映射已删除",
		"protocol", protocol.String(),
		"remoteHost", remoteHost,
		"externalPort", externalPort)
	return nil
}

// ============================================================================
//                              查询
// ============================================================================

// ExternalIPAddress 获取网关外部 IP
func (c *Client) ExternalIPAddress(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dev, err := c.live(OpGetExternalIP)
	if err != nil {
		return "", err
	}

	var ip string
	err = c.roundTrip(OpGetExternalIP, func() error {
		var err error
		ip, err = dev.ExternalIPAddress(ctx)
		return err
	})
	if err != nil {
		return "", newFault(OpGetExternalIP, err)
	}
	return ip, nil
}

// InternalHostName 管理页面地址中的主机名
func (c *Client) InternalHostName(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dev, err := c.live(OpGetInternalHostName)
	if err != nil {
		return "", err
	}
	u, err := parsePresentationURL(dev.PresentationURL())
	if err != nil {
		return "", newFault(OpParseLocation, err)
	}
	return u.Hostname(), nil
}

// InternalPort 管理页面地址中的端口
//
// 地址没有显式端口时返回 NoPort，不按 scheme 推断默认端口。
func (c *Client) InternalPort(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dev, err := c.live(OpGetInternalPort)
	if err != nil {
		return 0, err
	}
	u, err := parsePresentationURL(dev.PresentationURL())
	if err != nil {
		return 0, newFault(OpParseLocation, err)
	}
	return urlPort(u), nil
}

// Name 网关友好名称（发现时已缓存，无网络往返）
func (c *Client) Name() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dev, err := c.live(OpGetName)
	if err != nil {
		return "", err
	}
	return dev.FriendlyName(), nil
}

// UpTime 网关运行时长
//
// 设备未实现 UptimeReporter 时返回 ErrUnsupported 故障。
func (c *Client) UpTime(ctx context.Context) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dev, err := c.live(OpGetUpTime)
	if err != nil {
		return 0, err
	}
	reporter, ok := dev.(gwif.UptimeReporter)
	if !ok {
		return 0, newFault(OpGetUpTime, ErrUnsupported)
	}

	var uptime time.Duration
	err = c.roundTrip(OpGetUpTime, func() error {
		var err error
		uptime, err = reporter.Uptime(ctx)
		return err
	})
	if err != nil {
		return 0, newFault(OpGetUpTime, err)
	}
	return uptime, nil
}

// RouterInfo 网关描述信息，按键排序
func (c *Client) RouterInfo() (types.RouterInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dev, err := c.live(OpRouterInfo)
	if err != nil {
		return types.RouterInfo{}, err
	}
	return routerInfo(dev), nil
}

// LogRouterInfo 按键顺序记录网关描述信息并返回
func (c *Client) LogRouterInfo() (types.RouterInfo, error) {
	info, err := c.RouterInfo()
	if err != nil {
		return info, err
	}
	for _, e := range info.Entries() {
		c.log.Info("网关信息", "key", e.Key, "value", e.Value)
	}
	return info, nil
}

func routerInfo(dev gwif.Device) types.RouterInfo {
	return types.NewRouterInfo(map[string]string{
		types.InfoFriendlyName:     dev.FriendlyName(),
		types.InfoManufacturer:     dev.Manufacturer(),
		types.InfoModelDescription: dev.ModelDescription(),
		types.InfoLocation:         dev.Location(),
		types.InfoDeviceType:       dev.DeviceType(),
	})
}

// ============================================================================
//                              枚举
// ============================================================================

// Mappings 枚举网关映射表
//
// 设备错误视为表尾：返回已收集的映射且不报错。
// 只有客户端已断开或 ctx 被取消时才返回故障。
func (c *Client) Mappings(ctx context.Context) ([]types.PortMapping, error) {
	var mappings []types.PortMapping
	err := c.EachMapping(ctx, func(m types.PortMapping) bool {
		mappings = append(mappings, m)
		return true
	})
	if err != nil {
		return nil, err
	}
	if mappings == nil {
		mappings = []types.PortMapping{}
	}
	return mappings, nil
}

// EachMapping 逐条枚举映射，fn 返回 false 时提前停止
//
// 枚举期间持有客户端锁，fn 内不得调用同一客户端的方法。
func (c *Client) EachMapping(ctx context.Context, fn func(types.PortMapping) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dev, err := c.live(OpList)
	if err != nil {
		return err
	}

	start := c.clock.Now()
	e := newEnumerator(dev, c.enum, c.clock, c.log)
	count := 0
	for {
		m, ok := e.Next(ctx)
		if !ok {
			break
		}
		count++
		if !fn(m) {
			break
		}
	}

	if e.Canceled() {
		c.metrics.observe(OpList, c.clock.Since(start), e.Err())
		return newFault(OpList, e.Err())
	}

	c.metrics.observe(OpList, c.clock.Since(start), nil)
	if e.Done() {
		c.metrics.setMappings(count)
	}
	c.log.Debug("端口映射枚举完成",
		"count", count,
		"skipped", e.Skipped(),
		"lastIndex", e.Index())
	return nil
}

// ============================================================================
//                              生命周期
// ============================================================================

// Disconnect 断开客户端
//
// 幂等；之后所有操作立即返回 ErrDisconnected 故障，不再访问设备。
// 若有操作在途，等待其完成。
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisconnected {
		return
	}
	c.device = nil
	c.state = StateDisconnected
	c.log.Info("网关客户端已断开")
}
