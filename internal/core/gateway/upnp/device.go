package upnp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dep2p/go-portmapper/internal/util/logger"
	gwif "github.com/dep2p/go-portmapper/pkg/interfaces/gateway"
	"github.com/dep2p/go-portmapper/pkg/types"
)

// 包级别日志实例
var log = logger.Logger("gateway.upnp")

// ============================================================================
//                              错误定义
// ============================================================================

// UPnP 相关错误
var (
	// ErrNoGateway 未找到 UPnP 网关
	ErrNoGateway = errors.New("no UPnP gateway found")

	// ErrIndexOutOfRange 枚举索引超出 UPnP 的 16 位索引范围
	ErrIndexOutOfRange = errors.New("port mapping index out of range")

	// ErrPortOutOfRange 端口超出 16 位范围
	ErrPortOutOfRange = errors.New("port out of range")
)

// ============================================================================
//                              Device 结构
// ============================================================================

// Device 单个 UPnP IGD 连接服务
//
// 设备描述在创建时读取并缓存，元数据方法不产生网络往返。
type Device struct {
	client igdClient
	kind   string
	usn    string

	// lease 新映射的租约，0 表示永久
	lease time.Duration

	friendlyName     string
	manufacturer     string
	modelDescription string
	deviceType       string
	location         string
	presentationURL  string
	localIP          string
}

// 确保实现接口
var (
	_ gwif.Device         = (*Device)(nil)
	_ gwif.UptimeReporter = (*Device)(nil)
)

// newDevice 从 IGD 客户端创建设备
func newDevice(client igdClient, kind, usn string, lease time.Duration) *Device {
	d := &Device{
		client: client,
		kind:   kind,
		usn:    usn,
		lease:  lease,
	}

	sc := client.GetServiceClient()
	if sc == nil {
		return d
	}
	if sc.Location != nil {
		d.location = sc.Location.String()
	}
	if ip := sc.LocalAddr(); ip != nil {
		d.localIP = ip.String()
	}
	if sc.RootDevice != nil {
		dev := sc.RootDevice.Device
		d.friendlyName = dev.FriendlyName
		d.manufacturer = dev.Manufacturer
		d.modelDescription = dev.ModelDescription
		d.deviceType = dev.DeviceType
		if dev.PresentationURL.Ok {
			d.presentationURL = dev.PresentationURL.URL.String()
		} else {
			d.presentationURL = dev.PresentationURL.Str
		}
	}
	return d
}

// Kind 连接服务类型，如 "IGDv2-WANIPConnection2"
func (d *Device) Kind() string { return d.kind }

// USN SSDP 唯一服务名（回退发现时为空）
func (d *Device) USN() string { return d.usn }

// LocalIP 发现该设备时使用的本地地址
func (d *Device) LocalIP() string { return d.localIP }

// ============================================================================
//                              Device 接口实现
// ============================================================================

// AddPortMapping 添加端口映射
//
// remoteHost 固定为空（任意远端）。
func (d *Device) AddPortMapping(ctx context.Context, extPort, intPort int, intClient, protocol, description string) error {
	ext, err := port16(extPort)
	if err != nil {
		return err
	}
	in, err := port16(intPort)
	if err != nil {
		return err
	}

	return d.client.AddPortMappingCtx(ctx,
		"",        // remoteHost - 空表示任意
		ext,       // externalPort
		protocol,  // protocol
		in,        // internalPort
		intClient, // internalClient
		true,      // enabled
		description,
		uint32(d.lease/time.Second),
	)
}

// DeletePortMapping 删除端口映射
func (d *Device) DeletePortMapping(ctx context.Context, extPort int, protocol string) error {
	ext, err := port16(extPort)
	if err != nil {
		return err
	}
	return d.client.DeletePortMappingCtx(ctx, "", ext, protocol)
}

// ExternalIPAddress 获取外部 IP
func (d *Device) ExternalIPAddress(ctx context.Context) (string, error) {
	return d.client.GetExternalIPAddressCtx(ctx)
}

// GenericPortMappingEntry 获取第 index 个映射条目
//
// 部分路由器对空槽位返回全空的成功响应，这种情况返回 (nil, nil)。
func (d *Device) GenericPortMappingEntry(ctx context.Context, index int) (*gwif.Entry, error) {
	if index < 0 || index > 0xFFFF {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	remoteHost, extPort, proto, intPort, intClient, enabled, desc, lease, err :=
		d.client.GetGenericPortMappingEntryCtx(ctx, uint16(index))
	if err != nil {
		return nil, err
	}
	if extPort == 0 && proto == "" && intClient == "" {
		return nil, nil
	}

	return &gwif.Entry{
		RemoteHost:     remoteHost,
		ExternalPort:   int(extPort),
		Protocol:       proto,
		InternalPort:   int(intPort),
		InternalClient: intClient,
		Enabled:        enabled,
		Description:    desc,
		LeaseDuration:  time.Duration(lease) * time.Second,
	}, nil
}

// Uptime WAN 连接运行时长
func (d *Device) Uptime(ctx context.Context) (time.Duration, error) {
	status, _, uptime, err := d.client.GetStatusInfoCtx(ctx)
	if err != nil {
		return 0, err
	}
	log.Debug("WAN 连接状态", "status", status, "uptime", uptime)
	return time.Duration(uptime) * time.Second, nil
}

// FriendlyName 设备友好名称
func (d *Device) FriendlyName() string { return d.friendlyName }

// Manufacturer 制造商
func (d *Device) Manufacturer() string { return d.manufacturer }

// ModelDescription 型号描述
func (d *Device) ModelDescription() string { return d.modelDescription }

// DeviceType 设备类型
func (d *Device) DeviceType() string { return d.deviceType }

// Location 设备描述文档地址
func (d *Device) Location() string { return d.location }

// PresentationURL 管理页面地址
func (d *Device) PresentationURL() string { return d.presentationURL }

func port16(p int) (uint16, error) {
	if p < types.MinPort || p > types.MaxPort {
		return 0, fmt.Errorf("%w: %d", ErrPortOutOfRange, p)
	}
	return uint16(p), nil
}
