package upnp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/huin/goupnp/httpu"
	"github.com/huin/goupnp/ssdp"
	"golang.org/x/sync/errgroup"

	gwif "github.com/dep2p/go-portmapper/pkg/interfaces/gateway"
)

// ============================================================================
//                              配置
// ============================================================================

// Config UPnP 发现配置
type Config struct {
	// SearchTimeout 单次 SSDP 搜索的等待时间
	SearchTimeout time.Duration

	// NumSends 每次搜索发送的 M-SEARCH 数量
	NumSends int

	// Parallelism 同时进行搜索的候选地址数
	Parallelism int

	// Lease 新映射的租约，0 表示永久
	Lease time.Duration

	// CacheSize 设备缓存容量
	CacheSize int

	// Fallback 候选地址全部失败时是否回退到默认组播发现
	Fallback bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		SearchTimeout: 3 * time.Second,
		NumSends:      3,
		Parallelism:   4,
		Lease:         0,
		CacheSize:     16,
		Fallback:      true,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.SearchTimeout <= 0 {
		return errors.New("search timeout must be positive")
	}
	if c.NumSends <= 0 {
		return errors.New("num sends must be positive")
	}
	if c.Parallelism <= 0 {
		return errors.New("parallelism must be positive")
	}
	if c.Lease < 0 {
		return errors.New("lease must not be negative")
	}
	if c.CacheSize <= 0 {
		return errors.New("cache size must be positive")
	}
	return nil
}

// ============================================================================
//                              Discoverer
// ============================================================================

// searchResult 一条 SSDP 搜索响应
type searchResult struct {
	location *url.URL
	usn      string
}

// Discoverer UPnP 网关发现器
//
// 已创建的设备按 USN 缓存，重复发现时跳过设备描述的下载。
type Discoverer struct {
	cfg   Config
	cache *lru.Cache[string, *Device]

	// 以下字段便于测试替换
	services   []service
	candidates func() []net.IP
	search     func(ctx context.Context, localIP net.IP, target string) ([]searchResult, error)
}

// 确保实现接口
var _ gwif.Discoverer = (*Discoverer)(nil)

// NewDiscoverer 创建 UPnP 发现器
func NewDiscoverer(cfg Config) (*Discoverer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("upnp: invalid config: %w", err)
	}
	cache, err := lru.New[string, *Device](cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	d := &Discoverer{
		cfg:        cfg,
		cache:      cache,
		services:   services,
		candidates: candidateLANAddresses,
	}
	d.search = d.ssdpSearch
	return d, nil
}

// Name 返回发现器名称
func (d *Discoverer) Name() string {
	return "upnp"
}

// found 某个候选地址上搜到的一个服务位置
type found struct {
	svc     int // services 下标，即优先级
	localIP net.IP
	result  searchResult
}

// Discover 发现 UPnP 网关
//
// 从过滤后的 LAN 候选地址并发搜索各类 IGD 服务，
// 避免从虚拟网卡（utun/bridge/198.18 等）发送 SSDP 导致 "no route to host"。
// 返回的设备按服务优先级排序。
func (d *Discoverer) Discover(ctx context.Context) ([]gwif.Device, error) {
	candidates := d.candidates()
	log.Debug("开始发现 UPnP 网关", "candidates", formatIPs(candidates))

	var devices []gwif.Device
	if len(candidates) > 0 {
		hits, err := d.searchAll(ctx, candidates)
		if err != nil {
			return nil, err
		}
		devices = d.resolve(ctx, hits)
	}

	if len(devices) == 0 && d.cfg.Fallback {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Debug("候选地址均未发现网关，回退到默认 SSDP 发现")
		devices = d.fallback(ctx)
	}

	if len(devices) == 0 {
		return nil, ErrNoGateway
	}
	return devices, nil
}

// searchAll 在所有候选地址上并发搜索所有服务类型
func (d *Discoverer) searchAll(ctx context.Context, candidates []net.IP) ([]found, error) {
	var (
		mu   sync.Mutex
		hits []found
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Parallelism)
	for _, localIP := range candidates {
		localIP := localIP
		g.Go(func() error {
			for i, svc := range d.services {
				if err := gctx.Err(); err != nil {
					return err
				}
				results, err := d.search(gctx, localIP, svc.target)
				if err != nil {
					log.Debug("SSDP 搜索失败",
						"localIP", localIP.String(),
						"target", svc.kind,
						"err", err)
					continue
				}
				if len(results) == 0 {
					continue
				}
				log.Debug("SSDP 发现设备",
					"localIP", localIP.String(),
					"target", svc.kind,
					"locations", len(results))

				mu.Lock()
				for _, r := range results {
					hits = append(hits, found{svc: i, localIP: localIP, result: r})
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].svc < hits[b].svc
	})
	return hits, nil
}

// resolve 为搜索结果创建设备，同一服务只保留一个
func (d *Discoverer) resolve(ctx context.Context, hits []found) []gwif.Device {
	seen := make(map[string]bool)
	var devices []gwif.Device

	for _, h := range hits {
		svc := d.services[h.svc]
		key := cacheKey(svc.kind, h.result.usn, h.result.location.String())
		if seen[key] {
			continue
		}
		seen[key] = true

		if dev, ok := d.cache.Get(key); ok {
			devices = append(devices, dev)
			continue
		}

		clients, err := svc.byURL(ctx, h.result.location)
		if err != nil || len(clients) == 0 {
			log.Debug("创建 IGD 客户端失败",
				"location", h.result.location.String(),
				"target", svc.kind,
				"err", err)
			continue
		}

		dev := newDevice(clients[0], svc.kind, h.result.usn, d.cfg.Lease)
		// internalClient 需要固定为本次成功的 LAN 源地址
		dev.localIP = h.localIP.String()
		d.cache.Add(key, dev)
		devices = append(devices, dev)

		log.Info("发现 UPnP 网关",
			"kind", svc.kind,
			"device", dev.FriendlyName(),
			"location", dev.Location(),
			"localIP", dev.LocalIP())
	}
	return devices
}

// fallback 使用 goupnp 默认的组播发现
func (d *Discoverer) fallback(ctx context.Context) []gwif.Device {
	var devices []gwif.Device
	for _, svc := range d.services {
		if ctx.Err() != nil {
			break
		}
		clients, err := svc.discover(ctx)
		if err != nil {
			log.Debug("回退发现失败", "target", svc.kind, "err", err)
			continue
		}
		for _, c := range clients {
			dev := newDevice(c, svc.kind, "", d.cfg.Lease)
			d.cache.Add(cacheKey(svc.kind, "", dev.Location()), dev)
			devices = append(devices, dev)
			log.Info("发现 UPnP 网关（回退模式）",
				"kind", svc.kind,
				"device", dev.FriendlyName(),
				"location", dev.Location())
		}
	}
	return devices
}

// Forget 移除与 USN 属于同一设备（相同 UDN）的缓存设备
//
// 收到设备的 ssdp:byebye 时调用。返回是否有条目被移除。
func (d *Discoverer) Forget(usn string) bool {
	udn := udnOf(usn)
	if udn == "" {
		return false
	}
	removed := false
	for _, key := range d.cache.Keys() {
		dev, ok := d.cache.Peek(key)
		if ok && udnOf(dev.usn) == udn {
			d.cache.Remove(key)
			removed = true
		}
	}
	if removed {
		log.Info("网关已离线，移除缓存", "usn", usn)
	}
	return removed
}

// Cached 缓存的设备数
func (d *Discoverer) Cached() int {
	return d.cache.Len()
}

// udnOf 取 USN 中 "::" 之前的设备 UDN 部分
func udnOf(usn string) string {
	udn, _, _ := strings.Cut(usn, "::")
	return udn
}

func cacheKey(kind, usn, location string) string {
	if usn != "" {
		return kind + "|" + usn
	}
	return kind + "|" + location
}

// ssdpSearch 从指定本地 IP 地址发起 SSDP 搜索
func (d *Discoverer) ssdpSearch(ctx context.Context, localIP net.IP, target string) ([]searchResult, error) {
	client, err := httpu.NewHTTPUClientAddr(localIP.String())
	if err != nil {
		return nil, fmt.Errorf("绑定本地地址 %s 失败: %w", localIP.String(), err)
	}
	defer func() { _ = client.Close() }()

	searchCtx, cancel := context.WithTimeout(ctx, d.cfg.SearchTimeout)
	defer cancel()

	responses, err := ssdp.RawSearch(searchCtx, client, target, d.cfg.NumSends)
	if err != nil {
		return nil, fmt.Errorf("SSDP 搜索失败: %w", err)
	}

	results := make([]searchResult, 0, len(responses))
	for _, resp := range responses {
		loc, err := resp.Location()
		if err != nil {
			continue
		}
		results = append(results, searchResult{location: loc, usn: resp.Header.Get("USN")})
	}
	return results, nil
}
