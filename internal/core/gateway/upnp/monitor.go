package upnp

import (
	"strings"
	"sync"

	ssdp "github.com/koron/go-ssdp"
)

// Monitor 监听 IGD 的 SSDP 通告
//
// 收到 ssdp:byebye 时从发现器缓存中移除对应设备并回调 OnBye；
// 收到 ssdp:alive 时回调 OnAlive。只处理 InternetGatewayDevice 及其连接服务。
type Monitor struct {
	disc *Discoverer

	// OnAlive 网关上线（可选）
	OnAlive func(usn, location string)
	// OnBye 网关下线（可选）
	OnBye func(usn string)

	mu      sync.Mutex
	monitor *ssdp.Monitor
}

// NewMonitor 创建监听器，disc 可为 nil
func NewMonitor(disc *Discoverer) *Monitor {
	return &Monitor{disc: disc}
}

// Start 开始监听
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.monitor != nil {
		return nil
	}
	mon := &ssdp.Monitor{
		Alive: func(msg *ssdp.AliveMessage) {
			m.handleAlive(msg.Type, msg.USN, msg.Location)
		},
		Bye: func(msg *ssdp.ByeMessage) {
			m.handleBye(msg.Type, msg.USN)
		},
	}
	if err := mon.Start(); err != nil {
		return err
	}
	m.monitor = mon
	log.Debug("开始监听 SSDP 网关通告")
	return nil
}

// Close 停止监听
func (m *Monitor) Close() error {
	m.mu.Lock()
	mon := m.monitor
	m.monitor = nil
	m.mu.Unlock()

	if mon == nil {
		return nil
	}
	return mon.Close()
}

func (m *Monitor) handleAlive(nt, usn, location string) {
	if !isGatewayType(nt) {
		return
	}
	log.Debug("网关在线通告", "nt", nt, "usn", usn, "location", location)
	if m.OnAlive != nil {
		m.OnAlive(usn, location)
	}
}

func (m *Monitor) handleBye(nt, usn string) {
	if !isGatewayType(nt) {
		return
	}
	log.Info("网关下线通告", "nt", nt, "usn", usn)
	if m.disc != nil {
		m.disc.Forget(usn)
	}
	if m.OnBye != nil {
		m.OnBye(usn)
	}
}

// isGatewayType 判断 NT 是否属于 IGD 设备或其 WAN 连接服务
func isGatewayType(nt string) bool {
	return strings.Contains(nt, ":device:InternetGatewayDevice:") ||
		strings.Contains(nt, ":device:WANConnectionDevice:") ||
		strings.Contains(nt, ":service:WANIPConnection:") ||
		strings.Contains(nt, ":service:WANPPPConnection:")
}
