package upnp

import (
	"fmt"
	"net"
	"strings"

	"github.com/jackpal/gateway"
)

// ============================================================================
//                              SSDP 候选地址选择
// ============================================================================

// virtualIfacePrefixes 虚拟网卡名称前缀黑名单
var virtualIfacePrefixes = []string{
	"utun",      // macOS VPN tunnel
	"bridge",    // Linux bridge
	"awdl",      // Apple Wireless Direct Link
	"llw",       // Low Latency WLAN
	"lo",        // Loopback
	"gif",       // Generic tunnel interface
	"stf",       // 6to4 tunnel
	"tun",       // TUN device
	"tap",       // TAP device
	"wintun",    // WireGuard Wintun
	"vethernet", // Hyper-V vEthernet
	"docker",    // Docker bridge
	"vboxnet",   // VirtualBox
	"vmnet",     // VMware
	"veth",      // Virtual Ethernet
	"virbr",     // libvirt bridge
	"br-",       // Docker custom bridge
	"cni",       // Kubernetes CNI
	"flannel",   // Flannel overlay
	"calico",    // Calico overlay
}

// blockedCIDRs 不可用于 SSDP 的地址段
var blockedCIDRs = mustParseCIDRs(
	"127.0.0.0/8",    // Loopback
	"169.254.0.0/16", // Link-local
	"198.18.0.0/15",  // Benchmark testing（常见 VPN 隧道地址）
	"100.64.0.0/10",  // CGNAT
	"224.0.0.0/4",    // Multicast
	"240.0.0.0/4",    // Reserved
)

func mustParseCIDRs(ss ...string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(ss))
	for _, s := range ss {
		_, ipnet, err := net.ParseCIDR(s)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR: %s", s))
		}
		out = append(out, ipnet)
	}
	return out
}

func isVirtualInterface(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range virtualIfacePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func isBlockedIP(ip net.IP) bool {
	for _, cidr := range blockedCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// lanAddr 某个接口上的 IPv4 地址
type lanAddr struct {
	iface string
	ip    net.IP
	ipnet *net.IPNet // 可能为空（例如 *net.IPAddr）
}

// interfaceAddrs 列出 UP、非 loopback、支持组播的物理接口上的 IPv4 地址
func interfaceAddrs() []lanAddr {
	ifaces, err := net.Interfaces()
	if err != nil {
		log.Debug("获取网络接口失败", "err", err)
		return nil
	}

	var out []lanAddr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 ||
			iface.Flags&net.FlagLoopback != 0 ||
			iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if isVirtualInterface(iface.Name) {
			log.Debug("跳过虚拟网卡", "iface", iface.Name)
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			log.Debug("获取接口地址失败", "iface", iface.Name, "err", err)
			continue
		}
		for _, addr := range addrs {
			switch v := addr.(type) {
			case *net.IPNet:
				out = append(out, lanAddr{iface: iface.Name, ip: v.IP, ipnet: v})
			case *net.IPAddr:
				out = append(out, lanAddr{iface: iface.Name, ip: v.IP})
			}
		}
	}
	return out
}

// rankCandidates 过滤并排序 SSDP 候选地址
//
// 只保留非黑名单 IPv4 地址。私有地址在前，其中与默认网关同网段的最优先；
// gw 为 nil 时不做网段排序。
func rankCandidates(addrs []lanAddr, gw net.IP) []net.IP {
	var sameSubnet, private, public []net.IP
	for _, a := range addrs {
		ip4 := a.ip.To4()
		if ip4 == nil {
			continue
		}
		if isBlockedIP(ip4) {
			log.Debug("跳过黑名单地址", "iface", a.iface, "ip", ip4.String())
			continue
		}
		switch {
		case !ip4.IsPrivate():
			public = append(public, ip4)
		case gw != nil && a.ipnet != nil && a.ipnet.Contains(gw):
			sameSubnet = append(sameSubnet, ip4)
		default:
			private = append(private, ip4)
		}
	}

	out := make([]net.IP, 0, len(sameSubnet)+len(private)+len(public))
	out = append(out, sameSubnet...)
	out = append(out, private...)
	return append(out, public...)
}

// candidateLANAddresses 获取适合发送 SSDP 的候选 LAN 地址
func candidateLANAddresses() []net.IP {
	var gw net.IP
	if ip, err := gateway.DiscoverGateway(); err == nil && ip.To4() != nil {
		gw = ip
	}
	return rankCandidates(interfaceAddrs(), gw)
}

// formatIPs 格式化 IP 列表用于日志输出
func formatIPs(ips []net.IP) string {
	strs := make([]string, len(ips))
	for i, ip := range ips {
		strs[i] = ip.String()
	}
	return "[" + strings.Join(strs, ", ") + "]"
}
