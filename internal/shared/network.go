package shared

import (
	"fmt"
	"net"
	"slices"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// Interface is a named network interface with its usable IPv4 addresses.
type Interface struct {
	Name  string
	Addrs []string
}

// LANAddresses lists the non-loopback IPv4 addresses of interfaces that are up.
func LANAddresses() ([]Interface, error) {
	stats, err := psnet.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	return lanAddresses(stats), nil
}

func lanAddresses(stats psnet.InterfaceStatList) []Interface {
	var ifaces []Interface
	for _, stat := range stats {
		if !slices.Contains(stat.Flags, "up") || slices.Contains(stat.Flags, "loopback") {
			continue
		}

		var addrs []string
		for _, addr := range stat.Addrs {
			if ip := parseIPv4(addr.Addr); ip != "" {
				addrs = append(addrs, ip)
			}
		}
		if len(addrs) > 0 {
			ifaces = append(ifaces, Interface{Name: stat.Name, Addrs: addrs})
		}
	}
	return ifaces
}

// parseIPv4 accepts "a.b.c.d" or "a.b.c.d/nn" and returns the address, or "" for
// anything that is not a private-use or global IPv4 address.
func parseIPv4(raw string) string {
	host, _, _ := strings.Cut(raw, "/")
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
		return ""
	}
	return ip.String()
}

// PrimaryIP returns the address the OS would use for outbound traffic.
//
// No packets are sent; dialing UDP only selects a route.
func PrimaryIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", fmt.Errorf("failed to determine primary address: %w", err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected local address %v", conn.LocalAddr())
	}
	return addr.IP.String(), nil
}

// NetworkURL builds the URL other devices on the LAN should use to reach the server.
//
// publicURL wins when set. Otherwise the primary IP is used, then the first LAN address,
// then localhost.
func NetworkURL(publicURL string, port int) string {
	if publicURL = strings.TrimSpace(publicURL); publicURL != "" {
		return strings.TrimRight(publicURL, "/")
	}

	if ip, err := PrimaryIP(); err == nil && parseIPv4(ip) != "" {
		return fmt.Sprintf("http://%s:%d", ip, port)
	}

	if ifaces, err := LANAddresses(); err == nil && len(ifaces) > 0 {
		return fmt.Sprintf("http://%s:%d", ifaces[0].Addrs[0], port)
	}

	return fmt.Sprintf("http://localhost:%d", port)
}

// PortInUse reports whether a local TCP listener already owns port.
func PortInUse(port int) (bool, error) {
	conns, err := psnet.Connections("tcp")
	if err != nil {
		return false, fmt.Errorf("failed to list connections: %w", err)
	}

	for _, c := range conns {
		if c.Status == "LISTEN" && int(c.Laddr.Port) == port {
			return true, nil
		}
	}
	return false, nil
}
