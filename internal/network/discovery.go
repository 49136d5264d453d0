package network

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DiscoveredHost is an edgekvm host answering on the local network.
type DiscoveredHost struct {
	IP    string `json:"ip"`
	Port  int    `json:"port"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// GetLocalIP returns the primary local IP address
func GetLocalIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}

// ScanLAN probes every address of the local /24 for a host's /health
// endpoint. The probe does not verify certificates; it only finds
// candidates, and connecting to one still goes through normal TLS checks.
func ScanLAN(ctx context.Context, port int) ([]DiscoveredHost, error) {
	localIP, err := GetLocalIP()
	if err != nil {
		return nil, fmt.Errorf("failed to get local IP: %w", err)
	}

	parts := strings.Split(localIP, ".")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid IP address format: %s", localIP)
	}
	subnet := fmt.Sprintf("%s.%s.%s", parts[0], parts[1], parts[2])

	client := &http.Client{
		Timeout: 500 * time.Millisecond,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}

	var (
		hosts []DiscoveredHost
		mu    sync.Mutex
		wg    sync.WaitGroup
	)
	for i := 1; i <= 254; i++ {
		ip := fmt.Sprintf("%s.%d", subnet, i)
		if ip == localIP {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if host, ok := probeHost(ctx, client, ip, port); ok {
				mu.Lock()
				hosts = append(hosts, host)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Slice(hosts, func(i, j int) bool { return hosts[i].IP < hosts[j].IP })
	return hosts, nil
}

// probeHost checks whether ip:port serves an edgekvm /health endpoint.
func probeHost(ctx context.Context, client *http.Client, ip string, port int) (DiscoveredHost, bool) {
	healthURL := "https://" + net.JoinHostPort(ip, strconv.Itoa(port)) + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return DiscoveredHost{}, false
	}

	resp, err := client.Do(req)
	if err != nil {
		return DiscoveredHost{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return DiscoveredHost{}, false
	}

	var health struct {
		Status string `json:"status"`
		Name   string `json:"name"`
		State  string `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil || health.Status != "ok" {
		return DiscoveredHost{}, false
	}
	return DiscoveredHost{IP: ip, Port: port, Name: health.Name, State: health.State}, true
}

// GetLocalIPs returns all available local IPv4 addresses
func GetLocalIPs() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var ips []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue // interface down
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue // loopback interface
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			ip = ip.To4()
			if ip == nil {
				continue // not an ipv4 address
			}
			ips = append(ips, ip.String())
		}
	}
	return ips, nil
}
