// ABOUTME: mDNS service discovery for the mixer control server
// ABOUTME: Advertises a running mixer and browses for mixers on the local network
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type of a mixer control server
const ServiceType = "_yourgame-audio._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	// Path and Sources are published as TXT records
	Path    string
	Sources int
	// BrowseTimeout bounds each query round, default 3s
	BrowseTimeout time.Duration
}

// Manager handles mDNS operations
type Manager struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
	mixers chan *MixerInfo
}

// MixerInfo describes a discovered mixer
type MixerInfo struct {
	Name    string
	Host    string
	Port    int
	Path    string
	Sources int
}

// Addr returns host:port
func (m *MixerInfo) Addr() string {
	return net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.BrowseTimeout <= 0 {
		config.BrowseTimeout = 3 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		mixers: make(chan *MixerInfo, 10),
	}
}

// txtRecords builds the TXT records advertised for this mixer
func (m *Manager) txtRecords() []string {
	txt := []string{}
	if m.config.Path != "" {
		txt = append(txt, "path="+m.config.Path)
	}
	if m.config.Sources > 0 {
		txt = append(txt, "sources="+strconv.Itoa(m.config.Sources))
	}
	return txt
}

// Advertise advertises this mixer via mDNS until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.txtRecords(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for mixers until Stop is called
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				mixer := entryToMixer(entry)
				log.Printf("Discovered mixer: %s at %s", mixer.Name, mixer.Addr())

				select {
				case m.mixers <- mixer:
				case <-m.ctx.Done():
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: ServiceType,
			Domain:  "local",
			Timeout: m.config.BrowseTimeout,
			Entries: entries,
		}

		if err := mdns.Query(params); err != nil {
			log.Printf("Warning: mDNS query failed: %v", err)
		}
		close(entries)
		<-done
	}
}

// entryToMixer converts a service entry, reading the TXT records we publish
func entryToMixer(entry *mdns.ServiceEntry) *MixerInfo {
	info := &MixerInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Port: entry.Port,
	}
	if entry.AddrV4 != nil {
		info.Host = entry.AddrV4.String()
	} else if entry.AddrV6 != nil {
		info.Host = entry.AddrV6.String()
	} else {
		info.Host = entry.Host
	}

	for _, field := range entry.InfoFields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "path":
			info.Path = value
		case "sources":
			if n, err := strconv.Atoi(value); err == nil {
				info.Sources = n
			}
		}
	}
	return info
}

// Mixers returns the channel of discovered mixers
func (m *Manager) Mixers() <-chan *MixerInfo {
	return m.mixers
}

// Stop stops advertising and browsing
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
