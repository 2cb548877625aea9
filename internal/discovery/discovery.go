// Package discovery locates XRCE serial-bridge agents advertising
// themselves on the local network via mDNS, adapted from the teacher
// repo's IIOD discovery helper (internal/mdns). This is host tooling only:
// the session never performs discovery itself (spec non-goal), it just
// needs a source of candidate addresses to feed into a Session's Transport.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// ServiceName is the mDNS service type XRCE serial-bridge agents advertise.
const ServiceName = "_xrce-agent._udp"

// DiscoveredAgent is one resolved mDNS entry for an XRCE agent's
// serial-to-network bridge.
type DiscoveredAgent struct {
	Instance  string
	Hostname  string
	Addresses []net.IP
	Port      int
	// TransportHint is the bridge's advertised link kind, read from a
	// "transport=..." TXT record (e.g. "transport=serial-bridge").
	TransportHint string
}

// Browse performs a blocking mDNS browse for ServiceName, returning
// deduplicated agents discovered within timeout.
func Browse(ctx context.Context, timeout time.Duration) ([]DiscoveredAgent, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	results := make(map[string]DiscoveredAgent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				if e == nil {
					continue
				}
				addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
				addrs = append(addrs, e.AddrIPv4...)
				addrs = append(addrs, e.AddrIPv6...)

				key := fmt.Sprintf("%s|%d", e.HostName, e.Port)
				results[key] = DiscoveredAgent{
					Instance:      cleanInstance(e.Instance),
					Hostname:      e.HostName,
					Addresses:     addrs,
					Port:          e.Port,
					TransportHint: transportHint(e.Text),
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceName, "local.", entries); err != nil {
		return nil, fmt.Errorf("discovery: browse: %w", err)
	}
	<-done

	out := make([]DiscoveredAgent, 0, len(results))
	for _, a := range results {
		out = append(out, a)
	}
	return out, nil
}

func transportHint(txt []string) string {
	for _, rec := range txt {
		if strings.HasPrefix(rec, "transport=") {
			return strings.TrimPrefix(rec, "transport=")
		}
	}
	return ""
}

func cleanInstance(s string) string {
	return strings.ReplaceAll(s, `\ `, " ")
}
