package main

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rjboer/xrce-client/internal/discovery"
)

func TestRunPrintsDiscoveredAgents(t *testing.T) {
	prev := browse
	browse = func(ctx context.Context, timeout time.Duration) ([]discovery.DiscoveredAgent, error) {
		if timeout != 3*time.Second {
			t.Fatalf("timeout = %v, want 3s", timeout)
		}
		return []discovery.DiscoveredAgent{{
			Instance:      "bridge-1",
			Hostname:      "bridge-1.local.",
			Addresses:     []net.IP{net.ParseIP("192.168.1.42")},
			Port:          9000,
			TransportHint: "serial-bridge",
		}}, nil
	}
	defer func() { browse = prev }()

	buf := &strings.Builder{}
	if err := run([]string{"--timeout", "3"}, buf, func(string) string { return "" }); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "bridge-1") || !strings.Contains(out, "192.168.1.42") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRunNoAgentsFound(t *testing.T) {
	prev := browse
	browse = func(ctx context.Context, timeout time.Duration) ([]discovery.DiscoveredAgent, error) {
		return nil, nil
	}
	defer func() { browse = prev }()

	buf := &strings.Builder{}
	if err := run(nil, buf, func(string) string { return "" }); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), "no XRCE agents found") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRunBrowseError(t *testing.T) {
	prev := browse
	browse = func(ctx context.Context, timeout time.Duration) ([]discovery.DiscoveredAgent, error) {
		return nil, errors.New("resolver unavailable")
	}
	defer func() { browse = prev }()

	err := run(nil, &strings.Builder{}, func(string) string { return "" })
	if err == nil || !strings.Contains(err.Error(), "resolver unavailable") {
		t.Fatalf("err = %v, want resolver unavailable", err)
	}
}
