// Command xrce-scan browses the LAN for XRCE serial-bridge agents and
// prints what it finds, for picking a -port/-addr to feed xrce-hostsim.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/rjboer/xrce-client/internal/discovery"
)

var browse = discovery.Browse

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Getenv); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer, getenv func(string) string) error {
	fs := flag.NewFlagSet("xrce-scan", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	defaultTimeout := 5
	if v, err := strconv.Atoi(getenv("XRCE_SCAN_TIMEOUT")); err == nil && v > 0 {
		defaultTimeout = v
	}
	timeout := fs.Int("timeout", defaultTimeout, "browse timeout in seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	agents, err := browse(context.Background(), time.Duration(*timeout)*time.Second)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if len(agents) == 0 {
		_, err := fmt.Fprintf(out, "no XRCE agents found (%ds browse)\n", *timeout)
		return err
	}

	for i, a := range agents {
		if _, err := fmt.Fprintf(out, "agent #%d: %s (%s) port=%d transport=%s\n",
			i+1, a.Instance, a.Hostname, a.Port, a.TransportHint); err != nil {
			return err
		}
		for _, ip := range a.Addresses {
			if _, err := fmt.Fprintf(out, "    %s\n", ip.String()); err != nil {
				return err
			}
		}
	}
	return nil
}
