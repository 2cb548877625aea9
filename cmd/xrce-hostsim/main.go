//go:build linux

// Command xrce-hostsim opens a real serial port, runs the CREATE_CLIENT
// handshake against whatever agent is listening on the other end, and
// prints the resulting handshake diagnostics. It is host tooling: a
// development harness for exercising the protocol against a physical UART
// or USB-serial adapter, not part of the embedded client itself.
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

	"github.com/rjboer/xrce-client/internal/framing"
	"github.com/rjboer/xrce-client/internal/serialhal"
	"github.com/rjboer/xrce-client/session"
)

// closablePort is what run needs from an opened port: the HAL boundary plus
// Close, so a test can substitute a fake port without a real serial device.
type closablePort interface {
	framing.SerialPlatformOps
	Close() error
}

// openPort is a seam for tests: it wraps serialhal.Open.
var openPort = func(name string, baud int) (closablePort, error) {
	return serialhal.Open(name, baud)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Getenv); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer, getenv func(string) string) error {
	fs := flag.NewFlagSet("xrce-hostsim", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	defaultPort := getenv("XRCE_SERIAL_PORT")
	if defaultPort == "" {
		defaultPort = "/dev/ttyUSB0"
	}
	defaultBaud := 115200
	if v, err := strconv.Atoi(getenv("XRCE_SERIAL_BAUD")); err == nil && v > 0 {
		defaultBaud = v
	}

	port := fs.String("port", defaultPort, "serial device path")
	baud := fs.Int("baud", defaultBaud, "serial baud rate")
	localAddr := fs.Int("local-addr", 0x01, "framing local address")
	remoteAddr := fs.Int("remote-addr", 0x00, "framing destination address for the agent")
	timeoutSec := fs.Int("timeout", 10, "overall handshake timeout in seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := openPort(*port, *baud)
	if err != nil {
		return fmt.Errorf("open %s: %w", *port, err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("close %s: %v", *port, err)
		}
	}()

	transport := framing.NewTransport(p, byte(*localAddr))
	sess := session.NewSession([4]byte{0x00, 0x00, 0x00, 0x01}, transport,
		session.WithRemoteAddr(byte(*remoteAddr)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeoutSec)*time.Second)
	defer cancel()

	if err := sess.Create(ctx); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	stats := sess.Stats().Snapshot()
	_, err = fmt.Fprintf(out, "handshake ok: session_id=%#x mean_rtt_ms=%.1f stddev_ms=%.1f timeouts=%d crc_drops=%d\n",
		sess.Info().ID, sess.Stats().Mean(), sess.Stats().StdDev(), stats.Timeouts, stats.DroppedCRC)
	return err
}
