// Copyright 2026 The Serlink Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux

// serlinkd bridges a serial co-processor link onto a local frame channel.
// It opens the configured device, starts the link driver, and prints every
// frame the driver delimits until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	serlink "github.com/SerialLinkProject/go-serlink"
	"github.com/SerialLinkProject/go-serlink/detection"
	"github.com/SerialLinkProject/go-serlink/internal/frame"
	"github.com/SerialLinkProject/go-serlink/transport/emul"
	"github.com/SerialLinkProject/go-serlink/transport/uart"
	"golang.org/x/sys/unix"
)

type config struct {
	device     string
	bitrate    int
	guardBytes int
	hardFlow   bool
	list       bool
	emulate    bool
	debug      bool
}

var (
	flagDevice   string
	flagBitrate  int
	flagGuard    int
	flagHardFlow bool
	flagList     bool
	flagEmulate  bool
	flagDebug    bool
)

func init() {
	flag.StringVar(&flagDevice, "device", "", "Serial device path (auto-detect if empty)")
	flag.IntVar(&flagBitrate, "bitrate", 115200, "Serial bitrate")
	flag.IntVar(&flagGuard, "guard", uart.DefaultGuardBytes, "Guard interval after transmit, in byte widths")
	flag.BoolVar(&flagHardFlow, "hardflow", false, "Enable RTS/CTS hardware flow control")
	flag.BoolVar(&flagList, "list", false, "List candidate serial devices and exit")
	flag.BoolVar(&flagEmulate, "emul", false, "Run against the emulation backend instead of hardware")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
}

func parseConfig() *config {
	cfg := &config{
		device:     flagDevice,
		bitrate:    flagBitrate,
		guardBytes: flagGuard,
		hardFlow:   flagHardFlow,
		list:       flagList,
		emulate:    flagEmulate,
		debug:      flagDebug,
	}
	if cfg.debug {
		serlink.SetDebugEnabled(true)
	}
	return cfg
}

func listDevices() error {
	ports, err := detection.Ports()
	if err != nil {
		return err
	}
	candidates := detection.Candidates(ports)
	if len(candidates) == 0 {
		_, _ = fmt.Println("No candidate devices found. All ports:")
		candidates = ports
	}
	for _, port := range candidates {
		_, _ = fmt.Println(port)
	}
	return nil
}

// pickDevice resolves the device to open: the explicit flag if given,
// otherwise the first detection candidate.
func pickDevice(cfg *config) (string, error) {
	if cfg.device != "" {
		return cfg.device, nil
	}
	ports, err := detection.Ports()
	if err != nil {
		return "", fmt.Errorf("auto-detection failed: %w", err)
	}
	candidates := detection.Candidates(ports)
	if len(candidates) == 0 {
		return "", errors.New("no candidate serial devices, pass -device explicitly")
	}
	if cfg.debug {
		_, _ = fmt.Printf("Auto-detected device: %s\n", candidates[0])
	}
	return candidates[0], nil
}

func openDriver(cfg *config) (serlink.Driver, error) {
	if cfg.emulate {
		d, err := emul.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open emulation driver: %w", err)
		}
		return d, nil
	}

	device, err := pickDevice(cfg)
	if err != nil {
		return nil, err
	}
	d, err := uart.Open(uart.Config{
		Device:     device,
		Bitrate:    cfg.bitrate,
		HardFlow:   cfg.hardFlow,
		GuardBytes: cfg.guardBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", device, err)
	}
	return d, nil
}

// emulLoopback reflects every frame the stack sends back into it, so the
// emulation mode has end-to-end traffic without hardware.
func emulLoopback(d *emul.Driver) {
	for frm := range d.Outbound() {
		if len(frm) < frame.HeaderSize {
			continue
		}
		if err := d.InjectFrame(frm[:frame.HeaderSize], frm[frame.HeaderSize:]); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Loopback inject failed: %v\n", err)
			return
		}
	}
}

// peerLoop reads delimited frames off the peer channel and prints them
// until the context is cancelled.
func peerLoop(ctx context.Context, peerFd int) error {
	buf := make([]byte, 8192)
	for {
		pfds := []unix.PollFd{{Fd: int32(peerFd), Events: unix.POLLIN}}
		n, err := unix.Poll(pfds, 500)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("peer poll failed: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if n == 0 {
			continue
		}

		rn, err := unix.Read(peerFd, buf)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("peer read failed: %w", err)
		}
		_, _ = fmt.Printf("frame: % X\n", buf[:rn])
	}
}

func run(ctx context.Context, cfg *config) error {
	if cfg.list {
		return listDevices()
	}

	driver, err := openDriver(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := driver.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close driver: %v\n", err)
		}
	}()

	if err := driver.Start(); err != nil {
		return fmt.Errorf("failed to start driver: %w", err)
	}

	if cfg.emulate {
		if ed, ok := driver.(*emul.Driver); ok {
			go emulLoopback(ed)
			// Seed one frame so the session shows traffic immediately.
			hello := []byte("hello")
			header := frame.EncodeHeader(0, 0, uint16(len(hello)))
			if err := ed.InjectFrame(header, hello); err != nil {
				return fmt.Errorf("failed to inject seed frame: %w", err)
			}
		}
	}

	_, _ = fmt.Println("Link up. Press Ctrl+C to stop...")
	return peerLoop(ctx, driver.PeerFd())
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg := parseConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		_, _ = fmt.Print("\nShutting down gracefully...\n")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
