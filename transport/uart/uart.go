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

// Package uart bridges a raw serial byte stream and the frame-oriented peer
// channel consumed by the co-processor communication stack.
//
// A single worker goroutine owns the whole session: it blocks on readiness
// of the serial device and the peer channel, delimits validated frames out
// of the inbound byte stream, and paces outbound frames against the real
// transmission rate of the link. Nothing here is shared with other
// goroutines after Open returns, so the session runs lock-free.
package uart

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	serlink "github.com/SerialLinkProject/go-serlink"
	"github.com/SerialLinkProject/go-serlink/internal/frame"
	"github.com/SerialLinkProject/go-serlink/internal/peersock"
	"golang.org/x/sys/unix"
)

const (
	// DefaultGuardBytes is the line-idle guard enforced after the transmit
	// queue drains, expressed in byte-widths at the configured bitrate. The
	// exact width is not load-bearing; it only has to produce an idle gap
	// the remote receiver can recognize between frames.
	DefaultGuardBytes = 20

	// bufferSize holds one maximum-size frame plus a full extra header, so
	// a frame boundary can never be starved by a header fragment.
	bufferSize = 4096 + frame.HeaderSize
)

// Config describes a serial bridge session.
type Config struct {
	// Device is the serial device path, e.g. /dev/ttyACM0.
	Device string
	// Bitrate must be one of SupportedBitrates.
	Bitrate int
	// HardFlow enables RTS/CTS hardware flow control.
	HardFlow bool
	// GuardBytes overrides DefaultGuardBytes when nonzero.
	GuardBytes int
}

// Driver is one bridge session. It owns the serial descriptor, the driver
// end of the peer channel, the reactor descriptor, the ingest buffer and the
// receive state. Create it with Open; it is not reusable after Close.
type Driver struct {
	cfg     Config
	port    serialPort
	rx      *receiver
	txBuf   []byte
	peerFd  int
	coreFd  int
	epollFd int

	// sleep and onFatal are fixed at Open time; tests substitute them.
	sleep   func(time.Duration)
	onFatal func(error)

	started atomic.Bool
	closed  atomic.Bool
}

// Open configures the serial device, creates the peer channel and registers
// both with the reactor. The worker does not run until Start.
func Open(cfg Config) (*Driver, error) {
	if cfg.GuardBytes == 0 {
		cfg.GuardBytes = DefaultGuardBytes
	}
	port, err := openSerial(cfg.Device, cfg.Bitrate, cfg.HardFlow)
	if err != nil {
		return nil, err
	}

	d := &Driver{
		cfg:   cfg,
		port:  port,
		txBuf: make([]byte, bufferSize),
		sleep: time.Sleep,
	}
	d.onFatal = defaultFatal
	d.rx = newReceiver(bufferSize, d.emitFrame)

	d.peerFd, d.coreFd, err = peersock.Pair()
	if err != nil {
		_ = port.close()
		return nil, serlink.NewDriverError("peer channel", cfg.Device, err)
	}

	if err := d.initReactor(); err != nil {
		_ = unix.Close(d.peerFd)
		_ = unix.Close(d.coreFd)
		_ = port.close()
		return nil, err
	}

	serlink.Debugf("uart: opened %s at %d bps (guard %d bytes)",
		cfg.Device, cfg.Bitrate, cfg.GuardBytes)
	return d, nil
}

// Start spawns the worker goroutine.
func (d *Driver) Start() error {
	if d.closed.Load() {
		return serlink.NewDriverError("start", d.cfg.Device, serlink.ErrDriverClosed)
	}
	if !d.started.CompareAndSwap(false, true) {
		return serlink.NewDriverError("start", d.cfg.Device, serlink.ErrAlreadyStarted)
	}
	go d.run()
	return nil
}

// PeerFd returns the stack-side end of the peer channel.
func (d *Driver) PeerFd() int {
	return d.coreFd
}

// Close tears the session down. The worker goroutine exits on its next
// wakeup once the descriptors are gone.
func (d *Driver) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = unix.Close(d.epollFd)
	_ = unix.Close(d.peerFd)
	_ = unix.Close(d.coreFd)
	return d.port.close()
}

// ingest appends currently available serial bytes at the buffer head.
// Bytes that do not fit stay in the OS-level serial queue until the next
// wakeup; that queue is the only backpressure mechanism on the inbound path.
func (d *Driver) ingest() error {
	available, err := d.port.inputPending()
	if err != nil {
		return serlink.NewDriverError("input pending", d.cfg.Device, err)
	}
	if available == 0 {
		// The reactor only dispatches here on read readiness; waking up
		// with nothing to read means the protocol with the OS is broken.
		return serlink.NewDriverError("ingest", d.cfg.Device, serlink.ErrSpuriousWakeup)
	}

	want := available
	if space := d.rx.buf.free(); want > space {
		want = space
	}
	if want == 0 {
		return nil
	}

	n, err := d.port.read(d.rx.buf.writable()[:want])
	if err != nil {
		return serlink.NewDriverError("serial read", d.cfg.Device, err)
	}
	if n != want {
		return serlink.NewDriverError("serial read", d.cfg.Device,
			fmt.Errorf("%w: %d of %d bytes", serlink.ErrShortRead, n, want))
	}
	d.rx.buf.advance(n)
	serlink.Debugf("uart: ingested %d bytes (%d pending in buffer)", n, d.rx.buf.len())
	return nil
}

// processSerial handles a serial read-readiness event: ingest once, then
// drain every complete frame the buffer now holds.
func (d *Driver) processSerial() error {
	if err := d.ingest(); err != nil {
		return err
	}
	return d.rx.process()
}

// emitFrame sends one delimited frame to the peer channel as a single
// datagram. A short write would desynchronize the stack's framing, so it is
// fatal rather than retried.
func (d *Driver) emitFrame(frm []byte) error {
	n, err := unix.Write(d.peerFd, frm)
	if err != nil {
		return serlink.NewDriverError("peer write", d.cfg.Device, err)
	}
	if n != len(frm) {
		return serlink.NewDriverError("peer write", d.cfg.Device,
			fmt.Errorf("%w: %d of %d bytes", serlink.ErrShortWrite, n, len(frm)))
	}
	serlink.Tracef("uart: frame to core", frm)
	return nil
}

// fatal funnels every unrecoverable condition through one hook. The default
// logs and aborts the process; restart policy belongs to a supervisor.
func (d *Driver) fatal(err error) {
	d.onFatal(err)
}

func defaultFatal(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "serlink: fatal: %v\n", err)
	os.Exit(1)
}

// Contract assertions.
var _ serlink.Driver = (*Driver)(nil)
