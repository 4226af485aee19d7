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

package uart

import (
	"fmt"
	"time"

	serlink "github.com/SerialLinkProject/go-serlink"
	"golang.org/x/sys/unix"
)

// drainDelay returns the time n bytes take to leave the wire at the given
// bitrate (one byte is eight bit-widths on the line).
func drainDelay(n, bitrate int) time.Duration {
	return time.Duration(n) * 8 * time.Second / time.Duration(bitrate)
}

// processPeer handles one peer-channel read-readiness event: one datagram
// is one complete frame, paced onto the wire. The whole sequence blocks the
// reactor goroutine, which is intentional: only one outbound frame may be
// in flight at a time, and receive backpressure during pacing is absorbed
// by the OS serial input queue.
func (d *Driver) processPeer() error {
	n, err := unix.Read(d.peerFd, d.txBuf)
	if err != nil {
		return serlink.NewDriverError("peer read", d.cfg.Device, err)
	}

	if err := d.paceOutput(); err != nil {
		return err
	}

	written, err := d.port.write(d.txBuf[:n])
	if err != nil {
		return serlink.NewDriverError("serial write", d.cfg.Device, err)
	}
	if written != n {
		return serlink.NewDriverError("serial write", d.cfg.Device,
			fmt.Errorf("%w: %d of %d bytes", serlink.ErrShortWrite, written, n))
	}

	serlink.Tracef("uart: frame to wire", d.txBuf[:n])
	return nil
}

// paceOutput waits for the hardware transmit queue to drain, then enforces
// the guard interval so the remote receiver sees a recognizable line-idle
// gap before the next frame starts.
//
// There is no event notification for queue drain on this class of
// transport; polling with computed sleeps is the design, not a workaround.
func (d *Driver) paceOutput() error {
	pending, err := d.port.outputPending()
	if err != nil {
		return serlink.NewDriverError("output pending", d.cfg.Device, err)
	}
	if pending < 0 {
		return serlink.NewDriverError("output pending", d.cfg.Device,
			fmt.Errorf("%w: negative queue count %d", serlink.ErrInvalidState, pending))
	}

	for pending != 0 {
		d.sleep(drainDelay(pending, d.cfg.Bitrate))
		pending, err = d.port.outputPending()
		if err != nil {
			return serlink.NewDriverError("output pending", d.cfg.Device, err)
		}
	}

	d.sleep(drainDelay(d.cfg.GuardBytes, d.cfg.Bitrate))
	return nil
}
