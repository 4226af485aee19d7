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

// Package emul is a substitute link driver with no hardware behind it.
// Frames injected through InjectFrame reach the stack exactly as if they
// had been delimited out of a serial byte stream, and frames the stack
// sends are captured instead of transmitted. The stack cannot tell the
// difference; everything it sees is the same peer channel contract the
// real UART driver provides.
package emul

import (
	"errors"
	"fmt"
	"sync/atomic"

	serlink "github.com/SerialLinkProject/go-serlink"
	"github.com/SerialLinkProject/go-serlink/internal/frame"
	"github.com/SerialLinkProject/go-serlink/internal/peersock"
	"github.com/SerialLinkProject/go-serlink/internal/syncutil"
	"golang.org/x/sys/unix"
)

// outboundBacklog bounds how many captured frames can wait for an observer
// before the oldest ones are dropped.
const outboundBacklog = 64

// Driver is the emulation backend. Unlike the UART session, it is touched
// from multiple goroutines (the worker plus any frame injectors), so its
// endpoint map is guarded by a syncutil mutex.
type Driver struct {
	linkFd int
	coreFd int

	mu        syncutil.Mutex
	endpoints map[uint8]serlink.EndpointState

	outbound chan []byte

	started atomic.Bool
	closed  atomic.Bool
}

// Open creates the peer channel. The worker does not run until Start.
func Open() (*Driver, error) {
	linkFd, coreFd, err := peersock.Pair()
	if err != nil {
		return nil, serlink.NewDriverError("open", "emul", err)
	}
	return &Driver{
		linkFd:    linkFd,
		coreFd:    coreFd,
		endpoints: make(map[uint8]serlink.EndpointState),
		outbound:  make(chan []byte, outboundBacklog),
	}, nil
}

// Start spawns the worker that captures stack-to-link traffic.
func (d *Driver) Start() error {
	if d.closed.Load() {
		return serlink.NewDriverError("start", "emul", serlink.ErrDriverClosed)
	}
	if !d.started.CompareAndSwap(false, true) {
		return serlink.NewDriverError("start", "emul", serlink.ErrAlreadyStarted)
	}
	go d.drainOutbound()
	return nil
}

// PeerFd returns the stack-side end of the peer channel.
func (d *Driver) PeerFd() int {
	return d.coreFd
}

// Close tears the session down.
func (d *Driver) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = unix.Close(d.linkFd)
	return unix.Close(d.coreFd)
}

// InjectFrame delivers header+payload to the stack as one datagram, as if
// the frame had just been delimited off the wire. The header must be a raw
// header; its announced length must match the payload, since a mismatched
// pair could never have survived delimiting.
func (d *Driver) InjectFrame(header, payload []byte) error {
	if len(header) != frame.HeaderSize {
		return serlink.NewDriverError("inject", "emul", serlink.ErrInvalidHeader)
	}
	if got := frame.PayloadLength(header); got != len(payload) {
		return serlink.NewDriverError("inject", "emul",
			fmt.Errorf("header announces %d payload bytes, got %d", got, len(payload)))
	}

	frm := make([]byte, 0, len(header)+len(payload))
	frm = append(frm, header...)
	frm = append(frm, payload...)

	n, err := unix.Write(d.linkFd, frm)
	if err != nil {
		return serlink.NewDriverError("inject", "emul", err)
	}
	if n != len(frm) {
		return serlink.NewDriverError("inject", "emul", serlink.ErrShortWrite)
	}
	serlink.Tracef("emul: injected frame", frm)
	return nil
}

// SetEndpointState records the logical state of a stack endpoint.
func (d *Driver) SetEndpointState(id uint8, state serlink.EndpointState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.endpoints[id] = state
	serlink.Debugf("emul: endpoint %d -> %s", id, state)
}

// EndpointState returns the last recorded state for an endpoint.
func (d *Driver) EndpointState(id uint8) serlink.EndpointState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.endpoints[id]
}

// Outbound exposes the frames the stack has sent toward the link, one
// complete frame per element, in send order.
func (d *Driver) Outbound() <-chan []byte {
	return d.outbound
}

// drainOutbound keeps reading stack-to-link datagrams so the peer channel
// never fills, recording each one for observers.
func (d *Driver) drainOutbound() {
	buf := make([]byte, 4096+frame.HeaderSize)
	for {
		n, err := unix.Read(d.linkFd, buf)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			// Read failures after Close are the normal exit path.
			return
		}
		frm := make([]byte, n)
		copy(frm, buf[:n])
		select {
		case d.outbound <- frm:
		default:
			serlink.Debugf("emul: outbound backlog full, frame dropped")
		}
	}
}

// Contract assertions: the emulation backend substitutes for the real
// driver without any change to the consuming stack.
var (
	_ serlink.Driver              = (*Driver)(nil)
	_ serlink.FrameInjector       = (*Driver)(nil)
	_ serlink.EndpointStateSetter = (*Driver)(nil)
)
