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

// Package serlink defines the contract between a link driver and the
// co-processor communication stack that consumes it.
//
// A driver turns the raw byte stream of a physical link into discrete,
// validated frames and hands them to the stack over a datagram socketpair
// (the peer channel), one datagram per frame. Datagrams written by the stack
// travel the other way and are placed on the wire verbatim. Concrete drivers
// live in transport/: transport/uart bridges a real serial device,
// transport/emul substitutes for it in tests and hardware-less setups.
package serlink

// Driver is the minimal contract every link driver satisfies.
//
// A driver is created once, started once, and normally lives for the process
// lifetime. Start spawns the worker goroutine that owns all driver state;
// after Start, the only supported interaction with the driver is through the
// peer channel descriptor.
type Driver interface {
	// Start spawns the driver worker. It must be called exactly once.
	Start() error

	// PeerFd returns the stack-side descriptor of the peer channel. Each
	// datagram read from it is exactly one delimited frame, and each
	// datagram written to it is transmitted as exactly one frame.
	PeerFd() int

	// Close tears the session down. It is intended for process shutdown;
	// a driver is not reusable after Close.
	Close() error
}

// FrameInjector is implemented by backends that can deliver externally
// supplied frames to the stack as if they had been received from the link.
type FrameInjector interface {
	InjectFrame(header, payload []byte) error
}

// EndpointState is the logical state of a stack endpoint as mirrored by an
// emulation backend.
type EndpointState uint8

const (
	// EndpointClosed means the endpoint is not in use.
	EndpointClosed EndpointState = iota
	// EndpointOpening means the endpoint is waiting for the remote side.
	EndpointOpening
	// EndpointOpen means the endpoint is connected and exchanging frames.
	EndpointOpen
	// EndpointError means the endpoint was shut down after a fault.
	EndpointError
)

func (s EndpointState) String() string {
	switch s {
	case EndpointClosed:
		return "closed"
	case EndpointOpening:
		return "opening"
	case EndpointOpen:
		return "open"
	case EndpointError:
		return "error"
	default:
		return "unknown"
	}
}

// EndpointStateSetter is implemented by backends that expose per-endpoint
// logical state to the stack.
type EndpointStateSetter interface {
	SetEndpointState(id uint8, state EndpointState)
}
