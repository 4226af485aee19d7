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

// Package peersock creates the peer channel shared by every link driver: a
// connected AF_UNIX datagram socketpair. Datagram semantics are what make
// the channel message-boundary-preserving — one send is one frame, and a
// reader can never observe a partial or coalesced frame.
package peersock

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Pair returns a connected socketpair. The driver end stays inside the
// driver session; the core end is handed to the consuming stack.
func Pair() (driverFd, coreFd int, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, -1, fmt.Errorf("socketpair failed: %w", err)
	}
	return fds[0], fds[1], nil
}
