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

// Package detection enumerates serial devices that may host the
// co-processor link. Detection is passive: ports are listed and ranked by
// name, never probed, since opening a port that belongs to another process
// can disturb it.
package detection

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// ErrNoPortsFound is returned when the OS reports no serial ports at all.
var ErrNoPortsFound = errors.New("no serial ports found")

// Ports returns every serial port known to the OS.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	if len(ports) == 0 {
		return nil, ErrNoPortsFound
	}
	return ports, nil
}

// Co-processor boards almost always show up through a USB CDC-ACM or
// USB-serial bridge; legacy onboard UARTs rank below those.
var candidateFragments = []string{
	"ttyACM",
	"ttyUSB",
	"ttyAMA",
	"cu.usbmodem",
	"cu.usbserial",
	"COM",
}

// IsCandidate reports whether a port name looks like a device a
// co-processor could sit behind.
func IsCandidate(port string) bool {
	for _, fragment := range candidateFragments {
		if strings.Contains(port, fragment) {
			return true
		}
	}
	return false
}

// Candidates filters ports down to the likely co-processor devices,
// preserving enumeration order.
func Candidates(ports []string) []string {
	var out []string
	for _, port := range ports {
		if IsCandidate(port) {
			out = append(out, port)
		}
	}
	return out
}
