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

package serlink

import (
	"errors"
	"fmt"
)

// Error taxonomy. Everything below is fatal to the driver session: an OS
// call that failed, or an invariant the wire protocol guarantees can never
// be broken. A malformed or unsynchronized byte stream is deliberately NOT
// an error anywhere in this module; the receive path absorbs it by
// discarding bytes until it re-synchronizes on a valid header.
var (
	// Protocol-invariant violations.
	ErrSpuriousWakeup = errors.New("read-ready wakeup but no bytes available")
	ErrZeroEvents     = errors.New("reactor wait returned zero events")
	ErrInvalidState   = errors.New("impossible receiver state")

	// Desynchronization hazards. A partial frame on either side of the
	// bridge would irrecoverably break the receiving side's framing.
	ErrShortWrite = errors.New("short write")
	ErrShortRead  = errors.New("short read")

	// Configuration and usage errors, surfaced before the worker starts.
	ErrInvalidBitrate = errors.New("bitrate not in supported set")
	ErrInvalidHeader  = errors.New("header is not the raw header size")
	ErrDriverClosed   = errors.New("driver is closed")
	ErrAlreadyStarted = errors.New("driver already started")
)

// DriverError wraps a driver failure with the operation and device that
// produced it.
type DriverError struct {
	Err    error  // Underlying error
	Op     string // Operation that failed
	Device string // Device or channel identifier
}

func (e *DriverError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Device, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// NewDriverError builds a DriverError for op on device.
func NewDriverError(op, device string, err error) *DriverError {
	return &DriverError{Op: op, Device: device, Err: err}
}

// IsProtocolViolation reports whether err is one of the invariant
// violations that indicate a bug rather than an OS failure.
func IsProtocolViolation(err error) bool {
	return errors.Is(err, ErrSpuriousWakeup) ||
		errors.Is(err, ErrZeroEvents) ||
		errors.Is(err, ErrInvalidState)
}
