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
	serlink "github.com/SerialLinkProject/go-serlink"
	"github.com/SerialLinkProject/go-serlink/internal/frame"
)

// rxState tracks what the next bytes in the buffer are expected to be.
type rxState uint8

const (
	// expectingHeader: the buffer may start with garbage; a valid header
	// must be located before anything can be delimited.
	expectingHeader rxState = iota
	// expectingPayload: bytes [0, HeaderSize) are a checksum-validated
	// header and the buffer is waiting for the rest of the frame.
	expectingPayload
)

// receiver is the frame-delimiting state machine. It persists across
// reactor wake-ups; a frame split over many reads picks up exactly where
// the previous wakeup left off.
type receiver struct {
	buf   *rxBuffer
	emit  func([]byte) error
	state rxState
}

func newReceiver(capacity int, emit func([]byte) error) *receiver {
	return &receiver{
		buf:  newRxBuffer(capacity),
		emit: emit,
	}
}

// resync aligns the start of the buffer with the start of a checksum-valid
// header, discarding leading garbage. It reports whether alignment was
// achieved.
//
// When no candidate validates anywhere, no header can exist in the scanned
// bytes except possibly one straddling the tail, so only the last
// HeaderSize-1 bytes are retained. That bound is what guarantees forward
// progress: garbage can never accumulate.
func (r *receiver) resync() bool {
	if r.buf.len() < frame.HeaderSize {
		// Not enough data for a header; wait for more bytes.
		return false
	}

	// A header is a sliding window of HeaderSize bytes over the valid
	// prefix; test every possible window position in order.
	window := r.buf.bytes()
	candidates := r.buf.len() - frame.HeaderSize + 1
	for i := 0; i < candidates; i++ {
		if !frame.ValidateHeader(window[i:]) {
			continue
		}
		if i > 0 {
			serlink.Debugf("uart: resync discarded %d bytes", i)
			r.buf.discardLeading(i)
		}
		return true
	}

	r.buf.keepTail(frame.HeaderSize - 1)
	return false
}

// extract emits one complete frame from the front of the buffer, which must
// hold a validated header at offset zero. It reports whether a frame was
// emitted; false means the frame is still incomplete and the buffer is left
// untouched.
func (r *receiver) extract() (bool, error) {
	if r.buf.len() < frame.HeaderSize {
		return false, nil
	}

	frameSize := frame.TotalSize(r.buf.bytes())
	if frameSize > r.buf.len() {
		return false, nil
	}

	if err := r.emit(r.buf.bytes()[:frameSize]); err != nil {
		return false, err
	}
	r.buf.discardLeading(frameSize)
	return true, nil
}

// process drains the buffer: after every successful transition it runs
// again on the same contents, so a single read burst holding several frames
// produces them all in one pass, and control returns to the reactor only
// when resynchronization fails or a frame is incomplete.
func (r *receiver) process() error {
	for {
		switch r.state {
		case expectingHeader:
			if !r.resync() {
				return nil
			}
			r.state = expectingPayload
		case expectingPayload:
			emitted, err := r.extract()
			if err != nil {
				return err
			}
			if !emitted {
				return nil
			}
			r.state = expectingHeader
		default:
			return serlink.ErrInvalidState
		}
	}
}
