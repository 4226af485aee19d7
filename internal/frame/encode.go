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

package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrPayloadTooLarge is returned by Build for payloads that could never be
// delimited by the receiving side.
var ErrPayloadTooLarge = errors.New("payload exceeds maximum frame payload")

// EncodeHeader returns a raw header for the given address, control byte and
// payload length, with the checksum field filled in.
func EncodeHeader(address, control byte, payloadLen uint16) []byte {
	hdr := make([]byte, HeaderSize)
	hdr[FlagOffset] = FlagValue
	hdr[AddressOffset] = address
	binary.LittleEndian.PutUint16(hdr[LengthOffset:LengthOffset+2], payloadLen)
	hdr[ControlOffset] = control
	binary.LittleEndian.PutUint16(hdr[HcsOffset:HcsOffset+2], HeaderChecksum(hdr))
	return hdr
}

// Build returns a complete frame (header + payload) for the given endpoint
// address and control byte. The emulation backend and tests use it to
// construct traffic that is indistinguishable from wire input.
func Build(address, control byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	frm := make([]byte, 0, HeaderSize+len(payload))
	frm = append(frm, EncodeHeader(address, control, uint16(len(payload)))...)
	frm = append(frm, payload...)
	return frm, nil
}
