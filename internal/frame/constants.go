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

// Package frame implements the fixed header/checksum codec of the
// co-processor link protocol. All functions here are pure and operate on a
// byte window; the framing state machine in transport/uart decides where
// that window sits in the ingest buffer.
package frame

// Raw header layout. The header is a fixed-size window; every field lives at
// a fixed offset within it.
//
//	offset 0  flag      (1 byte, sentinel FlagValue)
//	offset 1  address   (1 byte)
//	offset 2  length    (2 bytes, little-endian payload length)
//	offset 4  control   (1 byte)
//	offset 5  hcs       (2 bytes, little-endian header checksum)
const (
	// HeaderSize is the raw on-wire header size, checksum included.
	HeaderSize = 7

	// FlagValue is the sentinel expected in the flag byte. It is the first
	// filter applied when scanning for a header in a noisy stream.
	FlagValue = 0x14

	FlagOffset    = 0
	AddressOffset = 1
	LengthOffset  = 2
	ControlOffset = 4
	HcsOffset     = 5
)

// MaxPayloadLength bounds the payload accepted by the encode helpers. The
// length field itself is 16 bits, but the receive buffer on both ends of the
// link holds one maximum-size frame, so larger frames could never be
// delimited.
const MaxPayloadLength = 4096
