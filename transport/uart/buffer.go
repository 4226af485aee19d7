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

// rxBuffer is a fixed-capacity byte store with a valid-length cursor. The
// backing array is allocated once and never reallocated; the only mutations
// are appending at the head and shifting a suffix back to offset zero. Both
// are what the resynchronizer's discard semantics are built on.
type rxBuffer struct {
	data []byte
	head int
}

func newRxBuffer(capacity int) *rxBuffer {
	return &rxBuffer{data: make([]byte, capacity)}
}

// len returns the count of valid bytes.
func (b *rxBuffer) len() int {
	return b.head
}

// free returns the remaining append capacity.
func (b *rxBuffer) free() int {
	return len(b.data) - b.head
}

// bytes returns the valid prefix.
func (b *rxBuffer) bytes() []byte {
	return b.data[:b.head]
}

// writable returns the unused tail for ingest to fill.
func (b *rxBuffer) writable() []byte {
	return b.data[b.head:]
}

// advance commits n appended bytes.
func (b *rxBuffer) advance(n int) {
	b.head += n
}

// discardLeading drops the first n valid bytes, shifting the remainder to
// offset zero.
func (b *rxBuffer) discardLeading(n int) {
	copy(b.data, b.data[n:b.head])
	b.head -= n
}

// keepTail retains only the last n valid bytes, shifted to offset zero.
func (b *rxBuffer) keepTail(n int) {
	copy(b.data, b.data[b.head-n:b.head])
	b.head = n
}
