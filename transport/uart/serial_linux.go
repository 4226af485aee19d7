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
	"sort"

	serlink "github.com/SerialLinkProject/go-serlink"
	"golang.org/x/sys/unix"
)

// serialPort is the device surface the session needs: queue introspection
// for ingest and pacing, plus plain blocking reads and writes. Tests
// substitute an in-memory implementation.
type serialPort interface {
	fd() int
	inputPending() (int, error)
	outputPending() (int, error)
	read(p []byte) (int, error)
	write(p []byte) (int, error)
	close() error
}

// bitrateConstants maps the supported bitrate set to termios speed
// constants. Anything outside this set is rejected before the device is
// touched.
var bitrateConstants = map[int]uint32{
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
	460800: unix.B460800,
	921600: unix.B921600,
}

// SupportedBitrates returns the accepted bitrates in ascending order.
func SupportedBitrates() []int {
	rates := make([]int, 0, len(bitrateConstants))
	for rate := range bitrateConstants {
		rates = append(rates, rate)
	}
	sort.Ints(rates)
	return rates
}

// ttyPort is the real serial device, held as a raw descriptor so the
// reactor can register it and the queue ioctls can reach it directly.
type ttyPort struct {
	device string
	sysFd  int
}

// openSerial opens the device and puts it in raw mode: no canonical
// processing, no echo, no software flow control, blocking single-byte reads
// with no character timeout. Both IO queues are flushed so the session
// starts from a clean line.
func openSerial(device string, bitrate int, hardflow bool) (*ttyPort, error) {
	speed, ok := bitrateConstants[bitrate]
	if !ok {
		return nil, serlink.NewDriverError("open", device,
			fmt.Errorf("%w: %d", serlink.ErrInvalidBitrate, bitrate))
	}

	fd, err := unix.Open(device, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, serlink.NewDriverError("open", device, err)
	}

	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		_ = unix.Close(fd)
		return nil, serlink.NewDriverError("tcgetattr", device, err)
	}

	// Raw mode, per cfmakeraw.
	tio.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL
	tio.Oflag &^= unix.OPOST
	tio.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	tio.Cflag &^= unix.CSIZE | unix.PARENB
	tio.Cflag |= unix.CS8

	// Byte availability is always queried before reading, so reads never
	// need a character timeout.
	tio.Cc[unix.VMIN] = 1
	tio.Cc[unix.VTIME] = 0

	// No software flow control, no hangup on close, ignore modem lines.
	tio.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY
	tio.Cflag &^= unix.HUPCL
	tio.Cflag |= unix.CLOCAL

	if hardflow {
		tio.Cflag |= unix.CRTSCTS
	} else {
		tio.Cflag &^= unix.CRTSCTS
	}

	tio.Ispeed = speed
	tio.Ospeed = speed

	if err := unix.IoctlSetTermios(fd, unix.TCSETSF, tio); err != nil {
		_ = unix.Close(fd)
		return nil, serlink.NewDriverError("tcsetattr", device, err)
	}
	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		_ = unix.Close(fd)
		return nil, serlink.NewDriverError("tcflush", device, err)
	}

	return &ttyPort{device: device, sysFd: fd}, nil
}

func (p *ttyPort) fd() int {
	return p.sysFd
}

// inputPending returns the byte count currently queued in the kernel's
// serial input buffer.
func (p *ttyPort) inputPending() (int, error) {
	return unix.IoctlGetInt(p.sysFd, unix.TIOCINQ)
}

// outputPending returns the byte count not yet clocked out on the wire.
func (p *ttyPort) outputPending() (int, error) {
	return unix.IoctlGetInt(p.sysFd, unix.TIOCOUTQ)
}

func (p *ttyPort) read(b []byte) (int, error) {
	return unix.Read(p.sysFd, b)
}

func (p *ttyPort) write(b []byte) (int, error) {
	return unix.Write(p.sysFd, b)
}

func (p *ttyPort) close() error {
	return unix.Close(p.sysFd)
}
