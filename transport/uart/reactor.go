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
	"errors"

	serlink "github.com/SerialLinkProject/go-serlink"
	"golang.org/x/sys/unix"
)

// readySource tags which of the two registered descriptors woke the
// reactor. Dispatch happens by matching this tag, never through stored
// callbacks.
type readySource int

const (
	sourceNone readySource = iota
	sourceSerial
	sourcePeer
)

// initReactor creates the epoll set and registers the serial device and the
// peer channel, both level-triggered for read readiness.
func (d *Driver) initReactor() error {
	epollFd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return serlink.NewDriverError("epoll_create", d.cfg.Device, err)
	}

	for _, fd := range []int{d.port.fd(), d.peerFd} {
		event := unix.EpollEvent{
			Events: unix.EPOLLIN,
			Fd:     int32(fd),
		}
		if err := unix.EpollCtl(epollFd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			_ = unix.Close(epollFd)
			return serlink.NewDriverError("epoll_ctl", d.cfg.Device, err)
		}
	}

	d.epollFd = epollFd
	return nil
}

// classify maps a ready descriptor back to its source tag.
func (d *Driver) classify(fd int32) readySource {
	switch int(fd) {
	case d.port.fd():
		return sourceSerial
	case d.peerFd:
		return sourcePeer
	default:
		return sourceNone
	}
}

// run is the reactor loop and the only code that touches the session after
// Start. It blocks indefinitely on readiness of the two descriptors and
// dispatches synchronously, one event at a time. An interrupted wait is
// silently retried; every other wait failure, and a wait that reports zero
// events, is fatal.
func (d *Driver) run() {
	serlink.Debugf("uart: worker started")

	events := make([]unix.EpollEvent, 1)
	for {
		n, err := unix.EpollWait(d.epollFd, events, -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if d.closed.Load() {
				return
			}
			d.fatal(serlink.NewDriverError("epoll_wait", d.cfg.Device, err))
			return
		}
		if n == 0 {
			d.fatal(serlink.NewDriverError("epoll_wait", d.cfg.Device, serlink.ErrZeroEvents))
			return
		}

		for i := 0; i < n; i++ {
			var err error
			switch d.classify(events[i].Fd) {
			case sourceSerial:
				err = d.processSerial()
			case sourcePeer:
				err = d.processPeer()
			default:
				err = serlink.NewDriverError("dispatch", d.cfg.Device, serlink.ErrInvalidState)
			}
			if err != nil {
				if d.closed.Load() {
					return
				}
				d.fatal(err)
				return
			}
		}
	}
}
