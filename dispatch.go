// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package decor

import (
	"errors"
	"fmt"

	"github.com/mstarongithub/way2decor/wayland"
	"golang.org/x/sys/unix"
)

// DispatchDisplay runs queued events, flushes, waits up to timeout
// milliseconds for the display to become readable and dispatches what arrived.
// A timeout of 0 only polls, a negative one waits forever.
// Returns the number of dispatched events
func DispatchDisplay(display wayland.Display, timeout int) (int, error) {
	count, err := display.DispatchPending()
	if err != nil {
		return count, fmt.Errorf("failed to dispatch pending events: %w", err)
	}

	if err = display.Flush(); err != nil && !errors.Is(err, unix.EAGAIN) {
		return count, fmt.Errorf("failed to flush display: %w", err)
	}

	fds := []unix.PollFd{{Fd: int32(display.Fd()), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, timeout)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return count, nil
		}
		return count, fmt.Errorf("failed to poll display: %w", err)
	}
	if n == 0 || fds[0].Revents&unix.POLLIN == 0 {
		return count, nil
	}

	if err = display.ReadEvents(); err != nil {
		return count, fmt.Errorf("failed to read events: %w", err)
	}
	more, err := display.DispatchPending()
	count += more
	if err != nil {
		return count, fmt.Errorf("failed to dispatch events: %w", err)
	}
	return count, nil
}
