// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package eventloop combines several readable descriptors behind one epoll
// descriptor, so a decoration context and its helpers can be waited on with
// a single poll.
package eventloop

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Called when fd became readable. Returns the number of events it handled
type Handler func(fd int) (int, error)

var (
	ErrClosed     = errors.New("event loop closed")
	ErrRegistered = errors.New("descriptor already registered")
	ErrUnknownFd  = errors.New("descriptor not registered")
)

type Loop struct {
	epfd     int
	handlers map[int]Handler
	events   []unix.EpollEvent
	log      *logrus.Entry
}

func New() (*Loop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("failed to create epoll instance: %w", err)
	}
	return &Loop{
		epfd:     epfd,
		handlers: make(map[int]Handler),
		events:   make([]unix.EpollEvent, 16),
		log:      logrus.WithField("component", "eventloop"),
	}, nil
}

// Add watches fd for readability
func (l *Loop) Add(fd int, handler Handler) error {
	if l.epfd < 0 {
		return ErrClosed
	}
	if _, ok := l.handlers[fd]; ok {
		return fmt.Errorf("%w: %d", ErrRegistered, fd)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("failed to watch %d: %w", fd, err)
	}
	l.handlers[fd] = handler
	l.log.WithField("fd", fd).Debugln("Watching descriptor")
	return nil
}

func (l *Loop) Remove(fd int) error {
	if l.epfd < 0 {
		return ErrClosed
	}
	if _, ok := l.handlers[fd]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownFd, fd)
	}
	delete(l.handlers, fd)
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("failed to stop watching %d: %w", fd, err)
	}
	return nil
}

// Fd is readable whenever one of the watched descriptors is
func (l *Loop) Fd() int {
	return l.epfd
}

// Dispatch waits up to timeout milliseconds and runs the handlers of ready
// descriptors. 0 only polls, negative waits until something is ready
func (l *Loop) Dispatch(timeout int) (int, error) {
	if l.epfd < 0 {
		return 0, ErrClosed
	}
	n, err := unix.EpollWait(l.epfd, l.events, timeout)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to wait for events: %w", err)
	}

	count := 0
	for _, ev := range l.events[:n] {
		fd := int(ev.Fd)
		handler, ok := l.handlers[fd]
		if !ok {
			continue
		}
		handled, err := handler(fd)
		count += handled
		if err != nil {
			return count, fmt.Errorf("handler of %d failed: %w", fd, err)
		}
	}
	return count, nil
}

func (l *Loop) Close() error {
	if l.epfd < 0 {
		return ErrClosed
	}
	err := unix.Close(l.epfd)
	l.epfd = -1
	l.handlers = nil
	return err
}
