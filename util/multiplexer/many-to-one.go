// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package multiplexer

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("multiplexer has been closed")

// A many to one multiplexer
// Yes, channels technically already are that, but there are a bunch of problems with using raw channels as multiplexer:
// If any of the senders tries to send to a closed channel, it explodes
// Thus, wrap it inside a struct that handles that case of a closed channel
type ManyToOne[T any] struct {
	outbound chan T
	// Called after every message, e.g. to wake up a poll loop
	notify func()
	lock   sync.RWMutex
	closed bool
}

// NewManyToOne creates a new ManyToOne multiplexer
// The given channel will be where all messages will be sent to
func NewManyToOne[T any](receiver chan T) *ManyToOne[T] {
	return &ManyToOne[T]{outbound: receiver}
}

// NewManyToOneNotify is NewManyToOne calling notify once per sent message
func NewManyToOneNotify[T any](receiver chan T, notify func()) *ManyToOne[T] {
	return &ManyToOne[T]{outbound: receiver, notify: notify}
}

// Send a message to this many to one plexer
// If closed, the message won't get sent
func (m *ManyToOne[T]) Send(msg T) error {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.closed {
		return ErrClosed
	}
	m.outbound <- msg
	if m.notify != nil {
		m.notify()
	}
	return nil
}

// Drain hands every message already waiting to handle without blocking.
// Returns how many there were
func (m *ManyToOne[T]) Drain(handle func(T)) int {
	count := 0
	for {
		select {
		case msg, ok := <-m.outbound:
			if !ok {
				return count
			}
			handle(msg)
			count++
		default:
			return count
		}
	}
}

// Closes the channel and marks the plexer as closed
func (m *ManyToOne[T]) Close() {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.outbound)
}
