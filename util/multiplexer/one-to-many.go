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

var ErrReceiverExists = errors.New("receiver with that name already exists")

// A one to many multiplexer copying every message to all named receivers.
// The sending side never waits for a receiver: each one gets a buffer of
// depth messages and whatever doesn't fit is dropped and counted
type OneToMany[T any] struct {
	inbound  chan T
	depth    int
	outbound map[string]chan T
	dropped  map[string]uint64
	lock     sync.Mutex
	stop     chan struct{}
	done     chan struct{}
	closed   bool
}

func NewOneToMany[T any](depth int) *OneToMany[T] {
	return &OneToMany[T]{
		inbound:  make(chan T),
		depth:    depth,
		outbound: make(map[string]chan T),
		dropped:  make(map[string]uint64),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Get the channel to send things into
func (o *OneToMany[T]) GetSender() chan<- T {
	return o.inbound
}

// MakeReceiver adds a named receiver. Don't close the returned channel,
// use CloseReceiver
func (o *OneToMany[T]) MakeReceiver(name string) (<-chan T, error) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.closed {
		return nil, ErrClosed
	}
	if _, ok := o.outbound[name]; ok {
		return nil, ErrReceiverExists
	}
	rec := make(chan T, o.depth)
	o.outbound[name] = rec
	o.dropped[name] = 0
	return rec, nil
}

// CloseReceiver closes and removes the receiver called name. Its drop
// counter survives until the name is used again
func (o *OneToMany[T]) CloseReceiver(name string) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if rec, ok := o.outbound[name]; ok {
		close(rec)
		delete(o.outbound, name)
	}
}

// Dropped returns how many messages didn't fit into name's buffer
func (o *OneToMany[T]) Dropped(name string) uint64 {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.dropped[name]
}

func (o *OneToMany[T]) deliver(msg T) {
	o.lock.Lock()
	defer o.lock.Unlock()
	for name, rec := range o.outbound {
		select {
		case rec <- msg:
		default:
			o.dropped[name]++
		}
	}
}

// StartPlexer distributes messages until CloseSender is called.
// Run it as its own goroutine (`go plexer.StartPlexer()`)
func (o *OneToMany[T]) StartPlexer() {
	defer close(o.done)
	for {
		select {
		case msg := <-o.inbound:
			o.deliver(msg)
		case <-o.stop:
			o.lock.Lock()
			for name, rec := range o.outbound {
				close(rec)
				delete(o.outbound, name)
			}
			o.closed = true
			o.lock.Unlock()
			return
		}
	}
}

// CloseSender closes every receiver and stops the plexer. Blocks until
// StartPlexer returned
func (o *OneToMany[T]) CloseSender() {
	o.stop <- struct{}{}
	<-o.done
}
