// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package wrappers gives process wide streams a Close that only detaches the
// caller, so a repl can shut down without closing stdin or stdout.
package wrappers

import (
	"errors"
	"io"
	"sync/atomic"
)

var ErrClosed = errors.New("closed")

type ReaderWrapper struct {
	closed  atomic.Bool
	wrapped io.Reader
}

func NewReaderWrapper(wraps io.Reader) *ReaderWrapper {
	return &ReaderWrapper{wrapped: wraps}
}

// Close implements repl.ReadCloser. Closing twice returns ErrClosed
func (r *ReaderWrapper) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return nil
}

// Read implements repl.ReadCloser.
func (r *ReaderWrapper) Read(p []byte) (n int, err error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	return r.wrapped.Read(p)
}

func (r *ReaderWrapper) Closed() bool {
	return r.closed.Load()
}
