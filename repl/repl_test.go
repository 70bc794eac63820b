// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package repl

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func newTestRepl(input string) (*Repl, *bufferCloser) {
	out := &bufferCloser{}
	return NewRepl(io.NopCloser(strings.NewReader(input)), out), out
}

func TestReplAnswersEveryLine(t *testing.T) {
	r, out := newTestRepl("one\n\n  two  \n")
	var got []string
	err := r.Run(func(msg string, _ *Repl) (string, error) {
		got = append(got, msg)
		return "ok " + msg, nil
	})
	if err != nil {
		t.Fatalf("Repl failed: %s", err)
	}
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("Expected trimmed non-empty lines, got %q", got)
	}
	if out.String() != "ok one\nok two\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestReplQuit(t *testing.T) {
	r, out := newTestRepl("first\nquit\nnever\n")
	r.Prompt = "> "
	calls := 0
	err := r.Run(func(msg string, _ *Repl) (string, error) {
		calls++
		if msg == "quit" {
			return "bye", ErrQuit
		}
		return msg, nil
	})
	if err != nil {
		t.Fatalf("Quitting isn't an error, got %s", err)
	}
	if calls != 2 {
		t.Errorf("Repl kept reading after quit, %d calls", calls)
	}
	if out.String() != "> first\n> bye\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
	if !out.closed {
		t.Errorf("Output not closed on quit")
	}
}

func TestReplHandlerError(t *testing.T) {
	r, out := newTestRepl("boom\n")
	failure := errors.New("failure")
	err := r.Run(func(msg string, _ *Repl) (string, error) {
		return "", failure
	})
	if !errors.Is(err, failure) {
		t.Errorf("Expected the handler error, got %v", err)
	}
	if !out.closed {
		t.Errorf("Output not closed after an error")
	}
}
