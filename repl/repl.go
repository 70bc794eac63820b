// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Returned by a MessageHandler to end the repl after its response was written
var ErrQuit = errors.New("quit")

type MessageHandler func(string, *Repl) (string, error)

// ReadCloser combines the Reader and Closer interfaces
type ReadCloser interface {
	io.Reader
	io.Closer
}

type Repl struct {
	Input   ReadCloser
	Output  io.WriteCloser
	Prompt  string
	scanner *bufio.Scanner
	writer  *bufio.Writer
	// Output is shared with asynchronous printers like request traces
	writeLock sync.Mutex
}

// Creates a new repl
// If no input is given, stdin will be used
// If no output is given, stdout will be used
// Note: The given reader and writer will be closed if the repl is started and then stops
func NewRepl(in ReadCloser, out io.WriteCloser) *Repl {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Repl{
		Input:   in,
		Output:  out,
		scanner: bufio.NewScanner(in),
		writer:  bufio.NewWriter(out),
	}
}

// Starts the repl
// Blocks execution until the input ends or the handler returns ErrQuit
// Empty lines are skipped, everything else goes to the handler
// Any other error from the handler or during writing closes the repl and is returned
func (r *Repl) Run(onMessage MessageHandler) error {
	if err := r.prompt(); err != nil {
		r.Close()
		return err
	}
	for r.scanner.Scan() {
		message := strings.TrimSpace(r.scanner.Text())
		if message == "" {
			if err := r.prompt(); err != nil {
				r.Close()
				return err
			}
			continue
		}
		res, err := onMessage(message, r)
		if errors.Is(err, ErrQuit) {
			werr := r.Println(res)
			r.Close()
			return werr
		}
		if err != nil {
			r.Close()
			return fmt.Errorf("message handler errored out on message \"%s\": %w", message, err)
		}
		if err = r.Println(res); err != nil {
			r.Close()
			return err
		}
		if err = r.prompt(); err != nil {
			r.Close()
			return err
		}
	}
	if err := r.scanner.Err(); err != nil {
		r.Close()
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// Println writes one line of output. Safe to call from other goroutines
func (r *Repl) Println(line string) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()
	if _, err := r.writer.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to write result \"%s\": %w", line, err)
	}
	if err := r.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	return nil
}

func (r *Repl) prompt() error {
	if r.Prompt == "" {
		return nil
	}
	r.writeLock.Lock()
	defer r.writeLock.Unlock()
	if _, err := r.writer.WriteString(r.Prompt); err != nil {
		return fmt.Errorf("failed to write prompt: %w", err)
	}
	return r.writer.Flush()
}

// Close stops the repl if it was still running
// This will also close the reader and writer
func (r *Repl) Close() {
	r.Input.Close()
	r.Output.Close()
}
