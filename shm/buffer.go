// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package shm

import (
	"errors"
	"fmt"

	"github.com/mstarongithub/way2decor/wayland"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

type BufferState int

const (
	// Writable and free for reuse
	BufferIdle = BufferState(iota)
	// Attached and committed, the compositor may still read it
	BufferInUse
	// Dropped by its owner while in use. Frees itself on release
	BufferDetached
)

func (s BufferState) String() string {
	switch s {
	case BufferIdle:
		return "idle"
	case BufferInUse:
		return "in-use"
	case BufferDetached:
		return "detached"
	default:
		return fmt.Sprintf("unknown buffer state %d", int(s))
	}
}

const bytesPerPixel = 4

var ErrInvalidSize = errors.New("invalid buffer size")

// A shared memory buffer with a single writer
type Buffer struct {
	buffer wayland.Buffer
	data   []byte

	width  int
	height int
	stride int
	format uint32

	state BufferState
	freed bool
}

// NewBuffer allocates a width x height buffer of a 32 bit format
func NewBuffer(shm wayland.Shm, width, height int, format uint32) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	stride := width * bytesPerPixel
	size := stride * height

	fd, err := CreateAnonymousFile(int64(size))
	if err != nil {
		return nil, fmt.Errorf("creating a buffer file for %d B failed: %w", size, err)
	}
	defer unix.Close(fd)

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to map %d B: %w", size, err)
	}

	pool := shm.CreatePool(fd, int32(size))
	wlBuffer := pool.CreateBuffer(0, int32(width), int32(height), int32(stride), format)
	pool.Destroy()

	b := &Buffer{
		buffer: wlBuffer,
		data:   data,
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}
	wlBuffer.SetListener(b)
	return b, nil
}

// Release is the compositor telling us it stopped reading the buffer
func (b *Buffer) Release() {
	switch b.state {
	case BufferDetached:
		b.free()
	case BufferInUse:
		b.state = BufferIdle
	}
}

// MarkInUse is called after the buffer was attached and committed
func (b *Buffer) MarkInUse() {
	if b.freed {
		return
	}
	b.state = BufferInUse
}

// Detach gives the buffer up. One that isn't in use is freed right away,
// otherwise it waits for the compositor's release
func (b *Buffer) Detach() {
	switch b.state {
	case BufferInUse:
		b.state = BufferDetached
	case BufferIdle:
		b.free()
	}
}

// Reusable reports whether new content of the given size can be drawn into b
func (b *Buffer) Reusable(width, height int) bool {
	return !b.freed && b.state == BufferIdle && b.width == width && b.height == height
}

func (b *Buffer) free() {
	if b.freed {
		return
	}
	b.freed = true
	b.buffer.Destroy()
	if err := unix.Munmap(b.data); err != nil {
		logrus.WithError(err).Warnln("Failed to unmap buffer")
	}
	b.data = nil
}

func (b *Buffer) State() BufferState      { return b.state }
func (b *Buffer) Freed() bool             { return b.freed }
func (b *Buffer) Width() int              { return b.width }
func (b *Buffer) Height() int             { return b.height }
func (b *Buffer) Stride() int             { return b.stride }
func (b *Buffer) Format() uint32          { return b.format }
func (b *Buffer) Wayland() wayland.Buffer { return b.buffer }

// Pixels returns the mapped memory. Nil once the buffer is freed
func (b *Buffer) Pixels() []byte {
	return b.data
}

// Image returns a drawable view of the buffer's pixels
func (b *Buffer) Image() *ARGB {
	return &ARGB{Pix: b.data, Stride: b.stride, width: b.width, height: b.height}
}
