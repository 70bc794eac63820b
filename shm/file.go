// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package shm allocates pixel buffers shared with the compositor and tracks
// when the compositor is done reading them.
package shm

import (
	"errors"
	"fmt"
	"os"

	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// CreateAnonymousFile returns a close-on-exec descriptor of size bytes with no
// name in the file system. memfd is preferred, an unlinked file in the XDG
// runtime dir is used where memfd isn't available
func CreateAnonymousFile(size int64) (int, error) {
	fd, err := unix.MemfdCreate("way2decor-shared", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err == nil {
		// Sealing is best effort, the compositor only needs the file to not shrink
		_, _ = unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, unix.F_SEAL_SHRINK)
	} else {
		logrus.WithError(err).Debugln("memfd unavailable, falling back to runtime dir")
		fd, err = createTmpfile()
		if err != nil {
			return -1, err
		}
	}

	if err = allocate(fd, size); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func createTmpfile() (int, error) {
	dir := xdg.RuntimeDir
	if dir == "" {
		return -1, fmt.Errorf("no runtime dir for shared memory: %w", os.ErrNotExist)
	}
	f, err := os.CreateTemp(dir, "way2decor-shared-")
	if err != nil {
		return -1, fmt.Errorf("failed to create shared memory file: %w", err)
	}
	defer f.Close()
	if err = os.Remove(f.Name()); err != nil {
		return -1, fmt.Errorf("failed to unlink shared memory file: %w", err)
	}
	fd, err := unix.FcntlInt(f.Fd(), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("failed to duplicate shared memory descriptor: %w", err)
	}
	return fd, nil
}

func allocate(fd int, size int64) error {
	for {
		err := unix.Fallocate(fd, 0, 0, size)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EOPNOTSUPP), errors.Is(err, unix.EINVAL), errors.Is(err, unix.ENOSYS):
			// Some file systems (and older memfd kernels) can't fallocate
			if err = unix.Ftruncate(fd, size); err != nil {
				return fmt.Errorf("failed to resize shared memory to %d B: %w", size, err)
			}
			return nil
		default:
			return fmt.Errorf("failed to allocate %d B of shared memory: %w", size, err)
		}
	}
}
