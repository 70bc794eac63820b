// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package decor

import "errors"

var (
	ErrCompositorIncompatible    = errors.New("compositor is missing required interfaces")
	ErrInvalidFrameConfiguration = errors.New("invalid frame configuration")
	ErrInvalidResizeEdge         = errors.New("invalid resize edge")
	// The context hit an incompatibility and won't set up new frames
	ErrContextFailed = errors.New("decoration context failed")
	ErrFrameNotBound = errors.New("frame has no shell surface yet")
	ErrFrameClosed   = errors.New("frame is closed")
)
