// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	decor "github.com/mstarongithub/way2decor"
	"github.com/mstarongithub/way2decor/common/ipc"
	"github.com/mstarongithub/way2decor/wayland/loopback"
)

func (sh *shell) contextSnapshot() ipc.ContextSnapshot {
	frames := sh.ctx.Frames()
	snap := ipc.ContextSnapshot{
		Plugin:      sh.ctx.PluginName(),
		PluginReady: sh.ctx.PluginReady(),
		InitDone:    sh.ctx.InitDone(),
		Failed:      sh.ctx.Failed(),
		Errors:      append([]string(nil), sh.errors...),
		Frames:      make([]ipc.FrameSnapshot, 0, len(frames)),
	}
	for _, f := range frames {
		snap.Frames = append(snap.Frames, frameSnapshot(f))
	}
	return snap
}

func frameSnapshot(frame *decor.Frame) ipc.FrameSnapshot {
	decoration := decor.DecorationTypeNone
	if frame.Context().PluginName() != decor.FallbackPluginName {
		decoration = decor.DecorationTypeFor(frame.WindowState())
	}
	snap := ipc.FrameSnapshot{
		ID:            frame.ID(),
		Title:         frame.Title(),
		AppID:         frame.AppID(),
		Lifecycle:     frame.LifecycleState().String(),
		WindowState:   frame.WindowState().String(),
		Decoration:    decoration.String(),
		Capabilities:  frame.Capabilities().String(),
		ContentWidth:  frame.ContentWidth(),
		ContentHeight: frame.ContentHeight(),
		Floating:      frame.IsFloating(),
	}
	if t, ok := frame.XDGToplevel().(*loopback.Toplevel); ok && t != nil {
		snap.Toplevel = toplevelSnapshot(t)
	}
	return snap
}

func toplevelSnapshot(t *loopback.Toplevel) *ipc.ToplevelSnapshot {
	minWidth, minHeight := t.MinSize()
	maxWidth, maxHeight := t.MaxSize()
	return &ipc.ToplevelSnapshot{
		ID:          t.ID(),
		MinSize:     [2]int32{minWidth, minHeight},
		MaxSize:     [2]int32{maxWidth, maxHeight},
		Geometry:    t.Geometry(),
		AckedSerial: t.AckedSerial(),
		SentSerials: t.SentSerials(),
		States:      t.States(),
		Mapped:      t.InitialCommitted(),
		Minimized:   t.Minimized(),
	}
}
