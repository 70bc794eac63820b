// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package loopback

import (
	"github.com/mstarongithub/way2decor/tiler"
	"github.com/mstarongithub/way2decor/wayland"
)

// A toplevel window. The client sees it as a wayland.XDGToplevel, tests and
// the shell use the accessors to look at what the client asked for
type Toplevel struct {
	id         uint32
	server     *Server
	xdgSurface *xdgSurface
	listener   wayland.XDGToplevelListener

	title  string
	appID  string
	parent *Toplevel

	minWidth, minHeight int32
	maxWidth, maxHeight int32
	geometry            [4]int32

	maximized  bool
	fullscreen bool
	minimized  bool
	activated  bool
	tiled      uint32 // Bitmask of 1 << ToplevelStateTiled*
	tile       tiler.Rect
	hasTile    bool

	initialCommitted bool
	sentSerials      []uint32
	acked            uint32
	destroyed        bool
}

func (t *Toplevel) SetListener(l wayland.XDGToplevelListener) {
	t.listener = l
}

func (t *Toplevel) SetParent(parent wayland.XDGToplevel) {
	var id uint32
	t.parent = nil
	if parent != nil {
		t.parent = parent.(*Toplevel)
		id = t.parent.id
	}
	t.server.record("xdg_toplevel", t.id, "set_parent", id)
}

func (t *Toplevel) SetTitle(title string) {
	t.title = title
	t.server.record("xdg_toplevel", t.id, "set_title", title)
}

func (t *Toplevel) SetAppID(appID string) {
	t.appID = appID
	t.server.record("xdg_toplevel", t.id, "set_app_id", appID)
}

func (t *Toplevel) ShowWindowMenu(seat wayland.Seat, serial uint32, x, y int32) {
	t.server.record("xdg_toplevel", t.id, "show_window_menu", seatName(seat), serial, x, y)
}

func (t *Toplevel) Move(seat wayland.Seat, serial uint32) {
	t.server.record("xdg_toplevel", t.id, "move", seatName(seat), serial)
	t.server.beginInteractive(t, CursorModeMove, 0)
}

func (t *Toplevel) Resize(seat wayland.Seat, serial uint32, edges uint32) {
	t.server.record("xdg_toplevel", t.id, "resize", seatName(seat), serial, edges)
	t.server.beginInteractive(t, CursorModeResize, edges)
}

func (t *Toplevel) SetMaxSize(width, height int32) {
	t.maxWidth, t.maxHeight = width, height
	t.server.record("xdg_toplevel", t.id, "set_max_size", width, height)
}

func (t *Toplevel) SetMinSize(width, height int32) {
	t.minWidth, t.minHeight = width, height
	t.server.record("xdg_toplevel", t.id, "set_min_size", width, height)
}

func (t *Toplevel) SetMaximized() {
	t.server.record("xdg_toplevel", t.id, "set_maximized")
	t.server.handleRequestMaximize(t, true)
}

func (t *Toplevel) UnsetMaximized() {
	t.server.record("xdg_toplevel", t.id, "unset_maximized")
	t.server.handleRequestMaximize(t, false)
}

func (t *Toplevel) SetFullscreen(output wayland.Output) {
	name := ""
	if output != nil {
		name = output.Name()
	}
	t.server.record("xdg_toplevel", t.id, "set_fullscreen", name)
	t.server.handleRequestFullscreen(t, true)
}

func (t *Toplevel) UnsetFullscreen() {
	t.server.record("xdg_toplevel", t.id, "unset_fullscreen")
	t.server.handleRequestFullscreen(t, false)
}

func (t *Toplevel) SetMinimized() {
	t.minimized = true
	t.server.record("xdg_toplevel", t.id, "set_minimized")
}

func (t *Toplevel) Destroy() {
	t.server.record("xdg_toplevel", t.id, "destroy")
	t.destroyed = true
	t.server.removeTopLevel(t)
}

// SetTiled changes the tiled edges the compositor reports on the next configure
func (t *Toplevel) SetTiled(states ...uint32) {
	t.tiled = 0
	for _, s := range states {
		t.tiled |= 1 << s
	}
}

func (t *Toplevel) states() []uint32 {
	var states []uint32
	if t.maximized {
		states = append(states, wayland.ToplevelStateMaximized)
	}
	if t.fullscreen {
		states = append(states, wayland.ToplevelStateFullscreen)
	}
	if t.activated {
		states = append(states, wayland.ToplevelStateActivated)
	}
	for _, s := range []uint32{
		wayland.ToplevelStateTiledLeft,
		wayland.ToplevelStateTiledRight,
		wayland.ToplevelStateTiledTop,
		wayland.ToplevelStateTiledBottom,
	} {
		if t.tiled&(1<<s) != 0 {
			states = append(states, s)
		}
	}
	return states
}

// States the compositor currently considers applied
func (t *Toplevel) States() []uint32 {
	return t.states()
}

func (t *Toplevel) size() (int32, int32) {
	if t.maximized || t.fullscreen {
		return t.server.opts.OutputWidth, t.server.opts.OutputHeight
	}
	if t.hasTile {
		return t.tile.Width, t.tile.Height
	}
	return 0, 0
}

var tileEdgeStates = []struct {
	edge  tiler.Edges
	state uint32
}{
	{tiler.EdgeLeft, wayland.ToplevelStateTiledLeft},
	{tiler.EdgeRight, wayland.ToplevelStateTiledRight},
	{tiler.EdgeTop, wayland.ToplevelStateTiledTop},
	{tiler.EdgeBottom, wayland.ToplevelStateTiledBottom},
}

// applyTile moves the toplevel into tile. Reports whether anything changed
func (t *Toplevel) applyTile(tile tiler.Tile) bool {
	var tiled uint32
	for _, e := range tileEdgeStates {
		if tile.Edges&e.edge != 0 {
			tiled |= 1 << e.state
		}
	}
	if t.hasTile && t.tile == tile.Rect && t.tiled == tiled {
		return false
	}
	t.tile, t.hasTile, t.tiled = tile.Rect, true, tiled
	return true
}

func (t *Toplevel) ID() uint32                { return t.id }
func (t *Toplevel) Title() string             { return t.title }
func (t *Toplevel) AppID() string             { return t.appID }
func (t *Toplevel) Parent() *Toplevel         { return t.parent }
func (t *Toplevel) MinSize() (int32, int32)   { return t.minWidth, t.minHeight }
func (t *Toplevel) MaxSize() (int32, int32)   { return t.maxWidth, t.maxHeight }
func (t *Toplevel) Geometry() [4]int32        { return t.geometry }
func (t *Toplevel) Minimized() bool           { return t.minimized }
func (t *Toplevel) Activated() bool           { return t.activated }
func (t *Toplevel) AckedSerial() uint32       { return t.acked }
func (t *Toplevel) InitialCommitted() bool    { return t.initialCommitted }
func (t *Toplevel) Destroyed() bool           { return t.destroyed }
func (t *Toplevel) Surface() *Surface         { return t.xdgSurface.surface }
func (t *Toplevel) SentSerials() []uint32     { return append([]uint32(nil), t.sentSerials...) }
func (t *Toplevel) XDGSurfaceDestroyed() bool { return t.xdgSurface.destroyed }

func seatName(seat wayland.Seat) string {
	if seat == nil {
		return ""
	}
	return seat.Name()
}

// A seat handed to clients for interactive requests
type Seat string

func (s Seat) Name() string { return string(s) }

// An output handed to clients for fullscreen requests
type Output string

func (o Output) Name() string { return string(o) }
