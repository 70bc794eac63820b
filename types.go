// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package decor

import (
	"fmt"
	"strings"

	"github.com/mstarongithub/way2decor/wayland"
)

type ErrorKind int

const (
	// The compositor lacks a global or format the context or plugin needs
	ErrorCompositorIncompatible = ErrorKind(iota)
	// The application asked for something a frame can't do
	ErrorInvalidFrameConfiguration
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorCompositorIncompatible:
		return "compositor incompatible"
	case ErrorInvalidFrameConfiguration:
		return "invalid frame configuration"
	default:
		return fmt.Sprintf("unknown error kind %d", int(k))
	}
}

// Window state bitset. Flags are independent of each other
type WindowState uint32

const WindowStateNone = WindowState(0)

const (
	WindowStateActive = WindowState(1 << iota)
	WindowStateMaximized
	WindowStateFullscreen
	WindowStateTiledLeft
	WindowStateTiledRight
	WindowStateTiledTop
	WindowStateTiledBottom
)

// Any of the tiled edges
const WindowStateTiled = WindowStateTiledLeft | WindowStateTiledRight | WindowStateTiledTop | WindowStateTiledBottom

var windowStateNames = []struct {
	flag WindowState
	name string
}{
	{WindowStateActive, "active"},
	{WindowStateMaximized, "maximized"},
	{WindowStateFullscreen, "fullscreen"},
	{WindowStateTiledLeft, "tiled-left"},
	{WindowStateTiledRight, "tiled-right"},
	{WindowStateTiledTop, "tiled-top"},
	{WindowStateTiledBottom, "tiled-bottom"},
}

func (s WindowState) Has(flag WindowState) bool {
	return s&flag == flag
}

func (s WindowState) String() string {
	if s == WindowStateNone {
		return "none"
	}
	var names []string
	for _, n := range windowStateNames {
		if s&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseWindowState reads a single state name as printed by String
func ParseWindowState(name string) (WindowState, error) {
	if name == "none" {
		return WindowStateNone, nil
	}
	for _, n := range windowStateNames {
		if n.name == name {
			return n.flag, nil
		}
	}
	return WindowStateNone, fmt.Errorf("unknown window state %q", name)
}

// windowStateFromWire folds xdg_toplevel states into a WindowState.
// Unknown values, like resizing, are ignored
func windowStateFromWire(states []uint32) WindowState {
	state := WindowStateNone
	for _, s := range states {
		switch s {
		case wayland.ToplevelStateFullscreen:
			state |= WindowStateFullscreen
		case wayland.ToplevelStateMaximized:
			state |= WindowStateMaximized
		case wayland.ToplevelStateActivated:
			state |= WindowStateActive
		case wayland.ToplevelStateTiledLeft:
			state |= WindowStateTiledLeft
		case wayland.ToplevelStateTiledRight:
			state |= WindowStateTiledRight
		case wayland.ToplevelStateTiledTop:
			state |= WindowStateTiledTop
		case wayland.ToplevelStateTiledBottom:
			state |= WindowStateTiledBottom
		}
	}
	return state
}

type ResizeEdge int

const (
	ResizeEdgeNone = ResizeEdge(iota)
	ResizeEdgeTop
	ResizeEdgeBottom
	ResizeEdgeLeft
	ResizeEdgeTopLeft
	ResizeEdgeBottomLeft
	ResizeEdgeRight
	ResizeEdgeTopRight
	ResizeEdgeBottomRight
)

var resizeEdgeNames = [...]string{
	ResizeEdgeNone:        "none",
	ResizeEdgeTop:         "top",
	ResizeEdgeBottom:      "bottom",
	ResizeEdgeLeft:        "left",
	ResizeEdgeTopLeft:     "top-left",
	ResizeEdgeBottomLeft:  "bottom-left",
	ResizeEdgeRight:       "right",
	ResizeEdgeTopRight:    "top-right",
	ResizeEdgeBottomRight: "bottom-right",
}

var resizeEdgeWire = [...]uint32{
	ResizeEdgeNone:        wayland.ResizeEdgeNone,
	ResizeEdgeTop:         wayland.ResizeEdgeTop,
	ResizeEdgeBottom:      wayland.ResizeEdgeBottom,
	ResizeEdgeLeft:        wayland.ResizeEdgeLeft,
	ResizeEdgeTopLeft:     wayland.ResizeEdgeTopLeft,
	ResizeEdgeBottomLeft:  wayland.ResizeEdgeBottomLeft,
	ResizeEdgeRight:       wayland.ResizeEdgeRight,
	ResizeEdgeTopRight:    wayland.ResizeEdgeTopRight,
	ResizeEdgeBottomRight: wayland.ResizeEdgeBottomRight,
}

// Valid reports whether e is one of the nine defined edges
func (e ResizeEdge) Valid() bool {
	return e >= ResizeEdgeNone && e <= ResizeEdgeBottomRight
}

func (e ResizeEdge) String() string {
	if !e.Valid() {
		return fmt.Sprintf("invalid edge %d", int(e))
	}
	return resizeEdgeNames[e]
}

func (e ResizeEdge) wire() uint32 {
	return resizeEdgeWire[e]
}

func ParseResizeEdge(name string) (ResizeEdge, error) {
	for i, n := range resizeEdgeNames {
		if n == name {
			return ResizeEdge(i), nil
		}
	}
	return ResizeEdgeNone, fmt.Errorf("unknown resize edge %q", name)
}

// Actions a frame allows the user to perform through its decoration
type Capabilities uint32

const (
	ActionMove = Capabilities(1 << iota)
	ActionResize
	ActionMinimize
	ActionFullscreen
	ActionClose
)

const ActionAll = ActionMove | ActionResize | ActionMinimize | ActionFullscreen | ActionClose

var capabilityNames = []struct {
	flag Capabilities
	name string
}{
	{ActionMove, "move"},
	{ActionResize, "resize"},
	{ActionMinimize, "minimize"},
	{ActionFullscreen, "fullscreen"},
	{ActionClose, "close"},
}

func (c Capabilities) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for _, n := range capabilityNames {
		if c&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseCapability reads a single capability name as printed by String
func ParseCapability(name string) (Capabilities, error) {
	for _, n := range capabilityNames {
		if n.name == name {
			return n.flag, nil
		}
	}
	return 0, fmt.Errorf("unknown capability %q", name)
}

type DecorationType int

const (
	DecorationTypeNone = DecorationType(iota)
	DecorationTypeFull
	DecorationTypeTitleOnly
)

func (d DecorationType) String() string {
	switch d {
	case DecorationTypeNone:
		return "none"
	case DecorationTypeFull:
		return "full"
	case DecorationTypeTitleOnly:
		return "title-only"
	default:
		return fmt.Sprintf("unknown decoration %d", int(d))
	}
}

// DecorationTypeFor maps a window state to the decoration a plugin draws for
// it. Plugins must use the same mapping for sizing and for drawing
func DecorationTypeFor(state WindowState) DecorationType {
	switch {
	case state&WindowStateFullscreen != 0:
		return DecorationTypeNone
	case state&(WindowStateMaximized|WindowStateTiled) != 0:
		return DecorationTypeTitleOnly
	default:
		return DecorationTypeFull
	}
}

// Space a decoration occupies around the content, inside the window geometry
type Borders struct {
	Left, Right, Top, Bottom int
}

func (b Borders) Horizontal() int { return b.Left + b.Right }
func (b Borders) Vertical() int   { return b.Top + b.Bottom }
