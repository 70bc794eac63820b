// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package decor

import (
	"fmt"
	"sort"

	"gitlab.com/mstarongitlab/goutils/sliceutils"
)

type (
	// A decoration policy. A context owns exactly one plugin
	Plugin interface {
		Destroy()
		// FrameNew returns the plugin's private state for a new frame.
		// The frame has no content size yet
		FrameNew(frame *Frame) any
		// FrameFree releases everything the plugin created for frame.
		// Frames may be freed before they were ever drawn
		FrameFree(frame *Frame)
		// FrameCommit is called once per frame commit. Implementations compare
		// against what they drew last and skip work when nothing changed
		FrameCommit(frame *Frame, state *State, conf *Configuration)
		// ConfigurationContentSize translates the proposed window size into
		// the content size, using the decoration conf's window state asks for
		ConfigurationContentSize(conf *Configuration, frame *Frame) (width, height int, ok bool)
	}

	// Plugins running their own event sources
	Dispatcher interface {
		Fd() int
		Dispatch(timeout int) (int, error)
	}

	// Plugins that redraw on title or capability changes
	PropertyObserver interface {
		FramePropertyChanged(frame *Frame)
	}

	CoordinateTranslator interface {
		FrameTranslateCoordinate(frame *Frame, contentX, contentY int) (frameX, frameY int)
	}

	// Plugins with popups (window menus) that need input grabs
	PopupGrabber interface {
		FramePopupGrab(frame *Frame, seatName string)
		FramePopupUngrab(frame *Frame, seatName string)
	}

	// Plugins drawing inside the window geometry
	BorderSizer interface {
		FrameBorderSize(frame *Frame, state WindowState) Borders
	}
)

type PluginCapability int

const (
	PluginCanDispatch = PluginCapability(iota)
	PluginCanObserveProperties
	PluginCanTranslateCoordinates
	PluginCanGrabPopups
	PluginCanSizeBorders
)

// Describes a plugin the context may choose
type PluginDescription struct {
	Name string
	// Higher wins when the configuration doesn't name a plugin
	Priority int
	New      func(ctx *Context) (Plugin, error)
}

// Optional parts of the installed plugin, resolved once
type pluginCaps struct {
	observer   PropertyObserver
	translator CoordinateTranslator
	popups     PopupGrabber
	borders    BorderSizer
	dispatch   Dispatcher
}

func resolvePluginCaps(p Plugin) pluginCaps {
	var caps pluginCaps
	caps.dispatch, _ = p.(Dispatcher)
	caps.observer, _ = p.(PropertyObserver)
	caps.translator, _ = p.(CoordinateTranslator)
	caps.popups, _ = p.(PopupGrabber)
	caps.borders, _ = p.(BorderSizer)
	return caps
}

func (c pluginCaps) has(capability PluginCapability) bool {
	switch capability {
	case PluginCanDispatch:
		return c.dispatch != nil
	case PluginCanObserveProperties:
		return c.observer != nil
	case PluginCanTranslateCoordinates:
		return c.translator != nil
	case PluginCanGrabPopups:
		return c.popups != nil
	case PluginCanSizeBorders:
		return c.borders != nil
	default:
		return false
	}
}

// orderCandidates puts the preferred plugin first, the rest by priority
func orderCandidates(candidates []PluginDescription, preferred string) ([]PluginDescription, error) {
	usable := sliceutils.Filter(candidates, func(d PluginDescription) bool {
		return d.New != nil
	})
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].Priority > usable[j].Priority
	})
	if preferred == "" {
		return usable, nil
	}
	named := sliceutils.Filter(usable, func(d PluginDescription) bool {
		return d.Name == preferred
	})
	if len(named) == 0 {
		return usable, fmt.Errorf("plugin %q is not available", preferred)
	}
	rest := sliceutils.Filter(usable, func(d PluginDescription) bool {
		return d.Name != preferred
	})
	return append(named, rest...), nil
}
