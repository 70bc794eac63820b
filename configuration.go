// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package decor

// One negotiation round as proposed by the compositor.
// Never modified after it has been handed to the application
type Configuration struct {
	serial uint32

	hasSize      bool
	windowWidth  int
	windowHeight int

	hasWindowState bool
	windowState    WindowState
}

// Serial the frame acknowledges when this configuration is committed
func (c *Configuration) Serial() uint32 {
	return c.serial
}

// WindowSize returns the proposed outer window size.
// ok is false if the compositor didn't send one or left the choice to the client
func (c *Configuration) WindowSize() (width, height int, ok bool) {
	if !c.hasSize || c.windowWidth == 0 || c.windowHeight == 0 {
		return 0, 0, false
	}
	return c.windowWidth, c.windowHeight, true
}

// WindowState returns the proposed window state, if the round carried one
func (c *Configuration) WindowState() (WindowState, bool) {
	if !c.hasWindowState {
		return WindowStateNone, false
	}
	return c.windowState, true
}

// ContentSize asks the frame's plugin how large the content has to be for the
// proposed window size
func (c *Configuration) ContentSize(frame *Frame) (width, height int, ok bool) {
	return frame.context.plugin.ConfigurationContentSize(c, frame)
}

// windowStateOr returns the proposed state or fallback when none was sent
func (c *Configuration) windowStateOr(fallback WindowState) WindowState {
	if c == nil || !c.hasWindowState {
		return fallback
	}
	return c.windowState
}

// Collects the events of one round until the closing configure arrives
type configurationBuilder struct {
	started bool
	conf    Configuration
}

func (b *configurationBuilder) setSize(width, height int) {
	b.started = true
	b.conf.hasSize = true
	b.conf.windowWidth = width
	b.conf.windowHeight = height
}

func (b *configurationBuilder) setWindowState(state WindowState) {
	b.started = true
	b.conf.hasWindowState = true
	b.conf.windowState = state
}

// finish hands out the collected round and resets the builder
func (b *configurationBuilder) finish(serial uint32) *Configuration {
	conf := b.conf
	conf.serial = serial
	b.reset()
	return &conf
}

func (b *configurationBuilder) reset() {
	*b = configurationBuilder{}
}

// What the application rendered for one commit
type State struct {
	contentWidth  int
	contentHeight int
}

func NewState(width, height int) *State {
	return &State{contentWidth: width, contentHeight: height}
}

func (s *State) Width() int  { return s.contentWidth }
func (s *State) Height() int { return s.contentHeight }
