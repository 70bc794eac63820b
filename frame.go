// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package decor

import (
	"fmt"

	"github.com/mstarongithub/way2decor/wayland"
	"github.com/sirupsen/logrus"
)

type LifecycleState int

const (
	// Created, waiting for the context to finish discovery
	FrameUnbound = LifecycleState(iota)
	// Shell surface exists, listening for configure events
	FrameBound
	// Initial commit sent, waiting for the first configure to be committed
	FrameMapPending
	FrameMapped
	FrameClosed
)

func (s LifecycleState) String() string {
	switch s {
	case FrameUnbound:
		return "unbound"
	case FrameBound:
		return "bound"
	case FrameMapPending:
		return "map-pending"
	case FrameMapped:
		return "mapped"
	case FrameClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown lifecycle state %d", int(s))
	}
}

// Callbacks of a frame. All of them run on the goroutine that dispatches
type FrameHandler interface {
	// Configure delivers one complete negotiation round
	Configure(frame *Frame, conf *Configuration)
	// Close fires once when the window should go away
	Close(frame *Frame)
	// Commit fires after the frame committed its surface
	Commit(frame *Frame)
	// DismissPopup asks the application to close popups grabbed on seatName
	DismissPopup(frame *Frame, seatName string)
}

// FrameHandlerFuncs implements FrameHandler with optional functions
type FrameHandlerFuncs struct {
	ConfigureFunc    func(frame *Frame, conf *Configuration)
	CloseFunc        func(frame *Frame)
	CommitFunc       func(frame *Frame)
	DismissPopupFunc func(frame *Frame, seatName string)
}

func (h FrameHandlerFuncs) Configure(frame *Frame, conf *Configuration) {
	if h.ConfigureFunc != nil {
		h.ConfigureFunc(frame, conf)
	}
}

func (h FrameHandlerFuncs) Close(frame *Frame) {
	if h.CloseFunc != nil {
		h.CloseFunc(frame)
	}
}

func (h FrameHandlerFuncs) Commit(frame *Frame) {
	if h.CommitFunc != nil {
		h.CommitFunc(frame)
	}
}

func (h FrameHandlerFuncs) DismissPopup(frame *Frame, seatName string) {
	if h.DismissPopupFunc != nil {
		h.DismissPopupFunc(frame, seatName)
	}
}

type sizeLimits struct {
	minWidth, minHeight int
	maxWidth, maxHeight int
}

// A decorated toplevel window
type Frame struct {
	id      int
	refs    int
	freed   bool
	context *Context
	log     *logrus.Entry

	surface  wayland.Surface
	handler  FrameHandler
	userData any

	xdgSurface  wayland.XDGSurface
	xdgToplevel wayland.XDGToplevel

	lifecycle     LifecycleState
	pendingMap    bool
	closeNotified bool

	pending configurationBuilder

	contentWidth  int
	contentHeight int
	windowState   WindowState
	committed     bool

	title        string
	appID        string
	parent       *Frame
	capabilities Capabilities

	contentLimits sizeLimits
	sentLimits    sizeLimits
	limitsSent    bool

	pluginData any
}

func newFrame(ctx *Context, surface wayland.Surface, handler FrameHandler, userData any) *Frame {
	ctx.nextFrameID++
	if handler == nil {
		handler = FrameHandlerFuncs{}
	}
	return &Frame{
		id:           ctx.nextFrameID,
		refs:         1,
		context:      ctx,
		log:          ctx.log.WithField("frame", ctx.nextFrameID),
		surface:      surface,
		handler:      handler,
		userData:     userData,
		capabilities: ActionAll,
	}
}

// bind creates the shell objects and sends everything set so far
func (f *Frame) bind() {
	if f.xdgSurface != nil || f.freed {
		return
	}
	ctx := f.context
	f.xdgSurface = ctx.wmBase.GetXDGSurface(f.surface)
	f.xdgSurface.SetListener(&frameSurfaceListener{frame: f})
	f.xdgToplevel = f.xdgSurface.GetToplevel()
	f.xdgToplevel.SetListener(&frameToplevelListener{frame: f})

	if f.parent != nil && f.parent.xdgToplevel != nil {
		f.xdgToplevel.SetParent(f.parent.xdgToplevel)
	}
	if f.title != "" {
		f.xdgToplevel.SetTitle(f.title)
	}
	if f.appID != "" {
		f.xdgToplevel.SetAppID(f.appID)
	}

	f.lifecycle = FrameBound
	f.log.Debugln("Frame bound")

	if f.pendingMap {
		f.pendingMap = false
		f.doMap()
	}
}

type frameToplevelListener struct {
	frame *Frame
}

func (l *frameToplevelListener) Configure(width, height int32, states []uint32) {
	f := l.frame
	if f.lifecycle == FrameClosed {
		return
	}
	f.pending.setSize(int(width), int(height))
	f.pending.setWindowState(windowStateFromWire(states))
}

func (l *frameToplevelListener) Close() {
	l.frame.notifyClose()
}

type frameSurfaceListener struct {
	frame *Frame
}

func (l *frameSurfaceListener) Configure(serial uint32) {
	f := l.frame
	conf := f.pending.finish(serial)
	if f.lifecycle == FrameClosed {
		return
	}
	if f.context.hasError {
		f.log.WithField("serial", serial).Debugln("Dropping configure of a failed context")
		return
	}
	f.log.WithFields(logrus.Fields{
		"serial": serial,
		"state":  conf.windowState,
		"width":  conf.windowWidth,
		"height": conf.windowHeight,
	}).Debugln("Configure")
	f.handler.Configure(f, conf)
}

func (f *Frame) notifyClose() {
	if f.closeNotified {
		return
	}
	f.closeNotified = true
	f.lifecycle = FrameClosed
	f.pending.reset()
	f.log.Debugln("Frame closed")
	f.handler.Close(f)
}

// Commit makes the content rendered at state visible. A non-nil conf is
// acknowledged before the surface is committed
func (f *Frame) Commit(state *State, conf *Configuration) error {
	if f.lifecycle == FrameClosed {
		return ErrFrameClosed
	}
	if f.context.hasError {
		return ErrContextFailed
	}
	if f.xdgSurface == nil {
		return ErrFrameNotBound
	}

	if conf != nil {
		f.xdgSurface.AckConfigure(conf.serial)
	}

	f.windowState = conf.windowStateOr(f.windowState)
	if state != nil {
		f.contentWidth, f.contentHeight = state.contentWidth, state.contentHeight
	} else {
		state = NewState(f.contentWidth, f.contentHeight)
	}
	f.committed = true

	f.applyLimits()
	f.applyWindowGeometry()

	ctx := f.context
	if ctx.pluginReady {
		ctx.plugin.FrameCommit(f, state, conf)
	}
	f.surface.Commit()

	if f.lifecycle == FrameMapPending && conf != nil {
		f.lifecycle = FrameMapped
		f.log.Debugln("Frame mapped")
	}
	f.handler.Commit(f)
	return nil
}

// redraw lets a plugin that became ready catch up with the last commit
func (f *Frame) redraw() {
	if !f.committed || f.lifecycle == FrameClosed || f.freed {
		return
	}
	f.context.plugin.FrameCommit(f, NewState(f.contentWidth, f.contentHeight), nil)
}

func (f *Frame) borders(state WindowState) Borders {
	if b := f.context.caps.borders; b != nil {
		return b.FrameBorderSize(f, state)
	}
	return Borders{}
}

func (f *Frame) applyWindowGeometry() {
	b := f.borders(f.windowState)
	f.xdgSurface.SetWindowGeometry(
		int32(-b.Left),
		int32(-b.Top),
		int32(f.contentWidth+b.Horizontal()),
		int32(f.contentHeight+b.Vertical()),
	)
}

// windowLimits turns the content limits into window limits. Without the
// resize capability the window is pinned to its current size
func (f *Frame) windowLimits() sizeLimits {
	b := f.borders(f.windowState)
	if !f.HasCapability(ActionResize) {
		w, h := f.contentWidth+b.Horizontal(), f.contentHeight+b.Vertical()
		return sizeLimits{minWidth: w, minHeight: h, maxWidth: w, maxHeight: h}
	}
	translate := func(v, chrome int) int {
		if v == 0 {
			return 0
		}
		return v + chrome
	}
	c := f.contentLimits
	return sizeLimits{
		minWidth:  translate(c.minWidth, b.Horizontal()),
		minHeight: translate(c.minHeight, b.Vertical()),
		maxWidth:  translate(c.maxWidth, b.Horizontal()),
		maxHeight: translate(c.maxHeight, b.Vertical()),
	}
}

func (f *Frame) applyLimits() {
	limits := f.windowLimits()
	if f.limitsSent && limits == f.sentLimits {
		return
	}
	f.xdgToplevel.SetMinSize(int32(limits.minWidth), int32(limits.minHeight))
	f.xdgToplevel.SetMaxSize(int32(limits.maxWidth), int32(limits.maxHeight))
	f.sentLimits = limits
	f.limitsSent = true
}

// Map shows the frame for the first time. Calls after the first are no-ops
func (f *Frame) Map() {
	if f.context.hasError {
		f.log.Debugln("Not mapping frame of a failed context")
		return
	}
	switch f.lifecycle {
	case FrameUnbound:
		f.pendingMap = true
	case FrameBound:
		f.doMap()
	}
}

func (f *Frame) doMap() {
	f.surface.Commit()
	f.lifecycle = FrameMapPending
	f.log.Debugln("Initial commit sent")
}

// Close asks the application to close the frame, as the compositor would
func (f *Frame) Close() {
	f.notifyClose()
}

func (f *Frame) propertyChanged() {
	if o := f.context.caps.observer; o != nil {
		o.FramePropertyChanged(f)
	}
}

func (f *Frame) SetTitle(title string) {
	f.title = title
	if f.xdgToplevel != nil {
		f.xdgToplevel.SetTitle(title)
	}
	f.propertyChanged()
}

func (f *Frame) Title() string {
	return f.title
}

func (f *Frame) SetAppID(appID string) {
	f.appID = appID
	if f.xdgToplevel != nil {
		f.xdgToplevel.SetAppID(appID)
	}
}

func (f *Frame) AppID() string {
	return f.appID
}

// SetParent makes the frame a child of parent. nil removes the parent
func (f *Frame) SetParent(parent *Frame) {
	f.parent = parent
	if f.xdgToplevel == nil {
		return
	}
	if parent == nil || parent.xdgToplevel == nil {
		f.xdgToplevel.SetParent(nil)
		return
	}
	f.xdgToplevel.SetParent(parent.xdgToplevel)
}

func (f *Frame) invalid(format string, args ...any) error {
	message := fmt.Sprintf(format, args...)
	f.context.reportInvalid(message)
	return fmt.Errorf("%w: %s", ErrInvalidFrameConfiguration, message)
}

// SetMinContentSize limits how small the content may get. 0 means unlimited
func (f *Frame) SetMinContentSize(width, height int) error {
	if width < 0 || height < 0 {
		return f.invalid("negative minimum content size %dx%d", width, height)
	}
	c := f.contentLimits
	if (c.maxWidth > 0 && width > c.maxWidth) || (c.maxHeight > 0 && height > c.maxHeight) {
		return f.invalid("minimum content size %dx%d exceeds maximum %dx%d", width, height, c.maxWidth, c.maxHeight)
	}
	f.contentLimits.minWidth, f.contentLimits.minHeight = width, height
	return nil
}

// SetMaxContentSize limits how large the content may get. 0 means unlimited
func (f *Frame) SetMaxContentSize(width, height int) error {
	if width < 0 || height < 0 {
		return f.invalid("negative maximum content size %dx%d", width, height)
	}
	c := f.contentLimits
	if (width > 0 && width < c.minWidth) || (height > 0 && height < c.minHeight) {
		return f.invalid("maximum content size %dx%d is below minimum %dx%d", width, height, c.minWidth, c.minHeight)
	}
	f.contentLimits.maxWidth, f.contentLimits.maxHeight = width, height
	return nil
}

func (f *Frame) MinContentSize() (int, int) {
	return f.contentLimits.minWidth, f.contentLimits.minHeight
}

func (f *Frame) MaxContentSize() (int, int) {
	return f.contentLimits.maxWidth, f.contentLimits.maxHeight
}

// toplevel returns the shell toplevel, logging requests that come too early
func (f *Frame) toplevel(request string) wayland.XDGToplevel {
	if f.xdgToplevel == nil {
		f.log.WithField("request", request).Debugln("Dropping request of unbound frame")
	}
	return f.xdgToplevel
}

func (f *Frame) RequestInteractiveMove(seat wayland.Seat, serial uint32) error {
	t := f.toplevel("move")
	if t == nil {
		return ErrFrameNotBound
	}
	t.Move(seat, serial)
	return nil
}

// RequestInteractiveResize starts a resize from edge. Edges outside the nine
// defined values are rejected without contacting the compositor
func (f *Frame) RequestInteractiveResize(seat wayland.Seat, serial uint32, edge ResizeEdge) error {
	if !edge.Valid() {
		message := fmt.Sprintf("resize edge %d out of range", int(edge))
		f.context.reportInvalid(message)
		return fmt.Errorf("%w: %s", ErrInvalidResizeEdge, message)
	}
	t := f.toplevel("resize")
	if t == nil {
		return ErrFrameNotBound
	}
	t.Resize(seat, serial, edge.wire())
	return nil
}

// ShowWindowMenu asks the compositor for its window menu at x, y relative to
// the window geometry
func (f *Frame) ShowWindowMenu(seat wayland.Seat, serial uint32, x, y int) {
	if t := f.toplevel("show_window_menu"); t != nil {
		t.ShowWindowMenu(seat, serial, int32(x), int32(y))
	}
}

func (f *Frame) SetMaximized() {
	if t := f.toplevel("set_maximized"); t != nil {
		t.SetMaximized()
	}
}

func (f *Frame) UnsetMaximized() {
	if t := f.toplevel("unset_maximized"); t != nil {
		t.UnsetMaximized()
	}
}

// SetFullscreen asks for fullscreen on output, or wherever the compositor
// likes if output is nil
func (f *Frame) SetFullscreen(output wayland.Output) {
	if t := f.toplevel("set_fullscreen"); t != nil {
		t.SetFullscreen(output)
	}
}

func (f *Frame) UnsetFullscreen() {
	if t := f.toplevel("unset_fullscreen"); t != nil {
		t.UnsetFullscreen()
	}
}

func (f *Frame) SetMinimized() {
	if t := f.toplevel("set_minimized"); t != nil {
		t.SetMinimized()
	}
}

func (f *Frame) SetCapabilities(capabilities Capabilities) {
	old := f.capabilities
	f.capabilities |= capabilities
	if old != f.capabilities {
		f.propertyChanged()
	}
}

func (f *Frame) UnsetCapabilities(capabilities Capabilities) {
	old := f.capabilities
	f.capabilities &^= capabilities
	if old != f.capabilities {
		f.propertyChanged()
	}
}

func (f *Frame) HasCapability(capability Capabilities) bool {
	return f.capabilities&capability == capability
}

func (f *Frame) Capabilities() Capabilities {
	return f.capabilities
}

// PopupGrab tells the plugin a popup of the application grabbed seatName
func (f *Frame) PopupGrab(seatName string) {
	if p := f.context.caps.popups; p != nil {
		p.FramePopupGrab(f, seatName)
	}
}

func (f *Frame) PopupUngrab(seatName string) {
	if p := f.context.caps.popups; p != nil {
		p.FramePopupUngrab(f, seatName)
	}
}

// DismissPopup is called by plugins to have the application close its popups
func (f *Frame) DismissPopup(seatName string) {
	f.handler.DismissPopup(f, seatName)
}

// TranslateCoordinate maps a point of the content to the frame's surface
// coordinates
func (f *Frame) TranslateCoordinate(contentX, contentY int) (int, int) {
	if t := f.context.caps.translator; t != nil {
		return t.FrameTranslateCoordinate(f, contentX, contentY)
	}
	return contentX, contentY
}

// IsFloating reports whether the window is neither maximized, fullscreen nor
// tiled
func (f *Frame) IsFloating() bool {
	return f.windowState&(WindowStateMaximized|WindowStateFullscreen|WindowStateTiled) == 0
}

func (f *Frame) ID() int                          { return f.id }
func (f *Frame) Context() *Context                { return f.context }
func (f *Frame) Surface() wayland.Surface         { return f.surface }
func (f *Frame) XDGSurface() wayland.XDGSurface   { return f.xdgSurface }
func (f *Frame) XDGToplevel() wayland.XDGToplevel { return f.xdgToplevel }
func (f *Frame) ContentWidth() int                { return f.contentWidth }
func (f *Frame) ContentHeight() int               { return f.contentHeight }
func (f *Frame) WindowState() WindowState         { return f.windowState }
func (f *Frame) LifecycleState() LifecycleState   { return f.lifecycle }
func (f *Frame) UserData() any                    { return f.userData }
func (f *Frame) PluginData() any                  { return f.pluginData }
func (f *Frame) Logger() *logrus.Entry            { return f.log }

// Committed reports whether the frame has been committed at least once
func (f *Frame) Committed() bool {
	return f.committed
}

func (f *Frame) Ref() {
	f.refs++
}

// Unref drops a reference. The last one frees the plugin's part of the frame
// before the shell objects go away
func (f *Frame) Unref() {
	f.refs--
	if f.refs > 0 {
		return
	}
	f.destroy()
}

func (f *Frame) destroy() {
	if f.freed {
		return
	}
	f.freed = true
	ctx := f.context
	if ctx.plugin != nil {
		ctx.plugin.FrameFree(f)
	}
	f.pluginData = nil
	if f.xdgToplevel != nil {
		f.xdgToplevel.Destroy()
		f.xdgToplevel = nil
	}
	if f.xdgSurface != nil {
		f.xdgSurface.Destroy()
		f.xdgSurface = nil
	}
	ctx.removeFrame(f)
	f.log.Debugln("Frame destroyed")
}
