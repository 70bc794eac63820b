// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package loopback is an in-memory compositor speaking the wayland package
// interfaces. Requests are recorded in order and events are queued behind an
// eventfd, so clients can be driven with their normal poll based dispatch.
package loopback

import (
	"container/list"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mstarongithub/way2decor/tiler"
	"github.com/mstarongithub/way2decor/wayland"
	"github.com/sirupsen/logrus"
	"gitlab.com/mstarongitlab/goutils/sliceutils"
	"golang.org/x/sys/unix"
)

type CursorMode int

const (
	CursorModePassThrough CursorMode = iota
	CursorModeMove
	CursorModeResize
)

type Options struct {
	// Interfaces to advertise. Nil means DefaultGlobals
	Globals []string
	// Formats announced on wl_shm binds. Nil means ARGB8888 and XRGB8888
	ShmFormats []uint32
	// Answer map, maximize and fullscreen requests with configure events
	// the way a simple stacking compositor would
	AutoConfigure bool
	// Size handed out for maximized and fullscreen toplevels
	OutputWidth  int32
	OutputHeight int32
	// Lay mapped toplevels out in a split tree and tell them which edges
	// are tiled. Only has an effect together with AutoConfigure
	Tiling bool
}

type global struct {
	name    uint32
	iface   string
	version uint32
}

type Server struct {
	opts    Options
	globals []global
	efd     int

	queue    []func()
	requests []Request
	tracer   func(Request)

	nextID     uint32
	nextName   uint32
	nextSerial uint32

	registries   []*registry
	wmBases      []*xdgWmBase
	topLevelList list.List

	cursorMode      CursorMode
	grabbedTopLevel *Toplevel
	resizeEdges     uint32

	tree *tiler.Tree

	log *logrus.Entry
}

var ErrClosed = errors.New("loopback server closed")

// DefaultGlobals is everything way2decor and its plugins may look for
func DefaultGlobals() []string {
	return []string{
		wayland.InterfaceCompositor,
		wayland.InterfaceSubcompositor,
		wayland.InterfaceShm,
		wayland.InterfaceXDGWmBase,
		wayland.InterfaceSeat,
		wayland.InterfaceOutput,
	}
}

func NewServer(opts Options) (*Server, error) {
	if opts.Globals == nil {
		opts.Globals = DefaultGlobals()
	}
	if opts.ShmFormats == nil {
		opts.ShmFormats = []uint32{wayland.ShmFormatARGB8888, wayland.ShmFormatXRGB8888}
	}
	if opts.OutputWidth == 0 || opts.OutputHeight == 0 {
		opts.OutputWidth, opts.OutputHeight = 1920, 1080
	}

	efd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("failed to create eventfd: %w", err)
	}

	server := &Server{
		opts:       opts,
		efd:        efd,
		nextID:     1,
		nextName:   1,
		nextSerial: 1,
		log:        logrus.WithField("component", "loopback"),
	}
	server.topLevelList.Init()
	if opts.Tiling {
		server.tree = tiler.NewTree(tiler.Size{Width: opts.OutputWidth, Height: opts.OutputHeight}, tiler.DirectionHorizontal)
	}
	for _, iface := range opts.Globals {
		server.AddGlobal(iface, 1)
	}
	return server, nil
}

// Display returns the client end of the connection
func (server *Server) Display() wayland.Display {
	return &display{server: server}
}

// Close releases the eventfd. The display must not be used afterwards
func (server *Server) Close() error {
	if server.efd < 0 {
		return ErrClosed
	}
	err := unix.Close(server.efd)
	server.efd = -1
	return err
}

// SetTracer installs a function receiving every request as it is recorded
func (server *Server) SetTracer(tracer func(Request)) {
	server.tracer = tracer
}

func (server *Server) Requests() []Request {
	return append([]Request(nil), server.requests...)
}

func (server *Server) ClearRequests() {
	server.requests = nil
}

// Toplevels in stacking order, focused first
func (server *Server) Toplevels() []*Toplevel {
	out := make([]*Toplevel, 0, server.topLevelList.Len())
	for e := server.topLevelList.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Toplevel))
	}
	return out
}

func (server *Server) CursorMode() CursorMode {
	return server.cursorMode
}

// Grab returns the toplevel and edges of the interactive operation in progress
func (server *Server) Grab() (*Toplevel, uint32) {
	return server.grabbedTopLevel, server.resizeEdges
}

// AddGlobal advertises a new global to existing and future registries
func (server *Server) AddGlobal(iface string, version uint32) uint32 {
	g := global{name: server.nextName, iface: iface, version: version}
	server.nextName++
	server.globals = append(server.globals, g)
	for _, r := range server.registries {
		server.announce(r, g)
	}
	return g.name
}

// RemoveGlobal withdraws every global implementing iface
func (server *Server) RemoveGlobal(iface string) {
	removed := sliceutils.Filter(server.globals, func(g global) bool {
		return g.iface == iface
	})
	server.globals = sliceutils.Filter(server.globals, func(g global) bool {
		return g.iface != iface
	})
	for _, r := range server.registries {
		for _, g := range removed {
			reg, name := r, g.name
			server.post(func() {
				if reg.listener != nil && !reg.destroyed {
					reg.listener.GlobalRemove(name)
				}
			})
		}
	}
}

func (server *Server) lookupGlobal(name uint32) (global, bool) {
	found := sliceutils.Filter(server.globals, func(g global) bool {
		return g.name == name
	})
	if len(found) == 0 {
		return global{}, false
	}
	return found[0], true
}

func (server *Server) announce(r *registry, g global) {
	server.post(func() {
		if r.listener != nil && !r.destroyed {
			r.listener.Global(g.name, g.iface, g.version)
		}
	})
}

// Configure sends a toplevel configure followed by the xdg_surface configure
// closing the round. Returns the serial the client has to acknowledge
func (server *Server) Configure(topLevel *Toplevel, width, height int32, states ...uint32) uint32 {
	serial := server.newSerial()
	statesCopy := append([]uint32(nil), states...)
	logrus.WithFields(logrus.Fields{
		"toplevel": topLevel.id,
		"width":    width,
		"height":   height,
		"states":   statesCopy,
		"serial":   serial,
	}).Debugln("Configure")
	server.post(func() {
		if topLevel.listener != nil && !topLevel.destroyed {
			topLevel.listener.Configure(width, height, statesCopy)
		}
	})
	server.ConfigureSurface(topLevel, serial)
	return serial
}

// ConfigureSurface ends a round without a toplevel configure
func (server *Server) ConfigureSurface(topLevel *Toplevel, serial uint32) {
	xdgSurface := topLevel.xdgSurface
	topLevel.sentSerials = append(topLevel.sentSerials, serial)
	server.post(func() {
		if xdgSurface.listener != nil && !xdgSurface.destroyed {
			xdgSurface.listener.Configure(serial)
		}
	})
}

func (server *Server) SendClose(topLevel *Toplevel) {
	server.post(func() {
		if topLevel.listener != nil && !topLevel.destroyed {
			topLevel.listener.Close()
		}
	})
}

// Release tells the client the compositor is done reading buffer
func (server *Server) Release(b wayland.Buffer) {
	buf, ok := b.(*buffer)
	if !ok || buf.released {
		return
	}
	buf.released = true
	server.post(func() {
		if buf.listener != nil && !buf.destroyed {
			buf.listener.Release()
		}
	})
}

// Ping sends an xdg_wm_base ping on every bound wm base
func (server *Server) Ping() uint32 {
	serial := server.newSerial()
	for _, base := range server.wmBases {
		b := base
		server.post(func() {
			if b.listener != nil {
				b.listener.Ping(serial)
			}
		})
	}
	return serial
}

func (server *Server) newSerial() uint32 {
	serial := server.nextSerial
	server.nextSerial++
	return serial
}

func (server *Server) newID() uint32 {
	id := server.nextID
	server.nextID++
	return id
}

func (server *Server) record(object string, id uint32, op string, args ...any) {
	req := Request{Object: object, ID: id, Op: op, Args: args}
	server.requests = append(server.requests, req)
	if server.tracer != nil {
		server.tracer(req)
	}
}

func (server *Server) post(event func()) {
	server.queue = append(server.queue, event)
	if server.efd < 0 {
		return
	}
	one := binary.NativeEndian.AppendUint64(nil, 1)
	if _, err := unix.Write(server.efd, one); err != nil && !errors.Is(err, unix.EAGAIN) {
		server.log.WithError(err).Warnln("Failed to signal eventfd")
	}
}

func (server *Server) inTopLevel(topLevel *Toplevel) *list.Element {
	for e := server.topLevelList.Front(); e != nil; e = e.Next() {
		if e.Value.(*Toplevel) == topLevel {
			return e
		}
	}
	return nil
}

func (server *Server) removeTopLevel(topLevel *Toplevel) {
	if e := server.inTopLevel(topLevel); e != nil {
		server.topLevelList.Remove(e)
	}
	if server.grabbedTopLevel == topLevel {
		server.resetCursorMode()
	}
	if server.tree != nil && server.tree.FindWindow(topLevel.id) != nil {
		if err := server.tree.RemoveWindow(topLevel.id); err != nil {
			server.log.WithError(err).Warnln("Failed to untile toplevel")
		}
		server.retile(nil)
	}
}

// Tiles returns the current tiling layout, nil without Tiling
func (server *Server) Tiles() []tiler.Tile {
	if server.tree == nil {
		return nil
	}
	return server.tree.Layout()
}

// retile hands every tiled toplevel its new place and configures those whose
// place changed, except skip
func (server *Server) retile(skip *Toplevel) {
	for _, tile := range server.tree.Layout() {
		topLevel := server.findTopLevel(tile.WindowID)
		if topLevel == nil {
			continue
		}
		changed := topLevel.applyTile(tile)
		if !changed || topLevel == skip || !server.opts.AutoConfigure || !topLevel.initialCommitted {
			continue
		}
		w, h := topLevel.size()
		server.Configure(topLevel, w, h, topLevel.states()...)
	}
}

func (server *Server) findTopLevel(id uint32) *Toplevel {
	for e := server.topLevelList.Front(); e != nil; e = e.Next() {
		if t := e.Value.(*Toplevel); t.id == id {
			return t
		}
	}
	return nil
}

// Focus raises topLevel and moves the activated state over to it
func (server *Server) Focus(topLevel *Toplevel) {
	if topLevel == nil {
		return
	}
	front := server.topLevelList.Front()
	if front != nil {
		prev := front.Value.(*Toplevel)
		if prev == topLevel && topLevel.activated {
			/* Don't re-focus an already focused toplevel. */
			return
		}
		if prev != topLevel && prev.activated {
			prev.activated = false
			if server.opts.AutoConfigure {
				w, h := prev.size()
				server.Configure(prev, w, h, prev.states()...)
			}
		}
	}

	if e := server.inTopLevel(topLevel); e != nil {
		server.topLevelList.MoveToFront(e)
	} else {
		server.topLevelList.PushFront(topLevel)
	}
	topLevel.activated = true
	if server.opts.AutoConfigure {
		w, h := topLevel.size()
		server.Configure(topLevel, w, h, topLevel.states()...)
	}
}

func (server *Server) handleMapXDGToplevel(topLevel *Toplevel) {
	/* The initial commit of a toplevel, the compositor answers it with the
	 * first configure. */
	logrus.WithFields(logrus.Fields{
		"toplevel":                topLevel.id,
		"server.topLevelList.Len": server.topLevelList.Len(),
	}).Debugln("handleMapXDGToplevel")
	topLevel.initialCommitted = true
	if server.inTopLevel(topLevel) == nil {
		server.topLevelList.PushBack(topLevel)
	}
	if server.tree != nil {
		if err := server.tree.AddWindow(topLevel.id); err != nil {
			server.log.WithError(err).Warnln("Failed to tile toplevel")
		} else {
			// The new toplevel gets its configure from the focus change
			server.retile(topLevel)
		}
	}
	if server.opts.AutoConfigure {
		server.Focus(topLevel)
	}
}

func (server *Server) handleRequestMaximize(topLevel *Toplevel, maximized bool) {
	topLevel.maximized = maximized
	if !server.opts.AutoConfigure || !topLevel.initialCommitted {
		return
	}
	w, h := topLevel.size()
	server.Configure(topLevel, w, h, topLevel.states()...)
}

func (server *Server) handleRequestFullscreen(topLevel *Toplevel, fullscreen bool) {
	topLevel.fullscreen = fullscreen
	if !server.opts.AutoConfigure || !topLevel.initialCommitted {
		return
	}
	w, h := topLevel.size()
	server.Configure(topLevel, w, h, topLevel.states()...)
}

func (server *Server) beginInteractive(topLevel *Toplevel, mode CursorMode, edges uint32) {
	/* Deny move/resize requests from unfocused clients. */
	if front := server.topLevelList.Front(); front == nil || front.Value.(*Toplevel) != topLevel {
		logrus.WithField("toplevel", topLevel.id).Debugln("Denied interactive request of unfocused toplevel")
		return
	}
	server.grabbedTopLevel = topLevel
	server.cursorMode = mode
	server.resizeEdges = edges
}

func (server *Server) resetCursorMode() {
	server.cursorMode = CursorModePassThrough
	server.grabbedTopLevel = nil
	server.resizeEdges = 0
}

// EndInteractive stops a move or resize grab, like a button release would
func (server *Server) EndInteractive() {
	server.resetCursorMode()
}
