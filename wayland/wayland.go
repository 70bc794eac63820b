// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package wayland describes the display protocol objects way2decor talks to.
// The wire encoding is left to whatever client library implements these
// interfaces; the loopback subpackage provides an in-memory implementation.
package wayland

// Interface names as advertised by the registry
const (
	InterfaceCompositor    = "wl_compositor"
	InterfaceSubcompositor = "wl_subcompositor"
	InterfaceShm           = "wl_shm"
	InterfaceSeat          = "wl_seat"
	InterfaceOutput        = "wl_output"
	InterfaceXDGWmBase     = "xdg_wm_base"
)

// xdg_toplevel.state values
const (
	ToplevelStateMaximized   = uint32(1)
	ToplevelStateFullscreen  = uint32(2)
	ToplevelStateResizing    = uint32(3)
	ToplevelStateActivated   = uint32(4)
	ToplevelStateTiledLeft   = uint32(5)
	ToplevelStateTiledRight  = uint32(6)
	ToplevelStateTiledTop    = uint32(7)
	ToplevelStateTiledBottom = uint32(8)
)

// xdg_toplevel.resize_edge values
const (
	ResizeEdgeNone        = uint32(0)
	ResizeEdgeTop         = uint32(1)
	ResizeEdgeBottom      = uint32(2)
	ResizeEdgeLeft        = uint32(4)
	ResizeEdgeTopLeft     = uint32(5)
	ResizeEdgeBottomLeft  = uint32(6)
	ResizeEdgeRight       = uint32(8)
	ResizeEdgeTopRight    = uint32(9)
	ResizeEdgeBottomRight = uint32(10)
)

// wl_shm.format values
const (
	ShmFormatARGB8888 = uint32(0)
	ShmFormatXRGB8888 = uint32(1)
)

type (
	// The connection to the display server
	Display interface {
		// Registry creates a new registry object. Every global currently
		// advertised is announced to its listener.
		Registry() Registry
		// Sync requests a round-trip. done runs once all requests sent
		// before it have been processed by the server.
		Sync(done func(data uint32)) Callback
		// Fd returns the descriptor that becomes readable when events arrive
		Fd() int
		// Flush sends buffered requests
		Flush() error
		// DispatchPending runs the listeners of all queued events
		DispatchPending() (int, error)
		// ReadEvents moves events from the connection into the queue
		ReadEvents() error
	}

	RegistryListener interface {
		Global(name uint32, iface string, version uint32)
		GlobalRemove(name uint32)
	}

	Registry interface {
		SetListener(l RegistryListener)
		BindCompositor(name, version uint32) Compositor
		BindSubcompositor(name, version uint32) Subcompositor
		BindShm(name, version uint32) Shm
		BindXDGWmBase(name, version uint32) XDGWmBase
		Destroy()
	}

	Callback interface {
		Destroy()
	}

	Compositor interface {
		CreateSurface() Surface
	}

	Subcompositor interface {
		GetSubsurface(surface, parent Surface) Subsurface
	}

	Surface interface {
		ID() uint32
		// Attach a buffer, nil detaches the current content
		Attach(buffer Buffer, x, y int32)
		Damage(x, y, width, height int32)
		Commit()
		Destroy()
	}

	Subsurface interface {
		SetPosition(x, y int32)
		PlaceBelow(sibling Surface)
		Destroy()
	}

	ShmListener interface {
		Format(format uint32)
	}

	Shm interface {
		SetListener(l ShmListener)
		CreatePool(fd int, size int32) ShmPool
	}

	ShmPool interface {
		CreateBuffer(offset, width, height, stride int32, format uint32) Buffer
		Destroy()
	}

	BufferListener interface {
		Release()
	}

	Buffer interface {
		ID() uint32
		SetListener(l BufferListener)
		Destroy()
	}

	XDGWmBaseListener interface {
		Ping(serial uint32)
	}

	XDGWmBase interface {
		SetListener(l XDGWmBaseListener)
		Pong(serial uint32)
		GetXDGSurface(surface Surface) XDGSurface
		Destroy()
	}

	XDGSurfaceListener interface {
		Configure(serial uint32)
	}

	XDGSurface interface {
		SetListener(l XDGSurfaceListener)
		GetToplevel() XDGToplevel
		AckConfigure(serial uint32)
		SetWindowGeometry(x, y, width, height int32)
		Destroy()
	}

	XDGToplevelListener interface {
		Configure(width, height int32, states []uint32)
		Close()
	}

	XDGToplevel interface {
		SetListener(l XDGToplevelListener)
		// SetParent with nil removes the parent
		SetParent(parent XDGToplevel)
		SetTitle(title string)
		SetAppID(appID string)
		ShowWindowMenu(seat Seat, serial uint32, x, y int32)
		Move(seat Seat, serial uint32)
		Resize(seat Seat, serial uint32, edges uint32)
		SetMaxSize(width, height int32)
		SetMinSize(width, height int32)
		SetMaximized()
		UnsetMaximized()
		// SetFullscreen with a nil output lets the compositor choose
		SetFullscreen(output Output)
		UnsetFullscreen()
		SetMinimized()
		Destroy()
	}

	Seat interface {
		Name() string
	}

	Output interface {
		Name() string
	}
)
