// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package loopback

import (
	"errors"
	"slices"
	"testing"

	"github.com/mstarongithub/way2decor/wayland"
)

type recordingRegistry struct {
	globals map[uint32]string
	removed []uint32
}

func (r *recordingRegistry) Global(name uint32, iface string, version uint32) {
	r.globals[name] = iface
}

func (r *recordingRegistry) GlobalRemove(name uint32) {
	r.removed = append(r.removed, name)
	delete(r.globals, name)
}

type recordingToplevel struct {
	sizes  [][2]int32
	states [][]uint32
}

func (t *recordingToplevel) Configure(width, height int32, states []uint32) {
	t.sizes = append(t.sizes, [2]int32{width, height})
	t.states = append(t.states, states)
}

func (t *recordingToplevel) Close() {}

type ackingSurface struct {
	surface wayland.XDGSurface
}

func (s *ackingSurface) Configure(serial uint32) {
	s.surface.AckConfigure(serial)
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	server, err := NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to start server: %s", err)
	}
	t.Cleanup(func() { _ = server.Close() })
	return server
}

func dispatch(t *testing.T, server *Server) {
	t.Helper()
	if _, err := server.Display().DispatchPending(); err != nil {
		t.Fatalf("Dispatch failed: %s", err)
	}
}

func TestRegistryAnnouncesGlobals(t *testing.T) {
	server := newTestServer(t, Options{})
	reg := &recordingRegistry{globals: map[uint32]string{}}
	server.Display().Registry().SetListener(reg)
	dispatch(t, server)

	if len(reg.globals) != len(DefaultGlobals()) {
		t.Errorf("Expected %d globals, got %v", len(DefaultGlobals()), reg.globals)
	}

	name := server.AddGlobal("wl_data_device_manager", 3)
	dispatch(t, server)
	if reg.globals[name] != "wl_data_device_manager" {
		t.Errorf("Late global not announced")
	}

	server.RemoveGlobal(wayland.InterfaceShm)
	dispatch(t, server)
	if len(reg.removed) != 1 {
		t.Errorf("Expected one removal, got %v", reg.removed)
	}
	for _, iface := range reg.globals {
		if iface == wayland.InterfaceShm {
			t.Errorf("Removed global still listed")
		}
	}
}

func TestSyncRunsAfterEarlierEvents(t *testing.T) {
	server := newTestServer(t, Options{})
	display := server.Display()
	reg := &recordingRegistry{globals: map[uint32]string{}}
	display.Registry().SetListener(reg)

	seen := -1
	display.Sync(func(uint32) {
		seen = len(reg.globals)
	})
	cancelled := display.Sync(func(uint32) {
		t.Errorf("Destroyed callback fired")
	})
	cancelled.Destroy()
	dispatch(t, server)

	if seen != len(DefaultGlobals()) {
		t.Errorf("Sync fired before the globals, saw %d", seen)
	}
}

func TestClosedServer(t *testing.T) {
	server := newTestServer(t, Options{})
	display := server.Display()
	if err := server.Close(); err != nil {
		t.Fatalf("Close failed: %s", err)
	}
	if _, err := display.DispatchPending(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := server.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from a second Close, got %v", err)
	}
}

// mapToplevel creates a toplevel the way a client would and commits it
func mapToplevel(t *testing.T, server *Server, wmBase wayland.XDGWmBase) (*Toplevel, *recordingToplevel) {
	t.Helper()
	surface := server.NewSurface()
	xdgSurface := wmBase.GetXDGSurface(surface)
	xdgSurface.SetListener(&ackingSurface{surface: xdgSurface})
	toplevel := xdgSurface.GetToplevel()
	rec := &recordingToplevel{}
	toplevel.SetListener(rec)
	surface.Commit()
	dispatch(t, server)
	return toplevel.(*Toplevel), rec
}

func TestTilingConfiguresNeighbours(t *testing.T) {
	server := newTestServer(t, Options{AutoConfigure: true, Tiling: true})
	wmBase := server.Display().Registry().BindXDGWmBase(4, 1)

	first, firstRec := mapToplevel(t, server, wmBase)
	if got := firstRec.sizes[len(firstRec.sizes)-1]; got != [2]int32{1920, 1080} {
		t.Errorf("Single toplevel should fill the output, got %v", got)
	}

	second, secondRec := mapToplevel(t, server, wmBase)
	if got := firstRec.sizes[len(firstRec.sizes)-1]; got != [2]int32{960, 1080} {
		t.Errorf("First toplevel not shrunk, got %v", got)
	}
	if !slices.Contains(firstRec.states[len(firstRec.states)-1], wayland.ToplevelStateTiledRight) {
		t.Errorf("First toplevel not tiled on its right edge: %v", firstRec.states[len(firstRec.states)-1])
	}
	if !slices.Contains(secondRec.states[len(secondRec.states)-1], wayland.ToplevelStateTiledLeft) {
		t.Errorf("Second toplevel not tiled on its left edge: %v", secondRec.states[len(secondRec.states)-1])
	}
	if second.AckedSerial() == 0 || first.AckedSerial() == 0 {
		t.Errorf("Configures not acknowledged")
	}

	second.Destroy()
	dispatch(t, server)
	if got := firstRec.sizes[len(firstRec.sizes)-1]; got != [2]int32{1920, 1080} {
		t.Errorf("Remaining toplevel should fill the output again, got %v", got)
	}
	if len(server.Tiles()) != 1 {
		t.Errorf("Expected one tile, got %v", server.Tiles())
	}
}

func TestRequestString(t *testing.T) {
	r := Request{Object: "xdg_toplevel", ID: 7, Op: "set_title", Args: []any{"hello", 3}}
	if got := r.String(); got != "xdg_toplevel@7.set_title(hello, 3)" {
		t.Errorf("Unexpected formatting %q", got)
	}
}
