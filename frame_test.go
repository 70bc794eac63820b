// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package decor

import (
	"errors"
	"testing"

	"github.com/mstarongithub/way2decor/wayland"
	"github.com/mstarongithub/way2decor/wayland/loopback"
)

// mappedApp returns a bound and mapped window on a compositor that only
// configures when told to
func mappedApp(t *testing.T, env *testEnv, autoCommit bool) *testApp {
	t.Helper()
	app := env.decorate(t, autoCommit)
	app.frame.Map()
	env.pump(t)
	if app.frame.LifecycleState() != FrameMapPending {
		t.Fatalf("Expected map-pending frame, got %s", app.frame.LifecycleState())
	}
	return app
}

func TestFrameConfigureCoalescing(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, nil)
	app := mappedApp(t, env, false)
	toplevel := app.toplevel(t)

	serial := env.server.Configure(toplevel, 800, 600, wayland.ToplevelStateActivated, wayland.ToplevelStateMaximized)
	env.pump(t)
	if len(app.configures) != 1 {
		t.Fatalf("Expected one configuration per round, got %d", len(app.configures))
	}
	conf := app.configures[0]
	if conf.Serial() != serial {
		t.Errorf("Expected serial %d, got %d", serial, conf.Serial())
	}
	if w, h, ok := conf.WindowSize(); !ok || w != 800 || h != 600 {
		t.Errorf("Expected 800x600, got %dx%d (%v)", w, h, ok)
	}
	state, ok := conf.WindowState()
	if !ok || state != WindowStateActive|WindowStateMaximized {
		t.Errorf("Expected active|maximized, got %s (%v)", state, ok)
	}

	// A round without toplevel configure must not inherit the last one
	env.server.ConfigureSurface(toplevel, 99)
	env.pump(t)
	conf = app.lastConfigure(t)
	if _, _, ok := conf.WindowSize(); ok {
		t.Errorf("Size leaked into the next round")
	}
	if _, ok := conf.WindowState(); ok {
		t.Errorf("Window state leaked into the next round")
	}
	if conf.Serial() != 99 {
		t.Errorf("Expected serial 99, got %d", conf.Serial())
	}
}

func TestFrameZeroSizeLeavesChoiceToClient(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, nil)
	app := mappedApp(t, env, false)
	env.server.Configure(app.toplevel(t), 0, 0)
	env.pump(t)

	conf := app.lastConfigure(t)
	if _, _, ok := conf.WindowSize(); ok {
		t.Errorf("0x0 configure should not carry a size")
	}
	if _, _, ok := conf.ContentSize(app.frame); ok {
		t.Errorf("Fallback plugin computed a content size from 0x0")
	}
}

func TestFrameCommitAcksFirst(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, nil)
	app := mappedApp(t, env, true)
	toplevel := app.toplevel(t)
	env.server.ClearRequests()

	serial := env.server.Configure(toplevel, 800, 600)
	env.pump(t)
	if app.commitErr != nil {
		t.Fatalf("Commit failed: %s", app.commitErr)
	}

	reqs := env.server.Requests()
	ackAt := loopback.IndexOf(reqs, 0, "xdg_surface", "ack_configure")
	commitAt := loopback.IndexOf(reqs, 0, "wl_surface", "commit")
	if ackAt < 0 || commitAt < 0 || commitAt < ackAt {
		t.Errorf("Expected ack_configure (%d) before commit (%d)", ackAt, commitAt)
	}
	if toplevel.AckedSerial() != serial {
		t.Errorf("Acked serial %d, expected %d", toplevel.AckedSerial(), serial)
	}
	if app.frame.LifecycleState() != FrameMapped {
		t.Errorf("Expected mapped frame after first configured commit, got %s", app.frame.LifecycleState())
	}
	if app.frame.ContentWidth() != 800 || app.frame.ContentHeight() != 600 {
		t.Errorf("Expected 800x600 content, got %dx%d", app.frame.ContentWidth(), app.frame.ContentHeight())
	}
	if toplevel.Geometry() != [4]int32{0, 0, 800, 600} {
		t.Errorf("Undecorated geometry should equal the content, got %v", toplevel.Geometry())
	}
	if app.commits != 1 {
		t.Errorf("Commit callback ran %d times", app.commits)
	}
}

func TestFrameCommitBeforeBind(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, nil)
	app := env.decorate(t, false)
	if err := app.frame.Commit(NewState(10, 10), nil); !errors.Is(err, ErrFrameNotBound) {
		t.Errorf("Expected ErrFrameNotBound, got %v", err)
	}
}

func TestFrameMapIsIdempotent(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, nil)
	app := env.decorate(t, true)
	env.pump(t)
	if app.frame.LifecycleState() != FrameBound {
		t.Fatalf("Expected bound frame, got %s", app.frame.LifecycleState())
	}

	app.frame.Map()
	app.frame.Map()
	if app.surface.Commits() != 1 {
		t.Errorf("Expected one initial commit, got %d", app.surface.Commits())
	}

	env.server.Configure(app.toplevel(t), 300, 200)
	env.pump(t)
	commits := app.surface.Commits()
	app.frame.Map()
	if app.surface.Commits() != commits {
		t.Errorf("Map of a mapped frame committed again")
	}
	if app.frame.LifecycleState() != FrameMapped {
		t.Errorf("Expected mapped frame, got %s", app.frame.LifecycleState())
	}
}

func TestFrameAutoConfigureMapsWindow(t *testing.T) {
	env := newTestEnv(t, loopback.Options{AutoConfigure: true}, nil)
	app := env.decorate(t, true)
	app.frame.Map()
	env.pump(t)

	if app.frame.LifecycleState() != FrameMapped {
		t.Fatalf("Expected mapped frame, got %s", app.frame.LifecycleState())
	}
	if app.frame.ContentWidth() != 640 || app.frame.ContentHeight() != 480 {
		t.Errorf("Expected client chosen 640x480, got %dx%d", app.frame.ContentWidth(), app.frame.ContentHeight())
	}
	if !app.frame.WindowState().Has(WindowStateActive) {
		t.Errorf("Focused window should be active, got %s", app.frame.WindowState())
	}

	app.frame.SetMaximized()
	env.pump(t)
	if !app.frame.WindowState().Has(WindowStateMaximized) || app.frame.IsFloating() {
		t.Errorf("Expected maximized window, got %s", app.frame.WindowState())
	}
	if app.frame.ContentWidth() != 1920 || app.frame.ContentHeight() != 1080 {
		t.Errorf("Maximized content should fill the output, got %dx%d", app.frame.ContentWidth(), app.frame.ContentHeight())
	}
}

func TestFrameLimitsAndGeometryFollowBorders(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, withTestPlugin)
	app := mappedApp(t, env, true)
	toplevel := app.toplevel(t)

	if err := app.frame.SetMinContentSize(100, 100); err != nil {
		t.Fatalf("Failed to set min size: %s", err)
	}
	if err := app.frame.SetMaxContentSize(300, 200); err != nil {
		t.Fatalf("Failed to set max size: %s", err)
	}
	env.server.Configure(toplevel, 400, 300)
	env.pump(t)

	if app.frame.ContentWidth() != 390 || app.frame.ContentHeight() != 275 {
		t.Errorf("Expected content 390x275, got %dx%d", app.frame.ContentWidth(), app.frame.ContentHeight())
	}
	if toplevel.Geometry() != [4]int32{-5, -20, 400, 300} {
		t.Errorf("Unexpected window geometry %v", toplevel.Geometry())
	}
	if w, h := toplevel.MinSize(); w != 110 || h != 125 {
		t.Errorf("Expected min size 110x125, got %dx%d", w, h)
	}
	if w, h := toplevel.MaxSize(); w != 310 || h != 225 {
		t.Errorf("Expected max size 310x225, got %dx%d", w, h)
	}

	sent := loopback.Count(env.server.Requests(), "xdg_toplevel", "set_min_size")
	if err := app.frame.Commit(nil, nil); err != nil {
		t.Fatalf("Commit failed: %s", err)
	}
	if n := loopback.Count(env.server.Requests(), "xdg_toplevel", "set_min_size"); n != sent {
		t.Errorf("Unchanged limits were sent again")
	}

	app.frame.UnsetCapabilities(ActionResize)
	if err := app.frame.Commit(nil, nil); err != nil {
		t.Fatalf("Commit failed: %s", err)
	}
	minW, minH := toplevel.MinSize()
	maxW, maxH := toplevel.MaxSize()
	if minW != 400 || minH != 300 || maxW != 400 || maxH != 300 {
		t.Errorf("Non-resizable window should be pinned to 400x300, got min %dx%d max %dx%d", minW, minH, maxW, maxH)
	}
	if env.plugin.properties == 0 {
		t.Errorf("Plugin not told about the capability change")
	}
}

func TestFrameFullscreenDropsBorders(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, withTestPlugin)
	app := mappedApp(t, env, true)
	toplevel := app.toplevel(t)

	env.server.Configure(toplevel, 1000, 800, wayland.ToplevelStateFullscreen)
	env.pump(t)
	// The test plugin sizes content with borders, the geometry uses the
	// fullscreen borders
	if toplevel.Geometry() != [4]int32{0, 0, 990, 775} {
		t.Errorf("Unexpected fullscreen geometry %v", toplevel.Geometry())
	}
	if x, y := app.frame.TranslateCoordinate(3, 4); x != 3 || y != 4 {
		t.Errorf("Plugin without translator should map identically, got %d,%d", x, y)
	}
}

func TestFrameSizeConstraintErrors(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, nil)
	app := env.decorate(t, false)
	frame := app.frame

	if err := frame.SetMinContentSize(-1, 10); !errors.Is(err, ErrInvalidFrameConfiguration) {
		t.Errorf("Expected ErrInvalidFrameConfiguration for negative size, got %v", err)
	}
	if err := frame.SetMaxContentSize(100, 100); err != nil {
		t.Fatalf("Failed to set max size: %s", err)
	}
	if err := frame.SetMinContentSize(200, 50); !errors.Is(err, ErrInvalidFrameConfiguration) {
		t.Errorf("Expected error for min above max, got %v", err)
	}
	if err := frame.SetMinContentSize(50, 50); err != nil {
		t.Errorf("Valid min size rejected: %s", err)
	}
	if err := frame.SetMaxContentSize(40, 0); !errors.Is(err, ErrInvalidFrameConfiguration) {
		t.Errorf("Expected error for max below min, got %v", err)
	}
	if err := frame.SetMaxContentSize(0, 0); err != nil {
		t.Errorf("Removing the maximum was rejected: %s", err)
	}
	if w, h := frame.MinContentSize(); w != 50 || h != 50 {
		t.Errorf("Rejected calls changed the min size to %dx%d", w, h)
	}

	if len(env.errors) != 3 {
		t.Fatalf("Expected 3 reported errors, got %d", len(env.errors))
	}
	for _, e := range env.errors {
		if e.kind != ErrorInvalidFrameConfiguration {
			t.Errorf("Unexpected error kind %s", e.kind)
		}
	}
	if env.ctx.Failed() {
		t.Errorf("Invalid requests shouldn't break the context")
	}
}

func TestFrameInteractiveResize(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, nil)
	app := mappedApp(t, env, false)
	seat := loopback.Seat("seat0")
	env.server.ClearRequests()

	err := app.frame.RequestInteractiveResize(seat, 7, ResizeEdge(42))
	if !errors.Is(err, ErrInvalidResizeEdge) {
		t.Errorf("Expected ErrInvalidResizeEdge, got %v", err)
	}
	if len(env.errors) != 1 || env.errors[0].kind != ErrorInvalidFrameConfiguration {
		t.Errorf("Invalid edge not reported: %+v", env.errors)
	}
	if loopback.Count(env.server.Requests(), "xdg_toplevel", "resize") != 0 {
		t.Errorf("Invalid edge reached the compositor")
	}

	if err = app.frame.RequestInteractiveResize(seat, 7, ResizeEdgeBottomRight); err != nil {
		t.Fatalf("Valid resize failed: %s", err)
	}
	reqs := env.server.Requests()
	i := loopback.IndexOf(reqs, 0, "xdg_toplevel", "resize")
	if i < 0 {
		t.Fatalf("Resize never sent")
	}
	if reqs[i].Args[0] != any("seat0") || reqs[i].Args[2] != any(wayland.ResizeEdgeBottomRight) {
		t.Errorf("Unexpected resize arguments %v", reqs[i].Args)
	}
	if mode := env.server.CursorMode(); mode != loopback.CursorModeResize {
		t.Errorf("Compositor didn't start a resize grab")
	}

	if err = app.frame.RequestInteractiveMove(seat, 8); err != nil {
		t.Errorf("Move failed: %s", err)
	}
	if env.server.CursorMode() != loopback.CursorModeMove {
		t.Errorf("Compositor didn't start a move grab")
	}
}

func TestFrameCloseNotifiedOnce(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, nil)
	app := mappedApp(t, env, true)
	toplevel := app.toplevel(t)

	env.server.SendClose(toplevel)
	env.server.SendClose(toplevel)
	env.pump(t)
	app.frame.Close()

	if app.closes != 1 {
		t.Errorf("Close callback ran %d times", app.closes)
	}
	if app.frame.LifecycleState() != FrameClosed {
		t.Errorf("Expected closed frame, got %s", app.frame.LifecycleState())
	}
	if err := app.frame.Commit(NewState(10, 10), nil); !errors.Is(err, ErrFrameClosed) {
		t.Errorf("Expected ErrFrameClosed, got %v", err)
	}

	env.server.Configure(toplevel, 500, 500)
	env.pump(t)
	if len(app.configures) != 0 {
		t.Errorf("Closed frame still got configured")
	}
}

func TestFrameUnrefFreesPluginStateFirst(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, withTestPlugin)
	app := mappedApp(t, env, false)
	toplevel := app.toplevel(t)

	if app.frame.PluginData() != "test" {
		t.Errorf("Plugin data not stored, got %v", app.frame.PluginData())
	}

	app.frame.Ref()
	app.frame.Unref()
	if len(env.plugin.freed) != 0 {
		t.Fatalf("Frame freed while referenced")
	}

	app.frame.Unref()
	if len(env.plugin.freed) != 1 {
		t.Fatalf("Expected one freed frame, got %v", env.plugin.freed)
	}
	reqs := env.server.Requests()
	toplevelAt := loopback.IndexOf(reqs, 0, "xdg_toplevel", "destroy")
	surfaceAt := loopback.IndexOf(reqs, 0, "xdg_surface", "destroy")
	if toplevelAt < env.plugin.freedAt[0] {
		t.Errorf("Toplevel destroyed before the plugin freed its part")
	}
	if surfaceAt < toplevelAt {
		t.Errorf("xdg_surface destroyed before its toplevel")
	}
	if !toplevel.Destroyed() {
		t.Errorf("Toplevel not destroyed")
	}
	if len(env.ctx.Frames()) != 0 {
		t.Errorf("Context still lists the frame")
	}
}

func TestFrameTitleReachesPlugin(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, withTestPlugin)
	app := mappedApp(t, env, false)
	before := env.plugin.properties

	app.frame.SetTitle("hello")
	if env.plugin.properties != before+1 {
		t.Errorf("Plugin not told about the title change")
	}
	if app.toplevel(t).Title() != "hello" {
		t.Errorf("Title not sent to the compositor")
	}

	app.frame.SetCapabilities(ActionMove)
	if env.plugin.properties != before+1 {
		t.Errorf("Setting an already present capability notified the plugin")
	}
}

func TestFrameParent(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, nil)
	parent := mappedApp(t, env, false)
	child := mappedApp(t, env, false)

	child.frame.SetParent(parent.frame)
	if child.toplevel(t).Parent() != parent.toplevel(t) {
		t.Errorf("Parent not sent to the compositor")
	}
	child.frame.SetParent(nil)
	if child.toplevel(t).Parent() != nil {
		t.Errorf("Parent not removed")
	}
}

func TestFrameTiledByCompositor(t *testing.T) {
	env := newTestEnv(t, loopback.Options{AutoConfigure: true, Tiling: true}, nil)
	first := env.decorate(t, true)
	first.frame.Map()
	env.pump(t)
	if !first.frame.IsFloating() {
		t.Errorf("Single tiled window shouldn't report tiled edges, got %s", first.frame.WindowState())
	}

	second := env.decorate(t, true)
	second.frame.Map()
	env.pump(t)

	if !first.frame.WindowState().Has(WindowStateTiledRight) {
		t.Errorf("Left window should be tiled on the right, got %s", first.frame.WindowState())
	}
	if !second.frame.WindowState().Has(WindowStateTiledLeft) {
		t.Errorf("Right window should be tiled on the left, got %s", second.frame.WindowState())
	}
	if DecorationTypeFor(second.frame.WindowState()) != DecorationTypeTitleOnly {
		t.Errorf("Tiled windows should get a title-only decoration")
	}
	if first.frame.ContentWidth() != 960 || second.frame.ContentWidth() != 960 {
		t.Errorf("Expected two 960 wide tiles, got %d and %d", first.frame.ContentWidth(), second.frame.ContentWidth())
	}

	second.frame.Unref()
	env.pump(t)
	if !first.frame.IsFloating() || first.frame.ContentWidth() != 1920 {
		t.Errorf("Remaining window should fill the screen untiled, got %s at %d", first.frame.WindowState(), first.frame.ContentWidth())
	}
}

func TestDecorationTypeFor(t *testing.T) {
	tests := []struct {
		state WindowState
		want  DecorationType
	}{
		{WindowStateNone, DecorationTypeFull},
		{WindowStateActive, DecorationTypeFull},
		{WindowStateMaximized, DecorationTypeTitleOnly},
		{WindowStateTiledLeft | WindowStateActive, DecorationTypeTitleOnly},
		{WindowStateFullscreen, DecorationTypeNone},
		{WindowStateFullscreen | WindowStateMaximized, DecorationTypeNone},
	}
	for _, tt := range tests {
		if got := DecorationTypeFor(tt.state); got != tt.want {
			t.Errorf("DecorationTypeFor(%s) = %s, expected %s", tt.state, got, tt.want)
		}
	}
}

func TestParseNames(t *testing.T) {
	edge, err := ParseResizeEdge("bottom-right")
	if err != nil || edge != ResizeEdgeBottomRight {
		t.Errorf("Failed to parse edge: %v %v", edge, err)
	}
	if _, err = ParseResizeEdge("middle"); err == nil {
		t.Errorf("Parsed an unknown edge")
	}
	state, err := ParseWindowState(WindowStateTiledTop.String())
	if err != nil || state != WindowStateTiledTop {
		t.Errorf("Window state didn't round trip: %v %v", state, err)
	}
	capability, err := ParseCapability("fullscreen")
	if err != nil || capability != ActionFullscreen {
		t.Errorf("Failed to parse capability: %v %v", capability, err)
	}
	if s := (ActionMove | ActionClose).String(); s != "move|close" {
		t.Errorf("Unexpected capability string %q", s)
	}
}
