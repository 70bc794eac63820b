// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package decor

import (
	"errors"
	"testing"

	"github.com/mstarongithub/way2decor/config"
	"github.com/mstarongithub/way2decor/wayland"
	"github.com/mstarongithub/way2decor/wayland/loopback"
)

func TestContextBindsFramesAfterDiscovery(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, nil)
	app := env.decorate(t, false)
	app.frame.SetTitle("early")
	app.frame.Map()

	if app.frame.LifecycleState() != FrameUnbound {
		t.Errorf("Frame should wait for discovery, is %s", app.frame.LifecycleState())
	}
	if app.surface.Commits() != 0 {
		t.Errorf("Map of an unbound frame committed the surface")
	}

	env.pump(t)
	if !env.ctx.InitDone() {
		t.Fatalf("Initial round-trip never finished")
	}
	if app.frame.LifecycleState() != FrameMapPending {
		t.Errorf("Expected map-pending after discovery, got %s", app.frame.LifecycleState())
	}

	reqs := env.server.Requests()
	toplevelAt := loopback.IndexOf(reqs, 0, "xdg_surface", "get_toplevel")
	titleAt := loopback.IndexOf(reqs, 0, "xdg_toplevel", "set_title")
	commitAt := loopback.IndexOf(reqs, 0, "wl_surface", "commit")
	if toplevelAt < 0 || titleAt < toplevelAt || commitAt < titleAt {
		t.Errorf("Expected get_toplevel, set_title, commit in order, got indices %d, %d, %d", toplevelAt, titleAt, commitAt)
	}
	if app.toplevel(t).Title() != "early" {
		t.Errorf("Title set before binding got lost")
	}
	if app.surface.Commits() != 1 {
		t.Errorf("Expected exactly one initial commit, got %d", app.surface.Commits())
	}
}

func TestContextIncompatibleCompositor(t *testing.T) {
	env := newTestEnv(t, loopback.Options{
		Globals: []string{wayland.InterfaceCompositor, wayland.InterfaceShm},
	}, nil)
	app := env.decorate(t, true)
	app.frame.Map()
	env.pump(t)

	if len(env.errors) != 1 || env.errors[0].kind != ErrorCompositorIncompatible {
		t.Fatalf("Expected a single incompatibility error, got %+v", env.errors)
	}
	if !env.ctx.Failed() {
		t.Errorf("Context not marked failed")
	}
	if app.frame.LifecycleState() != FrameUnbound {
		t.Errorf("Frame left unbound state on a broken compositor: %s", app.frame.LifecycleState())
	}
	if len(app.configures) != 0 {
		t.Errorf("Frame got configured on a broken compositor")
	}
	if n := loopback.Count(env.server.Requests(), "xdg_wm_base", "get_xdg_surface"); n != 0 {
		t.Errorf("Created %d shell surfaces without xdg_wm_base", n)
	}

	env.ctx.NotifyPluginError(ErrorCompositorIncompatible, "again")
	if len(env.errors) != 1 {
		t.Errorf("Error reported %d times", len(env.errors))
	}
	if _, err := env.ctx.Decorate(env.server.NewSurface(), nil, nil); !errors.Is(err, ErrContextFailed) {
		t.Errorf("Expected ErrContextFailed from Decorate, got %v", err)
	}
}

func TestContextFallbackWithoutPlugins(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, nil)
	if env.ctx.PluginName() != FallbackPluginName {
		t.Errorf("Expected fallback plugin, got %q", env.ctx.PluginName())
	}
	if !env.ctx.PluginReady() {
		t.Errorf("Fallback plugin should be ready right away")
	}
	if env.ctx.PluginHas(PluginCanSizeBorders) {
		t.Errorf("Fallback plugin shouldn't size borders")
	}
	if env.ctx.PluginHas(PluginCanDispatch) {
		t.Errorf("Fallback plugin has no event sources of its own")
	}
	if env.ctx.Fd() != env.server.Display().Fd() {
		t.Errorf("Expected the display's descriptor without a dispatching plugin")
	}
}

func TestContextPluginSelection(t *testing.T) {
	failing := PluginDescription{
		Name:     "broken",
		Priority: 100,
		New: func(ctx *Context) (Plugin, error) {
			return nil, errors.New("no")
		},
	}

	tests := []struct {
		name      string
		preferred string
		disable   bool
		want      string
	}{
		{name: "highest priority that loads", want: "high"},
		{name: "preferred wins", preferred: "low", want: "low"},
		{name: "unknown preferred falls back to priority", preferred: "nope", want: "high"},
		{name: "disabled", disable: true, want: FallbackPluginName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, loopback.Options{}, func(env *testEnv) []Option {
				cfg := config.Default()
				cfg.Plugin = tt.preferred
				cfg.DisableDecorations = tt.disable
				return []Option{
					WithConfig(&cfg),
					WithPlugins(failing, env.describe("low", 1, true), env.describe("high", 5, true)),
				}
			})
			if env.ctx.PluginName() != tt.want {
				t.Errorf("Expected plugin %q, got %q", tt.want, env.ctx.PluginName())
			}
		})
	}
}

func TestContextRedrawsWhenPluginBecomesReady(t *testing.T) {
	env := newTestEnv(t, loopback.Options{AutoConfigure: true}, func(env *testEnv) []Option {
		return []Option{WithPlugins(env.describe("slow", 1, false))}
	})
	app := env.decorate(t, true)
	app.frame.Map()
	env.pump(t)

	if app.frame.LifecycleState() != FrameMapped {
		t.Fatalf("Expected mapped frame, got %s", app.frame.LifecycleState())
	}
	if len(env.plugin.commits) != 0 {
		t.Fatalf("Plugin drew %d times before it was ready", len(env.plugin.commits))
	}

	env.ctx.NotifyPluginReady()
	if len(env.plugin.commits) != 1 {
		t.Fatalf("Expected one catch-up draw, got %d", len(env.plugin.commits))
	}
	if env.plugin.commits[0].frame != app.frame || env.plugin.commits[0].configured {
		t.Errorf("Catch-up draw should be for the frame without a configuration")
	}
	env.ctx.NotifyPluginReady()
	if len(env.plugin.commits) != 1 {
		t.Errorf("Repeated ready notification redrew again")
	}
}

func TestContextUnrefFreesEverything(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, withTestPlugin)
	first := env.decorate(t, false)
	second := env.decorate(t, false)
	env.pump(t)
	toplevels := []*loopback.Toplevel{first.toplevel(t), second.toplevel(t)}

	env.ctx.Ref()
	env.ctx.Unref()
	if env.plugin.destroyed {
		t.Fatalf("Context destroyed while still referenced")
	}

	env.ctx.Unref()
	if !env.plugin.destroyed {
		t.Errorf("Plugin not destroyed with the context")
	}
	if len(env.plugin.freed) != 2 {
		t.Errorf("Expected both frames freed, got %v", env.plugin.freed)
	}
	if len(env.ctx.Frames()) != 0 {
		t.Errorf("Context still lists %d frames", len(env.ctx.Frames()))
	}
	for i, toplevel := range toplevels {
		if !toplevel.Destroyed() || !toplevel.XDGSurfaceDestroyed() {
			t.Errorf("Shell objects of frame %d survived the context", i+1)
		}
	}
}

func TestWmBasePong(t *testing.T) {
	env := newTestEnv(t, loopback.Options{}, nil)
	env.pump(t)
	serial := env.server.Ping()
	env.pump(t)

	reqs := env.server.Requests()
	i := loopback.IndexOf(reqs, 0, "xdg_wm_base", "pong")
	if i < 0 {
		t.Fatalf("Ping never answered")
	}
	if reqs[i].Args[0] != any(serial) {
		t.Errorf("Pong carried serial %v, expected %d", reqs[i].Args[0], serial)
	}
}
