// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package decor

import (
	"testing"

	"github.com/mstarongithub/way2decor/wayland/loopback"
)

var testBorders = Borders{Left: 5, Right: 5, Top: 20, Bottom: 5}

type reportedError struct {
	kind    ErrorKind
	message string
}

type testEnv struct {
	server *loopback.Server
	ctx    *Context
	errors []reportedError
	plugin *testPlugin
}

// newTestEnv starts a loopback compositor and a context on it. opts may use
// the environment to hand out plugins
func newTestEnv(t *testing.T, serverOpts loopback.Options, opts func(env *testEnv) []Option) *testEnv {
	t.Helper()
	server, err := loopback.NewServer(serverOpts)
	if err != nil {
		t.Fatalf("Failed to start loopback server: %s", err)
	}
	env := &testEnv{server: server}
	var ctxOpts []Option
	if opts != nil {
		ctxOpts = opts(env)
	}
	env.ctx = New(server.Display(), HandlerFunc(func(ctx *Context, kind ErrorKind, message string) {
		env.errors = append(env.errors, reportedError{kind: kind, message: message})
	}), ctxOpts...)
	t.Cleanup(func() {
		env.ctx.Unref()
		_ = server.Close()
	})
	return env
}

// pump dispatches until nothing is left in the queue
func (env *testEnv) pump(t *testing.T) {
	t.Helper()
	for i := 0; i < 100; i++ {
		n, err := env.ctx.Dispatch(0)
		if err != nil {
			t.Fatalf("Dispatch failed: %s", err)
		}
		if n == 0 {
			return
		}
	}
	t.Fatalf("Event queue never drained")
}

// describe offers a testPlugin under name
func (env *testEnv) describe(name string, priority int, ready bool) PluginDescription {
	return PluginDescription{
		Name:     name,
		Priority: priority,
		New: func(ctx *Context) (Plugin, error) {
			p := &testPlugin{ctx: ctx, name: name, server: env.server}
			env.plugin = p
			if ready {
				ctx.NotifyPluginReady()
			}
			return p, nil
		},
	}
}

func withTestPlugin(env *testEnv) []Option {
	return []Option{WithPlugins(env.describe("test", 1, true))}
}

// An application window remembering what happened to it
type testApp struct {
	frame      *Frame
	surface    *loopback.Surface
	configures []*Configuration
	closes     int
	commits    int
	// Commit every configure at the size the plugin computes
	autoCommit bool
	commitErr  error
}

func (env *testEnv) decorate(t *testing.T, autoCommit bool) *testApp {
	t.Helper()
	app := &testApp{surface: env.server.NewSurface(), autoCommit: autoCommit}
	frame, err := env.ctx.Decorate(app.surface, FrameHandlerFuncs{
		ConfigureFunc: app.configure,
		CloseFunc: func(frame *Frame) {
			app.closes++
		},
		CommitFunc: func(frame *Frame) {
			app.commits++
		},
	}, app)
	if err != nil {
		t.Fatalf("Failed to decorate surface: %s", err)
	}
	app.frame = frame
	return app
}

func (app *testApp) configure(frame *Frame, conf *Configuration) {
	app.configures = append(app.configures, conf)
	if !app.autoCommit {
		return
	}
	width, height, ok := conf.ContentSize(frame)
	if !ok {
		width, height = 640, 480
	}
	app.commitErr = frame.Commit(NewState(width, height), conf)
}

func (app *testApp) lastConfigure(t *testing.T) *Configuration {
	t.Helper()
	if len(app.configures) == 0 {
		t.Fatalf("No configure received")
	}
	return app.configures[len(app.configures)-1]
}

func (app *testApp) toplevel(t *testing.T) *loopback.Toplevel {
	t.Helper()
	toplevel, ok := app.frame.XDGToplevel().(*loopback.Toplevel)
	if !ok || toplevel == nil {
		t.Fatalf("Frame has no toplevel")
	}
	return toplevel
}

type commitCall struct {
	frame *Frame
	width int
	// Whether the commit carried a configuration
	configured bool
}

// A plugin with fixed borders recording every call
type testPlugin struct {
	ctx    *Context
	name   string
	server *loopback.Server

	commits    []commitCall
	freed      []int
	freedAt    []int // Number of requests the server had seen at FrameFree
	properties int
	destroyed  bool
}

func (p *testPlugin) Destroy() {
	p.destroyed = true
}

func (p *testPlugin) FrameNew(frame *Frame) any {
	return p.name
}

func (p *testPlugin) FrameFree(frame *Frame) {
	p.freed = append(p.freed, frame.ID())
	p.freedAt = append(p.freedAt, len(p.server.Requests()))
}

func (p *testPlugin) FrameCommit(frame *Frame, state *State, conf *Configuration) {
	p.commits = append(p.commits, commitCall{frame: frame, width: state.Width(), configured: conf != nil})
}

func (p *testPlugin) ConfigurationContentSize(conf *Configuration, frame *Frame) (int, int, bool) {
	width, height, ok := conf.WindowSize()
	if !ok {
		return 0, 0, false
	}
	return width - testBorders.Horizontal(), height - testBorders.Vertical(), true
}

func (p *testPlugin) FrameBorderSize(frame *Frame, state WindowState) Borders {
	if DecorationTypeFor(state) == DecorationTypeNone {
		return Borders{}
	}
	return testBorders
}

func (p *testPlugin) FramePropertyChanged(frame *Frame) {
	p.properties++
}
