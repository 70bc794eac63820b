// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package border decorates frames with a drop shadow and a title bar drawn
// into shared memory subsurfaces.
package border

import (
	"fmt"

	decor "github.com/mstarongithub/way2decor"
	"github.com/mstarongithub/way2decor/config"
	"github.com/mstarongithub/way2decor/shm"
	"github.com/mstarongithub/way2decor/wayland"
	"github.com/sirupsen/logrus"
)

const (
	Name     = "border"
	Priority = 10
)

// Description lets a context pick this plugin
func Description() decor.PluginDescription {
	return decor.PluginDescription{
		Name:     Name,
		Priority: Priority,
		New: func(ctx *decor.Context) (decor.Plugin, error) {
			p, err := New(ctx)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
	}
}

type Plugin struct {
	ctx   *decor.Context
	log   *logrus.Entry
	theme theme

	registry      wayland.Registry
	compositor    wayland.Compositor
	subcompositor wayland.Subcompositor
	shm           wayland.Shm

	globalsCallback wayland.Callback
	shmCallback     wayland.Callback
	hasARGB         bool
	failed          bool

	newBuffer func(wayland.Shm, int, int, uint32) (*shm.Buffer, error)
}

// New starts discovering the globals the plugin draws with. The context is
// told about the outcome through NotifyPluginReady or NotifyPluginError
func New(ctx *decor.Context) (*Plugin, error) {
	t, err := newTheme(ctx.Config().Border)
	if err != nil {
		return nil, fmt.Errorf("invalid border theme: %w", err)
	}
	p := &Plugin{
		ctx:       ctx,
		log:       ctx.Logger().WithField("plugin", Name),
		theme:     t,
		newBuffer: shm.NewBuffer,
	}

	display := ctx.Display()
	p.registry = display.Registry()
	p.registry.SetListener(&pluginRegistry{plugin: p})
	p.globalsCallback = display.Sync(p.handleGlobalsDone)
	return p, nil
}

type pluginRegistry struct {
	plugin *Plugin
}

func (r *pluginRegistry) Global(name uint32, iface string, version uint32) {
	p := r.plugin
	switch iface {
	case wayland.InterfaceCompositor:
		p.compositor = p.registry.BindCompositor(name, 1)
	case wayland.InterfaceSubcompositor:
		p.subcompositor = p.registry.BindSubcompositor(name, 1)
	case wayland.InterfaceShm:
		p.shm = p.registry.BindShm(name, 1)
		p.shm.SetListener(&shmFormats{plugin: p})
		p.shmCallback = p.ctx.Display().Sync(p.handleShmDone)
	}
}

func (r *pluginRegistry) GlobalRemove(name uint32) {}

type shmFormats struct {
	plugin *Plugin
}

func (s *shmFormats) Format(format uint32) {
	if format == wayland.ShmFormatARGB8888 {
		s.plugin.hasARGB = true
	}
}

func (p *Plugin) handleGlobalsDone(_ uint32) {
	p.globalsCallback = nil
	if p.compositor == nil || p.subcompositor == nil || p.shm == nil {
		p.fail("Compositor is missing required globals")
	}
}

func (p *Plugin) handleShmDone(_ uint32) {
	p.shmCallback = nil
	if !p.hasARGB {
		p.fail("Compositor is missing required shm format")
		return
	}
	if p.failed {
		return
	}
	p.log.Debugln("Globals discovered")
	p.ctx.NotifyPluginReady()
}

func (p *Plugin) fail(message string) {
	if p.failed {
		return
	}
	p.failed = true
	p.ctx.NotifyPluginError(decor.ErrorCompositorIncompatible, message)
}

func (p *Plugin) Destroy() {
	if p.globalsCallback != nil {
		p.globalsCallback.Destroy()
	}
	if p.shmCallback != nil {
		p.shmCallback.Destroy()
	}
	p.registry.Destroy()
	p.log.Debugln("Plugin destroyed")
}

type component struct {
	surface    wayland.Surface
	subsurface wayland.Subsurface
	buffer     *shm.Buffer
}

// What a frame was last drawn for
type drawKey struct {
	width        int
	height       int
	decoration   decor.DecorationType
	active       bool
	title        string
	capabilities decor.Capabilities
}

type frameState struct {
	frame      *decor.Frame
	components [componentCount]component
	drawn      bool
	last       drawKey
	redraws    int
}

func (p *Plugin) FrameNew(frame *decor.Frame) any {
	fs := &frameState{frame: frame}
	p.ensureMinContentSize(frame)
	return fs
}

func stateOf(frame *decor.Frame) *frameState {
	fs, _ := frame.PluginData().(*frameState)
	return fs
}

func (p *Plugin) FrameFree(frame *decor.Frame) {
	fs := stateOf(frame)
	if fs == nil {
		return
	}
	for i := range fs.components {
		c := &fs.components[i]
		if c.buffer != nil {
			c.buffer.Detach()
			c.buffer = nil
		}
		if c.subsurface != nil {
			c.subsurface.Destroy()
			c.subsurface = nil
		}
		if c.surface != nil {
			c.surface.Destroy()
			c.surface = nil
		}
	}
	fs.drawn = false
}

func (p *Plugin) keyFor(frame *decor.Frame, width, height int) drawKey {
	state := frame.WindowState()
	return drawKey{
		width:        width,
		height:       height,
		decoration:   decor.DecorationTypeFor(state),
		active:       state.Has(decor.WindowStateActive),
		title:        frame.Title(),
		capabilities: frame.Capabilities(),
	}
}

// FrameCommit redraws the decoration if anything it depends on changed
func (p *Plugin) FrameCommit(frame *decor.Frame, state *decor.State, conf *decor.Configuration) {
	fs := stateOf(frame)
	if fs == nil {
		return
	}
	p.ensureMinContentSize(frame)
	key := p.keyFor(frame, state.Width(), state.Height())
	if fs.drawn && key == fs.last {
		return
	}
	p.draw(fs, key)
}

// FramePropertyChanged redraws the title bar of frames already on screen
func (p *Plugin) FramePropertyChanged(frame *decor.Frame) {
	fs := stateOf(frame)
	if fs == nil || !fs.drawn || !p.ctx.PluginReady() {
		return
	}
	key := p.keyFor(frame, fs.last.width, fs.last.height)
	if key == fs.last {
		return
	}
	p.draw(fs, key)
}

// ConfigurationContentSize subtracts the chrome of the decoration the
// configuration's window state asks for
func (p *Plugin) ConfigurationContentSize(conf *decor.Configuration, frame *decor.Frame) (int, int, bool) {
	width, height, ok := conf.WindowSize()
	if !ok {
		return 0, 0, false
	}
	state, ok := conf.WindowState()
	if !ok {
		state = frame.WindowState()
	}
	c := chrome(p.theme, decor.DecorationTypeFor(state))
	return width - c.Horizontal(), height - c.Vertical(), true
}

func (p *Plugin) FrameBorderSize(frame *decor.Frame, state decor.WindowState) decor.Borders {
	return chrome(p.theme, decor.DecorationTypeFor(state))
}

// FrameTranslateCoordinate maps content coordinates to window geometry ones
func (p *Plugin) FrameTranslateCoordinate(frame *decor.Frame, contentX, contentY int) (int, int) {
	b := chrome(p.theme, decor.DecorationTypeFor(frame.WindowState()))
	return contentX + b.Left, contentY + b.Top
}

// EdgeAt returns the resize edge under a pointer at x, y in content
// coordinates. Only points on the shadow resize
func (p *Plugin) EdgeAt(frame *decor.Frame, x, y int) decor.ResizeEdge {
	l := componentLayout(p.theme, decor.DecorationTypeFor(frame.WindowState()), frame.ContentWidth(), frame.ContentHeight())
	return l.edgeAt(x, y, p.theme.shadowMargin)
}

// ensureMinContentSize keeps the title bar wide enough for its buttons
func (p *Plugin) ensureMinContentSize(frame *decor.Frame) {
	row := p.theme.buttonRowWidth()
	minWidth, minHeight := frame.MinContentSize()
	maxWidth, _ := frame.MaxContentSize()
	if minWidth >= row || (maxWidth > 0 && maxWidth < row) {
		return
	}
	if err := frame.SetMinContentSize(row, minHeight); err != nil {
		p.log.WithError(err).Warnln("Failed to raise minimum content size")
	}
}

func (p *Plugin) Theme() config.BorderConfig {
	return p.theme.cfg
}
