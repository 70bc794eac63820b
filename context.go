// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package decor negotiates size and state of xdg-shell toplevels on behalf of
// an application and leaves drawing the decoration to a swappable plugin.
//
// Everything runs on the goroutine calling Dispatch and the frame methods;
// none of the types are safe for concurrent use.
package decor

import (
	"github.com/mstarongithub/way2decor/config"
	"github.com/mstarongithub/way2decor/wayland"
	"github.com/sirupsen/logrus"
	"gitlab.com/mstarongitlab/goutils/sliceutils"
)

// Receives errors of a context
type Handler interface {
	Error(ctx *Context, kind ErrorKind, message string)
}

type HandlerFunc func(ctx *Context, kind ErrorKind, message string)

func (f HandlerFunc) Error(ctx *Context, kind ErrorKind, message string) {
	f(ctx, kind, message)
}

type Option func(*Context)

func WithLogger(logger *logrus.Logger) Option {
	return func(ctx *Context) {
		ctx.logger = logger
	}
}

func WithConfig(cfg *config.Config) Option {
	return func(ctx *Context) {
		ctx.cfg = cfg
	}
}

// WithPlugins offers plugins to choose from. Without any, or if none of them
// can be set up, frames stay undecorated
func WithPlugins(plugins ...PluginDescription) Option {
	return func(ctx *Context) {
		ctx.candidates = append(ctx.candidates, plugins...)
	}
}

type Context struct {
	refs      int
	destroyed bool

	handler Handler
	cfg     *config.Config
	logger  *logrus.Logger
	log     *logrus.Entry

	display       wayland.Display
	registry      wayland.Registry
	wmBase        wayland.XDGWmBase
	subcompositor wayland.Subcompositor

	initCallback  wayland.Callback
	initDone      bool
	hasError      bool
	errorReported bool

	frames      []*Frame
	nextFrameID int

	candidates  []PluginDescription
	plugin      Plugin
	pluginName  string
	pluginReady bool
	caps        pluginCaps
}

// New binds a context to display. Discovery of the compositor's globals
// finishes asynchronously while the application dispatches
func New(display wayland.Display, handler Handler, opts ...Option) *Context {
	defaults := config.Default()
	ctx := &Context{
		refs:    1,
		handler: handler,
		display: display,
		cfg:     &defaults,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(ctx)
	}
	ctx.log = ctx.logger.WithField("component", "decor")

	ctx.loadPlugin()

	ctx.registry = display.Registry()
	ctx.registry.SetListener(&contextRegistry{ctx: ctx})
	ctx.initCallback = display.Sync(ctx.handleInitDone)

	if err := display.Flush(); err != nil {
		ctx.log.WithError(err).Warnln("Failed to flush display")
	}
	return ctx
}

func (ctx *Context) loadPlugin() {
	if !ctx.cfg.DisableDecorations {
		candidates, err := orderCandidates(ctx.candidates, ctx.cfg.Plugin)
		if err != nil {
			ctx.log.WithError(err).Warnln("Preferred plugin unavailable")
		}
		for _, desc := range candidates {
			ctx.pluginReady = false
			plugin, err := desc.New(ctx)
			if err != nil {
				ctx.log.WithError(err).WithField("plugin", desc.Name).Warnln("Failed to load plugin")
				continue
			}
			ctx.installPlugin(desc.Name, plugin)
			return
		}
	}
	ctx.pluginReady = false
	ctx.installPlugin(FallbackPluginName, newFallbackPlugin(ctx))
}

func (ctx *Context) installPlugin(name string, plugin Plugin) {
	ctx.plugin = plugin
	ctx.pluginName = name
	ctx.caps = resolvePluginCaps(plugin)
	ctx.log.WithField("plugin", name).Debugln("Loaded plugin")
}

func (ctx *Context) handleInitDone(_ uint32) {
	ctx.initDone = true
	ctx.initCallback = nil

	if ctx.hasError {
		ctx.log.WithField("frames", len(ctx.frames)).Debugln("Not binding frames of a failed context")
		return
	}
	if !ctx.isCompositorCompatible() {
		ctx.fail(ErrorCompositorIncompatible, ErrCompositorIncompatible.Error())
		return
	}

	ctx.log.WithField("frames", len(ctx.frames)).Debugln("Initial round-trip done")
	for _, frame := range ctx.frames {
		frame.bind()
	}
}

func (ctx *Context) isCompositorCompatible() bool {
	return ctx.wmBase != nil && ctx.subcompositor != nil
}

// fail marks the context broken and reports it once. Frames stop
// negotiating from then on
func (ctx *Context) fail(kind ErrorKind, message string) {
	ctx.hasError = true
	if ctx.errorReported {
		ctx.log.WithField("message", message).Debugln("Suppressing repeated error")
		return
	}
	ctx.errorReported = true
	ctx.log.WithFields(logrus.Fields{
		"kind":    kind,
		"message": message,
	}).Errorln("Decoration context failed")
	if ctx.handler != nil {
		ctx.handler.Error(ctx, kind, message)
	}
}

// reportInvalid forwards an invalid request without hurting the context
func (ctx *Context) reportInvalid(message string) {
	ctx.log.WithField("message", message).Warnln("Invalid frame configuration")
	if ctx.handler != nil {
		ctx.handler.Error(ctx, ErrorInvalidFrameConfiguration, message)
	}
}

// NotifyPluginReady is called by the plugin once it can draw.
// Frames committed before that get their decoration now
func (ctx *Context) NotifyPluginReady() {
	if ctx.hasError || ctx.pluginReady {
		return
	}
	ctx.pluginReady = true
	ctx.log.WithField("plugin", ctx.pluginName).Debugln("Plugin ready")
	if ctx.plugin == nil {
		// Still inside the plugin constructor
		return
	}
	for _, frame := range ctx.frames {
		frame.redraw()
	}
}

// NotifyPluginError is called by the plugin when it can't work with the
// compositor. Reported to the application as an incompatibility
func (ctx *Context) NotifyPluginError(kind ErrorKind, message string) {
	ctx.log.WithFields(logrus.Fields{
		"plugin": ctx.pluginName,
		"kind":   kind,
	}).Debugln("Plugin reported error")
	ctx.fail(ErrorCompositorIncompatible, message)
}

// Decorate creates a frame for surface. The frame sets up its shell surface
// as soon as the context finished discovering the compositor
func (ctx *Context) Decorate(surface wayland.Surface, handler FrameHandler, userData any) (*Frame, error) {
	if ctx.destroyed || ctx.hasError {
		return nil, ErrContextFailed
	}

	frame := newFrame(ctx, surface, handler, userData)
	ctx.frames = append(ctx.frames, frame)
	frame.pluginData = ctx.plugin.FrameNew(frame)

	if ctx.initDone {
		frame.bind()
	}
	return frame, nil
}

func (ctx *Context) removeFrame(frame *Frame) {
	ctx.frames = sliceutils.Filter(ctx.frames, func(f *Frame) bool {
		return f != frame
	})
}

// Dispatch processes events, waiting up to timeout milliseconds for them.
// 0 doesn't wait, negative waits until something arrives
func (ctx *Context) Dispatch(timeout int) (int, error) {
	if ctx.caps.dispatch != nil {
		return ctx.caps.dispatch.Dispatch(timeout)
	}
	return DispatchDisplay(ctx.display, timeout)
}

// Fd returns the descriptor to wait on before calling Dispatch
func (ctx *Context) Fd() int {
	if ctx.caps.dispatch != nil {
		return ctx.caps.dispatch.Fd()
	}
	return ctx.display.Fd()
}

func (ctx *Context) Ref() {
	ctx.refs++
}

// Unref drops a reference. The last one frees all frames, the plugin and
// the registry
func (ctx *Context) Unref() {
	ctx.refs--
	if ctx.refs > 0 || ctx.destroyed {
		return
	}
	ctx.destroyed = true

	for _, frame := range append([]*Frame(nil), ctx.frames...) {
		frame.destroy()
	}
	if ctx.plugin != nil {
		ctx.plugin.Destroy()
	}
	if ctx.initCallback != nil {
		ctx.initCallback.Destroy()
		ctx.initCallback = nil
	}
	if ctx.wmBase != nil {
		ctx.wmBase.Destroy()
	}
	ctx.registry.Destroy()
	ctx.log.Debugln("Context destroyed")
}

// PluginHas reports whether the active plugin implements an optional part
func (ctx *Context) PluginHas(capability PluginCapability) bool {
	return ctx.caps.has(capability)
}

func (ctx *Context) PluginName() string                   { return ctx.pluginName }
func (ctx *Context) PluginReady() bool                    { return ctx.pluginReady }
func (ctx *Context) InitDone() bool                       { return ctx.initDone }
func (ctx *Context) Failed() bool                         { return ctx.hasError }
func (ctx *Context) Display() wayland.Display             { return ctx.display }
func (ctx *Context) Config() *config.Config               { return ctx.cfg }
func (ctx *Context) Logger() *logrus.Entry                { return ctx.log }
func (ctx *Context) Subcompositor() wayland.Subcompositor { return ctx.subcompositor }

// Frames returns the live frames in creation order
func (ctx *Context) Frames() []*Frame {
	return append([]*Frame(nil), ctx.frames...)
}

type contextRegistry struct {
	ctx *Context
}

func (r *contextRegistry) Global(name uint32, iface string, version uint32) {
	ctx := r.ctx
	switch iface {
	case wayland.InterfaceXDGWmBase:
		ctx.wmBase = ctx.registry.BindXDGWmBase(name, 1)
		ctx.wmBase.SetListener(&wmBasePinger{base: ctx.wmBase})
	case wayland.InterfaceSubcompositor:
		ctx.subcompositor = ctx.registry.BindSubcompositor(name, 1)
	}
}

func (r *contextRegistry) GlobalRemove(name uint32) {}

type wmBasePinger struct {
	base wayland.XDGWmBase
}

func (p *wmBasePinger) Ping(serial uint32) {
	p.base.Pong(serial)
}
