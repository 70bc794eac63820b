// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"encoding/binary"
	"errors"
	"fmt"

	decor "github.com/mstarongithub/way2decor"
	"github.com/mstarongithub/way2decor/config"
	"github.com/mstarongithub/way2decor/eventloop"
	"github.com/mstarongithub/way2decor/plugins/border"
	"github.com/mstarongithub/way2decor/util/multiplexer"
	"github.com/mstarongithub/way2decor/wayland/loopback"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Size a window gets when the compositor leaves the choice to us
const (
	defaultWidth  = 640
	defaultHeight = 480
)

const (
	tracePrinter = "printer"
	// Requests buffered for the trace printer before new ones are dropped
	traceDepth = 256
)

type command struct {
	line  string
	reply chan string
}

// A client window: the application side of a frame
type window struct {
	frame   *decor.Frame
	surface *loopback.Surface
	width   int
	height  int
}

// The shell owns the compositor, the context and all windows. Everything in
// it runs on the goroutine calling Run, other goroutines talk to it through
// Do
type shell struct {
	cfg *config.Config
	log *logrus.Entry

	server *loopback.Server
	ctx    *decor.Context
	border *border.Plugin

	loop    *eventloop.Loop
	queueFd int
	queue   *multiplexer.ManyToOne[command]
	traces  *multiplexer.OneToMany[loopback.Request]
	tracing bool
	// Where traced requests go. Set before the first Do
	printer func(line string)

	windows map[int]*window
	errors  []string
	quit    bool
}

func newShell(cfg *config.Config) (*shell, error) {
	sh := &shell{
		cfg:     cfg,
		log:     logrus.WithField("component", "decorctl"),
		windows: make(map[int]*window),
		traces:  multiplexer.NewOneToMany[loopback.Request](traceDepth),
		printer: func(line string) { fmt.Println(line) },
	}

	server, err := loopback.NewServer(loopback.Options{
		AutoConfigure: true,
		Tiling:        cfg.Shell.Tiling,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start compositor: %w", err)
	}
	sh.server = server

	sh.ctx = decor.New(server.Display(), decor.HandlerFunc(sh.handleError),
		decor.WithConfig(cfg),
		decor.WithLogger(logrus.StandardLogger()),
		decor.WithPlugins(sh.borderDescription()),
	)

	sh.queueFd, err = unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("failed to create command queue: %w", err)
	}
	sh.queue = multiplexer.NewManyToOneNotify(make(chan command, 16), sh.wake)

	sh.loop, err = eventloop.New()
	if err != nil {
		return nil, err
	}
	if err = sh.loop.Add(sh.ctx.Fd(), sh.dispatchContext); err != nil {
		return nil, err
	}
	if err = sh.loop.Add(sh.queueFd, sh.runCommands); err != nil {
		return nil, err
	}

	go sh.traces.StartPlexer()
	sh.pump()
	return sh, nil
}

// borderDescription keeps hold of the border plugin once the context made it
func (sh *shell) borderDescription() decor.PluginDescription {
	desc := border.Description()
	desc.New = func(ctx *decor.Context) (decor.Plugin, error) {
		p, err := border.New(ctx)
		if err != nil {
			return nil, err
		}
		sh.border = p
		return p, nil
	}
	return desc
}

func (sh *shell) handleError(ctx *decor.Context, kind decor.ErrorKind, message string) {
	sh.errors = append(sh.errors, fmt.Sprintf("%s: %s", kind, message))
	if kind == decor.ErrorCompositorIncompatible {
		sh.log.WithField("message", message).Errorln("Compositor incompatible, windows won't work")
	}
}

// Run blocks until the quit command ran
func (sh *shell) Run() error {
	for !sh.quit {
		if _, err := sh.loop.Dispatch(-1); err != nil {
			return err
		}
	}
	return nil
}

// Do runs line on the shell's goroutine and returns its output
func (sh *shell) Do(line string) string {
	reply := make(chan string, 1)
	if err := sh.queue.Send(command{line: line, reply: reply}); err != nil {
		return fmt.Sprintf("Shell stopped: %s", err)
	}
	return <-reply
}

func (sh *shell) wake() {
	one := binary.NativeEndian.AppendUint64(nil, 1)
	if _, err := unix.Write(sh.queueFd, one); err != nil && !errors.Is(err, unix.EAGAIN) {
		sh.log.WithError(err).Warnln("Failed to wake event loop")
	}
}

func (sh *shell) runCommands(fd int) (int, error) {
	var buf [8]byte
	if _, err := unix.Read(fd, buf[:]); err != nil && !errors.Is(err, unix.EAGAIN) {
		return 0, err
	}
	return sh.queue.Drain(func(cmd command) {
		res := sh.execute(cmd.line)
		// Let the command's consequences play out before answering
		sh.pump()
		cmd.reply <- res
	}), nil
}

func (sh *shell) dispatchContext(_ int) (int, error) {
	return sh.ctx.Dispatch(0)
}

// pump dispatches until the compositor has nothing left to say
func (sh *shell) pump() {
	for {
		n, err := sh.ctx.Dispatch(0)
		if err != nil {
			sh.log.WithError(err).Warnln("Dispatch failed")
			return
		}
		if n == 0 {
			return
		}
	}
}

// decorate creates a window the way an application would
func (sh *shell) decorate(title string) (*window, error) {
	w := &window{surface: sh.server.NewSurface()}
	frame, err := sh.ctx.Decorate(w.surface, decor.FrameHandlerFuncs{
		ConfigureFunc: sh.handleConfigure,
		CloseFunc:     sh.handleClose,
		CommitFunc: func(frame *decor.Frame) {
			sh.log.WithField("frame", frame.ID()).Debugln("Committed")
		},
		DismissPopupFunc: func(frame *decor.Frame, seatName string) {
			sh.log.WithField("seat", seatName).Debugln("No popups to dismiss")
		},
	}, w)
	if err != nil {
		return nil, err
	}
	w.frame = frame
	frame.SetTitle(title)
	frame.SetAppID("way2decor.decorctl")
	frame.Map()
	sh.windows[frame.ID()] = w
	return w, nil
}

// handleConfigure renders at whatever the plugin says fits and commits
// right away
func (sh *shell) handleConfigure(frame *decor.Frame, conf *decor.Configuration) {
	w := frame.UserData().(*window)
	width, height, ok := conf.ContentSize(frame)
	if !ok {
		width, height = w.width, w.height
		if width == 0 || height == 0 {
			width, height = defaultWidth, defaultHeight
		}
	}
	w.width, w.height = width, height
	if err := frame.Commit(decor.NewState(width, height), conf); err != nil {
		sh.log.WithError(err).WithField("frame", frame.ID()).Warnln("Commit failed")
	}
}

func (sh *shell) handleClose(frame *decor.Frame) {
	sh.log.WithField("frame", frame.ID()).Infoln("Window closed")
	delete(sh.windows, frame.ID())
	frame.Unref()
}

func (sh *shell) setTracing(on bool) {
	if on == sh.tracing {
		return
	}
	if !on {
		sh.server.SetTracer(nil)
		sh.traces.CloseReceiver(tracePrinter)
		sh.tracing = false
		return
	}
	rec, err := sh.traces.MakeReceiver(tracePrinter)
	if err != nil {
		sh.log.WithError(err).Warnln("Failed to attach trace printer")
		return
	}
	printer := sh.printer
	go func() {
		for req := range rec {
			printer("-> " + req.String())
		}
	}()
	sender := sh.traces.GetSender()
	sh.server.SetTracer(func(req loopback.Request) {
		sender <- req
	})
	sh.tracing = true
}

func (sh *shell) Close() {
	sh.server.SetTracer(nil)
	sh.traces.CloseSender()
	sh.queue.Close()
	sh.ctx.Unref()
	if err := sh.loop.Close(); err != nil {
		sh.log.WithError(err).Debugln("Failed to close event loop")
	}
	unix.Close(sh.queueFd)
	if err := sh.server.Close(); err != nil {
		sh.log.WithError(err).Debugln("Failed to close compositor")
	}
}
