// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	decor "github.com/mstarongithub/way2decor"
	"github.com/mstarongithub/way2decor/plugins/border"
	"github.com/mstarongithub/way2decor/util"
	"github.com/mstarongithub/way2decor/wayland"
	"github.com/mstarongithub/way2decor/wayland/loopback"
	"github.com/sirupsen/logrus"
)

// Seat all interactive requests are made from
const defaultSeat = loopback.Seat("seat0")

var (
	errUsage       = errors.New("wrong arguments")
	errNoWindow    = errors.New("no window with that id")
	errNotBound    = errors.New("window has no toplevel yet")
	errNoBorder    = errors.New("border plugin is not active")
	errUnknownWire = errors.New("unknown toplevel state")
)

type commandSpec struct {
	usage string
	help  string
	// Minimum number of arguments after the command name
	args int
	run  func(sh *shell, args []string) (string, error)
}

// Names of xdg_toplevel states as the configure command takes them
var wireStates = map[string]uint32{
	"maximized":    wayland.ToplevelStateMaximized,
	"fullscreen":   wayland.ToplevelStateFullscreen,
	"resizing":     wayland.ToplevelStateResizing,
	"activated":    wayland.ToplevelStateActivated,
	"tiled-left":   wayland.ToplevelStateTiledLeft,
	"tiled-right":  wayland.ToplevelStateTiledRight,
	"tiled-top":    wayland.ToplevelStateTiledTop,
	"tiled-bottom": wayland.ToplevelStateTiledBottom,
}

var commands = map[string]commandSpec{
	"decorate": {
		usage: "decorate [title]",
		help:  "Create and map a new decorated window",
		run:   cmdDecorate,
	},
	"configure": {
		usage: "configure <id> <width> <height> [state...]",
		help:  "Send a configure round as the compositor. States: " + strings.Join(wireStateNames(), ", "),
		args:  3,
		run:   cmdConfigure,
	},
	"commit": {
		usage: "commit <id>",
		help:  "Commit the window again at its current size",
		args:  1,
		run:   cmdCommit,
	},
	"maximize": {
		usage: "maximize <id>",
		help:  "Ask the compositor to maximize the window",
		args:  1,
		run: frameAction("Requested maximize", func(w *window) {
			w.frame.SetMaximized()
		}),
	},
	"unmaximize": {
		usage: "unmaximize <id>",
		help:  "Ask the compositor to restore the window",
		args:  1,
		run: frameAction("Requested unmaximize", func(w *window) {
			w.frame.UnsetMaximized()
		}),
	},
	"fullscreen": {
		usage: "fullscreen <id>",
		help:  "Ask the compositor to make the window fullscreen",
		args:  1,
		run: frameAction("Requested fullscreen", func(w *window) {
			w.frame.SetFullscreen(nil)
		}),
	},
	"unfullscreen": {
		usage: "unfullscreen <id>",
		help:  "Ask the compositor to leave fullscreen",
		args:  1,
		run: frameAction("Requested unfullscreen", func(w *window) {
			w.frame.UnsetFullscreen()
		}),
	},
	"minimize": {
		usage: "minimize <id>",
		help:  "Ask the compositor to minimize the window",
		args:  1,
		run: frameAction("Requested minimize", func(w *window) {
			w.frame.SetMinimized()
		}),
	},
	"move": {
		usage: "move <id>",
		help:  "Start an interactive move",
		args:  1,
		run:   cmdMove,
	},
	"resize": {
		usage: "resize <id> <edge>",
		help:  "Start an interactive resize from edge (top, bottom-right, ...)",
		args:  2,
		run:   cmdResize,
	},
	"title": {
		usage: "title <id> <title>",
		help:  "Change the window title",
		args:  2,
		run:   cmdTitle,
	},
	"minsize": {
		usage: "minsize <id> <width> <height>",
		help:  "Set the minimum content size, 0 means unlimited",
		args:  3,
		run:   cmdSizeLimit(true),
	},
	"maxsize": {
		usage: "maxsize <id> <width> <height>",
		help:  "Set the maximum content size, 0 means unlimited",
		args:  3,
		run:   cmdSizeLimit(false),
	},
	"caps": {
		usage: "caps <id> set|unset <capability>",
		help:  "Change what the user may do with the window (move, resize, minimize, fullscreen, close)",
		args:  3,
		run:   cmdCaps,
	},
	"close": {
		usage: "close <id>",
		help:  "Send a close request as the compositor",
		args:  1,
		run:   cmdClose,
	},
	"focus": {
		usage: "focus <id>",
		help:  "Raise and activate the window",
		args:  1,
		run:   cmdFocus,
	},
	"destroy": {
		usage: "destroy <id>",
		help:  "Drop the application's reference to the window",
		args:  1,
		run:   cmdDestroy,
	},
	"ping": {
		usage: "ping",
		help:  "Ping the client through xdg_wm_base",
		run:   cmdPing,
	},
	"edge": {
		usage: "edge <id> <x> <y>",
		help:  "Show the resize edge under a content coordinate",
		args:  3,
		run:   cmdEdge,
	},
	"inspect": {
		usage: "inspect [id]",
		help:  "Print the state of the context or one window as JSON",
		run:   cmdInspect,
	},
	"trace": {
		usage: "trace on|off",
		help:  "Print requests as they reach the compositor",
		args:  1,
		run:   cmdTrace,
	},
	"tiles": {
		usage: "tiles",
		help:  "Show where the compositor tiled each window (needs shell.tiling)",
		run:   cmdTiles,
	},
	"requests": {
		usage: "requests [n]",
		help:  "List the last n requests the compositor received (default 20)",
		run:   cmdRequests,
	},
}

// commandHelp lists every command with its usage
func commandHelp() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(&b, "\t%s\n\t\t%s\n", c.usage, c.help)
	}
	b.WriteString("\thelp\n\t\tShow this list\n")
	b.WriteString("\tquit\n\t\tStop decorctl")
	return b.String()
}

func wireStateNames() []string {
	names := make([]string, 0, len(wireStates))
	for name := range wireStates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// execute runs a single command line and formats its outcome
func (sh *shell) execute(line string) string {
	args, err := util.SplitArgs(line)
	if err != nil {
		return fmt.Sprintf("Error: %s", err)
	}
	if len(args) == 0 {
		return ""
	}
	name, args := args[0], args[1:]
	logrus.WithFields(logrus.Fields{
		"command": name,
		"args":    args,
	}).Debugln("Executing command")

	switch name {
	case "help":
		return commandHelp()
	case "quit":
		sh.quit = true
		return "Quitting"
	}

	c, ok := commands[name]
	if !ok {
		return fmt.Sprintf("Unknown command %q, try help", name)
	}
	if len(args) < c.args {
		return fmt.Sprintf("Usage: %s", c.usage)
	}
	res, err := c.run(sh, args)
	if errors.Is(err, errUsage) {
		return fmt.Sprintf("Usage: %s", c.usage)
	}
	if err != nil {
		return fmt.Sprintf("Error: %s", err)
	}
	return res
}

func (sh *shell) window(arg string) (*window, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a window id", errUsage, arg)
	}
	w, ok := sh.windows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", errNoWindow, id)
	}
	return w, nil
}

func (sh *shell) toplevel(w *window) (*loopback.Toplevel, error) {
	t, ok := w.frame.XDGToplevel().(*loopback.Toplevel)
	if !ok || t == nil {
		return nil, errNotBound
	}
	return t, nil
}

func parseInts(args ...string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", errUsage, a)
		}
		out = append(out, v)
	}
	return out, nil
}

func frameAction(done string, action func(w *window)) func(*shell, []string) (string, error) {
	return func(sh *shell, args []string) (string, error) {
		w, err := sh.window(args[0])
		if err != nil {
			return "", err
		}
		action(w)
		return fmt.Sprintf("%s for window %d", done, w.frame.ID()), nil
	}
}

func cmdDecorate(sh *shell, args []string) (string, error) {
	title := "decorctl"
	if len(args) > 0 {
		title = strings.Join(args, " ")
	}
	w, err := sh.decorate(title)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Created window %d", w.frame.ID()), nil
}

func cmdConfigure(sh *shell, args []string) (string, error) {
	w, err := sh.window(args[0])
	if err != nil {
		return "", err
	}
	t, err := sh.toplevel(w)
	if err != nil {
		return "", err
	}
	size, err := parseInts(args[1], args[2])
	if err != nil {
		return "", err
	}
	states := make([]uint32, 0, len(args)-3)
	for _, name := range args[3:] {
		s, ok := wireStates[name]
		if !ok {
			return "", fmt.Errorf("%w %q", errUnknownWire, name)
		}
		states = append(states, s)
	}
	serial := sh.server.Configure(t, int32(size[0]), int32(size[1]), states...)
	return fmt.Sprintf("Sent configure with serial %d", serial), nil
}

func cmdCommit(sh *shell, args []string) (string, error) {
	w, err := sh.window(args[0])
	if err != nil {
		return "", err
	}
	if err = w.frame.Commit(nil, nil); err != nil {
		return "", err
	}
	return fmt.Sprintf("Committed window %d at %dx%d", w.frame.ID(), w.frame.ContentWidth(), w.frame.ContentHeight()), nil
}

func cmdMove(sh *shell, args []string) (string, error) {
	w, err := sh.window(args[0])
	if err != nil {
		return "", err
	}
	if err = w.frame.RequestInteractiveMove(defaultSeat, 0); err != nil {
		return "", err
	}
	return fmt.Sprintf("Requested move of window %d", w.frame.ID()), nil
}

func cmdResize(sh *shell, args []string) (string, error) {
	w, err := sh.window(args[0])
	if err != nil {
		return "", err
	}
	edge, err := decor.ParseResizeEdge(args[1])
	if err != nil {
		return "", err
	}
	if err = w.frame.RequestInteractiveResize(defaultSeat, 0, edge); err != nil {
		return "", err
	}
	return fmt.Sprintf("Requested resize of window %d from %s", w.frame.ID(), edge), nil
}

func cmdTitle(sh *shell, args []string) (string, error) {
	w, err := sh.window(args[0])
	if err != nil {
		return "", err
	}
	w.frame.SetTitle(strings.Join(args[1:], " "))
	return fmt.Sprintf("Window %d is now called %q", w.frame.ID(), w.frame.Title()), nil
}

func cmdSizeLimit(minimum bool) func(*shell, []string) (string, error) {
	return func(sh *shell, args []string) (string, error) {
		w, err := sh.window(args[0])
		if err != nil {
			return "", err
		}
		size, err := parseInts(args[1], args[2])
		if err != nil {
			return "", err
		}
		if minimum {
			err = w.frame.SetMinContentSize(size[0], size[1])
		} else {
			err = w.frame.SetMaxContentSize(size[0], size[1])
		}
		if err != nil {
			return "", err
		}
		// Limits reach the compositor with the next commit
		if w.frame.Committed() {
			if err = w.frame.Commit(nil, nil); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("Updated size limits of window %d", w.frame.ID()), nil
	}
}

func cmdCaps(sh *shell, args []string) (string, error) {
	w, err := sh.window(args[0])
	if err != nil {
		return "", err
	}
	capability, err := decor.ParseCapability(args[2])
	if err != nil {
		return "", err
	}
	switch args[1] {
	case "set":
		w.frame.SetCapabilities(capability)
	case "unset":
		w.frame.UnsetCapabilities(capability)
	default:
		return "", errUsage
	}
	return fmt.Sprintf("Window %d capabilities: %s", w.frame.ID(), w.frame.Capabilities()), nil
}

func cmdClose(sh *shell, args []string) (string, error) {
	w, err := sh.window(args[0])
	if err != nil {
		return "", err
	}
	t, err := sh.toplevel(w)
	if err != nil {
		return "", err
	}
	sh.server.SendClose(t)
	return fmt.Sprintf("Sent close to window %d", w.frame.ID()), nil
}

func cmdFocus(sh *shell, args []string) (string, error) {
	w, err := sh.window(args[0])
	if err != nil {
		return "", err
	}
	t, err := sh.toplevel(w)
	if err != nil {
		return "", err
	}
	sh.server.Focus(t)
	return fmt.Sprintf("Focused window %d", w.frame.ID()), nil
}

func cmdDestroy(sh *shell, args []string) (string, error) {
	w, err := sh.window(args[0])
	if err != nil {
		return "", err
	}
	delete(sh.windows, w.frame.ID())
	w.frame.Unref()
	return fmt.Sprintf("Destroyed window %d", w.frame.ID()), nil
}

func cmdPing(sh *shell, _ []string) (string, error) {
	serial := sh.server.Ping()
	return fmt.Sprintf("Pinged with serial %d", serial), nil
}

func cmdEdge(sh *shell, args []string) (string, error) {
	w, err := sh.window(args[0])
	if err != nil {
		return "", err
	}
	if sh.border == nil || sh.ctx.PluginName() != border.Name {
		return "", errNoBorder
	}
	pos, err := parseInts(args[1], args[2])
	if err != nil {
		return "", err
	}
	return sh.border.EdgeAt(w.frame, pos[0], pos[1]).String(), nil
}

func cmdInspect(sh *shell, args []string) (string, error) {
	if len(args) == 0 {
		return sh.contextSnapshot().Marshal()
	}
	w, err := sh.window(args[0])
	if err != nil {
		return "", err
	}
	return frameSnapshot(w.frame).Marshal()
}

func cmdTrace(sh *shell, args []string) (string, error) {
	switch args[0] {
	case "on":
		sh.setTracing(true)
	case "off":
		sh.setTracing(false)
		if dropped := sh.traces.Dropped(tracePrinter); dropped > 0 {
			return fmt.Sprintf("Tracing off, %d requests were dropped", dropped), nil
		}
	default:
		return "", errUsage
	}
	return fmt.Sprintf("Tracing %s", args[0]), nil
}

func cmdRequests(sh *shell, args []string) (string, error) {
	n := 20
	if len(args) > 0 {
		v, err := parseInts(args[0])
		if err != nil {
			return "", err
		}
		n = v[0]
		if n < 0 {
			return "", errUsage
		}
	}
	requests := sh.server.Requests()
	if n < len(requests) {
		requests = requests[len(requests)-n:]
	}
	lines := make([]string, 0, len(requests))
	for _, r := range requests {
		lines = append(lines, r.String())
	}
	if len(lines) == 0 {
		return "No requests", nil
	}
	return strings.Join(lines, "\n"), nil
}

func cmdTiles(sh *shell, _ []string) (string, error) {
	tiles := sh.server.Tiles()
	if len(tiles) == 0 {
		return "No tiles", nil
	}
	lines := make([]string, 0, len(tiles))
	for _, tile := range tiles {
		r := tile.Rect
		lines = append(lines, fmt.Sprintf("toplevel %d: %dx%d at %d,%d", tile.WindowID, r.Width, r.Height, r.X, r.Y))
	}
	return strings.Join(lines, "\n"), nil
}
