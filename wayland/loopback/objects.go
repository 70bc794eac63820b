// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package loopback

import (
	"errors"

	"github.com/mstarongithub/way2decor/wayland"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

type display struct {
	server *Server
}

func (d *display) Registry() wayland.Registry {
	s := d.server
	r := &registry{id: s.newID(), server: s}
	s.record("wl_display", 0, "get_registry", r.id)
	s.registries = append(s.registries, r)
	for _, g := range s.globals {
		s.announce(r, g)
	}
	return r
}

func (d *display) Sync(done func(data uint32)) wayland.Callback {
	s := d.server
	cb := &callback{id: s.newID(), server: s}
	s.record("wl_display", 0, "sync", cb.id)
	s.post(func() {
		if !cb.destroyed {
			cb.destroyed = true
			done(s.newSerial())
		}
	})
	return cb
}

func (d *display) Fd() int {
	return d.server.efd
}

func (d *display) Flush() error {
	if d.server.efd < 0 {
		return ErrClosed
	}
	return nil
}

func (d *display) DispatchPending() (int, error) {
	s := d.server
	if s.efd < 0 {
		return 0, ErrClosed
	}
	count := 0
	for len(s.queue) > 0 {
		event := s.queue[0]
		s.queue = s.queue[1:]
		event()
		count++
	}
	return count, nil
}

func (d *display) ReadEvents() error {
	s := d.server
	if s.efd < 0 {
		return ErrClosed
	}
	var buf [8]byte
	_, err := unix.Read(s.efd, buf[:])
	if err != nil && !errors.Is(err, unix.EAGAIN) {
		return err
	}
	return nil
}

type callback struct {
	id        uint32
	server    *Server
	destroyed bool
}

func (c *callback) Destroy() {
	c.server.record("wl_callback", c.id, "destroy")
	c.destroyed = true
}

type registry struct {
	id        uint32
	server    *Server
	listener  wayland.RegistryListener
	destroyed bool
}

func (r *registry) SetListener(l wayland.RegistryListener) {
	r.listener = l
}

func (r *registry) bind(name uint32, iface string, version uint32) uint32 {
	s := r.server
	id := s.newID()
	if g, ok := s.lookupGlobal(name); !ok || g.iface != iface {
		s.log.WithFields(logrus.Fields{
			"name":      name,
			"interface": iface,
		}).Warnln("Bind to unknown global")
	}
	s.record("wl_registry", r.id, "bind", name, iface, version, id)
	return id
}

func (r *registry) BindCompositor(name, version uint32) wayland.Compositor {
	return &compositor{id: r.bind(name, wayland.InterfaceCompositor, version), server: r.server}
}

func (r *registry) BindSubcompositor(name, version uint32) wayland.Subcompositor {
	return &subcompositor{id: r.bind(name, wayland.InterfaceSubcompositor, version), server: r.server}
}

func (r *registry) BindShm(name, version uint32) wayland.Shm {
	s := r.server
	sh := &shm{id: r.bind(name, wayland.InterfaceShm, version), server: s}
	for _, format := range s.opts.ShmFormats {
		f := format
		s.post(func() {
			if sh.listener != nil {
				sh.listener.Format(f)
			}
		})
	}
	return sh
}

func (r *registry) BindXDGWmBase(name, version uint32) wayland.XDGWmBase {
	base := &xdgWmBase{id: r.bind(name, wayland.InterfaceXDGWmBase, version), server: r.server}
	r.server.wmBases = append(r.server.wmBases, base)
	return base
}

func (r *registry) Destroy() {
	r.server.record("wl_registry", r.id, "destroy")
	r.destroyed = true
}

type compositor struct {
	id     uint32
	server *Server
}

func (c *compositor) CreateSurface() wayland.Surface {
	s := c.server
	surface := &Surface{id: s.newID(), server: s}
	s.record("wl_compositor", c.id, "create_surface", surface.id)
	return surface
}

// NewSurface creates a surface without going through a bound compositor,
// as an application that owns its own wl_compositor would
func (server *Server) NewSurface() *Surface {
	surface := &Surface{id: server.newID(), server: server}
	server.record("wl_compositor", 0, "create_surface", surface.id)
	return surface
}

type subcompositor struct {
	id     uint32
	server *Server
}

func (c *subcompositor) GetSubsurface(surface, parent wayland.Surface) wayland.Subsurface {
	s := c.server
	sub := &Subsurface{id: s.newID(), server: s, surface: surface.(*Surface), parent: parent.(*Surface)}
	sub.surface.subsurface = sub
	s.record("wl_subcompositor", c.id, "get_subsurface", sub.id, surface.ID(), parent.ID())
	return sub
}

// A surface, seen from both ends
type Surface struct {
	id         uint32
	server     *Server
	pending    *buffer
	attached   bool
	committed  *buffer
	commits    int
	toplevel   *Toplevel
	subsurface *Subsurface
	destroyed  bool
}

func (s *Surface) ID() uint32 {
	return s.id
}

func (s *Surface) Attach(b wayland.Buffer, x, y int32) {
	var id uint32
	s.pending = nil
	if b != nil {
		s.pending = b.(*buffer)
		id = b.ID()
	}
	s.attached = true
	s.server.record("wl_surface", s.id, "attach", id, x, y)
}

func (s *Surface) Damage(x, y, width, height int32) {
	s.server.record("wl_surface", s.id, "damage", x, y, width, height)
}

func (s *Surface) Commit() {
	server := s.server
	server.record("wl_surface", s.id, "commit")
	s.commits++
	if s.attached {
		if s.committed != nil && s.committed != s.pending {
			server.Release(s.committed)
		}
		s.committed = s.pending
		if s.committed != nil {
			s.committed.released = false
		}
		s.attached = false
	}
	if s.toplevel != nil && !s.toplevel.initialCommitted {
		server.handleMapXDGToplevel(s.toplevel)
	}
}

func (s *Surface) Destroy() {
	s.server.record("wl_surface", s.id, "destroy")
	s.destroyed = true
}

// Buffer returns the buffer currently shown on the surface
func (s *Surface) Buffer() wayland.Buffer {
	if s.committed == nil {
		return nil
	}
	return s.committed
}

// BufferSize returns the size of the shown buffer
func (s *Surface) BufferSize() (int32, int32, bool) {
	if s.committed == nil {
		return 0, 0, false
	}
	return s.committed.width, s.committed.height, true
}

func (s *Surface) Commits() int {
	return s.commits
}

func (s *Surface) Destroyed() bool {
	return s.destroyed
}

func (s *Surface) Subsurface() *Subsurface {
	return s.subsurface
}

type Subsurface struct {
	id        uint32
	server    *Server
	surface   *Surface
	parent    *Surface
	x, y      int32
	destroyed bool
}

func (s *Subsurface) SetPosition(x, y int32) {
	s.x, s.y = x, y
	s.server.record("wl_subsurface", s.id, "set_position", x, y)
}

func (s *Subsurface) PlaceBelow(sibling wayland.Surface) {
	s.server.record("wl_subsurface", s.id, "place_below", sibling.ID())
}

func (s *Subsurface) Destroy() {
	s.server.record("wl_subsurface", s.id, "destroy")
	s.destroyed = true
}

func (s *Subsurface) Position() (int32, int32) {
	return s.x, s.y
}

func (s *Subsurface) Destroyed() bool {
	return s.destroyed
}

type shm struct {
	id       uint32
	server   *Server
	listener wayland.ShmListener
}

func (s *shm) SetListener(l wayland.ShmListener) {
	s.listener = l
}

func (s *shm) CreatePool(fd int, size int32) wayland.ShmPool {
	pool := &shmPool{id: s.server.newID(), server: s.server, size: size}
	s.server.record("wl_shm", s.id, "create_pool", pool.id, fd, size)
	return pool
}

type shmPool struct {
	id     uint32
	server *Server
	size   int32
}

func (p *shmPool) CreateBuffer(offset, width, height, stride int32, format uint32) wayland.Buffer {
	b := &buffer{id: p.server.newID(), server: p.server, width: width, height: height, format: format}
	p.server.record("wl_shm_pool", p.id, "create_buffer", b.id, offset, width, height, stride, format)
	return b
}

func (p *shmPool) Destroy() {
	p.server.record("wl_shm_pool", p.id, "destroy")
}

type buffer struct {
	id            uint32
	server        *Server
	listener      wayland.BufferListener
	width, height int32
	format        uint32
	released      bool
	destroyed     bool
}

func (b *buffer) ID() uint32 {
	return b.id
}

func (b *buffer) SetListener(l wayland.BufferListener) {
	b.listener = l
}

func (b *buffer) Destroy() {
	b.server.record("wl_buffer", b.id, "destroy")
	b.destroyed = true
}

type xdgWmBase struct {
	id       uint32
	server   *Server
	listener wayland.XDGWmBaseListener
}

func (w *xdgWmBase) SetListener(l wayland.XDGWmBaseListener) {
	w.listener = l
}

func (w *xdgWmBase) Pong(serial uint32) {
	w.server.record("xdg_wm_base", w.id, "pong", serial)
}

func (w *xdgWmBase) GetXDGSurface(surface wayland.Surface) wayland.XDGSurface {
	s := w.server
	xs := &xdgSurface{id: s.newID(), server: s, surface: surface.(*Surface)}
	s.record("xdg_wm_base", w.id, "get_xdg_surface", xs.id, surface.ID())
	return xs
}

func (w *xdgWmBase) Destroy() {
	w.server.record("xdg_wm_base", w.id, "destroy")
}

type xdgSurface struct {
	id        uint32
	server    *Server
	surface   *Surface
	listener  wayland.XDGSurfaceListener
	toplevel  *Toplevel
	destroyed bool
}

func (x *xdgSurface) SetListener(l wayland.XDGSurfaceListener) {
	x.listener = l
}

func (x *xdgSurface) GetToplevel() wayland.XDGToplevel {
	s := x.server
	t := &Toplevel{id: s.newID(), server: s, xdgSurface: x}
	x.toplevel = t
	x.surface.toplevel = t
	s.record("xdg_surface", x.id, "get_toplevel", t.id)
	s.topLevelList.PushBack(t)
	return t
}

func (x *xdgSurface) AckConfigure(serial uint32) {
	x.server.record("xdg_surface", x.id, "ack_configure", serial)
	if x.toplevel != nil {
		x.toplevel.acked = serial
	}
}

func (x *xdgSurface) SetWindowGeometry(gx, gy, width, height int32) {
	x.server.record("xdg_surface", x.id, "set_window_geometry", gx, gy, width, height)
	if x.toplevel != nil {
		x.toplevel.geometry = [4]int32{gx, gy, width, height}
	}
}

func (x *xdgSurface) Destroy() {
	x.server.record("xdg_surface", x.id, "destroy")
	x.destroyed = true
}
