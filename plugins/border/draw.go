// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package border

import (
	"image"
	"image/color"

	decor "github.com/mstarongithub/way2decor"
	"github.com/mstarongithub/way2decor/config"
	"github.com/mstarongithub/way2decor/wayland"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const titlePadding = 8

type theme struct {
	cfg config.BorderConfig

	titleHeight  int
	shadowMargin int
	buttonWidth  int

	activeTitle   color.NRGBA
	inactiveTitle color.NRGBA
	titleText     color.NRGBA
	button        color.NRGBA
	shadow        color.NRGBA

	face font.Face
}

func newTheme(cfg config.BorderConfig) (theme, error) {
	t := theme{
		cfg:          cfg,
		titleHeight:  cfg.TitleHeight,
		shadowMargin: cfg.ShadowMargin,
		buttonWidth:  cfg.ButtonWidth,
		face:         basicfont.Face7x13,
	}
	for _, c := range []struct {
		dst   *color.NRGBA
		value string
	}{
		{&t.activeTitle, cfg.ActiveTitleColor},
		{&t.inactiveTitle, cfg.InactiveTitleColor},
		{&t.titleText, cfg.TitleTextColor},
		{&t.button, cfg.ButtonColor},
		{&t.shadow, cfg.ShadowColor},
	} {
		parsed, err := config.ParseColor(c.value)
		if err != nil {
			return theme{}, err
		}
		*c.dst = parsed
	}
	return t, nil
}

type button int

const (
	buttonClose = button(iota)
	buttonMaximize
	buttonMinimize
)

// buttons returns the buttons to show, right to left
func (t theme) buttons(capabilities decor.Capabilities) []button {
	var out []button
	if capabilities&decor.ActionClose != 0 {
		out = append(out, buttonClose)
	}
	if capabilities&decor.ActionResize != 0 {
		out = append(out, buttonMaximize)
	}
	if capabilities&decor.ActionMinimize != 0 {
		out = append(out, buttonMinimize)
	}
	return out
}

// buttonRowWidth fits every button there can be
func (t theme) buttonRowWidth() int {
	return 3 * t.buttonWidth
}

func (p *Plugin) draw(fs *frameState, key drawKey) {
	l := componentLayout(p.theme, key.decoration, key.width, key.height)
	complete := true
	for kind := componentKind(0); kind < componentCount; kind++ {
		c := &fs.components[kind]
		r, ok := l.rect(kind)
		if !ok {
			hideComponent(c)
			continue
		}
		if !p.drawComponent(fs.frame, c, kind, r, key) {
			complete = false
		}
	}
	if !complete {
		// Retried on the next commit, even with an unchanged key
		fs.drawn = false
		return
	}
	fs.last = key
	fs.drawn = true
	fs.redraws++
	p.log.WithFields(logrus.Fields{
		"frame":      fs.frame.ID(),
		"decoration": key.decoration,
		"width":      key.width,
		"height":     key.height,
	}).Debugln("Drew decoration")
}

func hideComponent(c *component) {
	if c.surface == nil {
		return
	}
	c.surface.Attach(nil, 0, 0)
	c.surface.Commit()
	if c.buffer != nil {
		c.buffer.Detach()
		c.buffer = nil
	}
}

func (p *Plugin) ensureSurfaces(frame *decor.Frame, c *component, kind componentKind) {
	if c.surface != nil {
		return
	}
	parent := frame.Surface()
	c.surface = p.compositor.CreateSurface()
	c.subsurface = p.subcompositor.GetSubsurface(c.surface, parent)
	if !kind.insideGeometry() {
		c.subsurface.PlaceBelow(parent)
	}
}

// drawComponent reports whether the component is on screen
func (p *Plugin) drawComponent(frame *decor.Frame, c *component, kind componentKind, r image.Rectangle, key drawKey) bool {
	p.ensureSurfaces(frame, c, kind)

	width, height := r.Dx(), r.Dy()
	if c.buffer != nil && !c.buffer.Reusable(width, height) {
		c.buffer.Detach()
		c.buffer = nil
	}
	if c.buffer == nil {
		b, err := p.newBuffer(p.shm, width, height, wayland.ShmFormatARGB8888)
		if err != nil {
			p.log.WithError(err).WithField("component", kind).Warnln("Skipping component, buffer allocation failed")
			return false
		}
		c.buffer = b
	}

	img := c.buffer.Image()
	if kind == titleBar {
		p.paintTitleBar(img, key)
	} else {
		img.Fill(p.theme.shadow)
	}

	c.surface.Attach(c.buffer.Wayland(), 0, 0)
	c.surface.Damage(0, 0, int32(width), int32(height))
	c.surface.Commit()
	c.buffer.MarkInUse()
	c.subsurface.SetPosition(int32(r.Min.X), int32(r.Min.Y))
	return true
}

func (p *Plugin) paintTitleBar(img draw.Image, key drawKey) {
	t := p.theme
	bg := t.inactiveTitle
	if key.active {
		bg = t.activeTitle
	}
	bounds := img.Bounds()
	draw.Draw(img, bounds, image.NewUniform(bg), image.Point{}, draw.Src)

	x := bounds.Max.X
	for _, b := range t.buttons(key.capabilities) {
		x -= t.buttonWidth
		if x < bounds.Min.X {
			break
		}
		p.paintButton(img, b, image.Rect(x, bounds.Min.Y, x+t.buttonWidth, bounds.Max.Y))
	}

	room := x - bounds.Min.X - 2*titlePadding
	text := fitText(t.face, key.title, room)
	if text == "" {
		return
	}
	metrics := t.face.Metrics()
	baseline := (bounds.Dy() + metrics.Ascent.Ceil() - metrics.Descent.Ceil()) / 2
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(t.titleText),
		Face: t.face,
		Dot:  fixed.P(bounds.Min.X+titlePadding, bounds.Min.Y+baseline),
	}
	d.DrawString(text)
}

// fitText shortens text with an ellipsis until it fits into width pixels
func fitText(face font.Face, text string, width int) string {
	if width <= 0 {
		return ""
	}
	if font.MeasureString(face, text).Ceil() <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if font.MeasureString(face, candidate).Ceil() <= width {
			return candidate
		}
	}
	return ""
}

func (p *Plugin) paintButton(img draw.Image, b button, r image.Rectangle) {
	fg := image.NewUniform(p.theme.button)
	size := min(r.Dx(), r.Dy()) / 3
	c := image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
	icon := image.Rect(c.X-size, c.Y-size, c.X+size, c.Y+size)

	switch b {
	case buttonClose:
		for i := 0; i < icon.Dx(); i++ {
			img.Set(icon.Min.X+i, icon.Min.Y+i, p.theme.button)
			img.Set(icon.Max.X-1-i, icon.Min.Y+i, p.theme.button)
		}
	case buttonMaximize:
		draw.Draw(img, image.Rect(icon.Min.X, icon.Min.Y, icon.Max.X, icon.Min.Y+2), fg, image.Point{}, draw.Over)
		draw.Draw(img, image.Rect(icon.Min.X, icon.Max.Y-1, icon.Max.X, icon.Max.Y), fg, image.Point{}, draw.Over)
		draw.Draw(img, image.Rect(icon.Min.X, icon.Min.Y, icon.Min.X+1, icon.Max.Y), fg, image.Point{}, draw.Over)
		draw.Draw(img, image.Rect(icon.Max.X-1, icon.Min.Y, icon.Max.X, icon.Max.Y), fg, image.Point{}, draw.Over)
	case buttonMinimize:
		draw.Draw(img, image.Rect(icon.Min.X, icon.Max.Y-2, icon.Max.X, icon.Max.Y), fg, image.Point{}, draw.Over)
	}
}
