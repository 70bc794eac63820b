// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package border

import (
	"image"

	decor "github.com/mstarongithub/way2decor"
)

type componentKind int

const (
	shadowTop = componentKind(iota)
	shadowRight
	shadowBottom
	shadowLeft
	titleBar
	componentCount
)

func (k componentKind) String() string {
	return [...]string{"shadow-top", "shadow-right", "shadow-bottom", "shadow-left", "title-bar"}[k]
}

// Shadows sit outside the window geometry, the title bar is part of it
func (k componentKind) insideGeometry() bool {
	return k == titleBar
}

// Positions of all components relative to the content surface's origin
type layout struct {
	decoration decor.DecorationType
	content    image.Rectangle
	rects      [componentCount]image.Rectangle
	present    [componentCount]bool
}

// componentLayout is the single source of decoration geometry. Content size,
// window geometry, subsurface positions and buffer sizes are all derived
// from it
func componentLayout(t theme, decoration decor.DecorationType, width, height int) layout {
	l := layout{
		decoration: decoration,
		content:    image.Rect(0, 0, width, height),
	}
	if decoration == decor.DecorationTypeNone {
		return l
	}

	title := t.titleHeight
	l.set(titleBar, image.Rect(0, -title, width, 0))

	if decoration == decor.DecorationTypeFull {
		m := t.shadowMargin
		l.set(shadowTop, image.Rect(-m, -title-m, width+m, -title))
		l.set(shadowRight, image.Rect(width, -title, width+m, height))
		l.set(shadowBottom, image.Rect(-m, height, width+m, height+m))
		l.set(shadowLeft, image.Rect(-m, -title, 0, height))
	}
	return l
}

func (l *layout) set(kind componentKind, r image.Rectangle) {
	l.rects[kind] = r
	l.present[kind] = true
}

// rect returns where kind goes, or false if it isn't shown
func (l layout) rect(kind componentKind) (image.Rectangle, bool) {
	if !l.present[kind] || l.rects[kind].Empty() {
		return image.Rectangle{}, false
	}
	return l.rects[kind], true
}

// geometry is the window geometry: content plus everything drawn inside it
func (l layout) geometry() image.Rectangle {
	g := l.content
	for kind := componentKind(0); kind < componentCount; kind++ {
		if l.present[kind] && kind.insideGeometry() {
			g = g.Union(l.rects[kind])
		}
	}
	return g
}

// bounds covers everything drawn, shadows included
func (l layout) bounds() image.Rectangle {
	b := l.content
	for kind := componentKind(0); kind < componentCount; kind++ {
		if r, ok := l.rect(kind); ok {
			b = b.Union(r)
		}
	}
	return b
}

// borders is how far the window geometry extends past the content
func (l layout) borders() decor.Borders {
	g := l.geometry()
	return decor.Borders{
		Left:   l.content.Min.X - g.Min.X,
		Right:  g.Max.X - l.content.Max.X,
		Top:    l.content.Min.Y - g.Min.Y,
		Bottom: g.Max.Y - l.content.Max.Y,
	}
}

// chrome is the decoration's share of the window geometry. It doesn't depend
// on the content size, any non-empty one gives the same result
func chrome(t theme, decoration decor.DecorationType) decor.Borders {
	return componentLayout(t, decoration, 1, 1).borders()
}

// edgeAt maps a point in content coordinates to the resize edge of the
// shadow it falls on
func (l layout) edgeAt(x, y int, corner int) decor.ResizeEdge {
	p := image.Pt(x, y)
	g := l.geometry()
	if p.In(g) || !p.In(l.bounds()) {
		return decor.ResizeEdgeNone
	}
	top := y < g.Min.Y+corner
	bottom := y >= g.Max.Y-corner
	left := x < g.Min.X+corner
	right := x >= g.Max.X-corner
	switch {
	case top && left:
		return decor.ResizeEdgeTopLeft
	case top && right:
		return decor.ResizeEdgeTopRight
	case bottom && left:
		return decor.ResizeEdgeBottomLeft
	case bottom && right:
		return decor.ResizeEdgeBottomRight
	case top:
		return decor.ResizeEdgeTop
	case bottom:
		return decor.ResizeEdgeBottom
	case left:
		return decor.ResizeEdgeLeft
	case right:
		return decor.ResizeEdgeRight
	}
	return decor.ResizeEdgeNone
}
