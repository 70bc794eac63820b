// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package tiler lays windows out in a binary split tree, the way a tiling
// compositor would. Every new window splits the focused one in half.
package tiler

import (
	"errors"
	"fmt"
	"sync"
)

type NodeType int
type Direction int

const (
	NodeTypeLeaf = NodeType(iota)
	NodeTypeBranch
)

const (
	// Children stacked on top of each other
	DirectionVertical = Direction(iota)
	// Children side by side
	DirectionHorizontal
)

// Edges of a tile touching another tile
type Edges uint32

const (
	EdgeLeft = Edges(1 << iota)
	EdgeRight
	EdgeTop
	EdgeBottom
)

var (
	ErrWindowExists  = errors.New("window is already tiled")
	ErrWindowUnknown = errors.New("window is not tiled")
)

type (
	Size struct {
		Width, Height int32
	}

	Rect struct {
		X, Y          int32
		Width, Height int32
	}

	// Where a window ended up
	Tile struct {
		WindowID uint32
		Rect     Rect
		Edges    Edges
	}

	// A tiling tree. One tree per screen/workspace
	// Children resolution calculated down the tree
	Tree struct {
		Resolution Size // Final space the tree is occupying
		// Direction of the split at the top of the tree
		FirstSplit  Direction
		Root        *Node
		LastFocused *Leaf
		leaves      map[uint32]*Leaf // Stores all leaves for quick lookup
		lock        sync.Mutex
	}

	// Wrapper container for leafs or branches
	Node struct {
		Type   NodeType
		Branch *Branch // Must be set if type is NodeTypeBranch, ignored otherwise
		Leaf   *Leaf   // Must be set if type is NodeTypeLeaf, ignored otherwise
	}

	Branch struct {
		Direction  Direction
		ChildLeft  *Node // Is the top child if split vertically
		ChildRight *Node // Is the bottom child if split vertically
		AspectLeft int   // Percentage the left child has of the container space
		node       *Node
		parent     *Branch
	}

	Leaf struct {
		WindowID uint32
		node     *Node
		parent   *Branch
	}
)

func NewTree(resolution Size, firstSplit Direction) *Tree {
	return &Tree{
		Resolution: resolution,
		FirstSplit: firstSplit,
		leaves:     make(map[uint32]*Leaf),
	}
}

// Len returns the number of tiled windows
func (t *Tree) Len() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.leaves)
}

// Find the leaf containing the given window
func (t *Tree) FindWindow(id uint32) *Leaf {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.leaves[id]
}

// Focus marks the window the next one will be split off
func (t *Tree) Focus(id uint32) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	leaf, ok := t.leaves[id]
	if !ok {
		return ErrWindowUnknown
	}
	t.LastFocused = leaf
	return nil
}

// Swap two windows
func (t *Tree) SwapWindows(first, second uint32) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	leaf1, ok1 := t.leaves[first]
	leaf2, ok2 := t.leaves[second]
	if !ok1 || !ok2 {
		return ErrWindowUnknown
	}
	leaf1.WindowID, leaf2.WindowID = second, first
	t.leaves[first], t.leaves[second] = leaf2, leaf1
	return nil
}

// Add a new window to the tree
// Splits the last focused leaf, the new window takes the right or bottom half
// and gets the focus
func (t *Tree) AddWindow(id uint32) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if _, ok := t.leaves[id]; ok {
		return ErrWindowExists
	}

	newLeaf := &Leaf{WindowID: id}
	if t.Root == nil {
		t.Root = &Node{Type: NodeTypeLeaf, Leaf: newLeaf}
		newLeaf.node = t.Root
	} else {
		target := t.LastFocused
		if target == nil {
			target = firstLeaf(t.Root)
		}
		t.split(target, newLeaf)
	}
	t.leaves[id] = newLeaf
	t.LastFocused = newLeaf
	return nil
}

// split turns target's node into a branch holding target and leaf
func (t *Tree) split(target, leaf *Leaf) {
	direction := t.FirstSplit
	if target.parent != nil {
		direction = opposite(target.parent.Direction)
	}

	node := target.node
	left := &Node{Type: NodeTypeLeaf, Leaf: target}
	right := &Node{Type: NodeTypeLeaf, Leaf: leaf}
	branch := &Branch{
		Direction:  direction,
		ChildLeft:  left,
		ChildRight: right,
		AspectLeft: 50,
		node:       node,
		parent:     target.parent,
	}
	node.Type = NodeTypeBranch
	node.Branch = branch
	node.Leaf = nil

	target.node, target.parent = left, branch
	leaf.node, leaf.parent = right, branch
}

// Remove a window from the tree
// Its sibling takes over the space of the parent branch
func (t *Tree) RemoveWindow(id uint32) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	leaf, ok := t.leaves[id]
	if !ok {
		return ErrWindowUnknown
	}
	delete(t.leaves, id)

	parent := leaf.parent
	if parent == nil {
		t.Root = nil
		t.LastFocused = nil
		return nil
	}

	sibling := parent.ChildLeft
	if sibling.Leaf == leaf {
		sibling = parent.ChildRight
	}
	// The parent's node now holds the sibling
	node := parent.node
	*node = *sibling
	switch node.Type {
	case NodeTypeLeaf:
		node.Leaf.node = node
		node.Leaf.parent = parent.parent
	case NodeTypeBranch:
		node.Branch.node = node
		node.Branch.parent = parent.parent
	}

	if t.LastFocused == leaf {
		t.LastFocused = firstLeaf(node)
	}
	return nil
}

// Layout computes the place of every window, in tree order
func (t *Tree) Layout() []Tile {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.Root == nil {
		return nil
	}
	tiles := make([]Tile, 0, len(t.leaves))
	full := Rect{Width: t.Resolution.Width, Height: t.Resolution.Height}
	return t.layoutNode(t.Root, full, tiles)
}

func (t *Tree) layoutNode(node *Node, area Rect, tiles []Tile) []Tile {
	if node.Type == NodeTypeLeaf {
		return append(tiles, Tile{
			WindowID: node.Leaf.WindowID,
			Rect:     area,
			Edges:    t.innerEdges(area),
		})
	}

	b := node.Branch
	left, right := area, area
	switch b.Direction {
	case DirectionHorizontal:
		left.Width = area.Width * int32(b.AspectLeft) / 100
		right.X = area.X + left.Width
		right.Width = area.Width - left.Width
	case DirectionVertical:
		left.Height = area.Height * int32(b.AspectLeft) / 100
		right.Y = area.Y + left.Height
		right.Height = area.Height - left.Height
	}
	tiles = t.layoutNode(b.ChildLeft, left, tiles)
	return t.layoutNode(b.ChildRight, right, tiles)
}

// innerEdges reports which sides of area border another tile rather than
// the edge of the screen
func (t *Tree) innerEdges(area Rect) Edges {
	var edges Edges
	if area.X > 0 {
		edges |= EdgeLeft
	}
	if area.X+area.Width < t.Resolution.Width {
		edges |= EdgeRight
	}
	if area.Y > 0 {
		edges |= EdgeTop
	}
	if area.Y+area.Height < t.Resolution.Height {
		edges |= EdgeBottom
	}
	return edges
}

// Check walks the tree and reports the first broken link
func (t *Tree) Check() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.Root == nil {
		if len(t.leaves) != 0 {
			return fmt.Errorf("empty tree knows %d windows", len(t.leaves))
		}
		return nil
	}
	count, err := checkNode(t.Root, nil)
	if err != nil {
		return err
	}
	if count != len(t.leaves) {
		return fmt.Errorf("tree holds %d leaves, index %d", count, len(t.leaves))
	}
	return nil
}

func checkNode(node *Node, parent *Branch) (int, error) {
	if node == nil {
		return 0, errors.New("node is nil")
	}
	switch node.Type {
	case NodeTypeLeaf:
		if node.Leaf == nil {
			return 0, errors.New("leaf is nil")
		}
		if node.Leaf.node != node || node.Leaf.parent != parent {
			return 0, fmt.Errorf("leaf of window %d has stale links", node.Leaf.WindowID)
		}
		return 1, nil
	case NodeTypeBranch:
		b := node.Branch
		if b == nil {
			return 0, errors.New("stored branch is nil")
		}
		if b.node != node || b.parent != parent {
			return 0, errors.New("branch has stale links")
		}
		if b.AspectLeft <= 0 || b.AspectLeft >= 100 {
			return 0, fmt.Errorf("invalid aspect %d", b.AspectLeft)
		}
		left, err := checkNode(b.ChildLeft, b)
		if err != nil {
			return 0, fmt.Errorf("left child: %w", err)
		}
		right, err := checkNode(b.ChildRight, b)
		if err != nil {
			return 0, fmt.Errorf("right child: %w", err)
		}
		return left + right, nil
	}
	return 0, errors.New("invalid node type")
}

func firstLeaf(node *Node) *Leaf {
	for node.Type == NodeTypeBranch {
		node = node.Branch.ChildLeft
	}
	return node.Leaf
}

func opposite(d Direction) Direction {
	if d == DirectionVertical {
		return DirectionHorizontal
	}
	return DirectionVertical
}
