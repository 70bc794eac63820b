// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package tiler

import (
	"errors"
	"testing"
)

func newTestTree() *Tree {
	return NewTree(Size{Width: 1000, Height: 800}, DirectionHorizontal)
}

// Check creation of new empty tree
func TestBTreeCreate(t *testing.T) {
	tree := newTestTree()
	if tree.Root != nil {
		t.Errorf("New tree has a root")
	}
	if tree.LastFocused != nil {
		t.Errorf("New tree has a focused leaf")
	}
	if tiles := tree.Layout(); len(tiles) != 0 {
		t.Errorf("Empty tree laid out %d tiles", len(tiles))
	}
	if err := tree.Check(); err != nil {
		t.Errorf("Invalid tree structure: %s", err)
	}
}

func TestBTreeInsert(t *testing.T) {
	tree := newTestTree()
	if err := tree.AddWindow(1); err != nil {
		t.Fatalf("Failed to add window: %s", err)
	}
	if tree.LastFocused == nil || tree.LastFocused.WindowID != 1 {
		t.Errorf("New window didn't get the focus")
	}
	tiles := tree.Layout()
	if len(tiles) != 1 {
		t.Fatalf("Expected 1 tile, got %d", len(tiles))
	}
	if tiles[0].Rect != (Rect{Width: 1000, Height: 800}) {
		t.Errorf("Single window should fill the screen, got %+v", tiles[0].Rect)
	}
	if tiles[0].Edges != 0 {
		t.Errorf("Single window shouldn't touch other tiles, got edges %b", tiles[0].Edges)
	}
	if err := tree.AddWindow(1); !errors.Is(err, ErrWindowExists) {
		t.Errorf("Expected ErrWindowExists, got %v", err)
	}
	if err := tree.Check(); err != nil {
		t.Errorf("Invalid tree structure: %s", err)
	}
}

func TestBTreeSplitAlternates(t *testing.T) {
	tree := newTestTree()
	for id := uint32(1); id <= 3; id++ {
		if err := tree.AddWindow(id); err != nil {
			t.Fatalf("Failed to add window %d: %s", id, err)
		}
	}
	if err := tree.Check(); err != nil {
		t.Fatalf("Invalid tree structure: %s", err)
	}

	want := map[uint32]Tile{
		1: {WindowID: 1, Rect: Rect{0, 0, 500, 800}, Edges: EdgeRight},
		2: {WindowID: 2, Rect: Rect{500, 0, 500, 400}, Edges: EdgeLeft | EdgeBottom},
		3: {WindowID: 3, Rect: Rect{500, 400, 500, 400}, Edges: EdgeLeft | EdgeTop},
	}
	tiles := tree.Layout()
	if len(tiles) != len(want) {
		t.Fatalf("Expected %d tiles, got %d", len(want), len(tiles))
	}
	for _, tile := range tiles {
		if tile != want[tile.WindowID] {
			t.Errorf("Window %d: expected %+v, got %+v", tile.WindowID, want[tile.WindowID], tile)
		}
	}
}

func TestBTreeRemove(t *testing.T) {
	tree := newTestTree()
	for id := uint32(1); id <= 3; id++ {
		_ = tree.AddWindow(id)
	}
	if err := tree.RemoveWindow(2); err != nil {
		t.Fatalf("Failed to remove window: %s", err)
	}
	if err := tree.Check(); err != nil {
		t.Fatalf("Invalid tree structure after remove: %s", err)
	}
	tiles := tree.Layout()
	if len(tiles) != 2 {
		t.Fatalf("Expected 2 tiles, got %d", len(tiles))
	}
	if tiles[1].WindowID != 3 || tiles[1].Rect != (Rect{500, 0, 500, 800}) {
		t.Errorf("Sibling should take the freed space, got %+v", tiles[1])
	}

	if err := tree.RemoveWindow(2); !errors.Is(err, ErrWindowUnknown) {
		t.Errorf("Expected ErrWindowUnknown, got %v", err)
	}
	_ = tree.RemoveWindow(1)
	_ = tree.RemoveWindow(3)
	if tree.Root != nil || tree.LastFocused != nil || tree.Len() != 0 {
		t.Errorf("Tree not empty after removing everything")
	}
	if err := tree.Check(); err != nil {
		t.Errorf("Invalid tree structure: %s", err)
	}
}

func TestBTreeRemoveFocused(t *testing.T) {
	tree := newTestTree()
	_ = tree.AddWindow(1)
	_ = tree.AddWindow(2)
	if err := tree.RemoveWindow(2); err != nil {
		t.Fatalf("Failed to remove window: %s", err)
	}
	if tree.LastFocused == nil || tree.LastFocused.WindowID != 1 {
		t.Errorf("Focus should move to the remaining window")
	}
	_ = tree.AddWindow(3)
	if err := tree.Check(); err != nil {
		t.Errorf("Invalid tree structure: %s", err)
	}
}

func TestBTreeSwap(t *testing.T) {
	tree := newTestTree()
	_ = tree.AddWindow(1)
	_ = tree.AddWindow(2)
	if err := tree.SwapWindows(1, 2); err != nil {
		t.Fatalf("Failed to swap: %s", err)
	}
	tiles := tree.Layout()
	if tiles[0].WindowID != 2 || tiles[1].WindowID != 1 {
		t.Errorf("Windows not swapped: %+v", tiles)
	}
	if tree.FindWindow(1).WindowID != 1 {
		t.Errorf("Index points to the wrong leaf after swap")
	}
	if err := tree.SwapWindows(1, 5); !errors.Is(err, ErrWindowUnknown) {
		t.Errorf("Expected ErrWindowUnknown, got %v", err)
	}
}
