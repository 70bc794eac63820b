// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package ipc holds the JSON shapes decorctl reports state in, so scripts
// driving it don't have to scrape text.
package ipc

import "encoding/json"

type (
	// State of a decoration context and all its frames
	ContextSnapshot struct {
		Plugin      string `json:"plugin"`
		PluginReady bool   `json:"plugin_ready"`
		InitDone    bool   `json:"init_done"`
		// Set once the compositor turned out to be incompatible
		Failed bool `json:"failed"`
		// Messages the error handler received, oldest first
		Errors []string        `json:"errors,omitempty"`
		Frames []FrameSnapshot `json:"frames"`
	}

	// What a frame believes about itself
	FrameSnapshot struct {
		ID            int    `json:"id"`
		Title         string `json:"title"`
		AppID         string `json:"app_id"`
		Lifecycle     string `json:"lifecycle"`
		WindowState   string `json:"window_state"`
		Decoration    string `json:"decoration"`
		Capabilities  string `json:"capabilities"`
		ContentWidth  int    `json:"content_width"`
		ContentHeight int    `json:"content_height"`
		Floating      bool   `json:"floating"`
		// Only set once the frame has a toplevel
		Toplevel *ToplevelSnapshot `json:"toplevel,omitempty"`
	}

	// What the compositor was told about a frame
	ToplevelSnapshot struct {
		ID          uint32   `json:"id"`
		MinSize     [2]int32 `json:"min_size"`
		MaxSize     [2]int32 `json:"max_size"`
		Geometry    [4]int32 `json:"geometry"`
		AckedSerial uint32   `json:"acked_serial"`
		SentSerials []uint32 `json:"sent_serials"`
		States      []uint32 `json:"states"`
		Mapped      bool     `json:"mapped"`
		Minimized   bool     `json:"minimized"`
	}
)

func (s ContextSnapshot) Marshal() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	return string(data), err
}

func (s FrameSnapshot) Marshal() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	return string(data), err
}
