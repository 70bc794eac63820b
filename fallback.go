// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package decor

// Name of the plugin used when no other plugin could be loaded
const FallbackPluginName = "fallback"

// Draws nothing. Windows stay usable, just undecorated
type fallbackPlugin struct{}

func newFallbackPlugin(ctx *Context) Plugin {
	ctx.NotifyPluginReady()
	return &fallbackPlugin{}
}

func (p *fallbackPlugin) Destroy() {}

func (p *fallbackPlugin) FrameNew(frame *Frame) any {
	return nil
}

func (p *fallbackPlugin) FrameFree(frame *Frame) {}

func (p *fallbackPlugin) FrameCommit(frame *Frame, state *State, conf *Configuration) {}

func (p *fallbackPlugin) ConfigurationContentSize(conf *Configuration, frame *Frame) (int, int, bool) {
	return conf.WindowSize()
}

func (p *fallbackPlugin) FrameTranslateCoordinate(frame *Frame, contentX, contentY int) (int, int) {
	return contentX, contentY
}
