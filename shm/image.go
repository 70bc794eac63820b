// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package shm

import (
	"encoding/binary"
	"image"
	"image/color"
)

// ARGB is an image in the compositor's ARGB8888 layout: premultiplied,
// one little endian uint32 per pixel
type ARGB struct {
	Pix    []byte
	Stride int

	width, height int
}

// NewARGB allocates an image outside of shared memory
func NewARGB(width, height int) *ARGB {
	return &ARGB{
		Pix:    make([]byte, width*height*bytesPerPixel),
		Stride: width * bytesPerPixel,
		width:  width,
		height: height,
	}
}

func (img *ARGB) ColorModel() color.Model {
	return color.RGBAModel
}

func (img *ARGB) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.width, img.height)
}

func (img *ARGB) offset(x, y int) int {
	return y*img.Stride + x*bytesPerPixel
}

func (img *ARGB) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(img.Bounds())) {
		return color.RGBA{}
	}
	return img.RGBAAt(x, y)
}

func (img *ARGB) RGBAAt(x, y int) color.RGBA {
	v := binary.LittleEndian.Uint32(img.Pix[img.offset(x, y):])
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: uint8(v >> 24),
	}
}

func (img *ARGB) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(img.Bounds())) {
		return
	}
	img.SetRGBA(x, y, color.RGBAModel.Convert(c).(color.RGBA))
}

func (img *ARGB) SetRGBA(x, y int, c color.RGBA) {
	v := uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	binary.LittleEndian.PutUint32(img.Pix[img.offset(x, y):], v)
}

// Fill sets every pixel to c
func (img *ARGB) Fill(c color.Color) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	for y := 0; y < img.height; y++ {
		for x := 0; x < img.width; x++ {
			img.SetRGBA(x, y, rgba)
		}
	}
}
