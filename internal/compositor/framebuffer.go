// SPDX-License-Identifier: MIT

// Package compositor owns the pixel framebuffer: scrolling it as
// playback advances, painting columns from computed spectral results,
// remapping linear bins to a logarithmic frequency axis, and drawing
// overlays (piano/staff/guitar rows, bar/beat columns).
package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
)

// RGBA is a packed 8-bit-per-channel pixel, alpha always opaque.
type RGBA struct {
	R, G, B uint8
}

// Backend is the pixel-surface seam a real display (SDL/EFL-equivalent)
// would implement; RasterBackend below is the in-memory default. A
// concrete default plus a thin interface lets a different sink be
// substituted without touching compositor logic.
type Backend interface {
	PutPixel(x, y int, c RGBA)
	FillRect(x, y, w, h int, c RGBA)
	Blit(dx, dy, sx, sy, w, h int)
	UpdateRect(x, y, w, h int)
	Width() int
	Height() int
}

// RasterBackend is an in-memory RGBA raster guarded by a mutex — the
// "backend lock" in the shared-resource model, since the framebuffer
// is written from the main goroutine only but may be read by a
// concurrent screenshot request.
type RasterBackend struct {
	mu     sync.Mutex
	width  int
	height int
	pixels []RGBA
}

// NewRasterBackend returns a width×height raster, initially black.
func NewRasterBackend(width, height int) *RasterBackend {
	return &RasterBackend{width: width, height: height, pixels: make([]RGBA, width*height)}
}

func (b *RasterBackend) Width() int  { return b.width }
func (b *RasterBackend) Height() int { return b.height }

func (b *RasterBackend) index(x, y int) int { return y*b.width + x }

// PutPixel writes one pixel; out-of-bounds coordinates are ignored.
func (b *RasterBackend) PutPixel(x, y int, c RGBA) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	b.pixels[b.index(x, y)] = c
}

// FillRect fills a w×h rectangle at (x, y) with c, clipped to bounds.
func (b *RasterBackend) FillRect(x, y, w, h int, c RGBA) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for row := y; row < y+h; row++ {
		if row < 0 || row >= b.height {
			continue
		}
		for col := x; col < x+w; col++ {
			if col < 0 || col >= b.width {
				continue
			}
			b.pixels[b.index(col, row)] = c
		}
	}
}

// Blit copies a w×h region from (sx, sy) to (dx, dy), used by do_scroll
// to shift the existing framebuffer horizontally instead of repainting
// every column from scratch.
func (b *RasterBackend) Blit(dx, dy, sx, sy, w, h int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Copy in source-to-destination order that survives overlap: when
	// scrolling left (dx < sx) walk forward, otherwise walk backward.
	rowStart, rowEnd, rowStep := 0, h, 1
	if dx > sx {
		rowStart, rowEnd, rowStep = h-1, -1, -1
	}
	for row := rowStart; row != rowEnd; row += rowStep {
		srcY, dstY := sy+row, dy+row
		if srcY < 0 || srcY >= b.height || dstY < 0 || dstY >= b.height {
			continue
		}

		colStart, colEnd, colStep := 0, w, 1
		if dx > sx {
			colStart, colEnd, colStep = w-1, -1, -1
		}
		for col := colStart; col != colEnd; col += colStep {
			srcX, dstX := sx+col, dx+col
			if srcX < 0 || srcX >= b.width || dstX < 0 || dstX >= b.width {
				continue
			}
			b.pixels[b.index(dstX, dstY)] = b.pixels[b.index(srcX, srcY)]
		}
	}
}

// UpdateRect is a no-op for the in-memory raster (nothing to flush to
// a real display); kept to satisfy Backend for a future hardware sink.
func (b *RasterBackend) UpdateRect(x, y, w, h int) {}

// WritePNG encodes the current framebuffer contents as a PNG, the
// screenshot operation named in the external-interface surface.
func (b *RasterBackend) WritePNG(w io.Writer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			p := b.pixels[b.index(x, y)]
			img.Set(x, y, color.RGBA{R: p.R, G: p.G, B: p.B, A: 255})
		}
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("compositor: encode screenshot: %w", err)
	}
	return nil
}
