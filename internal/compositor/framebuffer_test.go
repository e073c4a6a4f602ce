// SPDX-License-Identifier: MIT
package compositor

import (
	"bytes"
	"testing"
)

func TestRasterBackendPutPixelClips(t *testing.T) {
	b := NewRasterBackend(4, 4)
	b.PutPixel(-1, 0, RGBA{R: 255})
	b.PutPixel(0, 0, RGBA{R: 255})
	b.PutPixel(100, 100, RGBA{G: 255})

	if b.pixels[0].R != 255 {
		t.Error("in-bounds PutPixel should have taken effect")
	}
}

func TestRasterBackendFillRect(t *testing.T) {
	b := NewRasterBackend(10, 10)
	b.FillRect(2, 2, 3, 3, RGBA{B: 255})

	for y := 2; y < 5; y++ {
		for x := 2; x < 5; x++ {
			if b.pixels[b.index(x, y)].B != 255 {
				t.Errorf("pixel (%d,%d) not filled", x, y)
			}
		}
	}
	if b.pixels[b.index(1, 1)].B == 255 {
		t.Error("fill leaked outside its rectangle")
	}
}

func TestRasterBackendBlit(t *testing.T) {
	b := NewRasterBackend(10, 1)
	for x := 0; x < 10; x++ {
		b.PutPixel(x, 0, RGBA{R: uint8(x)})
	}

	b.Blit(0, 0, 3, 0, 5, 1) // shift [3,8) to [0,5)
	for i := 0; i < 5; i++ {
		if b.pixels[b.index(i, 0)].R != uint8(3+i) {
			t.Errorf("blit pixel %d = %d, want %d", i, b.pixels[b.index(i, 0)].R, 3+i)
		}
	}
}

func TestRasterBackendWritePNG(t *testing.T) {
	b := NewRasterBackend(8, 8)
	b.FillRect(0, 0, 8, 8, RGBA{R: 10, G: 20, B: 30})

	var buf bytes.Buffer
	if err := b.WritePNG(&buf); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected non-empty PNG output")
	}
	// PNG magic bytes.
	if buf.Bytes()[0] != 0x89 || buf.Bytes()[1] != 'P' {
		t.Error("output does not look like a PNG")
	}
}
