package detection

import (
	"image"
	"image/color"
	"testing"
)

// createSheet creates a fully transparent sprite sheet
func createSheet(width, height int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, width, height))
}

// fillRect paints an opaque block onto a sheet
func fillRect(img *image.NRGBA, x, y, w, h int, c color.NRGBA) {
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			img.SetNRGBA(px, py, c)
		}
	}
}

var opaqueWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

func TestBuildAlphaMask_Threshold(t *testing.T) {
	img := createSheet(3, 1)
	img.SetNRGBA(0, 0, color.NRGBA{A: 127})
	img.SetNRGBA(1, 0, color.NRGBA{A: 128})
	img.SetNRGBA(2, 0, color.NRGBA{A: 129})

	mask := BuildAlphaMask(img, 128)

	expected := []bool{false, false, true}
	for x, want := range expected {
		if got := mask.At(x, 0); got != want {
			t.Errorf("alpha pixel %d: expected opaque=%v, got %v", x, want, got)
		}
	}
}

func TestBuildAlphaMask_Dimensions(t *testing.T) {
	mask := BuildAlphaMask(createSheet(17, 9), 128)
	if mask.Width != 17 || mask.Height != 9 {
		t.Errorf("Expected 17x9 mask, got %dx%d", mask.Width, mask.Height)
	}
	if len(mask.Bits) != 17*9 {
		t.Errorf("Expected %d cells, got %d", 17*9, len(mask.Bits))
	}
	if mask.Count() != 0 {
		t.Errorf("Expected transparent sheet to have no opaque cells, got %d", mask.Count())
	}
}

func TestBuildAlphaMask_NoAlphaChannel(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"gray", image.NewGray(image.Rect(0, 0, 8, 4))},
		{"ycbcr", image.NewYCbCr(image.Rect(0, 0, 8, 4), image.YCbCrSubsampleRatio444)},
		{"cmyk", image.NewCMYK(image.Rect(0, 0, 8, 4))},
		{"opaque palette", image.NewPaletted(image.Rect(0, 0, 8, 4), color.Palette{color.Black, color.White})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mask := BuildAlphaMask(tt.img, 128)
			if mask.Count() != 32 {
				t.Errorf("Expected all 32 cells opaque, got %d", mask.Count())
			}
		})
	}
}

func TestBuildAlphaMask_TransparentPalette(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 4, 1), color.Palette{color.Transparent, color.White})
	img.SetColorIndex(2, 0, 1)

	mask := BuildAlphaMask(img, 128)
	if mask.Count() != 1 || !mask.At(2, 0) {
		t.Errorf("Expected only pixel 2 opaque, got count %d", mask.Count())
	}
}

func TestBuildAlphaMask_OffsetBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 20, 14, 24))
	img.SetNRGBA(10, 20, opaqueWhite)
	img.SetNRGBA(13, 23, opaqueWhite)

	mask := BuildAlphaMask(img, 0)
	if !mask.At(0, 0) || !mask.At(3, 3) {
		t.Error("Expected mask coordinates relative to the image origin")
	}
	if mask.Count() != 2 {
		t.Errorf("Expected 2 opaque cells, got %d", mask.Count())
	}
}

func TestBuildAlphaMask_SubImage(t *testing.T) {
	sheet := createSheet(20, 20)
	fillRect(sheet, 5, 5, 2, 2, opaqueWhite)

	sub := sheet.SubImage(image.Rect(4, 4, 10, 10))
	mask := BuildAlphaMask(sub, 128)

	if mask.Width != 6 || mask.Height != 6 {
		t.Fatalf("Expected 6x6 mask, got %dx%d", mask.Width, mask.Height)
	}
	if !mask.At(1, 1) || !mask.At(2, 2) || mask.At(0, 0) {
		t.Error("Sub-image mask does not line up with the sub-image origin")
	}
}

func TestBuildAlphaMask_RGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 200, A: 200})

	mask := BuildAlphaMask(img, 128)
	if !mask.At(0, 0) || mask.At(1, 0) {
		t.Error("Expected premultiplied RGBA alpha to be honoured")
	}
}

func TestMask_AtOutOfRange(t *testing.T) {
	mask := newMask(2, 2)
	for i := range mask.Bits {
		mask.Bits[i] = true
	}

	for _, p := range []image.Point{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if mask.At(p.X, p.Y) {
			t.Errorf("Expected out-of-range %v to be transparent", p)
		}
	}
}

func TestHasAlpha(t *testing.T) {
	rect := image.Rect(0, 0, 2, 2)
	tests := []struct {
		name string
		img  image.Image
		want bool
	}{
		{"nrgba", image.NewNRGBA(rect), true},
		{"rgba64", image.NewRGBA64(rect), true},
		{"alpha", image.NewAlpha(rect), true},
		{"alpha16", image.NewAlpha16(rect), true},
		{"nycbcra", image.NewNYCbCrA(rect, image.YCbCrSubsampleRatio420), true},
		{"ycbcr", image.NewYCbCr(rect, image.YCbCrSubsampleRatio420), false},
		{"gray", image.NewGray(rect), false},
		{"gray16", image.NewGray16(rect), false},
		{"cmyk", image.NewCMYK(rect), false},
		{"opaque palette", image.NewPaletted(rect, color.Palette{color.White}), false},
		{"transparent palette", image.NewPaletted(rect, color.Palette{color.White, color.Transparent}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasAlpha(tt.img); got != tt.want {
				t.Errorf("HasAlpha() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildAlphaMask_AlphaImage(t *testing.T) {
	img := image.NewAlpha(image.Rect(0, 0, 4, 1))
	img.SetAlpha(1, 0, color.Alpha{A: 200})
	img.SetAlpha(2, 0, color.Alpha{A: 100})

	mask := BuildAlphaMask(img, 128)
	want := []bool{false, true, false, false}
	for x, w := range want {
		if mask.At(x, 0) != w {
			t.Errorf("x=%d: got %v, want %v", x, mask.At(x, 0), w)
		}
	}
}
