package detection

import (
	"image"

	"github.com/disintegration/imaging"
)

// Mask is a binary opacity mask with the same dimensions as its source image.
//
// Bits is stored row-major: the cell for pixel (x, y) is Bits[y*Width+x].
// A mask is never modified after it has been built.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

func newMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Bits:   make([]bool, width*height),
	}
}

// At reports whether pixel (x, y) is opaque. Out-of-range coordinates are
// reported as transparent.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

// Count returns the number of opaque cells.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// BuildAlphaMask thresholds the alpha channel of img into an opacity mask.
//
// A pixel is opaque when its 8-bit alpha value is strictly greater than
// threshold. Images whose color model has no alpha channel (YCbCr JPEGs,
// grayscale, CMYK, palettes without transparent entries) produce a mask in
// which every pixel is opaque.
//
// Parameters:
//   - img: Source image. Any image.Image is accepted.
//   - threshold: Alpha cut-off in the range 0-255.
//
// Returns a mask of img.Bounds().Dx() by img.Bounds().Dy() cells. It never fails.
func BuildAlphaMask(img image.Image, threshold int) *Mask {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	mask := newMask(width, height)

	if !HasAlpha(img) {
		for i := range mask.Bits {
			mask.Bits[i] = true
		}
		return mask
	}

	src, ox, oy := asNRGBA(img)
	for y := 0; y < height; y++ {
		off := src.PixOffset(ox, oy+y)
		row := src.Pix[off : off+width*4]
		for x := 0; x < width; x++ {
			if int(row[x*4+3]) > threshold {
				mask.Bits[y*width+x] = true
			}
		}
	}

	return mask
}

// asNRGBA returns an NRGBA view of img together with the pixel coordinates of
// its top-left corner. NRGBA images are used in place; everything else is
// converted once.
func asNRGBA(img image.Image) (*image.NRGBA, int, int) {
	if n, ok := img.(*image.NRGBA); ok {
		return n, n.Rect.Min.X, n.Rect.Min.Y
	}
	// imaging.Clone always returns a copy anchored at (0,0)
	return imaging.Clone(img), 0, 0
}

// HasAlpha reports whether img can carry transparency. Paletted images count
// only when a palette entry is not fully opaque; images of unknown type are
// assumed to carry alpha.
func HasAlpha(img image.Image) bool {
	switch src := img.(type) {
	case *image.YCbCr, *image.Gray, *image.Gray16, *image.CMYK:
		return false
	case *image.Paletted:
		for _, c := range src.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	}
	return true
}
