package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/sprite-tools-mcp/internal/detection"
)

// OverlayOptions controls how sprite rectangles are drawn.
type OverlayOptions struct {
	// Color is a "#rrggbb" outline color. Empty gives every sprite its own hue.
	Color string

	// Thickness is the outline width in pixels. Values below 1 are treated as 1.
	Thickness int

	// ShowIndex draws each sprite's index in its top-left corner.
	ShowIndex bool
}

// OverlayResult contains the sheet with sprite outlines drawn on it.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	SpriteCount int    `json:"sprite_count"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Overlay draws the outline of every rectangle onto a copy of img.
//
// Outlines are drawn just inside each rectangle so that they never leave the
// sheet. Rectangles partly outside the sheet are clipped; the source image is
// not modified.
func Overlay(img image.Image, rects []detection.Rect, opts OverlayOptions) (*OverlayResult, error) {
	canvas, err := DrawOverlay(img, rects, opts)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeInline(canvas.Bounds(), FormatPNG, FormatPNG.Encode, canvas)
	if err != nil {
		return nil, err
	}

	return &OverlayResult{
		Width:       encoded.Width,
		Height:      encoded.Height,
		SpriteCount: len(rects),
		ImageBase64: encoded.ImageBase64,
		MimeType:    encoded.MimeType,
	}, nil
}

// DrawOverlay is Overlay without the PNG encoding. The returned image is
// anchored at (0,0).
func DrawOverlay(img image.Image, rects []detection.Rect, opts OverlayOptions) (*image.NRGBA, error) {
	var override *color.NRGBA
	if opts.Color != "" {
		c, err := ParseColor(opts.Color)
		if err != nil {
			return nil, err
		}
		override = &c
	}

	thickness := opts.Thickness
	if thickness < 1 {
		thickness = 1
	}

	bounds := img.Bounds()
	canvas := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)

	for i, r := range rects {
		outline := SpriteColor(i)
		if override != nil {
			outline = *override
		}
		drawOutline(canvas, r, thickness, outline)

		if opts.ShowIndex {
			drawLabel(canvas, r.X+thickness, r.Y+thickness, strconv.Itoa(i), labelTextColor(outline), outline)
		}
	}

	return canvas, nil
}

func drawOutline(img *image.NRGBA, r detection.Rect, thickness int, c color.NRGBA) {
	area := image.Rect(r.X, r.Y, r.Right(), r.Bottom()).Intersect(img.Bounds())
	if area.Empty() {
		return
	}
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if x-r.X < thickness || r.Right()-1-x < thickness ||
				y-r.Y < thickness || r.Bottom()-1-y < thickness {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

// drawLabel writes text in basicfont's 7x13 face over a box filled with box,
// with the box's top-left corner at (x, y).
func drawLabel(img *image.NRGBA, x, y int, text string, fg, box color.NRGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
	}

	width := d.MeasureString(text).Ceil() + 2
	area := image.Rect(x, y, x+width, y+face.Height)
	draw.Draw(img, area, image.NewUniform(box), image.Point{}, draw.Src)

	d.Dot = fixed.P(x+1, y+face.Ascent)
	d.DrawString(text)
}
