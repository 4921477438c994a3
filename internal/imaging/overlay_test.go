package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ironsheep/sprite-tools-mcp/internal/detection"
)

func createSolidImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var black = color.NRGBA{A: 255}

func TestOverlay(t *testing.T) {
	img := createSolidImage(64, 32, black)
	rects := []detection.Rect{
		{X: 0, Y: 0, Width: 16, Height: 16},
		{X: 20, Y: 4, Width: 16, Height: 16},
	}

	result, err := Overlay(img, rects, OverlayOptions{Color: "#00ff00"})
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	if result.Width != 64 || result.Height != 32 {
		t.Errorf("dimensions: got %dx%d, want 64x32", result.Width, result.Height)
	}
	if result.SpriteCount != 2 || result.MimeType != "image/png" {
		t.Errorf("unexpected result metadata %+v", result)
	}

	data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	out, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}

	green := func(x, y int) bool {
		r, g, b, _ := out.At(x, y).RGBA()
		return r == 0 && g == 0xffff && b == 0
	}

	// edges of the second sprite
	for _, p := range []image.Point{{20, 4}, {35, 4}, {20, 19}, {35, 19}, {27, 4}, {20, 11}} {
		if !green(p.X, p.Y) {
			t.Errorf("expected outline at %v", p)
		}
	}
	// interior and outside stay untouched
	for _, p := range []image.Point{{27, 11}, {40, 25}, {19, 4}} {
		if green(p.X, p.Y) {
			t.Errorf("unexpected outline at %v", p)
		}
	}
}

func TestDrawOverlay_Thickness(t *testing.T) {
	img := createSolidImage(20, 20, black)
	rects := []detection.Rect{{X: 2, Y: 2, Width: 10, Height: 10}}

	canvas, err := DrawOverlay(img, rects, OverlayOptions{Color: "#ff0000", Thickness: 2})
	if err != nil {
		t.Fatalf("DrawOverlay failed: %v", err)
	}

	if c := canvas.NRGBAAt(3, 6); c.R != 255 {
		t.Errorf("expected second outline pixel to be red, got %v", c)
	}
	if c := canvas.NRGBAAt(4, 6); c.R != 0 {
		t.Errorf("expected interior to be untouched, got %v", c)
	}
}

func TestDrawOverlay_DoesNotModifySource(t *testing.T) {
	img := createSolidImage(10, 10, black)
	if _, err := DrawOverlay(img, []detection.Rect{{X: 0, Y: 0, Width: 10, Height: 10}}, OverlayOptions{}); err != nil {
		t.Fatalf("DrawOverlay failed: %v", err)
	}
	if img.NRGBAAt(0, 0) != black {
		t.Error("source image was modified")
	}
}

func TestDrawOverlay_ClipsToSheet(t *testing.T) {
	img := createSolidImage(10, 10, black)
	rects := []detection.Rect{{X: 5, Y: 5, Width: 20, Height: 20}}

	if _, err := DrawOverlay(img, rects, OverlayOptions{ShowIndex: true}); err != nil {
		t.Fatalf("DrawOverlay failed: %v", err)
	}
}

func TestDrawOverlay_PerSpriteColors(t *testing.T) {
	img := createSolidImage(40, 10, black)
	rects := []detection.Rect{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 20, Y: 0, Width: 10, Height: 10},
	}

	canvas, err := DrawOverlay(img, rects, OverlayOptions{})
	if err != nil {
		t.Fatalf("DrawOverlay failed: %v", err)
	}
	if canvas.NRGBAAt(0, 0) == canvas.NRGBAAt(20, 0) {
		t.Error("expected different outline colors per sprite")
	}
	if canvas.NRGBAAt(0, 0) != SpriteColor(0) {
		t.Errorf("expected first sprite to use SpriteColor(0)")
	}
}

func TestDrawOverlay_InvalidColor(t *testing.T) {
	img := createSolidImage(10, 10, black)
	if _, err := DrawOverlay(img, nil, OverlayOptions{Color: "not-a-color"}); err == nil {
		t.Error("expected error for invalid color")
	}
}

func TestDrawOverlay_ShowIndex(t *testing.T) {
	img := createSolidImage(30, 30, black)
	rects := []detection.Rect{{X: 0, Y: 0, Width: 30, Height: 30}}

	canvas, err := DrawOverlay(img, rects, OverlayOptions{Color: "#ffffff", ShowIndex: true})
	if err != nil {
		t.Fatalf("DrawOverlay failed: %v", err)
	}

	// label box starts inside the outline, filled with the outline color
	if c := canvas.NRGBAAt(1, 1); c.R != 255 {
		t.Errorf("expected label box at (1,1), got %v", c)
	}

	// one 7px glyph plus a pixel of padding each side, 13px tall
	dark, light := 0, 0
	for y := 1; y < 14; y++ {
		for x := 1; x < 10; x++ {
			switch c := canvas.NRGBAAt(x, y); {
			case c.R == 0 && c.G == 0 && c.B == 0:
				dark++
			case c.R == 255 && c.G == 255 && c.B == 255:
				light++
			default:
				t.Fatalf("unexpected label pixel %v at (%d,%d)", c, x, y)
			}
		}
	}
	if dark == 0 {
		t.Error("expected the index glyph in dark text")
	}
	if light == 0 {
		t.Error("expected the white label box around the glyph")
	}

	// the box ends after the glyph, leaving the interior black
	if c := canvas.NRGBAAt(15, 15); c != black {
		t.Errorf("expected untouched interior at (15,15), got %v", c)
	}
}

func TestDrawLabel_WidthFollowsText(t *testing.T) {
	img := createSolidImage(60, 20, black)
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	drawLabel(img, 0, 0, "12", black, white)

	// two glyphs of 7px plus padding end at x=16
	if c := img.NRGBAAt(15, 0); c != white {
		t.Errorf("expected box at (15,0), got %v", c)
	}
	if c := img.NRGBAAt(16, 0); c != black {
		t.Errorf("expected box to end before x=16, got %v", c)
	}
	if c := img.NRGBAAt(0, 13); c != black {
		t.Errorf("expected box to end before y=13, got %v", c)
	}
}
