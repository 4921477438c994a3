package detection

import (
	"image"
	"image/color"
	"testing"
)

var magenta = color.NRGBA{R: 255, G: 0, B: 255, A: 255}

// createKeyedSheet creates an opaque sheet with a magenta background and three
// 10x10 white sprites
func createKeyedSheet() *image.NRGBA {
	img := createSheet(64, 64)
	fillRect(img, 0, 0, 64, 64, magenta)
	fillRect(img, 5, 5, 10, 10, opaqueWhite)
	fillRect(img, 30, 5, 10, 10, opaqueWhite)
	fillRect(img, 5, 40, 10, 10, opaqueWhite)
	return img
}

func TestDetectBackground(t *testing.T) {
	bg := DetectBackground(createKeyedSheet(), 128)
	if bg == nil {
		t.Fatal("Expected a background to be detected")
	}

	if bg.Hex != "#ff00ff" {
		t.Errorf("Expected #ff00ff, got %s", bg.Hex)
	}
	if bg.R != 255 || bg.G != 0 || bg.B != 255 {
		t.Errorf("Unexpected RGB %d,%d,%d", bg.R, bg.G, bg.B)
	}
	if bg.Components != 3 {
		t.Errorf("Expected 3 components, got %d", bg.Components)
	}
	// every tolerance scores the same; the first one wins
	if bg.Tolerance != 15 {
		t.Errorf("Expected tolerance 15, got %d", bg.Tolerance)
	}
	wantPercent := 100 * float64(64*64-300) / float64(64*64)
	if bg.Percent != wantPercent {
		t.Errorf("Expected %.2f%% background, got %.2f%%", wantPercent, bg.Percent)
	}
	if bg.Score != wantPercent+0.3 {
		t.Errorf("Expected score %f, got %f", wantPercent+0.3, bg.Score)
	}
	if got := bg.Color().Hex(); got != bg.Hex {
		t.Errorf("Color() disagrees with Hex: %s vs %s", got, bg.Hex)
	}
}

func TestDetectBackground_ToleranceAbsorbsNoise(t *testing.T) {
	img := createKeyedSheet()
	// a near-magenta band inside the 25 tolerance but outside 15
	fillRect(img, 0, 52, 64, 10, color.NRGBA{R: 235, G: 0, B: 255, A: 255})

	bg := DetectBackground(img, 128)
	if bg == nil {
		t.Fatal("Expected a background to be detected")
	}
	if bg.Components != 3 {
		t.Errorf("Expected noise to be absorbed into the background, got %d components", bg.Components)
	}
	if bg.Tolerance != 25 {
		t.Errorf("Expected tolerance 25, got %d", bg.Tolerance)
	}
}

func TestDetectBackground_Transparent(t *testing.T) {
	img := createSheet(64, 64)
	fillRect(img, 5, 5, 10, 10, opaqueWhite)

	if bg := DetectBackground(img, 128); bg != nil {
		t.Errorf("Expected no color key on a transparent sheet, got %+v", bg)
	}
}

func TestDetectBackground_SolidImage(t *testing.T) {
	img := createSheet(32, 32)
	fillRect(img, 0, 0, 32, 32, magenta)

	if bg := DetectBackground(img, 128); bg != nil {
		t.Errorf("Expected no background without sprites, got %+v", bg)
	}
}

func TestCornerColor_MostFrequent(t *testing.T) {
	img := createSheet(4, 4)
	fillRect(img, 0, 0, 4, 4, magenta)
	img.SetNRGBA(0, 0, opaqueWhite)

	got := cornerColor(img, 0, 0, 4, 4)
	if got != magenta {
		t.Errorf("Expected magenta from three corners, got %v", got)
	}
}

func TestCornerColor_TiePrefersTopLeft(t *testing.T) {
	img := createSheet(4, 4)
	fillRect(img, 0, 0, 4, 4, magenta)
	img.SetNRGBA(0, 0, opaqueWhite)
	img.SetNRGBA(0, 3, opaqueWhite)

	got := cornerColor(img, 0, 0, 4, 4)
	if got != opaqueWhite {
		t.Errorf("Expected top-left color on a tie, got %v", got)
	}
}
