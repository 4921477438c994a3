package detection

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// colorKeyOpaqueRatio is the opaque-pixel percentage above which a sheet is
// assumed to use a solid background color instead of transparency.
const colorKeyOpaqueRatio = 95.0

// colorKeyTolerances are tried in order; the best scoring one wins.
var colorKeyTolerances = [...]int{15, 25, 35, 50}

// Background describes a solid background color detected on a sheet that has
// little or no alpha transparency.
type Background struct {
	// Hex is the background color as "#rrggbb".
	Hex string `json:"hex"`

	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`

	// Tolerance is the per-channel difference above which a pixel counts as
	// sprite rather than background.
	Tolerance int `json:"tolerance"`

	// Percent is the share of pixels (0-100) classified as background.
	Percent float64 `json:"background_percent"`

	// Components is the number of sprite components the color key produced.
	Components int `json:"components"`

	// Score is the selection score: Percent plus a component bonus capped at 50.
	Score float64 `json:"score"`
}

// Color returns the background color for color-space work.
func (b *Background) Color() colorful.Color {
	return colorful.Color{
		R: float64(b.R) / 255.0,
		G: float64(b.G) / 255.0,
		B: float64(b.B) / 255.0,
	}
}

// DetectBackground looks for a solid background color on a mostly opaque
// sheet.
//
// Returns nil when more than 5% of pixels are transparent (the alpha channel
// already separates sprites) or when no candidate tolerance separates a
// background covering more than half of the sheet.
//
// # Algorithm
//
//  1. Build the alpha mask at alphaThreshold; bail out unless more than 95% of
//     pixels are opaque.
//  2. Take the most frequent color among the four corner pixels as the
//     candidate. Ties go to top-left, top-right, bottom-left, bottom-right in
//     that order.
//  3. For each tolerance in 15, 25, 35, 50: mark a pixel as sprite when any RGB
//     channel differs from the candidate by more than the tolerance, then
//     count 4-connected sprite components.
//  4. Score = background% + min(components/10, 50), valid only when
//     background% > 50 and there is at least one component. The highest score
//     wins; earlier tolerances win ties.
func DetectBackground(img image.Image, alphaThreshold int) *Background {
	bg, _ := detectColorKey(img, BuildAlphaMask(img, alphaThreshold))
	return bg
}

// detectColorKey returns the winning background and its sprite mask, or nil
// and nil when the sheet does not look color-keyed.
func detectColorKey(img image.Image, alphaMask *Mask) (*Background, *Mask) {
	total := alphaMask.Width * alphaMask.Height
	if total == 0 {
		return nil, nil
	}
	if 100*float64(alphaMask.Count())/float64(total) <= colorKeyOpaqueRatio {
		return nil, nil
	}

	src, ox, oy := asNRGBA(img)
	key := cornerColor(src, ox, oy, alphaMask.Width, alphaMask.Height)

	var best *Background
	var bestMask *Mask
	for _, tol := range colorKeyTolerances {
		mask := colorKeyMask(src, ox, oy, alphaMask.Width, alphaMask.Height, key, tol)
		sprite := mask.Count()
		percent := 100 * float64(total-sprite) / float64(total)
		_, components := Label(mask)

		if percent <= 50 || components == 0 {
			continue
		}
		score := percent + math.Min(float64(components)/10, 50)
		if best != nil && score <= best.Score {
			continue
		}

		hex := "#000000"
		if c, ok := colorful.MakeColor(key); ok {
			hex = c.Hex()
		}
		best = &Background{
			Hex:        hex,
			R:          key.R,
			G:          key.G,
			B:          key.B,
			Tolerance:  tol,
			Percent:    percent,
			Components: components,
			Score:      score,
		}
		bestMask = mask
	}

	return best, bestMask
}

// cornerColor returns the most frequent RGB value among the four corners.
func cornerColor(src *image.NRGBA, ox, oy, width, height int) color.NRGBA {
	corners := [4]image.Point{
		{ox, oy},
		{ox + width - 1, oy},
		{ox, oy + height - 1},
		{ox + width - 1, oy + height - 1},
	}

	var samples [4]color.NRGBA
	for i, p := range corners {
		c := src.NRGBAAt(p.X, p.Y)
		samples[i] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
	}

	best := samples[0]
	bestCount := 0
	for _, s := range samples {
		n := 0
		for _, o := range samples {
			if o == s {
				n++
			}
		}
		if n > bestCount {
			best, bestCount = s, n
		}
	}
	return best
}

// colorKeyMask marks pixels whose color differs from key by more than tol on
// any RGB channel.
func colorKeyMask(src *image.NRGBA, ox, oy, width, height int, key color.NRGBA, tol int) *Mask {
	mask := newMask(width, height)
	for y := 0; y < height; y++ {
		off := src.PixOffset(ox, oy+y)
		row := src.Pix[off : off+width*4]
		for x := 0; x < width; x++ {
			p := row[x*4 : x*4+3]
			if channelDiff(p[0], key.R) > tol || channelDiff(p[1], key.G) > tol || channelDiff(p[2], key.B) > tol {
				mask.Bits[y*width+x] = true
			}
		}
	}
	return mask
}

func channelDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
