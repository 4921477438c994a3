package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/sprite-tools-mcp/internal/detection"
)

// MaxFrameScale is the largest integer upscale accepted by CropFrame.
const MaxFrameScale = 16

// Frame is one sprite frame cut from a sheet and encoded inline.
type Frame struct {
	Index       int            `json:"index"`
	Source      detection.Rect `json:"source"` // rectangle on the sheet
	Width       int            `json:"width"`  // output width after scaling
	Height      int            `json:"height"` // output height after scaling
	ImageBase64 string         `json:"image_base64"`
	MimeType    string         `json:"mime_type"`
}

// CropFrame cuts r out of img and optionally upscales it.
//
// Parameters:
//   - img: The sprite sheet.
//   - r: Frame rectangle in sheet coordinates (relative to img.Bounds().Min).
//   - scale: Integer upscale factor, 1 to MaxFrameScale. Values below 1 are
//     treated as 1. Scaling uses nearest-neighbour sampling so pixel art stays
//     crisp.
//
// Returns an error when r is empty or does not lie fully inside the sheet.
func CropFrame(img image.Image, r detection.Rect, scale int) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("invalid frame %dx%d: width and height must be positive", r.Width, r.Height)
	}
	if r.X < 0 || r.Y < 0 || r.Right() > bounds.Dx() || r.Bottom() > bounds.Dy() {
		return nil, fmt.Errorf("frame (%d,%d)-(%d,%d) outside sheet bounds %dx%d",
			r.X, r.Y, r.Right(), r.Bottom(), bounds.Dx(), bounds.Dy())
	}
	if scale > MaxFrameScale {
		return nil, fmt.Errorf("scale %d exceeds maximum of %d", scale, MaxFrameScale)
	}

	frame := imaging.Crop(img, r.Image(bounds.Min))
	if scale > 1 {
		frame = imaging.Resize(frame, r.Width*scale, r.Height*scale, imaging.NearestNeighbor)
	}
	return frame, nil
}

// ExtractFrames crops every rectangle and returns the frames base64 encoded
// in format, in the order given. An empty format means PNG.
func ExtractFrames(img image.Image, rects []detection.Rect, scale int, format ExportFormat) ([]Frame, error) {
	if format == "" {
		format = FormatPNG
	}
	frames := make([]Frame, 0, len(rects))
	for i, r := range rects {
		cropped, err := CropFrame(img, r, scale)
		if err != nil {
			return nil, fmt.Errorf("failed to crop frame %d: %w", i, err)
		}

		var buf bytes.Buffer
		if err := format.Encode(&buf, cropped); err != nil {
			return nil, fmt.Errorf("failed to encode frame %d: %w", i, err)
		}

		frames = append(frames, Frame{
			Index:       i,
			Source:      r,
			Width:       cropped.Bounds().Dx(),
			Height:      cropped.Bounds().Dy(),
			ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
			MimeType:    format.MimeType(),
		})
	}
	return frames, nil
}
