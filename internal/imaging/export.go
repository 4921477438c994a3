package imaging

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/sprite-tools-mcp/internal/detection"
)

// ExportFormat is the file format of exported frames and sheets.
type ExportFormat string

const (
	FormatPNG  ExportFormat = "png"
	FormatJPEG ExportFormat = "jpg"
	FormatBMP  ExportFormat = "bmp"
	FormatGIF  ExportFormat = "gif"
)

// ExportMode selects what Export produces.
type ExportMode string

const (
	// ModeIndividual writes one image per frame.
	ModeIndividual ExportMode = "individual"

	// ModeSheet repacks the frames into a new, evenly spaced sprite sheet.
	ModeSheet ExportMode = "sheet"

	// ModeAnimation plays the frames in order as an animated GIF.
	ModeAnimation ExportMode = "gif"
)

// DefaultFrameDelay is the animation frame time in milliseconds (10 fps).
const DefaultFrameDelay = 100

const jpegQuality = 95

// ErrNoFrames is returned when there is nothing to export.
var ErrNoFrames = errors.New("no frames to export")

// ParseExportFormat accepts "png", "jpg", "jpeg", "bmp" and "gif" in any case.
// An empty string selects PNG.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(s) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "bmp":
		return FormatBMP, nil
	case "gif":
		return FormatGIF, nil
	}
	return "", fmt.Errorf("unsupported export format %q (want png, jpg, bmp or gif)", s)
}

// ParseExportMode accepts "individual", "sheet" and "gif". An empty string
// selects ModeIndividual.
func ParseExportMode(s string) (ExportMode, error) {
	switch strings.ToLower(s) {
	case "", "individual":
		return ModeIndividual, nil
	case "sheet":
		return ModeSheet, nil
	case "gif":
		return ModeAnimation, nil
	}
	return "", fmt.Errorf("unsupported export mode %q (want individual, sheet or gif)", s)
}

// Extension returns the file extension including the dot.
func (f ExportFormat) Extension() string {
	return "." + string(f)
}

// MimeType returns the media type of encoded images.
func (f ExportFormat) MimeType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatBMP:
		return "image/bmp"
	case FormatGIF:
		return "image/gif"
	}
	return "image/png"
}

// Encode writes img to w in format f. JPEG has no alpha channel, so
// transparent pixels come out black.
func (f ExportFormat) Encode(w io.Writer, img image.Image) error {
	switch f {
	case FormatPNG:
		return imgio.PNGEncoder()(w, img)
	case FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	case FormatBMP:
		return imaging.Encode(w, img, imaging.BMP)
	case FormatGIF:
		return imaging.Encode(w, img, imaging.GIF)
	}
	return fmt.Errorf("unsupported export format %q", string(f))
}

// ExportOptions controls Export.
type ExportOptions struct {
	// Mode selects individual files, a repacked sheet or an animation.
	// Empty means ModeIndividual.
	Mode ExportMode

	// Format is the image format for ModeIndividual and ModeSheet. Empty
	// means PNG. ModeAnimation always produces GIF.
	Format ExportFormat

	// Scale is the integer nearest-neighbour upscale applied to every frame.
	Scale int

	// Dir is the output directory, created if missing. When empty nothing is
	// written and the encoded images are returned instead.
	Dir string

	// Prefix names the output files. Empty means "frame".
	Prefix string

	// Columns is the number of frames per row of a repacked sheet. Zero
	// picks a near-square layout.
	Columns int

	// Padding is the gap in pixels between frames of a repacked sheet.
	Padding int

	// Delay is the animation frame time in milliseconds. Zero means
	// DefaultFrameDelay.
	Delay int

	// LoopCount follows image/gif: 0 loops forever, -1 plays once and n
	// plays n+1 times.
	LoopCount int
}

// EncodedImage is a single encoded image returned inline.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// SheetLayout describes a repacked sprite sheet. It is also written next to
// the sheet as JSON so the frames can be located again.
type SheetLayout struct {
	Columns    int              `json:"columns"`
	Rows       int              `json:"rows"`
	CellWidth  int              `json:"cell_width"`
	CellHeight int              `json:"cell_height"`
	Padding    int              `json:"padding"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	Frames     []detection.Rect `json:"frames"` // position of each frame on the new sheet
}

// ExportResult reports what Export produced. Files is set when writing to a
// directory; otherwise Frames (ModeIndividual) or Image (ModeSheet and
// ModeAnimation) carry the encoded output.
type ExportResult struct {
	Mode   ExportMode    `json:"mode"`
	Format ExportFormat  `json:"format"`
	Count  int           `json:"count"`
	Files  []string      `json:"files,omitempty"`
	Frames []Frame       `json:"frames,omitempty"`
	Image  *EncodedImage `json:"image,omitempty"`
	Sheet  *SheetLayout  `json:"sheet,omitempty"`
}

// Export cuts rects out of img and writes them as individual images, a
// repacked sprite sheet or an animated GIF.
//
// Parameters:
//   - img: The source sprite sheet.
//   - rects: Frame rectangles in sheet coordinates, in output order.
//   - opts: Mode, format, destination and layout settings.
//
// Returns ErrNoFrames for an empty rects list, and an error naming the frame
// when a rectangle falls outside the sheet.
func Export(img image.Image, rects []detection.Rect, opts ExportOptions) (*ExportResult, error) {
	if len(rects) == 0 {
		return nil, ErrNoFrames
	}
	var err error
	if opts.Mode, err = ParseExportMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if opts.Format, err = ParseExportFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	if opts.Mode == ModeAnimation {
		opts.Format = FormatGIF
	}
	if opts.Prefix == "" {
		opts.Prefix = "frame"
	}
	if opts.Delay == 0 {
		opts.Delay = DefaultFrameDelay
	}
	if opts.Columns < 0 || opts.Padding < 0 || opts.Delay < 0 {
		return nil, fmt.Errorf("columns, padding and delay cannot be negative")
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	result := &ExportResult{Mode: opts.Mode, Format: opts.Format, Count: len(rects)}

	switch opts.Mode {
	case ModeIndividual:
		if opts.Dir == "" {
			frames, err := ExtractFrames(img, rects, opts.Scale, opts.Format)
			if err != nil {
				return nil, err
			}
			result.Frames = frames
			return result, nil
		}
		files, err := saveFrames(img, rects, opts)
		if err != nil {
			return nil, err
		}
		result.Files = files
		return result, nil

	case ModeSheet:
		frames, err := cropFrames(img, rects, opts.Scale)
		if err != nil {
			return nil, err
		}
		sheet, layout := PackSheet(frames, opts.Columns, opts.Padding)
		result.Sheet = layout
		if opts.Dir == "" {
			result.Image, err = encodeInline(sheet.Bounds(), opts.Format, opts.Format.Encode, sheet)
			return result, err
		}
		files, err := saveSheet(sheet, layout, opts)
		if err != nil {
			return nil, err
		}
		result.Files = files
		return result, nil

	case ModeAnimation:
		frames, err := cropFrames(img, rects, opts.Scale)
		if err != nil {
			return nil, err
		}
		encode := func(w io.Writer, _ image.Image) error {
			return EncodeGIF(w, frames, opts.Delay, opts.LoopCount)
		}
		if opts.Dir == "" {
			result.Image, err = encodeInline(frameBounds(frames), FormatGIF, encode, nil)
			return result, err
		}
		path := filepath.Join(opts.Dir, opts.Prefix+FormatGIF.Extension())
		if err := imgio.Save(path, nil, encode); err != nil {
			return nil, fmt.Errorf("failed to save animation: %w", err)
		}
		result.Files = []string{path}
		return result, nil
	}

	return nil, fmt.Errorf("unsupported export mode %q", string(opts.Mode))
}

// PackSheet lays frames out left to right, top to bottom on a transparent
// sheet. Every cell is as large as the largest frame and frames sit in the
// top-left corner of their cell.
//
// columns <= 0 picks ceil(sqrt(n)) columns, the most square layout.
func PackSheet(frames []image.Image, columns, padding int) (*image.NRGBA, *SheetLayout) {
	n := len(frames)
	layout := &SheetLayout{Padding: padding, Frames: make([]detection.Rect, 0, n)}
	if n == 0 {
		return imaging.New(0, 0, color.Transparent), layout
	}

	if columns <= 0 {
		columns = int(math.Ceil(math.Sqrt(float64(n))))
	}
	if columns > n {
		columns = n
	}
	cells := frameBounds(frames)

	layout.Columns = columns
	layout.Rows = (n + columns - 1) / columns
	layout.CellWidth = cells.Dx()
	layout.CellHeight = cells.Dy()
	layout.Width = columns*layout.CellWidth + (columns-1)*padding
	layout.Height = layout.Rows*layout.CellHeight + (layout.Rows-1)*padding

	sheet := imaging.New(layout.Width, layout.Height, color.Transparent)
	for i, f := range frames {
		b := f.Bounds()
		x := (i % columns) * (layout.CellWidth + padding)
		y := (i / columns) * (layout.CellHeight + padding)
		draw.Draw(sheet, image.Rect(x, y, x+b.Dx(), y+b.Dy()), f, b.Min, draw.Src)
		layout.Frames = append(layout.Frames, detection.Rect{X: x, Y: y, Width: b.Dx(), Height: b.Dy()})
	}
	return sheet, layout
}

// EncodeGIF writes frames as an animated GIF with delay milliseconds per
// frame. The canvas is as large as the largest frame.
//
// Colors are mapped onto the web-safe palette plus a transparent entry, so
// transparent pixels stay transparent and each frame replaces the previous
// one.
func EncodeGIF(w io.Writer, frames []image.Image, delay, loopCount int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}

	pal := append(color.Palette{color.Transparent}, palette.WebSafe...)
	canvas := frameBounds(frames)

	anim := &gif.GIF{
		LoopCount: loopCount,
		Config: image.Config{
			ColorModel: pal,
			Width:      canvas.Dx(),
			Height:     canvas.Dy(),
		},
	}
	for _, f := range frames {
		b := f.Bounds()
		paletted := image.NewPaletted(canvas, pal)
		draw.Draw(paletted, image.Rect(0, 0, b.Dx(), b.Dy()), f, b.Min, draw.Src)

		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, delay/10)
		anim.Disposal = append(anim.Disposal, gif.DisposalBackground)
	}

	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("failed to encode animation: %w", err)
	}
	return nil
}

// cropFrames cuts every rectangle out of img.
func cropFrames(img image.Image, rects []detection.Rect, scale int) ([]image.Image, error) {
	frames := make([]image.Image, 0, len(rects))
	for i, r := range rects {
		cropped, err := CropFrame(img, r, scale)
		if err != nil {
			return nil, fmt.Errorf("failed to crop frame %d: %w", i, err)
		}
		frames = append(frames, cropped)
	}
	return frames, nil
}

// frameBounds returns a rectangle at the origin large enough for any frame.
func frameBounds(frames []image.Image) image.Rectangle {
	var w, h int
	for _, f := range frames {
		if dx := f.Bounds().Dx(); dx > w {
			w = dx
		}
		if dy := f.Bounds().Dy(); dy > h {
			h = dy
		}
	}
	return image.Rect(0, 0, w, h)
}

// saveFrames writes each frame to opts.Dir as <prefix>_<index>.<ext>.
func saveFrames(img image.Image, rects []detection.Rect, opts ExportOptions) ([]string, error) {
	paths := make([]string, 0, len(rects))
	for i, r := range rects {
		cropped, err := CropFrame(img, r, opts.Scale)
		if err != nil {
			return paths, fmt.Errorf("failed to crop frame %d: %w", i, err)
		}

		path := filepath.Join(opts.Dir, fmt.Sprintf("%s_%03d%s", opts.Prefix, i, opts.Format.Extension()))
		if err := imgio.Save(path, cropped, opts.Format.Encode); err != nil {
			return paths, fmt.Errorf("failed to save frame %d: %w", i, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// saveSheet writes <prefix>_sheet.<ext> and its <prefix>_sheet.json layout.
func saveSheet(sheet image.Image, layout *SheetLayout, opts ExportOptions) ([]string, error) {
	base := filepath.Join(opts.Dir, opts.Prefix+"_sheet")

	imagePath := base + opts.Format.Extension()
	if err := imgio.Save(imagePath, sheet, opts.Format.Encode); err != nil {
		return nil, fmt.Errorf("failed to save sheet: %w", err)
	}

	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sheet layout: %w", err)
	}
	indexPath := base + ".json"
	if err := os.WriteFile(indexPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save sheet layout: %w", err)
	}
	return []string{imagePath, indexPath}, nil
}

func encodeInline(bounds image.Rectangle, format ExportFormat, encode imgio.Encoder, img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &EncodedImage{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    format.MimeType(),
	}, nil
}
