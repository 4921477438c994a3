package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"strings"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/sprite-tools-mcp/internal/detection"
)

// ImageCache provides thread-safe caching of decoded sprite sheets.
//
// The cache stores decoded image.Image objects keyed by their file path. Once a
// sheet is loaded, subsequent Load() calls for the same path return the cached
// copy without decoding again. This matters for MCP sessions, where an agent
// usually runs detection, overlay and frame extraction against the same sheet.
//
// Each entry remembers the file's size and modification time. A sheet that was
// rewritten since it was cached is decoded again.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/sheet.png")
//	if err != nil {
//	    return err
//	}
//	det := detection.Detect(img, detection.DefaultOptions())
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]cachedImage
}

type cachedImage struct {
	img     image.Image
	size    int64
	modTime time.Time
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]cachedImage),
	}
}

// Load retrieves a sheet from the cache or decodes it from disk if not cached.
//
// Parameters:
//   - path: Absolute or relative file path. Supported formats are PNG, JPEG,
//     GIF, BMP and WebP.
//
// Returns:
//   - image.Image: The decoded image. Sheets with transparency decode to
//     *image.NRGBA or *image.Paletted; JPEGs decode to *image.YCbCr.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// The image is cached using the exact path string provided, and decoded again
// when the file's size or modification time changes.
//
// ImageCache satisfies detection.Loader.
func (c *ImageCache) Load(path string) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.RLock()
	entry, ok := c.images[path]
	c.mu.RUnlock()
	if ok && entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
		return entry.img, nil
	}

	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = cachedImage{img: img, size: info.Size(), modTime: info.ModTime()}
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]cachedImage)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Decode decodes an in-memory image such as an HTTP upload. The result is not
// cached.
//
// Returns the image and the format name registered by its decoder ("png",
// "jpeg", "gif", "bmp" or "webp").
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// ImageInfo contains metadata about a sprite sheet file.
type ImageInfo struct {
	// Width is the sheet width in pixels.
	Width int `json:"width"`

	// Height is the sheet height in pixels.
	Height int `json:"height"`

	// Format is the decoder that recognised the file contents: "png", "jpeg",
	// "gif", "bmp", "webp", or "unknown".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the sheet can carry transparency. Sheets
	// without alpha need color-key detection to separate sprites.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads a sheet and returns its metadata.
//
// Parameters:
//   - cache: The image cache to use for loading. Must not be nil.
//   - path: Path to the image file.
//
// Returns:
//   - *ImageInfo: Metadata about the sheet.
//   - error: Non-nil if the image cannot be loaded or the file cannot be stat'd.
//
// # Format Detection
//
// The format is sniffed from the file header with image.DecodeConfig, so a
// PNG saved with a ".dat" extension is still reported as "png".
//
// # Alpha Detection
//
// HasAlpha agrees with the mask builder in the detection package: paletted
// images report it only when a palette entry is not fully opaque, and YCbCr,
// gray and CMYK images never carry alpha.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := os.Open(path); err == nil {
		if _, name, err := image.DecodeConfig(f); err == nil {
			format = strings.ToLower(name)
		}
		f.Close()
	}

	bounds := img.Bounds()
	hasAlpha, colorDepth := describeColorModel(img)

	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

func describeColorModel(img image.Image) (hasAlpha bool, colorDepth string) {
	colorDepth = "8-bit"
	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16, *image.Alpha16:
		colorDepth = "16-bit"
	}
	return detection.HasAlpha(img), colorDepth
}
