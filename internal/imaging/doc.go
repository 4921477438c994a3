// Package imaging provides the pixel-level operations around sprite detection.
//
// It decodes and caches sprite sheets, cuts frames out of them and exports
// them, and renders detection results back onto the sheet for visual
// inspection. Detection itself
// lives in package detection; this package only moves pixels.
//
// # Coordinate System
//
// All pixel coordinates are 0-based and relative to the image's top-left
// pixel, matching detection.Rect:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Regions are inclusive top-left and exclusive bottom-right
//
// Images whose Bounds().Min is not (0,0), such as sub-images, are handled by
// translating rectangles with detection.Rect.Image.
//
// # Supported Formats
//
// Decoding covers PNG, JPEG, GIF, BMP and WebP. Overlays are encoded as PNG.
// Export writes PNG, JPEG, BMP or GIF; JPEG has no alpha channel, so only the
// other formats keep transparency.
//
// # Export Modes
//
// Export writes frames one image per frame, repacks them onto a new evenly
// spaced sheet with a JSON layout index, or plays them as an animated GIF.
// GIF frames are mapped onto the web-safe palette plus one transparent entry.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and never modify their input image.
//
// # Scaling
//
// Frame extraction scales by integer factors with nearest-neighbour sampling.
// Sprite art is usually pixel art, where smoothing filters blur the hard edges
// that make a frame readable.
package imaging
