// Package detection finds sprite boundaries on sprite sheets.
//
// This package turns a decoded sprite sheet into a list of frame rectangles,
// either by slicing a fixed grid or by connected-component labeling (CCL)
// followed by proximity merging. It then classifies the layout of the
// rectangles and proposes grid settings for slicing the sheet uniformly.
//
// # Pipeline
//
// Detect runs the stages in order:
//
//  1. Mask: BuildAlphaMask thresholds the alpha channel (or, with color keying,
//     DetectBackground separates a solid background color)
//  2. Labeling: Label assigns 4-connected component ids in raster order
//  3. Boxes: BoundingBoxes computes one rectangle per component
//  4. Filtering: FilterBySize drops specks below the minimum sprite size
//  5. Merging: MergeNearby joins parts of one sprite (body and weapon, say)
//
// AnalyzeLayout and SuggestFrameSettings consume the resulting rectangles.
// NewReport bundles all three results for the MCP, HTTP and CLI surfaces.
//
// # Grid Slicing
//
// SliceGrid is the manual alternative to detection: given a frame size,
// margins and spacing it returns every frame that fits on the sheet. A
// FrameSettings suggestion converts directly into a GridConfig.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at the top-left pixel of the image
//   - X increases rightward
//   - Y increases downward
//   - Rectangles are inclusive top-left, exclusive bottom-right
//
// Coordinates are relative to the image even when Bounds().Min is not (0, 0).
// Use Rect.Image to address pixels of the decoded image.
//
// # Determinism
//
// Every function here is pure. Components are labeled in raster-scan order and
// merge groups are emitted in order of their first member, so the same image
// and options always produce the same rectangles in the same order. Nothing in
// the package holds state between calls, so concurrent detections on separate
// goroutines are safe.
//
// # Performance Considerations
//
// Masking, labeling and box extraction are O(width × height). Merging compares
// every pair of rectangles, which is O(n²) in the number of components; sheets
// with thousands of specks should raise the minimum sprite size first.
package detection
