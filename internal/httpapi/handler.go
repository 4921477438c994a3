package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/sprite-tools-mcp/internal/config"
	"github.com/ironsheep/sprite-tools-mcp/internal/detection"
	"github.com/ironsheep/sprite-tools-mcp/internal/imaging"
	"github.com/ironsheep/sprite-tools-mcp/internal/store"
)

// multipartOverhead is the room allowed for form fields and part headers on
// top of the image size limit.
const multipartOverhead = 64 << 10

// Handler serves the detection API.
type Handler struct {
	cfg     *config.Config
	reports store.Store
	logger  *zap.Logger
}

func NewHandler(cfg *config.Config, reports store.Store, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:     cfg,
		reports: reports,
		logger:  logger,
	}
}

// Detect runs sprite detection on an uploaded sheet.
//
// The sheet is the multipart file field "image". Detection options come from
// the form fields min_sprite_size, alpha_threshold, merge_threshold,
// color_key and keep_irregular_collections; omitted fields use the configured
// defaults.
func (h *Handler) Detect(c *gin.Context) {
	data, file, ok := h.readUpload(c)
	if !ok {
		return
	}

	opts, err := parseOptions(c.GetPostForm, h.cfg.Detection.Options())
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "invalid detection options",
			Error:   err.Error(),
		})
		return
	}

	sum := store.BytesMD5(data)
	key := store.Key(sum, opts)
	ctx := c.Request.Context()

	cached, err := h.reports.Get(ctx, key)
	switch {
	case err == nil:
		h.logger.Info("cache hit", zap.String("key", key))
		c.JSON(http.StatusOK, Response{
			Success: true,
			Message: "detection loaded from cache",
			Data:    DetectResult{MD5: sum, Cached: true, Report: cached},
		})
		return
	case !errors.Is(err, store.ErrNotFound):
		h.logger.Warn("failed to get cache", zap.String("key", key), zap.Error(err))
	}

	img, format, err := imaging.Decode(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Success: false,
			Message: "unsupported or corrupt image",
			Error:   err.Error(),
		})
		return
	}

	det := detection.Detect(img, opts)
	report := detection.NewReport(det, nil)

	h.logger.Info("sheet detected",
		zap.String("filename", file.Filename),
		zap.String("md5", sum),
		zap.String("format", format),
		zap.Int64("size", file.Size),
		zap.Int("sprites", len(det.Rects)),
		zap.String("layout", string(report.Analysis.Kind())))

	if err := h.reports.Set(ctx, key, report); err != nil {
		h.logger.Warn("failed to set cache", zap.String("key", key), zap.Error(err))
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "detection complete",
		Data:    DetectResult{MD5: sum, Report: report},
	})
}

// AutoGrid infers the frame grid of an uploaded sheet.
//
// The sheet is the multipart file field "image". The optional form field
// alpha_threshold overrides the configured content threshold.
func (h *Handler) AutoGrid(c *gin.Context) {
	data, file, ok := h.readUpload(c)
	if !ok {
		return
	}

	threshold := h.cfg.Grid.AutoAlphaThreshold
	if raw, ok := c.GetPostForm("alpha_threshold"); ok {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > 255 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Success: false,
				Message: "invalid alpha_threshold",
				Error:   "alpha_threshold must be an integer between 0 and 255",
			})
			return
		}
		threshold = v
	}

	img, _, err := imaging.Decode(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Success: false,
			Message: "unsupported or corrupt image",
			Error:   err.Error(),
		})
		return
	}

	limits := h.cfg.Grid.Limits()
	auto := detection.AutoDetectGrid(img, threshold, limits)
	result := AutoGridResult{MD5: store.BytesMD5(data), AutoGrid: auto, Sprites: []detection.Rect{}}
	if auto.Layout != nil {
		_, result.Sprites, _ = detection.SliceGrid(img.Bounds().Dx(), img.Bounds().Dy(), auto.Grid, limits)
	}

	h.logger.Info("grid auto-detected",
		zap.String("filename", file.Filename),
		zap.String("md5", result.MD5),
		zap.Bool("success", auto.Success),
		zap.String("confidence", string(auto.Confidence)),
		zap.Int("frames", len(result.Sprites)))

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "grid detection complete",
		Data:    result,
	})
}

// readUpload reads the multipart file field "image" within the configured
// size limit. On failure it has already written the error response.
func (h *Handler) readUpload(c *gin.Context) ([]byte, *multipart.FileHeader, bool) {
	limit := h.cfg.HTTP.MaxUploadBytes
	if c.Request.ContentLength > limit+multipartOverhead {
		h.tooLarge(c)
		return nil, nil, false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	file, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.tooLarge(c)
			return nil, nil, false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "image file is required",
			Error:   err.Error(),
		})
		return nil, nil, false
	}

	if file.Size > limit {
		h.tooLarge(c)
		return nil, nil, false
	}

	f, err := file.Open()
	if err != nil {
		h.logger.Error("failed to open upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Message: "failed to read image",
			Error:   err.Error(),
		})
		return nil, nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("failed to read upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Message: "failed to read image",
			Error:   err.Error(),
		})
		return nil, nil, false
	}
	return data, file, true
}

func (h *Handler) tooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
		Success: false,
		Message: fmt.Sprintf("image exceeds the %d byte limit", h.cfg.HTTP.MaxUploadBytes),
	})
}

// GetByMD5 returns a cached report. Detection options are taken from the
// query string and must match those of the original request.
func (h *Handler) GetByMD5(c *gin.Context) {
	sum := c.Param("md5")
	if !isMD5(sum) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "md5 must be 32 hex characters",
		})
		return
	}

	opts, err := parseOptions(c.GetQuery, h.cfg.Detection.Options())
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "invalid detection options",
			Error:   err.Error(),
		})
		return
	}

	report, err := h.reports.Get(c.Request.Context(), store.Key(sum, opts))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Success: false,
				Message: "no detection cached for this image and options",
			})
			return
		}
		h.logger.Error("failed to get report", zap.String("md5", sum), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Message: "failed to read cache",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "detection loaded from cache",
		Data:    DetectResult{MD5: sum, Cached: true, Report: report},
	})
}

// Layout analyzes a caller-supplied list of sprite rectangles.
func (h *Handler) Layout(c *gin.Context) {
	var req LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "invalid request body",
			Error:   err.Error(),
		})
		return
	}
	if req.SheetWidth < 0 || req.SheetHeight < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "sheet dimensions cannot be negative",
		})
		return
	}

	analysis := detection.AnalyzeLayout(req.Sprites)
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "layout analyzed",
		Data: LayoutResult{
			Analysis:   analysis,
			Suggestion: detection.SuggestFrameSettings(analysis, req.Sprites, req.SheetWidth, req.SheetHeight),
		},
	})
}

// Grid computes the frame rectangles of a regular grid.
func (h *Handler) Grid(c *gin.Context) {
	var req GridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "invalid request body",
			Error:   err.Error(),
		})
		return
	}

	layout, rects, err := detection.SliceGrid(req.SheetWidth, req.SheetHeight, req.GridConfig, h.cfg.Grid.Limits())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, detection.ErrInvalidGrid) {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{
			Success: false,
			Message: "invalid grid configuration",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "grid sliced",
		Data:    GridResult{Layout: layout, Sprites: rects},
	})
}

// parseOptions overrides base with the option fields present in lookup and
// validates the result.
func parseOptions(lookup func(string) (string, bool), base detection.Options) (detection.Options, error) {
	ints := []struct {
		key string
		dst *int
	}{
		{"min_sprite_size", &base.MinSpriteSize},
		{"alpha_threshold", &base.AlphaThreshold},
		{"merge_threshold", &base.MergeThreshold},
	}
	for _, f := range ints {
		if v, ok := lookup(f.key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return base, fmt.Errorf("%s: %q is not an integer", f.key, v)
			}
			*f.dst = n
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"color_key", &base.ColorKey},
		{"keep_irregular_collections", &base.KeepIrregularCollections},
	}
	for _, f := range bools {
		if v, ok := lookup(f.key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return base, fmt.Errorf("%s: %q is not a boolean", f.key, v)
			}
			*f.dst = b
		}
	}

	return base, base.Validate()
}

func isMD5(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
