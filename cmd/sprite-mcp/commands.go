package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/sprite-tools-mcp/internal/config"
	"github.com/ironsheep/sprite-tools-mcp/internal/detection"
	"github.com/ironsheep/sprite-tools-mcp/internal/httpapi"
	"github.com/ironsheep/sprite-tools-mcp/internal/imaging"
	"github.com/ironsheep/sprite-tools-mcp/internal/logging"
	"github.com/ironsheep/sprite-tools-mcp/internal/server"
	"github.com/ironsheep/sprite-tools-mcp/internal/store"
)

// unset marks an integer flag that was not given, so the configured value
// applies.
const unset = -1

// Globals are flags shared by every command.
type Globals struct {
	Config   string `short:"c" type:"path" env:"SPRITE_MCP_CONFIG" help:"Path to a YAML config file."`
	LogLevel string `env:"SPRITE_MCP_LOG_LEVEL" help:"Log level (debug, info, warn, error). Overrides the config file."`
}

// setup loads configuration and builds the logger.
func (g *Globals) setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, nil, err
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Mode)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openStore opens the configured report store, falling back to memory when
// Redis is unreachable.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) store.Store {
	reports, err := store.New(ctx, cfg.Store)
	if err != nil {
		logger.Warn("report store unavailable, using memory", zap.String("backend", cfg.Store.Backend), zap.Error(err))
		return store.NewMemory(cfg.Store.TTL)
	}
	logger.Debug("report store ready", zap.String("backend", cfg.Store.Backend))
	return reports
}

type MCPCmd struct{}

func (c *MCPCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	logger.Debug("starting MCP server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	reports := openStore(context.Background(), cfg, logger)
	defer reports.Close()

	srv := server.New(cfg, reports, logger)
	srv.SetVersion(Version)
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

type ServeCmd struct {
	Addr string `short:"a" help:"Listen address. Overrides http.addr."`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	if c.Addr != "" {
		cfg.HTTP.Addr = c.Addr
	}

	logger.Info("starting sprite-mcp HTTP server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports := openStore(ctx, cfg, logger)
	defer reports.Close()

	gin.SetMode(cfg.HTTP.Mode)
	router := httpapi.NewRouter(cfg, reports, logger, httpapi.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	})
	return httpapi.Serve(ctx, cfg.HTTP, router, logger)
}

// DetectFlags are the detection options accepted on the command line.
type DetectFlags struct {
	MinSpriteSize            int  `default:"-1" help:"Minimum sprite width and height. -1 uses the configured value."`
	AlphaThreshold           int  `default:"-1" help:"Alpha above this is opaque (0-255). -1 uses the configured value."`
	MergeThreshold           int  `default:"-1" help:"Merge components closer than this. 0 disables merging, -1 uses the configured value."`
	ColorKey                 bool `help:"Detect a solid background color on opaque sheets."`
	KeepIrregularCollections bool `help:"Skip merging on atlases of unrelated sprites."`
}

func (f DetectFlags) options(base detection.Options) (detection.Options, error) {
	if f.MinSpriteSize != unset {
		base.MinSpriteSize = f.MinSpriteSize
	}
	if f.AlphaThreshold != unset {
		base.AlphaThreshold = f.AlphaThreshold
	}
	if f.MergeThreshold != unset {
		base.MergeThreshold = f.MergeThreshold
	}
	base.ColorKey = base.ColorKey || f.ColorKey
	base.KeepIrregularCollections = base.KeepIrregularCollections || f.KeepIrregularCollections
	return base, base.Validate()
}

type DetectCmd struct {
	DetectFlags

	Path string `arg:"" help:"Sprite sheet image."`
}

func (c *DetectCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	opts, err := c.options(cfg.Detection.Options())
	if err != nil {
		return err
	}

	det, detectErr := detection.DetectFile(imaging.NewImageCache(), c.Path, opts)
	report := detection.NewReport(det, detectErr)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return detectErr
}

type SliceCmd struct {
	DetectFlags

	Path   string `arg:"" help:"Sprite sheet image."`
	Out    string `short:"o" default:"." type:"path" help:"Directory to write frames to. Created if missing."`
	Prefix string `default:"frame" help:"Output file name prefix."`
	Scale  int    `default:"1" help:"Integer nearest-neighbour upscale factor."`

	Mode    string `enum:"individual,sheet,gif" default:"individual" help:"Write one image per frame, a repacked sheet, or an animated GIF."`
	Format  string `enum:"png,jpg,bmp,gif" default:"png" help:"Image format for individual frames and sheets."`
	Columns int    `help:"Frames per row of a repacked sheet. Default is near-square."`
	Padding int    `help:"Pixels between frames of a repacked sheet."`
	Delay   int    `default:"100" help:"Animation frame time in milliseconds."`
	Loop    int    `default:"0" help:"Animation loop count: 0 forever, -1 once."`

	FrameWidth  int  `xor:"source" help:"Slice a regular grid with this frame width instead of detecting sprites."`
	FrameHeight int  `help:"Grid frame height. Defaults to the frame width."`
	OffsetX     int  `help:"Grid margin from the left edge."`
	OffsetY     int  `help:"Grid margin from the top edge."`
	SpacingX    int  `help:"Horizontal gap between grid frames."`
	SpacingY    int  `help:"Vertical gap between grid frames."`
	Suggested   bool `xor:"source" help:"Slice with the suggested grid from detection instead of the detected boxes."`
	Auto        bool `xor:"source" help:"Slice with a grid inferred from margins, frame size and spacing."`
}

func (c *SliceCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	mode, err := imaging.ParseExportMode(c.Mode)
	if err != nil {
		return err
	}
	format, err := imaging.ParseExportFormat(c.Format)
	if err != nil {
		return err
	}

	img, err := imaging.NewImageCache().Load(c.Path)
	if err != nil {
		return err
	}
	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	var rects []detection.Rect
	if c.Auto {
		rects, err = autoFrames(cfg, img, logger)
	} else {
		rects, err = c.frames(cfg, width, height, func(opts detection.Options) *detection.Detection {
			return detection.Detect(img, opts)
		})
	}
	if err != nil {
		return err
	}

	result, err := imaging.Export(img, rects, imaging.ExportOptions{
		Mode:      mode,
		Format:    format,
		Scale:     c.Scale,
		Dir:       c.Out,
		Prefix:    c.Prefix,
		Columns:   c.Columns,
		Padding:   c.Padding,
		Delay:     c.Delay,
		LoopCount: c.Loop,
	})
	if err != nil {
		return err
	}

	logger.Info("frames exported",
		zap.String("sheet", c.Path),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.String("mode", string(result.Mode)),
		zap.String("format", string(result.Format)),
		zap.Int("frames", result.Count),
		zap.String("dir", c.Out))
	for _, f := range result.Files {
		fmt.Println(f)
	}
	return nil
}

// autoFrames slices img with the grid AutoDetectGrid infers for it.
func autoFrames(cfg *config.Config, img image.Image, logger *zap.Logger) ([]detection.Rect, error) {
	auto := detection.AutoDetectGrid(img, cfg.Grid.AutoAlphaThreshold, cfg.Grid.Limits())
	if !auto.Success {
		return nil, errors.New("could not infer a frame grid")
	}

	logger.Info("grid auto-detected",
		zap.String("method", string(auto.Method)),
		zap.String("confidence", string(auto.Confidence)),
		zap.Float64("score", auto.Score),
		zap.Any("grid", auto.Grid))

	_, rects, err := detection.SliceGrid(img.Bounds().Dx(), img.Bounds().Dy(), auto.Grid, cfg.Grid.Limits())
	return rects, err
}

// frames picks the rectangles to cut: an explicit grid, the suggested grid,
// or the detected sprite boxes.
func (c *SliceCmd) frames(cfg *config.Config, width, height int, detect func(detection.Options) *detection.Detection) ([]detection.Rect, error) {
	if c.FrameWidth > 0 {
		grid := detection.GridConfig{
			FrameWidth:  c.FrameWidth,
			FrameHeight: c.FrameHeight,
			OffsetX:     c.OffsetX,
			OffsetY:     c.OffsetY,
			SpacingX:    c.SpacingX,
			SpacingY:    c.SpacingY,
		}
		if grid.FrameHeight == 0 {
			grid.FrameHeight = grid.FrameWidth
		}
		_, rects, err := detection.SliceGrid(width, height, grid, cfg.Grid.Limits())
		return rects, err
	}

	opts, err := c.options(cfg.Detection.Options())
	if err != nil {
		return nil, err
	}
	det := detect(opts)

	if !c.Suggested {
		return det.Rects, nil
	}

	suggestion := detection.SuggestFrameSettings(nil, det.Rects, width, height)
	if suggestion == nil {
		return nil, errors.New("no sprites detected")
	}
	if suggestion.Confidence == detection.ConfidenceLow {
		return suggestion.IndividualBounds, nil
	}
	_, rects, err := detection.SliceGrid(width, height, suggestion.GridConfig(), cfg.Grid.Limits())
	return rects, err
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("sprite-mcp %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	return nil
}
