package main

import (
	"github.com/alecthomas/kong"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const description = `Sprite sheet boundary detection.

Runs as an MCP server over stdin/stdout by default. The serve command exposes
the same detection over HTTP; detect and slice work on a single sheet from the
command line.`

// CLI is the command line of sprite-mcp.
type CLI struct {
	Globals

	MCP     MCPCmd     `cmd:"" name:"mcp" default:"1" help:"Serve MCP over stdin/stdout (default)."`
	Serve   ServeCmd   `cmd:"" help:"Serve the HTTP API."`
	Detect  DetectCmd  `cmd:"" help:"Detect sprites in a sheet and print the report as JSON."`
	Slice   SliceCmd   `cmd:"" help:"Cut a sheet into frame images, a repacked sheet or an animated GIF."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(
		&cli,
		kong.Name("sprite-mcp"),
		kong.Description(description),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}
