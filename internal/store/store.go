// Package store caches detection reports keyed by sheet content and options.
//
// Two backends exist: an in-process map for the MCP server and single-node
// HTTP deployments, and Redis for HTTP deployments sharing a cache.
package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ironsheep/sprite-tools-mcp/internal/config"
	"github.com/ironsheep/sprite-tools-mcp/internal/detection"
)

// ErrNotFound is returned by Get when no report is cached under the key.
var ErrNotFound = errors.New("report not found")

// Store caches reports. Implementations are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (*detection.Report, error)
	Set(ctx context.Context, key string, report *detection.Report) error
	Ping(ctx context.Context) error
	Close() error
}

// New opens the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreMemory, "":
		return NewMemory(cfg.TTL), nil
	case config.StoreRedis:
		s := NewRedis(cfg)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Key derives the cache key for a sheet hash and the options that produced
// the report. Reports for the same sheet under different options never
// collide.
func Key(sheetMD5 string, opts detection.Options) string {
	return fmt.Sprintf("detect:%s:%d:%d:%d:%t:%t",
		sheetMD5,
		opts.MinSpriteSize,
		opts.AlphaThreshold,
		opts.MergeThreshold,
		opts.ColorKey,
		opts.KeepIrregularCollections,
	)
}

// BytesMD5 returns the hex MD5 digest of data.
func BytesMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
