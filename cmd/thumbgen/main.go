// Command thumbgen exercises the thumbnail pipeline against a directory of
// images and reports cache behavior. It is a diagnostic tool, not part of
// the library surface: it splits the directory across several providers
// (lanes) sharing one budgeted cache, the way a multi-list UI would.
package main

import (
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/thumb"
	"github.com/meigma/thumb/cache"
	"github.com/meigma/thumb/cache/meter"
	"github.com/meigma/thumb/decode/imagefile"
)

type config struct {
	dir         string
	size        int
	budget      int64
	lanes       int
	concurrency int
	quiet       time.Duration
	verbose     bool
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.dir, "dir", ".", "directory of images to thumbnail")
	flag.IntVar(&cfg.size, "size", 128, "target size in pixels for the longer edge")
	flag.Int64Var(&cfg.budget, "budget", cache.DefaultMaxBytes, "shared cache budget in bytes")
	flag.IntVar(&cfg.lanes, "lanes", 2, "number of providers sharing the cache")
	flag.IntVar(&cfg.concurrency, "concurrency", 0, "decode concurrency bound per lane (0 = GOMAXPROCS)")
	flag.DurationVar(&cfg.quiet, "quiet", time.Second, "stop waiting for callbacks after this long without one")
	flag.BoolVar(&cfg.verbose, "v", false, "debug logging")
	flag.Parse()
	return cfg
}

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

func main() {
	cfg := parseFlags()

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(cfg, logger); err != nil {
		logger.Error("thumbgen failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	paths, err := collectImages(cfg.dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no images found under %s", cfg.dir)
	}
	logger.Info("collected images", "count", len(paths), "dir", cfg.dir)

	reg := prometheus.NewRegistry()
	metrics, err := meter.NewMetrics("thumbgen", reg)
	if err != nil {
		return err
	}
	handle := cache.NewHandle(cache.WithStoreFactory(func() cache.Store {
		return metrics.NewStore(cfg.budget)
	}))

	var syncHits, delivered atomic.Int64
	start := time.Now()

	var g errgroup.Group
	for lane := 0; lane < cfg.lanes; lane++ {
		lane := lane
		g.Go(func() error {
			return runLane(cfg, logger.With("lane", lane), handle, lanePaths(paths, lane, cfg.lanes), &syncHits, &delivered)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	report(logger, reg, elapsed, len(paths), syncHits.Load(), delivered.Load())
	return nil
}

// laneConsumer counts deliveries and pings its lane on every callback so
// the lane can detect when the pipeline has gone quiet.
type laneConsumer struct {
	delivered *atomic.Int64
	ping      chan struct{}
}

func (c *laneConsumer) OnThumbnail(string, image.Image) {
	c.delivered.Add(1)
	select {
	case c.ping <- struct{}{}:
	default:
	}
}

func runLane(cfg config, logger *slog.Logger, handle *cache.Handle, paths []string, syncHits, delivered *atomic.Int64) error {
	engine := imagefile.New(imagefile.WithConcurrency(cfg.concurrency))
	p := thumb.NewProvider(handle, engine, thumb.WithLogger(logger))
	defer p.Destroy()

	consumer := &laneConsumer{delivered: delivered, ping: make(chan struct{}, 1)}
	misses := 0
	for _, path := range paths {
		if _, ok := p.Request(path, cfg.size, consumer); ok {
			syncHits.Add(1)
		} else {
			misses++
		}
	}
	logger.Debug("requests issued", "total", len(paths), "pending", misses)

	// Failed decodes never call back, so drain until the lane goes
	// quiet instead of counting down.
	for {
		select {
		case <-consumer.ping:
		case <-time.After(cfg.quiet):
			return nil
		}
	}
}

func lanePaths(paths []string, lane, lanes int) []string {
	var out []string
	for i := lane; i < len(paths); i += lanes {
		out = append(out, paths[i])
	}
	return out
}

func collectImages(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && imageExts[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func report(logger *slog.Logger, reg *prometheus.Registry, elapsed time.Duration, total int, syncHits, delivered int64) {
	stats := map[string]float64{}
	families, err := reg.Gather()
	if err == nil {
		for _, mf := range families {
			for _, m := range mf.GetMetric() {
				if c := m.GetCounter(); c != nil {
					stats[mf.GetName()] = c.GetValue()
				} else if gv := m.GetGauge(); gv != nil {
					stats[mf.GetName()] = gv.GetValue()
				}
			}
		}
	}

	logger.Info("done",
		"elapsed", elapsed.Round(time.Millisecond).String(),
		"requested", total,
		"sync_hits", syncHits,
		"delivered", delivered,
		"cache_hits", stats["thumbgen_cache_hits_total"],
		"cache_misses", stats["thumbgen_cache_misses_total"],
		"cache_evictions", stats["thumbgen_cache_evictions_total"],
		"resident_bytes", stats["thumbgen_cache_resident_bytes"],
	)
}
