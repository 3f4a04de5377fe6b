package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/integrator"
)

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	TileSize           int   // Size of each tile
	InitialSamples     int   // Samples for first pass (1 recommended)
	MaxSamplesPerPixel int   // Total samples per pixel at the end of the last pass
	MaxPasses          int   // Maximum number of passes
	NumWorkers         int   // Number of parallel workers (0 = use CPU count)
	Seed               int64 // Base seed for the per-tile samplers
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		TileSize:           32,
		InitialSamples:     1,
		MaxSamplesPerPixel: 100,
		MaxPasses:          5,
		NumWorkers:         0, // Auto-detect CPU count
		Seed:               42,
	}
}

// Validate checks the configuration
func (c ProgressiveConfig) Validate() error {
	if c.TileSize <= 0 {
		return fmt.Errorf("%w: tile size %d must be positive", ErrInvalidConfig, c.TileSize)
	}
	if c.MaxSamplesPerPixel <= 0 {
		return fmt.Errorf("%w: samples per pixel %d must be positive", ErrInvalidConfig, c.MaxSamplesPerPixel)
	}
	if c.MaxPasses <= 0 {
		return fmt.Errorf("%w: pass count %d must be positive", ErrInvalidConfig, c.MaxPasses)
	}
	if c.InitialSamples <= 0 {
		return fmt.Errorf("%w: initial samples %d must be positive", ErrInvalidConfig, c.InitialSamples)
	}
	return nil
}

// ProgressiveRaytracer manages progressive rendering with multiple passes.
// It renders one image at a time; every RenderProgressive call starts from
// an empty image, so a raytracer can be rendered again once a render ends.
type ProgressiveRaytracer struct {
	width, height int
	config        ProgressiveConfig
	tileRenderer  *TileRenderer  // Read-only, shared by every render
	tiles         []*Tile        // Tile management
	currentPass   int            // Progressive state
	pixelStats    [][]PixelStats // Shared pixel statistics array (global image coordinates)
	workerPool    *WorkerPool    // Worker pool for parallel processing
	logger        core.Logger    // Logger for rendering output
}

// NewProgressiveRaytracer creates a new progressive raytracer. world and
// camera must not be modified until rendering finishes.
func NewProgressiveRaytracer(world geometry.Shape, camera *Camera, integratorInst integrator.Integrator, width, height int, config ProgressiveConfig, logger core.Logger) (*ProgressiveRaytracer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d must be positive", ErrInvalidConfig, width, height)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = core.NopLogger{}
	}

	// Every pass must add at least one sample
	config.MaxPasses = min(config.MaxPasses, config.MaxSamplesPerPixel)
	config.InitialSamples = min(config.InitialSamples, config.MaxSamplesPerPixel)

	pr := &ProgressiveRaytracer{
		width:        width,
		height:       height,
		config:       config,
		tileRenderer: NewTileRenderer(world, camera, integratorInst, width, height),
		logger:       logger,
	}
	pr.reset()
	return pr, nil
}

// reset discards the accumulated samples and builds fresh tiles (with
// reseeded samplers) and a fresh, unstarted worker pool
func (pr *ProgressiveRaytracer) reset() {
	pr.tiles = NewTileGrid(pr.width, pr.height, pr.config.TileSize, pr.config.Seed)
	pr.currentPass = 0

	pr.pixelStats = make([][]PixelStats, pr.height)
	for y := range pr.pixelStats {
		pr.pixelStats[y] = make([]PixelStats, pr.width)
	}

	pr.workerPool = NewWorkerPool(pr.tileRenderer, pr.config.NumWorkers, len(pr.tiles))
}

// getSamplesForPass calculates the target total samples for a given pass
func (pr *ProgressiveRaytracer) getSamplesForPass(passNumber int) int {
	// Special case: if only 1 pass, use all samples
	if pr.config.MaxPasses == 1 {
		return pr.config.MaxSamplesPerPixel
	}

	// For multiple passes: first pass is quick preview
	if passNumber == 1 {
		return pr.config.InitialSamples
	}

	// For the final pass, use all remaining samples
	if passNumber >= pr.config.MaxPasses {
		return pr.config.MaxSamplesPerPixel
	}

	// Divide remaining samples evenly across remaining passes
	remainingSamples := pr.config.MaxSamplesPerPixel - pr.config.InitialSamples
	remainingPasses := pr.config.MaxPasses - 1
	samplesPerPass := remainingSamples / remainingPasses

	return pr.config.InitialSamples + (passNumber-1)*samplesPerPass
}

// RenderPass renders a single progressive pass using parallel processing.
// The worker pool must have been started. tileCallback, if non-nil, is
// called from this goroutine once per successfully rendered tile.
func (pr *ProgressiveRaytracer) RenderPass(passNumber int, tileCallback func(TileCompletionResult)) (*Image, RenderStats, error) {
	pr.currentPass = passNumber
	targetSamples := pr.getSamplesForPass(passNumber)

	pr.logger.Printf("Pass %d: Target %d samples per pixel (using %d workers)...\n",
		passNumber, targetSamples, pr.workerPool.GetNumWorkers())

	for taskID, tile := range pr.tiles {
		pr.workerPool.SubmitTask(TileTask{
			Tile:          tile,
			PassNumber:    passNumber,
			TargetSamples: targetSamples,
			TaskID:        taskID,
			PixelStats:    pr.pixelStats,
		})
	}

	// Every result must be drained before returning so the next pass starts clean
	var firstErr error
	samplesAdded := 0
	for i := 0; i < len(pr.tiles); i++ {
		result, ok := pr.workerPool.GetResult()
		if !ok {
			return nil, RenderStats{}, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}

		tile := pr.tiles[result.TaskID]
		tile.PassesCompleted++
		samplesAdded += result.Stats.SamplesAdded

		if tileCallback != nil && firstErr == nil {
			tileCallback(TileCompletionResult{
				TileX:       tile.Bounds.Min.X / pr.config.TileSize,
				TileY:       tile.Bounds.Min.Y / pr.config.TileSize,
				TileImage:   pr.extractTileImage(tile),
				PassNumber:  passNumber,
				Stats:       result.Stats,
				TileNumber:  i + 1,
				TotalTiles:  len(pr.tiles),
				TotalPasses: pr.config.MaxPasses,
			})
		}
	}
	if firstErr != nil {
		return nil, RenderStats{}, fmt.Errorf("render pass %d: %w", passNumber, firstErr)
	}

	img, stats := pr.assembleCurrentImage(targetSamples)
	stats.Passes = passNumber
	stats.SamplesAdded = samplesAdded
	return img, stats, nil
}

// extractTileImage copies the current color of the tile's pixels into an
// image the size of the tile
func (pr *ProgressiveRaytracer) extractTileImage(tile *Tile) *Image {
	bounds := tile.Bounds
	tileImage := NewImage(bounds.Dx(), bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := vec3ToColor(pr.pixelStats[y][x].GetColor())
			tileImage.Set(x-bounds.Min.X, y-bounds.Min.Y, r, g, b)
		}
	}

	return tileImage
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *Image
	Stats      RenderStats
	IsLast     bool
}

// TileCompletionResult describes one tile finished during a pass
type TileCompletionResult struct {
	TileX      int // Tile coordinates (not pixel coordinates)
	TileY      int
	TileImage  *Image // Current pixels of just this tile
	PassNumber int
	Stats      RenderStats // Samples added to this tile during the pass

	// Progress information
	TileNumber  int // Position of this tile in the pass's completion order (1-based)
	TotalTiles  int
	TotalPasses int
}

// RenderOptions configures progressive rendering behavior
type RenderOptions struct {
	TileUpdates bool // Whether to generate tile completion events
}

// RenderProgressive renders pass after pass in a background goroutine and
// reports each pass on the returned pass channel. Cancellation is checked
// between passes. With options.TileUpdates every finished tile is also sent
// on the tile channel; otherwise that channel is closed immediately. All
// channels are closed when rendering stops. Calls must not overlap.
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context, options RenderOptions) (<-chan PassResult, <-chan TileCompletionResult, <-chan error) {
	pr.reset()

	passChan := make(chan PassResult, 1)
	tileChan := make(chan TileCompletionResult, len(pr.tiles))
	errChan := make(chan error, 1)

	var tileCallback func(TileCompletionResult)
	if options.TileUpdates {
		tileCallback = func(result TileCompletionResult) {
			select {
			case tileChan <- result:
			case <-ctx.Done():
			}
		}
	} else {
		close(tileChan)
	}

	go func() {
		defer close(passChan)
		defer close(errChan)
		if options.TileUpdates {
			defer close(tileChan)
		}
		defer pr.workerPool.Stop()

		pr.workerPool.Start()
		pr.logger.Printf("Starting progressive rendering with %d passes...\n", pr.config.MaxPasses)
		renderStart := time.Now()

		for pass := 1; pass <= pr.config.MaxPasses; pass++ {
			select {
			case <-ctx.Done():
				pr.logger.Printf("Rendering cancelled before pass %d\n", pass)
				errChan <- ctx.Err()
				return
			default:
			}

			startTime := time.Now()
			img, stats, err := pr.RenderPass(pass, tileCallback)
			if err != nil {
				errChan <- err
				return
			}
			stats.RenderTime = time.Since(renderStart)

			pr.logger.Printf("Pass %d completed in %v (%d new samples, %.1f samples/pixel)\n",
				pass, time.Since(startTime), stats.SamplesAdded, stats.AverageSamples)

			isLast := pass == pr.config.MaxPasses || stats.MinSamples >= pr.config.MaxSamplesPerPixel
			select {
			case passChan <- PassResult{PassNumber: pass, Image: img, Stats: stats, IsLast: isLast}:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}

			if isLast {
				return
			}
		}
	}()

	return passChan, tileChan, errChan
}

// Render runs every pass to completion, invoking onPass (if non-nil) after
// each one, and returns the final image and statistics
func (pr *ProgressiveRaytracer) Render(ctx context.Context, onPass func(PassResult)) (*Image, RenderStats, error) {
	passChan, _, errChan := pr.RenderProgressive(ctx, RenderOptions{})

	var last PassResult
	for result := range passChan {
		if onPass != nil {
			onPass(result)
		}
		last = result
	}
	if err := <-errChan; err != nil {
		return nil, RenderStats{}, err
	}
	if last.Image == nil {
		return nil, RenderStats{}, fmt.Errorf("render produced no passes")
	}
	return last.Image, last.Stats, nil
}

// assembleCurrentImage creates an image from the current state of the shared
// pixel stats and calculates render statistics
func (pr *ProgressiveRaytracer) assembleCurrentImage(targetSamples int) (*Image, RenderStats) {
	img := NewImage(pr.width, pr.height)

	for y := 0; y < pr.height; y++ {
		for x := 0; x < pr.width; x++ {
			r, g, b := vec3ToColor(pr.pixelStats[y][x].GetColor())
			img.Set(x, y, r, g, b)
		}
	}

	return img, collectStats(pr.pixelStats, targetSamples)
}
