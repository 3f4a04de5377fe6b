package renderer

import (
	"context"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/integrator"
)

// RaytracerConfig contains configuration for a single-pass render
type RaytracerConfig struct {
	SamplesPerPixel int   // Number of rays per pixel
	TileSize        int   // Size of each tile
	NumWorkers      int   // Number of parallel workers (0 = use CPU count)
	Seed            int64 // Base seed for the per-tile samplers
}

// DefaultRaytracerConfig returns sensible default values
func DefaultRaytracerConfig() RaytracerConfig {
	return RaytracerConfig{
		SamplesPerPixel: 100,
		TileSize:        32,
		NumWorkers:      0,
		Seed:            42,
	}
}

// Raytracer renders every sample of every pixel in one pass
type Raytracer struct {
	world         geometry.Shape
	camera        *Camera
	integrator    integrator.Integrator
	width, height int
	config        RaytracerConfig
	logger        core.Logger
}

// NewRaytracer creates a new single-pass raytracer
func NewRaytracer(world geometry.Shape, camera *Camera, integratorInst integrator.Integrator, width, height int, config RaytracerConfig, logger core.Logger) *Raytracer {
	return &Raytracer{
		world:      world,
		camera:     camera,
		integrator: integratorInst,
		width:      width,
		height:     height,
		config:     config,
		logger:     logger,
	}
}

// Render draws SamplesPerPixel samples for every pixel and returns the image
func (rt *Raytracer) Render(ctx context.Context) (*Image, RenderStats, error) {
	pr, err := NewProgressiveRaytracer(rt.world, rt.camera, rt.integrator, rt.width, rt.height, ProgressiveConfig{
		TileSize:           rt.config.TileSize,
		InitialSamples:     rt.config.SamplesPerPixel,
		MaxSamplesPerPixel: rt.config.SamplesPerPixel,
		MaxPasses:          1,
		NumWorkers:         rt.config.NumWorkers,
		Seed:               rt.config.Seed,
	}, rt.logger)
	if err != nil {
		return nil, RenderStats{}, err
	}
	return pr.Render(ctx, nil)
}
