package scene

import (
	"fmt"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/integrator"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name           string
	World          *geometry.HittableList // Objects in the scene, read-only while rendering
	SamplingConfig SamplingConfig
	CameraConfig   renderer.CameraConfig
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int // Image width
	Height          int // Image height
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// Validate rejects configurations that cannot produce an image
func (c SamplingConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: image size %dx%d must be positive", renderer.ErrInvalidConfig, c.Width, c.Height)
	}
	if c.SamplesPerPixel <= 0 {
		return fmt.Errorf("%w: samples per pixel %d must be positive", renderer.ErrInvalidConfig, c.SamplesPerPixel)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("%w: max depth %d must be positive", renderer.ErrInvalidConfig, c.MaxDepth)
	}
	return nil
}

// MergeSamplingConfig returns base with every non-zero field of override applied
func MergeSamplingConfig(base, override SamplingConfig) SamplingConfig {
	if override.Width != 0 {
		base.Width = override.Width
	}
	if override.Height != 0 {
		base.Height = override.Height
	}
	if override.SamplesPerPixel != 0 {
		base.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth != 0 {
		base.MaxDepth = override.MaxDepth
	}
	return base
}

// SetSampling replaces the sampling configuration. The camera aspect ratio
// follows the image size only when the size changes or no aspect ratio is
// set, so an explicit aspect ratio survives sample or depth overrides.
func (s *Scene) SetSampling(config SamplingConfig) {
	resized := config.Width != s.SamplingConfig.Width || config.Height != s.SamplingConfig.Height
	s.SamplingConfig = config
	if (resized || s.CameraConfig.AspectRatio == 0) && config.Height > 0 {
		s.CameraConfig.AspectRatio = float64(config.Width) / float64(config.Height)
	}
}

// NewCamera builds the camera described by the scene
func (s *Scene) NewCamera() (*renderer.Camera, error) {
	return renderer.NewCamera(s.CameraConfig)
}

// Validate checks the scene's sampling and camera configuration
func (s *Scene) Validate() error {
	if err := s.SamplingConfig.Validate(); err != nil {
		return fmt.Errorf("scene %q: %w", s.Name, err)
	}
	if err := s.CameraConfig.Validate(); err != nil {
		return fmt.Errorf("scene %q: %w", s.Name, err)
	}
	return nil
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	if s.World == nil {
		return 0
	}
	return s.World.Len()
}

// IntegratorConfig returns the path tracer settings for this scene
func (s *Scene) IntegratorConfig() integrator.Config {
	config := integrator.DefaultConfig()
	config.MaxDepth = s.SamplingConfig.MaxDepth
	return config
}

// NewProgressiveRaytracer wires the scene's world, camera and sampling
// configuration into a progressive renderer. config.MaxSamplesPerPixel is
// taken from the scene.
func (s *Scene) NewProgressiveRaytracer(config renderer.ProgressiveConfig, logger core.Logger) (*renderer.ProgressiveRaytracer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	camera, err := s.NewCamera()
	if err != nil {
		return nil, err
	}

	config.MaxSamplesPerPixel = s.SamplingConfig.SamplesPerPixel
	pathTracer := integrator.NewPathTracingIntegrator(s.IntegratorConfig())
	return renderer.NewProgressiveRaytracer(s.World, camera, pathTracer,
		s.SamplingConfig.Width, s.SamplingConfig.Height, config, logger)
}
