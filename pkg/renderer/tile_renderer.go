package renderer

import (
	"image"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/integrator"
)

// TileRenderer handles the actual rendering of individual tiles using an integrator.
// It holds only read-only state and may be shared by all workers.
type TileRenderer struct {
	world         geometry.Shape
	camera        *Camera
	integrator    integrator.Integrator
	width, height int
}

// NewTileRenderer creates a new tile renderer for an image of the given size
func NewTileRenderer(world geometry.Shape, camera *Camera, integratorInst integrator.Integrator, width, height int) *TileRenderer {
	return &TileRenderer{
		world:      world,
		camera:     camera,
		integrator: integratorInst,
		width:      width,
		height:     height,
	}
}

// RenderTileBounds samples every pixel within bounds until it holds
// targetSamples. The returned sample counts cover only the samples added by
// this call.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler, targetSamples int) RenderStats {
	stats := RenderStats{
		TotalPixels: bounds.Dx() * bounds.Dy(),
		MaxSamples:  targetSamples,
		MinSamples:  targetSamples,
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			samplesUsed := tr.samplePixel(x, y, &pixelStats[y][x], sampler, targetSamples)
			stats.TotalSamples += samplesUsed
			stats.MinSamples = min(stats.MinSamples, samplesUsed)
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, samplesUsed)
		}
	}

	stats.SamplesAdded = stats.TotalSamples
	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return stats
}

// samplePixel draws jittered camera rays through pixel (x, y) until it holds
// targetSamples and returns how many were added
func (tr *TileRenderer) samplePixel(x, y int, ps *PixelStats, sampler core.Sampler, targetSamples int) int {
	initialSampleCount := ps.SampleCount

	for ps.SampleCount < targetSamples {
		s, t := PixelToScreen(x, y, sampler.Get2D(), tr.width, tr.height)
		ray := tr.camera.GetRay(s, t, sampler)
		ps.AddSample(tr.integrator.RayColor(ray, tr.world, sampler))
	}

	return ps.SampleCount - initialSampleCount
}

// PixelToScreen maps pixel (x, y) plus a jitter in [0,1)^2 to camera screen
// coordinates. Row 0 is the top of the image while t grows upward, and the
// divisor is width-1 (height-1) so the last column lands on s=1.
func PixelToScreen(x, y int, jitter core.Vec2, width, height int) (s, t float64) {
	j := height - 1 - y
	s = (float64(x) + jitter.X) / float64(max(width-1, 1))
	t = (float64(j) + jitter.Y) / float64(max(height-1, 1))
	return s, t
}
