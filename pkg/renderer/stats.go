package renderer

import (
	"fmt"
	"io"
	"time"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/olekukonko/tablewriter"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int           // Total number of pixels rendered
	TotalSamples   int           // Total number of samples taken
	AverageSamples float64       // Average samples per pixel
	MaxSamples     int           // Target samples per pixel
	MinSamples     int           // Minimum samples taken per pixel
	MaxSamplesUsed int           // Maximum samples actually used by any pixel
	Passes         int           // Number of passes completed
	SamplesAdded   int           // Samples drawn by the pass or tile call that produced these stats
	RenderTime     time.Duration // Wall time spent rendering
}

// WriteTable renders the statistics as a text table
func (s RenderStats) WriteTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Pixels", "Samples", "Avg spp", "Min spp", "Max spp", "Passes", "Render time"})
	table.Append([]string{
		fmt.Sprintf("%d", s.TotalPixels),
		fmt.Sprintf("%d", s.TotalSamples),
		fmt.Sprintf("%.1f", s.AverageSamples),
		fmt.Sprintf("%d", s.MinSamples),
		fmt.Sprintf("%d", s.MaxSamplesUsed),
		fmt.Sprintf("%d", s.Passes),
		s.RenderTime.Round(time.Millisecond).String(),
	})
	table.Render()
}

// PixelStats accumulates samples for a single pixel
type PixelStats struct {
	ColorAccum  core.Color // RGB accumulator for final result
	SampleCount int        // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Color) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Color {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// collectStats computes render statistics from the shared pixel array
func collectStats(pixelStats [][]PixelStats, targetSamples int) RenderStats {
	stats := RenderStats{
		MaxSamples: targetSamples,
		MinSamples: -1,
	}

	for y := range pixelStats {
		for x := range pixelStats[y] {
			count := pixelStats[y][x].SampleCount
			stats.TotalPixels++
			stats.TotalSamples += count
			if stats.MinSamples < 0 || count < stats.MinSamples {
				stats.MinSamples = count
			}
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, count)
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	stats.MinSamples = max(stats.MinSamples, 0)
	return stats
}
