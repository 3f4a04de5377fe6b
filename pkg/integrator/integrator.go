package integrator

import (
	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
)

// Integrator defines the interface for light transport algorithms.
// Implementations must be safe for concurrent use with distinct samplers.
type Integrator interface {
	// RayColor computes the radiance carried back along ray from world
	RayColor(ray core.Ray, world geometry.Shape, sampler core.Sampler) core.Color
}
