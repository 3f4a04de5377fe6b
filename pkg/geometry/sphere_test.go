package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

func TestSphere_Hit_Miss(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	ray := core.NewRay(core.NewVec3(2, 0, 0), core.NewVec3(0, 1, 0))

	hit, isHit := sphere.Hit(ray, 0.001, math.Inf(1))
	if isHit {
		t.Errorf("Expected miss, but got hit at t=%f", hit.T)
	}
}

func TestSphere_Hit_AimedAtCenter(t *testing.T) {
	center := core.NewVec3(0, 0, -1)
	radius := 0.5
	sphere := NewSphere(center, radius, nil)

	origins := []core.Vec3{
		core.NewVec3(0, 0, 0),
		core.NewVec3(3, 2, 1),
		core.NewVec3(-10, 0.5, -4),
	}

	for _, origin := range origins {
		// Unnormalized direction to exercise the a != 1 path
		ray := core.NewRay(origin, center.Subtract(origin).Multiply(3))

		hit, isHit := sphere.Hit(ray, 0.001, math.Inf(1))
		if !isHit {
			t.Fatalf("Ray from %v aimed at center should hit", origin)
		}

		distance := ray.At(hit.T).Subtract(center).Length()
		if math.Abs(distance-radius) > 1e-9 {
			t.Errorf("Hit point should lie on sphere surface: distance %f, radius %f", distance, radius)
		}
		if math.Abs(hit.Point.Subtract(center).Length()-radius) > 1e-9 {
			t.Errorf("Recorded point %v is not on the surface", hit.Point)
		}
		if math.Abs(hit.Normal.Length()-1) > 1e-9 {
			t.Errorf("Normal should be unit length, got %f", hit.Normal.Length())
		}
	}
}

func TestSphere_Hit_FrontAndBackFace(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)

	tests := []struct {
		name           string
		rayOrigin      core.Vec3
		rayDirection   core.Vec3
		expectedT      float64
		expectedFront  bool
		expectedNormal core.Vec3
	}{
		{
			name:           "front face hit from outside",
			rayOrigin:      core.NewVec3(0, 0, 2),
			rayDirection:   core.NewVec3(0, 0, -1),
			expectedT:      1.0,
			expectedFront:  true,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
		{
			name:           "back face hit from inside",
			rayOrigin:      core.NewVec3(0, 0, 0),
			rayDirection:   core.NewVec3(0, 0, 1),
			expectedT:      1.0,
			expectedFront:  false,
			expectedNormal: core.NewVec3(0, 0, -1),
		},
		{
			name:           "inside off-center pointing outward",
			rayOrigin:      core.NewVec3(0.5, 0, 0),
			rayDirection:   core.NewVec3(1, 0, 0),
			expectedT:      0.5,
			expectedFront:  false,
			expectedNormal: core.NewVec3(-1, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(tt.rayOrigin, tt.rayDirection)
			hit, isHit := sphere.Hit(ray, 0.001, math.Inf(1))

			if !isHit {
				t.Fatal("Expected hit, but got miss")
			}

			if math.Abs(hit.T-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%f, got t=%f", tt.expectedT, hit.T)
			}

			if hit.FrontFace != tt.expectedFront {
				t.Errorf("Expected front face %t, got %t", tt.expectedFront, hit.FrontFace)
			}

			if hit.Normal.Subtract(tt.expectedNormal).Length() > 1e-9 {
				t.Errorf("Expected normal %v, got %v", tt.expectedNormal, hit.Normal)
			}
		})
	}
}

func TestSphere_Hit_RootSelection(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	// Roots at t=1 (near) and t=3 (far)
	ray := core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1))

	tests := []struct {
		name      string
		tMin      float64
		tMax      float64
		expectHit bool
		expectedT float64
	}{
		{"near root inside interval", 0.001, 10, true, 1},
		{"near root below tMin falls back to far root", 1.5, 10, true, 3},
		{"far root above tMax", 1.5, 2.5, false, 0},
		{"both roots above tMax", 0.001, 0.5, false, 0},
		{"both roots below tMin", 4, 10, false, 0},
		{"near root exactly at tMax is accepted", 0.001, 1, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, isHit := sphere.Hit(ray, tt.tMin, tt.tMax)
			if isHit != tt.expectHit {
				t.Fatalf("Expected hit=%t, got %t", tt.expectHit, isHit)
			}
			if isHit && math.Abs(hit.T-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%f, got %f", tt.expectedT, hit.T)
			}
		})
	}
}

func TestSphere_Hit_CarriesSharedMaterial(t *testing.T) {
	shared := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	a := NewSphere(core.NewVec3(0, 0, -1), 0.5, shared)
	b := NewSphere(core.NewVec3(0, 0, -3), 0.5, shared)

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	hitA, _ := a.Hit(ray, 0.001, math.Inf(1))
	hitB, _ := b.Hit(ray, 0.001, math.Inf(1))

	if hitA.Material != hitB.Material {
		t.Error("Spheres sharing a material should report the same material instance")
	}
}
