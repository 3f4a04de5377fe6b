package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

// MockShape implements Shape for testing
type MockShape struct {
	hitFn func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool)
}

func (m MockShape) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	return m.hitFn(ray, tMin, tMax)
}

func TestHittableList_Empty(t *testing.T) {
	list := NewHittableList()
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	if _, isHit := list.Hit(ray, 0.001, math.Inf(1)); isHit {
		t.Error("Empty list should never report a hit")
	}
}

func TestHittableList_ClosestHitWins(t *testing.T) {
	near := material.NewLambertian(core.NewVec3(1, 0, 0))
	far := material.NewLambertian(core.NewVec3(0, 0, 1))

	orders := map[string][]Shape{
		"near first": {
			NewSphere(core.NewVec3(0, 0, -2), 0.5, near),
			NewSphere(core.NewVec3(0, 0, -5), 0.5, far),
		},
		"far first": {
			NewSphere(core.NewVec3(0, 0, -5), 0.5, far),
			NewSphere(core.NewVec3(0, 0, -2), 0.5, near),
		},
	}

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	for name, shapes := range orders {
		t.Run(name, func(t *testing.T) {
			list := NewHittableList(shapes...)
			hit, isHit := list.Hit(ray, 0.001, math.Inf(1))
			if !isHit {
				t.Fatal("Expected hit")
			}
			if math.Abs(hit.T-1.5) > 1e-9 {
				t.Errorf("Expected closest t=1.5, got %f", hit.T)
			}
			if hit.Material != near {
				t.Error("Expected the nearer sphere's material")
			}
		})
	}
}

func TestHittableList_ShrinksTMax(t *testing.T) {
	var seen []float64
	recorder := func(hitT float64) MockShape {
		return MockShape{hitFn: func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
			seen = append(seen, tMax)
			if hitT <= tMax {
				return &material.HitRecord{T: hitT}, true
			}
			return nil, false
		}}
	}

	list := NewHittableList(recorder(5), recorder(3), recorder(4), recorder(1))
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	hit, isHit := list.Hit(ray, 0.001, 100)
	if !isHit || hit.T != 1 {
		t.Fatalf("Expected closest hit at t=1, got %v %v", hit, isHit)
	}

	expected := []float64{100, 5, 3, 3}
	for i := range expected {
		if seen[i] != expected[i] {
			t.Errorf("Shape %d saw tMax=%f, want %f", i, seen[i], expected[i])
		}
	}
}
