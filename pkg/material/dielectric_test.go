package material

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

func TestDielectric_AlwaysScattersWhite(t *testing.T) {
	glass := NewDielectric(1.5)
	white := core.NewVec3(1.0, 1.0, 1.0)

	tests := []struct {
		name      string
		direction core.Vec3
		frontFace bool
	}{
		{"entering head-on", core.NewVec3(0, -1, 0), true},
		{"entering at 45 degrees", core.NewVec3(1, -1, 0), true},
		{"exiting head-on", core.NewVec3(0, -1, 0), false},
		{"exiting at grazing angle", core.NewVec3(1, -0.1, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
			ray := core.NewRay(core.NewVec3(0, 1, 0), tt.direction)
			hit := HitRecord{
				Point:     core.NewVec3(0, 0, 0),
				Normal:    core.NewVec3(0, 1, 0),
				FrontFace: tt.frontFace,
				Material:  glass,
			}

			for i := 0; i < 100; i++ {
				result, scattered := glass.Scatter(ray, hit, sampler)
				if !scattered {
					t.Fatal("Dielectric should always scatter")
				}
				if !result.Attenuation.Equals(white) {
					t.Fatalf("Expected attenuation %v, got %v", white, result.Attenuation)
				}
			}
		})
	}
}

func TestDielectric_ReflectsAndRefracts(t *testing.T) {
	glass := NewDielectric(1.5)

	rayDirection := core.NewVec3(1, -1, 0).Normalize()
	ray := core.NewRay(core.NewVec3(0, 1, 0), rayDirection)
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		FrontFace: true,
	}

	hasReflection := false
	hasRefraction := false
	for seed := int64(0); seed < 1000 && (!hasReflection || !hasRefraction); seed++ {
		sampler := core.NewRandomSampler(rand.New(rand.NewSource(seed)))
		result, _ := glass.Scatter(ray, hit, sampler)

		if result.Scattered.Direction.Y > 0 {
			hasReflection = true
		} else {
			hasRefraction = true
		}
	}

	if !hasRefraction {
		t.Error("Expected to see refraction in at least some cases")
	}
	// At 45 degrees air to glass the reflection probability is ~5%
	if !hasReflection {
		t.Error("Expected to see reflection in at least some cases")
	}
}

func TestDielectric_TotalInternalReflection(t *testing.T) {
	glass := NewDielectric(1.5)

	rayDirection := core.NewVec3(1, -0.1, 0).Normalize()
	ray := core.NewRay(core.NewVec3(0, 0, 0), rayDirection)
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		FrontFace: false,
	}

	cosTheta := -rayDirection.Dot(hit.Normal)
	sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)
	if 1.5*sinTheta <= 1.0 {
		t.Fatalf("Test setup error: this angle should cause total internal reflection")
	}

	// Even a draw of 0.999 cannot pick refraction
	result, scattered := glass.Scatter(ray, hit, fixedSampler{value: 0.999})
	if !scattered {
		t.Fatal("Dielectric should always scatter")
	}

	expected := rayDirection.Reflect(hit.Normal)
	if result.Scattered.Direction.Subtract(expected).Length() > 1e-12 {
		t.Errorf("Expected total internal reflection %v, got %v", expected, result.Scattered.Direction)
	}
}

func TestDielectric_HeadOnRefractsStraightThrough(t *testing.T) {
	glass := NewDielectric(1.5)
	ray := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -2, 0))
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		FrontFace: true,
	}

	// A draw above r0 (~0.04) refracts
	result, _ := glass.Scatter(ray, hit, fixedSampler{value: 0.5})
	expected := core.NewVec3(0, -1, 0)
	if result.Scattered.Direction.Subtract(expected).Length() > 1e-12 {
		t.Errorf("Expected straight refraction %v, got %v", expected, result.Scattered.Direction)
	}

	// A draw below r0 reflects
	result, _ = glass.Scatter(ray, hit, fixedSampler{value: 0.01})
	expected = core.NewVec3(0, 1, 0)
	if result.Scattered.Direction.Subtract(expected).Length() > 1e-12 {
		t.Errorf("Expected reflection %v, got %v", expected, result.Scattered.Direction)
	}
}

func TestReflectance(t *testing.T) {
	for _, ior := range []float64{1.0, 1.33, 1.5, 2.4} {
		r := (1 - ior) / (1 + ior)
		r0 := r * r
		if got := Reflectance(1.0, ior); got != r0 {
			t.Errorf("Reflectance at normal incidence for ior %.2f = %f, want r0 = %f", ior, got, r0)
		}
	}

	r0 := Reflectance(1.0, 1.0/1.5)
	r45 := Reflectance(math.Cos(math.Pi/4), 1.0/1.5)
	r90 := Reflectance(0.0, 1.0/1.5)

	if math.Abs(r90-1.0) > 1e-12 {
		t.Errorf("Grazing incidence reflectance = %f, expected 1.0", r90)
	}
	if r45 <= r0 || r90 <= r45 {
		t.Errorf("Reflectance should increase with angle: R(0)=%.3f, R(45)=%.3f, R(90)=%.3f", r0, r45, r90)
	}
}
