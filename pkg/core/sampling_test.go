package core

import (
	"math"
	"math/rand"
	"testing"
)

func TestRandomInUnitSphere_InsideBall(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(42)))

	for i := 0; i < 10000; i++ {
		p := RandomInUnitSphere(sampler)
		if p.Length() >= 1.0 {
			t.Fatalf("Sample %d outside unit ball: %v (length %f)", i, p, p.Length())
		}
	}
}

func TestRandomInUnitSphere_Uniform(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(7)))

	// For a uniform ball, P(|p| < 0.5) = 0.125
	const n = 40000
	inner := 0
	sum := NewVec3(0, 0, 0)
	for i := 0; i < n; i++ {
		p := RandomInUnitSphere(sampler)
		if p.Length() < 0.5 {
			inner++
		}
		sum = sum.Add(p)
	}

	fraction := float64(inner) / n
	if math.Abs(fraction-0.125) > 0.01 {
		t.Errorf("Expected ~12.5%% of samples in the inner half-radius ball, got %.2f%%", fraction*100)
	}

	mean := sum.Multiply(1.0 / n)
	if mean.Length() > 0.02 {
		t.Errorf("Expected mean near origin, got %v", mean)
	}
}

func TestRandomUnitVector_UnitLength(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(3)))

	for i := 0; i < 1000; i++ {
		v := RandomUnitVector(sampler)
		if math.Abs(v.Length()-1) > 1e-9 {
			t.Fatalf("Expected unit vector, got %v (length %f)", v, v.Length())
		}
	}
}

func TestRandomInUnitDisk(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(42)))

	for i := 0; i < 10000; i++ {
		p := RandomInUnitDisk(sampler)
		if p.Z != 0 {
			t.Fatalf("Disk sample should lie in z=0 plane, got %v", p)
		}
		if p.Length() >= 1.0 {
			t.Fatalf("Sample %d outside unit disk: %v", i, p)
		}
	}
}

func TestRandomVec3_Range(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(1)))

	for i := 0; i < 1000; i++ {
		v := RandomVec3(sampler, 0.5, 1.0)
		for _, c := range []float64{v.X, v.Y, v.Z} {
			if c < 0.5 || c >= 1.0 {
				t.Fatalf("Component %f outside [0.5, 1.0)", c)
			}
		}
	}
}

func TestSeededSampler_Deterministic(t *testing.T) {
	a := NewSeededSampler(99)
	b := NewSeededSampler(99)

	for i := 0; i < 100; i++ {
		if a.Get1D() != b.Get1D() {
			t.Fatal("Samplers with equal seeds should produce equal sequences")
		}
	}
}
