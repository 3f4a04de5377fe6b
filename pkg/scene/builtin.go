package scene

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// ErrUnknownScene is returned when a built-in scene name is not registered
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo describes a built-in scene
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier used on the command line
	Description string `json:"description"` // One-line summary
	Seeded      bool   `json:"seeded"`      // Whether the layout depends on the seed
}

type builtinScene struct {
	info  SceneInfo
	build func(seed int64) *Description
}

var builtins = map[string]builtinScene{
	"random-spheres": {
		info:  SceneInfo{ID: "random-spheres", Description: "ground plane with a grid of random small spheres and three large ones", Seeded: true},
		build: NewRandomSpheresDescription,
	},
	"three-spheres": {
		info:  SceneInfo{ID: "three-spheres", Description: "diffuse, glass and metal spheres on a large ground sphere"},
		build: func(int64) *Description { return NewThreeSpheresDescription() },
	},
	"single-sphere": {
		info:  SceneInfo{ID: "single-sphere", Description: "one gray diffuse sphere under the sky"},
		build: func(int64) *Description { return NewSingleSphereDescription() },
	},
	"empty": {
		info:  SceneInfo{ID: "empty", Description: "no objects, only the sky gradient"},
		build: func(int64) *Description { return NewEmptyDescription() },
	},
}

// DefaultSceneName is the scene rendered when none is requested
const DefaultSceneName = "random-spheres"

// Builtins lists the built-in scenes sorted by ID
func Builtins() []SceneInfo {
	infos := make([]SceneInfo, 0, len(builtins))
	for _, b := range builtins {
		infos = append(infos, b.info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// Builtin returns the description of a built-in scene
func Builtin(name string, seed int64) (*Description, error) {
	b, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return b.build(seed), nil
}

// Create builds a built-in scene
func Create(name string, seed int64) (*Scene, error) {
	d, err := Builtin(name, seed)
	if err != nil {
		return nil, err
	}
	return d.Build()
}

func randomColor(random *rand.Rand, lo, hi float64) Vector {
	return Vector{
		lo + (hi-lo)*random.Float64(),
		lo + (hi-lo)*random.Float64(),
		lo + (hi-lo)*random.Float64(),
	}
}

// NewRandomSpheresDescription creates the classic final scene: a huge ground
// sphere, a 23x23 grid of small randomly jittered spheres with random
// materials, and three large feature spheres
func NewRandomSpheresDescription(seed int64) *Description {
	random := rand.New(rand.NewSource(seed))

	d := &Description{
		Name: "random-spheres",
		Camera: CameraDescription{
			LookFrom:      Vector{13, 2, 3},
			LookAt:        Vector{0, 0, 0},
			Up:            Vector{0, 1, 0},
			VFov:          20,
			AspectRatio:   3.0 / 2.0,
			Aperture:      0.1,
			FocusDistance: 10,
		},
		Sampling: SamplingDescription{
			Width:           1200,
			Height:          800,
			SamplesPerPixel: 500,
			MaxDepth:        50,
		},
	}

	ground := d.AddMaterial(MaterialDescription{ID: "ground", Type: MaterialLambertian, Albedo: Vector{0.5, 0.5, 0.5}})
	d.AddSphere(core.NewVec3(0, -1000, 0), 1000, ground)

	// Small glass spheres all share one material
	glass := d.AddMaterial(MaterialDescription{ID: "glass", Type: MaterialDielectric, RefractiveIndex: 1.5})

	for a := -11; a <= 11; a++ {
		for b := -11; b <= 11; b++ {
			chooseMat := random.Float64()
			center := core.NewVec3(float64(a)+0.9*random.Float64(), 0.2, float64(b)+0.9*random.Float64())

			var id string
			switch {
			case chooseMat < 0.8:
				a1 := randomColor(random, 0, 1)
				a2 := randomColor(random, 0, 1)
				id = d.AddMaterial(MaterialDescription{
					Type:   MaterialLambertian,
					Albedo: Vector{a1[0] * a2[0], a1[1] * a2[1], a1[2] * a2[2]},
				})
			case chooseMat < 0.95:
				albedo := randomColor(random, 0.4, 1)
				id = d.AddMaterial(MaterialDescription{
					Type:   MaterialMetal,
					Albedo: albedo,
					Fuzz:   0.5 * random.Float64(),
				})
			default:
				id = glass
			}
			d.AddSphere(center, 0.2, id)
		}
	}

	bigGlass := d.AddMaterial(MaterialDescription{ID: "big-glass", Type: MaterialDielectric, RefractiveIndex: 1.5})
	brown := d.AddMaterial(MaterialDescription{ID: "brown", Type: MaterialLambertian, Albedo: Vector{0.4, 0.2, 0.1}})
	mirror := d.AddMaterial(MaterialDescription{ID: "mirror", Type: MaterialMetal, Albedo: Vector{0.7, 0.6, 0.5}, Fuzz: 0})

	d.AddSphere(core.NewVec3(0, 1, 0), 1.0, bigGlass)
	d.AddSphere(core.NewVec3(-4, 1, 0), 1.0, brown)
	d.AddSphere(core.NewVec3(4, 1, 0), 1.0, mirror)

	return d
}

// NewThreeSpheresDescription creates a small scene with one sphere of each material
func NewThreeSpheresDescription() *Description {
	d := &Description{
		Name: "three-spheres",
		Camera: CameraDescription{
			LookFrom: Vector{-2, 2, 1},
			LookAt:   Vector{0, 0, -1},
			Up:       Vector{0, 1, 0},
			VFov:     20,
		},
		Sampling: SamplingDescription{
			Width:           400,
			Height:          225,
			SamplesPerPixel: 100,
			MaxDepth:        50,
		},
	}

	ground := d.AddMaterial(MaterialDescription{ID: "ground", Type: MaterialLambertian, Albedo: Vector{0.8, 0.8, 0.0}})
	center := d.AddMaterial(MaterialDescription{ID: "center", Type: MaterialLambertian, Albedo: Vector{0.1, 0.2, 0.5}})
	left := d.AddMaterial(MaterialDescription{ID: "left", Type: MaterialDielectric, RefractiveIndex: 1.5})
	right := d.AddMaterial(MaterialDescription{ID: "right", Type: MaterialMetal, Albedo: Vector{0.8, 0.6, 0.2}, Fuzz: 0.0})

	d.AddSphere(core.NewVec3(0, -100.5, -1), 100, ground)
	d.AddSphere(core.NewVec3(0, 0, -1), 0.5, center)
	d.AddSphere(core.NewVec3(-1, 0, -1), 0.5, left)
	d.AddSphere(core.NewVec3(1, 0, -1), 0.5, right)

	return d
}

func skyCamera() CameraDescription {
	return CameraDescription{
		LookFrom: Vector{0, 0, 0},
		LookAt:   Vector{0, 0, -1},
		Up:       Vector{0, 1, 0},
		VFov:     90,
	}
}

// NewSingleSphereDescription creates a gray diffuse sphere of radius 0.5 at (0,0,-1)
func NewSingleSphereDescription() *Description {
	d := &Description{
		Name:   "single-sphere",
		Camera: skyCamera(),
		Sampling: SamplingDescription{
			Width:           200,
			Height:          100,
			SamplesPerPixel: 1,
			MaxDepth:        50,
		},
	}
	gray := d.AddMaterial(MaterialDescription{ID: "gray", Type: MaterialLambertian, Albedo: Vector{0.5, 0.5, 0.5}})
	d.AddSphere(core.NewVec3(0, 0, -1), 0.5, gray)
	return d
}

// NewEmptyDescription creates a scene with nothing but sky
func NewEmptyDescription() *Description {
	return &Description{
		Name:   "empty",
		Camera: skyCamera(),
		Sampling: SamplingDescription{
			Width:           200,
			Height:          100,
			SamplesPerPixel: 1,
			MaxDepth:        50,
		},
	}
}
