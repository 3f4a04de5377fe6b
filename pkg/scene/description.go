package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/material"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
)

// ErrInvalidScene is returned for scene descriptions that cannot be built
var ErrInvalidScene = errors.New("invalid scene description")

// Material type names used in scene descriptions
const (
	MaterialLambertian = "lambertian"
	MaterialMetal      = "metal"
	MaterialDielectric = "dielectric"
)

// Vector is a JSON-friendly [x, y, z] triple
type Vector [3]float64

// Vec3 converts the triple to a core.Vec3
func (v Vector) Vec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// VectorOf converts a core.Vec3 to a Vector
func VectorOf(v core.Vec3) Vector {
	return Vector{v.X, v.Y, v.Z}
}

// CameraDescription describes the camera. A zero AspectRatio follows the image size.
type CameraDescription struct {
	LookFrom      Vector  `json:"lookFrom"`
	LookAt        Vector  `json:"lookAt"`
	Up            Vector  `json:"up"`
	VFov          float64 `json:"vfov"`
	AspectRatio   float64 `json:"aspectRatio,omitempty"`
	Aperture      float64 `json:"aperture"`
	FocusDistance float64 `json:"focusDistance,omitempty"`
}

// SamplingDescription describes image size and sampling
type SamplingDescription struct {
	Width           int `json:"width"`
	Height          int `json:"height"`
	SamplesPerPixel int `json:"samplesPerPixel"`
	MaxDepth        int `json:"maxDepth"`
}

// MaterialDescription is one entry in the shared material table
type MaterialDescription struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	Albedo          Vector  `json:"albedo"`
	Fuzz            float64 `json:"fuzz,omitempty"`
	RefractiveIndex float64 `json:"refractiveIndex,omitempty"`
}

// SphereDescription places a sphere and references a material by ID
type SphereDescription struct {
	Center   Vector  `json:"center"`
	Radius   float64 `json:"radius"`
	Material string  `json:"material"`
}

// Description is the serializable form of a scene. Materials live in one
// table and are shared by every sphere that references them.
type Description struct {
	Name      string                `json:"name"`
	Camera    CameraDescription     `json:"camera"`
	Sampling  SamplingDescription   `json:"sampling"`
	Materials []MaterialDescription `json:"materials"`
	Spheres   []SphereDescription   `json:"spheres"`
}

// AddMaterial appends a material to the table and returns its ID
func (d *Description) AddMaterial(m MaterialDescription) string {
	if m.ID == "" {
		m.ID = fmt.Sprintf("m%d", len(d.Materials))
	}
	d.Materials = append(d.Materials, m)
	return m.ID
}

// AddSphere appends a sphere using a material ID from the table
func (d *Description) AddSphere(center core.Point3, radius float64, materialID string) {
	d.Spheres = append(d.Spheres, SphereDescription{
		Center:   VectorOf(center),
		Radius:   radius,
		Material: materialID,
	})
}

// Build constructs the materials, spheres and configuration of the scene.
// Each material is built once and shared by the spheres that reference it.
func (d *Description) Build() (*Scene, error) {
	materials := make(map[string]material.Material, len(d.Materials))
	for _, md := range d.Materials {
		if md.ID == "" {
			return nil, fmt.Errorf("%w: material without id", ErrInvalidScene)
		}
		if _, exists := materials[md.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate material id %q", ErrInvalidScene, md.ID)
		}
		mat, err := md.build()
		if err != nil {
			return nil, err
		}
		materials[md.ID] = mat
	}

	world := geometry.NewHittableList()
	for i, sd := range d.Spheres {
		if !(sd.Radius > 0) {
			return nil, fmt.Errorf("%w: sphere %d has radius %g", ErrInvalidScene, i, sd.Radius)
		}
		mat, ok := materials[sd.Material]
		if !ok {
			return nil, fmt.Errorf("%w: sphere %d references unknown material %q", ErrInvalidScene, i, sd.Material)
		}
		world.Add(geometry.NewSphere(sd.Center.Vec3(), sd.Radius, mat))
	}

	s := &Scene{
		Name:  d.Name,
		World: world,
		CameraConfig: renderer.CameraConfig{
			Center:        d.Camera.LookFrom.Vec3(),
			LookAt:        d.Camera.LookAt.Vec3(),
			Up:            d.Camera.Up.Vec3(),
			VFov:          d.Camera.VFov,
			AspectRatio:   d.Camera.AspectRatio,
			Aperture:      d.Camera.Aperture,
			FocusDistance: d.Camera.FocusDistance,
		},
	}
	aspect := s.CameraConfig.AspectRatio
	s.SetSampling(SamplingConfig{
		Width:           d.Sampling.Width,
		Height:          d.Sampling.Height,
		SamplesPerPixel: d.Sampling.SamplesPerPixel,
		MaxDepth:        d.Sampling.MaxDepth,
	})
	if aspect != 0 {
		s.CameraConfig.AspectRatio = aspect
	}

	if err := s.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidScene, err)
	}
	return s, nil
}

func (md MaterialDescription) build() (material.Material, error) {
	switch md.Type {
	case MaterialLambertian:
		return material.NewLambertian(md.Albedo.Vec3()), nil
	case MaterialMetal:
		return material.NewMetal(md.Albedo.Vec3(), md.Fuzz), nil
	case MaterialDielectric:
		if !(md.RefractiveIndex > 0) {
			return nil, fmt.Errorf("%w: material %q has refractive index %g", ErrInvalidScene, md.ID, md.RefractiveIndex)
		}
		return material.NewDielectric(md.RefractiveIndex), nil
	default:
		return nil, fmt.Errorf("%w: material %q has unknown type %q", ErrInvalidScene, md.ID, md.Type)
	}
}

// Decode reads a JSON scene description
func Decode(r io.Reader) (*Description, error) {
	var d Description
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return &d, nil
}

// Encode writes the description as indented JSON
func (d *Description) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode scene %q: %w", d.Name, err)
	}
	return nil
}

// Load reads a scene description from a JSON file
func Load(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Save writes a scene description to a JSON file
func Save(path string, d *Description) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scene file: %w", err)
	}
	if err := d.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close scene file: %w", err)
	}
	return nil
}
