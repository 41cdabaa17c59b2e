// Package scene is the typed storage model for a loaded trajectory:
// simulation metadata, per-geometry field buffers and the frame cursor.
// Everything here is plain CPU-side state; GPU residency is the
// renderer's concern.
package scene

import (
	"fmt"

	"github.com/san-kum/trajview/internal/diag"
)

// StorageClass says how a field varies: per particle per frame, per
// particle, or one value for the whole geometry.
type StorageClass int

const (
	Dynamic StorageClass = iota
	Static
	Global
)

func (c StorageClass) String() string {
	switch c {
	case Dynamic:
		return "dynamic"
	case Static:
		return "static"
	case Global:
		return "global"
	default:
		return "unknown"
	}
}

func ParseStorageClass(s string) (StorageClass, error) {
	switch s {
	case "dynamic":
		return Dynamic, nil
	case "static":
		return Static, nil
	case "global":
		return Global, nil
	default:
		return 0, diag.Errorf(diag.UnknownStorageClass, "field tag %q", s)
	}
}

// ShapeKind is the canonical particle shape of a geometry.
type ShapeKind int

const (
	ShapeDisk ShapeKind = iota
	ShapeSphere
	ShapeBond
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeDisk:
		return "Disk"
	case ShapeSphere:
		return "Sphere"
	case ShapeBond:
		return "Bond"
	default:
		return "unknown"
	}
}

func ParseShapeKind(s string) (ShapeKind, error) {
	switch s {
	case "Disk":
		return ShapeDisk, nil
	case "Sphere":
		return ShapeSphere, nil
	case "Bond":
		return ShapeBond, nil
	default:
		return 0, diag.Errorf(diag.MissingField, "unknown shape kind %q", s)
	}
}

// NeighborField is the bond adjacency table; it gets no GPU buffer and
// its component count is the geometry's max-neighbors, not a semantic
// per-field constant.
const NeighborField = "neighbor_idx"

// Components returns the per-particle component count of a field, fixed
// by its semantic name. Unrecognized fields are scalars.
func Components(field string, dimension int) int {
	switch field {
	case "position":
		return dimension
	case "angle":
		return dimension - 1
	case "color":
		return 3
	default:
		return 1
	}
}

// Metadata is the immutable simulation header, loaded once.
type Metadata struct {
	Dimension     int
	BoxSize       []float32
	FrameCount    int
	SimulationIdx int
	ChunkSize     int
	Background    [3]float32
	HasBackground bool
	Resolution    [2]int
	HasResolution bool
	GeometryNames []string
}

// Validate checks the header invariants. A missing box is reported by
// the loader separately (non-fatal); here only hard invariants live.
func (m *Metadata) Validate() error {
	if m.Dimension != 2 && m.Dimension != 3 {
		return diag.Errorf(diag.InvalidDimension, "dimension %d not in {2,3}", m.Dimension)
	}
	if m.FrameCount <= 0 {
		return diag.Errorf(diag.MissingField, "frame_count %d must be > 0", m.FrameCount)
	}
	return nil
}

// BoxCenter is the orbit camera's look-at point.
func (m *Metadata) BoxCenter() [3]float32 {
	var c [3]float32
	for i, v := range m.BoxSize {
		if i < 3 {
			c[i] = v / 2
		}
	}
	return c
}

// Field is one attribute of a geometry with its flat value storage.
// Dynamic data is frame-major: frame × particle × component.
type Field struct {
	Name       string
	Class      StorageClass
	Components int
	Data       []float32
}

// FrameSlice returns the values for one frame. Static and Global fields
// are frame-invariant and return all data.
func (f *Field) FrameSlice(frame, count int) []float32 {
	if f.Class != Dynamic {
		return f.Data
	}
	stride := count * f.Components
	return f.Data[frame*stride : (frame+1)*stride]
}

// CheckLength verifies the storage-class length invariant.
func (f *Field) CheckLength(frameCount, count int) error {
	var want int
	switch f.Class {
	case Dynamic:
		want = frameCount * count * f.Components
	case Static:
		want = count * f.Components
	case Global:
		want = f.Components
	}
	if len(f.Data) != want {
		return diag.Errorf(diag.MissingArrayPayload,
			"field %s: %d values, want %d (%s)", f.Name, len(f.Data), want, f.Class)
	}
	return nil
}

// Geometry is one named particle set. Bond geometries read their
// endpoint positions from the reference geometry.
type Geometry struct {
	Name         string
	Shape        ShapeKind
	Count        int
	Fields       map[string]*Field
	RefGeometry  string
	MaxNeighbors int
}

func (g *Geometry) Field(name string) (*Field, bool) {
	f, ok := g.Fields[name]
	return f, ok
}

// Neighbors returns the bond adjacency table, count × MaxNeighbors.
func (g *Geometry) Neighbors() ([]float32, error) {
	f, ok := g.Fields[NeighborField]
	if !ok {
		return nil, diag.Errorf(diag.MissingField, "geometry %s: no %s", g.Name, NeighborField)
	}
	if want := g.Count * g.MaxNeighbors; len(f.Data) != want {
		return nil, diag.Errorf(diag.MissingArrayPayload,
			"geometry %s: neighbor table has %d entries, want %d", g.Name, len(f.Data), want)
	}
	return f.Data, nil
}

// Table is the loaded scene: write-once by the loader, then read-only.
type Table struct {
	Meta       *Metadata
	Geometries []*Geometry
}

func (t *Table) Geometry(name string) (*Geometry, error) {
	for _, g := range t.Geometries {
		if g.Name == name {
			return g, nil
		}
	}
	return nil, fmt.Errorf("scene: no geometry %q", name)
}
