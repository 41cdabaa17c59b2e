// Package mesh builds the canonical particle meshes and the per-frame
// bond geometry. Generators are pure: identical parameters give
// bit-identical arrays, and their output is shared read-only across
// all instances of a shape for the life of the session.
package mesh

import "math"

// Mesh is a static vertex array, three components per vertex, with
// optional per-vertex normals.
type Mesh struct {
	Vertices    []float32
	Normals     []float32
	VertexCount int
}

// Disk is a triangle fan of `segments` triangles sharing an implicit
// center vertex at the origin, in the 2D plane (z = 0). No normals.
func Disk(segments int, radius float32) Mesh {
	verts := make([]float32, 0, segments*3*3)
	for s := 0; s < segments; s++ {
		a0 := 2 * math.Pi * float64(s) / float64(segments)
		a1 := 2 * math.Pi * float64(s+1) / float64(segments)
		verts = append(verts,
			0, 0, 0,
			radius*float32(math.Cos(a0)), radius*float32(math.Sin(a0)), 0,
			radius*float32(math.Cos(a1)), radius*float32(math.Sin(a1)), 0,
		)
	}
	return Mesh{Vertices: verts, VertexCount: segments * 3}
}

// Sphere is a latitude/longitude grid with each quad cell split into
// two triangles. The per-vertex normal is the vertex position
// normalized, valid because the sphere is centered at the origin.
func Sphere(hSegments, vSegments int, radius float32) Mesh {
	point := func(x, y int) (float32, float32, float32) {
		theta := 2 * math.Pi * float64(x) / float64(hSegments)
		phi := math.Pi * float64(y) / float64(vSegments)
		return radius * float32(math.Sin(phi)*math.Cos(theta)),
			radius * float32(math.Cos(phi)),
			radius * float32(math.Sin(phi)*math.Sin(theta))
	}

	cells := hSegments * vSegments
	verts := make([]float32, 0, cells*6*3)
	norms := make([]float32, 0, cells*6*3)

	emit := func(x, y int) {
		px, py, pz := point(x, y)
		verts = append(verts, px, py, pz)
		norms = append(norms, px/radius, py/radius, pz/radius)
	}

	for y := 0; y < vSegments; y++ {
		for x := 0; x < hSegments; x++ {
			emit(x, y)
			emit(x+1, y)
			emit(x, y+1)
			emit(x, y+1)
			emit(x+1, y)
			emit(x+1, y+1)
		}
	}
	return Mesh{Vertices: verts, Normals: norms, VertexCount: cells * 6}
}
