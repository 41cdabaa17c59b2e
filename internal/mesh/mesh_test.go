package mesh

import (
	"math"
	"testing"
)

func TestDisk(t *testing.T) {
	m := Disk(12, 0.5)

	if m.VertexCount != 12*3 {
		t.Fatalf("vertex count = %d, want %d", m.VertexCount, 12*3)
	}
	if len(m.Vertices) != m.VertexCount*3 {
		t.Fatalf("vertex array length = %d", len(m.Vertices))
	}
	if m.Normals != nil {
		t.Error("disk should have no normals")
	}

	// Every triangle fans out from the origin.
	for s := 0; s < 12; s++ {
		base := s * 9
		if m.Vertices[base] != 0 || m.Vertices[base+1] != 0 || m.Vertices[base+2] != 0 {
			t.Fatalf("triangle %d does not start at origin", s)
		}
	}

	// Rim vertices sit on the radius, in the 2D plane.
	for s := 0; s < 12; s++ {
		for _, v := range []int{s*9 + 3, s*9 + 6} {
			x, y, z := m.Vertices[v], m.Vertices[v+1], m.Vertices[v+2]
			if z != 0 {
				t.Fatal("disk vertex left the plane")
			}
			r := math.Sqrt(float64(x*x + y*y))
			if math.Abs(r-0.5) > 1e-6 {
				t.Fatalf("rim radius = %v, want 0.5", r)
			}
		}
	}
}

func TestSphere(t *testing.T) {
	m := Sphere(8, 6, 2.0)

	if m.VertexCount != 8*6*6 {
		t.Fatalf("vertex count = %d, want %d", m.VertexCount, 8*6*6)
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Fatal("sphere needs one normal per vertex")
	}

	for i := 0; i < m.VertexCount; i++ {
		x, y, z := float64(m.Vertices[i*3]), float64(m.Vertices[i*3+1]), float64(m.Vertices[i*3+2])
		if r := math.Sqrt(x*x + y*y + z*z); math.Abs(r-2.0) > 1e-5 {
			t.Fatalf("vertex %d radius = %v", i, r)
		}
		nx, ny, nz := float64(m.Normals[i*3]), float64(m.Normals[i*3+1]), float64(m.Normals[i*3+2])
		if l := math.Sqrt(nx*nx + ny*ny + nz*nz); math.Abs(l-1.0) > 1e-5 {
			t.Fatalf("normal %d length = %v", i, l)
		}
		// Outward: normal equals position normalized.
		if math.Abs(nx-x/2) > 1e-5 || math.Abs(ny-y/2) > 1e-5 || math.Abs(nz-z/2) > 1e-5 {
			t.Fatalf("normal %d not radial", i)
		}
	}
}

func TestGeneratorsDeterministic(t *testing.T) {
	a, b := Disk(16, 1.0), Disk(16, 1.0)
	for i := range a.Vertices {
		if a.Vertices[i] != b.Vertices[i] {
			t.Fatal("disk generator not deterministic")
		}
	}

	sa, sb := Sphere(10, 8, 0.7), Sphere(10, 8, 0.7)
	for i := range sa.Vertices {
		if sa.Vertices[i] != sb.Vertices[i] || sa.Normals[i] != sb.Normals[i] {
			t.Fatal("sphere generator not deterministic")
		}
	}
}

// symmetric 2-particle adjacency: 0 and 1 bonded, slots padded with
// self indices.
func twoParticleTable() []float32 {
	return []float32{
		1, 0, // particle 0: slot marks neighbor 1 (1 >= 0, skipped), pad 0
		0, 1, // particle 1: neighbor 0 (0 < 1, emitted), pad 1
	}
}

func TestBondBuilder_EmitOnce(t *testing.T) {
	b := NewBondBuilder(2, 2, 0)
	pos := []float32{0, 0, 0, 2, 0, 0}

	verts, norms, n := b.Build(pos, 3, twoParticleTable(), 2, 2, 0.2, []float32{10, 10, 10})

	// Exactly one bond: segments × 6 vertices.
	if n != DefaultBondSegments*6 {
		t.Fatalf("vertex count = %d, want %d", n, DefaultBondSegments*6)
	}
	if len(verts) != n*3 || len(norms) != n*3 {
		t.Fatalf("slice lengths %d/%d for %d vertices", len(verts), len(norms), n)
	}

	// All vertices lie within the bond radius of the segment x∈[0,2].
	for i := 0; i < n; i++ {
		x := verts[i*3]
		if x < -1e-6 || x > 2+1e-6 {
			t.Fatalf("vertex %d at x=%v outside bond span", i, x)
		}
		y, z := float64(verts[i*3+1]), float64(verts[i*3+2])
		if r := math.Sqrt(y*y + z*z); r > 0.1+1e-5 {
			t.Fatalf("vertex %d at radial distance %v, want <= 0.1", i, r)
		}
	}
}

func TestBondBuilder_SelfAndUnusedSlotsSkipped(t *testing.T) {
	b := NewBondBuilder(3, 2, 3)
	pos := []float32{0, 0, 0, 1, 0, 0, 2, 0, 0}
	// Every slot points at itself or a higher index: nothing to draw.
	table := []float32{0, 1, 1, 2, 2, 2}

	_, _, n := b.Build(pos, 3, table, 3, 2, 0.2, nil)
	if n != 0 {
		t.Errorf("vertex count = %d, want 0", n)
	}
}

func TestBondBuilder_WrapRejection(t *testing.T) {
	box := []float32{10, 10, 10}
	b := NewBondBuilder(2, 2, 3)
	table := twoParticleTable()

	// Displacement 6 along X exceeds half the box extent: rejected.
	far := []float32{0, 0, 0, 6, 0, 0}
	if _, _, n := b.Build(far, 3, table, 2, 2, 0.2, box); n != 0 {
		t.Errorf("wrap artifact drawn: %d vertices", n)
	}

	// Displacement 4 along X is accepted and rendered.
	near := []float32{0, 0, 0, 4, 0, 0}
	if _, _, n := b.Build(near, 3, table, 2, 2, 0.2, box); n != 3*6 {
		t.Errorf("legitimate bond not drawn: %d vertices", n)
	}
}

func TestBondBuilder_2D(t *testing.T) {
	b := NewBondBuilder(2, 1, 3)
	pos := []float32{1, 1, 3, 1}
	table := []float32{1, 0}

	verts, _, n := b.Build(pos, 2, table, 2, 1, 0.4, []float32{20, 20})
	if n != 18 {
		t.Fatalf("vertex count = %d, want 18", n)
	}
	for i := 0; i < n; i++ {
		if x := verts[i*3]; x < 1-1e-6 || x > 3+1e-6 {
			t.Fatalf("vertex x=%v outside [1,3]", x)
		}
	}
}

func TestBondBuilder_VerticalAxisFallback(t *testing.T) {
	// Bond parallel to the z seed vector must fall back to the second
	// seed instead of producing NaNs.
	b := NewBondBuilder(2, 1, 3)
	pos := []float32{0, 0, 0, 0, 0, 2}
	table := []float32{1, 0}

	verts, norms, n := b.Build(pos, 3, table, 2, 1, 0.2, nil)
	if n != 18 {
		t.Fatalf("vertex count = %d", n)
	}
	for i := range verts {
		if math.IsNaN(float64(verts[i])) || math.IsNaN(float64(norms[i])) {
			t.Fatal("degenerate basis produced NaN")
		}
	}
}

func TestBondBuilder_CountDrivesDrawNotCapacity(t *testing.T) {
	b := NewBondBuilder(8, 4, 3)
	if b.Capacity() != 8*4*3*6 {
		t.Fatalf("capacity = %d", b.Capacity())
	}

	pos := []float32{0, 0, 0, 2, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	table := make([]float32, 8*4)
	for i := range table {
		table[i] = float32(i / 4) // self slots everywhere
	}
	table[4] = 0 // particle 1 bonds particle 0
	table[8] = 0 // particle 2 bonds particle 0

	_, _, n := b.Build(pos, 3, table, 8, 4, 0.2, nil)
	if n != 2*3*6 {
		t.Errorf("vertex count = %d, want %d", n, 2*3*6)
	}
}

func TestBondBuilder_Deterministic(t *testing.T) {
	pos := []float32{0, 0, 0, 1.5, 0.5, -0.5}
	table := twoParticleTable()

	b1 := NewBondBuilder(2, 2, 3)
	b2 := NewBondBuilder(2, 2, 3)
	v1, n1, c1 := b1.Build(pos, 3, table, 2, 2, 0.3, nil)
	v2, n2, c2 := b2.Build(pos, 3, table, 2, 2, 0.3, nil)

	if c1 != c2 {
		t.Fatalf("counts differ: %d vs %d", c1, c2)
	}
	for i := range v1 {
		if v1[i] != v2[i] || n1[i] != n2[i] {
			t.Fatal("bond builder not deterministic")
		}
	}
}
