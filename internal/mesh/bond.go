package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultBondSegments is the circular segment count of a bond
// cylinder. Three flat sides are enough at typical bond diameters.
const DefaultBondSegments = 3

// BondBuilder rebuilds bond cylinder geometry every frame from live
// positions and a neighbor table. Scratch arrays are sized once for
// the worst case (count × maxNeighbors edges) and overwritten each
// frame with only the subset actually emitted.
type BondBuilder struct {
	segments int
	verts    []float32
	norms    []float32
}

func NewBondBuilder(count, maxNeighbors, segments int) *BondBuilder {
	if segments <= 0 {
		segments = DefaultBondSegments
	}
	cap := count * maxNeighbors * segments * 6 * 3
	return &BondBuilder{
		segments: segments,
		verts:    make([]float32, cap),
		norms:    make([]float32, cap),
	}
}

// Capacity returns the scratch size in vertices, which is also the
// GPU buffer allocation size.
func (b *BondBuilder) Capacity() int { return len(b.verts) / 3 }

// Build recomputes the frame's bond mesh. positions is the reference
// geometry's current-frame slice (dim components per particle);
// neighbors is the count×maxNeighbors adjacency table. The returned
// slices alias the builder's scratch storage and are valid until the
// next Build; the vertex count, not the capacity, drives the draw
// call.
//
// A slot emits a bond only when its rounded index n satisfies n < i:
// unused and self slots are marked ≥ i by convention, and the rule
// draws each undirected edge exactly once even for a symmetric table.
// Displacements exceeding half the box extent on any axis are skipped
// as wrap-around artifacts; no minimum-image correction is applied.
func (b *BondBuilder) Build(positions []float32, dim int, neighbors []float32, count, maxNeighbors int, diameter float32, box []float32) (verts, norms []float32, n int) {
	radius := diameter / 2
	for i := 0; i < count; i++ {
		pi := particleAt(positions, i, dim)
		for j := 0; j < maxNeighbors; j++ {
			idx := int(math.Round(float64(neighbors[i*maxNeighbors+j])))
			if idx >= i || idx < 0 {
				continue
			}
			pn := particleAt(positions, idx, dim)
			if wrapArtifact(pi, pn, box, dim) {
				continue
			}
			n = b.emitCylinder(pi, pn, radius, n)
		}
	}
	return b.verts[:n*3], b.norms[:n*3], n
}

func particleAt(positions []float32, i, dim int) mgl32.Vec3 {
	p := mgl32.Vec3{positions[i*dim], positions[i*dim+1], 0}
	if dim == 3 {
		p[2] = positions[i*dim+2]
	}
	return p
}

// wrapArtifact applies the raw per-axis half-box threshold. Kept as
// the inherited approximation: it can suppress legitimate short bonds
// straddling a box face for non-cubic boxes.
func wrapArtifact(a, c mgl32.Vec3, box []float32, dim int) bool {
	for axis := 0; axis < dim && axis < len(box); axis++ {
		d := a[axis] - c[axis]
		if d < 0 {
			d = -d
		}
		if d > box[axis]/2 {
			return true
		}
	}
	return false
}

// emitCylinder writes one triangulated cylinder from p1 to p2 at
// vertex offset n and returns the new offset. The cross-section basis
// {left, up} comes from successive cross products seeded by a
// world-up vector; each side is two triangles sharing one flat face
// normal (no smoothing across segments).
func (b *BondBuilder) emitCylinder(p1, p2 mgl32.Vec3, radius float32, n int) int {
	axis := p2.Sub(p1)
	seed := mgl32.Vec3{0, 0, 1}
	left := axis.Cross(seed)
	if left.Len() < 1e-6 {
		seed = mgl32.Vec3{0, 1, 0}
		left = axis.Cross(seed)
	}
	left = left.Normalize()
	up := axis.Cross(left).Normalize()

	for s := 0; s < b.segments; s++ {
		a0 := 2 * math.Pi * float64(s) / float64(b.segments)
		a1 := 2 * math.Pi * float64(s+1) / float64(b.segments)
		o0 := left.Mul(radius * float32(math.Cos(a0))).Add(up.Mul(radius * float32(math.Sin(a0))))
		o1 := left.Mul(radius * float32(math.Cos(a1))).Add(up.Mul(radius * float32(math.Sin(a1))))
		face := o0.Add(o1).Normalize()

		corners := [6]mgl32.Vec3{
			p1.Add(o0), p2.Add(o0), p1.Add(o1),
			p1.Add(o1), p2.Add(o0), p2.Add(o1),
		}
		for _, c := range corners {
			b.verts[n*3] = c[0]
			b.verts[n*3+1] = c[1]
			b.verts[n*3+2] = c[2]
			b.norms[n*3] = face[0]
			b.norms[n*3+1] = face[1]
			b.norms[n*3+2] = face[2]
			n++
		}
	}
	return n
}
