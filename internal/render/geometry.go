package render

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/san-kum/trajview/internal/config"
	"github.com/san-kum/trajview/internal/diag"
	"github.com/san-kum/trajview/internal/mesh"
	"github.com/san-kum/trajview/internal/scene"
)

// Attribute locations shared by both draw paths.
const (
	attrVert   = 0
	attrNormal = 1
	attrOffset = 2
	attrSize   = 3
	attrColor  = 4
	attrAngle  = 5
)

const (
	diskSegments    = 32
	sphereHSegments = 16
	sphereVSegments = 12
)

// geomState is the GPU residency of one geometry: base mesh buffers
// for particle shapes, worst-case scratch buffers for bonds, and one
// vertex buffer per non-Global field.
type geomState struct {
	geom *scene.Geometry
	ref  *scene.Geometry // bond endpoint source

	vao         uint32
	meshVBO     uint32
	meshNormVBO uint32
	meshCount   int32

	fieldVBO map[string]uint32

	builder     *mesh.BondBuilder
	neighbors   []float32
	diameter    float32
	bondVBO     uint32
	bondNormVBO uint32
}

// newGeomState uploads the static base mesh, allocates field buffers
// (static usage for Static fields, streaming for Dynamic) and, for a
// Bond geometry, vertex and normal buffers pre-sized for the
// theoretical maximum count×maxNeighbors segment load. Returns nil
// when the geometry cannot be drawn; the reason lands in the log.
func newGeomState(g *scene.Geometry, table *scene.Table, cfg *config.Config, log *diag.Log) *geomState {
	st := &geomState{geom: g, fieldVBO: make(map[string]uint32)}
	gl.GenVertexArrays(1, &st.vao)
	gl.BindVertexArray(st.vao)

	switch g.Shape {
	case scene.ShapeDisk:
		st.uploadMesh(mesh.Disk(diskSegments, 0.5))
	case scene.ShapeSphere:
		if table.Meta.Dimension != 3 {
			log.Append(diag.InvalidDimension, "geometry %s: sphere mesh in %dD scene", g.Name, table.Meta.Dimension)
			return nil
		}
		st.uploadMesh(mesh.Sphere(sphereHSegments, sphereVSegments, 0.5))
	case scene.ShapeBond:
		ref, err := table.Geometry(g.RefGeometry)
		if err != nil {
			log.Append(diag.MissingField, "geometry %s: reference geometry %q not loaded", g.Name, g.RefGeometry)
			return nil
		}
		neighbors, err := g.Neighbors()
		if err != nil {
			log.Report(err, diag.MissingField)
			return nil
		}
		st.ref = ref
		st.neighbors = neighbors
		st.builder = mesh.NewBondBuilder(g.Count, g.MaxNeighbors, cfg.Bond.Segments)

		d, ok := bondDiameter(g, cfg.Bond.Diameter)
		if !ok {
			log.Append(diag.UnknownStorageClass,
				"geometry %s: diameter must be global, using default %g", g.Name, cfg.Bond.Diameter)
		}
		st.diameter = d

		capBytes := st.builder.Capacity() * 3 * 4
		gl.GenBuffers(1, &st.bondVBO)
		gl.BindBuffer(gl.ARRAY_BUFFER, st.bondVBO)
		gl.BufferData(gl.ARRAY_BUFFER, capBytes, nil, gl.STREAM_DRAW)
		gl.GenBuffers(1, &st.bondNormVBO)
		gl.BindBuffer(gl.ARRAY_BUFFER, st.bondNormVBO)
		gl.BufferData(gl.ARRAY_BUFFER, capBytes, nil, gl.STREAM_DRAW)
		return st
	}

	for name, f := range g.Fields {
		// Globals bind as constants and the bond adjacency table never
		// reaches the GPU at all.
		if f.Class == scene.Global || name == scene.NeighborField {
			continue
		}
		var vbo uint32
		gl.GenBuffers(1, &vbo)
		gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
		if f.Class == scene.Static {
			gl.BufferData(gl.ARRAY_BUFFER, len(f.Data)*4, gl.Ptr(f.Data), gl.STATIC_DRAW)
		} else {
			gl.BufferData(gl.ARRAY_BUFFER, g.Count*f.Components*4, nil, gl.STREAM_DRAW)
		}
		st.fieldVBO[name] = vbo
	}
	return st
}

func (st *geomState) uploadMesh(m mesh.Mesh) {
	st.meshCount = int32(m.VertexCount)
	gl.GenBuffers(1, &st.meshVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, st.meshVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*4, gl.Ptr(m.Vertices), gl.STATIC_DRAW)
	if m.Normals != nil {
		gl.GenBuffers(1, &st.meshNormVBO)
		gl.BindBuffer(gl.ARRAY_BUFFER, st.meshNormVBO)
		gl.BufferData(gl.ARRAY_BUFFER, len(m.Normals)*4, gl.Ptr(m.Normals), gl.STATIC_DRAW)
	}
}

// BondUploader pushes a frame's rebuilt bond mesh to the GPU. The
// default re-uploads the full scratch contents; a delta-on-topology-
// change strategy can replace it behind the same contract.
type BondUploader interface {
	Upload(vbo, normVBO uint32, verts, norms []float32)
}

type FullReupload struct{}

func (FullReupload) Upload(vbo, normVBO uint32, verts, norms []float32) {
	if len(verts) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(verts)*4, gl.Ptr(verts))
	gl.BindBuffer(gl.ARRAY_BUFFER, normVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(norms)*4, gl.Ptr(norms))
}

func bindArray(loc uint32, vbo uint32, comps int32, divisor uint32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.EnableVertexAttribArray(loc)
	gl.VertexAttribPointer(loc, comps, gl.FLOAT, false, 0, nil)
	gl.VertexAttribDivisor(loc, divisor)
}

func constant1(loc uint32, v float32) {
	gl.DisableVertexAttribArray(loc)
	gl.VertexAttrib1f(loc, v)
}

func constant3(loc uint32, x, y, z float32) {
	gl.DisableVertexAttribArray(loc)
	gl.VertexAttrib3f(loc, x, y, z)
}
