package render

import "github.com/san-kum/trajview/internal/scene"

// AttrSource says how a per-field attribute reaches the shader: a
// baked-in default constant when the geometry lacks the field, the
// field's constant(s) when it is Global, or a per-instance vertex
// attribute otherwise (re-uploading the current frame's slice first
// when the field is Dynamic).
type AttrSource int

const (
	AttrDefault AttrSource = iota
	AttrGlobal
	AttrPerInstance
)

func ResolveAttr(g *scene.Geometry, name string) AttrSource {
	f, ok := g.Fields[name]
	if !ok {
		return AttrDefault
	}
	if f.Class == scene.Global {
		return AttrGlobal
	}
	return AttrPerInstance
}

// NeedsFrameUpload reports whether an attribute's buffer must be
// refreshed with the current frame's slice before drawing.
func NeedsFrameUpload(g *scene.Geometry, name string) bool {
	f, ok := g.Fields[name]
	return ok && f.Class == scene.Dynamic
}

// bondColor resolves the flat color of a bond mesh. The bond draw is
// not instanced, so only a Global color can apply; per-particle color
// classes fall back to the default.
func bondColor(g *scene.Geometry) [3]float32 {
	f, ok := g.Fields["color"]
	if !ok || f.Class != scene.Global || len(f.Data) < 3 {
		return [3]float32{0.6, 0.6, 0.6}
	}
	return [3]float32{f.Data[0], f.Data[1], f.Data[2]}
}

// bondDiameter resolves the cylinder diameter. Only a Global diameter
// field carries a single whole-geometry value; for any other class the
// configured default applies and ok reports false so the caller can
// log it once.
func bondDiameter(g *scene.Geometry, def float32) (d float32, ok bool) {
	f, present := g.Fields["diameter"]
	if !present {
		return def, true
	}
	if f.Class != scene.Global || len(f.Data) == 0 {
		return def, false
	}
	return f.Data[0], true
}
