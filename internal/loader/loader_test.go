package loader

import (
	"context"
	"fmt"
	"testing"

	"github.com/san-kum/trajview/internal/diag"
	"github.com/san-kum/trajview/internal/host"
	"github.com/san-kum/trajview/internal/scene"
	"github.com/san-kum/trajview/internal/wire"
)

// fakeHost serves scripted metadata and synthesized arrays while
// recording every call in order.
type fakeHost struct {
	meta  *host.Metadata
	geoms map[string]*host.GeometryMeta
	data  map[string][]float32 // key geom/field, full frame-major array
	calls []string
}

func (f *fakeHost) SimulationMetadata(ctx context.Context) (*host.Metadata, error) {
	f.calls = append(f.calls, "metadata")
	return f.meta, nil
}

func (f *fakeHost) GeometryMetadata(ctx context.Context, name string) (*host.GeometryMeta, error) {
	f.calls = append(f.calls, "geometry:"+name)
	g, ok := f.geoms[name]
	if !ok {
		return nil, fmt.Errorf("no geometry %s", name)
	}
	return g, nil
}

func (f *fakeHost) Array(ctx context.Context, name, field string) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf("array:%s/%s", name, field))
	vals, ok := f.data[name+"/"+field]
	if !ok {
		return "", fmt.Errorf("no array %s/%s", name, field)
	}
	return wire.EncodeFloat32(vals), nil
}

func (f *fakeHost) ArrayChunk(ctx context.Context, name, field string, off, n int) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf("chunk:%s/%s:%d+%d", name, field, off, n))
	vals, ok := f.data[name+"/"+field]
	if !ok {
		return "", fmt.Errorf("no array %s/%s", name, field)
	}
	stride := len(vals) / f.meta.FrameCount
	return wire.EncodeFloat32(vals[off*stride : (off+n)*stride]), nil
}

func testHost() *fakeHost {
	const frames, count, dim = 23, 5, 3
	pos := make([]float32, frames*count*dim)
	for i := range pos {
		pos[i] = float32(i)
	}
	return &fakeHost{
		meta: &host.Metadata{
			BoxSize:    []float32{10, 10, 10},
			Dimension:  dim,
			FrameCount: frames,
			ChunkSize:  7,
			Geometry:   []string{"atoms"},
		},
		geoms: map[string]*host.GeometryMeta{
			"atoms": {
				Shape: "Sphere",
				Count: count,
				Fields: map[string]string{
					"position": "dynamic",
					"size":     "static",
					"color":    "global",
				},
			},
		},
		data: map[string][]float32{
			"atoms/position": pos,
			"atoms/size":     {1, 2, 3, 4, 5},
			"atoms/color":    {0.2, 0.4, 0.6},
		},
	}
}

func TestRun_ChunkBoundaries(t *testing.T) {
	fh := testHost()
	s := New(fh, &diag.Log{})
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !s.Loaded() {
		t.Fatal("session not marked loaded")
	}

	// 23 frames at chunk size 7: offsets 0, 7, 14, 21.
	wantChunks := []string{
		"chunk:atoms/position:0+7",
		"chunk:atoms/position:7+7",
		"chunk:atoms/position:14+7",
		"chunk:atoms/position:21+2",
	}
	var gotChunks []string
	for _, c := range fh.calls {
		if len(c) > 5 && c[:5] == "chunk" {
			gotChunks = append(gotChunks, c)
		}
	}
	if len(gotChunks) != len(wantChunks) {
		t.Fatalf("chunk calls = %v", gotChunks)
	}
	for i := range wantChunks {
		if gotChunks[i] != wantChunks[i] {
			t.Errorf("chunk[%d] = %s, want %s", i, gotChunks[i], wantChunks[i])
		}
	}

	g, err := s.Table().Geometry("atoms")
	if err != nil {
		t.Fatal(err)
	}
	pos := g.Fields["position"]
	if len(pos.Data) != 23*5*3 {
		t.Fatalf("dynamic length = %d, want %d", len(pos.Data), 23*5*3)
	}
	// No gaps or overlap: the array must be the identity ramp.
	for i, v := range pos.Data {
		if v != float32(i) {
			t.Fatalf("pos[%d] = %v, want %d", i, v, i)
		}
	}

	done, total := s.Progress()
	if done != 4 || total != 4 {
		t.Errorf("progress = %d/%d, want 4/4", done, total)
	}
}

func TestRun_RequestOrderIsSequential(t *testing.T) {
	fh := testHost()
	s := New(fh, &diag.Log{})
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fh.calls[0] != "metadata" || fh.calls[1] != "geometry:atoms" {
		t.Errorf("call order starts %v", fh.calls[:2])
	}
	// Fields load alphabetically: color, position (4 chunks), size.
	want := []string{"array:atoms/color", "chunk:atoms/position:0+7", "array:atoms/size"}
	if fh.calls[2] != want[0] || fh.calls[3] != want[1] || fh.calls[7] != want[2] {
		t.Errorf("calls = %v", fh.calls)
	}
}

func TestRun_ComponentCounts(t *testing.T) {
	fh := testHost()
	s := New(fh, &diag.Log{})
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	g, _ := s.Table().Geometry("atoms")

	tests := []struct {
		field string
		comps int
	}{
		{"position", 3},
		{"color", 3},
		{"size", 1},
	}
	for _, tt := range tests {
		f, ok := g.Field(tt.field)
		if !ok {
			t.Fatalf("field %s missing", tt.field)
		}
		if f.Components != tt.comps {
			t.Errorf("%s components = %d, want %d", tt.field, f.Components, tt.comps)
		}
	}
}

func TestRun_MissingBoxIsNonFatal(t *testing.T) {
	fh := testHost()
	fh.meta.BoxSize = nil
	log := &diag.Log{}
	s := New(fh, log)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("missing box must not abort: %v", err)
	}
	found := false
	for _, e := range log.Entries() {
		if e.Kind == diag.MissingField {
			found = true
		}
	}
	if !found {
		t.Error("missing box_size not logged")
	}
	if _, err := s.Table().Geometry("atoms"); err != nil {
		t.Error("geometries should still load without box extents")
	}
}

func TestRun_InvalidDimension(t *testing.T) {
	fh := testHost()
	fh.meta.Dimension = 5
	log := &diag.Log{}
	s := New(fh, log)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("invalid dimension must be non-fatal: %v", err)
	}
	if !s.Loaded() {
		t.Error("session should finish loaded with partial state")
	}
	if len(s.Table().Geometries) != 0 {
		t.Error("no geometries should load without valid metadata")
	}
	found := false
	for _, e := range log.Entries() {
		if e.Kind == diag.InvalidDimension {
			found = true
		}
	}
	if !found {
		t.Error("invalid dimension not logged")
	}
}

func TestRun_UnknownStorageClassSkipsField(t *testing.T) {
	fh := testHost()
	fh.geoms["atoms"].Fields["size"] = "volatile"
	log := &diag.Log{}
	s := New(fh, log)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	g, _ := s.Table().Geometry("atoms")
	if _, ok := g.Field("size"); ok {
		t.Error("field with unknown storage class must be skipped")
	}
	if _, ok := g.Field("position"); !ok {
		t.Error("remaining fields must still load")
	}
	found := false
	for _, e := range log.Entries() {
		if e.Kind == diag.UnknownStorageClass {
			found = true
		}
	}
	if !found {
		t.Error("unknown storage class not logged")
	}
}

func TestRun_BondNeighborComponents(t *testing.T) {
	fh := testHost()
	fh.meta.Geometry = append(fh.meta.Geometry, "bonds")
	fh.geoms["bonds"] = &host.GeometryMeta{
		Shape:             "Bond",
		Count:             5,
		ReferenceGeometry: "atoms",
		MaxNeighbors:      4,
		Fields: map[string]string{
			scene.NeighborField: "static",
			"diameter":          "global",
		},
	}
	neighbors := make([]float32, 5*4)
	fh.data["bonds/"+scene.NeighborField] = neighbors
	fh.data["bonds/diameter"] = []float32{0.3}

	s := New(fh, &diag.Log{})
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	g, err := s.Table().Geometry("bonds")
	if err != nil {
		t.Fatal(err)
	}
	f, ok := g.Field(scene.NeighborField)
	if !ok {
		t.Fatal("neighbor table missing")
	}
	if f.Components != 4 {
		t.Errorf("neighbor components = %d, want max_neighbors 4", f.Components)
	}
	if _, err := g.Neighbors(); err != nil {
		t.Errorf("Neighbors() = %v", err)
	}
	if g.RefGeometry != "atoms" {
		t.Errorf("reference geometry = %q", g.RefGeometry)
	}
}
