// Package loader fills a scene.Table from a host, strictly in
// sequence: one metadata round trip, then per geometry the descriptor
// and every declared field, dynamic fields in bounded chunks of
// chunk_size frames. At most one request is ever outstanding; total
// load latency is the sum of the individual round trips.
package loader

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/san-kum/trajview/internal/diag"
	"github.com/san-kum/trajview/internal/host"
	"github.com/san-kum/trajview/internal/scene"
	"github.com/san-kum/trajview/internal/wire"
)

// Session owns one load. The table it builds is written only by Run;
// readers must check Loaded first, so no locking is needed on the
// table itself.
type Session struct {
	host  host.Host
	log   *diag.Log
	table *scene.Table

	loaded     atomic.Bool
	chunksDone atomic.Int64
	chunksAll  atomic.Int64
}

func New(h host.Host, log *diag.Log) *Session {
	return &Session{
		host:  host.NewSerial(h),
		log:   log,
		table: &scene.Table{},
	}
}

// Loaded reports whether the whole load sequence has finished. The
// renderer polls this and idles until it flips.
func (s *Session) Loaded() bool { return s.loaded.Load() }

// Table returns the scene. Callers must treat it as read-only and, off
// the loader goroutine, only touch it once Loaded reports true.
func (s *Session) Table() *scene.Table { return s.table }

// Progress returns dynamic-field chunks fetched and discovered so far.
func (s *Session) Progress() (done, total int64) {
	return s.chunksDone.Load(), s.chunksAll.Load()
}

// Run executes the full load sequence. Transport failures on the first
// metadata round trip are fatal; data-level problems are logged and
// skipped per the partial-state policy.
func (s *Session) Run(ctx context.Context) error {
	meta, err := s.loadMetadata(ctx)
	if err != nil {
		return err
	}
	if meta != nil {
		for _, name := range meta.GeometryNames {
			s.loadGeometry(ctx, name)
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	s.loaded.Store(true)
	return nil
}

func (s *Session) loadMetadata(ctx context.Context) (*scene.Metadata, error) {
	wm, err := s.host.SimulationMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("loader: metadata: %w", err)
	}

	meta := &scene.Metadata{
		Dimension:     wm.Dimension,
		BoxSize:       wm.BoxSize,
		FrameCount:    wm.FrameCount,
		SimulationIdx: wm.SimulationIdx,
		ChunkSize:     wm.ChunkSize,
		GeometryNames: wm.Geometry,
	}
	if meta.ChunkSize <= 0 {
		meta.ChunkSize = meta.FrameCount
	}
	if len(wm.BackgroundColor) == 3 {
		copy(meta.Background[:], wm.BackgroundColor)
		meta.HasBackground = true
	}
	if len(wm.Resolution) == 2 {
		meta.Resolution = [2]int{wm.Resolution[0], wm.Resolution[1]}
		meta.HasResolution = true
	}

	if err := meta.Validate(); err != nil {
		s.log.Report(err, diag.MissingField)
		return nil, nil
	}
	if len(meta.BoxSize) == 0 {
		// Non-fatal: camera falls back to defaults, bonds lose the
		// wrap heuristic.
		s.log.Append(diag.MissingField, "metadata lacks box_size")
	}
	s.table.Meta = meta
	return meta, nil
}

func (s *Session) loadGeometry(ctx context.Context, name string) {
	meta := s.table.Meta
	gm, err := s.host.GeometryMetadata(ctx, name)
	if err != nil {
		s.log.Report(err, diag.MissingField)
		return
	}
	if gm.Shape == "" {
		s.log.Append(diag.MissingField, "geometry %s: no shape", name)
		return
	}
	shape, err := scene.ParseShapeKind(gm.Shape)
	if err != nil {
		s.log.Report(err, diag.MissingField)
		return
	}

	g := &scene.Geometry{
		Name:         name,
		Shape:        shape,
		Count:        gm.Count,
		Fields:       make(map[string]*scene.Field),
		RefGeometry:  gm.ReferenceGeometry,
		MaxNeighbors: gm.MaxNeighbors,
	}

	// Deterministic load order regardless of map iteration.
	names := make([]string, 0, len(gm.Fields))
	for f := range gm.Fields {
		names = append(names, f)
	}
	sort.Strings(names)

	for _, fieldName := range names {
		class, err := scene.ParseStorageClass(gm.Fields[fieldName])
		if err != nil {
			s.log.Report(err, diag.UnknownStorageClass)
			continue
		}
		field := s.loadField(ctx, g, fieldName, class)
		if field == nil {
			continue
		}
		if err := field.CheckLength(meta.FrameCount, g.Count); err != nil {
			s.log.Report(err, diag.MissingArrayPayload)
			continue
		}
		g.Fields[fieldName] = field
	}

	s.table.Geometries = append(s.table.Geometries, g)
}

func (s *Session) loadField(ctx context.Context, g *scene.Geometry, name string, class scene.StorageClass) *scene.Field {
	meta := s.table.Meta
	comps := scene.Components(name, meta.Dimension)
	if g.Shape == scene.ShapeBond && name == scene.NeighborField {
		comps = g.MaxNeighbors
	}
	field := &scene.Field{Name: name, Class: class, Components: comps}

	switch class {
	case scene.Dynamic:
		data, ok := s.loadDynamicArray(ctx, g.Name, name, g.Count, comps)
		if !ok {
			return nil
		}
		field.Data = data
	default:
		blob, err := s.host.Array(ctx, g.Name, name)
		if err != nil {
			s.log.Report(err, diag.MissingArrayPayload)
			return nil
		}
		vals, err := wire.DecodeFloat32(blob)
		if err != nil {
			s.log.Report(err, diag.MissingArrayPayload)
			return nil
		}
		field.Data = vals
	}
	return field
}

// loadDynamicArray allocates the full frame_count×count×components
// array up front and fills it with sequential chunk requests. The
// final chunk is shorter whenever frame_count is not a multiple of
// chunk_size.
func (s *Session) loadDynamicArray(ctx context.Context, geom, field string, count, comps int) ([]float32, bool) {
	meta := s.table.Meta
	frames := meta.FrameCount
	chunk := meta.ChunkSize
	stride := count * comps

	s.chunksAll.Add(int64((frames + chunk - 1) / chunk))
	data := make([]float32, frames*stride)

	for off := 0; off < frames; off += chunk {
		n := chunk
		if off+n > frames {
			n = frames - off
		}
		blob, err := s.host.ArrayChunk(ctx, geom, field, off, n)
		if err != nil {
			s.log.Report(err, diag.MissingArrayPayload)
			return nil, false
		}
		vals, err := wire.DecodeFloat32(blob)
		if err != nil {
			s.log.Report(err, diag.MissingArrayPayload)
			return nil, false
		}
		if len(vals) != n*stride {
			s.log.Append(diag.MissingArrayPayload,
				"%s/%s: chunk at frame %d has %d values, want %d", geom, field, off, len(vals), n*stride)
			return nil, false
		}
		copy(data[off*stride:], vals)
		s.chunksDone.Add(1)
	}
	return data, true
}
