// Package host speaks the simulation-host RPC surface: one metadata
// call, one geometry-descriptor call per geometry, and array fetches
// whose payloads are base64-wrapped little-endian float32 blobs.
//
// Implementations: WSClient (websocket round trips to a live host), Dir
// (a recorded trajectory directory, used for offline playback and
// tests) and Serial (a capacity-1 guard enforcing the one-outstanding-
// request invariant structurally).
package host

import (
	"context"
	"time"
)

// Metadata is the wire form of GetSimulationMetadata.
type Metadata struct {
	BoxSize         []float32 `json:"box_size,omitempty"`
	Dimension       int       `json:"dimension"`
	FrameCount      int       `json:"frame_count"`
	SimulationIdx   int       `json:"simulation_idx"`
	ChunkSize       int       `json:"chunk_size,omitempty"`
	BackgroundColor []float32 `json:"background_color,omitempty"`
	Resolution      []int     `json:"resolution,omitempty"`
	Geometry        []string  `json:"geometry,omitempty"`
}

// GeometryMeta is the wire form of GetGeometryMetadata.
type GeometryMeta struct {
	Shape             string            `json:"shape"`
	Count             int               `json:"count"`
	Fields            map[string]string `json:"fields"`
	ReferenceGeometry string            `json:"reference_geometry,omitempty"`
	MaxNeighbors      int               `json:"max_neighbors,omitempty"`
}

// Host is the RPC contract consumed by the loader. Array payloads are
// returned still base64-encoded; decoding is the loader's job. Every
// request is attempted exactly once; cancellation and deadlines come
// from the context.
type Host interface {
	SimulationMetadata(ctx context.Context) (*Metadata, error)
	GeometryMetadata(ctx context.Context, name string) (*GeometryMeta, error)
	Array(ctx context.Context, name, field string) (string, error)
	ArrayChunk(ctx context.Context, name, field string, frameOffset, frameCount int) (string, error)
}

// Serial wraps a Host with a capacity-1 slot so that at most one
// request is outstanding at any time, across all callers.
type Serial struct {
	inner Host
	slot  chan struct{}
}

func NewSerial(h Host) *Serial {
	return &Serial{inner: h, slot: make(chan struct{}, 1)}
}

func (s *Serial) acquire(ctx context.Context) error {
	select {
	case s.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Serial) release() { <-s.slot }

func (s *Serial) SimulationMetadata(ctx context.Context) (*Metadata, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()
	return s.inner.SimulationMetadata(ctx)
}

func (s *Serial) GeometryMetadata(ctx context.Context, name string) (*GeometryMeta, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()
	return s.inner.GeometryMetadata(ctx, name)
}

func (s *Serial) Array(ctx context.Context, name, field string) (string, error) {
	if err := s.acquire(ctx); err != nil {
		return "", err
	}
	defer s.release()
	return s.inner.Array(ctx, name, field)
}

func (s *Serial) ArrayChunk(ctx context.Context, name, field string, frameOffset, frameCount int) (string, error) {
	if err := s.acquire(ctx); err != nil {
		return "", err
	}
	defer s.release()
	return s.inner.ArrayChunk(ctx, name, field, frameOffset, frameCount)
}

// Timeout wraps a Host with a per-request deadline. A zero duration
// passes contexts through unchanged.
type Timeout struct {
	inner Host
	d     time.Duration
}

func WithTimeout(h Host, d time.Duration) Host {
	if d <= 0 {
		return h
	}
	return &Timeout{inner: h, d: d}
}

func (t *Timeout) SimulationMetadata(ctx context.Context) (*Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.SimulationMetadata(ctx)
}

func (t *Timeout) GeometryMetadata(ctx context.Context, name string) (*GeometryMeta, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.GeometryMetadata(ctx, name)
}

func (t *Timeout) Array(ctx context.Context, name, field string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.Array(ctx, name, field)
}

func (t *Timeout) ArrayChunk(ctx context.Context, name, field string, frameOffset, frameCount int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.ArrayChunk(ctx, name, field, frameOffset, frameCount)
}
