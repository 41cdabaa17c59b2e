package host

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/san-kum/trajview/internal/diag"
)

// Dir serves a recorded trajectory directory:
//
//	<dir>/metadata.json
//	<dir>/<geometry>/geometry.json
//	<dir>/<geometry>/<field>.f32      raw little-endian float32
//
// It answers the same contract as a live host, which makes offline
// playback and loader tests share one code path.
type Dir struct {
	path string
	meta *Metadata
}

func OpenDir(path string) *Dir {
	return &Dir{path: path}
}

func (d *Dir) SimulationMetadata(ctx context.Context) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.meta != nil {
		return d.meta, nil
	}
	data, err := os.ReadFile(filepath.Join(d.path, "metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}
	meta := &Metadata{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("host: metadata.json: %w", err)
	}
	d.meta = meta
	return meta, nil
}

func (d *Dir) GeometryMetadata(ctx context.Context, name string) (*GeometryMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.path, name, "geometry.json"))
	if err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}
	meta := &GeometryMeta{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("host: %s/geometry.json: %w", name, err)
	}
	return meta, nil
}

func (d *Dir) Array(ctx context.Context, name, field string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := d.readField(name, field)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (d *Dir) ArrayChunk(ctx context.Context, name, field string, frameOffset, frameCount int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	meta, err := d.SimulationMetadata(ctx)
	if err != nil {
		return "", err
	}
	raw, err := d.readField(name, field)
	if err != nil {
		return "", err
	}
	if meta.FrameCount <= 0 || len(raw)%meta.FrameCount != 0 {
		return "", diag.Errorf(diag.MissingArrayPayload,
			"%s/%s: %d bytes not divisible into %d frames", name, field, len(raw), meta.FrameCount)
	}
	stride := len(raw) / meta.FrameCount
	lo := frameOffset * stride
	hi := (frameOffset + frameCount) * stride
	if lo < 0 || hi > len(raw) {
		return "", diag.Errorf(diag.MissingArrayPayload,
			"%s/%s: chunk [%d,%d) out of %d frames", name, field, frameOffset, frameOffset+frameCount, meta.FrameCount)
	}
	return base64.StdEncoding.EncodeToString(raw[lo:hi]), nil
}

func (d *Dir) readField(name, field string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(d.path, name, field+".f32"))
	if err != nil {
		return nil, diag.Errorf(diag.MissingArrayPayload, "%s/%s: %v", name, field, err)
	}
	return raw, nil
}

// RecordedGeometry is the writer-side bundle for Record.
type RecordedGeometry struct {
	Name   string
	Meta   GeometryMeta
	Fields map[string][]float32
}

// Record writes a trajectory directory that OpenDir can serve. Used by
// tests and by tooling that snapshots a live host.
func Record(path string, meta *Metadata, geoms []RecordedGeometry) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(path, "metadata.json"), data, 0644); err != nil {
		return err
	}

	for _, g := range geoms {
		dir := filepath.Join(path, g.Name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		data, err := json.MarshalIndent(&g.Meta, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, "geometry.json"), data, 0644); err != nil {
			return err
		}
		for field, vals := range g.Fields {
			raw := make([]byte, len(vals)*4)
			for i, v := range vals {
				binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
			}
			if err := os.WriteFile(filepath.Join(dir, field+".f32"), raw, 0644); err != nil {
				return err
			}
		}
	}
	return nil
}
