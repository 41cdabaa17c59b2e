package scene

import (
	"errors"
	"testing"

	"github.com/san-kum/trajview/internal/diag"
)

func TestComponents(t *testing.T) {
	tests := []struct {
		field string
		dim   int
		want  int
	}{
		{"position", 2, 2},
		{"position", 3, 3},
		{"angle", 2, 1},
		{"angle", 3, 2},
		{"color", 2, 3},
		{"color", 3, 3},
		{"size", 3, 1},
		{"diameter", 3, 1},
	}

	for _, tt := range tests {
		if got := Components(tt.field, tt.dim); got != tt.want {
			t.Errorf("Components(%q, %d) = %d, want %d", tt.field, tt.dim, got, tt.want)
		}
	}
}

func TestParseStorageClass(t *testing.T) {
	for s, want := range map[string]StorageClass{
		"dynamic": Dynamic, "static": Static, "global": Global,
	} {
		got, err := ParseStorageClass(s)
		if err != nil || got != want {
			t.Errorf("ParseStorageClass(%q) = %v, %v", s, got, err)
		}
	}

	_, err := ParseStorageClass("volatile")
	var de *diag.Error
	if !errors.As(err, &de) || de.Kind != diag.UnknownStorageClass {
		t.Errorf("expected UnknownStorageClass, got %v", err)
	}
}

func TestMetadata_Validate(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
		ok   bool
	}{
		{"2d", Metadata{Dimension: 2, FrameCount: 1}, true},
		{"3d", Metadata{Dimension: 3, FrameCount: 100}, true},
		{"bad dim", Metadata{Dimension: 4, FrameCount: 10}, false},
		{"zero frames", Metadata{Dimension: 3, FrameCount: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestField_FrameSlice(t *testing.T) {
	// 3 frames, 2 particles, 2 components.
	f := &Field{Name: "position", Class: Dynamic, Components: 2,
		Data: []float32{
			0, 1, 2, 3, // frame 0
			4, 5, 6, 7, // frame 1
			8, 9, 10, 11, // frame 2
		}}

	got := f.FrameSlice(1, 2)
	want := []float32{4, 5, 6, 7}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// Static fields return all data regardless of frame.
	s := &Field{Name: "size", Class: Static, Components: 1, Data: []float32{1, 2}}
	if len(s.FrameSlice(2, 2)) != 2 {
		t.Error("static frame slice should return full data")
	}
}

func TestField_CheckLength(t *testing.T) {
	f := &Field{Name: "position", Class: Dynamic, Components: 3, Data: make([]float32, 23*5*3)}
	if err := f.CheckLength(23, 5); err != nil {
		t.Errorf("exact dynamic length rejected: %v", err)
	}
	f.Data = f.Data[:len(f.Data)-1]
	if err := f.CheckLength(23, 5); err == nil {
		t.Error("short dynamic array accepted")
	}

	g := &Field{Name: "color", Class: Global, Components: 3, Data: make([]float32, 3)}
	if err := g.CheckLength(23, 5); err != nil {
		t.Errorf("global length rejected: %v", err)
	}
}

func TestCursor_TickWrap(t *testing.T) {
	c := Cursor{Frame: 8, Playing: true, FrameCount: 10}

	c.Tick()
	if c.Frame != 9 || c.Loops != 0 {
		t.Fatalf("frame = %d loops = %d after first tick", c.Frame, c.Loops)
	}
	c.Tick()
	if c.Frame != 0 || c.Loops != 1 {
		t.Errorf("frame = %d loops = %d, want wrap to 0 with loop count 1", c.Frame, c.Loops)
	}
}

func TestCursor_PausedHolds(t *testing.T) {
	c := Cursor{Frame: 4, Playing: false, FrameCount: 10}
	c.Tick()
	c.Tick()
	if c.Frame != 4 {
		t.Errorf("paused cursor moved to %d", c.Frame)
	}
}

func TestCursor_Scrub(t *testing.T) {
	c := Cursor{FrameCount: 10}

	c.Scrub(7)
	if c.Frame != 7 || c.Loops != 0 {
		t.Errorf("scrub: frame = %d loops = %d", c.Frame, c.Loops)
	}

	c.Scrub(99)
	if c.Frame != 9 {
		t.Errorf("scrub past end: frame = %d, want clamp to 9", c.Frame)
	}
	if c.Loops != 0 {
		t.Error("scrub must not wrap")
	}

	c.Scrub(-3)
	if c.Frame != 0 {
		t.Errorf("scrub below 0: frame = %d", c.Frame)
	}
}
