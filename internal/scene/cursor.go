package scene

// Cursor tracks playback position. It is mutated only by the render
// tick and by explicit scrub input, both on the render thread.
type Cursor struct {
	Frame      int
	Playing    bool
	Loops      int
	FrameCount int
}

// Tick advances one frame per display refresh while playing, wrapping
// past the last frame and counting completed loops.
func (c *Cursor) Tick() {
	if c.Playing {
		c.Frame++
	}
	if c.Frame > c.FrameCount-1 {
		c.Frame = 0
		c.Loops++
	}
}

// Scrub sets the exact requested frame with no wraparound, clamped to
// the valid range.
func (c *Cursor) Scrub(frame int) {
	if frame < 0 {
		frame = 0
	}
	if frame > c.FrameCount-1 {
		frame = c.FrameCount - 1
	}
	c.Frame = frame
}
