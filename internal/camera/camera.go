// Package camera turns pointer input into view parameters: pan/zoom
// over an orthographic view in 2D, orbit/zoom around the box center in
// 3D. Drags perturb a live preview; the change is committed only on
// release.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Controller is what the render loop drives each tick.
type Controller interface {
	SetViewport(w, h int)
	BeginDrag(x, y float64)
	Drag(x, y float64)
	EndDrag(x, y float64)
	Wheel(dy float64)
	View() mgl32.Mat4
	Projection() mgl32.Mat4
}

// Flat is the 2D controller: a centered orthographic view panned in
// world units and zoomed by scaling the visible half-extent.
type Flat struct {
	Center     mgl32.Vec2
	HalfExtent float32
	ZoomFactor float32

	width, height  int
	dragging       bool
	startX, startY float64
	curX, curY     float64
}

// NewFlat frames a box of the given extents. factor is the
// per-wheel-step half-extent scale.
func NewFlat(box []float32, factor float32) *Flat {
	f := &Flat{HalfExtent: 1, ZoomFactor: factor, width: 1, height: 1}
	for i, v := range box {
		if i < 2 {
			f.Center[i] = v / 2
		}
		if v/2 > f.HalfExtent {
			f.HalfExtent = v / 2
		}
	}
	return f
}

func (f *Flat) SetViewport(w, h int) { f.width, f.height = w, h }

func (f *Flat) BeginDrag(x, y float64) {
	f.dragging = true
	f.startX, f.startY = x, y
	f.curX, f.curY = x, y
}

func (f *Flat) Drag(x, y float64) {
	if f.dragging {
		f.curX, f.curY = x, y
	}
}

// EndDrag commits the accumulated pan offset.
func (f *Flat) EndDrag(x, y float64) {
	if !f.dragging {
		return
	}
	f.curX, f.curY = x, y
	dx, dy := f.panOffset()
	f.Center[0] -= dx
	f.Center[1] -= dy
	f.dragging = false
}

// panOffset converts the live drag from screen pixels to world units
// using the current half-extent.
func (f *Flat) panOffset() (float32, float32) {
	if !f.dragging {
		return 0, 0
	}
	perPixel := 2 * f.HalfExtent / float32(f.height)
	// Screen y grows downward, world y upward.
	return float32(f.curX-f.startX) * perPixel, -float32(f.curY-f.startY) * perPixel
}

// Wheel scales the half-extent multiplicatively, unclamped.
func (f *Flat) Wheel(dy float64) {
	if dy > 0 {
		f.HalfExtent /= f.ZoomFactor
	} else if dy < 0 {
		f.HalfExtent *= f.ZoomFactor
	}
}

func (f *Flat) View() mgl32.Mat4 { return mgl32.Ident4() }

func (f *Flat) Projection() mgl32.Mat4 {
	dx, dy := f.panOffset()
	cx, cy := f.Center[0]-dx, f.Center[1]-dy
	aspect := float32(f.width) / float32(f.height)
	hx, hy := f.HalfExtent*aspect, f.HalfExtent
	return mgl32.Ortho(cx-hx, cx+hx, cy-hy, cy+hy, -1000, 1000)
}

// PitchLimit keeps the orbit camera away from the gimbal flip at the
// poles.
const PitchLimit = (math.Pi / 2) / 1.05

// Orbit is the 3D controller: yaw/pitch/distance around a fixed
// look-at center.
type Orbit struct {
	Target      mgl32.Vec3
	Yaw         float32
	Pitch       float32
	Distance    float32
	ZoomFactor  float32
	Sensitivity float32 // radians per pixel

	width, height  int
	dragging       bool
	startX, startY float64
	curX, curY     float64
}

// NewOrbit frames a box of the given extents from the front.
func NewOrbit(box []float32, factor float32) *Orbit {
	o := &Orbit{Distance: 10, ZoomFactor: factor, Sensitivity: 0.01, width: 1, height: 1}
	var maxExtent float32
	for i, v := range box {
		if i < 3 {
			o.Target[i] = v / 2
		}
		if v > maxExtent {
			maxExtent = v
		}
	}
	if maxExtent > 0 {
		o.Distance = 1.8 * maxExtent
	}
	return o
}

func (o *Orbit) SetViewport(w, h int) { o.width, o.height = w, h }

func (o *Orbit) BeginDrag(x, y float64) {
	o.dragging = true
	o.startX, o.startY = x, y
	o.curX, o.curY = x, y
}

func (o *Orbit) Drag(x, y float64) {
	if o.dragging {
		o.curX, o.curY = x, y
	}
}

// EndDrag makes the previewed yaw/pitch permanent.
func (o *Orbit) EndDrag(x, y float64) {
	if !o.dragging {
		return
	}
	o.curX, o.curY = x, y
	o.Yaw, o.Pitch = o.preview()
	o.dragging = false
}

func (o *Orbit) preview() (yaw, pitch float32) {
	yaw, pitch = o.Yaw, o.Pitch
	if o.dragging {
		yaw += float32(o.curX-o.startX) * o.Sensitivity
		pitch += float32(o.curY-o.startY) * o.Sensitivity
	}
	return yaw, clampPitch(pitch)
}

func clampPitch(p float32) float32 {
	if p > PitchLimit {
		return PitchLimit
	}
	if p < -PitchLimit {
		return -PitchLimit
	}
	return p
}

// Wheel scales the view distance multiplicatively, unclamped.
func (o *Orbit) Wheel(dy float64) {
	if dy > 0 {
		o.Distance /= o.ZoomFactor
	} else if dy < 0 {
		o.Distance *= o.ZoomFactor
	}
}

// Eye is the current (possibly drag-perturbed) camera position.
func (o *Orbit) Eye() mgl32.Vec3 {
	yaw, pitch := o.preview()
	cp := float32(math.Cos(float64(pitch)))
	dir := mgl32.Vec3{
		cp * float32(math.Sin(float64(yaw))),
		float32(math.Sin(float64(pitch))),
		cp * float32(math.Cos(float64(yaw))),
	}
	return o.Target.Add(dir.Mul(o.Distance))
}

func (o *Orbit) View() mgl32.Mat4 {
	return mgl32.LookAtV(o.Eye(), o.Target, mgl32.Vec3{0, 1, 0})
}

func (o *Orbit) Projection() mgl32.Mat4 {
	aspect := float32(o.width) / float32(o.height)
	far := o.Distance * 100
	if far < 100 {
		far = 100
	}
	return mgl32.Perspective(mgl32.DegToRad(45), aspect, 0.1, far)
}
