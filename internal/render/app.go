// Package render owns the window, the GL pipeline and the per-tick
// frame loop. The loop runs once per display refresh, decoupled from
// the trajectory's sampling interval: "playing" advances the frame
// index by one per refresh. It never blocks on the loader; until the
// loaded flag flips it just clears and reschedules.
package render

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/san-kum/trajview/internal/camera"
	"github.com/san-kum/trajview/internal/config"
	"github.com/san-kum/trajview/internal/diag"
	"github.com/san-kum/trajview/internal/loader"
	"github.com/san-kum/trajview/internal/scene"
)

func init() {
	// GL contexts are bound to the OS thread that created them.
	runtime.LockOSThread()
}

type App struct {
	cfg     *config.Config
	session *loader.Session
	log     *diag.Log

	window   *glfw.Window
	program  uint32
	projLoc  int32
	viewLoc  int32
	uploader BondUploader

	cam      camera.Controller
	cursor   scene.Cursor
	geoms    []*geomState
	ready    bool
	dragging bool
}

// Run opens the window and drives the frame loop until the window
// closes. The loader is expected to be running on its own goroutine
// already. A shader build failure is the one fatal error.
func Run(cfg *config.Config, session *loader.Session, log *diag.Log) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("render: glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("render: window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		return fmt.Errorf("render: gl: %w", err)
	}

	program, err := buildProgram()
	if err != nil {
		log.Report(err, diag.ShaderBuildFailure)
		return err
	}

	a := &App{
		cfg:      cfg,
		session:  session,
		log:      log,
		window:   window,
		program:  program,
		projLoc:  gl.GetUniformLocation(program, gl.Str("proj\x00")),
		viewLoc:  gl.GetUniformLocation(program, gl.Str("view\x00")),
		uploader: FullReupload{},
	}
	a.installCallbacks()

	gl.Enable(gl.DEPTH_TEST)

	for !window.ShouldClose() {
		a.tick()
		window.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}

func (a *App) installCallbacks() {
	a.window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft || !a.ready {
			return
		}
		x, y := w.GetCursorPos()
		switch action {
		case glfw.Press:
			a.dragging = true
			a.cam.BeginDrag(x, y)
		case glfw.Release:
			a.dragging = false
			a.cam.EndDrag(x, y)
		}
	})
	a.window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		if a.dragging && a.ready {
			a.cam.Drag(x, y)
		}
	})
	a.window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		if a.ready {
			a.cam.Wheel(yoff)
		}
	})
	a.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyQ, glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeySpace:
			if a.ready {
				a.cursor.Playing = !a.cursor.Playing
			}
		case glfw.KeyLeft:
			// Scrub input is honored only once loading has completed.
			if a.ready {
				a.cursor.Scrub(a.cursor.Frame - 1)
			}
		case glfw.KeyRight:
			if a.ready {
				a.cursor.Scrub(a.cursor.Frame + 1)
			}
		case glfw.KeyR:
			if a.ready {
				a.cursor.Scrub(0)
			}
		}
	})
}

func (a *App) background() [3]float32 {
	if a.ready {
		if meta := a.session.Table().Meta; meta != nil && meta.HasBackground {
			return meta.Background
		}
	}
	return a.cfg.Window.Background
}

func (a *App) tick() {
	bg := a.background()
	gl.ClearColor(bg[0], bg[1], bg[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if !a.ready {
		// Idle cleared frame until assets arrive; no error.
		if a.session.Loaded() {
			a.initScene()
		}
		return
	}

	a.cursor.Tick()

	w, h := a.window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(w), int32(h))
	a.cam.SetViewport(w, h)

	gl.UseProgram(a.program)
	proj := a.cam.Projection()
	view := a.cam.View()
	gl.UniformMatrix4fv(a.projLoc, 1, false, &proj[0])
	gl.UniformMatrix4fv(a.viewLoc, 1, false, &view[0])

	for _, st := range a.geoms {
		if st.geom.Shape == scene.ShapeBond {
			a.drawBonds(st)
		} else {
			a.drawParticles(st)
		}
	}
}

// initScene runs exactly once, on the first tick after the loader
// finishes: cameras from the box extents, GPU buffers per geometry,
// base meshes per shape.
func (a *App) initScene() {
	a.ready = true
	table := a.session.Table()
	meta := table.Meta
	if meta == nil {
		// Metadata never validated; keep rendering idle frames.
		a.cursor = scene.Cursor{FrameCount: 1}
		a.cam = camera.NewOrbit(nil, a.cfg.Camera.ZoomFactor)
		return
	}

	if meta.HasResolution {
		a.window.SetSize(meta.Resolution[0], meta.Resolution[1])
	}
	if meta.Dimension == 2 {
		a.cam = camera.NewFlat(meta.BoxSize, a.cfg.Camera.ZoomFactor)
	} else {
		orbit := camera.NewOrbit(meta.BoxSize, a.cfg.Camera.ZoomFactor)
		orbit.Sensitivity = a.cfg.Camera.DragSensitivity
		a.cam = orbit
	}
	a.cursor = scene.Cursor{FrameCount: meta.FrameCount, Playing: a.cfg.Playback.Autoplay}

	for _, g := range table.Geometries {
		if st := newGeomState(g, table, a.cfg, a.log); st != nil {
			a.geoms = append(a.geoms, st)
		}
	}
}

// drawParticles issues one instanced draw: the shared base mesh drawn
// count times with per-instance attributes resolved per field.
func (a *App) drawParticles(st *geomState) {
	gl.BindVertexArray(st.vao)

	bindArray(attrVert, st.meshVBO, 3, 0)
	if st.meshNormVBO != 0 {
		bindArray(attrNormal, st.meshNormVBO, 3, 0)
	} else {
		constant3(attrNormal, 0, 0, 1)
	}

	a.bindInstanceAttr(st, attrOffset, "position", [3]float32{0, 0, 0})
	a.bindInstanceAttr(st, attrSize, "size", [3]float32{config.DefaultSize})
	a.bindInstanceAttr(st, attrColor, "color", [3]float32{0.8, 0.8, 0.8})
	a.bindInstanceAttr(st, attrAngle, "angle", [3]float32{0})

	gl.DrawArraysInstanced(gl.TRIANGLES, 0, st.meshCount, int32(st.geom.Count))
}

// bindInstanceAttr applies the attribute-resolution rule: absent
// field → default constant, Global → its constant(s), otherwise a
// per-instance array, re-uploaded first when Dynamic.
func (a *App) bindInstanceAttr(st *geomState, loc uint32, name string, def [3]float32) {
	g := st.geom
	switch ResolveAttr(g, name) {
	case AttrDefault:
		a.bindConstant(loc, name, def[:])
	case AttrGlobal:
		a.bindConstant(loc, name, g.Fields[name].Data)
	case AttrPerInstance:
		f := g.Fields[name]
		gl.BindBuffer(gl.ARRAY_BUFFER, st.fieldVBO[name])
		if NeedsFrameUpload(g, name) {
			slice := f.FrameSlice(a.cursor.Frame, g.Count)
			gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(slice)*4, gl.Ptr(slice))
		}
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointer(loc, int32(f.Components), gl.FLOAT, false, 0, nil)
		gl.VertexAttribDivisor(loc, 1)
	}
}

func (a *App) bindConstant(loc uint32, name string, vals []float32) {
	switch name {
	case "color", "position":
		if len(vals) >= 3 {
			constant3(loc, vals[0], vals[1], vals[2])
			return
		}
		constant3(loc, 0, 0, 0)
	default:
		if len(vals) >= 1 {
			constant1(loc, vals[0])
		} else {
			constant1(loc, 0)
		}
	}
}

// drawBonds rebuilds the bond mesh from the reference geometry's
// current-frame positions, re-uploads it and issues a single draw
// with the vertex count actually written this frame.
func (a *App) drawBonds(st *geomState) {
	meta := a.session.Table().Meta
	ref := st.ref
	posField, ok := ref.Field("position")
	if !ok {
		return
	}
	pos := posField.FrameSlice(a.cursor.Frame, ref.Count)

	verts, norms, n := st.builder.Build(pos, meta.Dimension, st.neighbors,
		st.geom.Count, st.geom.MaxNeighbors, st.diameter, meta.BoxSize)
	if n == 0 {
		return
	}
	a.uploader.Upload(st.bondVBO, st.bondNormVBO, verts, norms)

	gl.BindVertexArray(st.vao)
	bindArray(attrVert, st.bondVBO, 3, 0)
	bindArray(attrNormal, st.bondNormVBO, 3, 0)
	constant3(attrOffset, 0, 0, 0)
	constant1(attrSize, 1)
	// A non-instanced draw reads instance attributes at slot 0 only,
	// so the color must be a flat constant here.
	c := bondColor(st.geom)
	constant3(attrColor, c[0], c[1], c[2])
	constant1(attrAngle, 0)

	gl.DrawArrays(gl.TRIANGLES, 0, int32(n))
}
