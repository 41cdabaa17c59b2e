package render

import (
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/san-kum/trajview/internal/diag"
)

// One program serves both draw paths. Particle shapes draw instanced
// with a per-instance offset/size; bond meshes are already in world
// space and draw with the offset held at zero and size at one.
const vertexShaderSrc = `#version 410 core
layout(location = 0) in vec3 vert;
layout(location = 1) in vec3 normal;
layout(location = 2) in vec3 offset;
layout(location = 3) in float size;
layout(location = 4) in vec3 color;
layout(location = 5) in float angle;

uniform mat4 proj;
uniform mat4 view;

out vec3 fragNormal;
out vec3 fragColor;

void main() {
    float c = cos(angle);
    float s = sin(angle);
    vec3 v = vec3(c * vert.x - s * vert.y, s * vert.x + c * vert.y, vert.z);
    gl_Position = proj * view * vec4(offset + v * size, 1.0);
    fragNormal = normal;
    fragColor = color;
}
` + "\x00"

const fragmentShaderSrc = `#version 410 core
in vec3 fragNormal;
in vec3 fragColor;

out vec4 outColor;

void main() {
    vec3 n = normalize(fragNormal);
    float diff = max(dot(n, normalize(vec3(0.35, 0.45, 1.0))), 0.0);
    outColor = vec4(fragColor * (0.35 + 0.65 * diff), 1.0);
}
` + "\x00"

// buildProgram compiles and links the viewer program. This is the only
// fatal error class: a failure here blocks rendering entirely.
func buildProgram() (uint32, error) {
	vert, err := compileShader(vertexShaderSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	frag, err := compileShader(fragmentShaderSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vert)
	gl.AttachShader(program, frag)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return 0, diag.Errorf(diag.ShaderBuildFailure, "link: %s", strings.TrimRight(log, "\x00"))
	}

	gl.DeleteShader(vert)
	gl.DeleteShader(frag)
	return program, nil
}

func compileShader(source string, kind uint32, name string) (uint32, error) {
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return 0, diag.Errorf(diag.ShaderBuildFailure, "compile %s: %s", name, strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}
