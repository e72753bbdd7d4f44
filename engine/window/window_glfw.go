package window

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// GLFW event processing and the GL context must stay on the main thread.
func init() {
	runtime.LockOSThread()
}

// glfwWindow holds the GLFW handle of an engineWindow.
type glfwWindow struct {
	window *glfw.Window
}

// coreProfile reports whether major.minor supports a core profile context.
func coreProfile(major, minor int) bool {
	return major > 3 || major == 3 && minor >= 2
}

// newPlatformWindow creates the GLFW window, makes its context current and routes input to w.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func newPlatformWindow(w *engineWindow) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initialize GLFW: %w", err)
	}

	// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
	glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
	glfw.WindowHint(glfw.ContextVersionMajor, w.glMajor)
	glfw.WindowHint(glfw.ContextVersionMinor, w.glMinor)
	if coreProfile(w.glMajor, w.glMinor) {
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("create GL %d.%d window: %w", w.glMajor, w.glMinor, err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, glfw.DontCare, glfw.DontCare)
	win.MakeContextCurrent()
	if w.vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	w.platform = &glfwWindow{window: win}

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
			return
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			if w.onKeyDown != nil {
				w.onKeyDown(uint32(key))
			}
		case glfw.Release:
			if w.onKeyUp != nil {
				w.onKeyUp(uint32(key))
			}
		}
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		b, ok := mouseButton(button)
		if !ok {
			return
		}
		switch action {
		case glfw.Press:
			x, y := win.GetCursorPos()
			w.press(b, x, y)
		case glfw.Release:
			w.release(b)
		}
	})
	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w.move(x, y)
	})

	// Framebuffer size differs from window size on high-DPI displays; the viewport needs pixels.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resize(width, height)
	})
	w.width, w.height = win.GetFramebufferSize()
	return nil
}

func mouseButton(b glfw.MouseButton) (MouseButton, bool) {
	switch b {
	case glfw.MouseButtonLeft:
		return MouseLeft, true
	case glfw.MouseButtonRight:
		return MouseRight, true
	case glfw.MouseButtonMiddle:
		return MouseMiddle, true
	}
	return 0, false
}

func (g *glfwWindow) swap() {
	g.window.SwapBuffers()
}

func (g *glfwWindow) setTitle(title string) {
	g.window.SetTitle(title)
}

func (g *glfwWindow) running() bool {
	return !g.window.ShouldClose()
}

// poll processes pending events without blocking.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func (g *glfwWindow) poll() {
	glfw.PollEvents()
}

func (g *glfwWindow) destroy() {
	g.window.Destroy()
	glfw.Terminate()
}

func platformTime() float64 {
	return glfw.GetTime()
}
