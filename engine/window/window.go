// Package window opens a GLFW window that owns an OpenGL context.
package window

import "fmt"

// MouseButton identifies the button held during a drag.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// Window provides a native window, its OpenGL context and input events.
// The context is current on the thread that created the window; every graphics call and
// ProcessMessages must run on that thread.
type Window interface {
	// SetUpdateCallback sets the function called once per message loop iteration, after events
	// are polled.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical scroll delta (positive = up)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetDragCallback sets the callback for cursor movement while a mouse button is held.
	//
	// Parameters:
	//   - callback: function receiving the held button and the cursor delta in screen coordinates
	SetDragCallback(callback func(button MouseButton, dx, dy float32))

	// SwapBuffers presents the back buffer.
	SwapBuffers()

	// SetTitle replaces the text shown in the title bar.
	//
	// Parameters:
	//   - title: the new title
	SetTitle(title string)

	// Time returns the seconds elapsed since GLFW was initialized.
	Time() float64

	// IsRunning reports whether the window is open and has not been asked to close.
	IsRunning() bool

	// Close destroys the window and terminates GLFW. Safe to call more than once.
	//
	// Returns:
	//   - error: an error if the window was never created
	Close() error

	// ProcessMessages polls events and calls the update callback until the window closes.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int

	// ContextVersion returns the OpenGL version the context was requested with.
	//
	// Returns:
	//   - major: the major version
	//   - minor: the minor version
	ContextVersion() (major, minor int)
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title     string
	width     int
	height    int
	minWidth  int
	minHeight int
	vsync     bool

	glMajor int
	glMinor int

	platform *glfwWindow
	closed   bool

	onUpdate  func()
	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
	onKeyUp   func(keyCode uint32)
	onDrag    func(button MouseButton, dx, dy float32)

	// drag state; dragButton is -1 when no button is held
	dragButton   MouseButton
	lastX, lastY float64
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window with an OpenGL context current on the calling thread.
// Panics if GLFW or the context cannot be created.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:      "oxy-gl",
		width:      1280,
		height:     720,
		minWidth:   320,
		minHeight:  240,
		vsync:      true,
		glMajor:    4,
		glMinor:    1,
		dragButton: -1,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("window: %v", err))
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetDragCallback(callback func(button MouseButton, dx, dy float32)) {
	w.onDrag = callback
}

// press starts a drag at the cursor position.
func (w *engineWindow) press(button MouseButton, x, y float64) {
	w.dragButton = button
	w.lastX, w.lastY = x, y
}

func (w *engineWindow) release(button MouseButton) {
	if w.dragButton == button {
		w.dragButton = -1
	}
}

// move reports the cursor delta while a button is held.
func (w *engineWindow) move(x, y float64) {
	if w.dragButton < 0 {
		return
	}
	dx, dy := x-w.lastX, y-w.lastY
	w.lastX, w.lastY = x, y
	if w.onDrag != nil {
		w.onDrag(w.dragButton, float32(dx), float32(dy))
	}
}

func (w *engineWindow) resize(width, height int) {
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *engineWindow) SwapBuffers() {
	if w.platform != nil {
		w.platform.swap()
	}
}

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	if w.platform != nil {
		w.platform.setTitle(title)
	}
}

func (w *engineWindow) Time() float64 {
	return platformTime()
}

func (w *engineWindow) IsRunning() bool {
	return !w.closed && w.platform != nil && w.platform.running()
}

func (w *engineWindow) Close() error {
	if w.platform == nil {
		return fmt.Errorf("window: not initialized")
	}
	if w.closed {
		return nil
	}
	w.closed = true
	w.platform.destroy()
	return nil
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		w.platform.poll()
		if !w.IsRunning() {
			return
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) ContextVersion() (major, minor int) {
	return w.glMajor, w.glMinor
}
