package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyC = 67 // C key (ASCII), clears the shader variant cache in the viewer
	KeyM = 77 // M key (ASCII), cycles model materials in the viewer
	KeyP = 80 // P key (ASCII), toggles the profiler in the viewer
	KeyR = 82 // R key (ASCII), reloads every shader in the viewer

	KeyLeft  = 263 // Left arrow
	KeyRight = 262 // Right arrow
	KeyUp    = 265 // Up arrow
	KeyDown  = 264 // Down arrow
)
