package window

// WindowBuilderOption is a functional option for configuring a Window.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size in screen coordinates. Non-positive values keep the default.
//
// Parameters:
//   - width: the initial width
//   - height: the initial height
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}

// WithMinSize sets the smallest size the window can be resized to.
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth, w.minHeight = width, height
	}
}

// WithVSync enables or disables synchronizing SwapBuffers with the display refresh.
//
// Parameters:
//   - enabled: true to wait for vertical blank
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithVSync(enabled bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.vsync = enabled
	}
}

// WithContextVersion sets the OpenGL version requested for the context. Versions 3.2 and later
// get a forward-compatible core profile. Defaults to 4.1.
//
// Parameters:
//   - major: the major version
//   - minor: the minor version
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithContextVersion(major, minor int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.glMajor, w.glMinor = major, minor
	}
}
