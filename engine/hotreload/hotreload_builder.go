package hotreload

import "time"

// WatcherBuilderOption is a functional option for configuring a Watcher.
type WatcherBuilderOption func(*watcher)

// WithDebounce sets how long a shader's files must stay quiet before the change is reported.
// Values <= 0 keep the default of 100ms.
//
// Parameters:
//   - d: the debounce interval
//
// Returns:
//   - WatcherBuilderOption: option function to apply
func WithDebounce(d time.Duration) WatcherBuilderOption {
	return func(w *watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}
