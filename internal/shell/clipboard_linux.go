//go:build linux

package shell

import "errors"

// systemClipboard is unavailable on Linux builds, which run without cgo X11 bindings.
type systemClipboard struct{}

func (systemClipboard) Write(string) error {
	return errors.New("clipboard not available on this platform (Linux without X11)")
}
