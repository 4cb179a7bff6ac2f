//go:build !linux

package shell

import (
	"sync"

	"golang.design/x/clipboard"
)

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// systemClipboard writes to the OS clipboard.
type systemClipboard struct{}

func (systemClipboard) Write(text string) error {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		return clipboardErr
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
