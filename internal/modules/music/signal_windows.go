//go:build windows

package music

import "os"

var errProcessDone = os.ErrProcessDone

func suspend(*os.Process) error {
	return ErrPauseUnsupported
}

func resume(*os.Process) error {
	return ErrPauseUnsupported
}
