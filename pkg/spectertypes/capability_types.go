// Package spectertypes defines the shared contracts for Specter.
// This file contains capability slots and the interfaces every capability module implements.
package spectertypes

import (
	"context"
	"errors"
)

// Slot names one capability position in the registry.
// A slot is either filled by a live module or marked unavailable at startup.
type Slot string

const (
	// SlotSpeech is the text-to-speech worker.
	SlotSpeech Slot = "speech"
	// SlotConversation is the chat engine with persona modes and history.
	SlotConversation Slot = "conversation"
	// SlotFiles is the file search and organization module.
	SlotFiles Slot = "files"
	// SlotMusic is the music player.
	SlotMusic Slot = "music"
	// SlotLauncher is the application launcher.
	SlotLauncher Slot = "launcher"
	// SlotNews is the headline fetcher.
	SlotNews Slot = "news"
	// SlotCalendar is the local calendar and reminder store.
	SlotCalendar Slot = "calendar"
	// SlotSystem is the system monitor.
	SlotSystem Slot = "system"
	// SlotWeather is the weather lookup.
	SlotWeather Slot = "weather"
	// SlotEmail is the mail sender/reader.
	SlotEmail Slot = "email"
)

// AllSlots returns every slot in status display order.
func AllSlots() []Slot {
	return []Slot{
		SlotSpeech,
		SlotConversation,
		SlotFiles,
		SlotMusic,
		SlotLauncher,
		SlotNews,
		SlotCalendar,
		SlotSystem,
		SlotWeather,
		SlotEmail,
	}
}

// ErrUnsupportedFunction is returned by Invoker implementations for functions they do not own.
var ErrUnsupportedFunction = errors.New("unsupported function")

// Capability is the contract the router consumes from every module.
// Handle is synchronous and may block on network, file or process I/O.
// Modules return user-facing text for expected failures and reserve errors
// for unexpected ones.
type Capability interface {
	Slot() Slot
	Handle(ctx context.Context, command string) (string, error)
}

// Invoker is implemented by modules that expose secondary entry points
// (for example send_draft or get_forecast) selected by the intent classifier.
// params always carries the original command under the "command" key.
type Invoker interface {
	Invoke(ctx context.Context, fn Function, params map[string]string) (string, error)
}

// Closer is implemented by modules holding background workers or processes.
type Closer interface {
	Close() error
}
