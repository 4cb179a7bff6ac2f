// Package capability holds the registry of capability modules built at startup.
// Each slot is either filled by a live module or recorded as unavailable with
// the reason its constructor failed. The registry is sealed before routing
// begins; after that it is read-only.
package capability

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"specter/pkg/spectertypes"
)

// ErrUnavailable is wrapped by UnavailableError.
var ErrUnavailable = errors.New("capability unavailable")

// ErrSealed is returned when the registry is mutated after Seal.
var ErrSealed = errors.New("capability registry is sealed")

// Entry is one slot: a live module, or the reason it could not be built.
type Entry struct {
	Slot   spectertypes.Slot
	Label  string
	Module spectertypes.Capability
	Reason string
	Remedy string
}

// Available reports whether the slot holds a live module.
func (e Entry) Available() bool {
	return e.Module != nil
}

// UnavailableError describes a requested slot whose module failed to construct.
type UnavailableError struct {
	Slot   spectertypes.Slot
	Label  string
	Reason string
	Remedy string
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s not available", e.Label)
	}
	return fmt.Sprintf("%s not available: %s", e.Label, e.Reason)
}

func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// Message is the user-facing text, including the remedy when one is known.
func (e *UnavailableError) Message() string {
	if e.Remedy == "" {
		return e.Error()
	}
	return e.Error() + ". " + e.Remedy
}

// Registry maps slots to entries.
type Registry struct {
	mu      sync.RWMutex
	entries map[spectertypes.Slot]*Entry
	sealed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[spectertypes.Slot]*Entry)}
}

// Register fills slot with a live module.
func (r *Registry) Register(label string, module spectertypes.Capability) error {
	if module == nil {
		return fmt.Errorf("cannot register nil module for %s", label)
	}
	return r.put(&Entry{Slot: module.Slot(), Label: label, Module: module})
}

// MarkUnavailable records that slot could not be constructed.
func (r *Registry) MarkUnavailable(slot spectertypes.Slot, label, reason, remedy string) error {
	return r.put(&Entry{Slot: slot, Label: label, Reason: reason, Remedy: remedy})
}

func (r *Registry) put(e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	if _, exists := r.entries[e.Slot]; exists {
		return fmt.Errorf("capability %s already registered", e.Slot)
	}
	r.entries[e.Slot] = e
	return nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Get returns the entry for slot and whether the slot was registered at all.
func (r *Registry) Get(slot spectertypes.Slot) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[slot]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Lookup returns the live module for slot, or an *UnavailableError.
// A slot that was never registered is reported as unavailable too.
func (r *Registry) Lookup(slot spectertypes.Slot) (spectertypes.Capability, error) {
	e, ok := r.Get(slot)
	if !ok {
		return nil, &UnavailableError{Slot: slot, Label: string(slot), Reason: "module not loaded"}
	}
	if !e.Available() {
		return nil, &UnavailableError{Slot: slot, Label: e.Label, Reason: e.Reason, Remedy: e.Remedy}
	}
	return e.Module, nil
}

// Entries returns registered entries in status display order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, slot := range spectertypes.AllSlots() {
		if e, ok := r.entries[slot]; ok {
			out = append(out, *e)
		}
	}
	return out
}

// ActiveCount returns the number of live modules and the number of registered slots.
func (r *Registry) ActiveCount() (active, total int) {
	for _, e := range r.Entries() {
		total++
		if e.Available() {
			active++
		}
	}
	return active, total
}

// StatusLines renders one ✅/❌ line per registered slot followed by "k/n modules active".
func (r *Registry) StatusLines() []string {
	entries := r.Entries()
	lines := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		if e.Available() {
			lines = append(lines, "✅ "+e.Label)
		} else {
			lines = append(lines, "❌ "+e.Label)
		}
	}
	active, total := r.ActiveCount()
	lines = append(lines, fmt.Sprintf("%d/%d modules active", active, total))
	return lines
}

// Close stops every live module that holds background resources.
func (r *Registry) Close() error {
	var errs []string
	for _, e := range r.Entries() {
		closer, ok := e.Module.(spectertypes.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", e.Slot, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close modules: %s", strings.Join(errs, "; "))
	}
	return nil
}
