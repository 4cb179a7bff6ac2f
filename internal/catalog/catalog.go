// Package catalog loads the embedded capability catalogue used by help, status and install.
package catalog

import (
	"fmt"
	"sync"

	"specter/internal/data/embedded"
	"specter/pkg/spectertypes"

	"gopkg.in/yaml.v3"
)

// Entry describes one capability slot for display.
type Entry struct {
	Slot    spectertypes.Slot `yaml:"slot"`
	Label   string            `yaml:"label"`
	Section string            `yaml:"section"`
	Help    []string          `yaml:"help"`
	Remedy  []string          `yaml:"remedy"`
}

// Catalog is the parsed capabilities.yaml.
type Catalog struct {
	Capabilities []Entry  `yaml:"capabilities"`
	General      []string `yaml:"general"`

	bySlot map[spectertypes.Slot]Entry
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalogue, parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(embedded.CapabilitiesData)
	})
	return defaultCatalog, defaultErr
}

// Parse decodes a catalogue and checks that every slot is described exactly once.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse capability catalog: %w", err)
	}

	c.bySlot = make(map[spectertypes.Slot]Entry, len(c.Capabilities))
	for _, e := range c.Capabilities {
		if _, dup := c.bySlot[e.Slot]; dup {
			return nil, fmt.Errorf("capability catalog lists slot %q twice", e.Slot)
		}
		c.bySlot[e.Slot] = e
	}
	for _, slot := range spectertypes.AllSlots() {
		if _, ok := c.bySlot[slot]; !ok {
			return nil, fmt.Errorf("capability catalog is missing slot %q", slot)
		}
	}
	return &c, nil
}

// Entry returns the catalogue entry for slot.
func (c *Catalog) Entry(slot spectertypes.Slot) (Entry, bool) {
	e, ok := c.bySlot[slot]
	return e, ok
}

// Label returns the display label for slot, or the slot name when unknown.
func (c *Catalog) Label(slot spectertypes.Slot) string {
	if e, ok := c.bySlot[slot]; ok {
		return e.Label
	}
	return string(slot)
}
