package catalog

import (
	"testing"

	"specter/pkg/spectertypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_CoversEverySlotInOrder(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	require.Len(t, c.Capabilities, len(spectertypes.AllSlots()))
	for i, slot := range spectertypes.AllSlots() {
		assert.Equal(t, slot, c.Capabilities[i].Slot)
		e, ok := c.Entry(slot)
		require.True(t, ok)
		assert.NotEmpty(t, e.Label)
		assert.NotEmpty(t, e.Help)
		assert.NotEmpty(t, e.Remedy)
	}
	assert.Equal(t, "🎵 Music Player", c.Label(spectertypes.SlotMusic))
	assert.Contains(t, c.General, "status - Module status")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid yaml", "capabilities: ["},
		{"missing slots", "capabilities:\n  - slot: music\n    label: Music\n"},
		{"duplicate slot", "capabilities:\n  - slot: music\n  - slot: music\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLabel_UnknownSlot(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "teleport", c.Label("teleport"))
}
