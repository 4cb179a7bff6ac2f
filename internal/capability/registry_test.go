package capability

import (
	"context"
	"errors"
	"testing"

	"specter/pkg/spectertypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModule struct {
	slot     spectertypes.Slot
	closed   bool
	closeErr error
}

func (s *stubModule) Slot() spectertypes.Slot { return s.slot }

func (s *stubModule) Handle(_ context.Context, command string) (string, error) {
	return "OK:" + command, nil
}

func (s *stubModule) Close() error {
	s.closed = true
	return s.closeErr
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	music := &stubModule{slot: spectertypes.SlotMusic}

	require.NoError(t, r.Register("🎵 Music Player", music))
	require.NoError(t, r.MarkUnavailable(spectertypes.SlotEmail, "📧 Email Handler",
		"EMAIL_ADDRESS not set", "Add EMAIL_ADDRESS to .env"))

	got, err := r.Lookup(spectertypes.SlotMusic)
	require.NoError(t, err)
	assert.Same(t, music, got)

	_, err = r.Lookup(spectertypes.SlotEmail)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	var unavailable *UnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "📧 Email Handler not available: EMAIL_ADDRESS not set", unavailable.Error())
	assert.Equal(t, "📧 Email Handler not available: EMAIL_ADDRESS not set. Add EMAIL_ADDRESS to .env", unavailable.Message())

	_, err = r.Lookup(spectertypes.SlotNews)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRegistry_DuplicateAndSealed(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("Music", &stubModule{slot: spectertypes.SlotMusic}))
	assert.Error(t, r.Register("Music", &stubModule{slot: spectertypes.SlotMusic}))
	assert.Error(t, r.Register("Nil", nil))

	r.Seal()
	err := r.MarkUnavailable(spectertypes.SlotNews, "News", "no key", "")
	assert.ErrorIs(t, err, ErrSealed)
}

func TestRegistry_StatusLines(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.MarkUnavailable(spectertypes.SlotWeather, "🌤️ Weather", "no key", ""))
	require.NoError(t, r.Register("💬 Conversation", &stubModule{slot: spectertypes.SlotConversation}))
	require.NoError(t, r.Register("🎤 Speech Engine", &stubModule{slot: spectertypes.SlotSpeech}))

	assert.Equal(t, []string{
		"✅ 🎤 Speech Engine",
		"✅ 💬 Conversation",
		"❌ 🌤️ Weather",
		"2/3 modules active",
	}, r.StatusLines())
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()
	speech := &stubModule{slot: spectertypes.SlotSpeech}
	music := &stubModule{slot: spectertypes.SlotMusic, closeErr: errors.New("player stuck")}
	require.NoError(t, r.Register("Speech", speech))
	require.NoError(t, r.Register("Music", music))

	err := r.Close()
	assert.True(t, speech.closed)
	assert.True(t, music.closed)
	assert.ErrorContains(t, err, "player stuck")
}
