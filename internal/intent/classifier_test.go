package intent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"specter/internal/extract"
	"specter/internal/llm"
	"specter/pkg/spectertypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		kind     spectertypes.IntentKind
		function string
		reason   string
		chat     string
		wantErr  bool
	}{
		{
			name:     "function with reason",
			reply:    "FUNCTION: get_weather\nREASON: asks about rain",
			kind:     spectertypes.IntentFunctionCall,
			function: "get_weather",
			reason:   "asks about rain",
		},
		{
			name:     "case and trailing text",
			reply:    "  function: Play_Music now\nreason: wants a song  ",
			kind:     spectertypes.IntentFunctionCall,
			function: "play_music",
			reason:   "wants a song",
		},
		{
			name:     "quoted name without reason",
			reply:    "FUNCTION: `send_draft`",
			kind:     spectertypes.IntentFunctionCall,
			function: "send_draft",
		},
		{
			name:  "chat",
			reply: "CHAT: Hello there!\nHow are you?",
			kind:  spectertypes.IntentChat,
			chat:  "Hello there!\nHow are you?",
		},
		{
			name:  "other shape is chat",
			reply: "I think you want the weather.",
			kind:  spectertypes.IntentChat,
			chat:  "I think you want the weather.",
		},
		{
			name:    "function without name",
			reply:   "FUNCTION:\nREASON: unsure",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReply(tt.reply)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrClassificationUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.function, got.Function)
			assert.Equal(t, tt.reason, got.Reason)
			assert.Equal(t, tt.chat, got.Reply)
		})
	}
}

func TestBuildPrompt_NamesEveryFunction(t *testing.T) {
	prompt := BuildPrompt()
	for _, spec := range spectertypes.Functions() {
		assert.Contains(t, prompt, "- "+spec.Name+": ")
	}
	assert.Contains(t, prompt, "FUNCTION: <function_name>")
	assert.Contains(t, prompt, "CHAT:")
}

func TestClassify_FunctionCall(t *testing.T) {
	gen := llm.NewMockGenerator("FUNCTION: get_weather\nREASON: asks about rain")
	c := NewClassifier(gen, time.Second)

	got, err := c.Classify(context.Background(), "will it rain")
	require.NoError(t, err)
	assert.True(t, got.IsFunctionCall())
	assert.Equal(t, "get_weather", got.Function)
	assert.Equal(t, "asks about rain", got.Reason)

	require.Equal(t, 1, gen.Calls())
	req := gen.Requests[0]
	assert.Equal(t, BuildPrompt(), req.System)
	assert.Equal(t, "will it rain", req.Messages[0].Content)
	assert.Equal(t, 0.0, req.Temperature)
}

func TestClassify_TransportErrorIsUnavailable(t *testing.T) {
	gen := &llm.MockGenerator{Err: errors.New("connection refused")}
	c := NewClassifier(gen, time.Second)

	_, err := c.Classify(context.Background(), "organize my downloads")
	assert.ErrorIs(t, err, ErrClassificationUnavailable)
}

func TestClassify_TimeoutIsUnavailable(t *testing.T) {
	gen := &llm.MockGenerator{Reply: func(spectertypes.GenerateRequest) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return "", context.DeadlineExceeded
	}}
	c := NewClassifier(gen, 10*time.Millisecond)

	_, err := c.Classify(context.Background(), "organize my downloads")
	assert.ErrorIs(t, err, ErrClassificationUnavailable)
}

func TestClassify_PanicIsUnavailable(t *testing.T) {
	gen := &llm.MockGenerator{Reply: func(spectertypes.GenerateRequest) (string, error) {
		panic("sdk bug")
	}}
	c := NewClassifier(gen, time.Second)

	_, err := c.Classify(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrClassificationUnavailable)
}

func TestClassify_EmailExtraction(t *testing.T) {
	const command = "send an email to bob@example.com subject Hi message see you"
	want := map[string]string{
		extract.ParamRecipient: "bob@example.com",
		extract.ParamSubject:   "Hi",
		extract.ParamMessage:   "see you",
	}

	t.Run("remote extractor", func(t *testing.T) {
		gen := llm.NewMockGenerator("```json\n{\"recipient\":\"bob@example.com\",\"subject\":\"Hi\",\"message\":\"see you\"}\n```")
		got, err := NewClassifier(gen, time.Second).Classify(context.Background(), command)
		require.NoError(t, err)
		assert.Equal(t, "send_email", got.Function)
		assert.Equal(t, want, got.Params)
		assert.Equal(t, 1, gen.Calls())
		assert.Contains(t, gen.Requests[0].System, `"recipient"`)
	})

	t.Run("remote failure falls back to regex", func(t *testing.T) {
		gen := &llm.MockGenerator{Err: errors.New("timeout")}
		got, err := NewClassifier(gen, time.Second).Classify(context.Background(), command)
		require.NoError(t, err)
		assert.Equal(t, "send_email", got.Function)
		assert.Equal(t, "bob@example.com", got.Params[extract.ParamRecipient])
		assert.Equal(t, want, got.Params)
	})

	t.Run("remote reply without recipient falls back to regex", func(t *testing.T) {
		gen := llm.NewMockGenerator(`{"recipient":null,"subject":"Hi","message":"see you"}`)
		got, err := NewClassifier(gen, time.Second).Classify(context.Background(), command)
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", got.Params[extract.ParamRecipient])
	})
}

func TestClassify_EmailWithoutRecipientProceedsNormally(t *testing.T) {
	gen := &llm.MockGenerator{Reply: func(req spectertypes.GenerateRequest) (string, error) {
		if strings.Contains(req.System, "JSON") {
			return "not json", nil
		}
		return "CHAT: who should I write to?", nil
	}}
	c := NewClassifier(gen, time.Second)

	// "@team" has an "@" but no address, so extraction finds no recipient.
	got, err := c.Classify(context.Background(), "send a note to @team")
	require.NoError(t, err)
	assert.False(t, got.IsFunctionCall())
	assert.Equal(t, "who should I write to?", got.Reply)
	assert.Equal(t, 2, gen.Calls())
}
