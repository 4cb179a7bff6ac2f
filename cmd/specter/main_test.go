package main

import (
	"bytes"
	"strings"
	"testing"

	"specter/internal/version"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.Equal(t, version.GetFormattedVersion()+"\n", out)

	detailed := execute(t, "version", "--detailed")
	assert.Contains(t, detailed, "Platform: ")
}

func TestAskStatus(t *testing.T) {
	out := execute(t, "--test-mode", "--data-dir", t.TempDir(), "ask", "status")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "📊 Module Status:", lines[0])
	assert.Contains(t, lines[len(lines)-1], "modules active")
	assert.Contains(t, out, "❌ 📧 Email Handler")
}

func TestAskJSON(t *testing.T) {
	out := execute(t, "--test-mode", "--no-classifier", "--data-dir", t.TempDir(), "ask", "--json", "mode", "workmate")
	assert.Equal(t, `{"message":"Switched to workmate mode. How can I help you?","type":"response"}`+"\n", out)
}

func TestAskRequiresCommand(t *testing.T) {
	cmd := newRootCmd(viper.New())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"ask"})
	assert.Error(t, cmd.Execute())
}
