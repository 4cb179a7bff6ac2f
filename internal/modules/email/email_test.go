package email

import (
	"context"
	"errors"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"specter/internal/config"
	"specter/pkg/spectertypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	err  error
	from string
	to   []string
	msg  string
}

func (f *fakeSender) Send(_ context.Context, from string, to []string, msg []byte) error {
	f.from, f.to, f.msg = from, to, string(msg)
	return f.err
}

type fakeInbox struct {
	recent []Summary
	unread int
	err    error
	asked  int
}

func (f *fakeInbox) Recent(_ context.Context, n int) ([]Summary, error) {
	f.asked = n
	return f.recent, f.err
}

func (f *fakeInbox) UnreadCount(context.Context) (int, error) {
	return f.unread, f.err
}

var sentAt = time.Date(2025, 2, 3, 9, 30, 0, 0, time.UTC)

func newTestModule(t *testing.T) (*Module, *fakeSender, *fakeInbox, string) {
	dir := t.TempDir()
	sender := &fakeSender{}
	inbox := &fakeInbox{}
	path := filepath.Join(dir, DraftFile)
	m, err := New(Options{
		Config:    config.EmailConfig{Address: "me@gmail.com", Password: "app-pass"},
		DraftPath: path,
		Sender:    sender,
		Inbox:     inbox,
		Now:       func() time.Time { return sentAt },
	})
	require.NoError(t, err)
	return m, sender, inbox, path
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{DraftPath: "x"})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = New(Options{
		Config:    config.EmailConfig{Address: "me@example.org", Password: "p"},
		DraftPath: "x",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported email provider")

	m, err := New(Options{
		Config:    config.EmailConfig{Address: "me@Gmail.com", Password: "p"},
		DraftPath: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, spectertypes.SlotEmail, m.Slot())
}

func TestProviderFor(t *testing.T) {
	p, ok := ProviderFor("someone@hotmail.com")
	require.True(t, ok)
	assert.Equal(t, "smtp-mail.outlook.com", p.SMTPHost)
	assert.Equal(t, 993, p.IMAPPort)

	_, ok = ProviderFor("not-an-address")
	assert.False(t, ok)
	assert.Equal(t, []string{"Gmail", "Outlook", "Yahoo", "iCloud"}, SupportedProviders())
}

func TestParseDraft(t *testing.T) {
	d, err := ParseDraft("To: bob@example.com\nSubject: Lunch\nMessage:\nSee you at noon.\nBring the notes.\n")
	require.NoError(t, err)
	assert.Equal(t, Draft{To: "bob@example.com", Subject: "Lunch", Message: "See you at noon.\nBring the notes."}, d)

	roundTrip, err := ParseDraft(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, roundTrip)

	_, err = ParseDraft("Subject: nobody\nMessage: hi")
	assert.Error(t, err)
}

func TestSendEmailSavesDraftThenSendDraftDelivers(t *testing.T) {
	m, sender, _, path := newTestModule(t)
	ctx := context.Background()

	out, err := m.Invoke(ctx, spectertypes.FuncSendEmail, map[string]string{
		"recipient": "bob@example.com",
		"subject":   "Lunch",
		"message":   "See you at noon",
		"command":   "send an email to bob@example.com about lunch",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "📝 Draft saved:")
	assert.Contains(t, out, "To: bob@example.com")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "To: bob@example.com\nSubject: Lunch\nMessage:\nSee you at noon\n", string(data))

	out, err = m.Invoke(ctx, spectertypes.FuncGetDraft, map[string]string{"command": "show draft"})
	require.NoError(t, err)
	assert.Contains(t, out, "Subject: Lunch")

	out, err = m.Invoke(ctx, spectertypes.FuncSendDraft, map[string]string{"command": "send draft"})
	require.NoError(t, err)
	assert.Equal(t, "✅ Email sent successfully to bob@example.com", out)
	assert.Equal(t, "me@gmail.com", sender.from)
	assert.Equal(t, []string{"bob@example.com"}, sender.to)
	assert.Contains(t, sender.msg, "Subject: Lunch\r\n")
	assert.Contains(t, sender.msg, "Date: Mon, 03 Feb 2025 09:30:00 +0000\r\n")
	assert.Contains(t, sender.msg, "\r\n\r\nSee you at noon\r\n")

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "draft should be removed after sending")

	out, err = m.SendDraft(ctx)
	require.NoError(t, err)
	assert.Contains(t, out, "No draft to send")
}

func TestSendDraft_FailureKeepsDraft(t *testing.T) {
	m, sender, _, path := newTestModule(t)
	ctx := context.Background()

	_, err := m.Compose(Draft{To: "bob@example.com", Message: "hi"})
	require.NoError(t, err)

	sender.err = &textproto.Error{Code: 535, Msg: "bad credentials"}
	out, err := m.SendDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, "❌ Email authentication failed. Please check your email credentials.", out)

	sender.err = errors.New("connection refused")
	out, err = m.SendDraft(ctx)
	require.NoError(t, err)
	assert.Contains(t, out, "connection refused")

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestHandle_ComposeFromText(t *testing.T) {
	m, _, _, _ := newTestModule(t)

	out, err := m.Handle(context.Background(), "send email to ann@example.com subject check in message are you free")
	require.NoError(t, err)
	assert.Contains(t, out, "To: ann@example.com")
	assert.Contains(t, out, "Subject: check in")
	assert.Contains(t, out, "are you free")
}

func TestHandle_AddressWithoutSendVerbReadsInbox(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    string
	}{
		{"check with sender address", "check my emails from bob@example.com", "📧 No emails found in inbox."},
		{"inbox with address", "open my inbox for bob@example.com", "📧 No emails found in inbox."},
		{"unread from address", "any unread mail from alice@example.com", "📧 No unread emails."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _, path := newTestModule(t)

			out, err := m.Handle(context.Background(), tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.NoFileExists(t, path)
		})
	}
}

func TestDiscardDraft_Idempotent(t *testing.T) {
	m, _, _, _ := newTestModule(t)

	_, err := m.Compose(Draft{To: "bob@example.com"})
	require.NoError(t, err)

	out, err := m.Handle(context.Background(), "discard draft")
	require.NoError(t, err)
	assert.Equal(t, "🗑️ Draft discarded.", out)

	out, err = m.DiscardDraft()
	require.NoError(t, err)
	assert.Equal(t, "📭 No saved draft.", out)
}

func TestCheckInboxAndUnread(t *testing.T) {
	m, _, inbox, _ := newTestModule(t)
	ctx := context.Background()

	out, err := m.Handle(ctx, "check my email")
	require.NoError(t, err)
	assert.Equal(t, "📧 No emails found in inbox.", out)
	assert.Equal(t, defaultRecentCount, inbox.asked)

	inbox.recent = []Summary{
		{From: "Alice Example", Subject: "Quarterly report draft for review by Friday afternoon", Date: sentAt},
		{From: "bob@example.com", Subject: ""},
	}
	out, err = m.Invoke(ctx, spectertypes.FuncCheckEmail, map[string]string{"count": "50"})
	require.NoError(t, err)
	assert.Equal(t, maxRecentCount, inbox.asked)
	assert.Contains(t, out, "📧 Recent Emails (2):")
	assert.Contains(t, out, "1. From: Alice Example\n   Subject: Quarterly report draft for review by Friday aftern\n   Date: 02/03 09:30")
	assert.Contains(t, out, "2. From: bob@example.com\n   Subject: No subject\n   Date: Unknown time")

	for count, want := range map[int]string{
		0: "📧 No unread emails.",
		1: "📧 You have 1 unread email.",
		7: "📧 You have 7 unread emails.",
	} {
		inbox.unread = count
		out, err = m.Handle(ctx, "any unread mail?")
		require.NoError(t, err)
		assert.Equal(t, want, out)
	}

	inbox.err = errors.New("imap down")
	assert.Equal(t, "❌ Error checking unread emails.", m.Unread(ctx))
	assert.Equal(t, "❌ Error checking emails. Please verify your email settings.", m.CheckInbox(ctx, 3))
}

func TestInvoke_Unsupported(t *testing.T) {
	m, _, _, _ := newTestModule(t)
	_, err := m.Invoke(context.Background(), spectertypes.FuncPlayMusic, nil)
	assert.ErrorIs(t, err, spectertypes.ErrUnsupportedFunction)

	out, err := m.Invoke(context.Background(), spectertypes.FuncSendEmail, map[string]string{"command": "email my boss"})
	require.NoError(t, err)
	assert.Contains(t, out, "Who should I send it to?")
}

func TestSetupInstructions(t *testing.T) {
	text := SetupInstructions()
	assert.Contains(t, text, "EMAIL_ADDRESS=")
	assert.Contains(t, text, "Gmail, Outlook, Yahoo, iCloud")
}
