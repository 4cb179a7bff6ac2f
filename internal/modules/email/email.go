// Package email implements the mail capability: a one-message draft workflow,
// SMTP delivery and IMAP inbox summaries for common providers.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"specter/internal/config"
	"specter/internal/extract"
	"specter/internal/logger"
	"specter/pkg/spectertypes"

	"github.com/charmbracelet/log"
)

const (
	defaultRecentCount = 5
	maxRecentCount     = 20
	senderWidth        = 30
	subjectWidth       = 50
)

// ErrMissingCredentials is returned by New when the account is not configured.
var ErrMissingCredentials = errors.New("EMAIL_ADDRESS and EMAIL_PASSWORD are not set")

// Options configures a Module. Sender and Inbox default to SMTP and IMAP
// clients for the address's provider.
type Options struct {
	Config    config.EmailConfig
	DraftPath string
	Timeout   time.Duration
	Sender    Sender
	Inbox     Inbox
	Now       func() time.Time
}

// Module is the email capability.
type Module struct {
	address string
	drafts  draftStore
	sender  Sender
	inbox   Inbox
	now     func() time.Time
	log     *log.Logger
}

// New creates the email module.
func New(opts Options) (*Module, error) {
	cfg := opts.Config
	if cfg.Password == "" || !strings.Contains(cfg.Address, "@") {
		return nil, ErrMissingCredentials
	}
	if opts.DraftPath == "" {
		return nil, fmt.Errorf("draft path is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Sender == nil || opts.Inbox == nil {
		provider, ok := ProviderFor(cfg.Address)
		if !ok {
			return nil, fmt.Errorf("unsupported email provider for %s (supported: %s)",
				cfg.Address, strings.Join(SupportedProviders(), ", "))
		}
		if opts.Sender == nil {
			opts.Sender = &smtpSender{
				host: provider.SMTPHost, port: provider.SMTPPort,
				username: cfg.Address, password: cfg.Password, timeout: opts.Timeout,
			}
		}
		if opts.Inbox == nil {
			opts.Inbox = &imapInbox{
				host: provider.IMAPHost, port: provider.IMAPPort,
				username: cfg.Address, password: cfg.Password, timeout: opts.Timeout,
			}
		}
	}

	return &Module{
		address: cfg.Address,
		drafts:  draftStore{path: opts.DraftPath},
		sender:  opts.Sender,
		inbox:   opts.Inbox,
		now:     opts.Now,
		log:     logger.NewStyledLogger("Email"),
	}, nil
}

// Slot returns the email slot.
func (m *Module) Slot() spectertypes.Slot {
	return spectertypes.SlotEmail
}

// Handle dispatches a free-form mail command.
func (m *Module) Handle(ctx context.Context, command string) (string, error) {
	lower := strings.ToLower(command)

	switch {
	case containsAny(lower, "send draft", "send the draft", "send my draft"):
		return m.SendDraft(ctx)
	case containsAny(lower, "discard draft", "delete draft", "discard the draft", "delete the draft", "cancel draft"):
		return m.DiscardDraft()
	case containsAny(lower, "show draft", "get draft", "view draft", "show the draft", "show my draft", "read draft"):
		return m.GetDraft()
	}

	// An address alone is not a request to write; "check mail from x@y.com" reads the inbox.
	if extract.LooksLikeEmailComposition(command) {
		if fields, ok := extract.ExtractEmailLocal(command); ok {
			return m.Compose(DraftFromFields(fields))
		}
	}

	switch {
	case strings.Contains(lower, "unread"):
		return m.Unread(ctx), nil
	case containsAny(lower, "check", "inbox", "read email", "read mail", "recent email"):
		return m.CheckInbox(ctx, defaultRecentCount), nil
	}
	return "I can help you send emails or check your inbox. Try \"send email to name@example.com " +
		"subject Hello message See you soon\" or \"check email\".", nil
}

// Invoke serves the classifier's email functions.
func (m *Module) Invoke(ctx context.Context, fn spectertypes.Function, params map[string]string) (string, error) {
	switch fn {
	case spectertypes.FuncSendEmail:
		fields := extract.FieldsFromParams(params)
		if fields.Recipient == "" {
			local, ok := extract.ExtractEmailLocal(params["command"])
			if !ok {
				return "Who should I send it to? Please include an email address.", nil
			}
			fields = local
		}
		return m.Compose(DraftFromFields(fields))
	case spectertypes.FuncSendDraft:
		return m.SendDraft(ctx)
	case spectertypes.FuncGetDraft:
		return m.GetDraft()
	case spectertypes.FuncDiscardDraft:
		return m.DiscardDraft()
	case spectertypes.FuncCheckEmail:
		count := defaultRecentCount
		if n, err := strconv.Atoi(params["count"]); err == nil {
			count = n
		}
		return m.CheckInbox(ctx, count), nil
	case spectertypes.FuncUnreadEmail:
		return m.Unread(ctx), nil
	default:
		return "", fmt.Errorf("%w: %s", spectertypes.ErrUnsupportedFunction, fn)
	}
}

// Compose saves d as the draft, replacing any previous one, and shows it.
func (m *Module) Compose(d Draft) (string, error) {
	if strings.TrimSpace(d.Subject) == "" {
		d.Subject = "(no subject)"
	}
	if err := m.drafts.save(d); err != nil {
		return "", fmt.Errorf("failed to save draft: %w", err)
	}
	m.log.Info("Draft saved", "to", d.To)
	return fmt.Sprintf("📝 Draft saved:\n\n%s\nSay \"send draft\" to send it or \"discard draft\" to delete it.", d), nil
}

// GetDraft shows the saved draft.
func (m *Module) GetDraft() (string, error) {
	d, ok, err := m.drafts.load()
	if err != nil {
		return "", err
	}
	if !ok {
		return "📭 No saved draft.", nil
	}
	return fmt.Sprintf("📝 Current draft:\n\n%s", d), nil
}

// DiscardDraft deletes the saved draft. Discarding when none exists is not an error.
func (m *Module) DiscardDraft() (string, error) {
	_, ok, err := m.drafts.load()
	if err != nil {
		m.log.Warn("Discarding unreadable draft", "error", err)
	}
	if err := m.drafts.discard(); err != nil {
		return "", err
	}
	if !ok {
		return "📭 No saved draft.", nil
	}
	return "🗑️ Draft discarded.", nil
}

// SendDraft delivers the saved draft and removes it on success.
func (m *Module) SendDraft(ctx context.Context) (string, error) {
	d, ok, err := m.drafts.load()
	if err != nil {
		return "", err
	}
	if !ok {
		return "📭 No draft to send. Compose one first, e.g. \"send email to name@example.com subject Hi message Hello\".", nil
	}

	msg := BuildMessage(m.address, d.To, d.Subject, d.Message, m.now())
	if err := m.sender.Send(ctx, m.address, []string{d.To}, msg); err != nil {
		m.log.Error("Send failed", "to", d.To, "error", err)
		var tpErr *textproto.Error
		if errors.As(err, &tpErr) && tpErr.Code == 535 {
			return "❌ Email authentication failed. Please check your email credentials.", nil
		}
		return fmt.Sprintf("❌ Error sending email: %v. The draft was kept.", err), nil
	}

	if err := m.drafts.discard(); err != nil {
		m.log.Error("Failed to clear draft after sending", "error", err)
	}
	m.log.Info("Email sent", "to", d.To)
	return fmt.Sprintf("✅ Email sent successfully to %s", d.To), nil
}

// CheckInbox lists the n most recent inbox messages, newest first.
func (m *Module) CheckInbox(ctx context.Context, n int) string {
	if n < 1 {
		n = 1
	}
	if n > maxRecentCount {
		n = maxRecentCount
	}

	messages, err := m.inbox.Recent(ctx, n)
	if err != nil {
		m.log.Error("Inbox check failed", "error", err)
		return "❌ Error checking emails. Please verify your email settings."
	}
	if len(messages) == 0 {
		return "📧 No emails found in inbox."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📧 Recent Emails (%d):", len(messages))
	for i, msg := range messages {
		date := "Unknown time"
		if !msg.Date.IsZero() {
			date = msg.Date.Format("01/02 15:04")
		}
		subject := msg.Subject
		if subject == "" {
			subject = "No subject"
		}
		fmt.Fprintf(&b, "\n\n%d. From: %s\n   Subject: %s\n   Date: %s",
			i+1, clip(msg.From, senderWidth), clip(subject, subjectWidth), date)
	}
	return b.String()
}

// Unread reports the unread message count.
func (m *Module) Unread(ctx context.Context) string {
	count, err := m.inbox.UnreadCount(ctx)
	if err != nil {
		m.log.Error("Unread count failed", "error", err)
		return "❌ Error checking unread emails."
	}
	switch count {
	case 0:
		return "📧 No unread emails."
	case 1:
		return "📧 You have 1 unread email."
	default:
		return fmt.Sprintf("📧 You have %d unread emails.", count)
	}
}

// SetupInstructions explains how to configure the account.
func SetupInstructions() string {
	return "📧 Email Setup Required\n\n" +
		"Add these to your .env file:\n\n" +
		"EMAIL_ADDRESS=your_email@gmail.com\n" +
		"EMAIL_PASSWORD=your_app_password\n\n" +
		"For Gmail, enable 2-factor authentication and use an App Password.\n" +
		"Supported providers: " + strings.Join(SupportedProviders(), ", ")
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func clip(s string, width int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= width {
		return string(runes)
	}
	return string(runes[:width])
}
