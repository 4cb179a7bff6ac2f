package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// Provider holds the mail hosts for one address domain.
type Provider struct {
	Name     string
	SMTPHost string
	SMTPPort int
	IMAPHost string
	IMAPPort int
}

var providers = map[string]Provider{
	"gmail.com":   {"Gmail", "smtp.gmail.com", 587, "imap.gmail.com", 993},
	"outlook.com": {"Outlook", "smtp-mail.outlook.com", 587, "imap-mail.outlook.com", 993},
	"hotmail.com": {"Outlook", "smtp-mail.outlook.com", 587, "imap-mail.outlook.com", 993},
	"live.com":    {"Outlook", "smtp-mail.outlook.com", 587, "imap-mail.outlook.com", 993},
	"yahoo.com":   {"Yahoo", "smtp.mail.yahoo.com", 587, "imap.mail.yahoo.com", 993},
	"icloud.com":  {"iCloud", "smtp.mail.me.com", 587, "imap.mail.me.com", 993},
	"me.com":      {"iCloud", "smtp.mail.me.com", 587, "imap.mail.me.com", 993},
}

// ProviderFor looks up the provider for an address by its domain.
func ProviderFor(address string) (Provider, bool) {
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return Provider{}, false
	}
	p, ok := providers[strings.ToLower(address[at+1:])]
	return p, ok
}

// SupportedProviders returns the distinct provider names, sorted.
func SupportedProviders() []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range providers {
		if !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Sender delivers one RFC 5322 message.
type Sender interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// Summary is the envelope of one inbox message.
type Summary struct {
	From    string
	Subject string
	Date    time.Time
}

// Inbox reads the account's INBOX.
type Inbox interface {
	Recent(ctx context.Context, n int) ([]Summary, error)
	UnreadCount(ctx context.Context) (int, error)
}

// BuildMessage renders a plain-text message with UTF-8 headers.
func BuildMessage(from, to, subject, body string, date time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// smtpSender submits mail with STARTTLS and PLAIN auth.
type smtpSender struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
}

func (s *smtpSender) Send(ctx context.Context, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	dialer := net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(s.timeout))
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to start SMTP session: %w", err)
	}
	defer func() {
		_ = c.Close()
	}()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	if err := c.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// imapInbox reads INBOX over implicit TLS. Each call opens its own session.
type imapInbox struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
}

func (i *imapInbox) dial() (*client.Client, error) {
	addr := net.JoinHostPort(i.host, strconv.Itoa(i.port))
	c, err := client.DialWithDialerTLS(&net.Dialer{Timeout: i.timeout}, addr, &tls.Config{ServerName: i.host})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	c.Timeout = i.timeout
	if err := c.Login(i.username, i.password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return c, nil
}

func (i *imapInbox) Recent(ctx context.Context, n int) ([]Summary, error) {
	c, err := i.dial()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = c.Logout()
	}()

	mbox, err := c.Select("INBOX", true)
	if err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	from := uint32(1)
	if mbox.Messages > uint32(n) {
		from = mbox.Messages - uint32(n) + 1
	}
	seqset := new(imap.SeqSet)
	seqset.AddRange(from, mbox.Messages)

	messages := make(chan *imap.Message, n)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope}, messages)
	}()

	var out []Summary
	for msg := range messages {
		if msg.Envelope == nil {
			continue
		}
		out = append(out, Summary{
			From:    senderName(msg.Envelope.From),
			Subject: msg.Envelope.Subject,
			Date:    msg.Envelope.Date,
		})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// newest first
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out, nil
}

func (i *imapInbox) UnreadCount(ctx context.Context) (int, error) {
	c, err := i.dial()
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = c.Logout()
	}()

	if _, err := c.Select("INBOX", true); err != nil {
		return 0, fmt.Errorf("failed to select INBOX: %w", err)
	}
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := c.Search(criteria)
	if err != nil {
		return 0, fmt.Errorf("failed to search INBOX: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func senderName(addrs []*imap.Address) string {
	if len(addrs) == 0 || addrs[0] == nil {
		return "Unknown sender"
	}
	if addrs[0].PersonalName != "" {
		return addrs[0].PersonalName
	}
	return addrs[0].Address()
}
