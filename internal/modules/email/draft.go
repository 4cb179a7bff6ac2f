package email

import (
	"fmt"
	"strings"

	"specter/internal/extract"
	"specter/internal/storage"
)

// DraftFile is the draft file name inside the data directory.
const DraftFile = "email_draft.txt"

// Draft is the single saved outgoing message.
type Draft struct {
	To      string
	Subject string
	Message string
}

// DraftFromFields converts extracted fields into a draft.
func DraftFromFields(f extract.EmailFields) Draft {
	return Draft{To: f.Recipient, Subject: f.Subject, Message: f.Message}
}

// String renders the draft in its on-disk form.
func (d Draft) String() string {
	return fmt.Sprintf("To: %s\nSubject: %s\nMessage:\n%s\n", d.To, d.Subject, d.Message)
}

// ParseDraft reads the labeled To:/Subject:/Message: sections. Everything after
// the Message: label, including further lines, is the body.
func ParseDraft(text string) (Draft, error) {
	var d Draft
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "To:"):
			d.To = strings.TrimSpace(strings.TrimPrefix(line, "To:"))
		case strings.HasPrefix(line, "Subject:"):
			d.Subject = strings.TrimSpace(strings.TrimPrefix(line, "Subject:"))
		case strings.HasPrefix(line, "Message:"):
			body := []string{strings.TrimSpace(strings.TrimPrefix(line, "Message:"))}
			body = append(body, lines[i+1:]...)
			d.Message = strings.TrimSpace(strings.Join(body, "\n"))
			if d.To == "" {
				return Draft{}, fmt.Errorf("draft has no recipient")
			}
			return d, nil
		}
	}
	if d.To == "" {
		return Draft{}, fmt.Errorf("draft has no recipient")
	}
	return d, nil
}

// draftStore owns the draft file.
type draftStore struct {
	path string
}

func (s draftStore) load() (Draft, bool, error) {
	text, ok, err := storage.ReadText(s.path)
	if err != nil || !ok || strings.TrimSpace(text) == "" {
		return Draft{}, false, err
	}
	d, err := ParseDraft(text)
	if err != nil {
		return Draft{}, false, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return d, true, nil
}

func (s draftStore) save(d Draft) error {
	return storage.WriteFileAtomic(s.path, []byte(d.String()))
}

func (s draftStore) discard() error {
	return storage.Remove(s.path)
}
