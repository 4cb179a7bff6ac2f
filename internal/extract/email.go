// Package extract pulls structured email fields out of free text, either from a
// text-generation reply in JSON form or with local label patterns.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Parameter keys carried in an intent for send_email.
const (
	ParamRecipient = "recipient"
	ParamSubject   = "subject"
	ParamMessage   = "message"
)

var (
	recipientPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	subjectPattern   = regexp.MustCompile(`(?i)\bsubject\s*(?::\s*|is\s+)?(.+?)(?:\s+(?:message|body|saying)\b|$)`)
	messagePattern   = regexp.MustCompile(`(?i)\b(?:message|body|saying)\s*(?::\s*|is\s+)?(.+)$`)
	fencePattern     = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

	sendVerbs = map[string]bool{"send": true, "write": true, "compose": true, "drop": true}
	// nounVerbs only count as a verb when they open the command, as in "email bob@x.com".
	nounVerbs = map[string]bool{"email": true, "mail": true}
)

// EmailFields is the structured form of an email-composition command.
type EmailFields struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

// Params converts the fields into intent parameters, skipping empty values.
func (f EmailFields) Params() map[string]string {
	params := map[string]string{ParamRecipient: f.Recipient}
	if f.Subject != "" {
		params[ParamSubject] = f.Subject
	}
	if f.Message != "" {
		params[ParamMessage] = f.Message
	}
	return params
}

// FieldsFromParams is the inverse of Params.
func FieldsFromParams(params map[string]string) EmailFields {
	return EmailFields{
		Recipient: params[ParamRecipient],
		Subject:   params[ParamSubject],
		Message:   params[ParamMessage],
	}
}

// LooksLikeEmailComposition reports whether text has a sending verb and an "@" token.
// Verbs match whole words only, so "resend" or "mailbox" do not count.
func LooksLikeEmailComposition(text string) bool {
	hasAt, hasVerb := false, false
	for i, tok := range strings.Fields(strings.ToLower(text)) {
		if strings.Contains(tok, "@") {
			hasAt = true
			continue
		}
		word := strings.Trim(tok, ".,;:!?\"'")
		if sendVerbs[word] || (i == 0 && nounVerbs[word]) {
			hasVerb = true
		}
	}
	return hasAt && hasVerb
}

// StripCodeFences removes a surrounding ``` or ```json fence.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// ParseEmailJSON decodes a {"recipient","subject","message"} reply. Null fields become "".
// A reply without a usable recipient is an error.
func ParseEmailJSON(reply string) (EmailFields, error) {
	var raw struct {
		Recipient *string `json:"recipient"`
		Subject   *string `json:"subject"`
		Message   *string `json:"message"`
	}
	if err := json.Unmarshal([]byte(StripCodeFences(reply)), &raw); err != nil {
		return EmailFields{}, fmt.Errorf("invalid email extraction reply: %w", err)
	}

	fields := EmailFields{
		Recipient: deref(raw.Recipient),
		Subject:   deref(raw.Subject),
		Message:   deref(raw.Message),
	}
	if !recipientPattern.MatchString(fields.Recipient) {
		return EmailFields{}, fmt.Errorf("email extraction reply has no valid recipient")
	}
	fields.Recipient = recipientPattern.FindString(fields.Recipient)
	return fields, nil
}

// ExtractEmailLocal applies the label patterns. ok is false when no recipient is present.
// Subject and message labels are only read after the address, so "send a message to ..."
// does not turn the verb phrase into the body.
func ExtractEmailLocal(text string) (EmailFields, bool) {
	loc := recipientPattern.FindStringIndex(text)
	if loc == nil {
		return EmailFields{}, false
	}

	fields := EmailFields{Recipient: text[loc[0]:loc[1]]}
	rest := text[loc[1]:]
	if m := subjectPattern.FindStringSubmatch(rest); m != nil {
		fields.Subject = strings.TrimSpace(m[1])
	}
	if m := messagePattern.FindStringSubmatch(rest); m != nil {
		fields.Message = strings.TrimSpace(m[1])
	}
	return fields, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
