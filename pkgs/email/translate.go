package email

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	gomessage "github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// DefaultSummaryLength is the rune budget of Summary.BodySummary.
const DefaultSummaryLength = 200

// Placeholders used when a message lacks the corresponding field.
const (
	NoSubject        = "(no subject)"
	UnknownSender    = "(unknown sender)"
	UnknownRecipient = "(unknown recipient)"
	NoBody           = "(no body)"
)

// parsedMessage is the decoded content shared by summaries and details, so
// both views of one message always agree.
type parsedMessage struct {
	subject string
	sender  string
	to      string
	date    string
	body    string
}

// ToSummary translates a fetched message into its listing form. The body is
// collapsed to a single line and cut to maxLen runes.
func ToSummary(raw *RawMessage, maxLen int) (*Summary, error) {
	p, err := parseRaw(raw)
	if err != nil {
		return nil, err
	}
	if maxLen <= 0 {
		maxLen = DefaultSummaryLength
	}

	summary := NoBody
	if body := strings.Join(strings.Fields(p.body), " "); body != "" {
		summary = truncate(body, maxLen)
	}

	return &Summary{
		ID:          raw.ID(),
		Subject:     p.subject,
		Sender:      p.sender,
		Date:        p.date,
		BodySummary: summary,
	}, nil
}

// ToDetail translates a fetched message into its full form.
func ToDetail(raw *RawMessage) (*Detail, error) {
	p, err := parseRaw(raw)
	if err != nil {
		return nil, err
	}

	body := strings.TrimSpace(p.body)
	if body == "" {
		body = NoBody
	}

	return &Detail{
		ID:      raw.ID(),
		Subject: p.subject,
		Sender:  p.sender,
		To:      p.to,
		Date:    p.date,
		Body:    body,
	}, nil
}

func parseRaw(raw *RawMessage) (*parsedMessage, error) {
	op := "decode message " + raw.ID()
	if len(raw.Raw) == 0 {
		return nil, NewError(KindEncodingError, op, errors.New("message has no content"))
	}

	entity, err := gomessage.Read(bytes.NewReader(raw.Raw))
	if err != nil && !tolerable(err) {
		return nil, NewError(KindEncodingError, op, err)
	}

	h := mail.Header{Header: entity.Header}

	subject, err := headerText(h, "Subject", NoSubject)
	if err != nil {
		return nil, NewError(KindEncodingError, op, err)
	}
	sender, err := headerText(h, "From", UnknownSender)
	if err != nil {
		return nil, NewError(KindEncodingError, op, err)
	}
	to, err := headerText(h, "To", UnknownRecipient)
	if err != nil {
		return nil, NewError(KindEncodingError, op, err)
	}

	date := strings.TrimSpace(h.Get("Date"))
	if date == "" && !raw.InternalDate.IsZero() {
		date = raw.InternalDate.Format(time.RFC1123Z)
	}

	var bodies textBodies
	if err := parseEntityBody(&bodies, entity); err != nil {
		return nil, NewError(KindEncodingError, op, err)
	}

	return &parsedMessage{
		subject: subject,
		sender:  sender,
		to:      to,
		date:    date,
		body:    bodies.text(),
	}, nil
}

// headerText decodes MIME encoded-words in header k.
func headerText(h mail.Header, k, placeholder string) (string, error) {
	v, err := h.Text(k)
	if err != nil {
		return "", fmt.Errorf("decode %s header: %w", k, err)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return placeholder, nil
	}
	return v, nil
}

// truncate truncates a string to maxLen runes, preserving UTF-8 boundaries.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}
