package email

import (
	"time"
)

// DefaultFolder is the mailbox used when none is given.
const DefaultFolder = "INBOX"

// Address represents an email address
type Address struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RawMessage is a message as fetched from the server, before translation.
type RawMessage struct {
	Folder       string
	UID          uint32
	SeqNum       uint32
	InternalDate time.Time
	// Raw holds the full RFC 5322 bytes (BODY.PEEK[]).
	Raw []byte
}

// ID returns the stable identifier of the message.
func (m *RawMessage) ID() string {
	return MessageID(m.Folder, m.UID)
}

// Summary is the short form of a message returned when listing a folder.
type Summary struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	Sender      string `json:"sender"`
	Date        string `json:"date"`
	BodySummary string `json:"body_summary"`
}

// Detail is the full form of a single message.
type Detail struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	To      string `json:"to"`
	Date    string `json:"date"`
	Body    string `json:"body"`
}

// SendOptions represents options for sending an email
type SendOptions struct {
	From     Address
	To       []Address
	Subject  string
	TextBody string

	// MessageIDDomain is the right-hand side of the generated Message-ID.
	// Empty means "localhost".
	MessageIDDomain string
}

// Folder represents an email folder
type Folder struct {
	Name  string   `json:"name"`
	Flags []string `json:"flags,omitempty"`
}
