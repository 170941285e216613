package email

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-mbox"
	gomessage "github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

// WriteMbox writes msgs to w in mbox format, oldest first.
func WriteMbox(w io.Writer, msgs []*RawMessage) error {
	mw := mbox.NewWriter(w)

	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]

		date := msg.InternalDate
		if date.IsZero() {
			date = time.Now()
		}

		entry, err := mw.CreateMessage(envelopeSender(msg.Raw), date)
		if err != nil {
			return fmt.Errorf("creating mbox entry for %s: %w", msg.ID(), err)
		}
		if _, err := entry.Write(msg.Raw); err != nil {
			return fmt.Errorf("writing mbox entry for %s: %w", msg.ID(), err)
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing mbox writer: %w", err)
	}
	return nil
}

// envelopeSender extracts the bare From address for the mbox separator line.
func envelopeSender(raw []byte) string {
	const unknown = "MAILER-DAEMON"

	entity, err := gomessage.Read(bytes.NewReader(raw))
	if err != nil && !tolerable(err) {
		return unknown
	}
	h := mail.Header{Header: entity.Header}
	addrs, err := h.AddressList("From")
	if err != nil || len(addrs) == 0 || addrs[0].Address == "" {
		return unknown
	}
	return addrs[0].Address
}
