package email

import (
	"fmt"
	"strings"

	"github.com/emersion/go-message/mail"
)

// ParseRecipient validates a single recipient such as "bob@example.com" or
// "Bob <bob@example.com>". The domain must contain a dot.
func ParseRecipient(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, NewError(KindInvalidEmailFormat, "parse recipient",
			fmt.Errorf("recipient address is empty"))
	}

	addr, err := mail.ParseAddress(s)
	if err != nil {
		return Address{}, NewError(KindInvalidEmailFormat, "parse recipient",
			fmt.Errorf("invalid recipient address %q: %w", s, err))
	}

	at := strings.LastIndex(addr.Address, "@")
	domain := addr.Address[at+1:]
	if at <= 0 || !strings.Contains(domain, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return Address{}, NewError(KindInvalidEmailFormat, "parse recipient",
			fmt.Errorf("invalid recipient address %q: domain must be fully qualified", s))
	}

	return Address{Name: addr.Name, Email: addr.Address}, nil
}
