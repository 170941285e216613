package email

import (
	"io"
	"log"
	"net"
	"strconv"
)

// Conventional ports.
const (
	IMAPPort       = 143
	IMAPSPort      = 993
	SMTPPort       = 25
	SMTPSPort      = 465
	SubmissionPort = 587
)

// Dialer opens authenticated IMAP and SMTP sessions for one account. Every
// call returns a fresh connection owned by the caller.
type Dialer struct {
	imap   IMAPConfig
	smtp   SMTPConfig
	logger *log.Logger
}

// DialerOption customizes a Dialer.
type DialerOption func(*Dialer)

// WithDialLogger sets the logger used for connection diagnostics.
func WithDialLogger(logger *log.Logger) DialerOption {
	return func(d *Dialer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDialer returns a Dialer for the given server settings.
func NewDialer(imapCfg IMAPConfig, smtpCfg SMTPConfig, opts ...DialerOption) *Dialer {
	d := &Dialer{
		imap:   imapCfg,
		smtp:   smtpCfg,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OpenIMAP connects and logs in to the IMAP server.
func (d *Dialer) OpenIMAP() (*IMAPClient, error) {
	c := NewIMAPClient(d.imap)
	d.logger.Printf("imap: connecting to %s (ssl=%t starttls=%t)", hostPort(d.imap.Host, d.imap.Port), d.imap.SSL, d.imap.StartTLS)
	if err := c.Connect(); err != nil {
		d.logger.Printf("imap: %v", err)
		return nil, err
	}
	d.logger.Printf("imap: authenticated as %s", d.imap.Username)
	return c, nil
}

// OpenSMTP connects and authenticates to the SMTP server.
func (d *Dialer) OpenSMTP() (*SMTPClient, error) {
	c := NewSMTPClient(d.smtp)
	d.logger.Printf("smtp: connecting to %s (ssl=%t starttls=%t)", hostPort(d.smtp.Host, d.smtp.Port), d.smtp.SSL, d.smtp.StartTLS)
	if err := c.Connect(); err != nil {
		d.logger.Printf("smtp: %v", err)
		return nil, err
	}
	d.logger.Printf("smtp: authenticated as %s", d.smtp.Username)
	return c, nil
}

// IMAPTransport picks the IMAP transport. With TLS enabled, port 143 is
// upgraded with STARTTLS and any other port uses implicit TLS.
func IMAPTransport(useTLS bool, port int) (ssl, startTLS bool) {
	if !useTLS {
		return false, false
	}
	if port == IMAPPort {
		return false, true
	}
	return true, false
}

// SMTPTransport picks the SMTP transport. With TLS enabled, port 465 uses
// implicit TLS and any other port is upgraded with STARTTLS.
func SMTPTransport(useTLS bool, port int) (ssl, startTLS bool) {
	if !useTLS {
		return false, false
	}
	if port == SMTPSPort {
		return true, false
	}
	return false, true
}

func hostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
