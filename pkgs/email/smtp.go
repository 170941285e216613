package email

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

// SMTPClient represents an SMTP client
type SMTPClient struct {
	config SMTPConfig
	client *smtp.Client
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	SSL      bool
	StartTLS bool

	TLSConfig *tls.Config
}

// NewSMTPClient creates a new SMTP client
func NewSMTPClient(config SMTPConfig) *SMTPClient {
	return &SMTPClient{
		config: config,
	}
}

// Connect establishes a connection to the SMTP server and authenticates.
func (c *SMTPClient) Connect() error {
	var dialFn func(addr string, tlsConfig *tls.Config) (*smtp.Client, error)

	tlsCfg := c.config.TLSConfig
	if tlsCfg == nil {
		tlsCfg = &tls.Config{ServerName: c.config.Host}
	}

	if c.config.SSL {
		dialFn = smtp.DialTLS
	} else if c.config.StartTLS {
		dialFn = smtp.DialStartTLS
	} else {
		dialFn = func(addr string, tlsConfig *tls.Config) (*smtp.Client, error) {
			return smtp.Dial(addr)
		}
	}

	addr := hostPort(c.config.Host, c.config.Port)
	client, err := dialFn(addr, tlsCfg)
	if err != nil {
		return NewError(classifyTransport(err, KindSMTPConnectionFailed),
			"connect to SMTP server "+addr, err)
	}

	if c.config.Password != "" {
		auth := sasl.NewPlainClient("", c.config.Username, c.config.Password)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return NewError(classifyAuth(err), "SMTP authentication", err)
		}
	}

	c.client = client
	return nil
}

// classifyAuth separates credential rejections (permanent 5xx replies) from
// transient or transport failures.
func classifyAuth(err error) Kind {
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		if smtpErr.Code >= 500 {
			return KindAuthenticationFailed
		}
		return KindSMTPConnectionFailed
	}
	return classifyTransport(err, KindSMTPConnectionFailed)
}

// Send submits a plain-text message over the open connection.
func (c *SMTPClient) Send(opts SendOptions) error {
	if c.client == nil {
		return NewError(KindSMTPConnectionFailed, "SMTP session", errors.New("not connected"))
	}
	if len(opts.To) == 0 {
		return NewError(KindInvalidEmailFormat, "send", errors.New("no recipients"))
	}

	msg, err := buildMessage(opts)
	if err != nil {
		return NewError(KindEncodingError, "build message", err)
	}

	if err := c.client.Mail(opts.From.Email, nil); err != nil {
		return submitError("MAIL FROM", err)
	}
	for _, addr := range opts.To {
		if err := c.client.Rcpt(addr.Email, nil); err != nil {
			var smtpErr *smtp.SMTPError
			if errors.As(err, &smtpErr) && smtpErr.Code >= 500 {
				return NewError(KindInvalidEmailFormat, "RCPT TO "+addr.Email, err)
			}
			return submitError("RCPT TO", err)
		}
	}

	w, err := c.client.Data()
	if err != nil {
		return submitError("DATA", err)
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		w.Close()
		return submitError("DATA", err)
	}
	if err := w.Close(); err != nil {
		return submitError("DATA", err)
	}
	return nil
}

func submitError(op string, err error) error {
	return NewError(classifyTransport(err, KindSMTPConnectionFailed), op, err)
}

// buildMessage renders opts as a single-part text/plain message.
func buildMessage(opts SendOptions) (*bytes.Buffer, error) {
	var buf bytes.Buffer

	var header mail.Header
	header.SetDate(time.Now())
	header.SetSubject(opts.Subject)
	header.SetAddressList("From", []*mail.Address{{
		Name:    opts.From.Name,
		Address: opts.From.Email,
	}})

	toAddrs := make([]*mail.Address, len(opts.To))
	for i, addr := range opts.To {
		toAddrs[i] = &mail.Address{
			Name:    addr.Name,
			Address: addr.Email,
		}
	}
	header.SetAddressList("To", toAddrs)
	header.Set("Message-ID", GenerateMessageID(opts.MessageIDDomain))
	header.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	w, err := mail.CreateSingleInlineWriter(&buf, header)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(opts.TextBody)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

// Close closes the SMTP connection
func (c *SMTPClient) Close() error {
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// GenerateMessageID produces a RFC 5322 compliant Message-ID for domain.
// Format: <timestamp.uuid@domain>
func GenerateMessageID(domain string) string {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		domain = "localhost"
	}
	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), uuid.NewString(), domain)
}
