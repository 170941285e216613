// Package mailtool runs the mailbox operations of the mail tool against a
// single configured account and reports every outcome as a Result.
package mailtool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/mcp-mail/tool/pkgs/config"
	"github.com/mcp-mail/tool/pkgs/email"
	"github.com/mcp-mail/tool/pkgs/retry"
)

// DefaultLimit is the number of messages Read returns when no positive limit
// is given.
const DefaultLimit = 10

// Dialer opens authenticated sessions. Every call must return a new
// connection owned by the caller.
type Dialer interface {
	OpenIMAP() (*email.IMAPClient, error)
	OpenSMTP() (*email.SMTPClient, error)
}

// Manager runs mailbox operations. It holds no mutable state and is safe for
// concurrent use; each call opens and closes its own connection.
type Manager struct {
	cfg    *config.Config
	cfgErr error

	dialer Dialer
	logger *log.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option customizes a Manager.
type Option func(*Manager)

// WithDialer overrides the connection factory.
func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		if d != nil {
			m.dialer = d
		}
	}
}

// WithLogger sets the logger used for connection and retry diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the wall clock, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRetrySleep overrides the pause between attempts, primarily for tests.
func WithRetrySleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Manager) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// New returns a Manager for cfg. An invalid or nil cfg does not fail here:
// every operation then reports CONFIGURATION_ERROR without touching the
// network.
func New(cfg *config.Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:    cfg,
		logger: log.New(io.Discard, "", 0),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if cfg == nil {
		m.cfgErr = errors.New("no configuration loaded")
	} else if err := cfg.Validate(); err != nil {
		m.cfgErr = err
	}
	if m.dialer == nil && m.cfgErr == nil {
		m.dialer = newDialer(cfg, m.logger)
	}
	return m
}

func newDialer(cfg *config.Config, logger *log.Logger) *email.Dialer {
	imapSSL, imapStartTLS := email.IMAPTransport(cfg.UseSSL, cfg.IMAPPort)
	smtpSSL, smtpStartTLS := email.SMTPTransport(cfg.UseSSL, cfg.SMTPPort)

	return email.NewDialer(
		email.IMAPConfig{
			Host:     cfg.IMAPServer,
			Port:     cfg.IMAPPort,
			Username: cfg.Email,
			Password: cfg.Password,
			SSL:      imapSSL,
			StartTLS: imapStartTLS,
		},
		email.SMTPConfig{
			Host:     cfg.SMTPServer,
			Port:     cfg.SMTPPort,
			Username: cfg.Email,
			Password: cfg.Password,
			SSL:      smtpSSL,
			StartTLS: smtpStartTLS,
		},
		email.WithDialLogger(logger),
	)
}

// Read returns summaries of the limit most recent messages of folder,
// newest first. Messages that cannot be decoded are skipped.
func (m *Manager) Read(ctx context.Context, folder string, limit int) Result {
	if m.cfgErr != nil {
		return m.configFailure()
	}
	if folder == "" {
		folder = email.DefaultFolder
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var raws []*email.RawMessage
	err := m.withIMAP(ctx, "read "+folder, func(c *email.IMAPClient) error {
		var err error
		raws, err = c.FetchRecent(folder, limit)
		return err
	})
	if err != nil {
		return fail(err)
	}

	summaries := make([]*email.Summary, 0, len(raws))
	for _, raw := range raws {
		s, err := email.ToSummary(raw, m.cfg.SummaryLength)
		if err != nil {
			m.logger.Printf("read %s: skipping message %s: %v", folder, raw.ID(), err)
			continue
		}
		summaries = append(summaries, s)
	}

	return &ReadResult{Success: true, Emails: summaries, Count: len(summaries)}
}

// Get returns the full content of the message named by id.
func (m *Manager) Get(ctx context.Context, id string) Result {
	if m.cfgErr != nil {
		return m.configFailure()
	}

	folder, uid, err := email.ParseMessageID(id)
	if err != nil {
		return fail(err)
	}

	var raw *email.RawMessage
	err = m.withIMAP(ctx, "get "+id, func(c *email.IMAPClient) error {
		var err error
		raw, err = c.FetchByUID(folder, uid)
		if email.KindOf(err) == email.KindFolderNotFound {
			return email.NewError(email.KindEmailNotFound, "get "+id, err)
		}
		return err
	})
	if err != nil {
		return fail(err)
	}

	detail, err := email.ToDetail(raw)
	if err != nil {
		return fail(err)
	}
	return &GetResult{Success: true, Detail: *detail}
}

// Send submits a plain-text message from the account address to a single
// recipient. A malformed recipient is rejected before any connection.
func (m *Manager) Send(ctx context.Context, to, subject, body string) Result {
	if m.cfgErr != nil {
		return m.configFailure()
	}

	rcpt, err := email.ParseRecipient(to)
	if err != nil {
		return fail(err)
	}

	opts := email.SendOptions{
		From:     email.Address{Name: m.cfg.FromName, Email: m.cfg.Email},
		To:       []email.Address{rcpt},
		Subject:  subject,
		TextBody: body,

		MessageIDDomain: m.cfg.Domain(),
	}
	err = m.withSMTP(ctx, "send to "+rcpt.Email, func(c *email.SMTPClient) error {
		return c.Send(opts)
	})
	if err != nil {
		return fail(err)
	}

	return &SendResult{
		Success:   true,
		Message:   "Email sent to " + rcpt.Email,
		Timestamp: m.now().Format(time.RFC3339),
	}
}

// Folders lists the folders of the account.
func (m *Manager) Folders(ctx context.Context) Result {
	if m.cfgErr != nil {
		return m.configFailure()
	}

	var folders []email.Folder
	err := m.withIMAP(ctx, "list folders", func(c *email.IMAPClient) error {
		var err error
		folders, err = c.ListFolders()
		return err
	})
	if err != nil {
		return fail(err)
	}
	if folders == nil {
		folders = []email.Folder{}
	}
	return &FoldersResult{Success: true, Folders: folders, Count: len(folders)}
}

// Export writes the limit most recent messages of folder to w in mbox
// format, oldest first. Messages are copied verbatim.
func (m *Manager) Export(ctx context.Context, folder string, limit int, w io.Writer) Result {
	if m.cfgErr != nil {
		return m.configFailure()
	}
	if folder == "" {
		folder = email.DefaultFolder
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var raws []*email.RawMessage
	err := m.withIMAP(ctx, "export "+folder, func(c *email.IMAPClient) error {
		var err error
		raws, err = c.FetchRecent(folder, limit)
		return err
	})
	if err != nil {
		return fail(err)
	}

	if err := email.WriteMbox(w, raws); err != nil {
		return failKind(email.KindEncodingError, err)
	}
	return &ExportResult{
		Success: true,
		Message: fmt.Sprintf("Exported %d message(s) from %s", len(raws), folder),
		Count:   len(raws),
	}
}

func (m *Manager) configFailure() *Failure {
	return failKind(email.KindConfigurationError, m.cfgErr)
}

// policy builds the retry policy for one call.
func (m *Manager) policy(op string) *retry.Policy {
	opts := []retry.Option{
		retry.WithOnRetry(func(attempt, attempts int, err error) {
			m.logger.Printf("%s: attempt %d/%d failed: %v", op, attempt, attempts, err)
		}),
	}
	if m.sleep != nil {
		opts = append(opts, retry.WithSleep(m.sleep))
	}
	return retry.New(m.cfg.RetryCount, m.cfg.RetryInterval(), opts...)
}

// withIMAP runs fn on a fresh IMAP session. Connecting and fn are retried
// together, and the session is closed after every attempt.
func (m *Manager) withIMAP(ctx context.Context, op string, fn func(*email.IMAPClient) error) error {
	return m.policy(op).Do(ctx, func() error {
		c, err := m.dialer.OpenIMAP()
		if err != nil {
			return err
		}
		defer m.release(op, c)
		return fn(c)
	}, email.IsRetryable)
}

// withSMTP is withIMAP for SMTP sessions.
func (m *Manager) withSMTP(ctx context.Context, op string, fn func(*email.SMTPClient) error) error {
	return m.policy(op).Do(ctx, func() error {
		c, err := m.dialer.OpenSMTP()
		if err != nil {
			return err
		}
		defer m.release(op, c)
		return fn(c)
	}, email.IsRetryable)
}

func (m *Manager) release(op string, c io.Closer) {
	if err := c.Close(); err != nil {
		m.logger.Printf("%s: closing connection: %v", op, err)
	}
}
