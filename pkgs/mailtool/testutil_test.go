package mailtool

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-imap/v2/imapserver"
	"github.com/emersion/go-imap/v2/imapserver/imapmemserver"
	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/stretchr/testify/require"

	"github.com/mcp-mail/tool/pkgs/config"
	"github.com/mcp-mail/tool/pkgs/email"
)

const (
	testUser = "me@example.com"
	testPass = "testpass"
)

// connTracker counts the connections a test server accepts and how many of
// them are still open on the server side.
type connTracker struct {
	net.Listener

	mu       sync.Mutex
	accepted int
	open     int
}

func (l *connTracker) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.accepted++
	l.open++
	l.mu.Unlock()
	return &trackedConn{Conn: c, tracker: l}, nil
}

func (l *connTracker) counts() (accepted, open int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accepted, l.open
}

type trackedConn struct {
	net.Conn
	tracker *connTracker
	once    sync.Once
}

func (c *trackedConn) Close() error {
	c.once.Do(func() {
		c.tracker.mu.Lock()
		c.tracker.open--
		c.tracker.mu.Unlock()
	})
	return c.Conn.Close()
}

// newTestIMAPServer starts an in-memory IMAP server with INBOX and Archive.
func newTestIMAPServer(t *testing.T) (string, *connTracker) {
	t.Helper()

	memSrv := imapmemserver.New()
	user := imapmemserver.NewUser(testUser, testPass)
	require.NoError(t, user.Create("INBOX", nil))
	require.NoError(t, user.Create("Archive", nil))
	memSrv.AddUser(user)

	srv := imapserver.New(&imapserver.Options{
		NewSession: func(_ *imapserver.Conn) (imapserver.Session, *imapserver.GreetingData, error) {
			return memSrv.NewSession(), nil, nil
		},
		InsecureAuth: true,
		Caps: imap.CapSet{
			imap.CapIMAP4rev1: {},
		},
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	tracker := &connTracker{Listener: ln}

	go srv.Serve(tracker)
	t.Cleanup(func() { srv.Close() })

	return ln.Addr().String(), tracker
}

// appendTestMail stores rawMsg in mailbox with a plain IMAP client.
func appendTestMail(t *testing.T, addr, mailbox, rawMsg string) {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	c := imapclient.New(conn, nil)
	defer c.Close()

	require.NoError(t, c.Login(testUser, testPass).Wait())

	appendCmd := c.Append(mailbox, int64(len(rawMsg)), nil)
	_, err = appendCmd.Write([]byte(rawMsg))
	require.NoError(t, err)
	require.NoError(t, appendCmd.Close())
	_, err = appendCmd.Wait()
	require.NoError(t, err)
}

// testMail renders a plain-text message with a distinct subject and date.
func testMail(n int) string {
	return "MIME-Version: 1.0\r\n" +
		"From: Sender <sender@example.com>\r\n" +
		"To: me@example.com\r\n" +
		fmt.Sprintf("Subject: Message %d\r\n", n) +
		fmt.Sprintf("Date: Mon, 09 Feb 2026 08:%02d:00 +0000\r\n", n) +
		fmt.Sprintf("Message-Id: <test-%d@example.com>\r\n", n) +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		fmt.Sprintf("Body of message %d.\r\n", n)
}

type smtpTestMessage struct {
	From string
	To   []string
	Data []byte
}

type smtpTestBackend struct {
	mu       sync.Mutex
	messages []*smtpTestMessage
}

func (be *smtpTestBackend) NewSession(_ *gosmtp.Conn) (gosmtp.Session, error) {
	return &smtpTestSession{backend: be}, nil
}

func (be *smtpTestBackend) Messages() []*smtpTestMessage {
	be.mu.Lock()
	defer be.mu.Unlock()
	return append([]*smtpTestMessage(nil), be.messages...)
}

type smtpTestSession struct {
	backend *smtpTestBackend
	msg     *smtpTestMessage
}

var _ gosmtp.AuthSession = (*smtpTestSession)(nil)

func (s *smtpTestSession) AuthMechanisms() []string { return []string{sasl.Plain} }

func (s *smtpTestSession) Auth(string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(_, username, password string) error {
		if username != testUser || password != testPass {
			return gosmtp.ErrAuthFailed
		}
		return nil
	}), nil
}

func (s *smtpTestSession) Mail(from string, _ *gosmtp.MailOptions) error {
	s.msg = &smtpTestMessage{From: from}
	return nil
}

func (s *smtpTestSession) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	s.msg.To = append(s.msg.To, to)
	return nil
}

func (s *smtpTestSession) Data(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.msg.Data = b
	s.backend.mu.Lock()
	s.backend.messages = append(s.backend.messages, s.msg)
	s.backend.mu.Unlock()
	return nil
}

func (s *smtpTestSession) Reset()        { s.msg = nil }
func (s *smtpTestSession) Logout() error { return nil }

// newTestSMTPServer starts a plain-text SMTP submission stub.
func newTestSMTPServer(t *testing.T) (*smtpTestBackend, string, *connTracker) {
	t.Helper()

	be := &smtpTestBackend{}
	srv := gosmtp.NewServer(be)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	tracker := &connTracker{Listener: ln}

	go srv.Serve(tracker)
	t.Cleanup(func() { srv.Close() })

	return be, ln.Addr().String(), tracker
}

// closedAddr returns an address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

// testConfig builds a plain-text config for the given server addresses.
func testConfig(t *testing.T, imapAddr, smtpAddr string) *config.Config {
	t.Helper()
	imapHost, imapPort := splitHostPort(t, imapAddr)
	smtpHost, smtpPort := splitHostPort(t, smtpAddr)
	return &config.Config{
		Email:      testUser,
		Password:   testPass,
		IMAPServer: imapHost,
		IMAPPort:   imapPort,
		SMTPServer: smtpHost,
		SMTPPort:   smtpPort,
		UseSSL:     false,
		RetryCount: 3,
		RetryDelay: 1,
	}
}

// countingDialer wraps the real dialer and counts connection attempts. The
// first failIMAP/failSMTP attempts fail with a network error.
type countingDialer struct {
	inner Dialer

	mu       sync.Mutex
	imap     int
	smtp     int
	failIMAP int
	failSMTP int
}

func newCountingDialer(cfg *config.Config) *countingDialer {
	return &countingDialer{inner: newDialer(cfg, nil)}
}

func (d *countingDialer) OpenIMAP() (*email.IMAPClient, error) {
	d.mu.Lock()
	d.imap++
	fail := d.imap <= d.failIMAP
	d.mu.Unlock()
	if fail {
		return nil, email.NewError(email.KindNetworkError, "connect", &net.OpError{Op: "dial", Net: "tcp", Err: io.ErrUnexpectedEOF})
	}
	return d.inner.OpenIMAP()
}

func (d *countingDialer) OpenSMTP() (*email.SMTPClient, error) {
	d.mu.Lock()
	d.smtp++
	fail := d.smtp <= d.failSMTP
	d.mu.Unlock()
	if fail {
		return nil, email.NewError(email.KindNetworkError, "connect", &net.OpError{Op: "dial", Net: "tcp", Err: io.ErrUnexpectedEOF})
	}
	return d.inner.OpenSMTP()
}

func (d *countingDialer) counts() (imapAttempts, smtpAttempts int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.imap, d.smtp
}
