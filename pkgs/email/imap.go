package email

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// DialTimeout bounds the TCP connect of IMAP sessions.
const DialTimeout = 30 * time.Second

// IMAPClient represents an IMAP client
type IMAPClient struct {
	config IMAPConfig
	client *imapclient.Client
}

// IMAPConfig holds IMAP configuration
type IMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	SSL      bool
	StartTLS bool

	// TLSConfig overrides the client TLS settings. Nil verifies against the
	// system roots using Host as server name.
	TLSConfig *tls.Config
}

// NewIMAPClient creates a new IMAP client
func NewIMAPClient(config IMAPConfig) *IMAPClient {
	return &IMAPClient{
		config: config,
	}
}

// Connect establishes a connection to the IMAP server and logs in.
func (c *IMAPClient) Connect() error {
	addr := hostPort(c.config.Host, c.config.Port)

	opts := &imapclient.Options{
		Dialer:    &net.Dialer{Timeout: DialTimeout},
		TLSConfig: c.config.TLSConfig,
	}

	var client *imapclient.Client
	var err error

	if c.config.SSL {
		client, err = imapclient.DialTLS(addr, opts)
	} else if c.config.StartTLS {
		client, err = imapclient.DialStartTLS(addr, opts)
	} else {
		client, err = imapclient.DialInsecure(addr, opts)
	}
	if err != nil {
		return NewError(classifyTransport(err, KindIMAPConnectionFailed),
			"connect to IMAP server "+addr, err)
	}

	if err := client.Login(c.config.Username, c.config.Password).Wait(); err != nil {
		client.Close()
		var imapErr *imap.Error
		if errors.As(err, &imapErr) {
			return NewError(KindAuthenticationFailed, "IMAP login", err)
		}
		return NewError(classifyTransport(err, KindIMAPConnectionFailed), "IMAP login", err)
	}

	c.client = client
	return nil
}

// Close closes the IMAP connection. It is safe to call more than once.
func (c *IMAPClient) Close() error {
	if c.client == nil {
		return nil
	}
	logoutErr := c.client.Logout().Wait()
	closeErr := c.client.Close()
	c.client = nil
	// The server drops the connection after a successful LOGOUT.
	if logoutErr == nil {
		return nil
	}
	return closeErr
}

func (c *IMAPClient) connected() error {
	if c.client == nil {
		return NewError(KindIMAPConnectionFailed, "IMAP session", errors.New("not connected"))
	}
	return nil
}

// ListFolders lists all folders/mailboxes
func (c *IMAPClient) ListFolders() ([]Folder, error) {
	if err := c.connected(); err != nil {
		return nil, err
	}

	mailboxes, err := c.client.List("", "*", nil).Collect()
	if err != nil {
		return nil, operationError("list folders", err)
	}

	folders := make([]Folder, 0, len(mailboxes))
	for _, mb := range mailboxes {
		f := Folder{Name: mb.Mailbox}
		for _, attr := range mb.Attrs {
			f.Flags = append(f.Flags, string(attr))
		}
		folders = append(folders, f)
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders, nil
}

// SelectFolder opens folder read-only and returns its message count.
func (c *IMAPClient) SelectFolder(folder string) (uint32, error) {
	if err := c.connected(); err != nil {
		return 0, err
	}
	if folder == "" {
		folder = DefaultFolder
	}

	data, err := c.client.Select(folder, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		var imapErr *imap.Error
		if errors.As(err, &imapErr) {
			return 0, NewError(KindFolderNotFound, "select folder "+folder, err)
		}
		return 0, operationError("select folder "+folder, err)
	}
	return data.NumMessages, nil
}

// FetchRecent fetches the limit most recently arrived messages of folder,
// newest first.
func (c *IMAPClient) FetchRecent(folder string, limit int) ([]*RawMessage, error) {
	if folder == "" {
		folder = DefaultFolder
	}
	numMessages, err := c.SelectFolder(folder)
	if err != nil {
		return nil, err
	}
	if numMessages == 0 || limit <= 0 {
		return []*RawMessage{}, nil
	}

	// Compare as int64 so a limit beyond the uint32 range cannot wrap.
	start := uint32(1)
	if int64(numMessages) > int64(limit) {
		start = numMessages - uint32(limit) + 1
	}

	seqSet := imap.SeqSet{}
	seqSet.AddRange(start, numMessages)

	msgs, err := c.fetch(seqSet, folder)
	if err != nil {
		return nil, err
	}

	// Sequence numbers follow arrival order.
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].SeqNum > msgs[j].SeqNum })
	return msgs, nil
}

// FetchByUID fetches a single message of folder by UID.
func (c *IMAPClient) FetchByUID(folder string, uid uint32) (*RawMessage, error) {
	if folder == "" {
		folder = DefaultFolder
	}
	if _, err := c.SelectFolder(folder); err != nil {
		return nil, err
	}

	msgs, err := c.fetch(imap.UIDSetNum(imap.UID(uid)), folder)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		if m.UID == uid {
			return m, nil
		}
	}
	return nil, NewError(KindEmailNotFound, "fetch message",
		fmt.Errorf("message UID %d not found in %s", uid, folder))
}

func (c *IMAPClient) fetch(numSet imap.NumSet, folder string) ([]*RawMessage, error) {
	// Peek so that reading never marks messages as seen.
	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOptions := &imap.FetchOptions{
		UID:          true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodySection},
	}

	bufs, err := c.client.Fetch(numSet, fetchOptions).Collect()
	if err != nil {
		return nil, operationError("fetch messages from "+folder, err)
	}

	msgs := make([]*RawMessage, 0, len(bufs))
	for _, buf := range bufs {
		msgs = append(msgs, &RawMessage{
			Folder:       folder,
			UID:          uint32(buf.UID),
			SeqNum:       buf.SeqNum,
			InternalDate: buf.InternalDate,
			Raw:          buf.FindBodySection(bodySection),
		})
	}
	return msgs, nil
}

// operationError classifies failures of commands issued on an established
// session.
func operationError(op string, err error) error {
	return NewError(classifyTransport(err, KindIMAPConnectionFailed), op, err)
}
