package email

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a failure into one of the stable error codes reported to
// callers.
type Kind string

const (
	KindIMAPConnectionFailed Kind = "IMAP_CONNECTION_FAILED"
	KindSMTPConnectionFailed Kind = "SMTP_CONNECTION_FAILED"
	KindAuthenticationFailed Kind = "AUTHENTICATION_FAILED"
	KindFolderNotFound       Kind = "FOLDER_NOT_FOUND"
	KindEmailNotFound        Kind = "EMAIL_NOT_FOUND"
	KindInvalidEmailFormat   Kind = "INVALID_EMAIL_FORMAT"
	KindNetworkError         Kind = "NETWORK_ERROR"
	KindConfigurationError   Kind = "CONFIGURATION_ERROR"
	KindEncodingError        Kind = "ENCODING_ERROR"
)

// Kinds lists every error kind.
var Kinds = []Kind{
	KindIMAPConnectionFailed,
	KindSMTPConnectionFailed,
	KindAuthenticationFailed,
	KindFolderNotFound,
	KindEmailNotFound,
	KindInvalidEmailFormat,
	KindNetworkError,
	KindConfigurationError,
	KindEncodingError,
}

// Retryable reports whether an operation that failed with kind k may succeed
// if attempted again with the same inputs.
func Retryable(k Kind) bool {
	switch k {
	case KindIMAPConnectionFailed, KindSMTPConnectionFailed, KindNetworkError:
		return true
	case KindAuthenticationFailed,
		KindFolderNotFound,
		KindEmailNotFound,
		KindInvalidEmailFormat,
		KindConfigurationError,
		KindEncodingError:
		return false
	default:
		return false
	}
}

// Error is a classified mail failure.
type Error struct {
	Kind Kind
	Op   string // e.g. "imap login", "select INBOX"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns a classified error.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain. Unclassified
// errors are reported as KindNetworkError.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNetworkError
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Retryable(KindOf(err))
}

// classifyTransport returns KindNetworkError for socket, DNS, timeout and TLS
// failures and fallback for everything else.
func classifyTransport(err error, fallback Kind) Kind {
	if isNetworkError(err) {
		return KindNetworkError
	}
	return fallback
}

func isNetworkError(err error) bool {
	var (
		netErr     net.Error
		verifyErr  *tls.CertificateVerificationError
		recordErr  tls.RecordHeaderError
		alertErr   tls.AlertError
		authority  x509.UnknownAuthorityError
		hostname   x509.HostnameError
		invalidErr x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &netErr),
		errors.As(err, &verifyErr),
		errors.As(err, &recordErr),
		errors.As(err, &alertErr),
		errors.As(err, &authority),
		errors.As(err, &hostname),
		errors.As(err, &invalidErr):
		return true
	}
	return false
}
