package email

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"math/big"
	"net"
	"strconv"
	"testing"
	"time"
)

// newTestTLSConfig generates a self-signed TLS config for mock servers.
func newTestTLSConfig(t *testing.T) *tls.Config {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		DNSNames:     []string{"localhost", "127.0.0.1"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1)},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	certDER, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{certDER},
		PrivateKey:  key,
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
	}
}

// insecureTLSConfig returns a client-side TLS config that skips verification.
func insecureTLSConfig() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true}
}

// splitHostPort splits "host:port" into (host, int port).
func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}
	return host, port
}

// testPlainMail is a single-part text/plain message.
const testPlainMail = "MIME-Version: 1.0\r\n" +
	"From: Dana Reyes <dana@example.org>\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Quarterly report\r\n" +
	"Date: Tue, 03 Mar 2026 14:05:00 +0100\r\n" +
	"Message-Id: <report-q1@example.org>\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"The Q1 numbers are in the shared folder.\r\n" +
	"Thanks!"

// testAttachmentMail carries a text part and a PDF attachment.
const testAttachmentMail = "MIME-Version: 1.0\r\n" +
	"From: billing@example.net\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Invoice 2026-031\r\n" +
	"Date: Wed, 04 Mar 2026 09:30:00 +0000\r\n" +
	"Message-Id: <inv-2026-031@example.net>\r\n" +
	"Content-Type: multipart/mixed; boundary=\"INVOICE\"\r\n" +
	"\r\n" +
	"--INVOICE\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Your invoice is attached.\r\n" +
	"--INVOICE\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"invoice.pdf\"\r\n" +
	"\r\n" +
	"%PDF-1.4\r\n" +
	"--INVOICE--\r\n"

// testAlternativeMail nests a text/html alternative inside multipart/mixed
// next to an image attachment.
const testAlternativeMail = "MIME-Version: 1.0\r\n" +
	"From: Ops Team <ops@example.org>\r\n" +
	"To: me@example.com, alex@example.org\r\n" +
	"Subject: Team lunch on Friday\r\n" +
	"Date: Thu, 05 Mar 2026 11:00:00 +0000\r\n" +
	"Message-Id: <lunch@example.org>\r\n" +
	"Content-Type: multipart/mixed; boundary=\"OUTER\"\r\n" +
	"\r\n" +
	"--OUTER\r\n" +
	"Content-Type: multipart/alternative; boundary=\"INNER\"\r\n" +
	"\r\n" +
	"--INNER\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Lunch is at noon in the lobby.\r\n" +
	"--INNER\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Lunch is at <b>noon</b> in the lobby.</p>\r\n" +
	"--INNER--\r\n" +
	"--OUTER\r\n" +
	"Content-Type: image/png\r\n" +
	"Content-Disposition: attachment; filename=\"map.png\"\r\n" +
	"\r\n" +
	"PNG-DATA\r\n" +
	"--OUTER--\r\n"
