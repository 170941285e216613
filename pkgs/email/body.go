package email

import (
	"errors"
	"html"
	"io"
	"strings"

	gomessage "github.com/emersion/go-message"
	"github.com/microcosm-cc/bluemonday"
)

// textBodies collects the first text/plain and text/html parts of a message.
type textBodies struct {
	plain    string
	html     string
	hasPlain bool
	hasHTML  bool
}

// parseEntityBody walks entity depth-first and records the first text/plain
// and text/html parts, including those nested in multipart containers.
// Attachments are skipped.
func parseEntityBody(b *textBodies, entity *gomessage.Entity) error {
	if mr := entity.MultipartReader(); mr != nil {
		return parseMultipart(b, mr)
	}
	return parseSinglePart(b, entity)
}

// parseMultipart iterates over parts of a multipart message.
func parseMultipart(b *textBodies, mr gomessage.MultipartReader) error {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil && !tolerable(err) {
			return err
		}
		if part == nil {
			return nil
		}

		if nested := part.MultipartReader(); nested != nil {
			if err := parseMultipart(b, nested); err != nil {
				return err
			}
			continue
		}
		if isAttachment(part) {
			continue
		}
		if err := parseSinglePart(b, part); err != nil {
			return err
		}
	}
}

// parseSinglePart reads the body of a non-multipart entity.
func parseSinglePart(b *textBodies, entity *gomessage.Entity) error {
	ct, _, err := entity.Header.ContentType()
	if err != nil || ct == "" {
		// RFC 2045 default
		ct = "text/plain"
	}

	switch {
	case ct == "text/plain" && !b.hasPlain:
		body, err := io.ReadAll(entity.Body)
		if err != nil {
			return err
		}
		b.plain, b.hasPlain = string(body), true
	case ct == "text/html" && !b.hasHTML:
		body, err := io.ReadAll(entity.Body)
		if err != nil {
			return err
		}
		b.html, b.hasHTML = string(body), true
	}
	return nil
}

func isAttachment(part *gomessage.Entity) bool {
	disp, _, err := part.Header.ContentDisposition()
	return err == nil && disp == "attachment"
}

// tolerable reports whether a go-message error still leaves a usable entity.
// Unknown charsets and transfer encodings leave the body undecoded.
func tolerable(err error) bool {
	return gomessage.IsUnknownCharset(err) || gomessage.IsUnknownEncoding(err)
}

var stripPolicy = bluemonday.StrictPolicy()

// htmlToText strips all markup from s.
func htmlToText(s string) string {
	// Block-level closers become line breaks before the tags go away.
	r := strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n",
		"</p>", "\n", "</div>", "\n", "</tr>", "\n", "</li>", "\n")
	return html.UnescapeString(stripPolicy.Sanitize(r.Replace(s)))
}

// text returns the best plain-text rendering of the collected bodies.
func (b *textBodies) text() string {
	if b.hasPlain {
		return normalizeNewlines(b.plain)
	}
	if b.hasHTML {
		return normalizeNewlines(htmlToText(b.html))
	}
	return ""
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
