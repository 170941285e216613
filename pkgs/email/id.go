package email

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MessageID builds the identifier handed to callers for a message. Messages
// in INBOX are identified by their bare UID, others by "<folder>:<uid>".
func MessageID(folder string, uid uint32) string {
	if folder == "" || strings.EqualFold(folder, DefaultFolder) {
		return strconv.FormatUint(uint64(uid), 10)
	}
	return folder + ":" + strconv.FormatUint(uint64(uid), 10)
}

// ParseMessageID reverses MessageID. Anything that cannot name a message
// yields a KindEmailNotFound error.
func ParseMessageID(id string) (folder string, uid uint32, err error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", 0, NewError(KindEmailNotFound, "parse message id", errors.New("empty message id"))
	}

	folder, num := DefaultFolder, id
	if i := strings.LastIndex(id, ":"); i >= 0 {
		folder, num = id[:i], id[i+1:]
		if folder == "" {
			folder = DefaultFolder
		}
	}

	n, perr := strconv.ParseUint(num, 10, 32)
	if perr != nil || n == 0 {
		return "", 0, NewError(KindEmailNotFound, "parse message id",
			fmt.Errorf("message id %q does not name a message", id))
	}
	return folder, uint32(n), nil
}
