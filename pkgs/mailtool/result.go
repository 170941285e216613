package mailtool

import (
	"github.com/mcp-mail/tool/pkgs/email"
)

// Result is the value every Manager operation returns. Callers tell success
// from failure with OK, or by the "success" field once encoded as JSON.
type Result interface {
	OK() bool
	isResult()
}

// Failure reports a classified error.
type Failure struct {
	Success      bool       `json:"success"`
	ErrorCode    email.Kind `json:"error_code"`
	ErrorMessage string     `json:"error_message"`
}

// ReadResult lists the most recent messages of a folder.
type ReadResult struct {
	Success bool             `json:"success"`
	Emails  []*email.Summary `json:"emails"`
	Count   int              `json:"count"`
}

// GetResult carries one message, flattened into the result.
type GetResult struct {
	Success bool `json:"success"`
	email.Detail
}

// SendResult confirms a submitted message.
type SendResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// FoldersResult lists the account's folders.
type FoldersResult struct {
	Success bool           `json:"success"`
	Folders []email.Folder `json:"folders"`
	Count   int            `json:"count"`
}

// ExportResult confirms an mbox export.
type ExportResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func (r *Failure) OK() bool       { return false }
func (r *ReadResult) OK() bool    { return true }
func (r *GetResult) OK() bool     { return true }
func (r *SendResult) OK() bool    { return true }
func (r *FoldersResult) OK() bool { return true }
func (r *ExportResult) OK() bool  { return true }

func (*Failure) isResult()       {}
func (*ReadResult) isResult()    {}
func (*GetResult) isResult()     {}
func (*SendResult) isResult()    {}
func (*FoldersResult) isResult() {}
func (*ExportResult) isResult()  {}

// fail converts err into a Failure. Errors without a kind are reported as
// network errors.
func fail(err error) *Failure {
	return &Failure{
		ErrorCode:    email.KindOf(err),
		ErrorMessage: err.Error(),
	}
}

func failKind(kind email.Kind, err error) *Failure {
	return &Failure{ErrorCode: kind, ErrorMessage: err.Error()}
}
