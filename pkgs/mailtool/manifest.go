package mailtool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Tool names exposed to callers.
const (
	ToolRead    = "mail_read"
	ToolGet     = "mail_get"
	ToolSend    = "mail_send"
	ToolFolders = "mail_folders"
)

// Tool describes one invokable operation.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

// Schema is the JSON Schema of a tool's arguments.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property is a single argument of a tool.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Minimum     *int   `json:"minimum,omitempty"`
}

// Manifest describes the tool server and its tools.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Tools       []Tool `json:"tools"`
}

// Tools returns the descriptions of every tool Invoke accepts.
func Tools() []Tool {
	one := 1
	return []Tool{
		{
			Name:        ToolRead,
			Description: "Read the most recent emails of a folder, newest first.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"folder": {Type: "string", Description: "Folder to read", Default: "INBOX"},
					"limit":  {Type: "integer", Description: "Maximum number of emails", Default: DefaultLimit, Minimum: &one},
				},
			},
		},
		{
			Name:        ToolGet,
			Description: "Get the full content of one email by the id returned from mail_read.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"id": {Type: "string", Description: "Email id"},
				},
				Required: []string{"id"},
			},
		},
		{
			Name:        ToolSend,
			Description: "Send a plain-text email from the configured account.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"to":      {Type: "string", Description: "Recipient email address"},
					"subject": {Type: "string", Description: "Email subject"},
					"body":    {Type: "string", Description: "Plain-text body"},
				},
				Required: []string{"to", "subject", "body"},
			},
		},
		{
			Name:        ToolFolders,
			Description: "List the folders of the configured account.",
			InputSchema: Schema{
				Type:       "object",
				Properties: map[string]Property{},
			},
		},
	}
}

// NewManifest returns the manifest for the given server version.
func NewManifest(version string) *Manifest {
	return &Manifest{
		Name:        "mcp-mail",
		Version:     version,
		Description: "Read, fetch and send email over IMAP/SMTP.",
		Tools:       Tools(),
	}
}

// validate checks args against the tool's input schema.
func (t Tool) validate(args json.RawMessage) error {
	schema, err := json.Marshal(t.InputSchema)
	if err != nil {
		return fmt.Errorf("encoding %s schema: %w", t.Name, err)
	}

	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(args))
	if err != nil {
		return fmt.Errorf("decoding %s arguments: %w", t.Name, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid %s arguments: %s", t.Name, strings.Join(msgs, "; "))
	}
	return nil
}

func lookupTool(name string) (Tool, bool) {
	for _, t := range Tools() {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

type readArgs struct {
	Folder string `json:"folder"`
	Limit  int    `json:"limit"`
}

type getArgs struct {
	ID string `json:"id"`
}

type sendArgs struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Invoke runs the tool called name with JSON-encoded args. The error is
// non-nil only for an unknown tool or arguments that do not match the tool's
// schema; operation failures are reported in the Result.
func (m *Manager) Invoke(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	tool, ok := lookupTool(name)
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := tool.validate(args); err != nil {
		return nil, err
	}

	switch name {
	case ToolRead:
		var a readArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("decoding %s arguments: %w", name, err)
		}
		return m.Read(ctx, a.Folder, a.Limit), nil
	case ToolGet:
		var a getArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("decoding %s arguments: %w", name, err)
		}
		return m.Get(ctx, a.ID), nil
	case ToolSend:
		var a sendArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("decoding %s arguments: %w", name, err)
		}
		return m.Send(ctx, a.To, a.Subject, a.Body), nil
	default:
		return m.Folders(ctx), nil
	}
}
