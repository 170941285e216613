package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

const version = "1.0.0"

// app holds global options parsed from the command line
type app struct {
	configPath string
	verbose    bool
}

func main() {
	a := &app{}

	// Global flags
	flag.StringVarP(&a.configPath, "config", "c", "", "Path to the JSON config file")
	flag.BoolVarP(&a.verbose, "verbose", "v", false, "Log connection diagnostics to stderr")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Usage = printUsage
	flag.SetInterspersed(false)
	flag.Parse()

	if *showVersion {
		fmt.Printf("mcp-mail v%s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cmd := args[0]
	cmdArgs := args[1:]

	// No signal handling: an interrupt during network I/O ends the process.
	ctx := context.Background()

	switch cmd {
	case "init":
		if err := handleInit(a); err != nil {
			fatal("init: %v", err)
		}
	case "manifest":
		if err := handleManifest(); err != nil {
			fatal("manifest: %v", err)
		}
	case "read":
		opts := parseReadFlags(cmdArgs)
		printResult(a.manager().Read(ctx, opts.folder, opts.limit))
	case "get":
		id := parseGetArgs(cmdArgs)
		printResult(a.manager().Get(ctx, id))
	case "send":
		opts := parseSendFlags(cmdArgs)
		printResult(a.manager().Send(ctx, opts.to, opts.subject, opts.body))
	case "folders":
		printResult(a.manager().Folders(ctx))
	case "export":
		opts := parseExportFlags(cmdArgs)
		if err := handleExport(ctx, a, opts); err != nil {
			fatal("export: %v", err)
		}
	case "call":
		if err := handleCall(ctx, a, cmdArgs); err != nil {
			fatal("call: %v", err)
		}
	case "help":
		printUsage()
		os.Exit(0)
	default:
		fatal("unknown command '%s'", cmd)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `mcp-mail v%s - Mailbox tool over IMAP/SMTP

Usage:
  mcp-mail [global options] <command> [command options]

Commands:
  read       Summarize the most recent emails of a folder
  get        Show one email by id
  send       Send a plain-text email
  folders    List all folders
  export     Write recent emails of a folder as mbox
  call       Invoke a tool by name with JSON arguments
  manifest   Print the tool manifest
  init       Create an example configuration file

Global Options:
  -c, --config <path>  JSON config file
  -v, --verbose        Log connection diagnostics to stderr
  --version            Show version information

Config Resolution:
  1) --config <path>
  2) env var MCP_MAIL_CONFIG
  3) ./config.json
  Any key can be overridden with MCP_MAIL_<KEY>, e.g. MCP_MAIL_PASSWORD.

Read Options:
  --folder <name>        Folder to read (default: INBOX)
  --limit <number>       Maximum emails to return (default: 10)

Get:
  mcp-mail get <id>      Id as returned by read ("42" or "Archive:42")

Send Options:
  --to <email>           Recipient
  --subject <text>       Email subject
  --body <text>          Plain text body
  --body-file <path>     Plain text body from file ("-" for stdin)

Export Options:
  --folder <name>        Folder to export (default: INBOX)
  --limit <number>       Maximum emails to export (default: 10)
  --output <path>        Output mbox file (default: stdout)

Output:
  Every command except export-to-stdout prints a JSON result on stdout.
  The exit code is 1 when "success" is false.

Examples:
  mcp-mail read --limit 5
  mcp-mail get 12345
  mcp-mail send --to user@example.com --subject "Hello" --body "Hi!"
  mcp-mail call mail_read '{"folder": "INBOX", "limit": 3}'
  mcp-mail export --folder Archive --output archive.mbox
  mcp-mail init
`, version)
}
