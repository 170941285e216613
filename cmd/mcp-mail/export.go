package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mcp-mail/tool/pkgs/email"
	"github.com/mcp-mail/tool/pkgs/mailtool"
	flag "github.com/spf13/pflag"
)

type exportFlags struct {
	folder string
	limit  int
	output string
}

func parseExportFlags(args []string) exportFlags {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var f exportFlags
	fs.StringVar(&f.folder, "folder", email.DefaultFolder, "Folder to export")
	fs.IntVar(&f.limit, "limit", mailtool.DefaultLimit, "Maximum emails to export")
	fs.StringVarP(&f.output, "output", "o", "", "Output mbox file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		fatal("export: %v", err)
	}
	return f
}

// handleExport streams the mbox to --output or stdout. When the mbox goes to
// stdout the JSON result is written to stderr instead.
func handleExport(ctx context.Context, a *app, f exportFlags) error {
	m := a.manager()

	var w io.Writer = os.Stdout
	resultOut := io.Writer(os.Stdout)
	if f.output != "" && f.output != "-" {
		file, err := os.OpenFile(f.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("open %s: %w", f.output, err)
		}
		defer file.Close()
		w = file
	} else {
		resultOut = os.Stderr
	}

	r := m.Export(ctx, f.folder, f.limit, w)
	writeResult(resultOut, r)
	if !r.OK() {
		return fmt.Errorf("export of %s failed", f.folder)
	}
	return nil
}
