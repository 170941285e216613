package main

import (
	"github.com/mcp-mail/tool/pkgs/email"
	"github.com/mcp-mail/tool/pkgs/mailtool"
	flag "github.com/spf13/pflag"
)

type readFlags struct {
	folder string
	limit  int
}

func parseReadFlags(args []string) readFlags {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	var f readFlags
	fs.StringVar(&f.folder, "folder", email.DefaultFolder, "Folder to read")
	fs.IntVar(&f.limit, "limit", mailtool.DefaultLimit, "Maximum emails to return")
	if err := fs.Parse(args); err != nil {
		fatal("read: %v", err)
	}
	return f
}
