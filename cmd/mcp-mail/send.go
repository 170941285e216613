package main

import (
	flag "github.com/spf13/pflag"
)

type sendFlags struct {
	to, subject, body string
	bodyFile          string
}

// parseSendFlags accepts --to/--subject/--body or the positional form
// "send <to> <subject> <body>".
func parseSendFlags(args []string) sendFlags {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	var f sendFlags
	fs.StringVar(&f.to, "to", "", "Recipient")
	fs.StringVar(&f.subject, "subject", "", "Email subject")
	fs.StringVar(&f.body, "body", "", "Plain text body")
	fs.StringVar(&f.bodyFile, "body-file", "", "Plain text body from file (\"-\" for stdin)")
	if err := fs.Parse(args); err != nil {
		fatal("send: %v", err)
	}

	rest := fs.Args()
	for _, dst := range []*string{&f.to, &f.subject, &f.body} {
		if *dst == "" && len(rest) > 0 {
			*dst, rest = rest[0], rest[1:]
		}
	}

	// --body-file takes precedence over --body
	if f.bodyFile != "" {
		body, err := readBodySource(f.bodyFile)
		if err != nil {
			fatal("send: --body-file: %v", err)
		}
		f.body = body
	}
	return f
}
