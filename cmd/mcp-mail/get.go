package main

import (
	flag "github.com/spf13/pflag"
)

// parseGetArgs accepts the id either positionally or as --id.
func parseGetArgs(args []string) string {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	id := fs.String("id", "", "Email id as returned by read")
	if err := fs.Parse(args); err != nil {
		fatal("get: %v", err)
	}
	if *id == "" && fs.NArg() > 0 {
		*id = fs.Arg(0)
	}
	if *id == "" {
		fatal("get: an email id is required")
	}
	return *id
}
