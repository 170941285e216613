package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mcp-mail/tool/pkgs/config"
	"github.com/mcp-mail/tool/pkgs/email"
	"github.com/mcp-mail/tool/pkgs/mailtool"
)

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func (a *app) logger() *log.Logger {
	if a.verbose {
		return log.New(os.Stderr, "mcp-mail: ", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

// manager loads the config and builds a Manager. A config that cannot be
// loaded is reported as a CONFIGURATION_ERROR result.
func (a *app) manager() *mailtool.Manager {
	path := config.ResolvePath(a.configPath)
	cfg, err := config.Load(path)
	if err != nil {
		if a.verbose {
			fmt.Fprintf(os.Stderr, "Run 'mcp-mail init' to create %s\n", path)
		}
		printResult(&mailtool.Failure{
			ErrorCode:    email.KindConfigurationError,
			ErrorMessage: err.Error(),
		})
	}
	return mailtool.New(cfg, mailtool.WithLogger(a.logger()))
}

// printResult writes r as indented JSON to stdout and exits 1 on failure.
func printResult(r mailtool.Result) {
	writeResult(os.Stdout, r)
	if !r.OK() {
		os.Exit(1)
	}
}

func writeResult(w io.Writer, r mailtool.Result) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		fatal("encoding result: %v", err)
	}
}

// readBodySource reads body content from a file path or stdin ("-").
func readBodySource(path string) (string, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
