package main

import (
	"encoding/json"
	"os"

	"github.com/mcp-mail/tool/pkgs/mailtool"
)

func handleManifest() error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(mailtool.NewManifest(version))
}
