package main

import (
	"context"
	"encoding/json"
	"fmt"
)

// handleCall runs "call <tool> [json-args]". Arguments may be read from
// stdin with "-".
func handleCall(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("a tool name is required")
	}
	name := args[0]

	var raw json.RawMessage
	if len(args) > 1 {
		src := args[1]
		if src == "-" {
			data, err := readBodySource("-")
			if err != nil {
				return fmt.Errorf("reading arguments: %w", err)
			}
			src = data
		}
		raw = json.RawMessage(src)
	}

	r, err := a.manager().Invoke(ctx, name, raw)
	if err != nil {
		return err
	}
	printResult(r)
	return nil
}
