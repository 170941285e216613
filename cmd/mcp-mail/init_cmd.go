package main

import (
	"fmt"
	"os"

	"github.com/mcp-mail/tool/pkgs/config"
)

func handleInit(a *app) error {
	path := config.ResolvePath(a.configPath)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Save(path, config.Example()); err != nil {
		return err
	}
	fmt.Printf("Created config file at: %s\n", path)
	if a.configPath != "" && os.Getenv(config.EnvConfigPath) == "" {
		fmt.Printf("Tip: set %s=%s to use this config file.\n", config.EnvConfigPath, path)
	}
	fmt.Println("Please edit the file to add your email account credentials.")
	return nil
}
