// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/tidechat/internal/config"
)

// HandleConfig runs the config command: show, get, and set.
func HandleConfig(args Args) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}

	switch args.Subcommand {
	case "", "show":
		fmt.Println(cfg.String())

	case "get":
		if len(args.Raw) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: tidechat config get <key>")
			os.Exit(1)
		}
		val, err := cfg.Get(args.Raw[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			os.Exit(1)
		}
		fmt.Printf("%v\n", val)

	case "set":
		if len(args.Raw) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: tidechat config set <key> <value>")
			os.Exit(1)
		}
		key, value := args.Raw[0], args.Raw[1]
		if err := cfg.Set(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			os.Exit(1)
		}
		if err := config.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			os.Exit(1)
		}
		fmt.Printf("%s = %s\n", key, value)

	case "path":
		path, err := config.ConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			os.Exit(1)
		}
		fmt.Println(path)

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand %q\n", args.Subcommand)
		fmt.Fprintln(os.Stderr, "Usage: tidechat config [show|get|set|path]")
		os.Exit(1)
	}
}
