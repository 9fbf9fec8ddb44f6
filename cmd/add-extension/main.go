// File: cmd/add-extension/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// add-extension pre-provisions one or more unpacked Chromium extensions
// into a profile directory, signing the resulting Secure Preferences the
// same way Chromium signs it, so the browser loads them without walking
// through the interactive install flow.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/corvidlabs/cdpgo/extension"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cmd := &cli.Command{
		Name:      "add-extension",
		Usage:     "pre-provision unpacked extensions into a Chromium profile directory",
		ArgsUsage: "<profile-dir> <extension-path>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-incognito", Usage: "do not grant the extensions incognito access"},
			&cli.BoolFlag{Name: "no-file-access", Usage: "do not grant the extensions file:// access"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) < 2 {
				return cli.Exit("usage: add-extension <profile-dir> <extension-path>...", 1)
			}

			profileDir := args[0]
			extensionPaths := args[1:]
			incognito := !cmd.Bool("no-incognito")
			fileAccess := !cmd.Bool("no-file-access")

			results, err := extension.CreateSecurePreferences(profileDir, extensionPaths, incognito, fileAccess, logger)
			if err != nil {
				return cli.Exit(fmt.Sprintf("add-extension: %v", err), 1)
			}

			for _, r := range results {
				fmt.Printf("%s -> %s\n", r.ExtensionPath, r.ExtensionID)
			}
			fmt.Printf("\nLaunch chrome with:\n  chrome --user-data-dir=%q\n", profileDir)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
