// File: cmd/cdp-launch/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// cdp-launch launches a Chromium instance, opens a browser-level CDP
// session against it, and lists the open targets — a minimal end-to-end
// exercise of the browser supervisor and the session multiplexer together.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/corvidlabs/cdpgo/browser"
	"github.com/corvidlabs/cdpgo/control"
	"github.com/corvidlabs/cdpgo/session"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cmd := &cli.Command{
		Name:  "cdp-launch",
		Usage: "launch Chromium, connect over CDP, and list open targets",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "headless", Value: true, Usage: "launch with --headless=new"},
			&cli.StringFlag{Name: "chrome-path", Usage: "path to a custom Chromium binary"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := browser.HeadlessOptions()
			if !cmd.Bool("headless") {
				opts = browser.DefaultLaunchOptions()
			}
			if p := cmd.String("chrome-path"); p != "" {
				opts.PreferredChannel = browser.ChannelCustom
				opts.CustomChromePath = p
			}

			metrics := control.NewMetricsRegistry()
			probes := control.NewDebugProbes()
			control.RegisterPlatformProbes(probes)
			reload := control.NewReloadHooks()
			reload.Register(func() { logger.Info().Msg("session reload hook fired") })

			reconnect := session.DefaultReconnectSettings()
			cfg := control.NewConfigStore()
			cfg.OnReload(func() { logger.Info().Msg("launch configuration reloaded") })
			cfg.SetConfig(control.LaunchConfig{
				DebuggingPort:     opts.DebuggingPort,
				Headless:          cmd.Bool("headless"),
				ChromePath:        opts.CustomChromePath,
				ReconnectMaxDelay: reconnect.MaxDelay,
			})

			sup, err := browser.Launch(opts, logger)
			if err != nil {
				return cli.Exit(fmt.Sprintf("launch chromium: %v", err), 1)
			}
			defer sup.Kill()
			sup.RegisterProbes(probes, "browser")

			wsURL, err := sup.BrowserWebSocketURL(ctx)
			if err != nil {
				return cli.Exit(fmt.Sprintf("fetch browser websocket url: %v", err), 1)
			}

			sess, err := session.New(wsURL,
				session.WithLogger(logger),
				session.WithMetrics(metrics),
				session.WithReloadHooks(reload),
			)
			if err != nil {
				return cli.Exit(fmt.Sprintf("open cdp session: %v", err), 1)
			}
			defer sess.Close()

			callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			resp, err := sess.SendSync(callCtx, "Target.getTargets", nil)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Target.getTargets: %v", err), 1)
			}
			if resp.Err != nil {
				return cli.Exit(fmt.Sprintf("Target.getTargets returned an error: %v", resp.Err), 1)
			}

			fmt.Println(string(resp.Result))
			fmt.Printf("metrics: %+v\n", metrics.GetSnapshot())
			fmt.Printf("probes: %+v\n", probes.DumpState())
			fmt.Printf("config: %+v\n", cfg.GetSnapshot())
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
