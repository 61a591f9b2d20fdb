package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/notecognito"
	"github.com/aretw0/notecognito/pkg/hotkey"
)

var statusOutput string

type statusReport struct {
	Addr            string `json:"addr" yaml:"addr"`
	LaunchOnStartup bool   `json:"launch_on_startup" yaml:"launch_on_startup"`
	Modifiers       string `json:"modifiers" yaml:"modifiers"`
	Hotkeys         any    `json:"hotkeys" yaml:"hotkeys"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which notecards have a hotkey",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withClient(cmd, func(ctx context.Context, c *notecognito.Client) error {
			cfg, err := c.GetConfiguration(ctx)
			if err != nil {
				return err
			}

			// Replay the server's registration locally; only non-empty cards bind.
			reg := hotkey.NewRegistry(nil, slog.Default())
			reg.Reconcile(cfg)

			return printValue(statusReport{
				Addr:            addr,
				LaunchOnStartup: cfg.LaunchOnStartup,
				Modifiers:       joinModifiers(cfg.HotkeyModifiers),
				Hotkeys:         reg.State(),
			}, statusOutput)
		})
	},
}

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var opts []notecognito.Option
		if configDir != "" {
			opts = append(opts, notecognito.WithConfigDir(configDir))
		}
		path, err := notecognito.ConfigPath(opts...)
		if err != nil {
			fatal("Failed to resolve config path", err)
		}
		fmt.Println(path)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pathCmd)
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "json", "Output format: json or yaml")
}
