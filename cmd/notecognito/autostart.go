package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/notecognito"
)

var autostartCmd = &cobra.Command{
	Use:       "autostart <on|off>",
	Short:     "Toggle launching the server at login",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	Run: func(cmd *cobra.Command, args []string) {
		var enabled bool
		switch args[0] {
		case "on":
			enabled = true
		case "off":
		default:
			fatal("Invalid argument", fmt.Errorf("want on or off, got %q", args[0]))
		}

		withClient(cmd, func(ctx context.Context, c *notecognito.Client) error {
			cfg, err := c.GetConfiguration(ctx)
			if err != nil {
				return err
			}
			cfg.LaunchOnStartup = enabled
			return c.SaveConfiguration(ctx, cfg)
		})
		fmt.Printf("launch on startup: %s\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(autostartCmd)
}
