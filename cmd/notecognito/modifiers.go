package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/notecognito"
	"github.com/aretw0/notecognito/pkg/core"
)

var modifiersCmd = &cobra.Command{
	Use:   "modifiers [modifier...]",
	Short: "Show or change the hotkey modifiers",
	Long: `Without arguments, print the modifiers shared by every notecard hotkey.
With arguments, replace them. Accepted names: Control, Alt, Shift, Command,
Super (alias Windows).`,
	Run: func(cmd *cobra.Command, args []string) {
		mods := make([]core.HotkeyModifier, 0, len(args))
		for _, a := range args {
			m, err := parseModifier(a)
			if err != nil {
				fatal("Invalid modifier", err)
			}
			mods = append(mods, m)
		}

		withClient(cmd, func(ctx context.Context, c *notecognito.Client) error {
			cfg, err := c.GetConfiguration(ctx)
			if err != nil {
				return err
			}
			if len(mods) == 0 {
				fmt.Println(joinModifiers(cfg.HotkeyModifiers))
				return nil
			}
			cfg.HotkeyModifiers = mods
			if err := c.SaveConfiguration(ctx, cfg); err != nil {
				return err
			}
			fmt.Println(joinModifiers(mods))
			return nil
		})
	},
}

// parseModifier accepts wire names in any letter case.
func parseModifier(s string) (core.HotkeyModifier, error) {
	if m, err := core.ParseHotkeyModifier(s); err == nil {
		return m, nil
	}
	if s == "" {
		return "", fmt.Errorf("empty modifier")
	}
	return core.ParseHotkeyModifier(strings.ToUpper(s[:1]) + strings.ToLower(s[1:]))
}

func joinModifiers(mods []core.HotkeyModifier) string {
	names := make([]string, len(mods))
	for i, m := range mods {
		names[i] = m.String()
	}
	return strings.Join(names, "+")
}

func init() {
	rootCmd.AddCommand(modifiersCmd)
}
