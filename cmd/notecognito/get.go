package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/notecognito"
	"github.com/aretw0/notecognito/pkg/core"
)

var getOutput string

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Print the configuration or one notecard",
	Long: `Fetch the configuration from the running server. With an id, print only
that notecard's content.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withClient(cmd, func(ctx context.Context, c *notecognito.Client) error {
			cfg, err := c.GetConfiguration(ctx)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				id, err := core.ParseNotecardID(args[0])
				if err != nil {
					return err
				}
				fmt.Println(cfg.Notecards[id].Content)
				return nil
			}
			return printValue(cfg, getOutput)
		})
	},
}

// printValue writes v to stdout as json or yaml.
func printValue(v any, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format %q (want json or yaml)", format)
	}
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "json", "Output format: json or yaml")
}
