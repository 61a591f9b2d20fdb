package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/notecognito"
	"github.com/aretw0/notecognito/pkg/core"
)

var setCmd = &cobra.Command{
	Use:   "set <id> [text...]",
	Short: "Write a notecard",
	Long: `Replace the content of notecard <id>. The text comes from the remaining
arguments, or from stdin when none are given.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := core.ParseNotecardID(args[0])
		if err != nil {
			fatal("Invalid notecard id", err)
		}

		var content string
		if len(args) > 1 {
			content = strings.Join(args[1:], " ")
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fatal("Failed to read stdin", err)
			}
			content = strings.TrimRight(string(data), "\r\n")
		}

		withClient(cmd, func(ctx context.Context, c *notecognito.Client) error {
			return c.UpdateNotecard(ctx, core.Notecard{ID: id, Content: content})
		})
		fmt.Printf("notecard %d updated\n", id)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Empty a notecard and release its hotkey",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := core.ParseNotecardID(args[0])
		if err != nil {
			fatal("Invalid notecard id", err)
		}
		withClient(cmd, func(ctx context.Context, c *notecognito.Client) error {
			return c.UpdateNotecard(ctx, core.EmptyNotecard(id))
		})
		fmt.Printf("notecard %d cleared\n", id)
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(clearCmd)
}
