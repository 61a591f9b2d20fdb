package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aretw0/notecognito"
)

// EnvAddr overrides the RPC address used by both server and client commands.
const EnvAddr = "NOTECOGNITO_ADDR"

var (
	verbose   bool
	addr      string
	configDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notecognito",
	Short: "Summon notecards with a hotkey",
	Long: `Notecognito keeps nine notecards and shows one as an overlay when you
press the configured modifiers plus its digit.

Without a subcommand it runs the server. The other commands talk to a running
server over its loopback socket.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)

		// A missing .env is the normal case.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to load .env", "error", err)
		}
		if !cmd.Flags().Changed("addr") {
			if env := os.Getenv(EnvAddr); env != "" {
				addr = env
			}
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", notecognito.DefaultAddr, "RPC address (env "+EnvAddr+")")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration root (env NOTECOGNITO_CONFIG_DIR)")
}

// withClient dials the server and runs fn with a bounded context.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *notecognito.Client) error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	client, err := notecognito.Dial(ctx, addr)
	if err != nil {
		fatal("Failed to reach notecognito server at "+addr, err)
	}
	defer client.Close()
	client.SetLogger(slog.Default())

	if err := fn(ctx, client); err != nil {
		fatal("Request failed", err)
	}
}
