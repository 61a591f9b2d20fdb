package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/notecognito"
	"github.com/aretw0/notecognito/pkg/adapters/system"
	"github.com/aretw0/notecognito/pkg/hotkey"
)

var (
	serveHook      string
	serveDevice    string
	serveAutostart bool
	serveWatch     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the notecognito server (default)",
	Long: `Run the server: load the configuration, register the hotkeys, listen on
the RPC socket and show notecards until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	var hook hotkey.Hook
	switch serveHook {
	case "auto":
		// No readable keyboard is not fatal: the RPC side still serves.
		hook = system.NewFallbackHook(system.NewKeyboardHook(serveDevice, logger), logger)
	case "evdev":
		hook = system.NewKeyboardHook(serveDevice, logger)
	case "none":
		hook = system.NoopHook{}
	default:
		return fmt.Errorf("unknown hook %q (want auto, evdev or none)", serveHook)
	}

	opts := []notecognito.Option{
		notecognito.WithLogger(logger),
		notecognito.WithAddr(addr),
		notecognito.WithOverlaySink(system.NewLogSink(logger)),
		notecognito.WithKeyHook(hook),
		notecognito.WithWatch(serveWatch),
	}
	if configDir != "" {
		opts = append(opts, notecognito.WithConfigDir(configDir))
	}
	if serveAutostart {
		opts = append(opts, notecognito.WithStartupRegistrar(system.NewAutostart()))
	}

	sup, err := notecognito.New(opts...)
	if err != nil {
		fatal("Failed to configure notecognito", err)
	}
	if err := sup.Start(ctx); err != nil {
		fatal("Failed to start notecognito", err)
	}
	logger.Debug("supervisor state", "state", sup.State())

	<-ctx.Done()
	logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sup.Stop(stopCtx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&serveHook, "hook", "auto", "Keyboard hook: auto, evdev or none")
		cmd.Flags().StringVar(&serveDevice, "device", "", "evdev keyboard device (default: first keyboard found)")
		cmd.Flags().BoolVar(&serveAutostart, "autostart", true, "Manage the OS login item from launch_on_startup")
		cmd.Flags().BoolVar(&serveWatch, "watch", true, "Reload config.json when edited by hand")
	}
}
