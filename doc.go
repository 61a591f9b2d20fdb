// Package notecognito is the composition root of the Notecognito server.
//
// Notecognito keeps nine short notecards and shows one as an overlay when the
// user presses the configured modifiers plus its digit (Control+Shift+3 by
// default). The server owns the configuration file, the hotkey registry and
// the overlay controller, and exposes the configuration to the settings UI
// over a loopback RPC socket.
//
// Platform pieces (overlay renderer, keyboard hook, login item) are injected
// as options, so tests and headless runs can use fakes.
//
// Usage:
//
//	sup, err := notecognito.New(
//		notecognito.WithOverlaySink(sink),
//		notecognito.WithKeyHook(hook),
//		notecognito.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	if err := sup.Start(ctx); err != nil {
//		return err
//	}
//	defer sup.Stop(context.Background())
//
// Clients talk to a running server with Dial:
//
//	client, err := notecognito.Dial(ctx, notecognito.DefaultAddr)
//	cfg, err := client.GetConfiguration(ctx)
package notecognito
