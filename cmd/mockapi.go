package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cinema-booking-cli/mockapi"
)

func newMockAPICmd(a *app) *cobra.Command {
	var (
		addr     string
		secret   string
		tokenTTL time.Duration
		empty    bool
	)
	mockCmd := &cobra.Command{
		Use:   "mock-api",
		Short: "Run a local cinema API for development",
		Long: `Serve the cinema API in memory on a local address, seeded with three rooms and the
accounts admin/admin123 and demo/demo123. Data is lost when the server stops.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.MockAddr
			}
			if secret == "" {
				secret = a.cfg.MockSecret
			}
			logger := a.logger.With(slog.String("component", "mockapi"))

			server, err := mockapi.New(mockapi.Options{
				Secret:   secret,
				TokenTTL: tokenTTL,
				Logger:   logger,
				SkipSeed: empty,
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.ListenAndServe(ctx, addr)
		},
	}
	flags := mockCmd.Flags()
	flags.StringVar(&addr, "addr", "", "listen address (default from CINEMA_MOCK_ADDR or :3000)")
	flags.StringVar(&secret, "secret", "", "token signing secret (default from CINEMA_MOCK_SECRET)")
	flags.DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "lifetime of issued tokens")
	flags.BoolVar(&empty, "empty", false, "start without seed rooms and accounts")
	return mockCmd
}
