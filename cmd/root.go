package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cinema-booking-cli/auth"
	"cinema-booking-cli/config"
	"cinema-booking-cli/service"
	"cinema-booking-cli/store"
	"cinema-booking-cli/tui"
)

// app carries what every command needs once flags and config are read.
type app struct {
	apiURL string

	cfg     *config.Config
	logger  *slog.Logger
	logFile *os.File
	auth    *auth.Session
	client  *service.Client
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	a.cfg = cfg

	// the full-screen program owns the terminal, so it logs to a file
	w := cmd.ErrOrStderr()
	if cmd == cmd.Root() || cfg.LogFile != "" {
		w = io.Discard
		if f, err := openLogFile(cfg); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: logging disabled: %v\n", err)
		} else {
			a.logFile = f
			w = f
		}
	}
	a.logger = config.NewLogger(w, cfg)

	a.auth = auth.NewSession(auth.FileStore(), auth.WithLogger(a.logger))
	if err := a.auth.Restore(); err != nil {
		a.logger.Warn("could not restore session", "err", err)
	}
	a.client = service.NewClient(
		&http.Client{Timeout: cfg.HTTPTimeout},
		service.WithBaseURL(cfg.APIURL),
		service.WithTokenSource(a.auth),
		service.WithLogger(a.logger),
		service.WithMaxAttempts(cfg.MaxAttempts),
	)
	a.logger.Debug("client ready", "api_url", cfg.APIURL, "env", cfg.Environment)
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.logFile == nil {
		return nil
	}
	return a.logFile.Close()
}

func openLogFile(cfg *config.Config) (*os.File, error) {
	path := cfg.LogFile
	if path == "" {
		var err error
		if path, err = store.LogPath(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func newRootCmd(version string, commit string) *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "cinema",
		Short: "Cinema seat booking CLI",
		Long: `Browse showrooms, pick seats on a live seat map and book them, all from the terminal.
Run without a command to open the interactive booking screen.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(tui.Deps{API: a.client, Auth: a.auth, Logger: a.logger})
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "cinema API root (overrides CINEMA_API_URL)")

	rootCmd.AddCommand(
		newRoomsCmd(a),
		newSeatsCmd(a),
		newReserveCmd(a),
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newMockAPICmd(a),
		newVersionCmd(version, commit),
	)
	return rootCmd
}

// Execute runs the command line and returns the first command error.
func Execute(version string, commit string) error {
	return newRootCmd(version, commit).Execute()
}

func newVersionCmd(version string, commit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the cinema CLI",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cinema %s", version)
			if commit != "" && commit != "none" {
				fmt.Fprintf(out, " (%s)", commit)
			}
			fmt.Fprintln(out)
		},
	}
}
