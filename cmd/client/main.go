// Package main is the configurator client: it asks for a passcode, loads the
// settings bound to it and lets the operator edit and save them.
package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/configurator/internal/client/app"
	"github.com/atinyakov/configurator/internal/client/credential"
	"github.com/atinyakov/configurator/internal/client/passcode"
	"github.com/atinyakov/configurator/internal/client/session"
	"github.com/atinyakov/configurator/internal/client/ui"
	"github.com/atinyakov/configurator/internal/config"
	"github.com/atinyakov/configurator/internal/logger"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

type globalFlags struct {
	config   string
	host     string
	schema   string
	stateDir string
	logLevel string
	passcode string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error.Sprint("✗"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "configurator",
		Short: "Edit the settings bound to a passcode.",
		Long: `configurator loads the settings document bound to your passcode from the
settings service, lets you edit it in a form and writes it back.

The passcode is asked for once and remembered until you log out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "path to the client config file (default "+config.DefaultClientConfigPath()+")")
	pf.StringVar(&flags.host, "host", "", "settings service host, overrides CONFIGURATOR_HOST")
	pf.StringVar(&flags.schema, "schema", "", "path to a JSON or JSONC settings schema")
	pf.StringVar(&flags.stateDir, "state-dir", "", "directory for the stored passcode and the log")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level written to the client log")
	pf.StringVar(&flags.passcode, "passcode", "", "answer the passcode prompt with this value")

	root.AddCommand(
		&cobra.Command{
			Use:   "shell",
			Short: "Open the interactive settings editor (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runShell(cmd, flags)
			},
		},
		newShowCmd(flags),
		&cobra.Command{
			Use:   "logout",
			Short: "Forget the stored passcode",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runLogout(cmd, flags)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Build version: %s\n", cmp.Or(version, "N/A"))
				fmt.Fprintf(cmd.OutOrStdout(), "Build date: %s\n", cmp.Or(buildDate, "N/A"))
			},
		},
	)
	return root
}

func newShowCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = log.Log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(cfg, os.Stdin, cmd.OutOrStdout(), log.Log, appOptions(flags)...)
			if err != nil {
				return err
			}
			if state := a.Session.Start(ctx); state != session.Ready {
				return fmt.Errorf("could not load settings (%s)", state)
			}
			return printSettings(cmd.OutOrStdout(), a, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw settings document")
	return cmd
}

func printSettings(w io.Writer, a *app.App, asJSON bool) error {
	view := a.Session.View()
	if !asJSON {
		return a.Form.Render(w, view.Settings)
	}
	b, err := json.MarshalIndent(view.Settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func runShell(cmd *cobra.Command, flags *globalFlags) error {
	cfg, log, err := setup(cmd, flags)
	if err != nil {
		return err
	}
	defer func() { _ = log.Log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, os.Stdin, cmd.OutOrStdout(), log.Log, appOptions(flags)...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "configurator %s, settings service %s\n", cmp.Or(version, "dev"), ui.Highlight.Sprint(cfg.Host))
	return a.Shell.Run(ctx)
}

func appOptions(flags *globalFlags) []app.Option {
	if flags.passcode == "" {
		return nil
	}
	return []app.Option{app.WithProvider(passcode.StaticProvider(flags.passcode))}
}

func runLogout(cmd *cobra.Command, flags *globalFlags) error {
	cfg, log, err := setup(cmd, flags)
	if err != nil {
		return err
	}
	defer func() { _ = log.Log.Sync() }()

	credential.NewStore(credential.NewFileKV(cfg.StateDir), log.Log).Clear()
	fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Sprint("✓"), "Logged out")
	return nil
}

// setup loads the client config, applies flag overrides and opens the log.
func setup(cmd *cobra.Command, flags *globalFlags) (config.Client, *logger.Logger, error) {
	cfg, err := config.LoadClient(flags.config)
	if err != nil {
		return config.Client{}, nil, err
	}
	pf := cmd.Flags()
	if pf.Changed("host") {
		cfg.Host = flags.host
	}
	if pf.Changed("schema") {
		cfg.Schema = flags.schema
	}
	if pf.Changed("state-dir") {
		cfg.StateDir = flags.stateDir
	}
	if pf.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	cfg.FillMissingDefaults()

	log := logger.New()
	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return cfg, log, fmt.Errorf("create state dir: %w", err)
	}
	if err := log.Init(cfg.LogLevel, cfg.LogPath()); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Warning.Sprint("⚠"), "logging disabled:", err)
		log = logger.New()
	}
	log.Log.Debug("client configured",
		zap.String("host", cfg.Host),
		zap.String("state_dir", cfg.StateDir),
	)
	return cfg, log, nil
}
