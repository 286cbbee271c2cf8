// Package main implements medinodus, a command-line host for the client state
// container. Each invocation restores persisted state, runs one action
// against the configured backend, waits for background sync to settle and
// exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/phrazzld/medinodus/internal/config"
	"github.com/phrazzld/medinodus/internal/platform/logger"
	"github.com/phrazzld/medinodus/internal/state"
)

// errUsage marks errors caused by bad command-line input.
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// run executes one command. Command output goes to stdout; logs and usage go
// to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath  string
	envFile     string
	dumpMetrics bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "medinodus",
		Short:         "Medinodus client state from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErr("unknown command %q", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
			return usageErr("no command given")
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageErr("%v", err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to a config.yaml (default: ./config.yaml or ~/.medinodus/config.yaml)")
	pf.StringVar(&opts.envFile, "env", "", "path to a .env file (default: ./.env when present)")
	pf.BoolVar(&opts.dumpMetrics, "metrics", false, "write counters to stderr in Prometheus text format before exiting")

	root.AddCommand(
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newThemeCmd(opts),
		newContrastCmd(opts),
		newProfileCmd(opts),
		newMedicalCmd(opts),
		newReportCmd(opts),
		newShowCmd(opts),
	)
	return root
}

// withContainer builds and loads the container, runs fn against it, waits for
// background sync and tears everything down.
func withContainer(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, c *state.Container) error) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	if err := loadEnv(opts.envFile); err != nil {
		return err
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	log, err := logger.Setup(stderr, cfg.Client)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Debug("configuration loaded",
		"command", cmd.Name(),
		"store_driver", cfg.Store.Driver,
		"store_sealed", cfg.Store.EncryptionKey != "",
		"api_base_url", cfg.API.BaseURL,
		"log_level", cfg.Client.LogLevel)

	reg := prometheus.NewRegistry()
	a, err := newApp(ctx, cfg, log, reg)
	if err != nil {
		return err
	}

	if err := a.container.Load(ctx); err != nil {
		_ = a.close(ctx)
		return fmt.Errorf("failed to load state: %w", err)
	}

	cmdErr := fn(logger.WithLogger(ctx, log.With("command", cmd.Name())), a.container)
	closeErr := a.close(ctx)

	if opts.dumpMetrics {
		if err := writeMetrics(stderr, reg); err != nil {
			log.Warn("failed to write metrics", "error", err)
		}
	}
	if cmdErr != nil {
		return cmdErr
	}
	return closeErr
}

// loadEnv loads a .env file into the process environment. Variables that are
// already set win. A missing default .env is not an error.
func loadEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
