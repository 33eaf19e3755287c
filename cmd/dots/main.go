package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/filaco/dots/internal/ageutil"
	"github.com/filaco/dots/internal/audit"
	"github.com/filaco/dots/internal/color"
	"github.com/filaco/dots/internal/config"
	"github.com/filaco/dots/internal/gate"
	"github.com/filaco/dots/internal/logging"
	"github.com/filaco/dots/internal/platform"
	"github.com/filaco/dots/internal/runner"
	"github.com/filaco/dots/internal/shell"
)

// exitAborted is what a shell reports for a SIGINT-terminated process. An
// operator abort and an interrupt both exit with it.
const exitAborted = 130

var (
	configFile string
	dryRun     bool
	noConfirm  bool
	verbosity  int

	cfg      config.Config
	cfgPath  string
	logger   *zap.Logger
	closeLog func() error
)

func main() {
	color.Init()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := buildRoot().ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	stop()
	if err != nil && interrupted {
		// A child killed by the signal fails with its own exit error.
		err = fmt.Errorf("%w: %w", context.Canceled, err)
	}
	switch {
	case err == nil, errors.Is(err, gate.ErrAborted):
	case errors.Is(err, context.Canceled):
		if logger != nil {
			logger.Warn("interrupted")
		}
	default:
		reportError(err)
	}
	if closeLog != nil {
		_ = closeLog()
	}
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, gate.ErrAborted) || errors.Is(err, context.Canceled) {
		return exitAborted
	}
	if code, ok := shell.ExitCode(err); ok && code > 0 {
		return code
	}
	return 1
}

func reportError(err error) {
	if logger != nil {
		logger.Error("dots failed", zap.Error(err))
		return
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", color.BoldRed("error:"), err)
}

func buildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "dots",
		Short: "Install packages, tools and dotfiles on an Arch-based machine",
		Long: `dots sets up a fresh machine: it syncs the package manager, installs base
dependencies, an AUR helper, the package list for the target, any missing
special dependencies, then runs environment commands and copies dotfiles.

Every step is shown before it runs and can be confirmed, skipped or aborted.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default $XDG_CONFIG_HOME/dots/dots.yaml)")
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "print actions without executing them")
	root.PersistentFlags().BoolVar(&noConfirm, "noconfirm", false, "run every action without asking")
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v enables debug output)")

	root.AddCommand(
		installCmd(),
		cleanCmd(),
		planCmd(),
		logCmd(),
		configCmd(),
		encryptCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, used, err := config.NewLoader().Load(configFile)
	if err != nil {
		return err
	}
	cfg, cfgPath = loaded, used

	l, closer, err := logging.New(logging.Options{
		Verbosity: verbosity,
		File:      cfg.Log.Path(),
		Backups:   cfg.Log.Backups,
		Stdout:    cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	logger, closeLog = l, closer
	logger.Debug("configuration loaded", zap.String("file", cfgPath), zap.Int("verbosity", verbosity))
	return nil
}

// --- install -----------------------------------------------------------------

func installCmd() *cobra.Command {
	var targetName string

	cmd := &cobra.Command{
		Use:     "install",
		Aliases: []string{"i"},
		Short:   "Run the installation sequence for a target machine",
		Example: `  dots install
  dots i -t laptop
  dots install -t server --noconfirm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := runner.ParseTarget(targetName)
			if err != nil {
				return err
			}
			warnIfNotArch()

			prompter := gate.NewPrompter(cfg.Prompt, cmd.InOrStdin(), cmd.OutOrStdout())
			g := gate.New(prompter, logger, cmd.OutOrStdout())
			g.DryRun = dryRun

			r := runner.New(cfg, g, logger)
			r.Journal = audit.Open(cfg.Log.HistoryPath())

			_, err = r.Install(cmd.Context(), target, gate.Mode{NoConfirm: noConfirm})
			if errors.Is(err, gate.ErrAborted) {
				logger.Warn("installation aborted", zap.String("target", string(target)))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&targetName, "target", "t", string(runner.Desktop), "machine type: desktop, laptop or server")
	return cmd
}

func warnIfNotArch() {
	release, err := platform.ReadOSRelease(platform.OSReleasePath)
	if err != nil {
		logger.Warn("cannot identify the distribution", zap.Error(err))
		return
	}
	if !platform.ArchBased(release) {
		logger.Warn("not an Arch-based system; package steps will likely fail",
			zap.String("id", release["ID"]), zap.String("os", platform.Current()))
	}
}

// --- clean -------------------------------------------------------------------

func cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "clean",
		Aliases: []string{"c"},
		Short:   "Remove what install set up (not implemented yet)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Info("clean is not implemented yet")
			return nil
		},
	}
}

// --- plan --------------------------------------------------------------------

func planCmd() *cobra.Command {
	var targetName string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the installation sequence without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := runner.ParseTarget(targetName)
			if err != nil {
				return err
			}
			runner.New(cfg, nil, logger).Plan(cmd.Context(), cmd.OutOrStdout(), target, gate.Mode{NoConfirm: noConfirm})
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetName, "target", "t", string(runner.Desktop), "machine type: desktop, laptop or server")
	return cmd
}

// --- log ---------------------------------------------------------------------

func logCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the history of gated actions",
		Example: `  dots log
  dots log --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			journal := audit.Open(cfg.Log.HistoryPath())
			entries, err := journal.Read(limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "(no history)")
				return nil
			}

			fmt.Fprintln(out, color.Bold(fmt.Sprintf("%-19s  %-8s  %-28s  %-8s  %s",
				"TIME", "TARGET", "STEP", "OUTCOME", "ACTION")))
			fmt.Fprintln(out, color.Dim(strings.Repeat("-", 100)))
			for _, e := range entries {
				outcome := fmt.Sprintf("%-8s", e.Outcome)
				switch e.Outcome {
				case "executed":
					outcome = color.Green(outcome)
				case "failed":
					outcome = color.BoldRed(outcome)
				case "aborted":
					outcome = color.Yellow(outcome)
				case "skipped":
					outcome = color.Dim(outcome)
				}
				action := e.Action
				if e.Error != "" {
					action += " (" + e.Error + ")"
				}
				fmt.Fprintf(out, "%-19s  %-8s  %-28s  %s  %s\n",
					e.Time.Local().Format(time.DateTime), e.Target, e.Step, outcome, action)
			}
			fmt.Fprintf(out, "\nhistory: %s\n", journal.Path)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries to show (0 for all)")
	return cmd
}

// --- config ------------------------------------------------------------------

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			source := cfgPath
			if source == "" {
				source = "built-in defaults"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", source, data)
			return nil
		},
	}
}

// --- encrypt -----------------------------------------------------------------

func encryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "encrypt <file>",
		Short:   "Encrypt a dotfile for the dotfiles tree (writes <file>.age)",
		Example: `  DOTS_AGE_PASSPHRASE=... dots encrypt ~/dots/config/ssh/config`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := &ageutil.Key{IdentityFile: cfg.Age.Identity, Passphrase: cfg.Age.Passphrase}
			if !key.Configured() {
				return ageutil.ErrNoKey
			}
			src := platform.ExpandPath(args[0])
			dst := ageutil.EncryptedPath(src)
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "[dry-run] encrypt %s -> %s\n", src, dst)
				return nil
			}
			if err := key.EncryptFile(src, dst); err != nil {
				return err
			}
			logger.Info("encrypted", zap.String("source", src), zap.String("destination", dst))
			return nil
		},
	}
}
