package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"rootforge/internal/buildroot"
	"rootforge/internal/logging"
	"rootforge/internal/sequence"
	"rootforge/internal/settings"
)

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

// version is overridden at link time.
var version = "dev"

func main() {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelInfo)

	slog.SetDefault(logging.NewCLI(os.Stderr, &levelVar))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(&levelVar)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("command interrupted", "error", err)
			os.Exit(130)
		}
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand(levelVar *slog.LevelVar) *cobra.Command {
	logLevel := defaultLogLevel
	logFormat := defaultLogFormat

	root := &cobra.Command{
		Use:           "rootforge",
		Short:         "Compose a Buildroot configuration and drive the toolchain and rootfs build",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "Set log verbosity (debug, info, warning, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", defaultLogFormat, "Set log output format (text, json)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := parseLogLevel(logLevel)
		if err != nil {
			return err
		}
		if levelVar != nil {
			levelVar.Set(level)
		}

		mode, err := parseLogFormat(logFormat)
		if err != nil {
			return err
		}
		slog.SetDefault(logging.New(mode, os.Stderr, levelVar))
		return nil
	}

	root.AddCommand(
		newBuildCommand(),
		newVersionCommand(),
	)
	return root
}

// buildFlags is the CLI-side input for one build invocation, before the
// settings file is folded in.
type buildFlags struct {
	settingsPath string

	buildroot   string
	board       string
	output      string
	download    string
	packages    string
	overlay     string
	benchSource string
	jobs        int

	configOverrides []string
	fragments       []string

	buildLinux   bool
	baseline     bool
	noAll        bool
	noOverlay    bool
	forceRebuild bool
	initrd       bool
	initramfs    bool
	verbose      bool
}

func newBuildCommand() *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build <arch> [-- make-args...]",
		Args:  cobra.MinimumNArgs(1),
		Short: "Build the cross toolchain and root filesystem image for an architecture",
		Long: "Build composes the Buildroot configuration for the given architecture\n" +
			"(one of " + strings.Join(buildroot.SupportedArchitectures(), ", ") + "),\n" +
			"then drives defconfig selection, configuration merge and the full build.\n" +
			"Arguments after -- are passed to make unchanged.",
		RunE: func(cmd *cobra.Command, args []string) error {
			arch := strings.TrimSpace(args[0])
			if arch == "" {
				return fmt.Errorf("architecture is required")
			}

			cmdLogger := slog.Default().With("command", "build", "arch", arch)

			env, err := resolveEnvironment(cmd, flags, arch, args[1:])
			if err != nil {
				return err
			}

			set, err := buildroot.Compose(env)
			if err != nil {
				return err
			}

			external := ""
			if env.PackagesDir != "" {
				external, err = buildroot.ScanExternal(env.PackagesDir)
				if err != nil {
					return err
				}
			}

			cmdLogger.Info("starting build",
				"output", env.OutputDir,
				"external", external,
				"config_lines", len(set.Lines),
				"fragments", len(set.Fragments),
			)

			seq := sequence.New(env, set, external, cmdLogger)
			if err := seq.Run(cmd.Context()); err != nil {
				cmdLogger.Error("build failed", "error", err)
				return err
			}

			cmdLogger.Info("build completed")
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.settingsPath, "settings", settings.DefaultPath, "Path to the settings file")
	cmd.Flags().StringVar(&flags.buildroot, "buildroot", "", "Buildroot source tree")
	cmd.Flags().StringVar(&flags.board, "board", "", "Directory holding the auxiliary build inputs")
	cmd.Flags().StringVar(&flags.output, "output", "", "Build output directory")
	cmd.Flags().StringVar(&flags.download, "dl-dir", "", "Shared download cache directory")
	cmd.Flags().StringVar(&flags.packages, "packages", "", "Directory whose subdirectories are external package sets")
	cmd.Flags().StringVar(&flags.overlay, "overlay", "", "Rootfs overlay directory")
	cmd.Flags().StringVar(&flags.benchSource, "bench-source", "", "Benchmark source directory handed to the build")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 0, "Parallel build jobs (0 selects the CPU count)")

	cmd.Flags().StringArrayVar(&flags.configOverrides, "config", nil, "KEY=VALUE configuration override; repeat to add more (applied last)")
	cmd.Flags().StringArrayVar(&flags.fragments, "config-fragment", nil, "Configuration fragment file; repeat to add more")

	cmd.Flags().BoolVar(&flags.buildLinux, "build-linux", false, "Build the Linux kernel instead of disabling it")
	cmd.Flags().BoolVar(&flags.baseline, "baseline", false, "Baseline mode: no customizations, to measure the stock build")
	cmd.Flags().BoolVar(&flags.noAll, "no-all", false, "Do not append the aggregate 'all' target")
	cmd.Flags().BoolVar(&flags.noOverlay, "no-overlay", false, "Do not include the rootfs overlay")
	cmd.Flags().BoolVar(&flags.forceRebuild, "force-rebuild", false, "Rebuild unconditionally (make -B)")
	cmd.Flags().BoolVar(&flags.initrd, "initrd", false, "Enable CPIO rootfs output for initrd use")
	cmd.Flags().BoolVar(&flags.initramfs, "initramfs", false, "Enable CPIO rootfs output for initramfs use")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Verbose build output (make V=1)")

	return cmd
}

// resolveEnvironment folds the settings file and the CLI flags into one
// immutable environment. A changed flag wins over the file value.
func resolveEnvironment(cmd *cobra.Command, flags buildFlags, arch string, extraArgs []string) (buildroot.BuildEnvironment, error) {
	var env buildroot.BuildEnvironment

	s, err := settings.Load(flags.settingsPath)
	if err != nil {
		return env, err
	}

	pick := func(name, flagValue, fileValue string) string {
		if cmd.Flags().Changed(name) {
			return flagValue
		}
		if fileValue != "" {
			return fileValue
		}
		return flagValue
	}

	env = buildroot.BuildEnvironment{
		Arch: arch,

		TreeDir:     pick("buildroot", flags.buildroot, s.Buildroot),
		BoardDir:    pick("board", flags.board, s.Board),
		OutputDir:   pick("output", flags.output, s.Output),
		DownloadDir: pick("dl-dir", flags.download, s.Download),
		PackagesDir: pick("packages", flags.packages, s.Packages),
		OverlayDir:  pick("overlay", flags.overlay, s.Overlay),

		BenchSourceDir: pick("bench-source", flags.benchSource, s.BenchSource),

		Jobs: s.Jobs,

		ConfigOverrides: flags.configOverrides,
		Fragments:       flags.fragments,
		ExtraArgs:       extraArgs,

		BuildLinux:   flags.buildLinux,
		Baseline:     flags.baseline,
		NoAll:        flags.noAll,
		NoOverlay:    flags.noOverlay,
		ForceRebuild: flags.forceRebuild,
		Initrd:       flags.initrd,
		Initramfs:    flags.initramfs,
		Verbose:      flags.verbose,
	}
	if cmd.Flags().Changed("jobs") && flags.jobs > 0 {
		env.Jobs = flags.jobs
	}

	if env.TreeDir == "" {
		return env, fmt.Errorf("buildroot tree is required (--buildroot or settings file)")
	}
	if env.BoardDir == "" && !env.Baseline {
		return env, fmt.Errorf("board directory is required outside baseline mode (--board or settings file)")
	}
	if env.OutputDir == "" {
		env.OutputDir = "output"
	}
	if env.DownloadDir == "" {
		env.DownloadDir = filepath.Join(env.OutputDir, "dl")
	}
	if env.OverlayDir == "" && !env.NoOverlay && !env.Baseline {
		env.OverlayDir = filepath.Join(env.OutputDir, "overlay")
	}

	if err := absolutize(&env.TreeDir, &env.BoardDir, &env.OutputDir, &env.DownloadDir,
		&env.PackagesDir, &env.OverlayDir, &env.BenchSourceDir); err != nil {
		return env, err
	}

	for i, frag := range env.Fragments {
		abs, err := filepath.Abs(frag)
		if err != nil {
			return env, fmt.Errorf("resolve fragment %q: %w", frag, err)
		}
		env.Fragments[i] = abs
	}

	return env, nil
}

func absolutize(paths ...*string) error {
	for _, p := range paths {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("resolve path %q: %w", *p, err)
		}
		*p = abs
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rootforge version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func parseLogFormat(value string) (logging.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "text", "cli":
		return logging.ModeCLI, nil
	case "json":
		return logging.ModeJSON, nil
	default:
		return logging.ModeCLI, fmt.Errorf("unknown log format %q", value)
	}
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}
