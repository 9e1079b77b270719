package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"spaceblack/cmd/ghost/chat"
	"spaceblack/internal/config"
	"spaceblack/internal/daemon"
	"spaceblack/internal/logging"
)

// Version is stamped at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

var (
	workspace string
	verbose   bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ghost",
	Short: "Space Black - a persistent terminal AI agent",
	Long: `Space Black is a terminal-native AI agent with a persistent brain:
file-based memory, an adaptive persona, scheduled tasks, a secrets
vault and a real browser.

Run without arguments to start the agent.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve working directory: %w", err)
			}
			workspace = cwd
		}
		workspace, _ = filepath.Abs(workspace)

		// .env before config so provider keys are visible everywhere.
		if err := config.LoadEnv(config.EnvPath(workspace)); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
		cfg, err := config.Load(config.Path(workspace))
		if err != nil {
			return err
		}
		if err := logging.Initialize(workspace, cfg.DebugMode || verbose); err != nil {
			return err
		}

		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		// The TUI owns the terminal; zap output would corrupt it.
		if cmd.Name() != "daemon" {
			zapCfg.OutputPaths = []string{filepath.Join(workspace, "brain", "ghost.log")}
			zapCfg.ErrorOutputPaths = zapCfg.OutputPaths
			if err := os.MkdirAll(filepath.Join(workspace, "brain"), 0o755); err != nil {
				return err
			}
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStart()
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the interactive agent (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStart()
	},
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background scheduler daemon in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Run the onboarding wizard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return chat.RunOnboarding(workspace)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
	},
}

func printVersion() {
	fmt.Printf("ghost %s (%s)\n", Version, Commit)
}

func runStart() error {
	if !config.Exists(workspace) {
		if err := chat.RunOnboarding(workspace); err != nil {
			return err
		}
	}

	rt, err := buildRuntime(workspace)
	if err != nil {
		return err
	}
	defer rt.Close()

	botCtx, stopBots := context.WithCancel(context.Background())
	defer stopBots()
	rt.StartBots(botCtx)

	return chat.Run(chat.Options{
		Workspace: workspace,
		Config:    rt.Config,
		Agent:     rt.Agent,
		Paths:     rt.Paths,
		Schedule:  rt.Schedule,
	})
}

func runDaemon() error {
	if !config.Exists(workspace) {
		return fmt.Errorf("not onboarded yet: run `ghost onboard` first")
	}

	rt, err := buildRuntime(workspace)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := daemon.New(rt.Agent, rt.Schedule, rt.Watcher, logger, workspace)
	if err != nil {
		return err
	}

	rt.StartBots(ctx)

	logger.Info("daemon starting", zap.String("workspace", workspace))
	return d.Run(ctx)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	rootCmd.Flags().BoolP("version", "v", false, "print version information")

	rootCmd.AddCommand(startCmd, daemonCmd, onboardCmd, updateCmd, versionCmd)

	// -v / --version short-circuits before any runtime setup.
	for _, arg := range os.Args[1:] {
		if arg == "-v" || arg == "--version" {
			printVersion()
			return
		}
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
