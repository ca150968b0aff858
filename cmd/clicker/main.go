package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/studiowebux/clicker/internal/cli"
	"github.com/studiowebux/clicker/internal/config"
	"github.com/studiowebux/clicker/internal/filter"
	"github.com/studiowebux/clicker/internal/keybinds"
	"github.com/studiowebux/clicker/internal/mock"
	"github.com/studiowebux/clicker/internal/stresstest"
	"github.com/studiowebux/clicker/internal/tui"
	"github.com/studiowebux/clicker/internal/version"
)

var (
	appVersion = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "clicker",
	Short: "Clicker - one-button remote for a host on your network",
	Long: `Clicker is a one-button remote. Each press flips the button and sends
key_down or key_up to the remote host over a WebSocket.

Run without arguments to start the TUI. The last host that answered is
remembered and reconnected automatically.

Examples:
  clicker                                   # Start the TUI
  clicker --server 192.168.1.50             # Start the TUI on a host
  clicker open "http://host:8080/?server=ws://host:8765"
  clicker connect studio.local              # Line-mode client
  clicker history                           # Recent hosts
  clicker mock-host                         # Local host for testing`,
	Version: appVersion,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, "")
	},
}

var openCmd = &cobra.Command{
	Use:   "open <launch-url>",
	Short: "Start the TUI on the host named by a launch URL",
	Long: `Start the TUI on the host named by the server= parameter of a launch URL,
as shown by the host's web page or QR code.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args[0])
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect [address]",
	Short: "Line-mode client: press enter to toggle",
	Long: `Connect without the TUI. Each input line is a command:

  enter, t   toggle the button
  d          disconnect and forget the session
  q          quit, keeping the session

Without an address the saved session is used, then a picker over recent hosts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := ""
		if len(args) > 0 {
			address = args[0]
		}
		return runConnect(cmd, address)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or clear recent hosts",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <input>",
	Short: "Print the canonical wire address for an input",
	Args:  cobra.ExactArgs(1),
	RunE:  runNormalize,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-host connection analytics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var mockHostCmd = &cobra.Command{
	Use:   "mock-host",
	Short: "Run a local host that accepts and logs commands",
	Long: `Run a local host for testing. It accepts key_down/key_up on the wire port
and serves a launch page on the control port.`,
	Args: cobra.NoArgs,
	RunE: runMockHost,
}

var stressCmd = &cobra.Command{
	Use:   "stress [address]",
	Short: "Measure how quickly a host acknowledges commands",
	Long: `Open several channels to a host and toggle on each, timing every
acknowledgement. Runs are stored and listed with --history.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStress,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, optionally checking for a newer release",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

// Global flags
var (
	flagServer   string
	flagConfig   string
	flagLogLevel string
)

// Flags for subcommands
var (
	flagOutput       string
	flagHistoryClear bool
	flagStatsClear   bool
	flagMockFile     string
	flagMockHost     string
	flagMockAdvert   string
	flagMockWire     int
	flagMockControl  int
	flagCheckUpdate  bool
	flagStress       stresstest.Config
	flagStressList   bool
	flagFilter       string
	flagQuery        string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Server address to connect to (saved as the session)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Settings file (default ~/.clicker/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug/info/warn/error)")

	connectCmd.Flags().StringVarP(&flagOutput, "output", "o", "text", "Output format (text/json/yaml)")

	historyCmd.Flags().StringVarP(&flagOutput, "output", "o", "text", "Output format (text/json/yaml)")
	for _, c := range []*cobra.Command{historyCmd, statsCmd, stressCmd} {
		c.Flags().StringVar(&flagFilter, "filter", "", "JMESPath filter over the JSON report")
		c.Flags().StringVar(&flagQuery, "query", "", "JMESPath query or $(shell command) over the JSON report")
		c.PreRunE = validateReportFlags
	}

	historyCmd.Flags().BoolVar(&flagHistoryClear, "clear", false, "Remove all recent hosts")

	statsCmd.Flags().StringVarP(&flagOutput, "output", "o", "text", "Output format (text/json/yaml)")
	statsCmd.Flags().BoolVar(&flagStatsClear, "clear", false, "Delete recorded analytics")

	mockHostCmd.Flags().StringVarP(&flagMockFile, "file", "f", "", "Mock host config file (yaml/json)")
	mockHostCmd.Flags().StringVar(&flagMockHost, "host", "", "Listen host")
	mockHostCmd.Flags().StringVar(&flagMockAdvert, "advertise", "", "Host placed in the launch URL")
	mockHostCmd.Flags().IntVar(&flagMockWire, "wire-port", 0, "Command channel port")
	mockHostCmd.Flags().IntVar(&flagMockControl, "control-port", 0, "Launch page port")

	versionCmd.Flags().BoolVar(&flagCheckUpdate, "check", false, "Check for a newer release")

	stressCmd.Flags().IntVarP(&flagStress.Clients, "clients", "c", stresstest.DefaultClients, "Concurrent channels")
	stressCmd.Flags().IntVarP(&flagStress.Toggles, "toggles", "n", stresstest.DefaultToggles, "Toggles per channel")
	stressCmd.Flags().DurationVar(&flagStress.Interval, "interval", 0, "Pause between toggles")
	stressCmd.Flags().DurationVar(&flagStress.RampUp, "ramp-up", 0, "Window over which channels start")
	stressCmd.Flags().DurationVar(&flagStress.ReplyTimeout, "reply-timeout", stresstest.DefaultReplyTimeout, "Wait for each acknowledgement")
	stressCmd.Flags().BoolVar(&flagStressList, "history", false, "List previous runs")
	stressCmd.Flags().StringVarP(&flagOutput, "output", "o", "text", "Output format (text/json/yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(stressCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(mockHostCmd)
}

func reportExpressions() filter.Expressions {
	return filter.Expressions{Filter: flagFilter, Query: flagQuery}
}

// validateReportFlags rejects a bad --filter or --query before any work runs
func validateReportFlags(cmd *cobra.Command, args []string) error {
	return reportExpressions().Validate()
}

// writeReport prints a report in the --output format, or as JSON passed
// through --filter and --query when either is set
func writeReport(cmd *cobra.Command, write func(io.Writer, string) error) error {
	out := cmd.OutOrStdout()
	expr := reportExpressions()
	if expr.Empty() {
		return write(out, flagOutput)
	}

	var buf bytes.Buffer
	if err := write(&buf, "json"); err != nil {
		return err
	}
	result, err := expr.Apply(cmd.Context(), buf.String())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, result)
	return nil
}

// signalContext is cancelled on SIGINT/SIGTERM
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func runTUI(cmd *cobra.Command, launch string) error {
	a, err := newApp(appOptions{configPath: flagConfig, logLevel: flagLogLevel})
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.seed(flagServer, launch); err != nil {
		return err
	}

	keys, err := loadKeybinds(a)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	bridge := tui.NewBridge()
	rt := a.start(ctx, bridge, bridge)

	err = tui.Run(ctx, tui.Deps{
		Session:    a.session,
		History:    a.history,
		Connection: rt.manager,
		Toggle:     rt.toggle,
		Keys:       keys,
		Normalizer: a.normalizer,
		Logger:     a.logger,
	}, bridge)

	cancel()
	rt.wait()
	return err
}

// loadKeybinds applies keybinds.json over the defaults, writing a commented
// example on first run
func loadKeybinds(a *app) (*keybinds.Registry, error) {
	if _, err := os.Stat(config.KeybindsFile); os.IsNotExist(err) {
		if err := keybinds.CreateExampleConfig(config.KeybindsFile); err != nil {
			a.logger.Warn().Err(err).Msg("failed to write example keybinds")
		}
	}

	if cfg, err := keybinds.LoadConfig(config.KeybindsFile); err == nil {
		result := keybinds.NewValidator().ValidateConfig(cfg)
		if result.HasErrors() {
			return nil, fmt.Errorf("invalid %s:\n%s", config.KeybindsFile, result.String())
		}
		for _, warning := range result.Warnings {
			a.logger.Warn().Str("keybinds", config.KeybindsFile).Msg(warning.Error())
		}
	}

	return keybinds.LoadOrDefault(config.KeybindsFile)
}

func runConnect(cmd *cobra.Command, address string) error {
	a, err := newApp(appOptions{configPath: flagConfig, logLevel: flagLogLevel})
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.seed(flagServer, ""); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	rt := a.start(ctx, nil)

	err = cli.Connect(ctx, cli.ConnectOptions{
		Address:      address,
		OutputFormat: flagOutput,
		Client:       rt.manager,
		Toggle:       rt.toggle,
		Session:      a.session,
		History:      a.history,
		Normalizer:   a.normalizer,
		Logger:       a.logger,
		In:           cmd.InOrStdin(),
		Out:          cmd.OutOrStdout(),
	})

	cancel()
	rt.wait()
	return err
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{configPath: flagConfig, logLevel: flagLogLevel})
	if err != nil {
		return err
	}
	defer a.close()

	if flagHistoryClear {
		if err := a.history.Clear(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Recent hosts cleared")
		return nil
	}

	entries := a.history.List()
	return writeReport(cmd, func(w io.Writer, format string) error {
		return cli.WriteHistory(w, entries, format)
	})
}

func runNormalize(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{configPath: flagConfig, logLevel: flagLogLevel})
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Fprintln(cmd.OutOrStdout(), a.normalizer.Normalize(args[0]).String())
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{configPath: flagConfig, logLevel: flagLogLevel})
	if err != nil {
		return err
	}
	defer a.close()

	if a.analytics == nil {
		return fmt.Errorf("analytics unavailable: storage could not be opened")
	}

	if flagStatsClear {
		if err := a.analytics.Clear(); err != nil {
			return fmt.Errorf("failed to clear analytics: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Analytics cleared")
		return nil
	}

	stats, err := a.analytics.GetStatsPerAddress()
	if err != nil {
		return fmt.Errorf("failed to load analytics: %w", err)
	}
	return writeReport(cmd, func(w io.Writer, format string) error {
		return cli.WriteStats(w, stats, format)
	})
}

func runMockHost(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{configPath: flagConfig, logLevel: flagLogLevel, console: true})
	if err != nil {
		return err
	}
	defer a.close()

	cfg := mock.DefaultConfig()
	if flagMockFile != "" {
		if cfg, err = mock.LoadConfig(flagMockFile); err != nil {
			return err
		}
	}
	if flagMockHost != "" {
		cfg.Host = flagMockHost
	}
	if flagMockAdvert != "" {
		cfg.Advertise = flagMockAdvert
	}
	if flagMockWire != 0 {
		cfg.WirePort = flagMockWire
	}
	if flagMockControl != 0 {
		cfg.ControlPort = flagMockControl
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	server := mock.NewServer(cfg, a.logger)
	fmt.Fprintf(cmd.OutOrStdout(), "Wire:   %s\nLaunch: %s\n", server.WireAddress(), server.LaunchURL())
	return server.Run(ctx)
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "clicker %s\n", appVersion)
	if !flagCheckUpdate {
		return nil
	}

	result, err := version.NewChecker().Check(cmd.Context(), appVersion)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	if result.Available {
		fmt.Fprintf(out, "A newer release is available: %s\n%s\n", result.Latest, result.URL)
	} else {
		fmt.Fprintln(out, "You are on the latest release")
	}
	return nil
}

func runStress(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{configPath: flagConfig, logLevel: flagLogLevel})
	if err != nil {
		return err
	}
	defer a.close()

	var runs *stresstest.Manager
	if a.sqlite != nil {
		if runs, err = stresstest.NewManager(a.sqlite.DB()); err != nil {
			a.logger.Warn().Err(err).Msg("stress runs will not be stored")
			runs = nil
		}
	}

	if flagStressList {
		if runs == nil {
			return fmt.Errorf("stress history unavailable: storage could not be opened")
		}
		list, err := runs.ListRuns(20)
		if err != nil {
			return fmt.Errorf("failed to load runs: %w", err)
		}
		return writeReport(cmd, func(w io.Writer, format string) error {
			return cli.WriteStressRuns(w, list, format)
		})
	}

	address := a.session.ServerURL()
	if len(args) > 0 {
		address = args[0]
	}
	if flagServer != "" {
		address = flagServer
	}
	if address == "" {
		return cli.ErrNoAddress
	}

	config := flagStress
	config.Address = a.normalizer.Normalize(address).String()

	executor, err := stresstest.NewExecutor(&config, a.logger)
	if err != nil {
		return err
	}

	var run *stresstest.Run
	if runs != nil {
		if run, err = runs.CreateRun(&config); err != nil {
			a.logger.Warn().Err(err).Msg("failed to store run")
		}
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Stressing %s with %d channel(s) x %d toggles\n", config.Address, config.Clients, config.Toggles)

	stats, runErr := executor.Run(ctx)
	status := "completed"
	if runErr != nil {
		status = "cancelled"
	}
	if stats.Errors > 0 && stats.Acked == 0 {
		status = "failed"
	}

	if run != nil {
		if err := runs.FinishRun(run, stats, status); err != nil {
			a.logger.Warn().Err(err).Msg("failed to store run result")
		}
	}

	return writeReport(cmd, func(w io.Writer, format string) error {
		return cli.WriteStressStats(w, stats, format)
	})
}
