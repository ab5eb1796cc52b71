package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dlwalsh/wa2019/internal/config"
	"github.com/dlwalsh/wa2019/internal/logging"
)

// app carries state shared by every command once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "wa2019",
		Short: "Check and total a WA state redistribution proposal built from SA1s",
		Long: `wa2019 expands a proposal's SA1 ranges into districts, checks that every
SA1 is claimed exactly once, and totals electors, area and the large-district
phantom allowance per district and per existing district of origin.

The phantom policy has no default: set apportion.policy in the config file,
WA2019_POLICY, or --policy to "area" or "electors".`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file (default $WA2019_CONFIG_PATH)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.String("policy", "", `phantom policy: "area" or "electors"`)
	flags.String("units", "", "SA1 reference GeoJSON")
	flags.String("proposal", "", "proposal JSON or YAML")
	flags.Int("workers", 0, "districts processed at once (0 = GOMAXPROCS)")
	flags.Bool("geometry", false, "merge district shapes and use the merged area")

	rootCmd.AddCommand(figuresCmd(a))
	rootCmd.AddCommand(checkCmd(a))
	rootCmd.AddCommand(proposalCmd(a))
	rootCmd.AddCommand(selectCmd(a))
	rootCmd.AddCommand(serveCmd(a))
	rootCmd.AddCommand(historyCmd(a))

	return rootCmd
}

// setup loads configuration, applies flags the user set, and builds the
// logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("policy") {
		cfg.Apportion.Policy, _ = flags.GetString("policy")
	}
	if flags.Changed("units") {
		cfg.Data.Units, _ = flags.GetString("units")
	}
	if flags.Changed("proposal") {
		cfg.Data.Proposal, _ = flags.GetString("proposal")
	}
	if flags.Changed("workers") {
		cfg.Apportion.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("geometry") {
		cfg.Apportion.Geometry, _ = flags.GetBool("geometry")
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

func figuresCmd(a *app) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "figures",
		Short: "Print per-district and per-origin elector, area and phantom totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runFigures(cmd.Context(), cmd.OutOrStdout(), save)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "record the run in the history database")
	return cmd
}

func checkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report missing, duplicate and invalid SA1s without printing figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCheck(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func proposalCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "proposal",
		Short: "Merge each district's SA1 shapes and write them as GeoJSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("output") {
				a.cfg.Data.Output = output
			}
			return a.runProposal(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "GeoJSON output path")
	return cmd
}

func selectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select [sa1 or start-end]...",
		Short: "Total an ad-hoc selection of SA1s and print it as proposal ranges",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSelect(cmd.OutOrStdout(), args)
		},
	}
}

func serveCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local server for reviewing the proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			return a.runServe(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP server port")
	return cmd
}

func historyCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List saved runs, or the districts of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return a.runHistoryDistricts(cmd.Context(), cmd.OutOrStdout(), args[0])
			}
			return a.runHistory(cmd.Context(), cmd.OutOrStdout(), limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "runs to list (0 = all)")
	return cmd
}
