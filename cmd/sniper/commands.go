package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwtly10/sniper/internal/backtest"
	"github.com/jwtly10/sniper/internal/config"
	"github.com/jwtly10/sniper/internal/display"
	"github.com/jwtly10/sniper/internal/indicators"
	"github.com/jwtly10/sniper/internal/market"
	"github.com/jwtly10/sniper/internal/store"
	"github.com/jwtly10/sniper/internal/strategy"
	"github.com/jwtly10/sniper/internal/tradingview"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sniper",
		Short:         "Rule-based daily bar backtester",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newTradesCmd())
	rootCmd.AddCommand(newVariantsCmd())

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [SYMBOL]",
		Short: "Backtest a rule set over an instrument's daily bars",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Symbol = args[0]
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}

			src, err := market.NewSource(cfg.MarketOptions())
			if err != nil {
				return err
			}

			opts := runOptions{}
			opts.pine, _ = cmd.Flags().GetString("pine")
			opts.save, _ = cmd.Flags().GetBool("save")
			opts.stats, _ = cmd.Flags().GetBool("stats")
			return runBacktest(cmd.Context(), cfg, src, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("start", "", "First date to download, YYYY-MM-DD")
	cmd.Flags().Float64("capital", 0, "Initial capital")
	cmd.Flags().String("variant", "", fmt.Sprintf("Rule set variant (%s)", strings.Join(strategy.Variants(), ", ")))
	cmd.Flags().String("source", "", "Data source (yahoo, csv, oanda)")
	cmd.Flags().String("csv", "", "CSV file for the csv source")
	cmd.Flags().String("db", "", "SQLite run history path")
	cmd.Flags().String("pine", "", "Write TradingView Pine Script markers to this file")
	cmd.Flags().Bool("save", false, "Save the run to the history database")
	cmd.Flags().Bool("stats", true, "Print run statistics and the trade list")

	return cmd
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("start") {
		cfg.Start, _ = flags.GetString("start")
	}
	if flags.Changed("capital") {
		cfg.Capital, _ = flags.GetFloat64("capital")
	}
	if flags.Changed("variant") {
		cfg.Variant, _ = flags.GetString("variant")
	}
	if flags.Changed("source") {
		cfg.Source, _ = flags.GetString("source")
	}
	if flags.Changed("csv") {
		cfg.CSVPath, _ = flags.GetString("csv")
		if !flags.Changed("source") {
			cfg.Source = market.SourceCSV
		}
	}
	if flags.Changed("db") {
		cfg.DBPath, _ = flags.GetString("db")
	}
	return cfg.Validate()
}

type runOptions struct {
	pine  string
	save  bool
	stats bool
}

// runBacktest is the whole pipeline: fetch, compute indicators, run the engine and report.
func runBacktest(ctx context.Context, cfg *config.Config, src market.Source, opts runOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start, err := cfg.StartTime()
	if err != nil {
		return err
	}

	rules, err := strategy.New(cfg.Variant, cfg.Strategy, cfg.Indicators)
	if err != nil {
		return err
	}

	bars, err := src.Fetch(ctx, cfg.Symbol, start)
	if err != nil {
		return fmt.Errorf("failed to fetch bars for %s: %w", cfg.Symbol, err)
	}
	if len(bars) <= rules.Warmup {
		return fmt.Errorf("not enough data for %s: %d bars, %s needs more than %d", cfg.Symbol, len(bars), rules.Name, rules.Warmup)
	}

	frames, err := indicators.Compute(bars, cfg.Indicators)
	if err != nil {
		return err
	}

	results, err := backtest.NewEngine(frames, cfg.Capital).Run(rules)
	if err != nil {
		return err
	}

	symbol := cfg.Symbol
	if ys, ok := src.(*market.YahooSource); ok {
		symbol = ys.Symbol(cfg.Symbol)
	}

	p := display.NewPrinter(w, cfg.Currency)
	p.Header(symbol, rules.Name, cfg.Capital)
	p.Trades(results)
	p.Result(results)

	if opts.stats {
		results.Calculate().Print(w)
		results.PrintTrades(w)
	}

	if opts.pine != "" {
		if err := tradingview.WritePineScript(opts.pine, symbol, results.RoundTrips, results.Open); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nPine Script markers written to %s\n", opts.pine)
	}

	if opts.save {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()

		id, err := st.SaveRun(ctx, store.Run{
			Symbol:         symbol,
			Variant:        rules.Name,
			Source:         cfg.Source,
			Start:          start,
			InitialCapital: results.InitialCapital,
			FinalCapital:   results.FinalCapital,
			Open:           results.Open != nil,
			Trades:         results.Trades,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Run saved as %s\n", id)
	}
	return nil
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath, _ = cmd.Flags().GetString("db")
	}
	return store.Open(cfg.DBPath)
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List saved runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(w, "No saved runs")
				return nil
			}
			for _, r := range runs {
				open := ""
				if r.Open {
					open = " (open)"
				}
				fmt.Fprintf(w, "%s | %-12s | %-10s | from %s | %d fills | %.2f -> %.2f (%+.1f%%)%s\n",
					r.ID, r.Symbol, r.Variant, r.Start.Format(time.DateOnly), r.TradeCount,
					r.InitialCapital, r.FinalCapital, r.ROI(), open)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().String("db", "", "SQLite run history path")
	return cmd
}

func newTradesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades RUN_ID",
		Short: "List the fills of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			trades, err := st.Trades(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, t := range trades {
				fmt.Fprintf(w, "%-12s | %-4s | %-10.2f | %s\n", t.Timestamp.Format(time.DateOnly), t.Side, t.Price, t.Reason)
			}
			return nil
		},
	}
	cmd.Flags().String("db", "", "SQLite run history path")
	return cmd
}

func newVariantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the rule set variants and the indicators they need",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, name := range strategy.Variants() {
				rules, err := strategy.New(name, strategy.DefaultParams(), indicators.DefaultSpec())
				if err != nil {
					return err
				}
				hysteresis := "no"
				if rules.PenaltyGate != nil {
					hysteresis = "yes"
				}
				exits := make([]string, len(rules.Exits))
				for i, e := range rules.Exits {
					exits[i] = e.Name
				}
				fmt.Fprintf(w, "%s\n  indicators: %s\n  warm-up:    %d bars\n  penalty:    %s\n  exits:      %s\n",
					name, strings.Join(rules.Required, ", "), rules.Warmup, hysteresis, strings.Join(exits, " > "))
			}
			return nil
		},
	}
}
