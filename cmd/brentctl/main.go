package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"BrentCast/internal/di"
	"BrentCast/internal/domain/models"
	"BrentCast/internal/usecase"
	"BrentCast/pkg/config"
	"BrentCast/pkg/util"
)

var (
	configFile string
	envFile    string
	timeout    time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "brentctl",
		Short: "Brent oil price forecasting from the command line",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load(envFile)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/config.yaml", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Dotenv file loaded before the config")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall command timeout")

	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(forecastCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withServices loads config, wires the use cases and runs fn.
func withServices(fn func(ctx context.Context, s *di.Services) error) error {
	cfg, err := config.LoadWithEnv(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	s, err := di.InitializeServices(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx, s)
}

// modelsCmd lists configured models
func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List configured forecasting models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(_ context.Context, s *di.Services) error {
				return printModels(cmd.OutOrStdout(), s.Forecast.Models())
			})
		},
	}
}

// refreshCmd reloads the series from upstream
func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the Brent series from Ipeadata and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(ctx context.Context, s *di.Services) error {
				res, err := s.Series.RefreshSummary(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Series %s: %d points from %s to %s\n",
					res.Code, res.Points, util.FormatBR(res.First), util.FormatBR(res.Last))
				return nil
			})
		},
	}
}

// forecastCmd runs one or all models
func forecastCmd() *cobra.Command {
	var (
		model   string
		horizon int
		csvPath string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast the Brent price for the next days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(ctx context.Context, s *di.Services) error {
				out := cmd.OutOrStdout()
				if all {
					results, err := s.Forecast.ForecastAll(ctx, horizon)
					for _, r := range results {
						if perr := printForecast(out, r); perr != nil {
							return perr
						}
					}
					return err
				}

				res, err := s.Forecast.Forecast(ctx, model, horizon)
				if err != nil {
					return err
				}
				if csvPath == "" {
					return printForecast(out, res)
				}
				if csvPath == "-" {
					return usecase.ExportCSV(out, res)
				}
				f, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", csvPath, err)
				}
				if err := usecase.ExportCSV(f, res); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Forecast saved to %s\n", csvPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "xgboost", "Model name")
	cmd.Flags().IntVarP(&horizon, "horizon", "n", -1, "Days to forecast (negative uses the configured default)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write CSV to this path ('-' for stdout)")
	cmd.Flags().BoolVar(&all, "all", false, "Run every configured model")
	return cmd
}

func printModels(w io.Writer, ms []models.ModelInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVARIANT\tLOOKBACK\tRMSE\tREMOTE")
	for _, m := range ms {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%t\n", m.Name, m.Variant, m.Lookback, m.RMSE, m.Remote)
	}
	return tw.Flush()
}

func printForecast(w io.Writer, r *models.ForecastResult) error {
	fmt.Fprintf(w, "=== %s (%s, lookback %d) ===\n", r.Model, r.Variant, r.Lookback)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tPRICE (USD)\tDIRECTION")
	for _, p := range r.Points {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", util.FormatBR(p.Date), usecase.FormatPrice(p.Price), p.Direction)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Trend: %s\n\n", r.Trend)
	return nil
}
