package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sartorproj/weathercast/compare"
	"github.com/sartorproj/weathercast/config"
	"github.com/sartorproj/weathercast/logging"
	"github.com/sartorproj/weathercast/pipeline"
	"github.com/sartorproj/weathercast/report"
	"github.com/sartorproj/weathercast/server"
	"github.com/sartorproj/weathercast/timeseries"
	"github.com/sartorproj/weathercast/weather"
)

type options struct {
	configFile string
	logLevel   string
	dataDir    string
	assetsDir  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "weathercast",
		Short:         "Forecast and compare daily city weather",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Config file (YAML)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Override the dataset directory")
	root.PersistentFlags().StringVar(&opts.assetsDir, "assets-dir", "", "Override the output directory")

	root.AddCommand(
		citiesCmd(opts),
		stationarityCmd(opts),
		forecastCmd(opts),
		compareCmd(opts),
		analyzeCmd(opts),
		serveCmd(opts),
	)
	return root
}

// setup loads the configuration and builds the service.
func setup(ctx context.Context, opts *options) (*pipeline.Service, *logging.Logger, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.assetsDir != "" {
		cfg.AssetsDir = opts.assetsDir
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	logging.SetGlobal(logger)

	svc, err := pipeline.New(ctx, cfg, pipeline.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start pipeline: %w", err)
	}
	return svc, logger, nil
}

func citiesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List the cities with a dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			datasets, err := svc.Cities()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range datasets {
				fmt.Fprintf(out, "%s\t%s\n", d.City, d.Through.Format(timeseries.DateLayout))
			}
			return nil
		},
	}
}

func stationarityCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stationarity <city>",
		Short: "Run the ADF test on every feature of a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			rows, err := svc.Stationarity(args[0])
			if err != nil {
				return err
			}
			t := &report.Table{Header: []string{"Feature", "ADF Statistic", "p-value", "Stationary", "Error"}}
			for _, r := range rows {
				t.Rows = append(t.Rows, []any{r.Feature, r.Statistic, r.PValue, r.Stationary, r.Error})
			}
			return report.WriteCSV(cmd.OutOrStdout(), t)
		},
	}
}

func forecastCmd(opts *options) *cobra.Command {
	var horizon int
	cmd := &cobra.Command{
		Use:   "forecast <arima|sarima|lstm> <city>",
		Short: "Forecast every feature of a city",
		Long: `Runs one model on a city, writes the prediction and summary tables
under the assets directory and prints the forecast as CSV.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := compare.ParseModel(args[0])
			if err != nil {
				return err
			}
			svc, _, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			run, err := svc.Forecast(cmd.Context(), model, args[1], horizon)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if run.Forecast != nil {
				if err := timeseries.WriteFrame(out, run.Forecast, 2); err != nil {
					return err
				}
			}
			fmt.Fprintln(out)
			if err := report.WriteCSV(out, run.Summary); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nrun %s: overall MSE %s, overall accuracy %s%%\n",
				run.ID, formatFloat(run.Overall.MSE), formatFloat(run.Overall.Accuracy))
			if len(run.Failed) > 0 {
				fmt.Fprintf(out, "failed features: %v\n", run.Failed)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&horizon, "horizon", 7, "Days to forecast (1-30)")
	return cmd
}

func compareCmd(opts *options) *cobra.Command {
	var feature string
	cmd := &cobra.Command{
		Use:   "compare <city>",
		Short: "Join the stored LSTM, ARIMA and SARIMA forecasts of one feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			table, err := svc.Compare(cmd.Context(), args[0], feature)
			if err != nil {
				return err
			}
			return timeseries.WriteFrame(cmd.OutOrStdout(), table, 2)
		},
	}
	cmd.Flags().StringVar(&feature, "feature", weather.MeanTemperature, "Feature to compare")
	return cmd
}

func analyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <city>",
		Short: "Describe the dataset of a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			rep, err := svc.Analyze(args[0])
			if err != nil {
				return err
			}
			return writeAnalysis(cmd.OutOrStdout(), rep.Features, rep.Summary, rep.Yearly)
		},
	}
}

func serveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			srv := server.New(svc, logger)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Listen(svc.Config().Server.Addr())
			}()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(shutdown)

			select {
			case err := <-errCh:
				return err
			case <-shutdown:
			}

			logger.Info("Shutting down server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Server shutdown error", "error", err)
			}
			logger.Info("Server stopped")
			return nil
		},
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(timeseries.RoundTo(v, 2), 'f', -1, 64)
}
