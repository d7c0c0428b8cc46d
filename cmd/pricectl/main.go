// Package main provides pricectl, the command line tool for estimates and
// historical data maintenance.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/machinery-pricer/internal/api"
	"github.com/yourusername/machinery-pricer/internal/cache"
	"github.com/yourusername/machinery-pricer/internal/config"
	"github.com/yourusername/machinery-pricer/internal/database"
	"github.com/yourusername/machinery-pricer/internal/datasource"
	"github.com/yourusername/machinery-pricer/internal/logger"
	"github.com/yourusername/machinery-pricer/internal/repository"
	"github.com/yourusername/machinery-pricer/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	timeout    time.Duration
	appLog     *logrus.Logger
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall command timeout")

	addEstimateFlags(estimateCmd)

	importCmd.Flags().String("source", "", "Default source for rows without one (auction or pvp)")
	clearCmd.Flags().String("source", "", "Only delete this source (default: all)")
	clearCmd.Flags().Bool("yes", false, "Confirm deletion")

	rootCmd.AddCommand(estimateCmd, importCmd, inboxCmd, clearCmd, statsCmd, migrateCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:           "pricectl",
	Short:         "Machinery price suggestions and historical data tools",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return loadConfig()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		if err := config.LoadSecretsFromAWS(context.Background(), cfg, os.Getenv("AWS_REGION"), os.Getenv("AWS_SECRET_NAME")); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.SetOutput(os.Stderr)
	return nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// services opens the database and builds the services used by the commands
func services(ctx context.Context) (*database.DB, *service.PriceService, *service.ImportService, error) {
	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := cache.NewStore(cfg)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	repos, err := repository.NewRepositories(db)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	prices := service.NewPriceService(repos.Historical, repos.Live, store, cfg.Estimator, appLog)

	httpCfg := datasource.DefaultHTTPClientConfig()
	if cfg.Import.DownloadRate > 0 {
		httpCfg.RateLimit = cfg.Import.DownloadRate
	}
	factory := datasource.NewFactory(datasource.NewRateLimitedHTTPClient(httpCfg, appLog),
		datasource.SpreadsheetOptions{Sheet: cfg.Import.Sheet, DefaultSource: cfg.Import.DefaultSource},
		int64(cfg.Server.MaxUploadMB)<<20, appLog)
	imports := service.NewImportService(repos.Historical, factory, store, service.ImportServiceConfig{
		BatchSize:     cfg.Import.BatchSize,
		DefaultSource: cfg.Import.DefaultSource,
		InboxDir:      cfg.Import.InboxDir,
	}, appLog)

	return db, prices, imports, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Compute a price suggestion",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := suggestRequestFromFlags(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		db, prices, _, err := services(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		est, err := prices.Suggest(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(cmd, api.NewSuggestionResponse(est))
	},
}

func addEstimateFlags(cmd *cobra.Command) {
	cmd.Flags().String("use-case", "", "auction, pvp or repuestos")
	cmd.Flags().String("model", "", "Machine model")
	cmd.Flags().Int("year", 0, "Manufacture year (0 = unknown)")
	cmd.Flags().Int("hours", -1, "Operating hours (-1 = unknown)")
	cmd.Flags().String("cost", "", "Known cost, enables the margin")
	cmd.Flags().Int("year-tolerance", -1, "Override the year tolerance")
	cmd.Flags().Int("hours-tolerance", -1, "Override the hours tolerance")
	_ = cmd.MarkFlagRequired("use-case")
	_ = cmd.MarkFlagRequired("model")
}

func suggestRequestFromFlags(cmd *cobra.Command) (service.SuggestRequest, error) {
	flags := cmd.Flags()
	req := service.SuggestRequest{}
	req.UseCase, _ = flags.GetString("use-case")
	req.Model, _ = flags.GetString("model")

	if year, _ := flags.GetInt("year"); year > 0 {
		req.Year = &year
	}
	if hours, _ := flags.GetInt("hours"); hours >= 0 {
		req.Hours = &hours
	}
	if tol, _ := flags.GetInt("year-tolerance"); tol >= 0 {
		req.YearTolerance = &tol
	}
	if tol, _ := flags.GetInt("hours-tolerance"); tol >= 0 {
		req.HoursTolerance = &tol
	}
	if raw, _ := flags.GetString("cost"); raw != "" {
		cost, err := decimal.NewFromString(raw)
		if err != nil {
			return req, fmt.Errorf("invalid --cost %q: %w", raw, err)
		}
		req.Cost = &cost
	}
	return req, nil
}

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx|url>",
	Short: "Import a historical price spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")

		ctx, cancel := commandContext(cmd)
		defer cancel()
		db, _, imports, err := services(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		var report *service.ImportReport
		if strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://") {
			report, err = imports.ImportFromURL(ctx, args[0], source)
		} else {
			report, err = imports.ImportFile(ctx, args[0], source)
		}
		if report != nil {
			if perr := printJSON(cmd, report); perr != nil {
				return perr
			}
		}
		return err
	},
}

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Import every spreadsheet waiting in the inbox directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		db, _, imports, err := services(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		reports, err := imports.ImportInbox(ctx)
		if reports == nil {
			reports = []*service.ImportReport{}
		}
		if perr := printJSON(cmd, reports); perr != nil {
			return perr
		}
		return err
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete historical price records",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to delete historical records without --yes")
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		db, _, imports, err := services(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		requestedBy := os.Getenv("USER")
		if requestedBy == "" {
			requestedBy = "pricectl"
		}
		deleted, err := imports.Clear(ctx, source, requestedBy)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d historical records\n", deleted)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show historical record counts per source",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		db, _, imports, err := services(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := imports.Stats(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-10s %10s %12s %12s\n", "SOURCE", "RECORDS", "OLDEST", "NEWEST")
		for _, s := range stats {
			fmt.Fprintf(out, "%-10s %10d %12s %12s\n", s.Source, s.Records, formatDate(s.OldestDate), formatDate(s.NewestDate))
		}
		return nil
	},
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		db, err := database.NewDB(ctx, &cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return err
		}
		if err := db.CheckSchema(ctx); err != nil {
			return err
		}
		appLog.WithField("version", database.RequiredSchemaVersion).Info("Schema is up to date")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pricectl %s (%s)\n", Version, GitCommit)
	},
}
