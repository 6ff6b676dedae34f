package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ordermgmt/ordersvc/internal/app"
	"github.com/ordermgmt/ordersvc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "ordermgmt",
	Short:         "Order management REST service",
	Long:          `Serves customers, products, orders and order lines over a relational store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE:  runMigrate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		release, commit, built := version.Info()
		cmd.Printf("ordermgmt %s (commit %s, built %s)\n", release, commit, built)
	},
}

// configPath points at an optional TOML file; CONFIG_FILE is the default.
var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_FILE"), "Path to a TOML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		zlog.Fatal().Err(err).Msg("ordermgmt failed")
	}
}

func loadConfig() (app.Config, error) {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return app.Config{}, err
	}
	setupLogging(cfg)
	return cfg, nil
}

// setupLogging uses the console writer in development and JSON otherwise.
func setupLogging(cfg app.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(cfg.LogLevel)
	if cfg.IsDev() {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
		return
	}
	zlog.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx, cfg)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.AutoMigrate = true

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	db, err := app.OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	zlog.Info().Str("db_driver", cfg.DBDriver).Msg("schema up to date")
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
