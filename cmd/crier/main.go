package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/crierhq/crier/internal/app"
	"github.com/crierhq/crier/internal/config"
	"github.com/crierhq/crier/internal/platform"
)

var (
	cfgFile   string
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "crier",
	Short: "Crier - campaign scheduling server",
	Long:  `Crier schedules and publishes marketing campaign posts across social platforms.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the campaign server",
	Long:  `Start the Crier server with the HTTP API and the post executor.`,
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List the known platforms",
	Run:   runPlatforms,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crier version %s\n", version)
		if commit != "unknown" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(serveCmd, configCmd, platformsCmd, versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Platform credentials commonly live in a .env next to the binary
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if cfgFile == "" {
		return fmt.Errorf("config file is required (use -c flag)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(context.Background())
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("config file is required (use -c flag)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  API: %s\n", cfg.API.ListenAddr)
	fmt.Printf("  Storage: %s\n", cfg.Storage.Path)
	fmt.Printf("  Workers: %d\n", cfg.Scheduler.Workers)
	fmt.Printf("  Retention: %s (%s)\n", cfg.Scheduler.Retention.MaxAge, cfg.Scheduler.Retention.CleanupSchedule)

	return nil
}

func runPlatforms(cmd *cobra.Command, args []string) {
	registry := platform.NewRegistry()

	for _, desc := range registry.All() {
		days := "daily"
		if desc.ActiveDays == platform.DaysWeekdays {
			days = "weekdays"
		}
		fmt.Printf("%-10s %-18s max %6d chars, slots %s (%s)\n",
			desc.ID, desc.Name, desc.MaxChars, strings.Join(desc.Slots, ","), days)
	}
}
