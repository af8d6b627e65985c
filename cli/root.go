package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bookhaven/bookhaven-cli/cli/config"
	"github.com/bookhaven/bookhaven-cli/internal/api"
	"github.com/bookhaven/bookhaven-cli/internal/download"
	"github.com/bookhaven/bookhaven-cli/internal/history"
	"github.com/bookhaven/bookhaven-cli/internal/state"
)

var rootCmd = &cobra.Command{
	Use:     "bookhaven",
	Short:   "BookHaven command line client",
	Long:    `Browse the BookHaven catalog, manage your account, review books, and download book files from the terminal.`,
	Version: "1.0.0",
	// Failures are reported through the print helpers; usage spam on a
	// denied or failed command helps nobody.
	SilenceUsage: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create the BookHaven config directory with default settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(); err != nil {
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}
		configPath, _ := config.GetConfigPath()
		printSuccess("Configuration initialized!")
		fmt.Printf("Config file: %s\n", configPath)
		fmt.Println("\nNext steps:")
		fmt.Println("  bookhaven config set-server <url>   (if the backend is not on localhost)")
		fmt.Println("  bookhaven auth register --name you --email you@example.com")
		return nil
	},
}

func Execute() error {
	_ = godotenv.Load()
	setupLogging()
	return rootCmd.Execute()
}

func setupLogging() {
	level := os.Getenv("BOOKHAVEN_LOG_LEVEL")
	if level == "" {
		if cfg, err := config.Load(); err == nil {
			level = cfg.Logging.Level
		}
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

// app is the composition root: one API client, the state containers, and
// the local stores, built per invocation.
type app struct {
	api       *api.Client
	auth      *state.Auth
	books     *state.Books
	reviews   *state.Reviews
	history   *history.Store
	downloads *download.Manager
}

func buildApp() (*app, error) {
	serverURL, err := config.GetServerURL()
	if err != nil {
		printError("Configuration not initialized")
		fmt.Println("Run: bookhaven init")
		return nil, err
	}

	client := api.New(serverURL, log.Logger)
	containers := state.New(client, config.NewCredentialStore(), log.Logger)
	if err := containers.Auth.Load(); err != nil {
		printError(err.Error())
		return nil, err
	}

	historyPath, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(historyPath, log.Logger)
	if err != nil {
		return nil, err
	}

	downloadsDir, err := config.DownloadsDir()
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		api:       client,
		auth:      containers.Auth,
		books:     containers.Books,
		reviews:   containers.Reviews,
		history:   store,
		downloads: download.NewManager(downloadsDir, 100*time.Millisecond, log.Logger),
	}, nil
}

func (a *app) Close() {
	if a.history != nil {
		a.history.Close()
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(booksCmd)
	rootCmd.AddCommand(reviewsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(systemCmd)
}

func printSuccess(msg string) {
	fmt.Printf("✓ %s\n", msg)
}

func printError(msg string) {
	fmt.Printf("✗ %s\n", msg)
}

func printInfo(msg string) {
	fmt.Printf("ℹ %s\n", msg)
}
