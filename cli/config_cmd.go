package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookhaven/bookhaven-cli/cli/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify BookHaven CLI configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration values. The stored token is not printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("Configuration not initialized")
			fmt.Println("Run: bookhaven init")
			return err
		}

		fmt.Println("Current Configuration:")
		fmt.Println("----------------------")
		fmt.Println("[server]")
		fmt.Printf("  url: %s\n", cfg.Server.URL)
		fmt.Println("[user]")
		if cfg.User.Token == "" {
			fmt.Println("  (not logged in)")
		} else {
			fmt.Printf("  name: %s\n", cfg.User.Name)
			fmt.Printf("  email: %s\n", cfg.User.Email)
			fmt.Printf("  role: %s\n", cfg.User.Role)
			fmt.Println("  token: (stored)")
		}
		fmt.Println("[logging]")
		fmt.Printf("  level: %s\n", cfg.Logging.Level)
		return nil
	},
}

var configSetServerCmd = &cobra.Command{
	Use:   "set-server [url]",
	Short: "Set the backend URL",
	Long:  `Set the base URL of the BookHaven backend API.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("Configuration not initialized")
			fmt.Println("Run: bookhaven init")
			return err
		}

		cfg.Server.URL = args[0]
		if err := config.Save(cfg); err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("Server URL set to %s", args[0]))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetServerCmd)
}
