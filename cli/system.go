package cli

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/bookhaven/bookhaven-cli/cli/config"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "System information",
	Long:  `Display system information and diagnostics.`,
}

var systemInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system info",
	Long:  `Display client details and backend connectivity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("System Information:")
		fmt.Println("-------------------")
		fmt.Printf("OS: %s\n", runtime.GOOS)
		fmt.Printf("Architecture: %s\n", runtime.GOARCH)
		fmt.Printf("Go Version: %s\n", runtime.Version())

		cfg, err := config.Load()
		if err != nil {
			fmt.Println("\nConfiguration: Not initialized")
		} else {
			configPath, _ := config.GetConfigPath()
			fmt.Println("\nConfiguration:")
			fmt.Printf("  Config Path: %s\n", configPath)
			fmt.Printf("  Server URL: %s\n", cfg.Server.URL)
		}

		fmt.Println("\nBackend Connectivity:")
		serverURL, err := config.GetServerURL()
		if err != nil {
			fmt.Println("  Status: Unknown (Config error)")
			return nil
		}

		client := http.Client{Timeout: 2 * time.Second}
		resp, err := client.Get(serverURL + "/books?page=1&limit=1")
		if err != nil {
			fmt.Printf("  Status: ✗ Unreachable (%s)\n", err.Error())
			return nil
		}
		defer resp.Body.Close()
		if resp.StatusCode == 200 {
			fmt.Printf("  Status: ✓ Online (HTTP %d)\n", resp.StatusCode)
		} else {
			fmt.Printf("  Status: ⚠ Issues (HTTP %d)\n", resp.StatusCode)
		}
		return nil
	},
}

func init() {
	systemCmd.AddCommand(systemInfoCmd)
}
