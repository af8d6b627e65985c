package cli

import (
	"fmt"

	"github.com/bookhaven/bookhaven-cli/internal/guard"
)

// checkGuard maps a guard redirect onto CLI output: an anonymous user is
// pointed at login, an authenticated non-admin back to browsing. Denials are
// redirects, not error banners.
func checkGuard(d guard.Decision) error {
	if d.Allowed {
		return nil
	}
	switch d.RedirectTo {
	case guard.RouteLogin:
		printError("You are not logged in")
		fmt.Println("Run: bookhaven auth login")
	case guard.RouteHome:
		printError("Admin access required")
		fmt.Println("Back to browsing: bookhaven books list")
	}
	return fmt.Errorf("access denied")
}
