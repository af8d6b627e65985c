// Package guard contains the navigation guard policies. Both are pure
// functions of a session snapshot evaluated before a guarded command runs.
package guard

import (
	"github.com/bookhaven/bookhaven-cli/internal/state"
	"github.com/bookhaven/bookhaven-cli/pkg/models"
)

const (
	RouteHome  = "/"
	RouteLogin = "/login"
)

// Decision is the outcome of a guard check. When Allowed is false,
// RedirectTo names the route the user is sent to instead.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// RequireAuth permits any session holding a token. No expiry check happens
// here; an expired token is discovered when the next backend call fails.
func RequireAuth(s state.Session) Decision {
	if s.Token != "" {
		return Decision{Allowed: true}
	}
	return Decision{RedirectTo: RouteLogin}
}

// RequireAdmin permits only an authenticated admin. A logged-in non-admin is
// sent home, not to the login view.
func RequireAdmin(s state.Session) Decision {
	if s.Token != "" && s.UserRole == models.RoleAdmin {
		return Decision{Allowed: true}
	}
	return Decision{RedirectTo: RouteHome}
}
