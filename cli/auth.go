package cli

import (
	"fmt"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bookhaven/bookhaven-cli/internal/guard"
	"github.com/bookhaven/bookhaven-cli/pkg/models"
)

var (
	authName  string
	authEmail string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Register, login, logout, and profile commands for your BookHaven account.`,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	Long:  `Register a new BookHaven account with name and email.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("Password: ")
		passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password confirmation: %w", err)
		}

		if string(passwordBytes) != string(confirmBytes) {
			printError("Passwords do not match")
			return fmt.Errorf("passwords do not match")
		}

		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		req := models.RegisterRequest{
			Name:     authName,
			Email:    authEmail,
			Password: string(passwordBytes),
		}
		if err := a.auth.Register(cmd.Context(), req); err != nil {
			printError(fmt.Sprintf("Registration failed: %s", a.auth.Session().Error))
			return err
		}

		s := a.auth.Session()
		printSuccess("Account created successfully!")
		fmt.Printf("Name: %s\n", s.UserName)
		fmt.Printf("Email: %s\n", s.UserEmail)
		fmt.Println("\nYou are now logged in!")
		fmt.Println("Try: bookhaven books list")
		return nil
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to your account",
	Long:  `Login to your BookHaven account with email and password.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("Password: ")
		passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		req := models.LoginRequest{
			Email:    authEmail,
			Password: string(passwordBytes),
		}
		if err := a.auth.Login(cmd.Context(), req); err != nil {
			printError(fmt.Sprintf("Login failed: %s", a.auth.Session().Error))
			return err
		}

		s := a.auth.Session()
		printSuccess("Login successful!")
		fmt.Printf("Welcome back, %s!\n", s.UserName)
		if s.UserRole == models.RoleAdmin {
			fmt.Println("\nAdmin tools available:")
			fmt.Println("  bookhaven books add")
			fmt.Println("  bookhaven books delete <id>")
		}
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from your account",
	Long:  `Logout from your BookHaven account and remove stored credentials.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s := a.auth.Session()
		if s.Token == "" {
			printInfo("You are not logged in")
			return nil
		}
		name := s.UserName

		if err := a.auth.Logout(); err != nil {
			return fmt.Errorf("failed to logout: %w", err)
		}

		printSuccess("Logged out successfully!")
		fmt.Printf("Goodbye, %s!\n", name)
		return nil
	},
}

var authUpdateProfileCmd = &cobra.Command{
	Use:   "update-profile",
	Short: "Update your name and email",
	Long:  `Update the name and email on your BookHaven account.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := checkGuard(guard.RequireAuth(a.auth.Session())); err != nil {
			return err
		}

		s := a.auth.Session()
		req := models.UpdateProfileRequest{Name: s.UserName, Email: s.UserEmail}
		if authName != "" {
			req.Name = authName
		}
		if authEmail != "" {
			req.Email = authEmail
		}

		if err := a.auth.UpdateProfile(cmd.Context(), s.UserID, req); err != nil {
			printError(fmt.Sprintf("Update failed: %s", a.auth.Session().Error))
			return err
		}

		s = a.auth.Session()
		printSuccess("Profile updated!")
		fmt.Printf("Name: %s\n", s.UserName)
		fmt.Printf("Email: %s\n", s.UserEmail)
		return nil
	},
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	Long:  `Display the logged-in user and token details.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := checkGuard(guard.RequireAuth(a.auth.Session())); err != nil {
			return err
		}

		s := a.auth.Session()
		fmt.Println("Current Session:")
		fmt.Println("----------------")
		fmt.Printf("User ID: %s\n", s.UserID)
		fmt.Printf("Name: %s\n", s.UserName)
		fmt.Printf("Email: %s\n", s.UserEmail)
		fmt.Printf("Role: %s\n", s.UserRole)

		// Display only; the token is never rejected locally on expiry.
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err == nil {
			if exp, ok := claims["exp"].(float64); ok {
				fmt.Printf("Token expires: %s\n", time.Unix(int64(exp), 0).Format("2006-01-02 15:04:05 MST"))
			}
		}
		return nil
	},
}

func init() {
	authRegisterCmd.Flags().StringVar(&authName, "name", "", "Name for registration")
	authRegisterCmd.Flags().StringVar(&authEmail, "email", "", "Email for registration")
	authRegisterCmd.MarkFlagRequired("name")
	authRegisterCmd.MarkFlagRequired("email")

	authLoginCmd.Flags().StringVar(&authEmail, "email", "", "Email for login")
	authLoginCmd.MarkFlagRequired("email")

	authUpdateProfileCmd.Flags().StringVar(&authName, "name", "", "New name")
	authUpdateProfileCmd.Flags().StringVar(&authEmail, "email", "", "New email")

	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authUpdateProfileCmd)
	authCmd.AddCommand(authWhoamiCmd)
}
