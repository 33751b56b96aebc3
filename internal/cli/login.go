package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/kbchat/internal/guard"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/spf13/cobra"
)

var (
	loginEmail string
	loginFrom  string
)

var loginCmd = public(&cobra.Command{
	Use:   "login",
	Short: "Sign in to the knowledge base",
	Long: `Sign in with email and password. The password is read without echo.

When a protected command redirected you here, pass --from to be told how to
continue where you left off.

Examples:
  kbchat login
  kbchat login --email ada@example.com
  kbchat login --from /documents/list`,
	Args: cobra.NoArgs,
	RunE: runLogin,
})

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVar(&loginFrom, "from", "", "destination to return to after signing in")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	email := loginEmail
	if email == "" {
		var err error
		if email, err = promptLine("Email: "); err != nil {
			return err
		}
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	if _, err := auth.Login(ctx, models.LoginRequest{Email: email, Password: password}); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	printReturnHint(loginFrom)
	return nil
}

// printReturnHint tells the user how to get back to where the guard stopped them.
func printReturnHint(from string) {
	dest := guard.ReturnTo(guard.RedirectTarget(from), "")
	if dest == "" {
		return
	}
	fmt.Printf("Continue with: %s\n", commandFor(dest))
}
