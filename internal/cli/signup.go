package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/spf13/cobra"
)

var (
	signupName  string
	signupEmail string
	signupFrom  string
)

var signupCmd = public(&cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Long: `Create an account and sign in.

Examples:
  kbchat signup
  kbchat signup --name "Ada Lovelace" --email ada@example.com`,
	Args: cobra.NoArgs,
	RunE: runSignup,
})

func init() {
	signupCmd.Flags().StringVarP(&signupName, "name", "n", "", "full name")
	signupCmd.Flags().StringVarP(&signupEmail, "email", "e", "", "account email")
	signupCmd.Flags().StringVar(&signupFrom, "from", "", "destination to return to after signing up")
}

func runSignup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var err error
	name := signupName
	if name == "" {
		if name, err = promptLine("Full name: "); err != nil {
			return err
		}
	}
	email := signupEmail
	if email == "" {
		if email, err = promptLine("Email: "); err != nil {
			return err
		}
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	req := models.SignupRequest{FullName: name, Email: email, Password: password}
	if _, err := auth.Signup(ctx, req); err != nil {
		return fmt.Errorf("signup: %w", err)
	}

	printReturnHint(signupFrom)
	return nil
}
