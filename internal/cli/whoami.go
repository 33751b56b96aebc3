package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Long: `Validate the stored session with the backend and show the user it belongs to.

The token expiry is read from the token itself without verifying it; the
backend remains the only authority on whether the token is valid.`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

func runWhoami(cmd *cobra.Command, args []string) error {
	u := currentUser
	fmt.Printf("%s <%s>\n", displayName(u), u.Email)
	if u.Role != "" {
		fmt.Printf("  Role:    %s\n", u.Role)
	}
	if u.Company != nil && u.Company.Name != "" {
		fmt.Printf("  Company: %s\n", u.Company.Name)
	}
	if len(u.Tags) > 0 {
		fmt.Printf("  Access:  %s\n", strings.Join(u.Tags, ", "))
	}
	if verbose {
		fmt.Printf("  ID:      %s\n", u.Key())
		fmt.Printf("  Active:  %t, verified: %t\n", u.IsActive, u.EmailVerified)
	}

	if exp, ok := tokenExpiry(store.Token()); ok {
		fmt.Printf("  Session expires %s (in %s)\n", exp.Local().Format(time.RFC1123), time.Until(exp).Round(time.Minute))
	}
	return nil
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
