package cli

import (
	"github.com/spf13/cobra"
)

var logoutCmd = public(&cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return auth.Logout()
	},
})
