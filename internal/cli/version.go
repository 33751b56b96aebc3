package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = public(&cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kbchat %s\n", Version)
	},
})
