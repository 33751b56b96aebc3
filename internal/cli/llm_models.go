package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models answers can be generated with",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st := hooks.Models().Load(ctx)
	if st.Err != "" {
		return fmt.Errorf("list models: %s", st.Err)
	}

	if len(st.Data) == 0 {
		fmt.Println("No models available.")
		return nil
	}

	fmt.Printf("Models (%d):\n\n", len(st.Data))
	for i, m := range st.Data {
		def := ""
		if i == 0 {
			def = " (default)"
		}
		provider := ""
		if m.Provider != "" {
			provider = " [" + m.Provider + "]"
		}
		fmt.Printf("- %s  %s%s%s\n", m.ID, m.Label(), provider, def)
	}
	return nil
}
