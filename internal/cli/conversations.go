package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/spf13/cobra"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "List or show previous conversations",
	Long: `List your previous conversations or print one in full.

Subcommands:
  list       List conversations (default)
  show <id>  Print a conversation's history

Examples:
  kbchat conversations
  kbchat conversations show 6650c1f2e4b0a1`,
	Args: cobra.NoArgs,
	RunE: runConversationsList,
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	Args:  cobra.NoArgs,
	RunE:  runConversationsList,
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a conversation's history",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsShow,
}

func init() {
	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st := hooks.Conversations().Load(ctx)
	if st.Err != "" {
		return fmt.Errorf("list conversations: %s", st.Err)
	}

	if len(st.Data) == 0 {
		fmt.Println("No conversations yet. Start one with 'kbchat chat'.")
		return nil
	}

	fmt.Printf("Conversations (%d):\n\n", len(st.Data))
	for _, c := range st.Data {
		fmt.Printf("- %s  %s  (%d messages, %s)\n", c.Key(), c.Title(), len(c.History), models.FormatDate(c.UpdatedAt))
	}
	return nil
}

func runConversationsShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	conv, err := openConversation(ctx, args[0], "")
	if err != nil {
		return err
	}

	messages := conv.Messages()
	if len(messages) == 0 {
		fmt.Println("This conversation has no messages.")
		return nil
	}
	for _, m := range messages {
		fmt.Print(formatMessage(defaultTheme, m))
		fmt.Println()
	}
	return nil
}
