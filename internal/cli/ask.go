package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/spf13/cobra"
)

var (
	askConversation string
	askModel        string
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Ask the knowledge base a single question",
	Long: `Ask a question and print the assistant's answer with its sources.

Without --conversation a new conversation is started; the command prints the
id to continue it. Without --model the first available model is used.

Examples:
  kbchat ask "What is our travel policy?"
  kbchat ask "And for contractors?" --conversation 6650c1f2e4b0a1
  kbchat ask "Summarise form TM-12" --model gpt-4o`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askConversation, "conversation", "c", "", "continue an existing conversation")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "model id (see 'kbchat models')")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	text := strings.Join(args, " ")

	conv, err := openConversation(ctx, askConversation, askModel)
	if err != nil {
		return err
	}

	reply, err := conv.Submit(ctx, text)
	if reply.Content != "" {
		fmt.Print(formatMessage(defaultTheme, reply))
	}
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	if id := conv.ID(); id != "" && id != askConversation {
		fmt.Println(defaultTheme.hintStyle().Render(fmt.Sprintf("Continue with: kbchat ask --conversation %s \"...\"", id)))
	}
	return nil
}

// openConversation creates a transcript, replaying conversationID when set,
// and selects modelID or the first available model.
func openConversation(ctx context.Context, conversationID, modelID string) (*chat.Conversation, error) {
	conv := chat.New(kb, chat.Options{
		ReplayReferences: cfg.ReplayReferences,
		Notifier:         notifier,
		Logger:           logger,
	})

	if conversationID != "" {
		st := hooks.Conversation(conversationID).Load(ctx)
		if st.Err != "" {
			return nil, fmt.Errorf("load conversation %s: %s", conversationID, st.Err)
		}
		conv.Replay(st.Data)
	}

	if modelID != "" {
		conv.SetModel(modelID)
		return conv, nil
	}

	st := hooks.Models().Load(ctx)
	if st.Err != "" {
		logger.Warn("failed to list models", "error", st.Err)
	}
	if conv.DefaultModel(st.Data) == "" {
		logger.Warn("no model available, letting the backend choose")
	}
	return conv, nil
}
