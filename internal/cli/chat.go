package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/raphaelgruber/kbchat/internal/notify"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [conversation-id]",
	Short: "Open the interactive chat screen",
	Long: `Open a full-screen chat with the knowledge base.

Commands inside the chat:
  /open <n>     open source n of the last answer
  /model <id>   switch model
  /new          start a new conversation
  /logout       sign out and leave
  Esc, Ctrl+C   leave

Examples:
  kbchat chat
  kbchat chat 6650c1f2e4b0a1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

// replyMsg carries a resolved turn.
type replyMsg struct {
	reply models.Message
	err   error
}

// chatModel is the bubbletea model for the chat screen.
type chatModel struct {
	conv      *chat.Conversation
	available []models.LLMModel
	notices   *notify.Recorder
	seen      int
	input     textinput.Model
	spinner   spinner.Model
	theme     Theme
	status    string
	statusOK  bool

	loggedOut bool
	quitting  bool
}

// newChatModel creates the chat screen for conv.
func newChatModel(conv *chat.Conversation, available []models.LLMModel, notices *notify.Recorder) chatModel {
	input := textinput.New()
	input.Placeholder = "Ask the knowledge base..."
	input.CharLimit = 4000
	input.Focus()

	return chatModel{
		conv:      conv,
		available: available,
		notices:   notices,
		input:     input,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:     defaultTheme,
	}
}

// Init starts the cursor.
func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			return m.submit()
		}

	case replyMsg:
		m.collectNotices()
		return m, nil

	case spinner.TickMsg:
		if !m.conv.Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles the input line: a slash command or a question.
func (m chatModel) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	if value == "" || m.conv.Pending() {
		return m, nil
	}
	m.input.Reset()
	m.status = ""

	if strings.HasPrefix(value, "/") {
		return m.command(value)
	}

	turn, err := m.conv.Send(value)
	if err != nil {
		m.setStatus(err.Error(), false)
		return m, nil
	}
	return m, tea.Batch(m.spinner.Tick, m.resolve(turn))
}

func (m chatModel) command(line string) (tea.Model, tea.Cmd) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/logout":
		m.loggedOut = true
		m.quitting = true
		return m, tea.Quit
	case "/new":
		fresh := chat.New(kb, chat.Options{ReplayReferences: cfg.ReplayReferences, Notifier: m.notices, Logger: logger})
		fresh.SetModel(m.conv.Model())
		m.conv = fresh
		m.setStatus("Started a new conversation", true)
	case "/model":
		if arg == "" {
			m.setStatus("Models: "+modelList(m.available), true)
			break
		}
		m.conv.SetModel(arg)
		m.setStatus("Model set to "+arg, true)
	case "/open":
		n, err := strconv.Atoi(arg)
		refs := lastReferences(m.conv.Messages())
		if err != nil || n < 1 || n > len(refs) {
			m.setStatus(fmt.Sprintf("No source %q", arg), false)
			break
		}
		if err := openReference(refs[n-1], m.notices); err != nil {
			logger.Warn("failed to open reference", "title", refs[n-1].Title, "error", err)
		}
		m.collectNotices()
	default:
		m.setStatus("Unknown command "+name, false)
	}
	return m, nil
}

// resolve runs the query off the UI loop.
func (m chatModel) resolve(turn chat.Turn) tea.Cmd {
	conv := m.conv
	return func() tea.Msg {
		reply, err := conv.Resolve(context.Background(), turn)
		return replyMsg{reply: reply, err: err}
	}
}

// collectNotices shows the latest unseen notice in the status line.
func (m *chatModel) collectNotices() {
	all := m.notices.Notices()
	if len(all) == m.seen {
		return
	}
	last := all[len(all)-1]
	m.seen = len(all)
	text := last.Title
	if last.Description != "" {
		text += ": " + last.Description
	}
	m.setStatus(text, !last.Destructive)
}

func (m *chatModel) setStatus(text string, ok bool) {
	m.status = text
	m.statusOK = ok
}

// View renders the chat screen.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m chatModel) renderContent() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	header := "New conversation"
	if id := m.conv.ID(); id != "" {
		header = "Conversation " + id
	}
	if model := m.conv.Model(); model != "" {
		header += " · " + model
	}
	b.WriteString(m.theme.hintStyle().Render(header))
	b.WriteString("\n\n")

	messages := m.conv.Messages()
	if len(messages) == 0 {
		b.WriteString(m.theme.hintStyle().Render("Ask anything about the documents you have access to."))
		b.WriteString("\n\n")
	}
	for _, msg := range messages {
		b.WriteString(formatMessage(m.theme, msg))
		b.WriteString("\n")
	}

	if m.conv.Pending() {
		b.WriteString(m.spinner.View())
		b.WriteString(" Thinking...\n\n")
	}

	if m.status != "" {
		if m.statusOK {
			b.WriteString(m.theme.hintStyle().Render(m.status))
		} else {
			b.WriteString(m.theme.errorStyle().Render(m.status))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.theme.hintStyle().Render("Enter to send · /open <n> · /model · /new · /logout · Esc to quit"))
	b.WriteString("\n")
	return b.String()
}

// lastReferences returns the sources of the most recent assistant reply.
func lastReferences(messages []models.Message) []models.Reference {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleAssistant {
			return messages[i].References
		}
	}
	return nil
}

func modelList(available []models.LLMModel) string {
	if len(available) == 0 {
		return "(none)"
	}
	ids := make([]string, len(available))
	for i, mdl := range available {
		ids[i] = mdl.ID
	}
	return strings.Join(ids, ", ")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var conversationID string
	if len(args) == 1 {
		conversationID = args[0]
	}

	// Notices go to the status line while the screen is up.
	notices := &notify.Recorder{}
	saved := notifier
	notifier = notices
	conv, err := openConversation(ctx, conversationID, "")
	notifier = saved
	if err != nil {
		return err
	}

	available := hooks.Models().Load(ctx).Data
	final, err := tea.NewProgram(newChatModel(conv, available, notices)).Run()
	if err != nil {
		return fmt.Errorf("run chat: %w", err)
	}

	if m, ok := final.(chatModel); ok {
		if id := m.conv.ID(); id != "" {
			fmt.Println(defaultTheme.hintStyle().Render("Resume with: kbchat chat " + id))
		}
		if m.loggedOut {
			return auth.Logout()
		}
	}
	return nil
}
