package cli

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/raphaelgruber/kbchat/internal/notify"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestinationRoundTrip(t *testing.T) {
	root := &cobra.Command{Use: "kbchat"}
	docs := &cobra.Command{Use: "documents"}
	list := &cobra.Command{Use: "list"}
	root.AddCommand(docs)
	docs.AddCommand(list)

	assert.Equal(t, "/", destination(root))
	assert.Equal(t, "/documents", destination(docs))
	assert.Equal(t, "/documents/list", destination(list))

	assert.Equal(t, "kbchat documents list", commandFor("/documents/list"))
	assert.Equal(t, "kbchat chat", commandFor("/"))
}

func TestPublicCommands(t *testing.T) {
	for _, c := range []*cobra.Command{loginCmd, signupCmd, logoutCmd, versionCmd} {
		assert.Equal(t, "true", c.Annotations[annotationPublic], c.Name())
	}
	for _, c := range []*cobra.Command{whoamiCmd, askCmd, chatCmd, conversationsCmd, documentsCmd, modelsCmd} {
		assert.Empty(t, c.Annotations[annotationPublic], c.Name())
	}
}

func TestBuiltinCommandsSkipSetup(t *testing.T) {
	root := &cobra.Command{Use: "kbchat"}
	completion := &cobra.Command{Use: "completion"}
	bash := &cobra.Command{Use: "bash"}
	complete := &cobra.Command{Use: cobra.ShellCompRequestCmd}
	help := &cobra.Command{Use: "help"}
	docs := &cobra.Command{Use: "documents"}
	root.AddCommand(completion, complete, help, docs)
	completion.AddCommand(bash)

	for _, c := range []*cobra.Command{completion, bash, complete, help} {
		assert.True(t, builtin(c), c.CommandPath())
		assert.NoError(t, setup(c, nil), c.CommandPath())
	}
	assert.False(t, builtin(docs))
	assert.False(t, builtin(root))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("not-the-server-key"))
	require.NoError(t, err)

	got, ok := tokenExpiry(signed)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = tokenExpiry("opaque-token")
	assert.False(t, ok)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, ok = tokenExpiry(noExp)
	assert.False(t, ok)
}

func TestLastReferences(t *testing.T) {
	refs := []models.Reference{{ID: "r1", Title: "a.pdf"}}
	messages := []models.Message{
		{Role: models.RoleUser, Content: "q1"},
		{Role: models.RoleAssistant, Content: "a1", References: refs},
		{Role: models.RoleUser, Content: "q2"},
	}
	assert.Equal(t, refs, lastReferences(messages))
	assert.Nil(t, lastReferences(messages[:1]))

	messages = append(messages, models.Message{Role: models.RoleAssistant, Content: "a2"})
	assert.Nil(t, lastReferences(messages), "only the latest reply counts")
}

func TestModelList(t *testing.T) {
	assert.Equal(t, "(none)", modelList(nil))
	assert.Equal(t, "a, b", modelList([]models.LLMModel{{ID: "a"}, {ID: "b"}}))
}

func TestFormatMessage(t *testing.T) {
	user := formatMessage(defaultTheme, models.Message{Role: models.RoleUser, Content: "What is X?"})
	assert.Contains(t, user, "You")
	assert.Contains(t, user, "What is X?")

	reply := formatMessage(defaultTheme, models.Message{
		Role:       models.RoleAssistant,
		Content:    "X is a thing.",
		References: []models.Reference{{Title: "x.pdf", URL: "kb/x.pdf"}},
	})
	assert.Contains(t, reply, "Assistant")
	assert.Contains(t, reply, "[1] x.pdf")
	assert.Contains(t, reply, "kb/x.pdf")
}

func TestLooksLikePath(t *testing.T) {
	assert.True(t, looksLikePath("ipr/trademarks/tm-12.pdf"))
	assert.True(t, looksLikePath("report.pdf"))
	assert.True(t, looksLikePath("https://cdn.example/x.pdf"))
	assert.False(t, looksLikePath("6650c1f2e4b0a1"))
}

func TestChatModelCommands(t *testing.T) {
	notices := &notify.Recorder{}
	conv := chat.New(nil, chat.Options{Notifier: notices})
	m := newChatModel(conv, []models.LLMModel{{ID: "gpt-4o"}}, notices)

	type step struct {
		input      string
		wantStatus string
	}
	steps := []step{
		{"/model", "Models: gpt-4o"},
		{"/model claude", "Model set to claude"},
		{"/open 1", `No source "1"`},
		{"/bogus", "Unknown command /bogus"},
	}
	for _, s := range steps {
		m.input.SetValue(s.input)
		next, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
		m = next.(chatModel)
		assert.Nil(t, cmd, s.input)
		assert.Equal(t, s.wantStatus, m.status, s.input)
		assert.Empty(t, m.input.Value())
	}
	assert.Equal(t, "claude", conv.Model())
	assert.Empty(t, conv.Messages(), "slash commands are never sent")
}

func TestChatModelLogoutQuits(t *testing.T) {
	notices := &notify.Recorder{}
	m := newChatModel(chat.New(nil, chat.Options{}), nil, notices)

	m.input.SetValue("/logout")
	next, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	m = next.(chatModel)

	require.NotNil(t, cmd)
	assert.True(t, m.loggedOut)
	assert.True(t, m.quitting)
	assert.Empty(t, m.renderContent())
}

func TestChatModelIgnoresBlankInput(t *testing.T) {
	m := newChatModel(chat.New(nil, chat.Options{}), nil, &notify.Recorder{})

	m.input.SetValue("   ")
	next, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	m = next.(chatModel)
	assert.Nil(t, cmd)
	assert.Empty(t, m.conv.Messages())
	assert.True(t, strings.Contains(m.renderContent(), "New conversation"))
}
