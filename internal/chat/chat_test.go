package chat_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/raphaelgruber/kbchat/internal/notify"
	"github.com/raphaelgruber/kbchat/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	ConversationID string
	Text           string
	Model          string
}

// scriptedQuerier answers queries from a function and records them.
type scriptedQuerier struct {
	mu     sync.Mutex
	calls  []call
	answer func(call) ([]models.QueryResponse, error)
}

func (s *scriptedQuerier) Query(_ context.Context, conversationID, text, modelID string) ([]models.QueryResponse, error) {
	c := call{ConversationID: conversationID, Text: text, Model: modelID}
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
	return s.answer(c)
}

func (s *scriptedQuerier) recorded() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call(nil), s.calls...)
}

func TestSubmitAdoptsConversationID(t *testing.T) {
	refs := []models.Reference{{ID: "r1", Title: "tm-12.pdf", URL: "ipr/trademarks/tm-12.pdf"}}
	q := &scriptedQuerier{answer: func(c call) ([]models.QueryResponse, error) {
		return []models.QueryResponse{{ConversationID: "c1", Query: c.Text, Response: "X is a thing.", References: refs}}, nil
	}}
	conv := chat.New(q, chat.Options{})
	conv.SetModel("gpt-4o")

	turn, err := conv.Send("What is X?")
	require.NoError(t, err)

	msgs := conv.Messages()
	require.Len(t, msgs, 1, "user message is appended before the request")
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.NotEmpty(t, msgs[0].Key())
	assert.True(t, conv.Pending())

	reply, err := conv.Resolve(context.Background(), turn)
	require.NoError(t, err)
	assert.Equal(t, "X is a thing.", reply.Content)
	assert.Equal(t, refs, reply.References)
	assert.False(t, conv.Pending())
	assert.Equal(t, "c1", conv.ID())

	msgs = conv.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, refs, msgs[1].References)

	_, err = conv.Submit(context.Background(), "And Y?")
	require.NoError(t, err)

	calls := q.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, call{ConversationID: "", Text: "What is X?", Model: "gpt-4o"}, calls[0])
	assert.Equal(t, call{ConversationID: "c1", Text: "And Y?", Model: "gpt-4o"}, calls[1])
}

func TestEmptyResponseReply(t *testing.T) {
	q := &scriptedQuerier{answer: func(call) ([]models.QueryResponse, error) { return nil, nil }}
	conv := chat.New(q, chat.Options{})

	reply, err := conv.Submit(context.Background(), "anything?")
	require.NoError(t, err)
	assert.Equal(t, chat.NoResultsReply, reply.Content)
	assert.Empty(t, conv.ID())
}

func TestFailedQueryAppendsApology(t *testing.T) {
	q := &scriptedQuerier{answer: func(call) ([]models.QueryResponse, error) {
		return nil, errors.New("HTTP error, status 500")
	}}
	var notices notify.Recorder
	conv := chat.New(q, chat.Options{Notifier: &notices})

	reply, err := conv.Submit(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, chat.ErrorReply, reply.Content)
	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Len(t, conv.Messages(), 2)
	assert.Equal(t, []notify.Notice{chat.QueryErrorNotice}, notices.Notices())
}

func TestSendRejectsBlankText(t *testing.T) {
	q := &scriptedQuerier{answer: func(call) ([]models.QueryResponse, error) { return nil, nil }}
	conv := chat.New(q, chat.Options{})

	_, err := conv.Submit(context.Background(), "  ")
	assert.ErrorIs(t, err, service.ErrEmptyQuery)
	assert.Empty(t, conv.Messages())
	assert.Empty(t, q.recorded())
}

func TestRepliesFollowSubmissionOrder(t *testing.T) {
	release := map[string]chan struct{}{
		"first":  make(chan struct{}),
		"second": make(chan struct{}),
	}
	entered := make(chan string, 2)
	q := &scriptedQuerier{answer: func(c call) ([]models.QueryResponse, error) {
		entered <- c.Text
		<-release[c.Text]
		return []models.QueryResponse{{ConversationID: "c1", Response: "re: " + c.Text}}, nil
	}}
	conv := chat.New(q, chat.Options{})

	first, err := conv.Send("first")
	require.NoError(t, err)
	second, err := conv.Send("second")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = conv.Resolve(context.Background(), second)
	}()
	go func() {
		defer wg.Done()
		_, _ = conv.Resolve(context.Background(), first)
	}()

	// The second turn cannot be queried before the first resolves, so only
	// releasing "first" lets anything proceed.
	assert.Equal(t, "first", <-entered)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, q.recorded(), 1)
	close(release["first"])
	close(release["second"])
	wg.Wait()

	var contents []string
	for _, m := range conv.Messages() {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"first", "second", "re: first", "re: second"}, contents)

	calls := q.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, "", calls[0].ConversationID)
	assert.Equal(t, "c1", calls[1].ConversationID, "second query uses the adopted id")
}

func TestResolveStopsWaitingWhenContextEnds(t *testing.T) {
	q := &scriptedQuerier{answer: func(c call) ([]models.QueryResponse, error) {
		return []models.QueryResponse{{Response: "re: " + c.Text}}, nil
	}}
	conv := chat.New(q, chat.Options{})

	_, err := conv.Send("never resolved")
	require.NoError(t, err)
	second, err := conv.Send("second")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := conv.Resolve(ctx, second)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve kept waiting after its context ended")
	}
	assert.Empty(t, q.recorded())
	assert.Len(t, conv.Messages(), 2, "no reply is appended for a cancelled turn")
}

func TestCancelledTurnIsSkipped(t *testing.T) {
	q := &scriptedQuerier{answer: func(c call) ([]models.QueryResponse, error) {
		return []models.QueryResponse{{Response: "re: " + c.Text}}, nil
	}}
	conv := chat.New(q, chat.Options{})

	first, err := conv.Send("first")
	require.NoError(t, err)
	second, err := conv.Send("second")
	require.NoError(t, err)
	third, err := conv.Send("third")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = conv.Resolve(ctx, second)
	require.ErrorIs(t, err, context.Canceled)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = conv.Resolve(context.Background(), third)
	}()

	_, err = conv.Resolve(context.Background(), first)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("third turn waited on the cancelled one")
	}
	assert.False(t, conv.Pending())

	var texts []string
	for _, c := range q.recorded() {
		texts = append(texts, c.Text)
	}
	assert.Equal(t, []string{"first", "third"}, texts)
}

func TestNotifierMayReadConversation(t *testing.T) {
	q := &scriptedQuerier{answer: func(call) ([]models.QueryResponse, error) {
		return nil, errors.New("HTTP error, status 502")
	}}
	var conv *chat.Conversation
	var seen int
	conv = chat.New(q, chat.Options{Notifier: notify.Func(func(notify.Notice) {
		seen = len(conv.Messages())
		_ = conv.Pending()
	})})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = conv.Submit(context.Background(), "hello")
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier deadlocked reading the conversation")
	}
	assert.Equal(t, 2, seen)
}

func TestReplay(t *testing.T) {
	created := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	fetched := &models.Conversation{
		Identity: models.Identity{ObjectID: "c7"},
		History: []models.Message{
			{Identity: models.Identity{ObjectID: "m1"}, Role: models.RoleUser, Content: "hi", CreatedAt: created},
			{Identity: models.Identity{ObjectID: "m2"}, Role: models.RoleAssistant, Content: "hello", CreatedAt: created.Add(time.Second),
				References: []models.Reference{{ID: "r1", Title: "doc"}}},
		},
	}
	q := &scriptedQuerier{answer: func(call) ([]models.QueryResponse, error) { return nil, nil }}

	tests := []struct {
		name     string
		replay   bool
		wantRefs int
	}{
		{"references dropped by default", false, 0},
		{"references kept when enabled", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := chat.New(q, chat.Options{ReplayReferences: tt.replay})
			conv.Replay(fetched)

			assert.Equal(t, "c7", conv.ID())
			msgs := conv.Messages()
			require.Len(t, msgs, 2)
			assert.Equal(t, "hi", msgs[0].Content)
			assert.Equal(t, "hello", msgs[1].Content)
			assert.Len(t, msgs[1].References, tt.wantRefs)
		})
	}
	assert.Len(t, fetched.History[1].References, 1, "fetched conversation is not modified")
}

func TestDefaultModel(t *testing.T) {
	conv := chat.New(&scriptedQuerier{}, chat.Options{})

	assert.Empty(t, conv.DefaultModel(nil))
	assert.Equal(t, "gpt-4o", conv.DefaultModel([]models.LLMModel{{ID: "gpt-4o"}, {ID: "claude"}}))

	conv.SetModel("claude")
	assert.Equal(t, "claude", conv.DefaultModel([]models.LLMModel{{ID: "gpt-4o"}}), "explicit choice is kept")
	assert.Equal(t, "claude", conv.Model())
}

func TestMessageTimestamps(t *testing.T) {
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	q := &scriptedQuerier{answer: func(call) ([]models.QueryResponse, error) {
		return []models.QueryResponse{{Response: "ok"}}, nil
	}}
	conv := chat.New(q, chat.Options{Now: func() time.Time { return now }})

	_, err := conv.Submit(context.Background(), "hi")
	require.NoError(t, err)
	for _, m := range conv.Messages() {
		assert.Equal(t, now, m.CreatedAt)
	}
}
