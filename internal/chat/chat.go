// Package chat keeps the transcript of one knowledge-base conversation.
//
// A user message is appended as soon as it is sent; the assistant reply is
// appended when the query resolves. Queries within one conversation are
// answered strictly in the order they were sent, so a reply never lands
// before the message it answers or before the reply to an earlier message.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/raphaelgruber/kbchat/internal/notify"
	"github.com/raphaelgruber/kbchat/internal/service"
)

// Replies used when the backend has nothing useful to say.
const (
	NoResultsReply = "I couldn't find any relevant information in the knowledge base for your query. Please try rephrasing your question or ask about a different topic."
	ErrorReply     = "I'm sorry, I encountered an error while searching the knowledge base. Please try again or contact support if the issue persists."
)

// QueryErrorNotice is emitted when a query fails.
var QueryErrorNotice = notify.Notice{
	Title:       "Query Error",
	Description: "Failed to query the knowledge base. Please try again.",
	Destructive: true,
}

// Querier answers a question. *service.KBQuery satisfies it.
type Querier interface {
	Query(ctx context.Context, conversationID, text, modelID string) ([]models.QueryResponse, error)
}

// Options configures a Conversation.
type Options struct {
	// ReplayReferences keeps references on messages loaded from a fetched
	// conversation. Off by default: only replies produced in this session
	// carry references.
	ReplayReferences bool
	Notifier         notify.Notifier
	Logger           *slog.Logger
	Now              func() time.Time
}

// Turn is a sent user message awaiting its reply.
type Turn struct {
	Message models.Message
	seq     uint64
}

// Conversation is the client-side transcript of one conversation.
type Conversation struct {
	querier    Querier
	notifier   notify.Notifier
	logger     *slog.Logger
	now        func() time.Time
	replayRefs bool

	mu       sync.Mutex
	turnDone *sync.Cond
	id       string
	model    string
	messages []models.Message
	sent     uint64
	answered uint64
	skipped  map[uint64]struct{}
}

// New creates an empty conversation. The backend assigns an id with the
// first reply.
func New(q Querier, opts Options) *Conversation {
	c := &Conversation{
		querier:    q,
		notifier:   opts.Notifier,
		logger:     opts.Logger,
		now:        opts.Now,
		replayRefs: opts.ReplayReferences,
		skipped:    make(map[uint64]struct{}),
	}
	if c.notifier == nil {
		c.notifier = notify.Discard
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.turnDone = sync.NewCond(&c.mu)
	return c
}

// Replay replaces the transcript with a fetched conversation's history and
// adopts its id.
func (c *Conversation) Replay(conv *models.Conversation) {
	if conv == nil {
		return
	}
	history := make([]models.Message, 0, len(conv.History))
	for _, m := range conv.History {
		if !c.replayRefs {
			m.References = nil
		}
		history = append(history, m)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = conv.Key()
	c.messages = history
}

// ID returns the backend conversation id, or "" before the first reply.
func (c *Conversation) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Model returns the selected model id.
func (c *Conversation) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SetModel selects the model for subsequent queries.
func (c *Conversation) SetModel(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = id
}

// DefaultModel selects the first of available when no model is chosen yet.
func (c *Conversation) DefaultModel(available []models.LLMModel) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == "" && len(available) > 0 {
		c.model = available[0].ID
	}
	return c.model
}

// Messages returns a copy of the transcript in order.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message(nil), c.messages...)
}

// Pending reports whether any sent message is still awaiting its reply.
func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answered < c.sent
}

// Send appends text as a user message. The returned Turn is answered by Resolve.
func (c *Conversation) Send(text string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, service.ErrEmptyQuery
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	msg := models.Message{
		Identity:  models.Identity{ID: uuid.NewString()},
		Role:      models.RoleUser,
		Content:   text,
		CreatedAt: c.now(),
	}
	c.messages = append(c.messages, msg)
	turn := Turn{Message: msg, seq: c.sent}
	c.sent++
	return turn, nil
}

// Resolve queries the knowledge base for turn and appends the reply. It waits
// for earlier turns to resolve first. A failed query still appends an apology
// reply; the error is returned for logging. If ctx ends while waiting, no
// reply is appended and later turns no longer wait for this one.
func (c *Conversation) Resolve(ctx context.Context, turn Turn) (models.Message, error) {
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.turnDone.Broadcast()
		c.mu.Unlock()
	})
	defer stop()

	c.mu.Lock()
	for c.answered != turn.seq {
		if err := ctx.Err(); err != nil {
			c.skipped[turn.seq] = struct{}{}
			c.mu.Unlock()
			return models.Message{}, err
		}
		c.turnDone.Wait()
	}
	conversationID, model := c.id, c.model
	c.mu.Unlock()

	resp, err := c.querier.Query(ctx, conversationID, turn.Message.Content, model)

	reply := models.Message{
		Identity:  models.Identity{ID: uuid.NewString()},
		Role:      models.RoleAssistant,
		CreatedAt: c.now(),
	}

	c.mu.Lock()
	switch {
	case err != nil:
		reply.Content = ErrorReply
	case len(resp) == 0:
		reply.Content = NoResultsReply
	default:
		first := resp[0]
		if first.ConversationID != "" {
			c.id = first.ConversationID
		}
		reply.Content = first.Response
		reply.References = first.References
	}
	c.messages = append(c.messages, reply)
	c.advance()
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("knowledge base query failed", "conversation", conversationID, "error", err)
		c.notifier.Notify(QueryErrorNotice)
	}
	return reply, err
}

// advance marks the current turn answered, passing over turns whose callers
// gave up, and wakes waiters. c.mu must be held.
func (c *Conversation) advance() {
	c.answered++
	for {
		if _, ok := c.skipped[c.answered]; !ok {
			break
		}
		delete(c.skipped, c.answered)
		c.answered++
	}
	c.turnDone.Broadcast()
}

// Submit sends text and waits for the reply.
func (c *Conversation) Submit(ctx context.Context, text string) (models.Message, error) {
	turn, err := c.Send(text)
	if err != nil {
		return models.Message{}, err
	}
	return c.Resolve(ctx, turn)
}
