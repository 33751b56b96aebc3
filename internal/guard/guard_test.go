package guard_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/raphaelgruber/kbchat/internal/guard"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/raphaelgruber/kbchat/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	calls atomic.Int32
	token string
	user  *models.User
	err   error
}

func (f *fakeValidator) ValidateToken(_ context.Context, token string) (*models.User, error) {
	f.calls.Add(1)
	f.token = token
	return f.user, f.err
}

var ada = models.User{Identity: models.Identity{ObjectID: "u1"}, Email: "ada@example.com"}

func TestEnterIncompleteSessionSkipsValidation(t *testing.T) {
	tests := []struct {
		name    string
		persist string
	}{
		{"empty", ``},
		{"token only", `{"name":"auth-storage","version":1,"state":{"token":"t","isAuthenticated":true}}`},
		{"user only", `{"name":"auth-storage","version":1,"state":{"user":{"_id":"u1"},"isAuthenticated":true}}`},
		{"flag false", `{"name":"auth-storage","version":1,"state":{"user":{"_id":"u1"},"token":"t","isAuthenticated":false}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := &session.MemoryStore{Data: []byte(tt.persist)}
			store := session.NewStore(mem, nil)
			_ = store.Restore()
			v := &fakeValidator{user: &ada}

			d := guard.New(store, v, nil).Enter(context.Background(), "/chat")

			assert.Equal(t, guard.Redirecting, d.State)
			assert.False(t, d.Allowed())
			assert.Equal(t, "/auth?from=%2Fchat", d.Redirect)
			assert.True(t, d.Replace)
			assert.Zero(t, v.calls.Load(), "no network call")
			assert.Equal(t, session.Session{}, store.Snapshot())
		})
	}
}

func TestEnterValidToken(t *testing.T) {
	store := session.NewStore(nil, nil)
	require.NoError(t, store.Login(ada, "tok"))
	v := &fakeValidator{user: &ada}
	g := guard.New(store, v, nil)

	d := g.Enter(context.Background(), "/documents")
	assert.Equal(t, guard.Authenticated, d.State)
	assert.True(t, d.Allowed())
	assert.Equal(t, "/documents", d.Destination)
	assert.Empty(t, d.Redirect)
	assert.Equal(t, "ada@example.com", d.User.Email)
	assert.Equal(t, "tok", v.token)

	// Validation runs on every entry.
	g.Enter(context.Background(), "/documents")
	assert.Equal(t, int32(2), v.calls.Load())
	assert.True(t, store.Snapshot().IsAuthenticated)
}

func TestEnterRejectedTokenClearsSession(t *testing.T) {
	mem := &session.MemoryStore{}
	store := session.NewStore(mem, nil)
	require.NoError(t, store.Login(ada, "revoked"))
	v := &fakeValidator{err: errors.New("jwt expired")}

	d := guard.New(store, v, nil).Enter(context.Background(), "/c/abc")

	assert.Equal(t, guard.Redirecting, d.State)
	assert.Equal(t, "/auth?from=%2Fc%2Fabc", d.Redirect)
	assert.Equal(t, session.Session{}, store.Snapshot())
	assert.Equal(t, int32(1), v.calls.Load())

	restored := session.NewStore(&session.MemoryStore{Data: mem.Data}, nil)
	require.NoError(t, restored.Restore())
	assert.False(t, restored.Snapshot().IsAuthenticated, "cleared state is persisted")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "validating", guard.Validating.String())
	assert.Equal(t, "authenticated", guard.Authenticated.String())
	assert.Equal(t, "redirecting", guard.Redirecting.String())
}

func TestReturnTo(t *testing.T) {
	tests := []struct {
		name     string
		redirect string
		want     string
	}{
		{"round trip", guard.RedirectTarget("/c/abc"), "/c/abc"},
		{"with query", guard.RedirectTarget("/documents?tag=hr"), "/documents?tag=hr"},
		{"no from", "/auth", "/"},
		{"empty", "", "/"},
		{"external", "/auth?from=https%3A%2F%2Fevil.example", "/"},
		{"scheme relative", "/auth?from=%2F%2Fevil.example", "/"},
		{"auth loop", "/auth?from=%2Fauth", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.ReturnTo(tt.redirect, "/"))
		})
	}
}
