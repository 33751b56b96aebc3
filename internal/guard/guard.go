// Package guard decides whether a protected destination may be entered.
//
// Every entry re-validates the stored token with the backend so a session
// revoked server-side is noticed on the next navigation. Failures clear the
// session and redirect to the auth screen, remembering where the user was
// going.
package guard

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/raphaelgruber/kbchat/internal/session"
)

// AuthPath is the destination of every redirect.
const AuthPath = "/auth"

// State is a guard state.
type State int

const (
	Validating State = iota
	Authenticated
	Redirecting
)

func (s State) String() string {
	switch s {
	case Validating:
		return "validating"
	case Authenticated:
		return "authenticated"
	case Redirecting:
		return "redirecting"
	default:
		return "unknown"
	}
}

// Validator checks a token with the backend. *client.Client satisfies it.
type Validator interface {
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

// Decision is the outcome of one entry attempt.
type Decision struct {
	State       State
	Destination string
	// Redirect is set when State is Redirecting.
	Redirect string
	// Replace asks the navigator to replace the current history entry so
	// going back does not loop into the guard again.
	Replace bool
	// User is the validated user when State is Authenticated.
	User *models.User
}

// Allowed reports whether the destination may be rendered.
func (d Decision) Allowed() bool {
	return d.State == Authenticated
}

// Guard protects destinations.
type Guard struct {
	store     *session.Store
	validator Validator
	logger    *slog.Logger
}

// New creates a Guard.
func New(store *session.Store, validator Validator, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Guard{store: store, validator: validator, logger: logger}
}

// Enter validates the session for destination. It never returns an error:
// every failure becomes a redirect with the session cleared.
func (g *Guard) Enter(ctx context.Context, destination string) Decision {
	snap := g.store.Snapshot()
	if !snap.Complete() {
		g.logger.Debug("no session, redirecting", "destination", destination)
		return g.redirect(destination)
	}

	user, err := g.validator.ValidateToken(ctx, snap.Token)
	if err != nil {
		g.logger.Info("token rejected, redirecting", "destination", destination, "error", err)
		return g.redirect(destination)
	}

	g.logger.Debug("session valid", "destination", destination, "user", user.Key())
	return Decision{State: Authenticated, Destination: destination, User: user}
}

func (g *Guard) redirect(destination string) Decision {
	if err := g.store.Logout(); err != nil {
		g.logger.Warn("failed to persist cleared session", "error", err)
	}
	return Decision{
		State:       Redirecting,
		Destination: destination,
		Redirect:    RedirectTarget(destination),
		Replace:     true,
	}
}

// RedirectTarget builds the auth path carrying destination as "from".
func RedirectTarget(destination string) string {
	if destination == "" {
		return AuthPath
	}
	return AuthPath + "?" + url.Values{"from": {destination}}.Encode()
}

// ReturnTo extracts the original destination from a redirect target, falling
// back to fallback when there is none. Only local paths are honored.
func ReturnTo(redirect, fallback string) string {
	u, err := url.Parse(redirect)
	if err != nil {
		return fallback
	}
	from := u.Query().Get("from")
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || from == AuthPath {
		return fallback
	}
	return from
}
