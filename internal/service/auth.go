package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/raphaelgruber/kbchat/internal/client"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/raphaelgruber/kbchat/internal/notify"
	"github.com/raphaelgruber/kbchat/internal/query"
	"github.com/raphaelgruber/kbchat/internal/session"
)

// Credential validation messages, keyed by struct field and failed tag.
var validationMessages = map[string]map[string]string{
	"Email": {
		"required": "Email is required",
		"email":    "Please enter a valid email address",
	},
	"Password": {
		"required": "Password is required",
		"min":      "Password must be at least 6 characters",
	},
	"FullName": {
		"required": "Full name is required",
		"min":      "Full name must be at least 2 characters",
	},
}

// Auth runs the login, signup and logout flows against the session store.
type Auth struct {
	api      API
	store    *session.Store
	cache    *query.Client
	notifier notify.Notifier
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAuth creates the auth flows. cache may be nil.
func NewAuth(api API, store *session.Store, cache *query.Client, notifier notify.Notifier, logger *slog.Logger) *Auth {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Auth{
		api:      api,
		store:    store,
		cache:    cache,
		notifier: notifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Validate checks credentials locally and returns the first failure as a
// *client.Error with a form-style message.
func (a *Auth) Validate(req any) error {
	err := a.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &client.Error{Message: err.Error()}
	}
	first := verrs[0]
	if msg, ok := validationMessages[first.Field()][first.Tag()]; ok {
		return &client.Error{Message: msg}
	}
	return &client.Error{Message: first.Error()}
}

// Login validates req, authenticates and stores the session.
func (a *Auth) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	if err := a.Validate(req); err != nil {
		return nil, err
	}
	return a.authenticate(ctx, "login",
		func() (*models.AuthResult, error) { return a.api.Login(ctx, req) },
		notify.Notice{Title: "Welcome back!", Description: "You have successfully logged in."},
		"Login Failed")
}

// Signup validates req, registers and stores the session.
func (a *Auth) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResult, error) {
	if err := a.Validate(req); err != nil {
		return nil, err
	}
	return a.authenticate(ctx, "signup",
		func() (*models.AuthResult, error) { return a.api.Signup(ctx, req) },
		notify.Notice{Title: "Account Created!", Description: "Your account has been created successfully."},
		"Signup Failed")
}

func (a *Auth) authenticate(ctx context.Context, flow string, call func() (*models.AuthResult, error), success notify.Notice, failureTitle string) (*models.AuthResult, error) {
	a.store.SetLoading(true)
	defer a.store.SetLoading(false)

	res, err := call()
	if err != nil {
		a.logger.InfoContext(ctx, "authentication failed", "flow", flow, "error", err)
		a.notifier.Notify(notify.Notice{Title: failureTitle, Description: err.Error(), Destructive: true})
		return nil, err
	}

	if a.cache != nil {
		a.cache.Clear()
	}
	// Memory state is updated even when persisting fails; report it but keep going.
	if err := a.store.Login(res.User, res.Token); err != nil {
		if errors.Is(err, session.ErrEmptyToken) {
			a.notifier.Notify(notify.Notice{Title: failureTitle, Description: client.ErrInvalidResponse.Error(), Destructive: true})
			return nil, client.ErrInvalidResponse
		}
		a.logger.WarnContext(ctx, "session not persisted", "error", err)
	}

	a.logger.InfoContext(ctx, "authenticated", "flow", flow, "user", res.User.Key())
	a.notifier.Notify(success)
	return res, nil
}

// Logout ends the session. Calling it while signed out is harmless.
func (a *Auth) Logout() error {
	err := a.store.Logout()
	if a.cache != nil {
		a.cache.Clear()
	}
	a.notifier.Notify(notify.Notice{Title: "Logged out", Description: "You have been successfully logged out."})
	if err != nil {
		return fmt.Errorf("persist logout: %w", err)
	}
	return nil
}
