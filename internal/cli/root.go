// Package cli provides the command-line interface for kbchat.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/raphaelgruber/kbchat/internal/client"
	"github.com/raphaelgruber/kbchat/internal/config"
	"github.com/raphaelgruber/kbchat/internal/guard"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/raphaelgruber/kbchat/internal/notify"
	"github.com/raphaelgruber/kbchat/internal/query"
	"github.com/raphaelgruber/kbchat/internal/service"
	"github.com/raphaelgruber/kbchat/internal/session"
	"github.com/spf13/cobra"
)

// annotationPublic marks commands that run without a validated session.
const annotationPublic = "public"

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Wired in PersistentPreRunE
	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
	store    *session.Store
	api      *client.Client
	cache    *query.Client
	hooks    *service.Hooks
	kb       *service.KBQuery
	auth     *service.Auth
	gate     *guard.Guard
	notifier notify.Notifier

	// currentUser is the user validated by the guard for this invocation.
	currentUser *models.User
)

// errNotSignedIn is returned when the guard redirects a protected command.
var errNotSignedIn = errors.New("not signed in")

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kbchat",
	Short: "Chat with your organisation's knowledge base",
	Long: `kbchat is a terminal client for the knowledge-base assistant.

Sign in, ask questions against the documents you have access to, browse
previous conversations, and open the cited documents.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cache != nil {
			cache.Wait()
		}
		if verbose && api != nil {
			printStats(api.Metrics().Snapshot())
		}
		if closeLog != nil {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// setup loads configuration, restores the session and runs the guard for
// protected commands.
func setup(cmd *cobra.Command, args []string) error {
	if builtin(cmd) {
		return nil
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The chat screen owns the terminal; log to the file only.
	if cmd.Name() == "chat" {
		logger, closeLog = config.SetupFileLogger(cfg.LogFile, cfg.LogLevel)
	} else {
		logger, closeLog = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	}
	if verbose {
		logger.Debug("config loaded", "api_url", cfg.APIURL, "session_file", cfg.SessionFile)
	}

	store = session.NewStore(session.NewFileStore(cfg.SessionFile), logger)
	if err := store.Restore(); err != nil && !errors.Is(err, session.ErrSchemaVersion) {
		logger.Warn("session not restored", "error", err)
	}

	api = client.New(cfg.APIURL,
		client.WithAssetURL(cfg.AssetURL),
		client.WithTimeout(cfg.ClientTimeout),
		client.WithRateLimit(cfg.RateLimit),
		client.WithLogger(logger),
	)
	cache = query.NewClient(query.WithLogger(logger))
	notifier = notify.NewPrinter(os.Stdout, notify.DefaultTheme)
	hooks = service.NewHooks(api, cache, store, cfg.CacheTTL)
	kb = service.NewKBQuery(api, store, cache)
	auth = service.NewAuth(api, store, cache, notifier, logger)
	gate = guard.New(store, api, logger)

	if cmd.Annotations[annotationPublic] == "true" {
		return nil
	}
	return enter(cmd.Context(), cmd)
}

// enter runs the guard for cmd and records the validated user.
func enter(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	decision := gate.Enter(ctx, destination(cmd))
	if !decision.Allowed() {
		fmt.Fprintf(os.Stderr, "Session expired or missing. Run: kbchat login --from %s\n", decision.Destination)
		return errNotSignedIn
	}
	currentUser = decision.User
	return nil
}

// destination maps a command to the path the guard protects, e.g.
// "kbchat documents list" becomes "/documents/list".
func destination(cmd *cobra.Command) string {
	parts := strings.Fields(cmd.CommandPath())
	if len(parts) <= 1 {
		return "/"
	}
	return "/" + strings.Join(parts[1:], "/")
}

// commandFor maps a destination back to the command line that opens it.
func commandFor(dest string) string {
	dest = strings.Trim(dest, "/")
	if dest == "" {
		return "kbchat chat"
	}
	return "kbchat " + strings.ReplaceAll(dest, "/", " ")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and request statistics")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}

// public marks cmd as runnable without a session.
// builtin reports whether cmd is one of cobra's help or completion commands,
// which never touch the session.
func builtin(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		name := c.Name()
		if name == "help" || name == cobra.ShellCompRequestCmd || name == cobra.ShellCompNoDescRequestCmd ||
			name == "completion" {
			return true
		}
	}
	return false
}

func public(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationPublic] = "true"
	return cmd
}
