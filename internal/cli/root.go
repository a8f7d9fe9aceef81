// Package cli is the terminal client for gigs. It talks to the same Supabase
// project as the API server and keeps its session in a local file.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/config"
	"github.com/joshua-takyi/gigs/internal/connect"
	"github.com/joshua-takyi/gigs/internal/container"
	"github.com/joshua-takyi/gigs/internal/services"
	"github.com/joshua-takyi/gigs/internal/session"
	"github.com/spf13/cobra"
)

// RootOptions holds the global flags and the lazily built App.
type RootOptions struct {
	Verbose     bool
	Format      string
	SessionFile string

	// NewApp builds the services on first use. Tests replace it.
	NewApp func(ctx context.Context, opts *RootOptions, stderr io.Writer) (*App, error)

	once   sync.Once
	app    *App
	appErr error
}

// App is what the commands run against.
type App struct {
	Logger     *slog.Logger
	Events     *services.EventService
	Attendance *services.AttendanceService
	Session    *session.Holder

	closers []func()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// App returns the shared App, building it on the first call.
func (o *RootOptions) App(cmd *cobra.Command) (*App, error) {
	o.once.Do(func() {
		build := o.NewApp
		if build == nil {
			build = NewDefaultApp
		}
		o.app, o.appErr = build(cmd.Context(), o, cmd.ErrOrStderr())
	})
	return o.app, o.appErr
}

func (o *RootOptions) Close() {
	if o.app != nil {
		o.app.Close()
	}
}

// NewRootCommand creates the gigctl command tree.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gigctl",
		Short: "Discover and attend live music events",
		Long: `gigctl lists upcoming gigs, lets organizers publish and edit their
events, and tracks which events you are attending.

Sign in once with "gigctl login"; the session is kept in your user config
directory and refreshed automatically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log diagnostics to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "Output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.SessionFile, "session-file", "", "Session file (default: user config dir)")

	cmd.AddCommand(NewSignUpCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoAmICommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewAttendCommand(opts))
	cmd.AddCommand(NewLeaveCommand(opts))
	cmd.AddCommand(NewCalendarCommand(opts))

	return cmd
}

// NewDefaultApp connects to Supabase, restores the saved session and keeps
// the session file in sync with later sign-ins and sign-outs.
func NewDefaultApp(ctx context.Context, opts *RootOptions, stderr io.Writer) (*App, error) {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	config.LoadEnvFiles()
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	supaClient, err := connect.InitSupabase(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to connect to Supabase", err)
	}
	clients := container.Clients{Supabase: supaClient}
	app := &App{Logger: logger, closers: []func(){connect.Disconnect}}

	if cfg.ImageBackend == config.ImageBackendCloudinary {
		cld, err := connect.CloudinaryCredentials()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to configure Cloudinary", err)
		}
		clients.Cloudinary = cld
	}
	if cfg.ValkeyAddr != "" {
		vk, err := connect.ValkeyConnect(cfg.ValkeyAddr)
		if err != nil {
			logger.Warn("Valkey unavailable, toggles are guarded in-process only", "error", err)
		} else {
			clients.Valkey = vk
			app.closers = append(app.closers, connect.ValkeyDisconnect)
		}
	}

	c := container.NewContainer(ctx, cfg, logger, clients)
	app.closers = append(app.closers, c.Close)
	app.Events = c.EventService
	app.Attendance = c.AttendanceService

	path := opts.SessionFile
	if path == "" {
		if path, err = session.DefaultPath(); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to locate session file", err)
		}
	}
	store := session.NewFileStore(path)
	saved, err := store.Load()
	if err != nil {
		logger.Warn("Ignoring unreadable session file", "path", path, "error", err)
	}

	holder := session.NewHolder(c.UserService)
	holder.Subscribe(store.Listener(logger))
	holder.Restore(saved)
	app.Session = holder
	app.closers = append(app.closers, holder.Close)

	return app, nil
}

func formatterFor(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// signedIn returns the current access token and user id, or an ExitAuth
// error telling the user to log in.
func signedIn(cmd *cobra.Command, app *App) (string, uuid.UUID, error) {
	token, userID, err := app.Session.Token(cmd.Context())
	if err != nil {
		return "", userID, WrapExitError(ExitAuth, fmt.Sprintf("not signed in, run %q first", "gigctl login"), err)
	}
	return token, userID, nil
}
