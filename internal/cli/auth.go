package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/joshua-takyi/gigs/internal/models"
	"github.com/joshua-takyi/gigs/internal/session"
	"github.com/spf13/cobra"
)

// PasswordEnv lets scripts pass the password without putting it on the
// command line.
const PasswordEnv = "GIGS_PASSWORD"

func passwordFrom(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}
	return "", NewExitError(ExitCommandError, fmt.Sprintf("--password or %s is required", PasswordEnv))
}

type signUpOptions struct {
	name     string
	email    string
	password string
}

func NewSignUpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &signUpOptions{}
	cmd := &cobra.Command{
		Use:           "signup",
		Short:         "Create an account",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignUp(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "Display name")
	cmd.Flags().StringVar(&opts.email, "email", "", "Email address")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (or set "+PasswordEnv+")")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runSignUp(rootOpts *RootOptions, opts *signUpOptions, cmd *cobra.Command) error {
	out := formatterFor(rootOpts, cmd)
	password, err := passwordFrom(opts.password)
	if err != nil {
		return out.Error(err)
	}
	app, err := rootOpts.App(cmd)
	if err != nil {
		return out.Error(err)
	}

	s, signedIn, err := app.Session.SignUp(cmd.Context(), &models.SignUpInput{
		Name:     opts.name,
		Email:    opts.email,
		Password: password,
	})
	if err != nil {
		return out.Error(err)
	}
	if !signedIn {
		return out.Success(nil, "Account created. Confirm your email, then run \"gigctl login\".", nil)
	}
	return out.Success(accountView(&s), "", func(w io.Writer) {
		fmt.Fprintf(w, "Welcome, %s. You are signed in as %s.\n", displayName(&s), s.Email)
	})
}

type loginOptions struct {
	email    string
	password string
}

func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &loginOptions{}
	cmd := &cobra.Command{
		Use:           "login",
		Short:         "Sign in with email and password",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "Email address")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (or set "+PasswordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runLogin(rootOpts *RootOptions, opts *loginOptions, cmd *cobra.Command) error {
	out := formatterFor(rootOpts, cmd)
	password, err := passwordFrom(opts.password)
	if err != nil {
		return out.Error(err)
	}
	app, err := rootOpts.App(cmd)
	if err != nil {
		return out.Error(err)
	}

	s, err := app.Session.SignIn(cmd.Context(), opts.email, password)
	if err != nil {
		return out.Error(err)
	}
	return out.Success(accountView(&s), "", func(w io.Writer) {
		fmt.Fprintf(w, "Signed in as %s.\n", s.Email)
	})
}

func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Sign out and forget the saved session",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(rootOpts, cmd)
		},
	}
}

func runLogout(rootOpts *RootOptions, cmd *cobra.Command) error {
	out := formatterFor(rootOpts, cmd)
	app, err := rootOpts.App(cmd)
	if err != nil {
		return out.Error(err)
	}
	if _, ok := app.Session.Current(); !ok {
		return out.Success(nil, "Not signed in.", nil)
	}
	// The local session is gone even when the server call fails.
	if err := app.Session.SignOut(cmd.Context()); err != nil {
		out.VerboseLog("%v", err)
		app.Logger.Warn("Remote sign out failed", "error", err)
	}
	return out.Success(nil, "Signed out.", nil)
}

func NewWhoAmICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Show the signed-in account",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoAmI(rootOpts, cmd)
		},
	}
}

func runWhoAmI(rootOpts *RootOptions, cmd *cobra.Command) error {
	out := formatterFor(rootOpts, cmd)
	app, err := rootOpts.App(cmd)
	if err != nil {
		return out.Error(err)
	}
	if _, _, err := signedIn(cmd, app); err != nil {
		return out.Error(err)
	}
	s, _ := app.Session.Current()
	return out.Success(accountView(&s), "", func(w io.Writer) {
		fmt.Fprintf(w, "%s <%s>\n%s\n", displayName(&s), s.Email, s.UserID)
	})
}

// accountView is the session without its tokens.
func accountView(s *session.Session) map[string]string {
	return map[string]string{
		"id":    s.UserID.String(),
		"email": s.Email,
		"name":  s.Name,
	}
}

func displayName(s *session.Session) string {
	if s.Name != "" {
		return s.Name
	}
	return s.Email
}
