package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/five82/folio/internal/app"
	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/catalog"
	"github.com/five82/folio/internal/logtail"
	"github.com/five82/folio/internal/prefs"
)

func loginCmd(opts *app.Options) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session for the TUI",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Open(*opts)
			if err != nil {
				return err
			}
			defer env.Close()
			env.Session.Restore()

			in := newPrompter(cmd)
			if email == "" {
				email = env.Prefs.LastEmail
			}
			if email == "" {
				if email, err = in.line("Email: "); err != nil {
					return err
				}
			}
			password, err := in.password("Password: ")
			if err != nil {
				return err
			}

			form := catalog.LoginForm{Email: email, Password: password}
			if err := form.Validate(); err != nil {
				return err
			}
			resp, err := env.Client.Login(cmd.Context(), form.Credentials())
			if err != nil {
				env.Logger.Warn("cli login failed", zap.Error(err))
				return errors.New(bookshelf.ErrorMessage(err, "Invalid credentials"))
			}
			if err := env.Session.Login(resp.Token, resp.User); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			creds := form.Credentials()
			if err := prefs.Update(env.PrefsPath, func(p *prefs.Prefs) { p.LastEmail = creds.Email }); err != nil {
				env.Logger.Warn("save last email failed", zap.Error(err))
			}

			name := resp.User.Name
			if name == "" {
				name = resp.User.Email
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome back, %s!\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (defaults to the last one used)")
	return cmd
}

func registerCmd(opts *app.Options) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Open(*opts)
			if err != nil {
				return err
			}
			defer env.Close()

			in := newPrompter(cmd)
			if name == "" {
				if name, err = in.line("Name: "); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = in.line("Email: "); err != nil {
					return err
				}
			}
			password, err := in.password("Password: ")
			if err != nil {
				return err
			}

			form := catalog.SignupForm{Name: name, Email: email, Password: password}
			if err := form.Validate(); err != nil {
				return err
			}
			if err := env.Client.Register(cmd.Context(), form.Registration()); err != nil {
				env.Logger.Warn("cli register failed", zap.Error(err))
				return errors.New(bookshelf.ErrorMessage(err, bookshelf.GenericMessage))
			}
			reg := form.Registration()
			if err := prefs.Update(env.PrefsPath, func(p *prefs.Prefs) { p.LastEmail = reg.Email }); err != nil {
				env.Logger.Warn("save last email failed", zap.Error(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Registration successful! Please log in with your credentials.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func logoutCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Open(*opts)
			if err != nil {
				return err
			}
			defer env.Close()
			env.Session.Restore()
			if err := env.Session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "You have been logged out.")
			return nil
		},
	}
}

func whoamiCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Open(*opts)
			if err != nil {
				return err
			}
			defer env.Close()
			env.Session.Restore()

			out := cmd.OutOrStdout()
			snap := env.Session.Snapshot()
			if !snap.IsAuthenticated() {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}
			fmt.Fprintf(out, "%s <%s>\n", snap.User.Name, snap.User.Email)
			fmt.Fprintf(out, "api: %s\n", env.Client.BaseURL())
			return nil
		},
	}
}

func logCmd(opts *app.Options) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the end of the log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Open(*opts)
			if err != nil {
				return err
			}
			defer env.Close()

			entries, err := logtail.Read(env.Config.LogFile, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range entries {
				fmt.Fprintln(out, logtail.FormatLine(line))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to show")
	return cmd
}

// prompter reads answers from the command's input. Passwords are read
// without echo when input is a terminal.
type prompter struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{in: in, out: cmd.OutOrStdout(), reader: bufio.NewReader(in)}
}

func (p *prompter) line(prompt string) (string, error) {
	text, err := p.readLine(prompt)
	return strings.TrimSpace(text), err
}

// readLine returns the answer with only the line ending removed.
func (p *prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	text, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && text != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(text, "\r\n"), nil
}

// password is returned exactly as typed; spaces are part of it.
func (p *prompter) password(prompt string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.readLine(prompt)
	}
	fmt.Fprint(p.out, prompt)
	raw, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
