package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tgienger/taskflow/internal/api"
	"github.com/tgienger/taskflow/internal/db"
	"github.com/tgienger/taskflow/internal/validate"
)

// readPassword prompts on stderr. A terminal gets no echo; piped input is
// read a line at a time.
func (o *rootOptions) readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	if o.stdin == nil {
		o.stdin = bufio.NewReader(cmd.InOrStdin())
	}
	line, err := o.stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// newPassword asks twice and validates the result
func (o *rootOptions) newPassword(cmd *cobra.Command) (string, error) {
	pw, err := o.readPassword(cmd, "Password: ")
	if err != nil {
		return "", err
	}
	confirm, err := o.readPassword(cmd, "Confirm password: ")
	if err != nil {
		return "", err
	}
	errs := validate.Errors{}
	errs.Password("password", pw)
	errs.Match("confirm", confirm, pw)
	if err := errs.Err(); err != nil {
		return "", err
	}
	return pw, nil
}

func newLoginCmd(o *rootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			password, err := o.readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			if err := validate.Login(email, password).Err(); err != nil {
				return err
			}

			ctx, cancel := e.context(cmd.Context())
			defer cancel()
			u, err := e.session().Login(ctx, strings.TrimSpace(email), password)
			if err != nil {
				return fmt.Errorf("login failed: %s", api.ErrorMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", u.Name, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored cookie",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := e.context(cmd.Context())
			defer cancel()
			if err := e.session().Logout(ctx); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged out locally; the server said: %s\n", api.ErrorMessage(err))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := e.context(cmd.Context())
			defer cancel()
			sess, err := e.authenticated(ctx)
			if err != nil {
				return err
			}
			u := sess.State().User
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", u.Name, u.Email)
			if exp, ok := e.client.SessionExpiry(); ok {
				fmt.Fprintf(out, "Session expires %s\n", exp.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func newRegisterCmd(o *rootOptions) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; a verification code is emailed",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			password, err := o.newPassword(cmd)
			if err != nil {
				return err
			}
			name, email = strings.TrimSpace(name), strings.TrimSpace(email)
			if err := validate.Signup(name, email, password, password).Err(); err != nil {
				return err
			}

			ctx, cancel := e.context(cmd.Context())
			defer cancel()
			tempID, err := e.client.Signup(ctx, name, email, password)
			if err != nil {
				return fmt.Errorf("registration failed: %s", api.ErrorMessage(err))
			}
			if err := e.store.SetSetting(db.SettingPendingSignup, tempID); err != nil {
				return fmt.Errorf("failed to save pending registration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "We sent a code to %s. Run `taskflow verify-otp --code CODE`.\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	return cmd
}

// pendingSignup returns the temp user id saved by register
func pendingSignup(e *env, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	id, err := e.store.GetSetting(db.SettingPendingSignup)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("no pending registration (run `taskflow register` first)")
	}
	return id, nil
}

func newVerifyOTPCmd(o *rootOptions) *cobra.Command {
	var code, tempID string
	cmd := &cobra.Command{
		Use:   "verify-otp",
		Short: "Verify the emailed registration code",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			errs := validate.Errors{}
			errs.OTP("code", code)
			if err := errs.Err(); err != nil {
				return err
			}
			id, err := pendingSignup(e, tempID)
			if err != nil {
				return err
			}

			ctx, cancel := e.context(cmd.Context())
			defer cancel()
			if err := e.client.VerifySignupOTP(ctx, id, strings.TrimSpace(code)); err != nil {
				return fmt.Errorf("verification failed: %s", api.ErrorMessage(err))
			}
			if err := e.store.SetSetting(db.SettingPendingSignup, ""); err != nil {
				e.log.Warn("failed to clear pending registration", "err", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Email verified. Run `taskflow login --email EMAIL` to sign in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "six digit code from the email")
	cmd.Flags().StringVar(&tempID, "temp-id", "", "registration id (defaults to the last `register`)")
	cmd.MarkFlagRequired("code")
	return cmd
}

func newResendOTPCmd(o *rootOptions) *cobra.Command {
	var tempID string
	cmd := &cobra.Command{
		Use:   "resend-otp",
		Short: "Send a new registration code",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			id, err := pendingSignup(e, tempID)
			if err != nil {
				return err
			}
			ctx, cancel := e.context(cmd.Context())
			defer cancel()
			if err := e.client.ResendSignupOTP(ctx, id); err != nil {
				return fmt.Errorf("resend failed: %s", api.ErrorMessage(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "A new code is on its way.")
			return nil
		},
	}
	cmd.Flags().StringVar(&tempID, "temp-id", "", "registration id (defaults to the last `register`)")
	return cmd
}

func newForgotPasswordCmd(o *rootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Email a password reset link",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			email = strings.TrimSpace(email)
			errs := validate.Errors{}
			errs.Email("email", email)
			if err := errs.Err(); err != nil {
				return err
			}
			ctx, cancel := e.context(cmd.Context())
			defer cancel()
			if err := e.client.ForgotPassword(ctx, email); err != nil {
				return fmt.Errorf("request failed: %s", api.ErrorMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "If %s has an account, a reset link is on its way.\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newResetPasswordCmd(o *rootOptions) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the emailed token",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			password, err := o.newPassword(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := e.context(cmd.Context())
			defer cancel()
			if err := e.client.ResetPassword(ctx, strings.TrimSpace(token), password); err != nil {
				return fmt.Errorf("reset failed: %s", api.ErrorMessage(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated. You can log in now.")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token from the reset email")
	cmd.MarkFlagRequired("token")
	return cmd
}
