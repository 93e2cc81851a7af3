package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/sketchbook/internal/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the quiz server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuth(cmd, (*auth.Client).Login)
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account on the quiz server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuth(cmd, (*auth.Client).Signup)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored login",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.CredentialRepo().Delete(context.Background()); err != nil {
			return fmt.Errorf("delete credentials: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

type exchangeFunc func(c *auth.Client, ctx context.Context, email, password string) (*auth.Credentials, error)

func runAuth(cmd *cobra.Command, exchange exchangeFunc) error {
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		return errors.New("--email is required")
	}

	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	password, err := readLine(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if password == "" {
		return errors.New("password must not be empty")
	}

	client, err := auth.NewClient(cfg.ServerURL, cfg.RequestTimeout)
	if err != nil {
		return err
	}

	ctx := context.Background()
	creds, err := exchange(client, ctx, email, password)
	if err != nil {
		return err
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := auth.Save(ctx, st.CredentialRepo(), creds, time.Now()); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (user %d).\n", creds.Email, creds.UserID)
	if exp, ok := creds.ExpiresAt(); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "Session valid until %s.\n", exp.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().String("email", "", "Account email")
	}
}
