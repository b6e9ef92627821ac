package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zhouzirui/advice-chat/internal/service/auth"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}

			username, password, err := readCredentials(cmd)
			if err != nil {
				return err
			}

			client := auth.NewClient(cfg.Auth.BaseURL, nil)
			tok, err := client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			if err := auth.NewFileTokenStore(cfg.Auth.TokenPath).Save(tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringP("username", "u", "", "Username")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}

			username, password, err := readCredentials(cmd)
			if err != nil {
				return err
			}

			if err := auth.NewClient(cfg.Auth.BaseURL, nil).Register(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Registration successful! Please login.")
			return nil
		},
	}
	cmd.Flags().StringP("username", "u", "", "Username")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}
			if err := auth.NewFileTokenStore(cfg.Auth.TokenPath).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func readCredentials(cmd *cobra.Command) (string, string, error) {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.ErrOrStderr()

	username, _ := cmd.Flags().GetString("username")
	if username == "" {
		fmt.Fprint(out, "Username: ")
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", "", err
		}
		username = strings.TrimSpace(line)
	}

	fmt.Fprint(out, "Password: ")
	password, err := readPassword(in)
	fmt.Fprintln(out)
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

// readPassword hides input on a terminal and falls back to a plain line
// read when stdin is piped.
func readPassword(in *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
