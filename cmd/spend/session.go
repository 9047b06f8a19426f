package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func sessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the token used with the remote backend",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <token>",
			Short: "Save a bearer token for the remote backend",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				token := strings.TrimSpace(args[0])
				if token == "" {
					return fmt.Errorf("token must not be empty")
				}
				if err := a.sessions.Save(token); err != nil {
					return err
				}
				a.console.Success("Token saved to %s", a.sessions.Path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget the saved token",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				if err := a.sessions.Clear(); err != nil {
					return err
				}
				a.console.Success("Logged out")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show where the token comes from",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				a.sessionStatus()
				return nil
			},
		},
	)
	return cmd
}

func (a *app) sessionStatus() {
	a.console.Info("Backend: %s", a.cfg.DataBackend)
	if a.cfg.APIToken != "" {
		a.console.Info("Using the token from API_TOKEN")
		return
	}
	token, err := a.sessions.Load()
	switch {
	case err != nil:
		a.console.Warning("Cannot read %s: %v", a.sessions.Path, err)
	case token == "":
		a.console.Info("Not logged in")
	default:
		a.console.Info("Logged in with the token saved in %s", a.sessions.Path)
	}
}
